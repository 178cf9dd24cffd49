package model

// Roles names the columns that carry a known meaning in the current table.
// An empty field means the column was not found.
type Roles struct {
	Timestamp string
	BirthDate string
	Country   string
	Offer     string
	Payment   string
	Phone     string
	Email     string
	LastName  string
	FirstName string
	Comment   string
}
