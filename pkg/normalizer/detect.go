package normalizer

import (
	"strings"

	"github.com/David-Botos/form-ingress/pkg/model"
)

// Keyword sets used to find columns by name
var (
	DateKeywords    = []string{"date", "horodateur", "timestamp", "naissance"}
	PhoneKeywords   = []string{"telephone", "phone", "tel", "numero", "contact"}
	CountryKeywords = []string{"pays", "country", "nation", "origine"}
	PackKeywords    = []string{"pack", "package", "formule", "option"}
)

// derivedColumns are produced by the final stage and never treated as source answers
var derivedColumns = map[string]bool{
	model.ColPackType:      true,
	model.ColPackPrice:     true,
	model.ColPaymentMethod: true,
	model.ColAge:           true,
	model.ColAgeBracket:    true,
	model.ColGeneration:    true,
	model.ColEmailDomain:   true,
	model.ColEmailType:     true,
	model.IDColumn:         true,
}

// DetectColumns returns every column whose name contains one of the keywords
func DetectColumns(columns []string, keywords ...string) []string {
	var found []string
	for _, col := range columns {
		lower := strings.ToLower(col)
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				found = append(found, col)
				break
			}
		}
	}
	return found
}

// DetectRoles locates the semantic columns of a table.
// Keywords are tried in order so the most specific one wins.
func DetectRoles(columns []string) model.Roles {
	return model.Roles{
		Timestamp: findColumn(columns, "horodateur", "timestamp", "horodatage"),
		BirthDate: findColumn(columns, "naissance", "birth"),
		Country:   findColumn(columns, "pays", "country"),
		Offer:     findColumn(columns, "offre", "pack", "formule", "package"),
		Payment:   findColumn(columns, "payer", "paiement", "payment"),
		Phone:     findColumn(columns, "telephone", "phone", "numero", "tel"),
		Email:     findColumn(columns, "e-mail", "email", "mail"),
		LastName:  findExact(columns, "nom", "last_name"),
		FirstName: findExact(columns, "prenom", "first_name"),
		Comment:   findColumn(columns, "questions", "commentaire", "remarque"),
	}
}

func findColumn(columns []string, keywords ...string) string {
	for _, kw := range keywords {
		for _, col := range columns {
			if derivedColumns[col] {
				continue
			}
			if strings.Contains(strings.ToLower(col), kw) {
				return col
			}
		}
	}
	return ""
}

func findExact(columns []string, names ...string) string {
	for _, name := range names {
		for _, col := range columns {
			if strings.ToLower(col) == name {
				return col
			}
		}
	}
	return ""
}

// EmptyColumns lists the columns where every value is null or blank
func EmptyColumns(table *model.Table) []string {
	var empty []string
	for _, col := range table.Columns {
		allNull := true
		for _, row := range table.Rows {
			if !model.IsNull(row[col]) {
				allNull = false
				break
			}
		}
		if allNull {
			empty = append(empty, col)
		}
	}
	return empty
}
