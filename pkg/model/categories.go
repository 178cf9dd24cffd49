package model

// PackCategory is the standardized subscription tier
type PackCategory string

const (
	PackEssentiel PackCategory = "Essentiel"
	PackStandard  PackCategory = "Standard"
	PackPremium   PackCategory = "Premium"
	PackAvantage  PackCategory = "Avantage"
	PackAutre     PackCategory = "Autre"
)

// PackClassification is derived from the free-text offer answer.
// Category is always set; Price is nil when no amount could be extracted.
type PackClassification struct {
	Category PackCategory
	Price    *int // FCFA
}

// PaymentCategory is the standardized payment method
type PaymentCategory string

const (
	PaymentMobileMoney   PaymentCategory = "Mobile Money"
	PaymentCard          PaymentCategory = "Carte Bancaire"
	PaymentInternational PaymentCategory = "Transfert International"
	PaymentCrypto        PaymentCategory = "Cryptomonnaie"
	PaymentNone          PaymentCategory = "Pas de moyen"
	PaymentOther         PaymentCategory = "Autre"
)

// Demographics holds the fields derived from a birth date.
// Age nil means every derived field is unset.
type Demographics struct {
	Age        *int
	Bracket    string
	Generation string
}

// Derived column names written by the final stage
const (
	ColPackType      = "type_pack"
	ColPackPrice     = "prix_pack_fcfa"
	ColPaymentMethod = "methode_paiement_std"
	ColAge           = "age"
	ColAgeBracket    = "tranche_age"
	ColGeneration    = "generation"
	ColEmailDomain   = "domaine_email"
	ColEmailType     = "type_email"
)
