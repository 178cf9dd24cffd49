// pkg/cleaner/operations.go
package cleaner

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/nyaruka/phonenumbers"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/David-Botos/form-ingress/pkg/model"
)

// DefaultRegion is used when no phone region is configured
const DefaultRegion = "FR"

// Excel serial numbers accepted as dates (1927-05-18 .. 2173-10-14)
const (
	minExcelSerial = 10000
	maxExcelSerial = 100000
)

type countrySynonym struct {
	key  string
	name string
}

// countrySynonyms is matched by substring on the lower-cased value, first hit wins.
// Keys contained in another key come after it.
var countrySynonyms = []countrySynonym{
	{"france", "France"},
	{"cameroun", "Cameroun"},
	{"cameroon", "Cameroun"},
	{"cote d'ivoire", "Côte d'Ivoire"},
	{"ivory coast", "Côte d'Ivoire"},
	{"senegal", "Sénégal"},
	{"burkina faso", "Burkina Faso"},
	{"burkina", "Burkina Faso"},
	{"mali", "Mali"},
	{"nigeria", "Nigeria"},
	{"niger", "Niger"},
	{"tchad", "Tchad"},
	{"chad", "Tchad"},
	{"benin", "Bénin"},
	{"togo", "Togo"},
	{"ghana", "Ghana"},
	{"maroc", "Maroc"},
	{"morocco", "Maroc"},
	{"algerie", "Algérie"},
	{"algeria", "Algérie"},
	{"tunisie", "Tunisie"},
	{"tunisia", "Tunisie"},
}

// countryCorrections are keyed by lower-cased name
var countryCorrections = map[string]string{
	"rdc":                              "République Démocratique du Congo",
	"république démocratique du congo": "République Démocratique du Congo",
	"côte d'ivoire":                    "Côte d'Ivoire",
	"côte d’ivoire":                    "Côte d'Ivoire",
}

var spacesPattern = regexp.MustCompile(`\s+`)

// FormatPhone formats a phone number in international notation.
// Invalid or unparseable numbers are returned trimmed; blanks become nil.
func FormatPhone(value interface{}, region string) interface{} {
	out, _ := formatPhone(value, region)
	return out
}

func formatPhone(value interface{}, region string) (interface{}, bool) {
	if model.IsNull(value) {
		return nil, true
	}
	raw := strings.TrimSpace(model.String(value))
	if region == "" {
		region = DefaultRegion
	}

	num, err := phonenumbers.Parse(raw, region)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return raw, false
	}
	return phonenumbers.Format(num, phonenumbers.INTERNATIONAL), true
}

// UniformizeDate renders a date cell in model.CanonicalDateLayout.
// Values that match no layout are returned untouched.
func UniformizeDate(value interface{}) interface{} {
	out, _ := uniformizeDate(value)
	return out
}

func uniformizeDate(value interface{}) (interface{}, bool) {
	if model.IsNull(value) {
		return nil, true
	}
	if t, err := model.Time(value); err == nil {
		return t.Format(model.CanonicalDateLayout), true
	}

	// Raw xlsx cells carry dates as serial numbers
	if s, ok := value.(string); ok {
		if serial, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil &&
			serial >= minExcelSerial && serial < maxExcelSerial {
			if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
				return t.Format(model.CanonicalDateLayout), true
			}
		}
	}
	return value, false
}

// StandardizeCountry maps known spellings to a single country name.
// Unknown values are title-cased.
func StandardizeCountry(value interface{}) interface{} {
	if model.IsNull(value) {
		return nil
	}
	lower := strings.ToLower(strings.TrimSpace(model.String(value)))
	for _, syn := range countrySynonyms {
		if strings.Contains(lower, syn.key) {
			return syn.name
		}
	}
	return titleCase(lower)
}

// FinalizeCountry title-cases a country and applies the final corrections
func FinalizeCountry(value interface{}) interface{} {
	if model.IsNull(value) {
		return nil
	}
	name := strings.TrimSpace(model.String(value))
	if fixed, ok := countryCorrections[strings.ToLower(name)]; ok {
		return fixed
	}
	return titleCase(name)
}

// CleanName trims, title-cases and collapses inner whitespace
func CleanName(value interface{}) interface{} {
	if model.IsNull(value) {
		return nil
	}
	name := titleCase(strings.TrimSpace(model.String(value)))
	return spacesPattern.ReplaceAllString(name, " ")
}

// TitleCase trims and title-cases free text
func TitleCase(value interface{}) interface{} {
	if model.IsNull(value) {
		return nil
	}
	return titleCase(strings.TrimSpace(model.String(value)))
}

func titleCase(s string) string {
	return cases.Title(language.French).String(s)
}

// ensureValidID ensures the id column contains a valid UUID.
// Always returns a valid UUID string, generating a new one if necessary.
func ensureValidID(value interface{}, table string) (string, *model.CleaningOperation) {
	reason := ""
	strValue := strings.TrimSpace(model.String(value))
	switch {
	case value == nil:
		reason = "missing_response_id"
	case strValue == "":
		reason = "empty_response_id"
	case !isValidUUID(strValue):
		reason = "invalid_response_id"
	default:
		return strValue, nil
	}

	newID := uuid.New().String()
	ctx := model.CleaningContext{TableName: table, ColumnName: model.IDColumn, RowIdentifier: newID}
	op := ctx.Operation(value, newID, "uuid_generation", reason)
	return newID, &op
}

// isValidUUID checks if a string is a valid UUID
func isValidUUID(u string) bool {
	_, err := uuid.Parse(u)
	return err == nil
}
