// Package normalizer turns raw questionnaire headers into canonical column
// identifiers and locates the columns each cleaning stage works on.
package normalizer

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/David-Botos/form-ingress/pkg/model"
)

// EmptyColumnName is used when a header is missing or cleans down to nothing
const EmptyColumnName = "colonne_vide"

const (
	maxNameLength  = 50
	truncateLength = 47
	minWordBreak   = 20
)

var (
	specialCharsPattern = regexp.MustCompile(`[^\w\s-]`)
	whitespacePattern   = regexp.MustCompile(`\s+`)
)

// CanonicalName cleans a single header
func CanonicalName(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return EmptyColumnName
	}

	name := strings.NewReplacer("\n", " ", "\r", " ").Replace(raw)
	name = StripAccents(name)
	name = specialCharsPattern.ReplaceAllString(name, "")
	name = whitespacePattern.ReplaceAllString(name, "_")

	if len(name) > maxNameLength {
		short := name[:truncateLength]
		if cut := strings.LastIndex(short, "_"); cut > minWordBreak {
			name = short[:cut] + "..."
		} else {
			name = short + "..."
		}
	}

	name = strings.ToLower(strings.Trim(name, "_"))
	if name == "" {
		return EmptyColumnName
	}
	return name
}

// transliterations cover letters that have no NFD decomposition
var transliterations = strings.NewReplacer(
	"œ", "oe", "Œ", "OE",
	"æ", "ae", "Æ", "AE",
	"ß", "ss", "ẞ", "SS",
	"ø", "o", "Ø", "O",
	"đ", "d", "Đ", "D",
	"ð", "d", "Ð", "D",
	"þ", "th", "Þ", "TH",
	"ł", "l", "Ł", "L",
	"ı", "i",
)

// StripAccents folds text to ASCII letters: combining marks are removed
// (é → e) and ligatures are spelled out (œ → oe, ß → ss)
func StripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, transliterations.Replace(s))
	if err != nil {
		return s
	}
	return out
}

// Normalize maps every raw header to a unique canonical identifier.
// The first occurrence of a name keeps it; later ones get _1, _2, ...
func Normalize(headers []string) []model.ColumnSpec {
	specs := make([]model.ColumnSpec, 0, len(headers))
	counts := make(map[string]int, len(headers))
	used := make(map[string]bool, len(headers))

	for _, raw := range headers {
		name := CanonicalName(raw)
		unique := name
		if _, seen := counts[name]; seen {
			for {
				counts[name]++
				unique = fmt.Sprintf("%s_%d", name, counts[name])
				if !used[unique] {
					break
				}
			}
		} else {
			counts[name] = 0
			// A raw header may already look like a suffixed duplicate
			for used[unique] {
				counts[name]++
				unique = fmt.Sprintf("%s_%d", name, counts[name])
			}
		}
		used[unique] = true
		specs = append(specs, model.ColumnSpec{Raw: raw, Canonical: unique})
	}

	return specs
}

// Columns returns the canonical identifiers of specs in order
func Columns(specs []model.ColumnSpec) []string {
	columns := make([]string, len(specs))
	for i, spec := range specs {
		columns[i] = spec.Canonical
	}
	return columns
}
