package report

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	wideRule   = 80
	narrowRule = 50
)

// FormatFCFA renders a price with thousands separators, e.g. 10,000
func FormatFCFA(price int) string {
	digits := strconv.Itoa(price)
	neg := strings.HasPrefix(digits, "-")
	digits = strings.TrimPrefix(digits, "-")

	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// WriteText writes the cleaning report
func WriteText(w io.Writer, s Summary) error {
	bw := bufio.NewWriter(w)
	line := func(format string, args ...interface{}) {
		fmt.Fprintf(bw, format+"\n", args...)
	}
	heading := func(title string) {
		line("\n%s", strings.Repeat("=", narrowRule))
		line("%s", title)
		line("%s", strings.Repeat("=", narrowRule))
	}
	section := func(title string, counts []Count, width int) {
		if len(counts) == 0 {
			return
		}
		line("\n%s", title)
		for _, c := range counts {
			line("  %-*s: %3d (%5.1f%%)", width, c.Label, c.Count, c.Percent)
		}
	}

	line("%s", strings.Repeat("=", wideRule))
	line("RAPPORT DE NETTOYAGE DU FORMULAIRE")
	line("%s", strings.Repeat("=", wideRule))
	line("Date de traitement: %s", s.GeneratedAt.Format("02/01/2006 15:04:05"))
	line("Nombre total de réponses: %d", s.Total)
	line("Nombre de colonnes finales: %d", len(s.Columns))

	heading("COLONNES DISPONIBLES")
	for i, c := range s.Columns {
		line("%2d. %-40s (remplissage: %5.1f%%)", i+1, c.Column, c.Rate)
	}

	heading("STATISTIQUES DÉTAILLÉES")
	section("DISTRIBUTION DES PACKS:", s.Packs, 15)

	if len(s.Prices) > 0 {
		line("\nPRIX DES PACKS (FCFA):")
		for _, c := range s.Prices {
			line("  %8s FCFA: %3d (%5.1f%%)", c.Label, c.Count, c.Percent)
		}
	}
	if len(s.PackPrices) > 0 {
		line("\nPRIX PAR PACK (FCFA):")
		for _, pp := range s.PackPrices {
			if pp.Priced == 0 {
				line("  %-15s: aucun prix", pp.Pack)
				continue
			}
			line("  %-15s: moyenne %10.0f | min %10.0f | max %10.0f", pp.Pack, pp.Mean, pp.Min, pp.Max)
		}
	}

	section(fmt.Sprintf("TOP %d DES PAYS:", len(s.Countries)), s.Countries, 35)
	section("DISTRIBUTION PAR ÂGE:", s.AgeBrackets, 10)
	if s.Age != nil {
		line("  Âge moyen: %.1f ans | médian: %.1f | min: %.0f | max: %.0f",
			s.Age.Mean, s.Age.Median, s.Age.Min, s.Age.Max)
	}
	section("GÉNÉRATIONS:", s.Generations, 12)
	section("MÉTHODES DE PAIEMENT:", s.Payments, 25)
	section("TYPES D'EMAIL:", s.EmailTypes, 15)

	if s.Phones.Valid+s.Phones.Invalid+s.Phones.Missing > 0 {
		line("\nTÉLÉPHONES:")
		line("  %-15s: %3d", "Valides", s.Phones.Valid)
		line("  %-15s: %3d", "Invalides", s.Phones.Invalid)
		line("  %-15s: %3d", "Manquants", s.Phones.Missing)
	}

	if s.Span != nil {
		line("\nPÉRIODE DE COLLECTE:")
		line("  Du %s au %s (%d jours, %.1f réponses/jour)",
			s.Span.First.Format("02/01/2006"), s.Span.Last.Format("02/01/2006"), s.Span.Days, s.Span.PerDay)
		for _, b := range s.PerWeekday {
			line("  %-10s: %3d", b.Label, b.Count)
		}
	}

	line("\n%s", strings.Repeat("=", wideRule))
	line("FIN DU RAPPORT")
	line("%s", strings.Repeat("=", wideRule))

	return bw.Flush()
}
