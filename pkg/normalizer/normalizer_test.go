package normalizer

import (
	"strings"
	"testing"

	"github.com/David-Botos/form-ingress/pkg/model"
)

func TestCanonicalName(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"Horodateur", "horodateur"},
		{"Date de naissance", "date_de_naissance"},
		{"Numéro de téléphone", "numero_de_telephone"},
		{"Quelle offre choisis -tu ?", "quelle_offre_choisis_-tu"},
		{"Quelle offre choisis-tu ?", "quelle_offre_choisis-tu"},
		{"Comment souhaites-tu\npayer ?", "comment_souhaites-tu_payer"},
		{"Adresse e-mail", "adresse_e-mail"},
		{"Œuvre préférée", "oeuvre_preferee"},
		{"Straße", "strasse"},
		{"  Pays  ", "pays"},
		{"", EmptyColumnName},
		{"   ", EmptyColumnName},
		{"???", EmptyColumnName},
	}

	for _, tc := range cases {
		if got := CanonicalName(tc.raw); got != tc.want {
			t.Fatalf("CanonicalName(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestStripAccents(t *testing.T) {
	cases := map[string]string{
		"Numéro":     "Numero",
		"cœur":       "coeur",
		"Ærø":        "AEro",
		"Łódź":       "Lodz",
		"déjà vu":    "deja vu",
		"plain text": "plain text",
	}
	for in, want := range cases {
		if got := StripAccents(in); got != want {
			t.Fatalf("StripAccents(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCanonicalNameTruncatesAtWordBoundary(t *testing.T) {
	raw := "Si tu as des questions ou un truc à dire c'est ici que ça se passe, vraiment"
	got := CanonicalName(raw)
	want := "si_tu_as_des_questions_ou_un_truc_a_dire_cest..."
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if len(got) > maxNameLength {
		t.Fatalf("name longer than %d: %q", maxNameLength, got)
	}
}

func TestCanonicalNameTruncatesWithoutBreak(t *testing.T) {
	raw := strings.Repeat("a", 60)
	got := CanonicalName(raw)
	if got != strings.Repeat("a", truncateLength)+"..." {
		t.Fatalf("unexpected truncation: %q", got)
	}
}

func TestNormalizeUniqueNonEmpty(t *testing.T) {
	headers := []string{"Pays", "pays", "PAYS", "pays_1", "", "", "Nom  complet", "Nom\tcomplet"}
	specs := Normalize(headers)
	if len(specs) != len(headers) {
		t.Fatalf("expected %d specs, got %d", len(headers), len(specs))
	}

	seen := make(map[string]bool)
	for i, spec := range specs {
		if spec.Raw != headers[i] {
			t.Fatalf("raw header not preserved at %d: %q", i, spec.Raw)
		}
		if spec.Canonical == "" {
			t.Fatalf("empty canonical name for %q", spec.Raw)
		}
		if strings.ContainsAny(spec.Canonical, " \t\n\r") {
			t.Fatalf("canonical name contains whitespace: %q", spec.Canonical)
		}
		if seen[spec.Canonical] {
			t.Fatalf("duplicate canonical name %q", spec.Canonical)
		}
		seen[spec.Canonical] = true
	}

	want := []string{"pays", "pays_1", "pays_2", "pays_1_1", "colonne_vide", "colonne_vide_1", "nom_complet", "nom_complet_1"}
	for i, w := range want {
		if specs[i].Canonical != w {
			t.Fatalf("spec %d: got %q, want %q", i, specs[i].Canonical, w)
		}
	}
}

func TestNormalizeIsDeterministic(t *testing.T) {
	headers := []string{"A", "a", "B", "a"}
	first := Columns(Normalize(headers))
	second := Columns(Normalize(headers))
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("non deterministic output: %v vs %v", first, second)
		}
	}
}

func TestDetectRoles(t *testing.T) {
	columns := []string{
		"horodateur", "nom", "prenom", "date_de_naissance", "pays", "adresse_e-mail",
		"numero_de_telephone", "quelle_offre_choisis_-tu", "comment_souhaites-tu_payer",
		"si_tu_as_des_questions_ou_un_truc_a_dire_cest...", model.ColPackType, model.ColPaymentMethod,
	}
	roles := DetectRoles(columns)

	checks := map[string]string{
		"timestamp": roles.Timestamp,
		"birth":     roles.BirthDate,
		"country":   roles.Country,
		"offer":     roles.Offer,
		"payment":   roles.Payment,
		"phone":     roles.Phone,
		"email":     roles.Email,
		"last":      roles.LastName,
		"first":     roles.FirstName,
		"comment":   roles.Comment,
	}
	want := map[string]string{
		"timestamp": "horodateur",
		"birth":     "date_de_naissance",
		"country":   "pays",
		"offer":     "quelle_offre_choisis_-tu",
		"payment":   "comment_souhaites-tu_payer",
		"phone":     "numero_de_telephone",
		"email":     "adresse_e-mail",
		"last":      "nom",
		"first":     "prenom",
		"comment":   "si_tu_as_des_questions_ou_un_truc_a_dire_cest...",
	}
	for k, w := range want {
		if checks[k] != w {
			t.Fatalf("role %s: got %q, want %q", k, checks[k], w)
		}
	}
}

func TestDetectColumns(t *testing.T) {
	columns := []string{"horodateur", "date_de_naissance", "pays", "numero_de_telephone", "pack_choisi"}
	dates := DetectColumns(columns, DateKeywords...)
	if len(dates) != 2 || dates[0] != "horodateur" || dates[1] != "date_de_naissance" {
		t.Fatalf("unexpected date columns: %v", dates)
	}
	if got := DetectColumns(columns, PackKeywords...); len(got) != 1 || got[0] != "pack_choisi" {
		t.Fatalf("unexpected pack columns: %v", got)
	}
}

func TestEmptyColumns(t *testing.T) {
	table := model.FromCells("t", []string{"a", "b", "c"}, [][]string{
		{"x", "", "nan"},
		{"y", " ", ""},
	})
	empty := EmptyColumns(table)
	if len(empty) != 2 || empty[0] != "b" || empty[1] != "c" {
		t.Fatalf("unexpected empty columns: %v", empty)
	}
}
