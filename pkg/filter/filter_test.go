package filter

import (
	"errors"
	"testing"
	"time"

	"github.com/David-Botos/form-ingress/pkg/model"
)

var roles = model.Roles{Timestamp: "horodateur", Country: "pays"}

func newTable() *model.Table {
	columns := []string{model.IDColumn, "horodateur", "pays", model.ColPackType, model.ColPaymentMethod}
	return model.FromCells("final", columns, [][]string{
		{"1", "01/03/2024 09:00:00", "Cameroun", "Premium", "Mobile Money"},
		{"2", "02/03/2024 10:00:00", "Cameroun", "Essentiel", "Carte Bancaire"},
		{"3", "03/03/2024 23:59:59", "Togo", "Premium", "Mobile Money"},
		{"4", "04/03/2024 08:00:00", "Cameroun", "Premium", "Autre"},
		{"5", "pas de date", "Cameroun", "Premium", "Mobile Money"},
		{"6", "05/03/2024 12:00:00", "", "Standard", "Mobile Money"},
	})
}

func ids(t *model.Table) []string {
	out := make([]string, 0, t.Len())
	for _, r := range t.Rows {
		out = append(out, r.RowID())
	}
	return out
}

func sameIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFiltersCommute(t *testing.T) {
	table := newTable()
	country := Equals("country", "pays", "Cameroun")
	pack := Equals("pack", model.ColPackType, "Premium")

	forward := Compose(table, country, pack)
	reverse := Compose(table, pack, country)
	if !sameIDs(ids(forward), ids(reverse)) {
		t.Fatalf("filters do not commute: %v vs %v", ids(forward), ids(reverse))
	}

	// Filtering the filtered view gives the same rows too
	chained := Compose(Compose(table, pack), country)
	if !sameIDs(ids(forward), ids(chained)) {
		t.Fatalf("chained view differs: %v vs %v", ids(forward), ids(chained))
	}

	want := []string{"1", "4", "5"}
	if !sameIDs(ids(forward), want) {
		t.Fatalf("got %v, want %v", ids(forward), want)
	}
}

func TestApply(t *testing.T) {
	table := newTable()
	cfg := Config{
		Start:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		End:     time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC),
		Country: "Cameroun",
		Pack:    All,
		Payment: "Mobile Money",
	}
	view, err := Apply(table, roles, cfg)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !sameIDs(ids(view), []string{"1"}) {
		t.Fatalf("unexpected view %v", ids(view))
	}
	if table.Len() != 6 {
		t.Fatal("source table was modified")
	}
	if len(view.Columns) != len(table.Columns) {
		t.Fatal("view changed the column layout")
	}
}

func TestApplyEndDateIsInclusive(t *testing.T) {
	cfg := Config{End: time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC)}
	view, err := Apply(newTable(), roles, cfg)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	// Row 5 has no parseable timestamp and is excluded while a bound is set
	if !sameIDs(ids(view), []string{"1", "2", "3"}) {
		t.Fatalf("unexpected view %v", ids(view))
	}
}

func TestApplyNoConstraint(t *testing.T) {
	cfg := Config{Country: "All", Pack: "", Payment: All}
	if !cfg.IsEmpty() {
		t.Fatal("expected empty config")
	}
	view, err := Apply(newTable(), roles, cfg)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if view.Len() != 6 {
		t.Fatalf("expected every row, got %d", view.Len())
	}
}

func TestApplySkipsMissingColumns(t *testing.T) {
	table := model.FromCells("final", []string{"horodateur", "pays"}, [][]string{
		{"01/03/2024 09:00:00", "Cameroun"},
		{"02/03/2024 10:00:00", "Togo"},
	})

	view, err := Apply(table, roles, Config{Pack: "Premium", Payment: "Mobile Money"})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if view.Len() != 2 {
		t.Fatalf("pack and payment constraints should be skipped, kept %d of 2", view.Len())
	}

	view, err = Apply(table, roles, Config{Country: "Togo", Pack: "Premium"})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if view.Len() != 1 || view.Rows[0]["pays"] != "Togo" {
		t.Fatalf("country constraint should still apply, got %v", view.Rows)
	}
}

func TestApplyInvalidRange(t *testing.T) {
	cfg := Config{
		Start: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	if _, err := Apply(newTable(), roles, cfg); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}

func TestOptions(t *testing.T) {
	table := newTable()
	got := Options(table, "pays")
	want := []string{All, "Cameroun", "Togo"}
	if !sameIDs(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if got := Options(table, ""); len(got) != 1 || got[0] != All {
		t.Fatalf("missing column should only offer All, got %v", got)
	}
}

func TestDateBounds(t *testing.T) {
	first, last, ok := DateBounds(newTable(), "horodateur")
	if !ok {
		t.Fatal("expected bounds")
	}
	if first.Format("2006-01-02") != "2024-03-01" || last.Format("2006-01-02") != "2024-03-05" {
		t.Fatalf("unexpected bounds %v %v", first, last)
	}
	if _, _, ok := DateBounds(model.NewTable("x", nil), "horodateur"); ok {
		t.Fatal("expected no bounds on empty table")
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-03-15")
	if err != nil || d.Day() != 15 {
		t.Fatalf("ParseDate: %v %v", d, err)
	}
	if d, err := ParseDate(""); err != nil || !d.IsZero() {
		t.Fatalf("empty date should be open, got %v %v", d, err)
	}
	if _, err := ParseDate("15/03/2024"); err == nil {
		t.Fatal("expected error for wrong layout")
	}
}
