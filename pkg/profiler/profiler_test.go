package profiler

import (
	"fmt"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/David-Botos/form-ingress/pkg/model"
)

func newTestTable() *model.Table {
	columns := []string{model.IDColumn, "nom", "pays", "rejoins_le_groupe_whatsapp", "constante", "rare", "message"}
	var cells [][]string
	for i := 0; i < 40; i++ {
		rare := ""
		if i == 0 {
			rare = "x"
		}
		cells = append(cells, []string{
			"same-id",
			fmt.Sprintf("Nom %d", i),
			[]string{"Cameroun", "Togo"}[i%2],
			"ok",
			"oui",
			rare,
			fmt.Sprintf("Ecris-nous sur WhatsApp %d", i),
		})
	}
	return model.FromCells("form", columns, cells)
}

func TestProfile(t *testing.T) {
	p, err := NewProfiler(zaptest.NewLogger(t), 0)
	if err != nil {
		t.Fatalf("NewProfiler: %v", err)
	}

	profiles := p.Profile(newTestTable())
	byName := make(map[string]ColumnProfile)
	for _, prof := range profiles {
		byName[prof.Column] = prof
	}

	if prof := byName["nom"]; !prof.Exploitable || prof.FillRate != 100 || prof.Distinct != 40 || len(prof.Samples) != sampleSize {
		t.Fatalf("unexpected profile for nom: %+v", prof)
	}
	if prof := byName["pays"]; !prof.Exploitable || prof.Distinct != 2 {
		t.Fatalf("unexpected profile for pays: %+v", prof)
	}
	if prof := byName["rejoins_le_groupe_whatsapp"]; prof.Exploitable {
		t.Fatalf("instruction column should not be exploitable: %+v", prof)
	}
	if prof := byName["constante"]; prof.Exploitable {
		t.Fatalf("constant column should not be exploitable: %+v", prof)
	}
	if prof := byName["rare"]; prof.Exploitable || prof.FillRate >= DefaultMinFillRate {
		t.Fatalf("rare column should not be exploitable: %+v", prof)
	}
	if prof := byName["message"]; prof.Exploitable || prof.Messages != 40 || prof.Links != 40 {
		t.Fatalf("message column should not be exploitable: %+v", prof)
	}
}

func TestPruneKeepsID(t *testing.T) {
	p, err := NewProfiler(zaptest.NewLogger(t), DefaultMinFillRate)
	if err != nil {
		t.Fatalf("NewProfiler: %v", err)
	}

	table := newTestTable()
	pruned, _ := p.Prune(table)

	want := []string{model.IDColumn, "nom", "pays"}
	if len(pruned.Columns) != len(want) {
		t.Fatalf("expected columns %v, got %v", want, pruned.Columns)
	}
	for i, col := range want {
		if pruned.Columns[i] != col {
			t.Fatalf("expected columns %v, got %v", want, pruned.Columns)
		}
	}
	if pruned.Len() != table.Len() {
		t.Fatalf("row count changed: %d != %d", pruned.Len(), table.Len())
	}
	if len(table.Columns) != 7 {
		t.Fatal("input table was modified")
	}
}

func TestPruneEmptyTable(t *testing.T) {
	p, _ := NewProfiler(zaptest.NewLogger(t), 0)
	table := model.NewTable("empty", []string{"a", "b"})
	pruned, profiles := p.Prune(table)
	if len(pruned.Columns) != 2 || len(profiles) != 2 {
		t.Fatalf("empty table should be kept as is, got %v", pruned.Columns)
	}
}

func TestNewProfilerRejectsNilLogger(t *testing.T) {
	if _, err := NewProfiler(nil, 0); err == nil {
		t.Fatal("expected error for nil logger")
	}
}
