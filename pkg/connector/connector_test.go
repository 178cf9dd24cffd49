package connector

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
	_ "modernc.org/sqlite"

	"github.com/David-Botos/form-ingress/pkg/config"
	"github.com/David-Botos/form-ingress/pkg/model"
)

func TestInsertStatements(t *testing.T) {
	rows := [][]interface{}{
		{"a", int64(10000)},
		{"b", nil},
		{"c", int64(25000)},
	}
	stmts := insertStatements(qualifiedName("public", "final"), []string{"id", "prix_pack_fcfa"}, rows, 2)
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(stmts))
	}

	want := `INSERT INTO "public"."final" ("id", "prix_pack_fcfa") VALUES ($1, $2), ($3, $4)`
	if stmts[0].query != want {
		t.Fatalf("got %q, want %q", stmts[0].query, want)
	}
	if len(stmts[0].args) != 4 || stmts[0].args[3] != nil {
		t.Fatalf("unexpected args %v", stmts[0].args)
	}
	if stmts[1].query != `INSERT INTO "public"."final" ("id", "prix_pack_fcfa") VALUES ($1, $2)` {
		t.Fatalf("unexpected second statement %q", stmts[1].query)
	}

	if got := insertStatements("t", []string{"id"}, nil, 10); got != nil {
		t.Fatalf("no rows should give no statements, got %v", got)
	}
}

func TestQualifiedNameQuotesIdentifiers(t *testing.T) {
	if got := qualifiedName("", `adresse_e-mail"`); got != `"adresse_e-mail"""` {
		t.Fatalf("unexpected quoting %q", got)
	}
}

func TestColumnType(t *testing.T) {
	table := model.NewTable("final", []string{"age", "prix", "pays", "vide", "mixte", "horodateur"})
	table.AddRow(model.Record{"age": 30, "prix": 10000.0, "pays": "Togo", "vide": nil, "mixte": 3, "horodateur": time.Now()})
	table.AddRow(model.Record{"age": nil, "prix": 2.5, "pays": nil, "vide": "", "mixte": "trois", "horodateur": nil})

	cases := map[string]string{
		"age":        TypeBigInt,
		"prix":       TypeNumeric,
		"pays":       TypeText,
		"vide":       TypeText,
		"mixte":      TypeText,
		"horodateur": TypeTimestamp,
	}
	for col, want := range cases {
		if got := ColumnType(table, col); got != want {
			t.Fatalf("ColumnType(%s): got %s, want %s", col, got, want)
		}
	}
}

func TestInsertStatementsBindLimit(t *testing.T) {
	columns := make([]string, 200)
	for i := range columns {
		columns[i] = fmt.Sprintf("c%d", i)
	}
	rows := make([][]interface{}, 500)
	for i := range rows {
		rows[i] = make([]interface{}, len(columns))
	}

	stmts := insertStatements("t", columns, rows, 0)
	total := 0
	for _, st := range stmts {
		if len(st.args) > maxBindParams {
			t.Fatalf("statement binds %d parameters", len(st.args))
		}
		total += len(st.args)
	}
	if len(stmts) != 2 || total != 500*200 {
		t.Fatalf("expected 2 statements covering every cell, got %d with %d args", len(stmts), total)
	}
}

func TestSQLValue(t *testing.T) {
	if v := SQLValue(nil, TypeText); v != nil {
		t.Fatalf("nil should stay nil, got %v", v)
	}
	if v := SQLValue("nan", TypeBigInt); v != nil {
		t.Fatalf("null marker should become nil, got %v", v)
	}
	if v := SQLValue(model.IntPtr(25000), TypeBigInt); v != int64(25000) {
		t.Fatalf("got %v (%T)", v, v)
	}
	if v := SQLValue(2.5, TypeNumeric); v != 2.5 {
		t.Fatalf("got %v", v)
	}
	if v := SQLValue("15/03/2024 10:00:00", TypeTimestamp); v.(time.Time).Day() != 15 {
		t.Fatalf("got %v", v)
	}
	if v := SQLValue(42, TypeText); v != "42" {
		t.Fatalf("got %v (%T)", v, v)
	}
}

func TestScanText(t *testing.T) {
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "source.sqlite"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	for _, stmt := range []string{
		`CREATE TABLE formulaire ("Horodateur" TEXT, "Pays" TEXT, "Age" INTEGER)`,
		`INSERT INTO formulaire VALUES ('15/03/2024 10:00:00', 'Cameroun', 30)`,
		`INSERT INTO formulaire VALUES ('16/03/2024 11:00:00', NULL, NULL)`,
	} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			t.Fatalf("exec %q: %v", stmt, err)
		}
	}

	rows, err := db.QueryContext(ctx, `SELECT * FROM formulaire`)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	defer rows.Close()

	headers, cells, err := scanText(rows)
	if err != nil {
		t.Fatalf("scanText: %v", err)
	}
	if len(headers) != 3 || headers[1] != "Pays" {
		t.Fatalf("unexpected headers %v", headers)
	}
	if len(cells) != 2 || cells[0][2] != "30" || cells[1][1] != "" {
		t.Fatalf("unexpected cells %q", cells)
	}
}

// fixedRows serves one result set the way a warehouse driver would, with
// native time.Time values for DATE and TIMESTAMP columns
type fixedRows struct {
	columns []string
	rows    [][]driver.Value
}

func (f *fixedRows) Connect(context.Context) (driver.Conn, error) { return fixedConn{f}, nil }
func (f *fixedRows) Driver() driver.Driver { return nil }

type fixedConn struct{ data *fixedRows }

func (c fixedConn) Prepare(string) (driver.Stmt, error) { return fixedStmt{c.data}, nil }
func (fixedConn) Close() error { return nil }
func (fixedConn) Begin() (driver.Tx, error) { return nil, errors.New("read only") }

type fixedStmt struct{ data *fixedRows }

func (fixedStmt) Close() error { return nil }
func (fixedStmt) NumInput() int { return -1 }
func (fixedStmt) Exec([]driver.Value) (driver.Result, error) { return nil, errors.New("read only") }
func (s fixedStmt) Query([]driver.Value) (driver.Rows, error) { return &fixedCursor{data: s.data}, nil }

type fixedCursor struct {
	data *fixedRows
	next int
}

func (c *fixedCursor) Columns() []string { return c.data.columns }
func (c *fixedCursor) Close() error { return nil }
func (c *fixedCursor) Next(dest []driver.Value) error {
	if c.next >= len(c.data.rows) {
		return io.EOF
	}
	copy(dest, c.data.rows[c.next])
	c.next++
	return nil
}

func TestScanTextRendersWarehouseDates(t *testing.T) {
	db := sql.OpenDB(&fixedRows{
		columns: []string{"HORODATEUR", "DATE_DE_NAISSANCE", "PAYS"},
		rows: [][]driver.Value{
			{time.Date(2024, 3, 15, 10, 22, 33, 0, time.UTC), time.Date(1994, 5, 1, 0, 0, 0, 0, time.UTC), []byte("Togo")},
			{nil, nil, "Cameroun"},
		},
	})
	defer db.Close()

	rows, err := db.QueryContext(context.Background(), "SELECT * FROM FORMULAIRE")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	defer rows.Close()

	_, cells, err := scanText(rows)
	if err != nil {
		t.Fatalf("scanText: %v", err)
	}
	if cells[0][0] != "15/03/2024 10:22:33" || cells[0][1] != "01/05/1994 00:00:00" || cells[0][2] != "Togo" {
		t.Fatalf("unexpected first row %q", cells[0])
	}
	if cells[1][0] != "" || cells[1][1] != "" {
		t.Fatalf("NULL should become an empty cell, got %q", cells[1])
	}

	birth, err := model.Time(cells[0][1])
	if err != nil || birth.Year() != 1994 || birth.Month() != time.May {
		t.Fatalf("rendered date should parse back, got %v (%v)", birth, err)
	}
}

func TestQuoteSnowflake(t *testing.T) {
	if got := quoteSnowflake(`formulaire"x`); got != `"FORMULAIRE""X"` {
		t.Fatalf("got %q", got)
	}
}

func TestFactoryRequiresConfig(t *testing.T) {
	f := NewConnectorFactory(&config.Config{}, zaptest.NewLogger(t))
	if _, err := f.CreateSnowflakeConnector(context.Background()); err == nil {
		t.Fatal("expected error without Snowflake configuration")
	}
	if _, err := f.CreatePostgresConnector(context.Background()); err == nil {
		t.Fatal("expected error without PostgreSQL configuration")
	}
}
