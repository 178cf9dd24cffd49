// pkg/model/table.go
package model

import "strings"

// IDColumn is the column holding the generated response identifier
const IDColumn = "id"

// Record is one survey response keyed by canonical column name.
// A nil value is the null marker.
type Record map[string]interface{}

// Table holds a whole spreadsheet in memory
type Table struct {
	Name    string   // Source name (file or warehouse table)
	Columns []string // Column order as loaded or produced by the last stage
	Rows    []Record // One record per response
}

// ColumnSpec maps a raw header to its canonical identifier
type ColumnSpec struct {
	Raw       string // Header text as found in the source
	Canonical string // Cleaned, unique identifier
}

// NewTable creates an empty table with the given columns
func NewTable(name string, columns []string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{
		Name:    name,
		Columns: cols,
		Rows:    make([]Record, 0),
	}
}

// Len returns the number of rows
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// HasColumn reports whether a column exists (case-insensitive)
func (t *Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// ColumnIndex returns the position of a column (case-insensitive) or -1
func (t *Table) ColumnIndex(name string) int {
	normalized := strings.ToLower(name)
	for i, col := range t.Columns {
		if strings.ToLower(col) == normalized {
			return i
		}
	}
	return -1
}

// AddColumn appends a column if it is not present yet
func (t *Table) AddColumn(name string) {
	if t.ColumnIndex(name) >= 0 {
		return
	}
	t.Columns = append(t.Columns, name)
}

// AddRow appends a record
func (t *Table) AddRow(r Record) {
	t.Rows = append(t.Rows, r)
}

// Values returns the values of one column in row order
func (t *Table) Values(column string) []interface{} {
	values := make([]interface{}, len(t.Rows))
	for i, row := range t.Rows {
		values[i] = row[column]
	}
	return values
}

// DropColumns removes columns and their values from every row
func (t *Table) DropColumns(columns ...string) {
	if len(columns) == 0 {
		return
	}
	drop := make(map[string]bool, len(columns))
	for _, c := range columns {
		drop[c] = true
	}

	kept := t.Columns[:0]
	for _, col := range t.Columns {
		if !drop[col] {
			kept = append(kept, col)
		}
	}
	t.Columns = kept

	for _, row := range t.Rows {
		for c := range drop {
			delete(row, c)
		}
	}
}

// Select returns a new table restricted to the given columns, in that order.
// Columns that do not exist are skipped.
func (t *Table) Select(columns []string) *Table {
	var present []string
	for _, c := range columns {
		if t.HasColumn(c) {
			present = append(present, c)
		}
	}

	out := NewTable(t.Name, present)
	for _, row := range t.Rows {
		r := make(Record, len(present))
		for _, c := range present {
			r[c] = row[c]
		}
		out.AddRow(r)
	}
	return out
}

// Clone deep-copies the table so stages can mutate rows freely
func (t *Table) Clone() *Table {
	out := NewTable(t.Name, t.Columns)
	out.Rows = make([]Record, 0, len(t.Rows))
	for _, row := range t.Rows {
		out.AddRow(row.Clone())
	}
	return out
}

// WithRows returns a table sharing the column layout with a subset of rows
func (t *Table) WithRows(rows []Record) *Table {
	out := NewTable(t.Name, t.Columns)
	out.Rows = rows
	return out
}

// Clone copies a record
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// RowID returns the response identifier or an empty string
func (r Record) RowID() string {
	return String(r[IDColumn])
}

// FromCells builds a table from positional cells. Missing or blank cells become nil.
func FromCells(name string, columns []string, cells [][]string) *Table {
	t := NewTable(name, columns)
	t.Rows = make([]Record, 0, len(cells))
	for _, line := range cells {
		r := make(Record, len(columns))
		for i, col := range columns {
			if i < len(line) && strings.TrimSpace(line[i]) != "" {
				r[col] = line[i]
			} else {
				r[col] = nil
			}
		}
		t.AddRow(r)
	}
	return t
}
