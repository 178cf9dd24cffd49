// Package sheet reads and writes response tables as spreadsheet (xlsx) or
// CSV files. The format is chosen from the file extension.
package sheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/David-Botos/form-ingress/pkg/model"
	"github.com/David-Botos/form-ingress/pkg/normalizer"
)

// Format is a supported file format
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// DefaultSheet is the sheet name used when writing workbooks
const DefaultSheet = "Sheet1"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ErrUnsupportedFormat is returned for unknown file extensions
var ErrUnsupportedFormat = errors.New("unsupported file format")

// FormatOf returns the format implied by a path's extension
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// ReadRaw returns the header row and data cells of the first sheet of a file
func ReadRaw(path string) ([]string, [][]string, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var rows [][]string
	switch format {
	case FormatXLSX:
		rows, err = readXLSX(f)
	case FormatCSV:
		rows, err = readCSV(f)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("failed to read %s: no header row", path)
	}
	return rows[0], rows[1:], nil
}

// Load reads a raw questionnaire export and canonicalizes its headers
func Load(path string) (*model.Table, []model.ColumnSpec, error) {
	headers, cells, err := ReadRaw(path)
	if err != nil {
		return nil, nil, err
	}
	specs := normalizer.Normalize(headers)
	return model.FromCells(tableName(path), normalizer.Columns(specs), cells), specs, nil
}

// ReadTable reads a file written by this tool; headers are used as is
func ReadTable(path string) (*model.Table, error) {
	headers, cells, err := ReadRaw(path)
	if err != nil {
		return nil, err
	}
	return model.FromCells(tableName(path), headers, cells), nil
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("no sheets found")
	}
	// Raw values keep dates as serial numbers instead of locale renderings
	return f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
}

func readCSV(r io.Reader) ([][]string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	b = bytes.TrimPrefix(b, utf8BOM)

	cr := csv.NewReader(bytes.NewReader(b))
	cr.FieldsPerRecord = -1
	return cr.ReadAll()
}

// WriteCSV writes the table as UTF-8 CSV with a BOM; nil values are empty cells
func WriteCSV(w io.Writer, table *model.Table) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(table.Columns); err != nil {
		return err
	}
	record := make([]string, len(table.Columns))
	for _, row := range table.Rows {
		for i, col := range table.Columns {
			record[i] = model.String(row[col])
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes the table as a single-sheet workbook; nil values are empty cells
func WriteXLSX(w io.Writer, table *model.Table) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	header := make([]interface{}, len(table.Columns))
	for i, col := range table.Columns {
		header[i] = col
	}
	if err := f.SetSheetRow(DefaultSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for r, row := range table.Rows {
		values := make([]interface{}, len(table.Columns))
		for i, col := range table.Columns {
			values[i] = cellValue(row[col])
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(DefaultSheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", r+1, err)
		}
	}

	_, err := f.WriteTo(w)
	return err
}

// Save writes a table to path in the format implied by its extension
func Save(path string, table *model.Table) (err error) {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	switch format {
	case FormatXLSX:
		err = WriteXLSX(f, table)
	case FormatCSV:
		err = WriteCSV(f, table)
	}
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// cellValue keeps numbers numeric in workbooks and renders the rest as text
func cellValue(v interface{}) interface{} {
	switch val := v.(type) {
	case nil:
		return nil
	case int, int64, float64:
		return val
	case *int:
		if val == nil {
			return nil
		}
		return *val
	default:
		return model.String(v)
	}
}

func tableName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
