package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/David-Botos/form-ingress/pkg/model"
	"github.com/David-Botos/form-ingress/pkg/sheet"
)

// WriteCSV writes a view as CSV with the same rows and columns
func WriteCSV(w io.Writer, view *model.Table) error {
	return sheet.WriteCSV(w, view)
}

// WriteXLSX writes a view as a workbook with the same rows and columns
func WriteXLSX(w io.Writer, view *model.Table) error {
	return sheet.WriteXLSX(w, view)
}

// ExportFile writes a view to path; the format follows the extension
func ExportFile(path string, view *model.Table) error {
	if err := sheet.Save(path, view); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	return nil
}

// SaveText writes the text report of s to path
func SaveText(path string, s Summary) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return WriteText(f, s)
}
