// pkg/cleaner/cleaner.go
package cleaner

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/David-Botos/form-ingress/pkg/model"
	"github.com/David-Botos/form-ingress/pkg/normalizer"
)

// OperationRecorder persists the audit trail of a cleaning run
type OperationRecorder interface {
	RecordCleaningOperations(ctx context.Context, operations []model.CleaningOperation) error
}

// DataCleaner applies the field cleaners to a whole table and keeps an
// audit trail of every changed cell
type DataCleaner struct {
	logger   *zap.Logger
	region   string
	recorder OperationRecorder
}

// NewDataCleaner creates a new DataCleaner. recorder may be nil, in which case
// operations are only returned to the caller.
func NewDataCleaner(logger *zap.Logger, region string, recorder OperationRecorder) (*DataCleaner, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if region == "" {
		region = DefaultRegion
	}

	return &DataCleaner{
		logger:   logger.Named("cleaner"),
		region:   region,
		recorder: recorder,
	}, nil
}

// valueCleaner transforms one cell. clean reports false when the value
// could not be parsed and was kept as is.
type valueCleaner struct {
	operation string
	reason    string
	clean     func(interface{}) (interface{}, bool)
}

// CleanTable runs the first cleaning stage: empty column removal, response
// ids, dates, phone numbers, countries and pack answers.
// The input table is left untouched.
func (c *DataCleaner) CleanTable(ctx context.Context, table *model.Table) (*model.Table, []model.CleaningOperation, error) {
	if table == nil {
		return nil, nil, errors.New("table cannot be nil")
	}

	out := table.Clone()
	var operations []model.CleaningOperation

	if empty := normalizer.EmptyColumns(out); len(empty) > 0 {
		out.DropColumns(empty...)
		c.logger.Info("Dropped empty columns", zap.Strings("columns", empty))
	}

	operations = append(operations, c.ensureIDs(out)...)

	dateCleaner := valueCleaner{
		operation: "date_uniformization",
		reason:    "canonical_date_format",
		clean:     uniformizeDate,
	}
	phoneCleaner := valueCleaner{
		operation: "phone_format",
		reason:    "international_format",
		clean:     func(v interface{}) (interface{}, bool) { return formatPhone(v, c.region) },
	}
	countryCleaner := valueCleaner{
		operation: "country_standardization",
		reason:    "known_country_synonym",
		clean:     always(StandardizeCountry),
	}
	packCleaner := valueCleaner{
		operation: "pack_title_case",
		reason:    "normalized_case",
		clean:     always(TitleCase),
	}

	steps := []struct {
		label    string
		keywords []string
		cleaner  valueCleaner
	}{
		{"dates", normalizer.DateKeywords, dateCleaner},
		{"phones", normalizer.PhoneKeywords, phoneCleaner},
		{"countries", normalizer.CountryKeywords, countryCleaner},
		{"packs", normalizer.PackKeywords, packCleaner},
	}

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, nil, fmt.Errorf("cleaning cancelled: %w", err)
		}
		columns := normalizer.DetectColumns(out.Columns, step.keywords...)
		for _, col := range columns {
			operations = append(operations, c.cleanColumn(out, col, step.cleaner)...)
		}
		c.logger.Info("Cleaned columns",
			zap.String("step", step.label),
			zap.Strings("columns", columns))
	}

	if err := c.record(ctx, operations); err != nil {
		return out, operations, err
	}

	return out, operations, nil
}

// ensureIDs adds the id column when missing and fills every row with a valid UUID
func (c *DataCleaner) ensureIDs(table *model.Table) []model.CleaningOperation {
	if !table.HasColumn(model.IDColumn) {
		table.Columns = append([]string{model.IDColumn}, table.Columns...)
	}

	var operations []model.CleaningOperation
	for _, row := range table.Rows {
		id, op := ensureValidID(row[model.IDColumn], table.Name)
		row[model.IDColumn] = id
		if op != nil {
			operations = append(operations, *op)
		}
	}
	return operations
}

// cleanColumn applies a cleaner to one column in place and returns an
// operation per changed or rejected cell
func (c *DataCleaner) cleanColumn(table *model.Table, column string, vc valueCleaner) []model.CleaningOperation {
	var operations []model.CleaningOperation
	failures := 0

	for _, row := range table.Rows {
		before := row[column]
		after, ok := vc.clean(before)
		row[column] = after

		cctx := model.CleaningContext{TableName: table.Name, ColumnName: column, RowIdentifier: row.RowID()}
		switch {
		case model.IsNull(before):
			continue
		case !ok:
			failures++
			operations = append(operations, cctx.Operation(before, model.String(after), vc.operation+"_failed", "unparseable_kept_original"))
		case model.String(before) != model.String(after):
			operations = append(operations, cctx.Operation(before, model.String(after), vc.operation, vc.reason))
		}
	}

	if failures > 0 {
		c.logger.Debug("Values kept as original",
			zap.String("column", column),
			zap.String("operation", vc.operation),
			zap.Int("count", failures))
	}
	return operations
}

func (c *DataCleaner) record(ctx context.Context, operations []model.CleaningOperation) error {
	if c.recorder == nil || len(operations) == 0 {
		return nil
	}
	if err := c.recorder.RecordCleaningOperations(ctx, operations); err != nil {
		return fmt.Errorf("failed to record cleaning operations: %w", err)
	}
	return nil
}

func always(fn func(interface{}) interface{}) func(interface{}) (interface{}, bool) {
	return func(v interface{}) (interface{}, bool) { return fn(v), true }
}
