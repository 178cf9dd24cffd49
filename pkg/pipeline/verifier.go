package pipeline

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/David-Botos/form-ingress/pkg/model"
)

// Verifier checks the invariants every stage must keep
type Verifier struct {
	logger *zap.Logger
}

// NewVerifier creates a verifier
func NewVerifier(logger *zap.Logger) *Verifier {
	return &Verifier{logger: logger}
}

// VerifyRowCount checks that a stage kept every response
func (v *Verifier) VerifyRowCount(stage string, before, after *model.Table) error {
	if before.Len() != after.Len() {
		v.logger.Warn("Row count mismatch",
			zap.String("stage", stage),
			zap.Int("before", before.Len()),
			zap.Int("after", after.Len()),
			zap.Int("difference", before.Len()-after.Len()))
		return fmt.Errorf("%w: stage %s changed the row count from %d to %d",
			ErrVerification, stage, before.Len(), after.Len())
	}
	v.logger.Debug("Row count verified", zap.String("stage", stage), zap.Int("rows", after.Len()))
	return nil
}

// VerifyIDs checks that every row carries a distinct non-empty id
func (v *Verifier) VerifyIDs(stage string, table *model.Table) error {
	if !table.HasColumn(model.IDColumn) {
		return fmt.Errorf("%w: stage %s lost the %s column", ErrVerification, stage, model.IDColumn)
	}

	seen := make(map[string]int, table.Len())
	for i, row := range table.Rows {
		id := row.RowID()
		if id == "" {
			return fmt.Errorf("%w: stage %s left row %d without id", ErrVerification, stage, i+1)
		}
		if prev, dup := seen[id]; dup {
			return fmt.Errorf("%w: stage %s has duplicate id %s on rows %d and %d",
				ErrVerification, stage, id, prev+1, i+1)
		}
		seen[id] = i
	}
	return nil
}

// VerifyStage runs every check on a stage output
func (v *Verifier) VerifyStage(stage string, before, after *model.Table) error {
	if err := v.VerifyRowCount(stage, before, after); err != nil {
		return err
	}
	return v.VerifyIDs(stage, after)
}
