// pkg/model/cleaning.go
package model

import (
	"time"
)

// CleaningOperation represents a single data cleaning operation
type CleaningOperation struct {
	TableName         string      `db:"table_name"`         // Source table or spreadsheet
	ColumnName        string      `db:"column_name"`        // Column that was cleaned
	OriginalValue     interface{} `db:"-"`                  // Original value (may be nil)
	NewValue          string      `db:"new_value"`          // New value after cleaning
	RowIdentifier     string      `db:"row_identifier"`     // Response id of the row
	CleaningOperation string      `db:"cleaning_operation"` // Type of cleaning performed (e.g., "phone_format")
	CleaningReason    string      `db:"cleaning_reason"`    // Reason for cleaning (e.g., "invalid_number")
	CleanedAt         time.Time   `db:"cleaned_at"`         // When the cleaning occurred
}

// OriginalText returns the original value as a nullable string for storage
func (op CleaningOperation) OriginalText() *string {
	if op.OriginalValue == nil {
		return nil
	}
	s := String(op.OriginalValue)
	return &s
}

// CleaningContext contains information needed for cleaning a value
type CleaningContext struct {
	TableName     string
	ColumnName    string
	RowIdentifier string
}

// Operation builds a CleaningOperation for this context
func (c CleaningContext) Operation(original interface{}, newValue, operation, reason string) CleaningOperation {
	return CleaningOperation{
		TableName:         c.TableName,
		ColumnName:        c.ColumnName,
		OriginalValue:     original,
		NewValue:          newValue,
		RowIdentifier:     c.RowIdentifier,
		CleaningOperation: operation,
		CleaningReason:    reason,
		CleanedAt:         time.Now(),
	}
}
