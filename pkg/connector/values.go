// pkg/connector/values.go
package connector

import (
	"math"
	"time"

	"github.com/David-Botos/form-ingress/pkg/model"
)

// Postgres column types used when publishing a table
const (
	TypeText      = "TEXT"
	TypeBigInt    = "BIGINT"
	TypeNumeric   = "DOUBLE PRECISION"
	TypeTimestamp = "TIMESTAMP"
)

// ColumnType infers the Postgres type of a column from its non-null values.
// Mixed or empty columns are TEXT.
func ColumnType(table *model.Table, column string) string {
	kind := ""
	for _, row := range table.Rows {
		v := row[column]
		if model.IsNull(v) {
			continue
		}
		k := valueKind(v)
		switch {
		case kind == "":
			kind = k
		case kind == k:
		case (kind == TypeBigInt && k == TypeNumeric) || (kind == TypeNumeric && k == TypeBigInt):
			kind = TypeNumeric
		default:
			return TypeText
		}
	}
	if kind == "" {
		return TypeText
	}
	return kind
}

func valueKind(v interface{}) string {
	switch val := v.(type) {
	case int, int32, int64, *int:
		return TypeBigInt
	case float32:
		return TypeNumeric
	case float64:
		if val == math.Trunc(val) {
			return TypeBigInt
		}
		return TypeNumeric
	case time.Time:
		return TypeTimestamp
	default:
		return TypeText
	}
}

// SQLValue converts a cell to a database/sql argument for a column of sqlType
func SQLValue(v interface{}, sqlType string) interface{} {
	if model.IsNull(v) {
		return nil
	}

	switch sqlType {
	case TypeBigInt:
		if i, err := model.Int(v); err == nil {
			return int64(i)
		}
	case TypeNumeric:
		if f, err := model.Float(v); err == nil {
			return f
		}
	case TypeTimestamp:
		if t, err := model.Time(v); err == nil {
			return t
		}
	}
	return model.String(v)
}
