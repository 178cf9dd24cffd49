// pkg/model/values.go
package model

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// CanonicalDateLayout is the single output format of every date column
const CanonicalDateLayout = "02/01/2006 15:04:05"

// DateLayouts are tried in order when parsing a date cell; day-first wins
// over month-first for ambiguous values.
var DateLayouts = []string{
	"2/1/2006 15:04:05",
	"2/1/2006",
	"2006-1-2 15:04:05",
	"2006-1-2",
	"2-1-2006",
	"1/2/2006",
	"2.1.2006",
	"2006/1/2",
	time.RFC3339Nano,
}

// nullStrings are spreadsheet renderings of a missing value
var nullStrings = map[string]bool{
	"":     true,
	"nan":  true,
	"none": true,
	"null": true,
	"nat":  true,
}

// IsNull reports whether a cell should be treated as missing
func IsNull(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return nullStrings[strings.ToLower(strings.TrimSpace(val))]
	case []byte:
		return nullStrings[strings.ToLower(strings.TrimSpace(string(val)))]
	case *int:
		return val == nil
	case float64:
		return math.IsNaN(val)
	default:
		return false
	}
}

// String converts a cell to its display string; nil becomes ""
func String(v interface{}) string {
	if v == nil {
		return ""
	}

	switch val := v.(type) {
	case string:
		return val
	case []byte:
		return string(val)
	case *int:
		if val == nil {
			return ""
		}
		return strconv.Itoa(*val)
	case time.Time:
		return val.Format(CanonicalDateLayout)
	case float64:
		if math.IsNaN(val) {
			return ""
		}
		if val == math.Trunc(val) && math.Abs(val) < 1e15 {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// Int converts a cell to an int
func Int(v interface{}) (int, error) {
	if IsNull(v) {
		return 0, errors.New("nil value")
	}

	switch val := v.(type) {
	case int:
		return val, nil
	case int32:
		return int(val), nil
	case int64:
		return int(val), nil
	case *int:
		return *val, nil
	case float32:
		return int(val), nil
	case float64:
		return int(val), nil
	case string:
		cleaned := strings.TrimSpace(val)
		if i, err := strconv.Atoi(cleaned); err == nil {
			return i, nil
		}
		// Spreadsheets often store integers as "30.0"
		f, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0, err
		}
		return int(f), nil
	default:
		return 0, fmt.Errorf("cannot convert %T to int", v)
	}
}

// Float converts a cell to a float64
func Float(v interface{}) (float64, error) {
	if IsNull(v) {
		return 0, errors.New("nil value")
	}

	switch val := v.(type) {
	case int:
		return float64(val), nil
	case int64:
		return float64(val), nil
	case *int:
		return float64(*val), nil
	case float32:
		return float64(val), nil
	case float64:
		return val, nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(val), 64)
	default:
		return 0, fmt.Errorf("cannot convert %T to float", v)
	}
}

// IntPtr returns a pointer to i
func IntPtr(i int) *int {
	return &i
}

// IntValue turns an optional int into a cell value (nil when unset)
func IntValue(p *int) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

// Time converts a cell to a time.Time using DateLayouts
func Time(v interface{}) (time.Time, error) {
	if IsNull(v) {
		return time.Time{}, errors.New("nil value")
	}

	switch val := v.(type) {
	case time.Time:
		return val, nil
	case *time.Time:
		return *val, nil
	case string:
		cleaned := strings.TrimSpace(val)
		for _, layout := range DateLayouts {
			if t, err := time.Parse(layout, cleaned); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("cannot parse time from '%s'", cleaned)
	default:
		return time.Time{}, fmt.Errorf("cannot convert %T to time", v)
	}
}
