// Package filter computes dashboard views: row subsets of the full response
// table selected by a date range and equality constraints.
//
// Every predicate is evaluated against the full table and the view is the
// intersection of the results, so the order in which filters are listed
// never changes the outcome.
package filter

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/David-Botos/form-ingress/pkg/model"
)

// All is the option meaning "no constraint"
const All = "Tous"

// ErrInvalidRange is returned when the start date is after the end date
var ErrInvalidRange = errors.New("start date is after end date")

// Config is an immutable filter selection. Zero dates and "", All or "All"
// mean no constraint.
type Config struct {
	Start   time.Time
	End     time.Time
	Country string
	Pack    string
	Payment string
}

// Validate checks the date range
func (c Config) Validate() error {
	if !c.Start.IsZero() && !c.End.IsZero() && day(c.Start).After(day(c.End)) {
		return ErrInvalidRange
	}
	return nil
}

// IsEmpty reports whether the config selects every row
func (c Config) IsEmpty() bool {
	return c.Start.IsZero() && c.End.IsZero() &&
		isAll(c.Country) && isAll(c.Pack) && isAll(c.Payment)
}

// Filter is a named row predicate
type Filter struct {
	Name string
	Keep func(model.Record) bool
}

// DateRange keeps rows whose timestamp falls between start and end, inclusive,
// comparing calendar dates. A zero bound is open. Rows without a parseable
// timestamp are dropped whenever a bound is set.
func DateRange(column string, start, end time.Time) Filter {
	return Filter{
		Name: "date_range",
		Keep: func(r model.Record) bool {
			if start.IsZero() && end.IsZero() {
				return true
			}
			ts, err := model.Time(r[column])
			if err != nil {
				return false
			}
			d := day(ts)
			if !start.IsZero() && d.Before(day(start)) {
				return false
			}
			if !end.IsZero() && d.After(day(end)) {
				return false
			}
			return true
		},
	}
}

// Equals keeps rows whose column value equals want; All keeps everything
func Equals(name, column, want string) Filter {
	return Filter{
		Name: name,
		Keep: func(r model.Record) bool {
			if isAll(want) {
				return true
			}
			return model.String(r[column]) == want
		},
	}
}

// Filters builds the filters for cfg over the table's columns. Constraints on
// columns the table does not have are skipped.
func Filters(table *model.Table, roles model.Roles, cfg Config) []Filter {
	var filters []Filter
	if roles.Timestamp != "" {
		filters = append(filters, DateRange(roles.Timestamp, cfg.Start, cfg.End))
	}
	if roles.Country != "" {
		filters = append(filters, Equals("country", roles.Country, cfg.Country))
	}
	if table.HasColumn(model.ColPackType) {
		filters = append(filters, Equals("pack", model.ColPackType, cfg.Pack))
	}
	if table.HasColumn(model.ColPaymentMethod) {
		filters = append(filters, Equals("payment", model.ColPaymentMethod, cfg.Payment))
	}
	return filters
}

// Apply returns the view of table selected by cfg. The result shares row
// records with table and keeps its column layout and row order.
func Apply(table *model.Table, roles model.Roles, cfg Config) (*model.Table, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return Compose(table, Filters(table, roles, cfg)...), nil
}

// Compose evaluates each filter against every row of table and keeps the
// rows accepted by all of them
func Compose(table *model.Table, filters ...Filter) *model.Table {
	keep := make([]bool, table.Len())
	for i := range keep {
		keep[i] = true
	}

	for _, f := range filters {
		for i, row := range table.Rows {
			if !f.Keep(row) {
				keep[i] = false
			}
		}
	}

	rows := make([]model.Record, 0, len(table.Rows))
	for i, row := range table.Rows {
		if keep[i] {
			rows = append(rows, row)
		}
	}
	return table.WithRows(rows)
}

// Options returns All followed by the sorted distinct non-null values of a
// column. Callers pass the unfiltered table so choices never shrink.
func Options(table *model.Table, column string) []string {
	seen := make(map[string]bool)
	var values []string
	if column != "" {
		for _, row := range table.Rows {
			v := row[column]
			if model.IsNull(v) {
				continue
			}
			s := model.String(v)
			if !seen[s] {
				seen[s] = true
				values = append(values, s)
			}
		}
	}
	sort.Strings(values)
	return append([]string{All}, values...)
}

// DateBounds returns the first and last calendar dates of a timestamp column.
// ok is false when no value parses.
func DateBounds(table *model.Table, column string) (first, last time.Time, ok bool) {
	if column == "" {
		return first, last, false
	}
	for _, row := range table.Rows {
		ts, err := model.Time(row[column])
		if err != nil {
			continue
		}
		d := day(ts)
		if !ok || d.Before(first) {
			first = d
		}
		if !ok || d.After(last) {
			last = d
		}
		ok = true
	}
	return first, last, ok
}

// ParseDate reads a date picker value (YYYY-MM-DD); empty means open
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", s)
}

func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func isAll(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || v == All || strings.EqualFold(v, "all")
}
