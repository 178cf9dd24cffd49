// Package report aggregates a response table (full or filtered) into the
// distributions shown by the text report and the dashboard, and exports views.
package report

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/go-gota/gota/series"

	"github.com/David-Botos/form-ingress/pkg/demographics"
	"github.com/David-Botos/form-ingress/pkg/model"
)

// DefaultTopCountries is the number of countries listed when none is configured
const DefaultTopCountries = 10

// Weekdays are the French day labels, Monday first
var Weekdays = []string{"Lundi", "Mardi", "Mercredi", "Jeudi", "Vendredi", "Samedi", "Dimanche"}

var phonePattern = regexp.MustCompile(`^\+?\d{8,15}$`)

// Count is one category with its share of the table
type Count struct {
	Label   string  `json:"label"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// PackPrice holds price statistics of one pack category
type PackPrice struct {
	Pack   string  `json:"pack"`
	Count  int     `json:"count"`  // Rows in the category
	Priced int     `json:"priced"` // Rows with a price
	Mean   float64 `json:"mean"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// AgeStats summarizes the valid ages
type AgeStats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Span is the period covered by the timestamps
type Span struct {
	First  time.Time `json:"first"`
	Last   time.Time `json:"last"`
	Days   int       `json:"days"`   // Calendar days from first to last, inclusive
	PerDay float64   `json:"perDay"` // Average responses per calendar day
}

// Bucket is one histogram bar
type Bucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// FillRate is the share of non-null values of a column
type FillRate struct {
	Column string  `json:"column"`
	Filled int     `json:"filled"`
	Rate   float64 `json:"rate"`
}

// PhoneStats counts phone values by shape
type PhoneStats struct {
	Valid   int `json:"valid"`
	Invalid int `json:"invalid"`
	Missing int `json:"missing"`
}

// Summary is everything the report and dashboard show for one table
type Summary struct {
	GeneratedAt time.Time  `json:"generatedAt"`
	Total       int        `json:"total"`
	Columns     []FillRate `json:"columns"`

	Packs       []Count     `json:"packs"`
	Prices      []Count     `json:"prices"`
	PackPrices  []PackPrice `json:"packPrices"`
	Countries   []Count     `json:"countries"`   // top N
	CountryKind int         `json:"countryKind"` // distinct countries
	Payments    []Count     `json:"payments"`
	AgeBrackets []Count     `json:"ageBrackets"`
	Generations []Count     `json:"generations"`
	EmailTypes  []Count     `json:"emailTypes"`
	Phones      PhoneStats  `json:"phones"`

	Age        *AgeStats `json:"age,omitempty"`  // nil without valid ages
	Span       *Span     `json:"span,omitempty"` // nil without parseable timestamps
	PerDay     []Bucket  `json:"perDay"`
	PerHour    []Bucket  `json:"perHour"`    // always 24 buckets
	PerWeekday []Bucket  `json:"perWeekday"` // always 7 buckets, Monday first

	TopPack string `json:"topPack"`
}

// Summarize computes the summary of table. Percentages use the row count of
// table as denominator. Columns are located through roles.
func Summarize(table *model.Table, roles model.Roles, topN int) Summary {
	if topN <= 0 {
		topN = DefaultTopCountries
	}
	s := Summary{
		GeneratedAt: time.Now(),
		Total:       table.Len(),
		Columns:     fillRates(table),
	}

	if table.HasColumn(model.ColPackType) {
		s.Packs = counts(table, model.ColPackType, s.Total)
		if len(s.Packs) > 0 {
			s.TopPack = s.Packs[0].Label
		}
	}
	if table.HasColumn(model.ColPackPrice) {
		s.Prices = priceCounts(table, s.Total)
		s.PackPrices = packPrices(table)
	}
	if roles.Country != "" {
		all := counts(table, roles.Country, s.Total)
		s.CountryKind = len(all)
		if len(all) > topN {
			all = all[:topN]
		}
		s.Countries = all
	}
	if table.HasColumn(model.ColPaymentMethod) {
		s.Payments = counts(table, model.ColPaymentMethod, s.Total)
	}
	if table.HasColumn(model.ColAgeBracket) {
		s.AgeBrackets = ordered(counts(table, model.ColAgeBracket, s.Total), demographics.BracketOrder)
	}
	if table.HasColumn(model.ColGeneration) {
		s.Generations = ordered(counts(table, model.ColGeneration, s.Total), demographics.GenerationOrder)
	}
	if table.HasColumn(model.ColEmailType) {
		s.EmailTypes = counts(table, model.ColEmailType, s.Total)
	}
	if roles.Phone != "" {
		s.Phones = phoneStats(table, roles.Phone)
	}
	if table.HasColumn(model.ColAge) {
		s.Age = ageStats(table)
	}
	if roles.Timestamp != "" {
		s.Span, s.PerDay, s.PerHour, s.PerWeekday = timeline(table, roles.Timestamp)
	}

	return s
}

func fillRates(table *model.Table) []FillRate {
	rates := make([]FillRate, 0, len(table.Columns))
	for _, col := range table.Columns {
		fr := FillRate{Column: col}
		for _, row := range table.Rows {
			if !model.IsNull(row[col]) {
				fr.Filled++
			}
		}
		fr.Rate = percent(fr.Filled, table.Len())
		rates = append(rates, fr)
	}
	return rates
}

// counts returns non-null values by decreasing count, ties by label
func counts(table *model.Table, column string, total int) []Count {
	tally := make(map[string]int)
	for _, row := range table.Rows {
		v := row[column]
		if model.IsNull(v) {
			continue
		}
		tally[model.String(v)]++
	}

	out := make([]Count, 0, len(tally))
	for label, n := range tally {
		out = append(out, Count{Label: label, Count: n, Percent: percent(n, total)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out
}

// ordered sorts counts by a fixed label order; unknown labels go last
func ordered(in []Count, order []string) []Count {
	rank := make(map[string]int, len(order))
	for i, label := range order {
		rank[label] = i
	}
	out := append([]Count(nil), in...)
	sort.SliceStable(out, func(i, j int) bool {
		ri, okI := rank[out[i].Label]
		rj, okJ := rank[out[j].Label]
		switch {
		case okI && okJ:
			return ri < rj
		case okI != okJ:
			return okI
		default:
			return out[i].Label < out[j].Label
		}
	})
	return out
}

// priceCounts lists prices in increasing order
func priceCounts(table *model.Table, total int) []Count {
	tally := make(map[int]int)
	for _, row := range table.Rows {
		if price, err := model.Int(row[model.ColPackPrice]); err == nil {
			tally[price]++
		}
	}
	prices := make([]int, 0, len(tally))
	for p := range tally {
		prices = append(prices, p)
	}
	sort.Ints(prices)

	out := make([]Count, 0, len(prices))
	for _, p := range prices {
		out = append(out, Count{Label: FormatFCFA(p), Count: tally[p], Percent: percent(tally[p], total)})
	}
	return out
}

func packPrices(table *model.Table) []PackPrice {
	rows := make(map[string]int)
	prices := make(map[string][]float64)
	for _, row := range table.Rows {
		pack := model.String(row[model.ColPackType])
		if pack == "" {
			continue
		}
		rows[pack]++
		if price, err := model.Float(row[model.ColPackPrice]); err == nil {
			prices[pack] = append(prices[pack], price)
		}
	}

	out := make([]PackPrice, 0, len(rows))
	for pack, n := range rows {
		pp := PackPrice{Pack: pack, Count: n, Priced: len(prices[pack])}
		if pp.Priced > 0 {
			s := series.Floats(prices[pack])
			pp.Mean, pp.Min, pp.Max = s.Mean(), s.Min(), s.Max()
		}
		out = append(out, pp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Pack < out[j].Pack })
	return out
}

func ageStats(table *model.Table) *AgeStats {
	var ages []float64
	for _, row := range table.Rows {
		if age, err := model.Float(row[model.ColAge]); err == nil {
			ages = append(ages, age)
		}
	}
	if len(ages) == 0 {
		return nil
	}
	s := series.Floats(ages)
	return &AgeStats{
		Count:  len(ages),
		Mean:   s.Mean(),
		Median: s.Median(),
		Min:    s.Min(),
		Max:    s.Max(),
	}
}

func phoneStats(table *model.Table, column string) PhoneStats {
	var ps PhoneStats
	for _, row := range table.Rows {
		v := row[column]
		if model.IsNull(v) {
			ps.Missing++
			continue
		}
		compact := strings.ReplaceAll(model.String(v), " ", "")
		if phonePattern.MatchString(compact) {
			ps.Valid++
		} else {
			ps.Invalid++
		}
	}
	return ps
}

func timeline(table *model.Table, column string) (*Span, []Bucket, []Bucket, []Bucket) {
	perDay := make(map[string]int)
	hours := make([]int, 24)
	weekdays := make([]int, 7)
	var first, last time.Time
	found := 0

	for _, row := range table.Rows {
		ts, err := model.Time(row[column])
		if err != nil {
			continue
		}
		if found == 0 || ts.Before(first) {
			first = ts
		}
		if found == 0 || ts.After(last) {
			last = ts
		}
		found++
		perDay[ts.Format("2006-01-02")]++
		hours[ts.Hour()]++
		// time.Weekday starts on Sunday
		weekdays[(int(ts.Weekday())+6)%7]++
	}

	hourBuckets := make([]Bucket, 24)
	for h, n := range hours {
		hourBuckets[h] = Bucket{Label: twoDigits(h) + "h", Count: n}
	}
	weekdayBuckets := make([]Bucket, 7)
	for d, n := range weekdays {
		weekdayBuckets[d] = Bucket{Label: Weekdays[d], Count: n}
	}
	if found == 0 {
		return nil, nil, hourBuckets, weekdayBuckets
	}

	days := make([]string, 0, len(perDay))
	for d := range perDay {
		days = append(days, d)
	}
	sort.Strings(days)
	dayBuckets := make([]Bucket, 0, len(days))
	for _, d := range days {
		dayBuckets = append(dayBuckets, Bucket{Label: d, Count: perDay[d]})
	}

	firstDay := time.Date(first.Year(), first.Month(), first.Day(), 0, 0, 0, 0, time.UTC)
	lastDay := time.Date(last.Year(), last.Month(), last.Day(), 0, 0, 0, 0, time.UTC)
	span := &Span{
		First: first,
		Last:  last,
		Days:  int(lastDay.Sub(firstDay).Hours()/24) + 1,
	}
	span.PerDay = float64(found) / float64(span.Days)

	return span, dayBuckets, hourBuckets, weekdayBuckets
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

func twoDigits(n int) string {
	if n < 10 {
		return "0" + string(rune('0'+n))
	}
	return string(rune('0'+n/10)) + string(rune('0'+n%10))
}
