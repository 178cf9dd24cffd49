// Package profiler measures how usable each column of a cleaned table is and
// drops the ones that carry no analysable information (instructions, links,
// constant or almost empty columns).
package profiler

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/David-Botos/form-ingress/pkg/model"
)

// DefaultMinFillRate is the fill percentage under which a column is dropped
const DefaultMinFillRate = 5.0

// maxMessageRate is the share of automatic messages above which a column is dropped
const maxMessageRate = 80.0

const sampleSize = 3

var (
	linkPattern    = regexp.MustCompile(`(?i)http|www\.|whatsapp|telegram|@`)
	messagePattern = regexp.MustCompile(`(?i)ecris|ecrire|whatsapp|telegram|contact|groupe`)
)

// instructionWords in a header mark a column holding form instructions
var instructionWords = []string{"ecrire", "whatsapp", "telegram", "groupe", "contact", "finaliser"}

// ColumnProfile describes one column
type ColumnProfile struct {
	Column      string
	Total       int      // Rows in the table
	Filled      int      // Non-null values
	FillRate    float64  // Percentage of non-null values
	Distinct    int      // Distinct non-null values
	Links       int      // Values that look like links or handles
	Messages    int      // Values that look like automatic messages
	MessageRate float64  // Percentage of Messages among non-null values
	Samples     []string // First non-null values
	Exploitable bool
	Reasons     []string // Why the column is not exploitable
}

// Profiler profiles and prunes tables
type Profiler struct {
	logger      *zap.Logger
	minFillRate float64
}

// NewProfiler creates a Profiler; a non-positive minFillRate uses DefaultMinFillRate
func NewProfiler(logger *zap.Logger, minFillRate float64) (*Profiler, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if minFillRate <= 0 {
		minFillRate = DefaultMinFillRate
	}
	return &Profiler{logger: logger.Named("profiler"), minFillRate: minFillRate}, nil
}

// Profile computes a profile per column, in column order
func (p *Profiler) Profile(table *model.Table) []ColumnProfile {
	profiles := make([]ColumnProfile, 0, len(table.Columns))
	for _, col := range table.Columns {
		profiles = append(profiles, p.profileColumn(table, col))
	}
	return profiles
}

func (p *Profiler) profileColumn(table *model.Table, column string) ColumnProfile {
	prof := ColumnProfile{Column: column, Total: table.Len()}
	distinct := make(map[string]bool)

	for _, row := range table.Rows {
		v := row[column]
		if model.IsNull(v) {
			continue
		}
		s := model.String(v)
		prof.Filled++
		distinct[s] = true
		if linkPattern.MatchString(s) {
			prof.Links++
		}
		if messagePattern.MatchString(s) {
			prof.Messages++
		}
		if len(prof.Samples) < sampleSize {
			prof.Samples = append(prof.Samples, s)
		}
	}
	prof.Distinct = len(distinct)

	if prof.Total > 0 {
		prof.FillRate = float64(prof.Filled) / float64(prof.Total) * 100
	}
	if prof.Filled > 0 {
		prof.MessageRate = float64(prof.Messages) / float64(prof.Filled) * 100
	}

	if prof.FillRate < p.minFillRate {
		prof.Reasons = append(prof.Reasons, fmt.Sprintf("fill rate too low (%.1f%%)", prof.FillRate))
	}
	if prof.MessageRate > maxMessageRate {
		prof.Reasons = append(prof.Reasons, fmt.Sprintf("mostly automatic messages (%.1f%%)", prof.MessageRate))
	}
	if prof.Distinct <= 1 {
		prof.Reasons = append(prof.Reasons, "at most one distinct value")
	}
	lower := strings.ToLower(column)
	for _, word := range instructionWords {
		if strings.Contains(lower, word) {
			prof.Reasons = append(prof.Reasons, "instruction or contact column")
			break
		}
	}
	prof.Exploitable = len(prof.Reasons) == 0

	return prof
}

// Prune returns a copy of table without the non-exploitable columns, plus the
// profiles it decided on. The response id is always kept, and a table without
// rows is returned unchanged.
func (p *Profiler) Prune(table *model.Table) (*model.Table, []ColumnProfile) {
	profiles := p.Profile(table)
	if table.Len() == 0 {
		return table.Clone(), profiles
	}

	var kept, dropped []string
	for _, prof := range profiles {
		if prof.Exploitable || prof.Column == model.IDColumn {
			kept = append(kept, prof.Column)
			continue
		}
		dropped = append(dropped, prof.Column)
		p.logger.Info("Column not exploitable",
			zap.String("column", prof.Column),
			zap.Float64("fill_rate", prof.FillRate),
			zap.Int("distinct", prof.Distinct),
			zap.Strings("reasons", prof.Reasons))
	}

	p.logger.Info("Pruned columns",
		zap.Int("kept", len(kept)),
		zap.Int("dropped", len(dropped)))

	return table.Select(kept), profiles
}
