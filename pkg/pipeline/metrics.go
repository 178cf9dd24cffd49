package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// StageMetrics tracks one cleaning stage
type StageMetrics struct {
	Name       string
	StartTime  time.Time
	EndTime    time.Time
	RowsIn     int
	RowsOut    int
	ColumnsIn  int
	ColumnsOut int
	Operations int    // Cleaning operations recorded by the stage
	Output     string // File written by the stage, if any
}

// Duration returns the duration of the stage
func (sm *StageMetrics) Duration() time.Duration {
	if sm.EndTime.IsZero() {
		return time.Since(sm.StartTime)
	}
	return sm.EndTime.Sub(sm.StartTime)
}

// RunMetrics tracks the stages of one run
type RunMetrics struct {
	mu          sync.Mutex
	logger      *zap.Logger
	StartTime   time.Time
	EndTime     time.Time
	Stages      []*StageMetrics
	ErrorCounts map[ErrorCategory]int
}

// NewRunMetrics creates a new RunMetrics instance
func NewRunMetrics(logger *zap.Logger) *RunMetrics {
	return &RunMetrics{
		logger:      logger,
		StartTime:   time.Now(),
		ErrorCounts: make(map[ErrorCategory]int),
	}
}

// StartStage begins tracking a stage over its input table shape
func (rm *RunMetrics) StartStage(name string, rows, columns int) *StageMetrics {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	sm := &StageMetrics{
		Name:      name,
		StartTime: time.Now(),
		RowsIn:    rows,
		ColumnsIn: columns,
	}
	rm.Stages = append(rm.Stages, sm)

	if rm.logger != nil {
		rm.logger.Info("Started stage",
			zap.String("stage", name),
			zap.Int("rows", rows),
			zap.Int("columns", columns))
	}
	return sm
}

// EndStage completes a stage with its output shape
func (rm *RunMetrics) EndStage(sm *StageMetrics, rows, columns, operations int, output string) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	sm.EndTime = time.Now()
	sm.RowsOut = rows
	sm.ColumnsOut = columns
	sm.Operations = operations
	sm.Output = output

	if rm.logger != nil {
		rm.logger.Info("Completed stage",
			zap.String("stage", sm.Name),
			zap.Duration("duration", sm.Duration()),
			zap.Int("rows", rows),
			zap.Int("columnsIn", sm.ColumnsIn),
			zap.Int("columnsOut", columns),
			zap.Int("operations", operations),
			zap.String("output", output))
	}
}

// RecordError counts an error category
func (rm *RunMetrics) RecordError(category ErrorCategory) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.ErrorCounts[category]++
}

// Complete marks the run as finished
func (rm *RunMetrics) Complete() {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.EndTime = time.Now()
}

// Duration returns the run duration
func (rm *RunMetrics) Duration() time.Duration {
	if rm.EndTime.IsZero() {
		return time.Since(rm.StartTime)
	}
	return rm.EndTime.Sub(rm.StartTime)
}

// TotalOperations sums the operations of every stage
func (rm *RunMetrics) TotalOperations() int {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	total := 0
	for _, sm := range rm.Stages {
		total += sm.Operations
	}
	return total
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.Round(10 * time.Millisecond).String()
}

// GenerateMetricsReport renders the stage table printed at the end of a run
func (rm *RunMetrics) GenerateMetricsReport() string {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	var sb strings.Builder
	sb.WriteString(strings.Repeat("=", 60) + "\n")
	fmt.Fprintf(&sb, "Run duration: %s\n", formatDuration(rm.Duration()))
	sb.WriteString(strings.Repeat("-", 60) + "\n")
	fmt.Fprintf(&sb, "%-14s %8s %12s %10s %10s\n", "stage", "rows", "columns", "ops", "duration")
	for _, sm := range rm.Stages {
		fmt.Fprintf(&sb, "%-14s %8d %5d -> %-4d %10d %10s\n",
			sm.Name, sm.RowsOut, sm.ColumnsIn, sm.ColumnsOut, sm.Operations, formatDuration(sm.Duration()))
	}
	if len(rm.ErrorCounts) > 0 {
		sb.WriteString(strings.Repeat("-", 60) + "\n")
		for category, n := range rm.ErrorCounts {
			fmt.Fprintf(&sb, "errors %-20s %d\n", category.String()+":", n)
		}
	}
	sb.WriteString(strings.Repeat("=", 60) + "\n")
	return sb.String()
}

// ToJSON serializes the metrics
func (rm *RunMetrics) ToJSON() ([]byte, error) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	type stage struct {
		Name       string `json:"name"`
		Duration   string `json:"duration"`
		RowsIn     int    `json:"rowsIn"`
		RowsOut    int    `json:"rowsOut"`
		ColumnsIn  int    `json:"columnsIn"`
		ColumnsOut int    `json:"columnsOut"`
		Operations int    `json:"operations"`
		Output     string `json:"output,omitempty"`
	}
	stages := make([]stage, len(rm.Stages))
	for i, sm := range rm.Stages {
		stages[i] = stage{
			Name:       sm.Name,
			Duration:   sm.Duration().String(),
			RowsIn:     sm.RowsIn,
			RowsOut:    sm.RowsOut,
			ColumnsIn:  sm.ColumnsIn,
			ColumnsOut: sm.ColumnsOut,
			Operations: sm.Operations,
			Output:     sm.Output,
		}
	}
	errs := make(map[string]int, len(rm.ErrorCounts))
	for category, n := range rm.ErrorCounts {
		errs[category.String()] = n
	}

	return json.Marshal(struct {
		Duration string         `json:"duration"`
		Stages   []stage        `json:"stages"`
		Errors   map[string]int `json:"errors"`
	}{
		Duration: rm.Duration().String(),
		Stages:   stages,
		Errors:   errs,
	})
}
