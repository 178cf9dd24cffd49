package pipeline

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/form-ingress/pkg/filter"
	"github.com/David-Botos/form-ingress/pkg/sheet"
)

// Sentinel errors used to categorize failures
var (
	ErrLoad         = errors.New("load failed")
	ErrExport       = errors.New("export failed")
	ErrPublish      = errors.New("publish failed")
	ErrAudit        = errors.New("audit failed")
	ErrVerification = errors.New("verification failed")
)

// Action defines the recommended action after an error
type Action int

const (
	// ActionContinue indicates processing should continue despite the error
	ActionContinue Action = iota
	// ActionKeepOriginal indicates the field keeps its original value
	ActionKeepOriginal
	// ActionSkipSink indicates an optional output is skipped
	ActionSkipSink
	// ActionAbort indicates the run should stop
	ActionAbort
)

// String returns a string representation of the action
func (a Action) String() string {
	switch a {
	case ActionContinue:
		return "Continue"
	case ActionKeepOriginal:
		return "KeepOriginal"
	case ActionSkipSink:
		return "SkipSink"
	case ActionAbort:
		return "Abort"
	default:
		return fmt.Sprintf("Unknown(%d)", a)
	}
}

// ErrorCategory defines categories of errors during a run
type ErrorCategory int

const (
	// Error categories with increasing severity
	ErrorCategoryNone ErrorCategory = iota
	ErrorCategoryWarning
	ErrorCategoryFieldParse
	ErrorCategoryAudit
	ErrorCategoryPublish
	ErrorCategoryExport
	ErrorCategoryVerification
	ErrorCategoryLoad
	ErrorCategoryCritical
)

// String returns a string representation of the error category
func (ec ErrorCategory) String() string {
	switch ec {
	case ErrorCategoryNone:
		return "None"
	case ErrorCategoryWarning:
		return "Warning"
	case ErrorCategoryFieldParse:
		return "FieldParse"
	case ErrorCategoryAudit:
		return "Audit"
	case ErrorCategoryPublish:
		return "Publish"
	case ErrorCategoryExport:
		return "Export"
	case ErrorCategoryVerification:
		return "Verification"
	case ErrorCategoryLoad:
		return "Load"
	case ErrorCategoryCritical:
		return "Critical"
	default:
		return fmt.Sprintf("Unknown(%d)", ec)
	}
}

// ErrorRecord represents a single error during a run
type ErrorRecord struct {
	Category    ErrorCategory
	Stage       string
	RowID       string
	ColumnName  string
	SourceValue interface{}
	Error       error
	Message     string // Derived from Error but stored for serialization
	Timestamp   time.Time
}

// NewErrorRecord creates a new error record with current timestamp
func NewErrorRecord(err error, category ErrorCategory) ErrorRecord {
	record := ErrorRecord{
		Category:  category,
		Error:     err,
		Timestamp: time.Now(),
	}
	if err != nil {
		record.Message = err.Error()
	}
	return record
}

// WithStage adds the stage name to the error record
func (r ErrorRecord) WithStage(stage string) ErrorRecord {
	r.Stage = stage
	return r
}

// WithRow adds row information to the error record
func (r ErrorRecord) WithRow(rowID string) ErrorRecord {
	r.RowID = rowID
	return r
}

// WithColumn adds column information to the error record
func (r ErrorRecord) WithColumn(columnName string, sourceValue interface{}) ErrorRecord {
	r.ColumnName = columnName
	r.SourceValue = sourceValue
	return r
}

// String returns a formatted error message
func (r ErrorRecord) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] ", r.Category)
	if r.Stage != "" {
		fmt.Fprintf(&sb, "Stage: %s ", r.Stage)
	}
	if r.RowID != "" {
		fmt.Fprintf(&sb, "Row: %s ", r.RowID)
	}
	if r.ColumnName != "" {
		fmt.Fprintf(&sb, "Column: %s ", r.ColumnName)
	}
	sb.WriteString(r.Message)
	return sb.String()
}

// ErrorHandler counts errors by category and decides what happens next
type ErrorHandler struct {
	logger       *zap.Logger
	mu           sync.Mutex
	errorCounts  map[ErrorCategory]int
	sampleErrors map[ErrorCategory][]ErrorRecord
	maxSamples   int
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *zap.Logger) *ErrorHandler {
	return &ErrorHandler{
		logger:       logger,
		errorCounts:  make(map[ErrorCategory]int),
		sampleErrors: make(map[ErrorCategory][]ErrorRecord),
		maxSamples:   5,
	}
}

// CategorizeError determines the category of an error
func (eh *ErrorHandler) CategorizeError(err error) ErrorCategory {
	switch {
	case err == nil:
		return ErrorCategoryNone
	case errors.Is(err, ErrLoad), errors.Is(err, sheet.ErrUnsupportedFormat):
		return ErrorCategoryLoad
	case errors.Is(err, ErrVerification):
		return ErrorCategoryVerification
	case errors.Is(err, ErrExport):
		return ErrorCategoryExport
	case errors.Is(err, ErrPublish):
		return ErrorCategoryPublish
	case errors.Is(err, ErrAudit):
		return ErrorCategoryAudit
	case errors.Is(err, filter.ErrInvalidRange):
		return ErrorCategoryWarning
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "parse"), strings.Contains(msg, "convert"):
		return ErrorCategoryFieldParse
	case strings.Contains(msg, "permission"), strings.Contains(msg, "disk"), strings.Contains(msg, "no space"):
		return ErrorCategoryExport
	default:
		return ErrorCategoryCritical
	}
}

// HandleError records an error and returns the recommended action
func (eh *ErrorHandler) HandleError(record ErrorRecord) Action {
	eh.RecordError(record)

	switch record.Category {
	case ErrorCategoryNone, ErrorCategoryWarning:
		return ActionContinue
	case ErrorCategoryFieldParse:
		return ActionKeepOriginal
	case ErrorCategoryAudit, ErrorCategoryPublish:
		if eh.logger != nil {
			eh.logger.Warn("Skipping optional output",
				zap.String("category", record.Category.String()),
				zap.String("stage", record.Stage),
				zap.String("error", record.Message))
		}
		return ActionSkipSink
	default:
		if eh.logger != nil {
			eh.logger.Error("Run aborted",
				zap.String("category", record.Category.String()),
				zap.String("stage", record.Stage),
				zap.String("error", record.Message))
		}
		return ActionAbort
	}
}

// RecordError counts an error and keeps a few samples per category
func (eh *ErrorHandler) RecordError(record ErrorRecord) {
	eh.mu.Lock()
	defer eh.mu.Unlock()

	eh.errorCounts[record.Category]++
	if len(eh.sampleErrors[record.Category]) < eh.maxSamples {
		eh.sampleErrors[record.Category] = append(eh.sampleErrors[record.Category], record)
	}
}

// GetErrorSummary returns error counts by category
func (eh *ErrorHandler) GetErrorSummary() map[ErrorCategory]int {
	eh.mu.Lock()
	defer eh.mu.Unlock()

	out := make(map[ErrorCategory]int, len(eh.errorCounts))
	for k, v := range eh.errorCounts {
		out[k] = v
	}
	return out
}

// GetErrorSamples returns the kept samples by category
func (eh *ErrorHandler) GetErrorSamples() map[ErrorCategory][]ErrorRecord {
	eh.mu.Lock()
	defer eh.mu.Unlock()

	out := make(map[ErrorCategory][]ErrorRecord, len(eh.sampleErrors))
	for k, v := range eh.sampleErrors {
		out[k] = append([]ErrorRecord(nil), v...)
	}
	return out
}
