package pipeline

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/David-Botos/form-ingress/pkg/filter"
	"github.com/David-Botos/form-ingress/pkg/model"
	"github.com/David-Botos/form-ingress/pkg/sheet"
)

func idTable(ids ...string) *model.Table {
	table := model.NewTable("t", []string{model.IDColumn, "pays"})
	for _, id := range ids {
		var v interface{}
		if id != "" {
			v = id
		}
		table.AddRow(model.Record{model.IDColumn: v, "pays": "Togo"})
	}
	return table
}

func TestVerifyStage(t *testing.T) {
	v := NewVerifier(zaptest.NewLogger(t))

	tests := []struct {
		name    string
		before  *model.Table
		after   *model.Table
		wantErr bool
	}{
		{"same rows", idTable("a", "b"), idTable("a", "b"), false},
		{"lost row", idTable("a", "b"), idTable("a"), true},
		{"duplicate id", idTable("a", "b"), idTable("a", "a"), true},
		{"missing id", idTable("a", "b"), idTable("a", ""), true},
		{"no id column", idTable("a"), model.NewTable("t", []string{"pays"}).WithRows([]model.Record{{"pays": "Togo"}}), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.VerifyStage("test", tt.before, tt.after)
			if (err != nil) != tt.wantErr {
				t.Fatalf("VerifyStage() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrVerification) {
				t.Fatalf("expected ErrVerification, got %v", err)
			}
		})
	}
}

func TestCategorizeError(t *testing.T) {
	eh := NewErrorHandler(zaptest.NewLogger(t))

	tests := []struct {
		err  error
		want ErrorCategory
	}{
		{nil, ErrorCategoryNone},
		{fmt.Errorf("%w: boom", ErrLoad), ErrorCategoryLoad},
		{fmt.Errorf("read: %w", sheet.ErrUnsupportedFormat), ErrorCategoryLoad},
		{fmt.Errorf("stage x: %w", ErrVerification), ErrorCategoryVerification},
		{fmt.Errorf("%w: disk", ErrExport), ErrorCategoryExport},
		{fmt.Errorf("%w: refused", ErrPublish), ErrorCategoryPublish},
		{fmt.Errorf("%w: refused", ErrAudit), ErrorCategoryAudit},
		{filter.ErrInvalidRange, ErrorCategoryWarning},
		{errors.New("cannot parse date"), ErrorCategoryFieldParse},
		{errors.New("permission denied"), ErrorCategoryExport},
		{errors.New("something odd"), ErrorCategoryCritical},
	}
	for _, tt := range tests {
		if got := eh.CategorizeError(tt.err); got != tt.want {
			t.Errorf("CategorizeError(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}

func TestHandleError(t *testing.T) {
	eh := NewErrorHandler(zaptest.NewLogger(t))

	actions := map[ErrorCategory]Action{
		ErrorCategoryWarning:      ActionContinue,
		ErrorCategoryFieldParse:   ActionKeepOriginal,
		ErrorCategoryAudit:        ActionSkipSink,
		ErrorCategoryPublish:      ActionSkipSink,
		ErrorCategoryVerification: ActionAbort,
		ErrorCategoryLoad:         ActionAbort,
	}
	for category, want := range actions {
		if got := eh.HandleError(NewErrorRecord(errors.New("x"), category)); got != want {
			t.Errorf("HandleError(%s) = %s, want %s", category, got, want)
		}
	}

	for i := 0; i < 8; i++ {
		eh.HandleError(NewErrorRecord(errors.New("bad"), ErrorCategoryFieldParse).WithRow(fmt.Sprint(i)))
	}
	if got := eh.GetErrorSummary()[ErrorCategoryFieldParse]; got != 9 {
		t.Fatalf("expected 9 field errors, got %d", got)
	}
	if got := len(eh.GetErrorSamples()[ErrorCategoryFieldParse]); got != 5 {
		t.Fatalf("expected samples capped at 5, got %d", got)
	}
}

func TestErrorRecordString(t *testing.T) {
	record := NewErrorRecord(errors.New("could not parse"), ErrorCategoryFieldParse).
		WithStage(StageClean).
		WithRow("r1").
		WithColumn("pays", "xx")
	got := record.String()
	for _, want := range []string{"[FieldParse]", "Stage: nettoyage", "Row: r1", "Column: pays", "could not parse"} {
		if !strings.Contains(got, want) {
			t.Fatalf("%q missing %q", got, want)
		}
	}
}

func TestRunMetricsReport(t *testing.T) {
	rm := NewRunMetrics(zaptest.NewLogger(t))
	sm := rm.StartStage(StageClean, 3, 11)
	rm.EndStage(sm, 3, 10, 7, "out.xlsx")
	sm = rm.StartStage(StageAnalyze, 3, 10)
	rm.EndStage(sm, 3, 9, 0, "")
	rm.RecordError(ErrorCategoryFieldParse)
	rm.Complete()

	if rm.TotalOperations() != 7 {
		t.Fatalf("expected 7 operations, got %d", rm.TotalOperations())
	}
	report := rm.GenerateMetricsReport()
	if !strings.Contains(report, StageClean) || !strings.Contains(report, "FieldParse") {
		t.Fatalf("unexpected report:\n%s", report)
	}
	data, err := rm.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	if !strings.Contains(string(data), `"columnsOut":10`) || !strings.Contains(string(data), `"FieldParse":1`) {
		t.Fatalf("unexpected json %s", data)
	}
}
