// Package pipeline runs the three cleaning stages over a questionnaire
// export and writes the interim workbooks, the final workbook and the text
// report.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/form-ingress/pkg/cleaner"
	"github.com/David-Botos/form-ingress/pkg/connector"
	"github.com/David-Botos/form-ingress/pkg/model"
	"github.com/David-Botos/form-ingress/pkg/normalizer"
	"github.com/David-Botos/form-ingress/pkg/profiler"
	"github.com/David-Botos/form-ingress/pkg/report"
	"github.com/David-Botos/form-ingress/pkg/sheet"
)

// Stage names
const (
	StageClean    = "nettoyage"
	StageAnalyze  = "analyse"
	StageFinalize = "finalisation"
	StagePublish  = "publication"
)

// Output file names
const (
	AnalyzedFileName = "Formulaire_nettoye_final.xlsx"
	FinalFileName    = "Formulaire_FINAL_OPTIMISE.xlsx"
	ReportFileName   = "Rapport_Nettoyage_Formulaire.txt"
	cleanedSuffix    = "_nettoye.xlsx"
)

// Source provides the raw responses with canonical headers
type Source interface {
	Load(ctx context.Context) (*model.Table, []model.ColumnSpec, error)
}

// FileSource reads an xlsx or csv export
type FileSource struct {
	Path string
}

// Load reads the file and canonicalizes its headers
func (s FileSource) Load(_ context.Context) (*model.Table, []model.ColumnSpec, error) {
	return sheet.Load(s.Path)
}

// WarehouseSource reads responses from a warehouse table
type WarehouseSource struct {
	Conn  connector.ResponseSource
	Table string
}

// Load queries the table and canonicalizes its column names
func (s WarehouseSource) Load(ctx context.Context) (*model.Table, []model.ColumnSpec, error) {
	headers, cells, err := s.Conn.LoadResponses(ctx, s.Table)
	if err != nil {
		return nil, nil, err
	}
	specs := normalizer.Normalize(headers)
	return model.FromCells(s.Table, normalizer.Columns(specs), cells), specs, nil
}

// Observer receives stage measurements, e.g. Prometheus collectors
type Observer interface {
	ObserveStage(stage string, duration time.Duration, rows int)
	RecordOperations(operations []model.CleaningOperation)
}

// Options configure a run
type Options struct {
	OutputDir    string
	PhoneRegion  string
	MinFillRate  float64
	TopCountries int
	Now          func() time.Time // Reference date for ages; defaults to time.Now
}

// Result is everything a run produced
type Result struct {
	Specs      []model.ColumnSpec
	Cleaned    *model.Table
	Analyzed   *model.Table
	Final      *model.Table
	Profiles   []profiler.ColumnProfile
	Operations []model.CleaningOperation
	Summary    report.Summary
	Files      []string
	Published  int64
	Metrics    *RunMetrics
	Errors     map[ErrorCategory]int
}

// Runner chains the cleaning stages
type Runner struct {
	opts      Options
	logger    *zap.Logger
	cleaner   *cleaner.DataCleaner
	profiler  *profiler.Profiler
	verifier  *Verifier
	errors    *ErrorHandler
	observer  Observer
	publisher connector.TablePublisher
	schema    string
	table     string
}

// auditRecorder tags recorder failures so they can be told apart from stage failures
type auditRecorder struct {
	inner cleaner.OperationRecorder
}

func (r auditRecorder) RecordCleaningOperations(ctx context.Context, ops []model.CleaningOperation) error {
	if err := r.inner.RecordCleaningOperations(ctx, ops); err != nil {
		return fmt.Errorf("%w: %v", ErrAudit, err)
	}
	return nil
}

// NewRunner creates a runner; recorder may be nil
func NewRunner(logger *zap.Logger, opts Options, recorder cleaner.OperationRecorder) (*Runner, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if opts.OutputDir == "" {
		return nil, errors.New("output directory is required")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger = logger.Named("pipeline")

	var rec cleaner.OperationRecorder
	if recorder != nil {
		rec = auditRecorder{inner: recorder}
	}
	dc, err := cleaner.NewDataCleaner(logger, opts.PhoneRegion, rec)
	if err != nil {
		return nil, fmt.Errorf("failed to create cleaner: %w", err)
	}
	prof, err := profiler.NewProfiler(logger, opts.MinFillRate)
	if err != nil {
		return nil, fmt.Errorf("failed to create profiler: %w", err)
	}

	return &Runner{
		opts:     opts,
		logger:   logger,
		cleaner:  dc,
		profiler: prof,
		verifier: NewVerifier(logger),
		errors:   NewErrorHandler(logger),
	}, nil
}

// WithObserver sends stage measurements to o
func (r *Runner) WithObserver(o Observer) *Runner {
	r.observer = o
	return r
}

// WithPublisher publishes the final table to schema.table after the run
func (r *Runner) WithPublisher(p connector.TablePublisher, schema, table string) *Runner {
	r.publisher = p
	r.schema = schema
	r.table = table
	return r
}

// Run loads the responses and runs every stage. Load, verification and
// export failures abort the run; audit and publish failures are logged and
// skipped.
func (r *Runner) Run(ctx context.Context, src Source) (*Result, error) {
	metrics := NewRunMetrics(r.logger)
	res := &Result{Metrics: metrics}
	defer func() {
		metrics.Complete()
		res.Errors = r.errors.GetErrorSummary()
	}()

	raw, specs, err := src.Load(ctx)
	if err != nil {
		return res, r.fail("load", fmt.Errorf("%w: %v", ErrLoad, err), metrics)
	}
	res.Specs = specs
	r.logRenamed(specs)
	r.logger.Info("Loaded responses",
		zap.String("source", raw.Name),
		zap.Int("rows", raw.Len()),
		zap.Int("columns", len(raw.Columns)))

	// Stage 1: field cleaning
	sm := metrics.StartStage(StageClean, raw.Len(), len(raw.Columns))
	cleaned, ops, err := r.cleaner.CleanTable(ctx, raw)
	if err = r.tolerateAudit(StageClean, err, metrics); err != nil {
		return res, r.fail(StageClean, err, metrics)
	}
	r.recordParseFallbacks(StageClean, ops, metrics)
	if err := r.verifier.VerifyStage(StageClean, raw, cleaned); err != nil {
		return res, r.fail(StageClean, err, metrics)
	}
	cleanedPath := filepath.Join(r.opts.OutputDir, baseName(raw.Name)+cleanedSuffix)
	if err := r.save(cleanedPath, cleaned); err != nil {
		return res, r.fail(StageClean, err, metrics)
	}
	r.endStage(metrics, sm, cleaned, ops, cleanedPath)
	res.Cleaned, res.Operations = cleaned, append(res.Operations, ops...)
	res.Files = append(res.Files, cleanedPath)

	// Stage 2: column exploitability
	sm = metrics.StartStage(StageAnalyze, cleaned.Len(), len(cleaned.Columns))
	analyzed, profiles := r.profiler.Prune(cleaned)
	if err := r.verifier.VerifyStage(StageAnalyze, cleaned, analyzed); err != nil {
		return res, r.fail(StageAnalyze, err, metrics)
	}
	analyzedPath := filepath.Join(r.opts.OutputDir, AnalyzedFileName)
	if err := r.save(analyzedPath, analyzed); err != nil {
		return res, r.fail(StageAnalyze, err, metrics)
	}
	r.endStage(metrics, sm, analyzed, nil, analyzedPath)
	res.Analyzed, res.Profiles = analyzed, profiles
	res.Files = append(res.Files, analyzedPath)

	// Stage 3: derived columns and reporting order
	sm = metrics.StartStage(StageFinalize, analyzed.Len(), len(analyzed.Columns))
	final, ops, err := r.cleaner.FinalizeTable(ctx, analyzed, r.opts.Now())
	if err = r.tolerateAudit(StageFinalize, err, metrics); err != nil {
		return res, r.fail(StageFinalize, err, metrics)
	}
	if err := r.verifier.VerifyStage(StageFinalize, analyzed, final); err != nil {
		return res, r.fail(StageFinalize, err, metrics)
	}
	finalPath := filepath.Join(r.opts.OutputDir, FinalFileName)
	if err := r.save(finalPath, final); err != nil {
		return res, r.fail(StageFinalize, err, metrics)
	}

	res.Summary = report.Summarize(final, normalizer.DetectRoles(final.Columns), r.opts.TopCountries)
	reportPath := filepath.Join(r.opts.OutputDir, ReportFileName)
	if err := report.SaveText(reportPath, res.Summary); err != nil {
		return res, r.fail(StageFinalize, fmt.Errorf("%w: %v", ErrExport, err), metrics)
	}
	r.endStage(metrics, sm, final, ops, finalPath)
	res.Final, res.Operations = final, append(res.Operations, ops...)
	res.Files = append(res.Files, finalPath, reportPath)

	if r.publisher != nil {
		n, err := r.publisher.PublishTable(ctx, r.schema, r.table, final)
		if err != nil {
			r.handle(StagePublish, fmt.Errorf("%w: %v", ErrPublish, err), metrics)
		} else {
			res.Published = n
		}
	}

	r.logger.Info("Cleaning run completed",
		zap.Int("rows", final.Len()),
		zap.Int("columns", len(final.Columns)),
		zap.Int("operations", len(res.Operations)),
		zap.Strings("files", res.Files),
		zap.Duration("duration", metrics.Duration()))
	return res, nil
}

func (r *Runner) save(path string, table *model.Table) error {
	if err := sheet.Save(path, table); err != nil {
		return fmt.Errorf("%w: %v", ErrExport, err)
	}
	return nil
}

func (r *Runner) endStage(metrics *RunMetrics, sm *StageMetrics, out *model.Table, ops []model.CleaningOperation, path string) {
	metrics.EndStage(sm, out.Len(), len(out.Columns), len(ops), path)
	if r.observer != nil {
		r.observer.ObserveStage(sm.Name, sm.Duration(), out.Len())
		r.observer.RecordOperations(ops)
	}
}

// tolerateAudit turns an audit failure into a logged warning
func (r *Runner) tolerateAudit(stage string, err error, metrics *RunMetrics) error {
	if err == nil || !errors.Is(err, ErrAudit) {
		return err
	}
	if r.handle(stage, err, metrics) == ActionAbort {
		return err
	}
	return nil
}

// recordParseFallbacks counts the cells a cleaner could not parse
func (r *Runner) recordParseFallbacks(stage string, ops []model.CleaningOperation, metrics *RunMetrics) {
	for _, op := range ops {
		if !strings.HasSuffix(op.CleaningOperation, "_failed") {
			continue
		}
		err := fmt.Errorf("could not parse %q", model.String(op.OriginalValue))
		record := NewErrorRecord(err, ErrorCategoryFieldParse).
			WithStage(stage).
			WithRow(op.RowIdentifier).
			WithColumn(op.ColumnName, op.OriginalValue)
		r.errors.HandleError(record)
		metrics.RecordError(ErrorCategoryFieldParse)
	}
}

func (r *Runner) handle(stage string, err error, metrics *RunMetrics) Action {
	category := r.errors.CategorizeError(err)
	metrics.RecordError(category)
	return r.errors.HandleError(NewErrorRecord(err, category).WithStage(stage))
}

func (r *Runner) fail(stage string, err error, metrics *RunMetrics) error {
	r.handle(stage, err, metrics)
	return fmt.Errorf("stage %s: %w", stage, err)
}

func (r *Runner) logRenamed(specs []model.ColumnSpec) {
	renamed := 0
	for _, s := range specs {
		if s.Raw != s.Canonical {
			renamed++
			r.logger.Debug("Renamed column", zap.String("from", s.Raw), zap.String("to", s.Canonical))
		}
	}
	r.logger.Info("Normalized column names", zap.Int("columns", len(specs)), zap.Int("renamed", renamed))
}

func baseName(name string) string {
	if name == "" {
		return "Formulaire"
	}
	return name
}
