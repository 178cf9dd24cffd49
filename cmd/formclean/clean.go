package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/David-Botos/form-ingress/pkg/audit"
	"github.com/David-Botos/form-ingress/pkg/cleaner"
	"github.com/David-Botos/form-ingress/pkg/connector"
	"github.com/David-Botos/form-ingress/pkg/observability"
	"github.com/David-Botos/form-ingress/pkg/pipeline"
)

const (
	sourceFile      = "file"
	sourceSnowflake = "snowflake"
)

func newCleanCommand(a *app) *cobra.Command {
	var (
		input       string
		outDir      string
		source      string
		sourceTable string
	)

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Run the three cleaning stages and write the workbooks and the report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("input") {
				a.cfg.InputPath = input
			}
			if cmd.Flags().Changed("out-dir") {
				a.cfg.OutputDir = outDir
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.clean(ctx, cmd, source, sourceTable)
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "questionnaire export (xlsx or csv); default INPUT_PATH")
	cmd.Flags().StringVar(&outDir, "out-dir", "", "directory receiving the outputs; default OUTPUT_DIR")
	cmd.Flags().StringVar(&source, "source", sourceFile, "where responses are read from: file or snowflake")
	cmd.Flags().StringVar(&sourceTable, "source-table", "", "Snowflake table; default SNOWFLAKE_SOURCE_TABLE")
	return cmd
}

func (a *app) clean(ctx context.Context, cmd *cobra.Command, source, sourceTable string) error {
	if err := os.MkdirAll(a.cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	var recorder cleaner.OperationRecorder
	var store *audit.Store
	if a.cfg.Audit != nil {
		s, err := audit.Open(ctx, a.cfg.Audit.Driver, a.cfg.Audit.DSN, a.logger)
		if err != nil {
			a.logger.Warn("Audit trail disabled", zap.Error(err))
		} else {
			defer s.Close()
			store, recorder = s, s
		}
	}

	runner, err := pipeline.NewRunner(a.logger, pipeline.Options{
		OutputDir:    a.cfg.OutputDir,
		PhoneRegion:  a.cfg.PhoneRegion,
		MinFillRate:  a.cfg.MinFillRate,
		TopCountries: a.cfg.TopCountries,
	}, recorder)
	if err != nil {
		return err
	}
	metrics := observability.New()
	runner.WithObserver(metrics)

	factory := connector.NewConnectorFactory(a.cfg, a.logger)
	if a.cfg.Publish != nil {
		pg, err := factory.CreatePostgresConnector(ctx)
		if err != nil {
			a.logger.Warn("Publishing disabled", zap.Error(err))
		} else {
			defer pg.Close()
			runner.WithPublisher(pg, a.cfg.Publish.Schema, a.cfg.Publish.Table)
		}
	}

	var src pipeline.Source
	switch source {
	case sourceFile:
		src = pipeline.FileSource{Path: a.cfg.InputPath}
	case sourceSnowflake:
		sf, err := factory.CreateSnowflakeConnector(ctx)
		if err != nil {
			return err
		}
		defer sf.Close()
		if sourceTable == "" {
			sourceTable = a.cfg.Snowflake.SourceTable
		}
		src = pipeline.WarehouseSource{Conn: sf, Table: sourceTable}
	default:
		return fmt.Errorf("unknown source %q, expected %s or %s", source, sourceFile, sourceSnowflake)
	}

	res, err := runner.Run(ctx, src)
	if res != nil && res.Metrics != nil {
		fmt.Fprint(cmd.OutOrStdout(), res.Metrics.GenerateMetricsReport())
	}
	// Failed runs leave their stage timings too
	promFile := filepath.Join(a.cfg.OutputDir, observability.TextfileName)
	if werr := metrics.WriteTextfile(promFile); werr != nil {
		a.logger.Warn("Metrics not written", zap.Error(werr))
	} else {
		a.logger.Info("Metrics written", zap.String("path", promFile))
	}
	if err != nil {
		return err
	}

	for _, f := range res.Files {
		fmt.Fprintf(cmd.OutOrStdout(), "Fichier créé: %s\n", f)
	}
	if store != nil {
		counts, err := store.CountByOperation(ctx, res.Final.Name)
		if err != nil {
			a.logger.Warn("Failed to read audit trail", zap.Error(err))
		}
		for _, c := range counts {
			a.logger.Info("Audited operations", zap.String("operation", c.Operation), zap.Int("count", c.Count))
		}
	}
	return nil
}
