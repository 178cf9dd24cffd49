package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/David-Botos/form-ingress/pkg/normalizer"
	"github.com/David-Botos/form-ingress/pkg/report"
	"github.com/David-Botos/form-ingress/pkg/sheet"
)

func newReportCommand(a *app) *cobra.Command {
	var data, out string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the text report of a cleaned workbook",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if data == "" {
				data = a.cfg.DashboardData
			}
			table, err := sheet.ReadTable(data)
			if err != nil {
				return fmt.Errorf("failed to load %s: %w", data, err)
			}

			summary := report.Summarize(table, normalizer.DetectRoles(table.Columns), a.cfg.TopCountries)
			if out == "" {
				return report.WriteText(cmd.OutOrStdout(), summary)
			}
			if err := report.SaveText(out, summary); err != nil {
				return err
			}
			a.logger.Info("Report written", zap.String("path", out), zap.Int("rows", summary.Total))
			return nil
		},
	}

	cmd.Flags().StringVar(&data, "data", "", "cleaned workbook; default DASHBOARD_DATA")
	cmd.Flags().StringVar(&out, "out", "", "write the report to this file instead of stdout")
	return cmd
}
