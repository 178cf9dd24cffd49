package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/David-Botos/form-ingress/pkg/filter"
	"github.com/David-Botos/form-ingress/pkg/normalizer"
	"github.com/David-Botos/form-ingress/pkg/report"
	"github.com/David-Botos/form-ingress/pkg/sheet"
)

func newExportCommand(a *app) *cobra.Command {
	var (
		data, out  string
		start, end string
		cfg        filter.Config
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a filtered view of a cleaned workbook to CSV or XLSX",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if data == "" {
				data = a.cfg.DashboardData
			}
			var err error
			if cfg.Start, err = filter.ParseDate(start); err != nil {
				return fmt.Errorf("invalid --start: %w", err)
			}
			if cfg.End, err = filter.ParseDate(end); err != nil {
				return fmt.Errorf("invalid --end: %w", err)
			}

			table, err := sheet.ReadTable(data)
			if err != nil {
				return fmt.Errorf("failed to load %s: %w", data, err)
			}
			view, err := filter.Apply(table, normalizer.DetectRoles(table.Columns), cfg)
			if err != nil {
				return err
			}
			if err := report.ExportFile(out, view); err != nil {
				return err
			}
			a.logger.Info("Exported view",
				zap.String("path", out),
				zap.Int("rows", view.Len()),
				zap.Int("of", table.Len()))
			return nil
		},
	}

	cmd.Flags().StringVar(&data, "data", "", "cleaned workbook; default DASHBOARD_DATA")
	cmd.Flags().StringVar(&out, "out", "formulaire_filtre.csv", "output file, .csv or .xlsx")
	cmd.Flags().StringVar(&start, "start", "", "first day kept (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "last day kept (YYYY-MM-DD)")
	cmd.Flags().StringVar(&cfg.Country, "country", filter.All, "country to keep")
	cmd.Flags().StringVar(&cfg.Pack, "pack", filter.All, "pack category to keep")
	cmd.Flags().StringVar(&cfg.Payment, "payment", filter.All, "payment method to keep")
	return cmd
}
