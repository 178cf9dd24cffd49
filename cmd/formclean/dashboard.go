package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/David-Botos/form-ingress/pkg/dashboard"
	"github.com/David-Botos/form-ingress/pkg/observability"
)

func newDashboardCommand(a *app) *cobra.Command {
	var addr, data string

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Serve the interactive dashboard until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = a.cfg.DashboardAddr
			}
			if data == "" {
				data = a.cfg.DashboardData
			}
			if a.cfg.LogLevel != "debug" {
				gin.SetMode(gin.ReleaseMode)
			}

			srv, err := dashboard.NewServer(a.logger, dashboard.Options{
				DataPath:       data,
				AllowedOrigins: a.cfg.AllowedOrigins,
				TopCountries:   a.cfg.TopCountries,
			}, observability.New())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.Run(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address; default DASHBOARD_ADDR")
	cmd.Flags().StringVar(&data, "data", "", "cleaned workbook; default DASHBOARD_DATA")
	return cmd
}
