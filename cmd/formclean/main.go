// Command formclean cleans questionnaire exports and serves the response
// dashboard.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/David-Botos/form-ingress/pkg/config"
)

// app carries what every command needs once the root command has run
type app struct {
	cfg    *config.Config
	logger *zap.Logger
}

func main() {
	a := &app{}
	if err := newRootCommand(a).Execute(); err != nil {
		if a.logger != nil {
			a.logger.Error("Command failed", zap.Error(err))
			_ = a.logger.Sync()
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "formclean",
		Short:         "Clean questionnaire responses and explore them",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			_ = a.logger.Sync()
		},
	}
	root.AddCommand(
		newCleanCommand(a),
		newReportCommand(a),
		newDashboardCommand(a),
		newExportCommand(a),
	)
	return root
}

// setup loads .env, the configuration and the logger
func (a *app) setup() error {
	envErr := godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger, err := config.NewLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	zap.ReplaceGlobals(logger)

	if envErr != nil {
		logger.Debug("No .env file found, using environment variables")
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}
