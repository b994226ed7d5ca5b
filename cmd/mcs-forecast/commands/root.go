package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"mcs-forecast/internal/config"
	"mcs-forecast/internal/forecast"
	"mcs-forecast/internal/logging"
	"mcs-forecast/internal/mcp"
	"mcs-forecast/internal/simulation"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose bool
	cfg     *config.AppConfig
)

var rootCmd = &cobra.Command{
	Use:   "mcs-forecast",
	Short: "Monte-Carlo backlog completion forecasts",
	Long: `mcs-forecast turns completed work-item history into weekly throughput and simulates how many
weeks the remaining backlog needs. It also profiles estimation accuracy and scores how far the
forecast can be trusted.

Without a subcommand it runs as an MCP server on stdio.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logging.Init(verbose); err != nil {
			return fmt.Errorf("failed to initialize logging: %w", err)
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		log.Info().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Str("command", cmd.Name()).
			Msg("mcs-forecast starting")
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		server, err := mcp.NewServer(cfg, newService(), Version)
		if err != nil {
			return err
		}
		return server.Serve(cmd.Context())
	},
}

// newService builds the forecasting service from the loaded configuration.
func newService() *forecast.Service {
	return forecast.NewService(
		forecast.WithDefaults(forecast.Defaults{
			LookbackWeeks: cfg.LookbackWeeks,
			SampleCount:   cfg.SampleCount,
			WeekCap:       cfg.WeekCap,
		}),
		forecast.WithEngineOptions(
			simulation.WithWorkers(cfg.Workers),
			simulation.WithBatchSize(cfg.BatchSize),
		),
	)
}

// Execute runs the CLI. An interrupt cancels the running command.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return executeContext(ctx)
}

// executeContext runs the CLI under ctx. Cobra only hands the root context to a
// subcommand that has none, so contexts from an earlier run are replaced first.
func executeContext(ctx context.Context) error {
	for _, c := range rootCmd.Commands() {
		c.SetContext(ctx)
	}
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}
