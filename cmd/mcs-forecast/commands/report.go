package commands

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/browser"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"mcs-forecast/internal/forecast"
	"mcs-forecast/internal/visuals"
)

var (
	reportFlags pipelineFlags
	reportOut   string
	reportOpen  bool
)

var reportCmd = &cobra.Command{
	Use:     "report",
	Short:   "Write an HTML forecast report with charts",
	Example: `  mcs-forecast report --input backlog.yaml --out forecast.html --open`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := reportFlags.run(cmd.Context())
		if err != nil {
			return err
		}
		if err := writeHTMLFile(reportOut, report); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", reportOut)

		if reportOpen {
			abs, err := filepath.Abs(reportOut)
			if err != nil {
				return err
			}
			if err := browser.OpenFile(abs); err != nil {
				log.Warn().Err(err).Str("path", abs).Msg("Could not open the report in a browser")
			}
		}
		return nil
	},
}

func writeHTMLFile(path string, report forecast.Report) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	if err := visuals.WriteHTMLReport(w, report); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return file.Close()
}

func init() {
	reportFlags.register(reportCmd)
	reportCmd.Flags().StringVarP(&reportOut, "out", "o", "forecast-report.html", "output HTML file")
	reportCmd.Flags().BoolVar(&reportOpen, "open", false, "open the report in the default browser")
	rootCmd.AddCommand(reportCmd)
}
