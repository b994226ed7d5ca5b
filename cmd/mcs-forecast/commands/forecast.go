package commands

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"mcs-forecast/internal/forecast"
)

var (
	forecastFlags pipelineFlags
	forecastJSON  bool
)

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Forecast the remaining backlog of a snapshot",
	Example: `  mcs-forecast forecast --input backlog.yaml
  mcs-forecast forecast --jira search.json --unit points --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := forecastFlags.run(cmd.Context())
		if err != nil {
			return err
		}
		if forecastJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}
		return forecast.WriteSummary(cmd.OutOrStdout(), report)
	},
}

func init() {
	forecastFlags.register(forecastCmd)
	forecastCmd.Flags().BoolVar(&forecastJSON, "json", false, "print the full report as JSON")
	rootCmd.AddCommand(forecastCmd)
}
