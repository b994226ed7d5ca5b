package forecast

import (
	"fmt"
	"io"
	"strings"

	"mcs-forecast/internal/stats"
)

// WriteSummary renders a report as plain text for terminals.
func WriteSummary(w io.Writer, r Report) error {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Snapshot %s as of %s (run %s)\n", r.SnapshotID, r.AsOf.Format("2006-01-02"), r.RunID)
	fmt.Fprintf(&sb, "Remaining work: %g %s, lookback %d weeks\n\n", r.RemainingWork, r.Unit, r.LookbackWeeks)

	sb.WriteString("Throughput\n")
	if r.Throughput.Status != StatusOK {
		fmt.Fprintf(&sb, "  %s\n", r.Throughput.Message)
	}
	for _, wk := range r.Throughput.Weeks {
		fmt.Fprintf(&sb, "  %s  %3d items  %6.1f points\n", stats.WeekLabel(wk.WeekStart), wk.Count, wk.Points)
	}

	sb.WriteString("\nForecast\n")
	if res := r.Forecast.Result; res != nil {
		fmt.Fprintf(&sb, "  P50 %d weeks, P80 %d weeks, P95 %d weeks (mean %.1f, %d trials)\n",
			res.P50, res.P80, res.P95, res.Mean, res.SampleCount)
		for _, warn := range res.Warnings {
			fmt.Fprintf(&sb, "  warning: %s\n", warn)
		}
	} else {
		fmt.Fprintf(&sb, "  %s\n", r.Forecast.Message)
	}

	sb.WriteString("\nEstimation\n")
	if p := r.Estimation.Profile; !p.Insufficient {
		fmt.Fprintf(&sb, "  %s (linearity score %d, %d items)\n", p.Bias.Level, p.Bias.Score, p.SampleSize)
		for _, rec := range p.Recommendations {
			fmt.Fprintf(&sb, "  [%s] %s\n", rec.Priority, rec.Title)
		}
	} else {
		fmt.Fprintf(&sb, "  %s\n", r.Estimation.Message)
	}

	c := r.Confidence
	fmt.Fprintf(&sb, "\nConfidence %d/100: plan with %s\n", c.Overall, c.Recommendation.Percentile)
	fmt.Fprintf(&sb, "  velocity %d (%s), estimation %d (%s)\n", c.Velocity.Score, c.Velocity.Level, c.Estimation.Score, c.Estimation.Level)
	fmt.Fprintf(&sb, "  %s\n", c.Recommendation.Rationale)

	_, err := io.WriteString(w, sb.String())
	return err
}
