package visuals

import (
	"fmt"
	"math"
	"strings"

	"mcs-forecast/internal/estimation"
	"mcs-forecast/internal/simulation"
	"mcs-forecast/internal/stats"
	"mcs-forecast/internal/throughput"
	"mcs-forecast/internal/workitem"
)

// maxBars keeps xychart layouts readable; longer series are subsampled.
const maxBars = 60

// Markdown wraps a diagram in a mermaid code fence. Empty diagrams stay empty.
func Markdown(diagram string) string {
	if diagram == "" {
		return ""
	}
	return "```mermaid\n" + diagram + "```"
}

// HistogramChart creates a bar chart of the probability of finishing in each week.
func HistogramChart(res simulation.Result) string {
	if len(res.Histogram) == 0 {
		return ""
	}

	var labels []string
	var values []string
	maxVal := 0.0
	for _, b := range res.Histogram {
		pct := b.Probability * 100
		labels = append(labels, fmt.Sprintf("\"%d\"", b.Week))
		values = append(values, fmt.Sprintf("%.1f", pct))
		maxVal = math.Max(maxVal, pct)
	}

	var sb strings.Builder
	sb.WriteString("xychart-beta\n")
	sb.WriteString("    title \"Completion Forecast (Probability per Week)\"\n")
	sb.WriteString(fmt.Sprintf("    x-axis \"Weeks\" [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"Probability (%%)\" 0 --> %d\n", int(math.Min(100, math.Ceil(maxVal*1.2)))))
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(values, ", ")))
	return sb.String()
}

// CumulativeChart creates a line chart of the probability of finishing within each week.
func CumulativeChart(res simulation.Result) string {
	if len(res.Histogram) == 0 {
		return ""
	}

	cumulative := simulation.CumulativeProbability(res.Histogram)
	var labels []string
	var values []string
	for i, b := range res.Histogram {
		labels = append(labels, fmt.Sprintf("\"%d\"", b.Week))
		values = append(values, fmt.Sprintf("%.1f", cumulative[i]*100))
	}

	var sb strings.Builder
	sb.WriteString("xychart-beta\n")
	sb.WriteString("    title \"Completion Forecast (Cumulative Probability)\"\n")
	sb.WriteString(fmt.Sprintf("    x-axis \"Weeks\" [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString("    y-axis \"Done by week (%)\" 0 --> 100\n")
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(values, ", ")))
	return sb.String()
}

// BurndownChart draws the P50 and P80 projections. The shorter curve is held at zero
// once its work is gone.
func BurndownChart(res simulation.Result, unit workitem.Unit) string {
	p50, p80 := res.Burndown.P50, res.Burndown.P80
	if len(p50) == 0 && len(p80) == 0 {
		return ""
	}
	weeks := max(len(p50), len(p80))

	var labels []string
	var median []string
	var pessimistic []string
	for i := range weeks {
		labels = append(labels, fmt.Sprintf("\"%d\"", i))
		median = append(median, fmt.Sprintf("%.1f", remainingAt(p50, i)))
		pessimistic = append(pessimistic, fmt.Sprintf("%.1f", remainingAt(p80, i)))
	}

	// Lines render in declaration order: P50 first, then P80.
	var sb strings.Builder
	sb.WriteString("xychart-beta\n")
	sb.WriteString("    title \"Burn-down (P50 and P80 rate)\"\n")
	sb.WriteString(fmt.Sprintf("    x-axis \"Week\" [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"Remaining (%s)\" 0 --> %d\n", unit, int(math.Ceil(res.RemainingWork*1.1))))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(median, ", ")))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(pessimistic, ", ")))
	return sb.String()
}

func remainingAt(points []simulation.BurndownPoint, week int) float64 {
	if week < len(points) {
		return points[week].Remaining
	}
	return 0
}

// ThroughputChart creates a bar chart of completed work per week.
func ThroughputChart(weeks []throughput.WeeklySample, unit workitem.Unit) string {
	if len(weeks) == 0 {
		return ""
	}

	step := 1
	if len(weeks) > maxBars {
		step = int(math.Ceil(float64(len(weeks)) / maxBars))
	}

	var labels []string
	var values []string
	maxVal := 0.0
	for i, w := range weeks {
		if i%step != 0 && i != len(weeks)-1 {
			continue
		}
		v := w.Value(unit)
		labels = append(labels, fmt.Sprintf("\"%s\"", stats.WeekLabel(w.WeekStart)))
		values = append(values, fmt.Sprintf("%g", v))
		maxVal = math.Max(maxVal, v)
	}

	var sb strings.Builder
	sb.WriteString("xychart-beta\n")
	sb.WriteString("    title \"Weekly Throughput\"\n")
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"Delivered (%s)\" 0 --> %d\n", unit, int(maxVal)+int(math.Max(1, maxVal*0.2))))
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(values, ", ")))
	return sb.String()
}

// SizeChart compares mean cycle time per declared size.
func SizeChart(profile estimation.Profile) string {
	if profile.Insufficient || len(profile.Groups) == 0 {
		return ""
	}

	var labels []string
	var values []string
	maxVal := 0.0
	for _, g := range profile.Groups {
		labels = append(labels, fmt.Sprintf("\"%g pt\"", g.Size))
		values = append(values, fmt.Sprintf("%.1f", g.MeanCycleDays))
		maxVal = math.Max(maxVal, g.MaxCycleDays)
	}

	var sb strings.Builder
	sb.WriteString("xychart-beta\n")
	sb.WriteString("    title \"Mean Cycle Time by Size\"\n")
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"Cycle Time (Days)\" 0 --> %d\n", int(math.Ceil(maxVal*1.1))))
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(values, ", ")))
	return sb.String()
}
