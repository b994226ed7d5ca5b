package visuals

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"mcs-forecast/internal/estimation"
	"mcs-forecast/internal/forecast"
	"mcs-forecast/internal/simulation"
	"mcs-forecast/internal/throughput"
	"mcs-forecast/internal/workitem"
)

func sampleResult() simulation.Result {
	return simulation.Result{
		P50: 4, P80: 5, P95: 5,
		RemainingWork: 10,
		SampleCount:   4,
		Histogram: []simulation.Bucket{
			{Week: 4, Count: 3, Probability: 0.75},
			{Week: 5, Count: 1, Probability: 0.25},
		},
		Burndown: simulation.Burndown{
			P50: []simulation.BurndownPoint{{Week: 0, Remaining: 10}, {Week: 1, Remaining: 4}, {Week: 2, Remaining: 0}},
			P80: []simulation.BurndownPoint{{Week: 0, Remaining: 10}, {Week: 1, Remaining: 7}, {Week: 2, Remaining: 4}, {Week: 3, Remaining: 1}},
		},
	}
}

func TestHistogramChart(t *testing.T) {
	got := HistogramChart(sampleResult())
	for _, want := range []string{
		"xychart-beta\n",
		`x-axis "Weeks" ["4", "5"]`,
		`y-axis "Probability (%)" 0 --> 90`,
		"bar [75.0, 25.0]",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("chart missing %q:\n%s", want, got)
		}
	}
	if HistogramChart(simulation.Result{}) != "" {
		t.Errorf("empty histogram must render nothing")
	}
}

func TestCumulativeChart(t *testing.T) {
	got := CumulativeChart(sampleResult())
	if !strings.Contains(got, "line [75.0, 100.0]") {
		t.Errorf("unexpected cumulative chart:\n%s", got)
	}
}

func TestBurndownChart_PadsShorterCurve(t *testing.T) {
	got := BurndownChart(sampleResult(), workitem.UnitPoints)
	for _, want := range []string{
		`x-axis "Week" ["0", "1", "2", "3"]`,
		`y-axis "Remaining (points)" 0 --> 11`,
		"line [10.0, 4.0, 0.0, 0.0]",
		"line [10.0, 7.0, 4.0, 1.0]",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("chart missing %q:\n%s", want, got)
		}
	}
}

func TestThroughputChart(t *testing.T) {
	monday := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	weeks := []throughput.WeeklySample{
		{WeekStart: monday, Count: 3, Points: 8},
		{WeekStart: monday.AddDate(0, 0, 7), Count: 5, Points: 13},
	}

	items := ThroughputChart(weeks, workitem.UnitItems)
	if !strings.Contains(items, `["2024-W11", "2024-W12"]`) || !strings.Contains(items, "bar [3, 5]") {
		t.Errorf("unexpected item chart:\n%s", items)
	}
	points := ThroughputChart(weeks, workitem.UnitPoints)
	if !strings.Contains(points, "bar [8, 13]") || !strings.Contains(points, `"Delivered (points)"`) {
		t.Errorf("unexpected points chart:\n%s", points)
	}
	if ThroughputChart(nil, workitem.UnitItems) != "" {
		t.Errorf("no weeks must render nothing")
	}
}

func TestThroughputChart_Subsamples(t *testing.T) {
	monday := time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC)
	var weeks []throughput.WeeklySample
	for i := range 130 {
		weeks = append(weeks, throughput.WeeklySample{WeekStart: monday.AddDate(0, 0, 7*i), Count: 1})
	}
	got := ThroughputChart(weeks, workitem.UnitItems)
	bars := strings.Count(got[strings.Index(got, "bar ["):], ",") + 1
	if bars > maxBars {
		t.Errorf("rendered %d bars, want at most %d", bars, maxBars)
	}
}

func TestSizeChart(t *testing.T) {
	profile := estimation.Profile{Groups: []estimation.SizeGroup{
		{Size: 1, MeanCycleDays: 1.5, MaxCycleDays: 2},
		{Size: 3, MeanCycleDays: 4.5, MaxCycleDays: 9},
	}}
	got := SizeChart(profile)
	if !strings.Contains(got, `["1 pt", "3 pt"]`) || !strings.Contains(got, "bar [1.5, 4.5]") || !strings.Contains(got, "0 --> 10") {
		t.Errorf("unexpected size chart:\n%s", got)
	}
	if SizeChart(estimation.Profile{Insufficient: true}) != "" {
		t.Errorf("insufficient profile must render nothing")
	}
}

func TestMarkdown(t *testing.T) {
	if Markdown("") != "" {
		t.Errorf("empty diagram must stay empty")
	}
	if got := Markdown("pie\n"); got != "```mermaid\npie\n```" {
		t.Errorf("Markdown() = %q", got)
	}
}

func TestWriteHTMLReport(t *testing.T) {
	res := sampleResult()
	res.Warnings = []string{"cap <reached>"}
	report := forecast.Report{
		RunID:         "run-1",
		SnapshotID:    "snap-1",
		AsOf:          time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		Unit:          workitem.UnitPoints,
		RemainingWork: 10,
		Forecast:      forecast.ForecastSection{Status: forecast.StatusOK, Result: &res},
		Estimation:    forecast.EstimationSection{Status: forecast.StatusInsufficient, Profile: estimation.Profile{Insufficient: true}, Message: "need more sized items"},
	}

	var buf bytes.Buffer
	if err := WriteHTMLReport(&buf, report); err != nil {
		t.Fatalf("WriteHTMLReport() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"snap-1", "2024-06-03", "4 weeks",
		`<pre class="mermaid chart">xychart-beta`,
		"--&gt; 90",
		"cap &lt;reached&gt;",
		"need more sized items",
		mermaidCDN,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q", want)
		}
	}
	// throughput and size charts are empty here; histogram, cumulative and burn-down remain
	if n := strings.Count(out, `class="mermaid chart"`); n != 3 {
		t.Errorf("rendered %d charts, want 3", n)
	}
}

func TestWriteHTMLReport_NoForecast(t *testing.T) {
	report := forecast.Report{
		Forecast: forecast.ForecastSection{Status: forecast.StatusInsufficient, Message: "no history yet"},
	}
	var buf bytes.Buffer
	if err := WriteHTMLReport(&buf, report); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "no history yet") {
		t.Errorf("missing insufficient-data message")
	}
}
