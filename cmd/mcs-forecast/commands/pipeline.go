package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"mcs-forecast/internal/forecast"
	"mcs-forecast/internal/jira"
	"mcs-forecast/internal/workitem"
)

// pipelineFlags are shared by the commands that run the full forecast over a file.
type pipelineFlags struct {
	input      string
	jiraExport string
	now        string
	lookback   int
	samples    int
	weekCap    int
	seed       string
	unit       string
}

func (f *pipelineFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.input, "input", "i", "", "snapshot file (.json, .jsonl, .yaml)")
	fs.StringVar(&f.jiraExport, "jira", "", "saved Jira search response (JSON)")
	fs.StringVar(&f.now, "now", "", "reference time (RFC 3339 or YYYY-MM-DD), default now")
	fs.IntVar(&f.lookback, "lookback", 0, "weeks of throughput history, default MCS_LOOKBACK_WEEKS")
	fs.IntVar(&f.samples, "samples", 0, "simulation trials, default MCS_SAMPLE_COUNT")
	fs.IntVar(&f.weekCap, "week-cap", 0, "maximum weeks per trial (at most 520), default MCS_WEEK_CAP")
	fs.StringVar(&f.seed, "seed", "", "seed for reproducible runs, default the snapshot fingerprint")
	fs.StringVar(&f.unit, "unit", "auto", "throughput unit: auto, points or items")
	cmd.MarkFlagsMutuallyExclusive("input", "jira")
	cmd.MarkFlagsOneRequired("input", "jira")
}

func (f *pipelineFlags) load() (workitem.Snapshot, error) {
	if f.jiraExport != "" {
		return jira.LoadSearchExport(f.jiraExport, jira.Options{StoryPointsField: cfg.StoryPointsField})
	}
	if f.input == "" {
		return workitem.Snapshot{}, errors.New("one of --input or --jira is required")
	}
	return workitem.LoadFile(f.input)
}

func (f *pipelineFlags) request() (forecast.PipelineRequest, error) {
	snap, err := f.load()
	if err != nil {
		return forecast.PipelineRequest{}, err
	}
	unit, err := workitem.ParseUnit(f.unit)
	if err != nil {
		return forecast.PipelineRequest{}, err
	}
	now, err := parseNow(f.now)
	if err != nil {
		return forecast.PipelineRequest{}, err
	}
	return forecast.PipelineRequest{
		Snapshot:      snap,
		Now:           now,
		LookbackWeeks: f.lookback,
		SampleCount:   f.samples,
		WeekCap:       f.weekCap,
		Seed:          f.seed,
		Unit:          unit,
	}, nil
}

// run loads the input and executes the pipeline.
func (f *pipelineFlags) run(ctx context.Context) (forecast.Report, error) {
	req, err := f.request()
	if err != nil {
		return forecast.Report{}, err
	}
	return newService().Run(ctx, req)
}

func parseNow(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("--now %q is neither RFC 3339 nor YYYY-MM-DD", s)
	}
	return t, nil
}
