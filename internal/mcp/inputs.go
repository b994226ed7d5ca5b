package mcp

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"mcs-forecast/internal/estimation"
	"mcs-forecast/internal/jira"
	"mcs-forecast/internal/stats"
	"mcs-forecast/internal/throughput"
	"mcs-forecast/internal/workitem"
)

// ItemInput is a work item as sent by a client. Times are RFC 3339 strings.
type ItemInput struct {
	ID        string   `json:"id" jsonschema:"unique item identifier"`
	Size      *float64 `json:"size,omitempty" jsonschema:"declared size in points, omit when unestimated"`
	State     string   `json:"state" jsonschema:"one of ToDo, InProgress, Done"`
	Created   string   `json:"created" jsonschema:"creation time (RFC 3339)"`
	Completed string   `json:"completed,omitempty" jsonschema:"completion time (RFC 3339), Done items only"`
}

// SourceInput names where the items come from. Exactly one field must be set.
type SourceInput struct {
	Items        []ItemInput
	SnapshotFile string
	JiraExport   string
}

type AggregateInput struct {
	Items         []ItemInput `json:"items,omitempty" jsonschema:"inline work items"`
	SnapshotFile  string      `json:"snapshot_file,omitempty" jsonschema:"snapshot file (.json, .jsonl, .yaml) relative to DATA_PATH"`
	JiraExport    string      `json:"jira_export,omitempty" jsonschema:"saved Jira search response (JSON) relative to DATA_PATH"`
	Now           string      `json:"now,omitempty" jsonschema:"reference time (RFC 3339), default now"`
	LookbackWeeks int         `json:"lookback_weeks,omitempty" jsonschema:"weeks of history to consider, default 12"`
	Unit          string      `json:"unit,omitempty" jsonschema:"auto, points or items; selects the series returned next to the weekly samples"`
}

type ForecastInput struct {
	RemainingWork     float64   `json:"remaining_work" jsonschema:"remaining work in the unit of the samples"`
	ThroughputSamples []float64 `json:"throughput_samples" jsonschema:"weekly throughput values to resample"`
	Seed              string    `json:"seed,omitempty" jsonschema:"seed for reproducible runs, default is a fingerprint of the samples"`
	SampleCount       int       `json:"sample_count,omitempty" jsonschema:"number of trials, default 10000"`
	WeekCap           int       `json:"week_cap,omitempty" jsonschema:"maximum weeks per trial (at most 520), default 104"`
	Unit              string    `json:"unit,omitempty" jsonschema:"label for charts: points or items"`
}

type EstimationInput struct {
	Items         []ItemInput `json:"items,omitempty" jsonschema:"inline work items; only Done, sized items are analyzed"`
	SnapshotFile  string      `json:"snapshot_file,omitempty" jsonschema:"snapshot file (.json, .jsonl, .yaml) relative to DATA_PATH"`
	JiraExport    string      `json:"jira_export,omitempty" jsonschema:"saved Jira search response (JSON) relative to DATA_PATH"`
	Now           string      `json:"now,omitempty" jsonschema:"reference time (RFC 3339), default now"`
	LookbackWeeks int         `json:"lookback_weeks,omitempty" jsonschema:"weeks of completed history to analyze, default 12"`
}

// WeekInput is one weekly throughput sample.
type WeekInput struct {
	WeekStart string  `json:"week_start,omitempty" jsonschema:"Monday of the week (RFC 3339 or YYYY-MM-DD)"`
	Count     int     `json:"count" jsonschema:"completed items"`
	Points    float64 `json:"points,omitempty" jsonschema:"completed points"`
}

type ConfidenceInput struct {
	WeeklySamples     []WeekInput         `json:"weekly_samples" jsonschema:"weekly throughput, oldest first"`
	EstimationProfile *estimation.Profile `json:"estimation_profile,omitempty" jsonschema:"result of analyze_estimation; omit to score estimation as unknown"`
	Unit              string              `json:"unit,omitempty" jsonschema:"auto, points or items"`
}

type BacklogInput struct {
	Items         []ItemInput `json:"items,omitempty" jsonschema:"inline work items"`
	SnapshotFile  string      `json:"snapshot_file,omitempty" jsonschema:"snapshot file (.json, .jsonl, .yaml) relative to DATA_PATH"`
	JiraExport    string      `json:"jira_export,omitempty" jsonschema:"saved Jira search response (JSON) relative to DATA_PATH"`
	Now           string      `json:"now,omitempty" jsonschema:"reference time (RFC 3339), default now"`
	LookbackWeeks int         `json:"lookback_weeks,omitempty" jsonschema:"weeks of history to consider, default 12"`
	SampleCount   int         `json:"sample_count,omitempty" jsonschema:"number of trials, default 10000"`
	WeekCap       int         `json:"week_cap,omitempty" jsonschema:"maximum weeks per trial (at most 520), default 104"`
	Seed          string      `json:"seed,omitempty" jsonschema:"seed for reproducible runs, default is the snapshot fingerprint"`
	Unit          string      `json:"unit,omitempty" jsonschema:"auto, points or items"`
}

func (in ItemInput) toItem() (workitem.Item, error) {
	state, err := workitem.ParseState(in.State)
	if err != nil {
		return workitem.Item{}, stats.Invalid("item %q: %v", in.ID, err)
	}
	item := workitem.Item{ID: in.ID, Size: in.Size, State: state}

	if item.Created, err = parseTime(in.Created); err != nil {
		return workitem.Item{}, stats.Invalid("item %q: created: %v", in.ID, err)
	}
	if in.Completed != "" {
		completed, err := parseTime(in.Completed)
		if err != nil {
			return workitem.Item{}, stats.Invalid("item %q: completed: %v", in.ID, err)
		}
		item.Completed = &completed
	}
	return item, nil
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is neither RFC 3339 nor YYYY-MM-DD", s)
	}
	return t, nil
}

func parseNow(s string) (time.Time, error) {
	t, err := parseTime(s)
	if err != nil {
		return time.Time{}, stats.Invalid("now: %v", err)
	}
	return t, nil
}

func parseUnit(s string) (workitem.Unit, error) {
	u, err := workitem.ParseUnit(s)
	if err != nil {
		return "", stats.Invalid("%v", err)
	}
	return u, nil
}

func (in WeekInput) toSample() (throughput.WeeklySample, error) {
	start, err := parseTime(in.WeekStart)
	if err != nil {
		return throughput.WeeklySample{}, stats.Invalid("week_start: %v", err)
	}
	if in.Count < 0 || in.Points < 0 {
		return throughput.WeeklySample{}, stats.Invalid("weekly sample must not be negative")
	}
	return throughput.WeeklySample{WeekStart: start, Count: in.Count, Points: in.Points}, nil
}

// loadSnapshot resolves a source into a validated snapshot. File paths are confined to
// the data directory.
func (s *Server) loadSnapshot(src SourceInput) (workitem.Snapshot, error) {
	set := 0
	if len(src.Items) > 0 {
		set++
	}
	if src.SnapshotFile != "" {
		set++
	}
	if src.JiraExport != "" {
		set++
	}
	if set != 1 {
		return workitem.Snapshot{}, stats.Invalid("provide exactly one of items, snapshot_file or jira_export")
	}

	switch {
	case src.SnapshotFile != "":
		path, err := s.dataFile(src.SnapshotFile)
		if err != nil {
			return workitem.Snapshot{}, err
		}
		return workitem.LoadFile(path)
	case src.JiraExport != "":
		path, err := s.dataFile(src.JiraExport)
		if err != nil {
			return workitem.Snapshot{}, err
		}
		return jira.LoadSearchExport(path, jira.Options{StoryPointsField: s.cfg.StoryPointsField})
	}

	snap := workitem.Snapshot{Items: make([]workitem.Item, 0, len(src.Items))}
	for _, in := range src.Items {
		item, err := in.toItem()
		if err != nil {
			return workitem.Snapshot{}, err
		}
		snap.Items = append(snap.Items, item)
	}
	return snap, snap.Validate()
}

func (s *Server) dataFile(rel string) (string, error) {
	if filepath.IsAbs(rel) {
		return "", stats.Invalid("path %q must be relative to DATA_PATH", rel)
	}
	path := filepath.Join(s.cfg.DataPath, rel)
	back, err := filepath.Rel(s.cfg.DataPath, path)
	if err != nil || back == ".." || strings.HasPrefix(back, ".."+string(filepath.Separator)) {
		return "", stats.Invalid("path %q escapes DATA_PATH", rel)
	}
	return path, nil
}
