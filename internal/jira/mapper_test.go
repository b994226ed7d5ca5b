package jira

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mcs-forecast/internal/stats"
	"mcs-forecast/internal/workitem"
)

func TestLoadSearchExport(t *testing.T) {
	snap, err := LoadSearchExport(filepath.Join("testdata", "search_export.json"), Options{SnapshotID: "export-1"})
	if err != nil {
		t.Fatalf("LoadSearchExport() error = %v", err)
	}
	if snap.ID != "export-1" {
		t.Errorf("ID = %q", snap.ID)
	}
	if len(snap.Items) != 4 {
		t.Fatalf("expected 4 items (sub-task skipped), got %d", len(snap.Items))
	}

	byID := make(map[string]workitem.Item)
	for _, it := range snap.Items {
		byID[it.ID] = it
	}

	tests := []struct {
		id    string
		state workitem.State
		size  float64
		sized bool
	}{
		{"PROJ-1", workitem.Done, 3, true},
		{"PROJ-2", workitem.InProgress, 5, true},
		{"PROJ-3", workitem.ToDo, 0, false},
		{"PROJ-4", workitem.Done, 2, true},
	}
	for _, tt := range tests {
		it, ok := byID[tt.id]
		if !ok {
			t.Fatalf("missing %s", tt.id)
		}
		if it.State != tt.state || it.HasSize() != tt.sized || it.SizeValue() != tt.size {
			t.Errorf("%s = %+v, want state %s size %v", tt.id, it, tt.state, tt.size)
		}
	}

	wantDone := time.Date(2024, 6, 5, 17, 0, 0, 0, time.UTC)
	if c := byID["PROJ-1"].Completed; c == nil || !c.Equal(wantDone) {
		t.Errorf("PROJ-1 completed = %v, want %v", c, wantDone)
	}
	// No resolution date: falls back to the last update.
	wantFallback := time.Date(2024, 6, 7, 12, 0, 0, 0, time.UTC)
	if c := byID["PROJ-4"].Completed; c == nil || !c.Equal(wantFallback) {
		t.Errorf("PROJ-4 completed = %v, want %v", c, wantFallback)
	}
	if byID["PROJ-2"].Completed != nil {
		t.Errorf("unfinished issues must not carry a completion time")
	}
	wantCreated := time.Date(2024, 6, 4, 8, 30, 0, 0, time.UTC)
	if !byID["PROJ-2"].Created.Equal(wantCreated) {
		t.Errorf("PROJ-2 created = %v, want %v", byID["PROJ-2"].Created, wantCreated)
	}
}

func TestLoadSearchExport_Options(t *testing.T) {
	path := filepath.Join("testdata", "search_export.json")

	snap, err := LoadSearchExport(path, Options{IncludeSubtasks: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Items) != 5 {
		t.Errorf("IncludeSubtasks: got %d items, want 5", len(snap.Items))
	}

	snap, err = LoadSearchExport(path, Options{StoryPointsField: "customfield_10028"})
	if err != nil {
		t.Fatal(err)
	}
	for _, it := range snap.Items {
		want := 0.0
		if it.ID == "PROJ-4" {
			want = 8
		}
		if it.SizeValue() != want {
			t.Errorf("%s size = %v, want %v", it.ID, it.SizeValue(), want)
		}
	}
}

func TestDecodeSearchExport_Rejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"Malformed JSON", `{"issues": [`},
		{"Unknown category", `{"issues": [{"key": "A-1", "fields": {"status": {"statusCategory": {"key": "limbo"}}, "created": "2024-06-01T09:00:00.000+0000"}}]}`},
		{"Bad created", `{"issues": [{"key": "A-1", "fields": {"status": {"statusCategory": {"key": "new"}}, "created": "yesterday"}}]}`},
		{"Bad points", `{"issues": [{"key": "A-1", "fields": {"status": {"statusCategory": {"key": "new"}}, "created": "2024-06-01T09:00:00.000+0000", "customfield_10016": "lots"}}]}`},
		{"Negative points", `{"issues": [{"key": "A-1", "fields": {"status": {"statusCategory": {"key": "new"}}, "created": "2024-06-01T09:00:00.000+0000", "customfield_10016": -2}}]}`},
		{"Resolved before created", `{"issues": [{"key": "A-1", "fields": {"status": {"statusCategory": {"key": "done"}}, "created": "2024-06-05T09:00:00.000+0000", "resolutiondate": "2024-06-01T09:00:00.000+0000"}}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeSearchExport(strings.NewReader(tt.body), Options{})
			if !errors.Is(err, stats.ErrInvalidInput) {
				t.Errorf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2024-06-05T17:00:00.000+0000", time.Date(2024, 6, 5, 17, 0, 0, 0, time.UTC), true},
		{"2024-06-05T19:00:00.000+0200", time.Date(2024, 6, 5, 17, 0, 0, 0, time.UTC), true},
		{"2024-06-05T17:00:00Z", time.Date(2024, 6, 5, 17, 0, 0, 0, time.UTC), true},
		{"05/06/2024", time.Time{}, false},
	}
	for _, tt := range tests {
		got, err := ParseTime(tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("ParseTime(%q) error = %v", tt.in, err)
			continue
		}
		if tt.ok && !got.Equal(tt.want) {
			t.Errorf("ParseTime(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
