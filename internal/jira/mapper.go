package jira

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"

	"mcs-forecast/internal/stats"
	"mcs-forecast/internal/workitem"
)

// DefaultStoryPointsField is the story points field on most Jira Cloud instances.
const DefaultStoryPointsField = "customfield_10016"

// Options controls how a search export is mapped.
type Options struct {
	StoryPointsField string // default DefaultStoryPointsField
	IncludeSubtasks  bool
	SnapshotID       string
}

// MapIssue transforms a Jira DTO into a work item. Done issues without a resolution date
// fall back to their last update.
func MapIssue(item IssueDTO, opts Options) (workitem.Item, error) {
	field := opts.StoryPointsField
	if field == "" {
		field = DefaultStoryPointsField
	}

	state, err := mapCategory(item.Fields.Status.StatusCategory.Key)
	if err != nil {
		return workitem.Item{}, stats.Invalid("issue %s: %v", item.Key, err)
	}

	out := workitem.Item{ID: item.Key, State: state}

	created, err := ParseTime(item.Fields.Created)
	if err != nil {
		return workitem.Item{}, stats.Invalid("issue %s: created %q: %v", item.Key, item.Fields.Created, err)
	}
	out.Created = created

	if state == workitem.Done {
		resolved := item.Fields.ResolutionDate
		if resolved == "" {
			resolved = item.Fields.Updated
		}
		t, err := ParseTime(resolved)
		if err != nil {
			return workitem.Item{}, stats.Invalid("issue %s: resolution date %q: %v", item.Key, resolved, err)
		}
		out.Completed = &t
	}

	size, err := storyPoints(item.Fields.Custom[field])
	if err != nil {
		return workitem.Item{}, stats.Invalid("issue %s: %s: %v", item.Key, field, err)
	}
	out.Size = size
	return out, nil
}

func mapCategory(key string) (workitem.State, error) {
	switch key {
	case "new":
		return workitem.ToDo, nil
	case "indeterminate":
		return workitem.InProgress, nil
	case "done":
		return workitem.Done, nil
	default:
		return "", fmt.Errorf("unknown status category %q", key)
	}
}

// storyPoints accepts a JSON number, a numeric string or null.
func storyPoints(raw json.RawMessage) (*float64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err == nil {
		return &v, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("not a number: %s", raw)
	}
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("not a number: %q", s)
	}
	return &v, nil
}

// DecodeSearchExport maps a saved Jira search response into a validated snapshot.
func DecodeSearchExport(r io.Reader, opts Options) (workitem.Snapshot, error) {
	var resp SearchResponse
	if err := json.NewDecoder(r).Decode(&resp); err != nil {
		return workitem.Snapshot{}, fmt.Errorf("%w: decode jira search export: %v", stats.ErrInvalidInput, err)
	}

	snap := workitem.Snapshot{ID: opts.SnapshotID}
	skipped := 0
	for _, dto := range resp.Issues {
		if dto.Fields.IssueType.Subtask && !opts.IncludeSubtasks {
			skipped++
			continue
		}
		item, err := MapIssue(dto, opts)
		if err != nil {
			return workitem.Snapshot{}, err
		}
		snap.Items = append(snap.Items, item)
	}

	if resp.Total > len(resp.Issues) {
		log.Warn().Int("total", resp.Total).Int("exported", len(resp.Issues)).Msg("Jira export is a partial page; forecast covers only the exported issues")
	}
	log.Debug().Int("issues", len(snap.Items)).Int("subtasks_skipped", skipped).Msg("Mapped Jira search export")

	if err := snap.Validate(); err != nil {
		return workitem.Snapshot{}, err
	}
	return snap, nil
}

// LoadSearchExport reads a saved search response from disk.
func LoadSearchExport(path string, opts Options) (workitem.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return workitem.Snapshot{}, err
	}
	defer f.Close()
	return DecodeSearchExport(f, opts)
}
