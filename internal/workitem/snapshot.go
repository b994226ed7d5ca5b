package workitem

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/cespare/xxhash/v2"

	"mcs-forecast/internal/stats"
)

// Snapshot is the immutable set of items one computation runs against.
type Snapshot struct {
	ID    string `json:"id,omitempty" yaml:"id,omitempty"`
	Items []Item `json:"items" yaml:"items"`
}

// Validate rejects malformed items before any computation starts.
func (s Snapshot) Validate() error {
	seen := make(map[string]bool, len(s.Items))
	for idx, it := range s.Items {
		if it.ID == "" {
			return stats.Invalid("item #%d has no id", idx)
		}
		if seen[it.ID] {
			return stats.Invalid("duplicate item id %q", it.ID)
		}
		seen[it.ID] = true

		if _, err := ParseState(string(it.State)); err != nil {
			return stats.Invalid("item %q: %v", it.ID, err)
		}
		if it.Size != nil && (*it.Size < 0 || math.IsNaN(*it.Size) || math.IsInf(*it.Size, 0)) {
			return stats.Invalid("item %q: size must be a finite non-negative number", it.ID)
		}
		if it.Completed != nil && !it.Created.IsZero() && it.Completed.Before(it.Created) {
			return stats.Invalid("item %q: completed %s before created %s", it.ID,
				it.Completed.Format("2006-01-02T15:04:05Z07:00"), it.Created.Format("2006-01-02T15:04:05Z07:00"))
		}
	}
	return nil
}

// Fingerprint is a stable identifier for the snapshot, used to derive the simulation seed.
// An explicit ID wins; otherwise the items are hashed in ID order.
func (s Snapshot) Fingerprint() string {
	if s.ID != "" {
		return s.ID
	}

	items := slices.Clone(s.Items)
	slices.SortFunc(items, func(a, b Item) int { return strings.Compare(a.ID, b.ID) })

	h := xxhash.New()
	for _, it := range items {
		size := "-"
		if it.Size != nil {
			size = fmt.Sprintf("%g", *it.Size)
		}
		completed := "-"
		if it.Completed != nil {
			completed = fmt.Sprintf("%d", it.Completed.UnixNano())
		}
		fmt.Fprintf(h, "%s|%s|%s|%d|%s\n", it.ID, size, it.State, it.Created.UnixNano(), completed)
	}
	return fmt.Sprintf("%016x", h.Sum64())
}

// Completed returns the finished items.
func (s Snapshot) Completed() []Item {
	var out []Item
	for _, it := range s.Items {
		if it.IsDone() {
			out = append(out, it)
		}
	}
	return out
}
