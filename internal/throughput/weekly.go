package throughput

import (
	"slices"
	"time"

	"mcs-forecast/internal/stats"
	"mcs-forecast/internal/workitem"
)

// WeeklySample is one calendar week of completed work.
type WeeklySample struct {
	WeekStart time.Time `json:"week_start"`
	Count     int       `json:"count"`
	Points    float64   `json:"points"`
}

// Value returns the sample measured in the given unit.
func (s WeeklySample) Value(unit workitem.Unit) float64 {
	if unit == workitem.UnitPoints {
		return s.Points
	}
	return float64(s.Count)
}

// Options tunes aggregation. Zero values select the defaults.
type Options struct {
	LookbackWeeks int            // default stats.DefaultLookbackWeeks
	Location      *time.Location // week boundaries are computed here; default UTC
}

// AggregateWeekly groups completed items into Monday-start weeks inside the lookback window.
// Weeks without completions are omitted, never zero-filled. Empty input yields nil.
func AggregateWeekly(items []workitem.Item, now time.Time, opts Options) []WeeklySample {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	window := stats.NewLookbackWindow(now, opts.LookbackWeeks)

	weeks := make(map[time.Time]*WeeklySample)
	for _, it := range items {
		if !it.IsDone() || !window.Contains(*it.Completed) {
			continue
		}
		week := stats.SnapToWeekStart(it.Completed.In(loc))
		s, ok := weeks[week]
		if !ok {
			s = &WeeklySample{WeekStart: week}
			weeks[week] = s
		}
		s.Count++
		s.Points += it.SizeValue()
	}

	if len(weeks) == 0 {
		return nil
	}

	results := make([]WeeklySample, 0, len(weeks))
	for _, s := range weeks {
		results = append(results, *s)
	}
	slices.SortFunc(results, func(a, b WeeklySample) int {
		return a.WeekStart.Compare(b.WeekStart)
	})
	return results
}

// Series projects samples onto plain values in the given unit, preserving week order.
func Series(samples []WeeklySample, unit workitem.Unit) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s.Value(unit)
	}
	return out
}

// ResolveUnit settles the unit for a backlog and its weekly history. Auto picks points
// only when the backlog is sized and the history has points to resample; a history of
// unsized completions falls back to items. An explicit request is kept.
func ResolveUnit(items []workitem.Item, weeks []WeeklySample, requested workitem.Unit) workitem.Unit {
	unit := workitem.ResolveUnit(items, requested)
	if unit == workitem.UnitPoints && requested != workitem.UnitPoints && len(weeks) > 0 && TotalPoints(weeks) == 0 {
		return workitem.UnitItems
	}
	return unit
}

// TotalPoints sums the points of all samples.
func TotalPoints(weeks []WeeklySample) float64 {
	total := 0.0
	for _, w := range weeks {
		total += w.Points
	}
	return total
}

// InWindow filters items to those completed inside the lookback window.
// It is the shared item set for the simulator and the estimation analyzer.
func InWindow(items []workitem.Item, now time.Time, weeks int) []workitem.Item {
	window := stats.NewLookbackWindow(now, weeks)
	var out []workitem.Item
	for _, it := range items {
		if it.IsDone() && window.Contains(*it.Completed) {
			out = append(out, it)
		}
	}
	return out
}
