package stats

import (
	"fmt"
	"time"
)

// DefaultLookbackWeeks is the throughput history used when a caller does not choose one.
const DefaultLookbackWeeks = 12

// SnapToWeekStart normalizes a timestamp to 00:00 on the Monday of its calendar week.
// Sunday belongs to the week that started six days earlier.
func SnapToWeekStart(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday -> 7
	}
	daysToSubtract := weekday - 1
	return time.Date(t.Year(), t.Month(), t.Day()-daysToSubtract, 0, 0, 0, 0, t.Location())
}

// LookbackWindow is the closed interval [Start, End] of completions that count as history.
type LookbackWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Weeks int       `json:"weeks"`
}

// NewLookbackWindow returns the window ending at now and reaching weeks*7 days back.
func NewLookbackWindow(now time.Time, weeks int) LookbackWindow {
	if weeks <= 0 {
		weeks = DefaultLookbackWeeks
	}
	return LookbackWindow{
		Start: now.AddDate(0, 0, -weeks*7),
		End:   now,
		Weeks: weeks,
	}
}

// Contains reports whether t falls inside the window, both ends inclusive.
func (w LookbackWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// WeekLabel returns an ISO week label such as "2024-W07".
func WeekLabel(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}
