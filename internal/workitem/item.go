package workitem

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// State is the lifecycle state of a work item.
type State string

const (
	ToDo       State = "ToDo"
	InProgress State = "InProgress"
	Done       State = "Done"
)

// ParseState accepts exactly one spelling per state.
func ParseState(s string) (State, error) {
	switch State(s) {
	case ToDo, InProgress, Done:
		return State(s), nil
	default:
		return "", fmt.Errorf("unknown state %q (want ToDo, InProgress or Done)", s)
	}
}

func (s *State) UnmarshalText(text []byte) error {
	parsed, err := ParseState(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s *State) UnmarshalYAML(value *yaml.Node) error {
	return s.UnmarshalText([]byte(value.Value))
}

// Item is a read-only snapshot of one tracker work item.
type Item struct {
	ID        string     `json:"id" yaml:"id"`
	Size      *float64   `json:"size,omitempty" yaml:"size,omitempty"` // nil means unestimated
	State     State      `json:"state" yaml:"state"`
	Created   time.Time  `json:"created" yaml:"created"`
	Completed *time.Time `json:"completed,omitempty" yaml:"completed,omitempty"`
}

// IsDone reports whether the item is finished and carries a completion timestamp.
func (i Item) IsDone() bool {
	return i.State == Done && i.Completed != nil && !i.Completed.IsZero()
}

// HasSize reports whether the item carries a declared size.
func (i Item) HasSize() bool {
	return i.Size != nil
}

// SizeValue returns the declared size, or 0 when unestimated.
func (i Item) SizeValue() float64 {
	if i.Size == nil {
		return 0
	}
	return *i.Size
}

// CycleDays returns completion minus creation in fractional days.
// ok is false when either timestamp is missing.
func (i Item) CycleDays() (float64, bool) {
	if i.Completed == nil || i.Completed.IsZero() || i.Created.IsZero() {
		return 0, false
	}
	return i.Completed.Sub(i.Created).Hours() / 24.0, true
}

// Points is a convenience for building sized items in code and tests.
func Points(v float64) *float64 {
	return &v
}
