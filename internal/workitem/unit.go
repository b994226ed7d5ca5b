package workitem

import "fmt"

// Unit selects what a throughput value measures.
type Unit string

const (
	UnitAuto   Unit = "auto"
	UnitPoints Unit = "points"
	UnitItems  Unit = "items"
)

// ParseUnit maps "" to UnitAuto and rejects anything else unknown.
func ParseUnit(s string) (Unit, error) {
	switch Unit(s) {
	case "", UnitAuto:
		return UnitAuto, nil
	case UnitPoints, UnitItems:
		return Unit(s), nil
	default:
		return "", fmt.Errorf("unknown unit %q (want auto, points or items)", s)
	}
}

// ResolveUnit picks points when any unfinished item carries a size, items otherwise.
func ResolveUnit(items []Item, requested Unit) Unit {
	if requested == UnitPoints || requested == UnitItems {
		return requested
	}
	for _, it := range items {
		if it.State != Done && it.HasSize() {
			return UnitPoints
		}
	}
	return UnitItems
}

// RemainingWork sums unfinished sizes (points) or counts unfinished items (items).
// Unestimated items contribute nothing in points mode.
func RemainingWork(items []Item, unit Unit) float64 {
	total := 0.0
	for _, it := range items {
		if it.State == Done {
			continue
		}
		if unit == UnitPoints {
			total += it.SizeValue()
		} else {
			total++
		}
	}
	return total
}
