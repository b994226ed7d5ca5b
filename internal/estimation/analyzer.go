package estimation

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"mcs-forecast/internal/stats"
	"mcs-forecast/internal/workitem"
)

// MinSampleSize is the number of sized, completed items needed for a profile.
const MinSampleSize = 3

// BiasLevel classifies how cycle time scales with declared size.
type BiasLevel string

const (
	SevereOverestimation    BiasLevel = "severe_overestimation"
	ModerateOverestimation  BiasLevel = "moderate_overestimation"
	WellCalibrated          BiasLevel = "well_calibrated"
	ModerateUnderestimation BiasLevel = "moderate_underestimation"
	SevereUnderestimation   BiasLevel = "severe_underestimation"
)

// Profile is the calibration of declared sizes against observed cycle time.
// Insufficient is set, with SampleSize, when fewer than MinSampleSize items qualify.
type Profile struct {
	Insufficient        bool             `json:"insufficient"`
	SampleSize          int              `json:"sample_size"`
	Groups              []SizeGroup      `json:"groups,omitempty"`
	OverallDaysPerPoint float64          `json:"overall_days_per_point,omitempty"`
	Bias                Bias             `json:"bias"`
	Recommendations     []Recommendation `json:"recommendations,omitempty"`
}

// SizeGroup summarizes the completed items sharing one declared size.
type SizeGroup struct {
	Size             float64 `json:"size"`
	Count            int     `json:"count"`
	MeanCycleDays    float64 `json:"mean_cycle_days"`
	MinCycleDays     float64 `json:"min_cycle_days"`
	MaxCycleDays     float64 `json:"max_cycle_days"`
	MeanDaysPerPoint float64 `json:"mean_days_per_point"`
	Variability      int     `json:"variability"` // coefficient of variation of cycle time, percent
}

// Bias is the size-linearity verdict. Linearity 1.0 means cycle time grows exactly in
// proportion to size. Pairs counts the adjacent size pairs that could be compared.
type Bias struct {
	Level     BiasLevel `json:"level,omitempty"`
	Score     int       `json:"score"`
	Linearity float64   `json:"linearity"`
	Pairs     int       `json:"pairs"`
}

// Analyze builds an estimation profile from completed items. Items that are not done,
// unsized, zero-sized or missing a timestamp are ignored.
func Analyze(items []workitem.Item) Profile {
	type sample struct {
		size         float64
		cycleDays    float64
		daysPerPoint float64
	}

	var samples []sample
	for _, it := range items {
		if !it.IsDone() || it.SizeValue() <= 0 {
			continue
		}
		days, ok := it.CycleDays()
		if !ok {
			continue
		}
		samples = append(samples, sample{size: it.SizeValue(), cycleDays: days, daysPerPoint: days / it.SizeValue()})
	}

	if len(samples) < MinSampleSize {
		return Profile{Insufficient: true, SampleSize: len(samples)}
	}

	bySize := make(map[float64][]sample)
	var sizes []float64
	allDaysPerPoint := make([]float64, 0, len(samples))
	for _, s := range samples {
		if _, ok := bySize[s.size]; !ok {
			sizes = append(sizes, s.size)
		}
		bySize[s.size] = append(bySize[s.size], s)
		allDaysPerPoint = append(allDaysPerPoint, s.daysPerPoint)
	}
	slices.Sort(sizes)

	groups := make([]SizeGroup, 0, len(sizes))
	for _, size := range sizes {
		members := bySize[size]
		cycles := make([]float64, len(members))
		perPoint := make([]float64, len(members))
		for i, m := range members {
			cycles[i] = m.cycleDays
			perPoint[i] = m.daysPerPoint
		}
		lo, hi := stats.MinMax(cycles)
		groups = append(groups, SizeGroup{
			Size:             size,
			Count:            len(members),
			MeanCycleDays:    stats.Mean(cycles),
			MinCycleDays:     lo,
			MaxCycleDays:     hi,
			MeanDaysPerPoint: stats.Mean(perPoint),
			Variability:      int(math.Round(stats.CoefficientOfVariation(cycles))),
		})
	}

	profile := Profile{
		SampleSize:          len(samples),
		Groups:              groups,
		OverallDaysPerPoint: stats.Mean(allDaysPerPoint),
		Bias:                detectBias(groups),
	}
	profile.Recommendations = recommend(profile)
	return profile
}

// detectBias compares size ratios with cycle-time ratios across adjacent size groups.
func detectBias(groups []SizeGroup) Bias {
	total := 0.0
	pairs := 0
	for i := 1; i < len(groups); i++ {
		lower, higher := groups[i-1], groups[i]
		if lower.MeanCycleDays <= 0 {
			continue
		}
		expected := higher.Size / lower.Size
		actual := higher.MeanCycleDays / lower.MeanCycleDays
		total += actual / expected
		pairs++
	}

	linearity := 1.0
	if pairs > 0 {
		linearity = total / float64(pairs)
	}

	return Bias{
		Level:     classify(linearity),
		Score:     int(math.Round(linearity * 100)),
		Linearity: linearity,
		Pairs:     pairs,
	}
}

func classify(linearity float64) BiasLevel {
	switch {
	case linearity < 0.5:
		return SevereOverestimation
	case linearity < 0.8:
		return ModerateOverestimation
	case linearity <= 1.2:
		return WellCalibrated
	case linearity <= 1.5:
		return ModerateUnderestimation
	default:
		return SevereUnderestimation
	}
}

// IsOverestimation reports whether larger sizes finish faster than their size implies.
func (l BiasLevel) IsOverestimation() bool {
	return l == SevereOverestimation || l == ModerateOverestimation
}

// IsUnderestimation reports whether larger sizes take longer than their size implies.
func (l BiasLevel) IsUnderestimation() bool {
	return l == SevereUnderestimation || l == ModerateUnderestimation
}

func formatSize(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}
