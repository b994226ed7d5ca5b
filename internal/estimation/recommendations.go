package estimation

import "fmt"

// RecommendationType identifies which rule produced a recommendation.
type RecommendationType string

const (
	TypeVariability RecommendationType = "variability"
	TypeCalibration RecommendationType = "calibration"
	TypeSlowSize    RecommendationType = "slow_size"
	TypeCalibrated  RecommendationType = "calibrated"
)

// IsBiasType reports whether the recommendation is about size-to-effort bias.
func (t RecommendationType) IsBiasType() bool {
	return t == TypeCalibration || t == TypeSlowSize
}

// Priority orders recommendations for display.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityInfo   Priority = "info"
)

// Recommendation is one sizing action derived from the profile.
type Recommendation struct {
	Type          RecommendationType `json:"type"`
	Priority      Priority           `json:"priority"`
	Title         string             `json:"title"`
	Detail        string             `json:"detail"`
	Multiplier    *float64           `json:"multiplier,omitempty"`
	AffectedSizes []float64          `json:"affected_sizes,omitempty"`
}

const (
	highVariabilityPercent = 50
	highVariabilityMinimum = 3
	slowSizeFactor         = 1.5
)

func recommend(p Profile) []Recommendation {
	var recs []Recommendation

	for _, g := range p.Groups {
		if g.Variability > highVariabilityPercent && g.Count >= highVariabilityMinimum {
			recs = append(recs, Recommendation{
				Type:     TypeVariability,
				Priority: PriorityHigh,
				Title:    fmt.Sprintf("High variability for %s-point items", formatSize(g.Size)),
				Detail: fmt.Sprintf("Cycle time for %s-point items varies by %d%% (%.1f to %.1f days across %d items). Consider breaking these items down or refining acceptance criteria before sizing.",
					formatSize(g.Size), g.Variability, g.MinCycleDays, g.MaxCycleDays, g.Count),
				AffectedSizes: []float64{g.Size},
			})
		}
	}

	if p.Bias.Level.IsUnderestimation() || p.Bias.Level.IsOverestimation() {
		multiplier := float64(p.Bias.Score) / 100
		direction := "take longer than"
		if p.Bias.Level.IsOverestimation() {
			direction = "finish faster than"
		}
		recs = append(recs, Recommendation{
			Type:     TypeCalibration,
			Priority: PriorityHigh,
			Title:    "Recalibrate larger estimates",
			Detail: fmt.Sprintf("Larger items %s their size implies (linearity score %d). Scaling larger estimates by about %.2fx relative to the next smaller size would bring sizes in line with observed effort.",
				direction, p.Bias.Score, multiplier),
			Multiplier: &multiplier,
		})
	}

	if p.OverallDaysPerPoint > 0 {
		for _, g := range p.Groups {
			if g.MeanDaysPerPoint > slowSizeFactor*p.OverallDaysPerPoint {
				recs = append(recs, Recommendation{
					Type:     TypeSlowSize,
					Priority: PriorityMedium,
					Title:    fmt.Sprintf("%s-point items are disproportionately slow", formatSize(g.Size)),
					Detail: fmt.Sprintf("%s-point items average %.2f days per point against %.2f overall. Check for hidden complexity or waiting time at this size.",
						formatSize(g.Size), g.MeanDaysPerPoint, p.OverallDaysPerPoint),
					AffectedSizes: []float64{g.Size},
				})
			}
		}
	}

	if len(recs) == 0 && p.Bias.Level == WellCalibrated {
		detail := fmt.Sprintf("Cycle time scales in proportion to declared size (linearity score %d). Keep the current sizing practice.", p.Bias.Score)
		if p.Bias.Pairs == 0 {
			detail = "Only one size value has been observed, so proportionality cannot be checked yet. Cycle time within that size is consistent."
		}
		recs = append(recs, Recommendation{
			Type:     TypeCalibrated,
			Priority: PriorityInfo,
			Title:    "Estimates are well calibrated",
			Detail:   detail,
		})
	}

	return recs
}
