package confidence

import (
	"fmt"
	"math"

	"mcs-forecast/internal/estimation"
	"mcs-forecast/internal/stats"
)

// MinVelocitySamples is the number of weekly samples needed to judge stability.
const MinVelocitySamples = 3

const (
	minScore       = 20
	maxScore       = 95
	trendPenalty   = 15
	variabilityHit = 20
	biasHit        = 25
	biasFloor      = 30
)

// Percentile names the forecast percentile recommended as a planning baseline.
type Percentile string

const (
	UseP50    Percentile = "P50"
	UseP80    Percentile = "P80"
	UseP95    Percentile = "P95"
	UseCustom Percentile = "CUSTOM"
)

// Assessment combines throughput stability and estimation calibration.
type Assessment struct {
	Velocity       VelocityScore   `json:"velocity"`
	Estimation     EstimationScore `json:"estimation"`
	Combined       int             `json:"combined"`
	Overall        int             `json:"overall"` // Combined clamped to [20, 95]
	Recommendation Recommendation  `json:"recommendation"`
}

// VelocityScore grades the week-to-week stability of throughput.
type VelocityScore struct {
	Score   int     `json:"score"`
	Level   string  `json:"level"`
	Message string  `json:"message"`
	Samples int     `json:"samples"`
	Mean    float64 `json:"mean"`
	StdDev  float64 `json:"std_dev"`
	CV      float64 `json:"cv"`
	Trend   string  `json:"trend,omitempty"`
}

// EstimationScore grades how well declared sizes predict effort.
type EstimationScore struct {
	Score     int    `json:"score"`
	Level     string `json:"level"`
	Message   string `json:"message"`
	BiasScore int    `json:"bias_score,omitempty"`
}

// Recommendation names the percentile to plan against.
type Recommendation struct {
	Percentile Percentile `json:"percentile"`
	Rationale  string     `json:"rationale"`
}

// Assess scores a weekly throughput series and an estimation profile.
func Assess(series []float64, profile estimation.Profile) Assessment {
	velocity := ScoreVelocity(series)
	est := ScoreEstimation(profile)

	combined := int(math.Round(float64(velocity.Score+est.Score) / 2))
	return Assessment{
		Velocity:       velocity,
		Estimation:     est,
		Combined:       combined,
		Overall:        clamp(combined, minScore, maxScore),
		Recommendation: recommendPercentile(combined),
	}
}

// ScoreVelocity maps the coefficient of variation of weekly throughput to a score and
// penalizes a declining second half.
func ScoreVelocity(series []float64) VelocityScore {
	if len(series) < MinVelocitySamples {
		return VelocityScore{
			Score:   0,
			Level:   "insufficient_data",
			Samples: len(series),
			Message: fmt.Sprintf("Only %d week(s) of throughput history; at least %d are needed to judge stability.", len(series), MinVelocitySamples),
		}
	}

	mean := stats.Mean(series)
	std := stats.PopulationStdDev(series)
	v := VelocityScore{Samples: len(series), Mean: mean, StdDev: std}

	if mean == 0 {
		v.Score, v.Level = 20, "highly_volatile"
		v.Message = "No throughput recorded in the selected unit; velocity cannot support a forecast."
		v.Trend = "stable"
		return v
	}

	v.CV = std / mean * 100
	switch {
	case v.CV < 15:
		v.Score, v.Level = 95, "very_stable"
	case v.CV < 25:
		v.Score, v.Level = 80, "stable"
	case v.CV < 40:
		v.Score, v.Level = 60, "moderate"
	case v.CV < 60:
		v.Score, v.Level = 40, "volatile"
	default:
		v.Score, v.Level = 20, "highly_volatile"
	}

	half := len(series) / 2
	first := stats.Mean(series[:half])
	second := stats.Mean(series[half:])
	switch {
	case second < first:
		v.Trend = "declining"
		v.Score = max(v.Score-trendPenalty, minScore)
	case second > first:
		v.Trend = "improving"
	default:
		v.Trend = "stable"
	}

	v.Message = fmt.Sprintf("Weekly throughput varies by %.0f%% around a mean of %.1f (%s); recent trend is %s.",
		v.CV, mean, v.Level, v.Trend)
	return v
}

// ScoreEstimation maps the bias score to a band and applies recommendation penalties.
// An insufficient profile scores a neutral 50.
func ScoreEstimation(profile estimation.Profile) EstimationScore {
	if profile.Insufficient {
		return EstimationScore{
			Score:   50,
			Level:   "unknown",
			Message: fmt.Sprintf("Only %d sized, completed item(s); at least %d are needed to check estimation accuracy. Using a neutral score.", profile.SampleSize, estimation.MinSampleSize),
		}
	}

	bias := profile.Bias.Score
	e := EstimationScore{BiasScore: bias}
	switch {
	case bias >= 95 && bias <= 105:
		e.Score, e.Level = 90, "well_calibrated"
	case bias >= 85 && bias <= 115:
		e.Score, e.Level = 75, "acceptable"
	case bias >= 70 && bias <= 130:
		e.Score, e.Level = 55, "needs_adjustment"
	default:
		e.Score, e.Level = 35, "poorly_calibrated"
	}

	variability, biasRecs := 0, 0
	for _, r := range profile.Recommendations {
		if r.Type == estimation.TypeVariability {
			variability++
		}
		if r.Type.IsBiasType() {
			biasRecs++
		}
	}
	if variability > 2 {
		e.Score = max(e.Score-variabilityHit, minScore)
	}
	if biasRecs > 1 {
		e.Score = max(e.Score-biasHit, biasFloor)
	}

	e.Message = fmt.Sprintf("Size-to-effort linearity score %d (%s) from %d items; %d high-variability size group(s).",
		bias, e.Level, profile.SampleSize, variability)
	return e
}

func recommendPercentile(combined int) Recommendation {
	switch {
	case combined >= 80:
		return Recommendation{Percentile: UseP50, Rationale: "High confidence: throughput is stable and estimates are calibrated, so commit to the median."}
	case combined >= 60:
		return Recommendation{Percentile: UseP80, Rationale: "Moderate confidence: use the realistic P80 buffer for commitments."}
	case combined >= 40:
		return Recommendation{Percentile: UseP95, Rationale: "Lower confidence: use the conservative P95 bound for commitments."}
	default:
		return Recommendation{Percentile: UseCustom, Rationale: "Insufficient confidence: improve throughput history or estimation quality before committing to a date."}
	}
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
