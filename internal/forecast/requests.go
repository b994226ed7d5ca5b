package forecast

import (
	"time"

	"mcs-forecast/internal/estimation"
	"mcs-forecast/internal/throughput"
	"mcs-forecast/internal/workitem"
)

// AggregateRequest asks for the weekly throughput of a set of items.
type AggregateRequest struct {
	Items         []workitem.Item `json:"items"`
	Now           time.Time       `json:"now,omitzero"`             // default: time of call
	LookbackWeeks int             `json:"lookback_weeks,omitempty"` // default: Defaults.LookbackWeeks
}

// ForecastRequest asks for a Monte-Carlo completion forecast.
type ForecastRequest struct {
	RemainingWork     float64   `json:"remaining_work"`
	ThroughputSamples []float64 `json:"throughput_samples"`
	Seed              string    `json:"seed,omitempty"` // default: fingerprint of the samples
	SampleCount       int       `json:"sample_count,omitempty"`
	WeekCap           int       `json:"week_cap,omitempty"`
}

// EstimationRequest asks for an estimation accuracy profile.
type EstimationRequest struct {
	CompletedItems []workitem.Item `json:"completed_items"`
}

// ConfidenceRequest asks for a confidence assessment. A nil profile scores as
// insufficient estimation data.
type ConfidenceRequest struct {
	WeeklySamples     []throughput.WeeklySample `json:"weekly_samples"`
	EstimationProfile *estimation.Profile       `json:"estimation_profile,omitempty"`
	Unit              workitem.Unit             `json:"unit,omitempty"` // auto: points when any week carries points
}

// PipelineRequest runs aggregation, simulation, estimation and scoring over one snapshot.
type PipelineRequest struct {
	Snapshot      workitem.Snapshot `json:"snapshot"`
	Now           time.Time         `json:"now,omitzero"`
	LookbackWeeks int               `json:"lookback_weeks,omitempty"`
	SampleCount   int               `json:"sample_count,omitempty"`
	WeekCap       int               `json:"week_cap,omitempty"`
	Seed          string            `json:"seed,omitempty"` // default: snapshot fingerprint
	Unit          workitem.Unit     `json:"unit,omitempty"`
}
