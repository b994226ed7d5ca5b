package forecast

import (
	"time"

	"mcs-forecast/internal/confidence"
	"mcs-forecast/internal/estimation"
	"mcs-forecast/internal/simulation"
	"mcs-forecast/internal/throughput"
	"mcs-forecast/internal/workitem"
)

// Status tells a caller whether a report section could be computed.
type Status string

const (
	StatusOK           Status = "ok"
	StatusInsufficient Status = "insufficient_data"
)

// Report is the combined result of one pipeline run.
type Report struct {
	RunID         string                `json:"run_id"`
	SnapshotID    string                `json:"snapshot_id"`
	AsOf          time.Time             `json:"as_of"`
	LookbackWeeks int                   `json:"lookback_weeks"`
	Unit          workitem.Unit         `json:"unit"`
	RemainingWork float64               `json:"remaining_work"`
	Throughput    ThroughputSection     `json:"throughput"`
	Forecast      ForecastSection       `json:"forecast"`
	Estimation    EstimationSection     `json:"estimation"`
	Confidence    confidence.Assessment `json:"confidence"`
}

type ThroughputSection struct {
	Status  Status                    `json:"status"`
	Weeks   []throughput.WeeklySample `json:"weeks"`
	Message string                    `json:"message,omitempty"`
}

type ForecastSection struct {
	Status  Status             `json:"status"`
	Result  *simulation.Result `json:"result,omitempty"`
	Message string             `json:"message,omitempty"`
}

type EstimationSection struct {
	Status  Status             `json:"status"`
	Profile estimation.Profile `json:"profile"`
	Message string             `json:"message,omitempty"`
}
