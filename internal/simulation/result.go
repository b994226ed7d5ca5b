package simulation

// Result is the immutable outcome of one simulation run.
type Result struct {
	P50 int `json:"p50"`
	P80 int `json:"p80"`
	P95 int `json:"p95"`

	Mean float64 `json:"mean"`
	Min  int     `json:"min"`
	Max  int     `json:"max"`

	Histogram  []Bucket          `json:"histogram"`
	Burndown   Burndown          `json:"burndown"`
	Throughput ThroughputSummary `json:"throughput"`

	RemainingWork   float64  `json:"remaining_work"`
	SampleCount     int      `json:"sample_count"`
	WeekCap         int      `json:"week_cap"`
	SaturatedTrials int      `json:"saturated_trials"`
	Seed            string   `json:"seed"`
	Warnings        []string `json:"warnings,omitempty"`
}

// Bucket groups trials that finished after the same number of weeks.
type Bucket struct {
	Week        int     `json:"week"`
	Count       int     `json:"count"`
	Probability float64 `json:"probability"`
}

// Burndown holds the deterministic projections drawn for the P50 and P80 horizons.
type Burndown struct {
	P50Rate float64         `json:"p50_rate"`
	P80Rate float64         `json:"p80_rate"`
	P50     []BurndownPoint `json:"p50"`
	P80     []BurndownPoint `json:"p80"`
}

// BurndownPoint is the projected remaining work at the end of a week.
type BurndownPoint struct {
	Week      int     `json:"week"`
	Remaining float64 `json:"remaining"`
}

// ThroughputSummary describes the resampling population.
type ThroughputSummary struct {
	Weeks  int     `json:"weeks"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	P20    float64 `json:"p20"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}
