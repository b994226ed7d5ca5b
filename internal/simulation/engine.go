package simulation

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"
	"slices"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"mcs-forecast/internal/stats"
)

const (
	DefaultSampleCount = 10000
	DefaultWeekCap     = 104
	DefaultBatchSize   = 1000
	MaxSampleCount     = 200000
	MaxWeekCap         = 520
)

// Params describes one run. Zero values are invalid here; use WithDefaults to fill
// omitted fields.
type Params struct {
	Remaining   float64
	SampleCount int
	WeekCap     int
	Seed        string
}

// WithDefaults fills zero SampleCount and WeekCap. Negative values are kept so that
// Run rejects them.
func (p Params) WithDefaults() Params {
	if p.SampleCount == 0 {
		p.SampleCount = DefaultSampleCount
	}
	if p.WeekCap == 0 {
		p.WeekCap = DefaultWeekCap
	}
	return p
}

// Progress is reported between batches.
type Progress struct {
	Completed int           `json:"completed"`
	Total     int           `json:"total"`
	Elapsed   time.Duration `json:"elapsed"`
}

// ProgressFunc receives batch progress. It runs on the caller's goroutine.
type ProgressFunc func(Progress)

// Option configures an Engine.
type Option func(*Engine)

// WithWorkers sets how many goroutines split a batch. Values < 1 mean runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(e *Engine) { e.workers = n }
}

// WithBatchSize sets how many trials run between progress reports and cancellation checks.
func WithBatchSize(n int) Option {
	return func(e *Engine) { e.batchSize = n }
}

// WithProgress installs a progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(e *Engine) { e.progress = fn }
}

// Engine performs bootstrap Monte-Carlo simulation over weekly throughput.
type Engine struct {
	samples   []float64
	workers   int
	batchSize int
	progress  ProgressFunc
}

// NewEngine creates an engine that resamples the given weekly throughput values.
// The slice is copied.
func NewEngine(samples []float64, opts ...Option) *Engine {
	e := &Engine{
		samples:   slices.Clone(samples),
		workers:   runtime.NumCPU(),
		batchSize: DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.workers < 1 {
		e.workers = runtime.NumCPU()
	}
	if e.batchSize < 1 {
		e.batchSize = DefaultBatchSize
	}
	return e
}

func (e *Engine) validate(p Params) error {
	if math.IsNaN(p.Remaining) || math.IsInf(p.Remaining, 0) || p.Remaining < 0 {
		return stats.Invalid("remaining work must be a finite non-negative number, got %v", p.Remaining)
	}
	if p.SampleCount <= 0 || p.SampleCount > MaxSampleCount {
		return stats.Invalid("sample count must be in [1, %d], got %d", MaxSampleCount, p.SampleCount)
	}
	if p.WeekCap <= 0 || p.WeekCap > MaxWeekCap {
		return stats.Invalid("week cap must be in [1, %d], got %d", MaxWeekCap, p.WeekCap)
	}
	for i, v := range e.samples {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return stats.Invalid("throughput sample #%d must be a finite non-negative number, got %v", i, v)
		}
	}
	return nil
}

// Run performs p.SampleCount independent trials and derives percentiles, histogram
// and burn-down projections. The result is a pure function of (samples, p).
func (e *Engine) Run(ctx context.Context, p Params) (Result, error) {
	if err := e.validate(p); err != nil {
		return Result{}, err
	}

	if p.Remaining == 0 {
		return e.trivialResult(p), nil
	}

	if len(e.samples) == 0 {
		return Result{}, &stats.InsufficientDataError{Component: "simulation", Have: 0, Need: 1}
	}

	started := time.Now()
	base := SeedFromString(p.Seed)
	durations := make([]int, p.SampleCount)
	saturated := make([]bool, p.SampleCount)

	for start := 0; start < p.SampleCount; start += e.batchSize {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		end := min(start+e.batchSize, p.SampleCount)
		e.runBatch(base, start, end, p, durations, saturated)

		if e.progress != nil {
			e.progress(Progress{Completed: end, Total: p.SampleCount, Elapsed: time.Since(started)})
		}
	}

	saturatedCount := 0
	for _, s := range saturated {
		if s {
			saturatedCount++
		}
	}

	slices.Sort(durations)
	res := e.summarize(durations, p)
	res.SaturatedTrials = saturatedCount
	if saturatedCount > 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf(
			"%d of %d trials reached the %d-week cap without finishing; the upper percentiles are a lower bound, not an exact value.",
			saturatedCount, p.SampleCount, p.WeekCap))
	}
	if res.Throughput.Max == 0 {
		res.Warnings = append(res.Warnings, "No historical throughput in the selected unit. The forecast is theoretically infinite based on current data.")
	}

	log.Debug().
		Str("seed", p.Seed).
		Int("trials", p.SampleCount).
		Int("workers", e.workers).
		Int("saturated", saturatedCount).
		Dur("elapsed", time.Since(started)).
		Msg("Monte-Carlo simulation finished")

	return res, nil
}

// runBatch fills durations[start:end], splitting the range across workers. Each worker
// writes a disjoint index range.
func (e *Engine) runBatch(base uint64, start, end int, p Params, durations []int, saturated []bool) {
	n := end - start
	workers := min(e.workers, n)
	chunk := (n + workers - 1) / workers

	var g errgroup.Group
	for lo := start; lo < end; lo += chunk {
		hi := min(lo+chunk, end)
		g.Go(func() error {
			stream := newTrialStream(base)
			for i := lo; i < hi; i++ {
				durations[i], saturated[i] = e.simulateTrial(stream.reset(i), p.Remaining, p.WeekCap)
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (e *Engine) simulateTrial(rng *rand.Rand, remaining float64, weekCap int) (int, bool) {
	weeks := 0
	for remaining > 0 {
		if weeks >= weekCap {
			return weekCap, true
		}
		weeks++
		remaining -= e.samples[rng.IntN(len(e.samples))]
	}
	return weeks, false
}

func (e *Engine) summarize(sorted []int, p Params) Result {
	n := len(sorted)
	sum := 0
	for _, d := range sorted {
		sum += d
	}

	res := Result{
		P50:           sorted[stats.NearestRankIndex(n, 0.50)],
		P80:           sorted[stats.NearestRankIndex(n, 0.80)],
		P95:           sorted[stats.NearestRankIndex(n, 0.95)],
		Mean:          float64(sum) / float64(n),
		Min:           sorted[0],
		Max:           sorted[n-1],
		Histogram:     buildHistogram(sorted),
		Throughput:    summarizeThroughput(e.samples),
		RemainingWork: p.Remaining,
		SampleCount:   n,
		WeekCap:       p.WeekCap,
		Seed:          p.Seed,
	}
	res.Burndown = buildBurndown(p.Remaining, res.Throughput, res.P50, res.P80)
	return res
}

// trivialResult answers a zero workload without drawing from the generator.
func (e *Engine) trivialResult(p Params) Result {
	return Result{
		Histogram: []Bucket{{Week: 0, Count: p.SampleCount, Probability: 1}},
		Burndown: Burndown{
			P50: []BurndownPoint{{Week: 0, Remaining: 0}},
			P80: []BurndownPoint{{Week: 0, Remaining: 0}},
		},
		Throughput:  summarizeThroughput(e.samples),
		SampleCount: p.SampleCount,
		WeekCap:     p.WeekCap,
		Seed:        p.Seed,
	}
}

func summarizeThroughput(samples []float64) ThroughputSummary {
	if len(samples) == 0 {
		return ThroughputSummary{}
	}
	lo, hi := stats.MinMax(samples)
	return ThroughputSummary{
		Weeks:  len(samples),
		Mean:   stats.Mean(samples),
		Median: stats.CalculateMedianContinuous(samples),
		P20:    stats.Percentile(samples, 0.20),
		StdDev: stats.PopulationStdDev(samples),
		Min:    lo,
		Max:    hi,
	}
}
