package forecast

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"mcs-forecast/internal/confidence"
	"mcs-forecast/internal/estimation"
	"mcs-forecast/internal/simulation"
	"mcs-forecast/internal/stats"
	"mcs-forecast/internal/throughput"
	"mcs-forecast/internal/workitem"
)

// Defaults are applied to request fields left at zero.
type Defaults struct {
	LookbackWeeks int
	SampleCount   int
	WeekCap       int
}

// DefaultDefaults returns the engine defaults.
func DefaultDefaults() Defaults {
	return Defaults{
		LookbackWeeks: stats.DefaultLookbackWeeks,
		SampleCount:   simulation.DefaultSampleCount,
		WeekCap:       simulation.DefaultWeekCap,
	}
}

// Option configures a Service.
type Option func(*Service)

// WithDefaults overrides the request defaults. Zero fields keep the engine defaults.
func WithDefaults(d Defaults) Option {
	return func(s *Service) {
		if d.LookbackWeeks > 0 {
			s.defaults.LookbackWeeks = d.LookbackWeeks
		}
		if d.SampleCount > 0 {
			s.defaults.SampleCount = d.SampleCount
		}
		if d.WeekCap > 0 {
			s.defaults.WeekCap = d.WeekCap
		}
	}
}

// WithEngineOptions passes options to every simulation engine the service creates.
func WithEngineOptions(opts ...simulation.Option) Option {
	return func(s *Service) { s.engineOpts = append(s.engineOpts, opts...) }
}

// WithLocation sets the time zone used for week boundaries.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.location = loc }
}

// WithClock replaces time.Now for requests that omit Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithRunIDs replaces the run ID generator.
func WithRunIDs(next func() string) Option {
	return func(s *Service) { s.runID = next }
}

// Service answers the forecasting requests. It holds no state between calls.
type Service struct {
	defaults   Defaults
	engineOpts []simulation.Option
	location   *time.Location
	now        func() time.Time
	runID      func() string
}

// NewService creates a service with engine defaults, UTC weeks and random run IDs.
func NewService(opts ...Option) *Service {
	s := &Service{
		defaults: DefaultDefaults(),
		location: time.UTC,
		now:      time.Now,
		runID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Defaults returns the effective request defaults.
func (s *Service) Defaults() Defaults {
	return s.defaults
}

func (s *Service) lookback(weeks int) (int, error) {
	if weeks < 0 {
		return 0, stats.Invalid("lookback weeks must not be negative, got %d", weeks)
	}
	if weeks == 0 {
		return s.defaults.LookbackWeeks, nil
	}
	return weeks, nil
}

func (s *Service) asOf(now time.Time) time.Time {
	if now.IsZero() {
		return s.now().UTC()
	}
	return now
}

func (s *Service) params(remaining float64, sampleCount, weekCap int, seed string) (simulation.Params, error) {
	if sampleCount < 0 {
		return simulation.Params{}, stats.Invalid("sample count must not be negative, got %d", sampleCount)
	}
	if weekCap < 0 {
		return simulation.Params{}, stats.Invalid("week cap must not be negative, got %d", weekCap)
	}
	if sampleCount == 0 {
		sampleCount = s.defaults.SampleCount
	}
	if weekCap == 0 {
		weekCap = s.defaults.WeekCap
	}
	return simulation.Params{Remaining: remaining, SampleCount: sampleCount, WeekCap: weekCap, Seed: seed}, nil
}

// Aggregate groups completed items into weekly throughput samples.
func (s *Service) Aggregate(req AggregateRequest) ([]throughput.WeeklySample, error) {
	if err := (workitem.Snapshot{Items: req.Items}).Validate(); err != nil {
		return nil, err
	}
	weeks, err := s.lookback(req.LookbackWeeks)
	if err != nil {
		return nil, err
	}
	return throughput.AggregateWeekly(req.Items, s.asOf(req.Now), throughput.Options{LookbackWeeks: weeks, Location: s.location}), nil
}

// Forecast runs the Monte-Carlo simulation. An empty seed defaults to a fingerprint of the samples.
func (s *Service) Forecast(ctx context.Context, req ForecastRequest) (simulation.Result, error) {
	seed := req.Seed
	if seed == "" {
		seed = samplesFingerprint(req.ThroughputSamples)
	}
	p, err := s.params(req.RemainingWork, req.SampleCount, req.WeekCap, seed)
	if err != nil {
		return simulation.Result{}, err
	}
	return simulation.NewEngine(req.ThroughputSamples, s.engineOpts...).Run(ctx, p)
}

// InWindow returns the completed items inside the lookback window ending at now, with
// the same defaults the pipeline applies.
func (s *Service) InWindow(items []workitem.Item, now time.Time, lookbackWeeks int) ([]workitem.Item, error) {
	weeks, err := s.lookback(lookbackWeeks)
	if err != nil {
		return nil, err
	}
	return throughput.InWindow(items, s.asOf(now), weeks), nil
}

// Estimate profiles how declared sizes relate to observed cycle time.
func (s *Service) Estimate(req EstimationRequest) (estimation.Profile, error) {
	if err := (workitem.Snapshot{Items: req.CompletedItems}).Validate(); err != nil {
		return estimation.Profile{}, err
	}
	return estimation.Analyze(req.CompletedItems), nil
}

// Assess scores velocity stability and estimation calibration.
func (s *Service) Assess(req ConfidenceRequest) (confidence.Assessment, error) {
	unit := req.Unit
	switch unit {
	case "", workitem.UnitAuto:
		unit = workitem.UnitItems
		for _, w := range req.WeeklySamples {
			if w.Points > 0 {
				unit = workitem.UnitPoints
				break
			}
		}
	case workitem.UnitPoints, workitem.UnitItems:
	default:
		return confidence.Assessment{}, stats.Invalid("unknown unit %q", req.Unit)
	}

	profile := estimation.Profile{Insufficient: true}
	if req.EstimationProfile != nil {
		profile = *req.EstimationProfile
	}
	return confidence.Assess(throughput.Series(req.WeeklySamples, unit), profile), nil
}

// Run executes the full pipeline over a snapshot. Missing history is reported per section
// with StatusInsufficient; only invalid input and cancellation are returned as errors.
func (s *Service) Run(ctx context.Context, req PipelineRequest) (Report, error) {
	if err := req.Snapshot.Validate(); err != nil {
		return Report{}, err
	}
	switch req.Unit {
	case "", workitem.UnitAuto, workitem.UnitPoints, workitem.UnitItems:
	default:
		return Report{}, stats.Invalid("unknown unit %q", req.Unit)
	}
	weeks, err := s.lookback(req.LookbackWeeks)
	if err != nil {
		return Report{}, err
	}

	items := req.Snapshot.Items
	now := s.asOf(req.Now)
	weekly := throughput.AggregateWeekly(items, now, throughput.Options{LookbackWeeks: weeks, Location: s.location})
	unit := throughput.ResolveUnit(items, weekly, req.Unit)
	remaining := workitem.RemainingWork(items, unit)

	seed := req.Seed
	if seed == "" {
		seed = req.Snapshot.Fingerprint()
	}
	p, err := s.params(remaining, req.SampleCount, req.WeekCap, seed)
	if err != nil {
		return Report{}, err
	}

	report := Report{
		RunID:         s.runID(),
		SnapshotID:    req.Snapshot.Fingerprint(),
		AsOf:          now,
		LookbackWeeks: weeks,
		Unit:          unit,
		RemainingWork: remaining,
	}
	logger := log.With().Str("run", report.RunID).Str("snapshot", report.SnapshotID).Logger()
	logger.Info().Int("items", len(items)).Str("unit", string(unit)).Float64("remaining", remaining).Msg("Forecast pipeline started")

	report.Throughput = ThroughputSection{Status: StatusOK, Weeks: weekly}
	pointless := len(weekly) > 0 && throughput.TotalPoints(weekly) == 0
	switch {
	case len(weekly) == 0:
		report.Throughput.Status = StatusInsufficient
		report.Throughput.Message = fmt.Sprintf("No items were completed in the last %d weeks.", weeks)
	case pointless && unit == workitem.UnitPoints:
		report.Throughput.Status = StatusInsufficient
		report.Throughput.Message = "No item completed in the window carries a size, so there is no points throughput."
	case pointless && workitem.ResolveUnit(items, req.Unit) == workitem.UnitPoints:
		report.Throughput.Message = "No item completed in the window carries a size; throughput and remaining work are counted in items."
	}
	series := throughput.Series(weekly, unit)
	completed := throughput.InWindow(items, now, weeks)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if report.Throughput.Status == StatusInsufficient && len(weekly) > 0 {
			report.Forecast = ForecastSection{Status: StatusInsufficient, Message: "Completed history has no points to resample; forecast in items or size the completed work."}
			return nil
		}
		res, err := simulation.NewEngine(series, s.engineOpts...).Run(gctx, p)
		var insufficient *stats.InsufficientDataError
		switch {
		case errors.As(err, &insufficient):
			report.Forecast = ForecastSection{Status: StatusInsufficient, Message: "At least one week of completed work is needed to simulate completion."}
			return nil
		case err != nil:
			return fmt.Errorf("simulation: %w", err)
		}
		report.Forecast = ForecastSection{Status: StatusOK, Result: &res}
		return nil
	})
	g.Go(func() error {
		profile := estimation.Analyze(completed)
		report.Estimation = EstimationSection{Status: StatusOK, Profile: profile}
		if profile.Insufficient {
			report.Estimation.Status = StatusInsufficient
			report.Estimation.Message = fmt.Sprintf("Only %d sized item(s) were completed in the window; at least %d are needed.", profile.SampleSize, estimation.MinSampleSize)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		logger.Warn().Err(err).Msg("Forecast pipeline aborted")
		return Report{}, err
	}

	report.Confidence = confidence.Assess(series, report.Estimation.Profile)

	evt := logger.Info().Str("forecast", string(report.Forecast.Status)).Str("estimation", string(report.Estimation.Status)).Int("confidence", report.Confidence.Overall)
	if r := report.Forecast.Result; r != nil {
		evt = evt.Int("p50", r.P50).Int("p80", r.P80).Int("p95", r.P95)
	}
	evt.Msg("Forecast pipeline finished")
	return report, nil
}

// samplesFingerprint hashes the sample values so identical input always draws the same trials.
func samplesFingerprint(samples []float64) string {
	h := xxhash.New()
	var buf [8]byte
	for _, v := range samples {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		_, _ = h.Write(buf[:])
	}
	return fmt.Sprintf("%016x", h.Sum64())
}
