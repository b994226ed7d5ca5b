package mcp

import (
	"context"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	"mcs-forecast/internal/forecast"
	"mcs-forecast/internal/throughput"
	"mcs-forecast/internal/visuals"
	"mcs-forecast/internal/workitem"
)

func (s *Server) handleAggregateThroughput(ctx context.Context, _ *sdk.CallToolRequest, in AggregateInput) (*sdk.CallToolResult, any, error) {
	snap, err := s.loadSnapshot(SourceInput{Items: in.Items, SnapshotFile: in.SnapshotFile, JiraExport: in.JiraExport})
	if err != nil {
		return nil, nil, err
	}
	now, err := parseNow(in.Now)
	if err != nil {
		return nil, nil, err
	}
	unit, err := parseUnit(in.Unit)
	if err != nil {
		return nil, nil, err
	}

	weeks, err := s.svc.Aggregate(forecast.AggregateRequest{Items: snap.Items, Now: now, LookbackWeeks: in.LookbackWeeks})
	if err != nil {
		return nil, nil, err
	}
	unit = throughput.ResolveUnit(snap.Items, weeks, unit)

	res := map[string]any{
		"weekly_samples": weeks,
		"unit":           unit,
		"series":         throughput.Series(weeks, unit),
		"_guidance": []string{
			"Weeks without completions are omitted, not zero-filled.",
			"Pass 'series' as throughput_samples to forecast_monte_carlo, or the weekly samples to assess_confidence.",
		},
	}
	if len(weeks) == 0 {
		res["_data_quality"] = "No items were completed inside the lookback window."
	}
	if s.cfg.EnableMermaidCharts {
		res["visual_throughput_bar"] = visuals.Markdown(visuals.ThroughputChart(weeks, unit))
	}
	return s.formatResult(res), nil, nil
}

func (s *Server) handleForecastMonteCarlo(ctx context.Context, _ *sdk.CallToolRequest, in ForecastInput) (*sdk.CallToolResult, any, error) {
	unit := workitem.Unit(in.Unit)
	if unit != workitem.UnitPoints {
		unit = workitem.UnitItems
	}

	result, err := s.svc.Forecast(ctx, forecast.ForecastRequest{
		RemainingWork:     in.RemainingWork,
		ThroughputSamples: in.ThroughputSamples,
		Seed:              in.Seed,
		SampleCount:       in.SampleCount,
		WeekCap:           in.WeekCap,
	})
	if err != nil {
		return nil, nil, err
	}

	res := map[string]any{
		"forecast": result,
		"_guidance": []string{
			"P50 is a coin toss, P80 a realistic commitment and P95 a conservative bound.",
			"Results are reproducible: the same samples, remaining work and seed always give the same forecast.",
		},
	}
	if s.cfg.EnableMermaidCharts {
		res["visual_histogram_bar"] = visuals.Markdown(visuals.HistogramChart(result))
		res["visual_burndown_line"] = visuals.Markdown(visuals.BurndownChart(result, unit))
	}
	return s.formatResult(res), nil, nil
}

func (s *Server) handleAnalyzeEstimation(ctx context.Context, _ *sdk.CallToolRequest, in EstimationInput) (*sdk.CallToolResult, any, error) {
	snap, err := s.loadSnapshot(SourceInput{Items: in.Items, SnapshotFile: in.SnapshotFile, JiraExport: in.JiraExport})
	if err != nil {
		return nil, nil, err
	}
	now, err := parseNow(in.Now)
	if err != nil {
		return nil, nil, err
	}
	completed, err := s.svc.InWindow(snap.Items, now, in.LookbackWeeks)
	if err != nil {
		return nil, nil, err
	}
	profile, err := s.svc.Estimate(forecast.EstimationRequest{CompletedItems: completed})
	if err != nil {
		return nil, nil, err
	}

	res := map[string]any{"estimation_profile": profile}
	if profile.Insufficient {
		res["_data_quality"] = "Fewer than three completed, sized items in the lookback window; the profile cannot be computed yet."
	}
	if s.cfg.EnableMermaidCharts {
		res["visual_size_bar"] = visuals.Markdown(visuals.SizeChart(profile))
	}
	return s.formatResult(res), nil, nil
}

func (s *Server) handleAssessConfidence(ctx context.Context, _ *sdk.CallToolRequest, in ConfidenceInput) (*sdk.CallToolResult, any, error) {
	unit, err := parseUnit(in.Unit)
	if err != nil {
		return nil, nil, err
	}
	weeks := make([]throughput.WeeklySample, 0, len(in.WeeklySamples))
	for _, w := range in.WeeklySamples {
		sample, err := w.toSample()
		if err != nil {
			return nil, nil, err
		}
		weeks = append(weeks, sample)
	}

	assessment, err := s.svc.Assess(forecast.ConfidenceRequest{WeeklySamples: weeks, EstimationProfile: in.EstimationProfile, Unit: unit})
	if err != nil {
		return nil, nil, err
	}
	return s.formatResult(map[string]any{"confidence": assessment}), nil, nil
}

func (s *Server) handleForecastBacklog(ctx context.Context, _ *sdk.CallToolRequest, in BacklogInput) (*sdk.CallToolResult, any, error) {
	snap, err := s.loadSnapshot(SourceInput{Items: in.Items, SnapshotFile: in.SnapshotFile, JiraExport: in.JiraExport})
	if err != nil {
		return nil, nil, err
	}
	now, err := parseNow(in.Now)
	if err != nil {
		return nil, nil, err
	}
	unit, err := parseUnit(in.Unit)
	if err != nil {
		return nil, nil, err
	}

	report, err := s.svc.Run(ctx, forecast.PipelineRequest{
		Snapshot:      snap,
		Now:           now,
		LookbackWeeks: in.LookbackWeeks,
		SampleCount:   in.SampleCount,
		WeekCap:       in.WeekCap,
		Seed:          in.Seed,
		Unit:          unit,
	})
	if err != nil {
		log.Warn().Err(err).Msg("forecast_backlog failed")
		return nil, nil, err
	}

	res := map[string]any{
		"report": report,
		"_guidance": []string{
			"Plan with the percentile named in confidence.recommendation.",
			"Sections marked insufficient_data need more completed history; they are not failures.",
		},
	}
	if s.cfg.EnableMermaidCharts {
		var charts []string
		for _, c := range visuals.ReportCharts(report) {
			if c != "" {
				charts = append(charts, visuals.Markdown(c))
			}
		}
		res["visuals"] = charts
	}
	return s.formatResult(res), nil, nil
}
