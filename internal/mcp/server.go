package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	"mcs-forecast/internal/config"
	"mcs-forecast/internal/forecast"
)

// Server exposes the forecasting service as MCP tools.
type Server struct {
	cfg     *config.AppConfig
	svc     *forecast.Service
	server  *sdk.Server
	version string
}

// NewServer creates the MCP server and registers every tool.
func NewServer(cfg *config.AppConfig, svc *forecast.Service, version string) (*Server, error) {
	s := &Server{
		cfg:     cfg,
		svc:     svc,
		server:  sdk.NewServer(&sdk.Implementation{Name: "mcs-forecast", Version: version}, nil),
		version: version,
	}
	if err := s.registerTools(); err != nil {
		return nil, err
	}
	return s, nil
}

// Serve runs the server over stdio until the client disconnects or ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	log.Info().Str("version", s.version).Str("data_path", s.cfg.DataPath).Msg("MCP server listening on stdio")
	return s.server.Run(ctx, &sdk.StdioTransport{})
}

func (s *Server) registerTools() error {
	if err := addTool(s.server, "aggregate_throughput",
		"Group completed work items into Monday-start weekly throughput over a lookback window. Weeks without completions are omitted.",
		s.handleAggregateThroughput); err != nil {
		return err
	}
	if err := addTool(s.server, "forecast_monte_carlo",
		"Run a seeded Monte-Carlo simulation that resamples weekly throughput until the remaining work is done. Returns P50/P80/P95 weeks, a histogram and burn-down projections.",
		s.handleForecastMonteCarlo); err != nil {
		return err
	}
	if err := addTool(s.server, "analyze_estimation",
		"Compare declared sizes of items completed in the lookback window with their cycle time. Detects over- or underestimation and high variability per size.",
		s.handleAnalyzeEstimation); err != nil {
		return err
	}
	if err := addTool(s.server, "assess_confidence",
		"Score throughput stability and estimation calibration, and recommend which forecast percentile to plan with.",
		s.handleAssessConfidence); err != nil {
		return err
	}
	return addTool(s.server, "forecast_backlog",
		"Run the full pipeline over a snapshot: weekly throughput, Monte-Carlo forecast, estimation profile and confidence. Sections without enough history are marked insufficient_data.",
		s.handleForecastBacklog)
}

// addTool registers a handler with an input schema generated from its input type.
func addTool[In any](server *sdk.Server, name, description string, handler sdk.ToolHandlerFor[In, any]) error {
	schema, err := jsonschema.For[In](nil)
	if err != nil {
		return fmt.Errorf("input schema for %s: %w", name, err)
	}
	sdk.AddTool(server, &sdk.Tool{Name: name, Description: description, InputSchema: schema}, handler)
	return nil
}

func (s *Server) formatResult(data any) *sdk.CallToolResult {
	out, _ := json.MarshalIndent(data, "", "  ")
	return &sdk.CallToolResult{Content: []sdk.Content{&sdk.TextContent{Text: string(out)}}}
}
