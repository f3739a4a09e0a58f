package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/fraziphy/balanced-spiking-network/internal/config"
	"github.com/fraziphy/balanced-spiking-network/internal/experiment"
	"github.com/fraziphy/balanced-spiking-network/internal/params"
	"github.com/fraziphy/balanced-spiking-network/internal/pathutil"
	"github.com/fraziphy/balanced-spiking-network/internal/ratelimit"
)

// registerTools registers all bsn tools with the MCP server.
func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "bsn_simulate",
		Description: "Simulate the balanced E/I spiking network and return spike statistics",
	}, s.handleSimulate)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "bsn_runs",
		Description: "List runs stored in the catalog, newest first",
	}, s.handleRuns)
}

// auditTool records a tool invocation as a run event.
func (s *Server) auditTool(tool string, start time.Time, err error, fields map[string]any) {
	status := "success"
	if err != nil {
		status = "error"
	}
	event := map[string]any{
		"event":       "tool_call",
		"tool":        tool,
		"status":      status,
		"duration_ms": time.Since(start).Milliseconds(),
	}
	for k, v := range fields {
		event[k] = v
	}
	if err != nil {
		event["error"] = err.Error()
	}
	s.events.Log(event)
	s.logger.Debug("tool call", "tool", tool, "status", status, "duration", time.Since(start))
}

// handleSimulate implements the bsn_simulate tool.
func (s *Server) handleSimulate(ctx context.Context, req *sdk.CallToolRequest, args SimulateInput) (_ *sdk.CallToolResult, _ SimulateOutput, retErr error) {
	start := time.Now()
	cfg := s.applyOverrides(args)
	fields := map[string]any{"neurons": cfg.Network.N, "duration": cfg.Run.Duration}
	defer func() { s.auditTool("bsn_simulate", start, retErr, fields) }()

	if err := cfg.Validate(); err != nil {
		return nil, SimulateOutput{}, err
	}
	if err := ratelimit.CheckLimit(s.toolLimiters, "bsn_simulate", simulationCost(cfg)); err != nil {
		return nil, SimulateOutput{}, err
	}
	if (args.Save || args.Output != "") && s.catalog == nil {
		return nil, SimulateOutput{}, errors.New("save requested but no run catalog is configured")
	}
	if args.Output != "" {
		path, err := pathutil.Within(args.Output, s.catalogDir)
		if err != nil {
			return nil, SimulateOutput{}, err
		}
		cfg.Output.Path = path
	}

	rec, err := experiment.Run(cfg, experiment.Options{Logger: s.logger})
	if err != nil {
		return nil, SimulateOutput{}, err
	}
	fields["run_id"] = rec.Meta.ID

	format := ""
	if cfg.Output.Path != "" {
		if _, err := experiment.Save(ctx, rec, cfg.Output); err != nil {
			return nil, SimulateOutput{}, err
		}
		format = cfg.Output.Format
	}
	if args.Save {
		if err := s.catalog.SaveRun(ctx, rec, cfg.Output.Path, format); err != nil {
			return nil, SimulateOutput{}, fmt.Errorf("failed to save run: %w", err)
		}
	}

	return nil, SimulateOutput{
		RunID:      rec.Meta.ID,
		Saved:      args.Save,
		OutputPath: cfg.Output.Path,
		Steps:      rec.Meta.Steps,
		Spikes:     rec.Summary.Spikes,
		RateHz:     rec.Summary.RateHz,
		RateEHz:    rec.Summary.RateEHz,
		RateIHz:    rec.Summary.RateIHz,
		MeanCV:     rec.Summary.MeanCV,
		Input1Size: len(rec.Input1),
		Input2Size: len(rec.Input2),
		RNGCheck:   rec.RNGCheck,
	}, nil
}

// applyOverrides returns a copy of the base configuration with the call's
// parameters applied. The output file is set by handleSimulate after path
// validation; the catalog is the server's own.
func (s *Server) applyOverrides(args SimulateInput) *config.Config {
	cfg := *s.base
	cfg.Output = config.OutputConfig{Format: config.FormatGzip}
	if args.Format != "" {
		cfg.Output.Format = args.Format
	}

	setInt := func(dst *int, v *int) {
		if v != nil {
			*dst = *v
		}
	}
	setFloat := func(dst *float64, v *float64) {
		if v != nil {
			*dst = *v
		}
	}

	setInt(&cfg.Network.N, args.N)
	setInt(&cfg.Network.C, args.C)
	setFloat(&cfg.Network.F, args.F)
	setFloat(&cfg.Network.G, args.G)
	setFloat(&cfg.Network.JMean, args.JMean)
	setFloat(&cfg.Network.VthMean, args.VthMean)
	setFloat(&cfg.Network.VthStd, args.VthStd)
	if args.VthDistribution != "" {
		cfg.Network.VthDistribution = args.VthDistribution
	}
	setFloat(&cfg.Neural.MuZero, args.MuZero)
	setFloat(&cfg.Run.Duration, args.Duration)
	setFloat(&cfg.Run.BurnIn, args.BurnIn)
	setInt(&cfg.Run.Workers, args.Workers)
	if args.Seed != nil {
		cfg.Seed.Entropy = *args.Seed
	}
	setInt(&cfg.Seed.Session, args.Session)
	setInt(&cfg.Seed.Trial, args.Trial)
	if args.Mu1 != "" {
		cfg.Inputs.Mu1 = args.Mu1
	}
	if args.Mu2 != "" {
		cfg.Inputs.Mu2 = args.Mu2
	}
	return &cfg
}

// simulationCost is the work of a run in neuron-steps.
func simulationCost(cfg *config.Config) float64 {
	steps := params.Steps(cfg.Run.Duration, cfg.Neural.DT) + params.Steps(cfg.Run.BurnIn, cfg.Neural.DT)
	return float64(cfg.Network.N) * float64(steps)
}

// handleRuns implements the bsn_runs tool.
func (s *Server) handleRuns(ctx context.Context, req *sdk.CallToolRequest, args RunsInput) (_ *sdk.CallToolResult, _ RunsOutput, retErr error) {
	start := time.Now()
	defer func() { s.auditTool("bsn_runs", start, retErr, map[string]any{"limit": args.Limit}) }()

	if err := ratelimit.CheckLimit(s.toolLimiters, "bsn_runs", 1); err != nil {
		return nil, RunsOutput{}, err
	}
	if s.catalog == nil {
		return nil, RunsOutput{}, errors.New("no run catalog is configured")
	}

	runs, err := s.catalog.ListRuns(ctx, args.Limit)
	if err != nil {
		return nil, RunsOutput{}, fmt.Errorf("failed to list runs: %w", err)
	}

	items := make([]RunListItem, 0, len(runs))
	for _, r := range runs {
		items = append(items, RunListItem{
			ID:         r.ID,
			CreatedAt:  r.CreatedAt,
			Seed:       r.Entropy,
			Session:    r.Session,
			Trial:      r.Trial,
			Neurons:    r.Neurons,
			Duration:   r.Duration,
			Spikes:     r.SpikeCount,
			RateHz:     r.RateHz,
			OutputPath: r.OutputPath,
		})
	}
	return nil, RunsOutput{Runs: items, Count: len(items)}, nil
}
