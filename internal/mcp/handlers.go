package mcp

import (
	"context"
	"fmt"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/nvandessel/moideas/internal/batch"
	"github.com/nvandessel/moideas/internal/ratelimit"
	"github.com/nvandessel/moideas/internal/simulation"
	"github.com/nvandessel/moideas/internal/store"
	"github.com/nvandessel/moideas/internal/sweep"
)

const (
	// maxSimulateRuns caps a single tool call so one request cannot pin the host.
	maxSimulateRuns = 5000

	defaultHistoryLimit = 10

	presetsURI = "moideas://presets"
)

// registerTools registers all moideas MCP tools with the server.
func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "moideas_simulate",
		Description: "Run a batch of belief-diffusion simulations for one configuration and report the average proportion of true beliefs",
	}, s.handleSimulate)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "moideas_presets",
		Description: "List the built-in parameter sweeps and how many configurations each expands to",
	}, s.handlePresets)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "moideas_history",
		Description: "List stored batches, newest first, or fetch the summaries of one batch",
	}, s.handleHistory)
}

// registerResources registers MCP resources for auto-loading into context.
func (s *Server) registerResources() {
	s.server.AddResource(&sdk.Resource{
		URI:         presetsURI,
		Name:        "moideas-presets",
		Description: "Built-in sweep grids in the YAML format accepted by `moideas run --grid`.",
		MIMEType:    "application/yaml",
	}, s.handlePresetsResource)
}

func (s *Server) handlePresetsResource(ctx context.Context, req *sdk.ReadResourceRequest) (*sdk.ReadResourceResult, error) {
	var grids []sweep.Grid
	for _, name := range sweep.Presets() {
		g, err := sweep.Preset(name)
		if err != nil {
			return nil, err
		}
		grids = append(grids, g)
	}

	data, err := sweep.Marshal(grids)
	if err != nil {
		return nil, fmt.Errorf("failed to render presets: %w", err)
	}

	return &sdk.ReadResourceResult{
		Contents: []*sdk.ResourceContents{
			{
				URI:      presetsURI,
				MIMEType: "application/yaml",
				Text:     string(data),
			},
		},
	}, nil
}

// handleSimulate implements the moideas_simulate tool.
func (s *Server) handleSimulate(ctx context.Context, req *sdk.CallToolRequest, args SimulateInput) (_ *sdk.CallToolResult, _ SimulateOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("moideas_simulate", start, retErr, sanitizeToolParams(map[string]any{
			"config": args.Config != nil, "runs": args.Runs, "seed": args.Seed,
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "moideas_simulate"); err != nil {
		return nil, SimulateOutput{}, err
	}

	cfg := simulation.DefaultConfiguration()
	if args.Config != nil {
		cfg = *args.Config
	}
	if err := cfg.Validate(); err != nil {
		return nil, SimulateOutput{}, err
	}

	runs := args.Runs
	if runs == 0 {
		runs = s.runs
	}
	if runs < 0 || runs > maxSimulateRuns {
		return nil, SimulateOutput{}, fmt.Errorf("'runs' must be between 1 and %d, got %d", maxSimulateRuns, runs)
	}

	seed := s.seed
	if args.Seed != nil {
		seed = *args.Seed
	}

	runner, err := batch.NewRunner(batch.Options{
		Runs:    runs,
		Seed:    seed,
		Workers: s.workers,
		Logger:  s.logger,
	})
	if err != nil {
		return nil, SimulateOutput{}, err
	}

	summaries, err := runner.Run(ctx, []simulation.Configuration{cfg})
	if err != nil {
		return nil, SimulateOutput{}, fmt.Errorf("simulation failed: %w", err)
	}

	id, err := s.store.SaveBatch(ctx, store.Batch{
		Name:      "mcp",
		Seed:      seed,
		Runs:      runs,
		Summaries: summaries,
	})
	if err != nil {
		return nil, SimulateOutput{}, fmt.Errorf("failed to store batch: %w", err)
	}

	summary := summaries[0]
	msg := fmt.Sprintf("No run out of %d ended with a believer", runs)
	if summary.AvgPropTrue != nil {
		msg = fmt.Sprintf("Average proportion of true beliefs over %d runs: %.4f (%d runs without believers)",
			runs, *summary.AvgPropTrue, summary.NoBeliefRuns)
	}

	s.logger.Info("mcp simulate", zap.String("batch_id", id), zap.Int("runs", runs), zap.Int64("seed", seed))

	return nil, SimulateOutput{
		BatchID: id,
		Seed:    seed,
		Summary: summary,
		Message: msg,
	}, nil
}

// handlePresets implements the moideas_presets tool.
func (s *Server) handlePresets(ctx context.Context, req *sdk.CallToolRequest, args PresetsInput) (_ *sdk.CallToolResult, _ PresetsOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("moideas_presets", start, retErr, sanitizeToolParams(map[string]any{
			"name": args.Name,
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "moideas_presets"); err != nil {
		return nil, PresetsOutput{}, err
	}

	names := sweep.Presets()
	if args.Name != "" {
		names = []string{args.Name}
	}

	presets := make([]PresetInfo, 0, len(names))
	for _, name := range names {
		g, err := sweep.Preset(name)
		if err != nil {
			return nil, PresetsOutput{}, err
		}
		presets = append(presets, PresetInfo{Name: name, Size: g.Size(), Grid: g})
	}

	return nil, PresetsOutput{Presets: presets, Count: len(presets)}, nil
}

// handleHistory implements the moideas_history tool.
func (s *Server) handleHistory(ctx context.Context, req *sdk.CallToolRequest, args HistoryInput) (_ *sdk.CallToolResult, _ HistoryOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("moideas_history", start, retErr, sanitizeToolParams(map[string]any{
			"limit": args.Limit, "batch_id": args.BatchID,
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "moideas_history"); err != nil {
		return nil, HistoryOutput{}, err
	}

	if args.BatchID != "" {
		summaries, err := s.store.GetSummaries(ctx, args.BatchID)
		if err != nil {
			return nil, HistoryOutput{}, err
		}
		b := store.Batch{ID: args.BatchID, Summaries: summaries}
		return nil, HistoryOutput{Batches: []store.Batch{b}, Count: 1}, nil
	}

	limit := args.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	batches, err := s.store.ListBatches(ctx, limit)
	if err != nil {
		return nil, HistoryOutput{}, fmt.Errorf("failed to list batches: %w", err)
	}
	if batches == nil {
		batches = []store.Batch{}
	}

	return nil, HistoryOutput{Batches: batches, Count: len(batches)}, nil
}
