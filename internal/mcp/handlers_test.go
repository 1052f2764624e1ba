package mcp

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvandessel/moideas/internal/ratelimit"
	"github.com/nvandessel/moideas/internal/simulation"
	"github.com/nvandessel/moideas/internal/store"
	"github.com/nvandessel/moideas/internal/sweep"
)

func setupTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	auditDir := t.TempDir()

	server, err := NewServer(&Config{
		Name:     "test-server",
		Version:  "v1.0.0",
		Store:    store.NewInMemoryStore(),
		AuditDir: auditDir,
		Runs:     5,
		Seed:     45,
		Workers:  2,
	})
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	// Handler tests call tools more often than the default budgets allow
	server.toolLimiters = ratelimit.ToolLimiters{}
	t.Cleanup(func() { server.Close() })

	return server, auditDir
}

func smallConfig() *simulation.Configuration {
	cfg := simulation.DefaultConfiguration()
	cfg.AgentsN = 6
	cfg.RoundsOfPlay = 4
	return &cfg
}

func TestHandleSimulate(t *testing.T) {
	server, _ := setupTestServer(t)
	ctx := context.Background()

	seed := int64(7)
	_, out, err := server.handleSimulate(ctx, &sdk.CallToolRequest{}, SimulateInput{
		Config: smallConfig(),
		Runs:   10,
		Seed:   &seed,
	})
	if err != nil {
		t.Fatalf("handleSimulate failed: %v", err)
	}

	if out.BatchID == "" {
		t.Error("expected a batch id")
	}
	if out.Seed != 7 {
		t.Errorf("seed = %d, want 7", out.Seed)
	}
	if out.Summary.SimCount != 10 {
		t.Errorf("sim_count = %d, want 10", out.Summary.SimCount)
	}
	if out.Summary.Config != *smallConfig() {
		t.Errorf("summary config = %+v, want the requested configuration", out.Summary.Config)
	}
	if out.Message == "" {
		t.Error("expected a message")
	}

	// The batch should be in the store
	summaries, err := server.store.GetSummaries(ctx, out.BatchID)
	if err != nil {
		t.Fatalf("GetSummaries failed: %v", err)
	}
	if len(summaries) != 1 {
		t.Errorf("stored %d summaries, want 1", len(summaries))
	}
}

func TestHandleSimulate_Deterministic(t *testing.T) {
	server, _ := setupTestServer(t)
	ctx := context.Background()

	_, a, err := server.handleSimulate(ctx, nil, SimulateInput{Config: smallConfig(), Runs: 20})
	if err != nil {
		t.Fatalf("first call failed: %v", err)
	}
	_, b, err := server.handleSimulate(ctx, nil, SimulateInput{Config: smallConfig(), Runs: 20})
	if err != nil {
		t.Fatalf("second call failed: %v", err)
	}

	if a.BatchID == b.BatchID {
		t.Error("each call should store its own batch")
	}
	if (a.Summary.AvgPropTrue == nil) != (b.Summary.AvgPropTrue == nil) ||
		(a.Summary.AvgPropTrue != nil && *a.Summary.AvgPropTrue != *b.Summary.AvgPropTrue) {
		t.Error("same seed should give the same average")
	}
	if a.Summary.NoBeliefRuns != b.Summary.NoBeliefRuns {
		t.Errorf("no-belief runs differ: %d vs %d", a.Summary.NoBeliefRuns, b.Summary.NoBeliefRuns)
	}
}

func TestHandleSimulate_DefaultsToBaseline(t *testing.T) {
	server, _ := setupTestServer(t)

	_, out, err := server.handleSimulate(context.Background(), nil, SimulateInput{})
	if err != nil {
		t.Fatalf("handleSimulate failed: %v", err)
	}
	if out.Summary.Config != simulation.DefaultConfiguration() {
		t.Errorf("config = %+v, want defaults", out.Summary.Config)
	}
	if out.Summary.SimCount != 5 {
		t.Errorf("sim_count = %d, want server default 5", out.Summary.SimCount)
	}
	if out.Seed != 45 {
		t.Errorf("seed = %d, want server default 45", out.Seed)
	}
}

func TestHandleSimulate_Invalid(t *testing.T) {
	server, _ := setupTestServer(t)
	ctx := context.Background()

	bad := smallConfig()
	bad.PStartBelief = 1.5
	_, _, err := server.handleSimulate(ctx, nil, SimulateInput{Config: bad})
	if !errors.Is(err, simulation.ErrInvalidConfiguration) {
		t.Errorf("expected ErrInvalidConfiguration, got %v", err)
	}

	for _, runs := range []int{-1, maxSimulateRuns + 1} {
		if _, _, err := server.handleSimulate(ctx, nil, SimulateInput{Config: smallConfig(), Runs: runs}); err == nil {
			t.Errorf("runs=%d: expected error", runs)
		}
	}
}

func TestHandleSimulate_RateLimited(t *testing.T) {
	server, _ := setupTestServer(t)
	server.toolLimiters = ratelimit.ToolLimiters{
		"moideas_simulate": ratelimit.NewLimiter(0, 1),
	}
	ctx := context.Background()

	if _, _, err := server.handleSimulate(ctx, nil, SimulateInput{Config: smallConfig(), Runs: 1}); err != nil {
		t.Fatalf("first call failed: %v", err)
	}
	_, _, err := server.handleSimulate(ctx, nil, SimulateInput{Config: smallConfig(), Runs: 1})
	if err == nil || !strings.Contains(err.Error(), "rate limit exceeded") {
		t.Errorf("expected rate limit error, got %v", err)
	}
}

func TestHandlePresets(t *testing.T) {
	server, _ := setupTestServer(t)
	ctx := context.Background()

	_, out, err := server.handlePresets(ctx, nil, PresetsInput{})
	if err != nil {
		t.Fatalf("handlePresets failed: %v", err)
	}
	if out.Count != len(sweep.Presets()) {
		t.Errorf("count = %d, want %d", out.Count, len(sweep.Presets()))
	}

	_, one, err := server.handlePresets(ctx, nil, PresetsInput{Name: "mill"})
	if err != nil {
		t.Fatalf("handlePresets(mill) failed: %v", err)
	}
	if one.Count != 1 || one.Presets[0].Size != 12 {
		t.Errorf("mill preset = %+v, want one preset of size 12", one.Presets)
	}

	if _, _, err := server.handlePresets(ctx, nil, PresetsInput{Name: "nope"}); !errors.Is(err, sweep.ErrUnknownPreset) {
		t.Errorf("expected ErrUnknownPreset, got %v", err)
	}
}

func TestHandleHistory(t *testing.T) {
	server, _ := setupTestServer(t)
	ctx := context.Background()

	_, empty, err := server.handleHistory(ctx, nil, HistoryInput{})
	if err != nil {
		t.Fatalf("handleHistory failed: %v", err)
	}
	if empty.Count != 0 || empty.Batches == nil {
		t.Errorf("expected an empty, non-nil listing, got %+v", empty)
	}

	var ids []string
	for range 3 {
		_, out, err := server.handleSimulate(ctx, nil, SimulateInput{Config: smallConfig(), Runs: 2})
		if err != nil {
			t.Fatalf("handleSimulate failed: %v", err)
		}
		ids = append(ids, out.BatchID)
	}

	_, listed, err := server.handleHistory(ctx, nil, HistoryInput{Limit: 2})
	if err != nil {
		t.Fatalf("handleHistory failed: %v", err)
	}
	if listed.Count != 2 {
		t.Errorf("count = %d, want 2", listed.Count)
	}

	_, one, err := server.handleHistory(ctx, nil, HistoryInput{BatchID: ids[0]})
	if err != nil {
		t.Fatalf("handleHistory(batch) failed: %v", err)
	}
	if one.Count != 1 || len(one.Batches[0].Summaries) != 1 {
		t.Errorf("expected one batch with one summary, got %+v", one)
	}

	if _, _, err := server.handleHistory(ctx, nil, HistoryInput{BatchID: "missing"}); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestHandlePresetsResource(t *testing.T) {
	server, _ := setupTestServer(t)

	res, err := server.handlePresetsResource(context.Background(), &sdk.ReadResourceRequest{})
	if err != nil {
		t.Fatalf("handlePresetsResource failed: %v", err)
	}
	if len(res.Contents) != 1 {
		t.Fatalf("expected 1 content block, got %d", len(res.Contents))
	}

	path := filepath.Join(t.TempDir(), "presets.yaml")
	if err := os.WriteFile(path, []byte(res.Contents[0].Text), 0600); err != nil {
		t.Fatal(err)
	}
	grids, err := sweep.LoadFile(path)
	if err != nil {
		t.Fatalf("resource should be a loadable grid file: %v", err)
	}
	if len(grids) != len(sweep.Presets()) {
		t.Errorf("got %d grids, want %d", len(grids), len(sweep.Presets()))
	}
}

func TestHandlers_WriteAudit(t *testing.T) {
	server, auditDir := setupTestServer(t)

	if _, _, err := server.handlePresets(context.Background(), nil, PresetsInput{Name: "mill"}); err != nil {
		t.Fatalf("handlePresets failed: %v", err)
	}
	server.Close()

	data, err := os.ReadFile(filepath.Join(auditDir, AuditFileName))
	if err != nil {
		t.Fatalf("failed to read audit log: %v", err)
	}
	if !strings.Contains(string(data), `"tool":"moideas_presets"`) {
		t.Errorf("audit log missing tool entry: %s", data)
	}
	if !strings.Contains(string(data), `"name":"mill"`) {
		t.Errorf("audit log missing params: %s", data)
	}
}
