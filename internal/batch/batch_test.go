package batch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/nvandessel/moideas/internal/logging"
	"github.com/nvandessel/moideas/internal/simulation"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func smallConfig() simulation.Configuration {
	cfg := simulation.DefaultConfiguration()
	cfg.AgentsN = 8
	cfg.RoundsOfPlay = 5
	return cfg
}

func TestNewRunner_Validation(t *testing.T) {
	_, err := NewRunner(Options{Runs: 0})
	assert.Error(t, err)

	r, err := NewRunner(Options{Runs: 1, Workers: -3})
	require.NoError(t, err)
	assert.Positive(t, r.workers)
}

func TestRun_IndependentOfWorkerCount(t *testing.T) {
	a := smallConfig()
	b := smallConfig()
	b.TW = 0.3
	b.DisinfoAgentsN = 2
	b.DisinfoBroadcastCapability = 4
	configs := []simulation.Configuration{a, b}

	var baseline []Summary
	for _, workers := range []int{1, 3, 8} {
		r, err := NewRunner(Options{Runs: 20, Seed: 45, Workers: workers})
		require.NoError(t, err)

		got, err := r.Run(context.Background(), configs)
		require.NoError(t, err)
		require.Len(t, got, 2)

		if baseline == nil {
			baseline = got
			continue
		}
		if diff := cmp.Diff(baseline, got); diff != "" {
			t.Errorf("workers=%d changed summaries (-want +got):\n%s", workers, diff)
		}
	}

	assert.Equal(t, a, baseline[0].Config, "summaries keep input order")
	assert.Equal(t, b, baseline[1].Config)
	assert.Equal(t, 20, baseline[0].SimCount)
}

func TestRun_SeedChangesOutcome(t *testing.T) {
	configs := []simulation.Configuration{smallConfig()}
	run := func(seed int64) []Summary {
		r, err := NewRunner(Options{Runs: 30, Seed: seed, Workers: 2})
		require.NoError(t, err)
		s, err := r.Run(context.Background(), configs)
		require.NoError(t, err)
		return s
	}

	assert.Equal(t, run(45), run(45))
	assert.NotEqual(t, run(45), run(46))
}

func TestRun_RejectsInvalidConfiguration(t *testing.T) {
	bad := smallConfig()
	bad.OutputP = 2

	r, err := NewRunner(Options{Runs: 3})
	require.NoError(t, err)

	_, err = r.Run(context.Background(), []simulation.Configuration{smallConfig(), bad})
	require.Error(t, err)
	assert.ErrorIs(t, err, simulation.ErrInvalidConfiguration)
	assert.Contains(t, err.Error(), "configuration 1")
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r, err := NewRunner(Options{Runs: 50, Workers: 2})
	require.NoError(t, err)

	_, err = r.Run(ctx, []simulation.Configuration{smallConfig()})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_Empty(t *testing.T) {
	r, err := NewRunner(Options{Runs: 5})
	require.NoError(t, err)

	got, err := r.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRun_Tracer(t *testing.T) {
	dir := t.TempDir()
	tracer := logging.NewRoundTracer(dir, "debug")
	require.NotNil(t, tracer)

	cfg := smallConfig()
	cfg.RoundsOfPlay = 3
	r, err := NewRunner(Options{Runs: 2, Workers: 2, Tracer: tracer})
	require.NoError(t, err)

	_, err = r.Run(context.Background(), []simulation.Configuration{cfg})
	require.NoError(t, err)
	tracer.Close()

	data, err := os.ReadFile(filepath.Join(dir, logging.RoundsFileName))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 2*3, "one line per round per run")
}

func TestSummarize(t *testing.T) {
	cfg := smallConfig()
	results := []simulation.Result{
		{Config: cfg, PN: 3, QN: 0, NoBeliefN: 5},
		{Config: cfg, PN: 0, QN: 0, NoBeliefN: 8},
		{Config: cfg, PN: 1, QN: 2, NoBeliefN: 5},
	}

	s := Summarize(cfg, results)
	assert.Equal(t, 3, s.SimCount)
	assert.Equal(t, 1, s.NoBeliefRuns)
	require.NotNil(t, s.AvgPropTrue)
	// (1 + 1/3) / 2, undefined run excluded
	assert.Equal(t, 0.6667, *s.AvgPropTrue)
}

func TestSummarize_AllUndefined(t *testing.T) {
	cfg := smallConfig()
	s := Summarize(cfg, []simulation.Result{{Config: cfg, NoBeliefN: 8}, {Config: cfg, NoBeliefN: 8}})

	assert.Nil(t, s.AvgPropTrue)
	assert.Equal(t, 2, s.NoBeliefRuns)
}

func TestRound(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{1, 1},
		{1.0 / 3.0, 0.3333},
		{2.0 / 3.0, 0.6667},
		{0.12345, 0.1235},
		{0.99996, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Round(tt.in), "Round(%v)", tt.in)
	}
}

func TestRunSeed_Distinct(t *testing.T) {
	seen := make(map[int64]bool)
	for ci := range 10 {
		for run := range 100 {
			s := RunSeed(45, ci, run)
			assert.False(t, seen[s], "duplicate seed for config %d run %d", ci, run)
			seen[s] = true
		}
	}
	assert.Equal(t, RunSeed(45, 2, 7), RunSeed(45, 2, 7))
}
