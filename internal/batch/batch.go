// Package batch runs many independent simulations per configuration in
// parallel and reduces them to per-configuration summaries.
package batch

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nvandessel/moideas/internal/constants"
	"github.com/nvandessel/moideas/internal/logging"
	"github.com/nvandessel/moideas/internal/network"
	"github.com/nvandessel/moideas/internal/simulation"
)

// Summary aggregates the runs of one configuration.
type Summary struct {
	Config   simulation.Configuration `json:"config"`
	SimCount int                      `json:"sim_count"`

	// AvgPropTrue is the mean proportion of true beliefs over the runs in
	// which anybody held a belief, rounded to 4 places. Nil when no run had
	// a believer.
	AvgPropTrue *float64 `json:"av_prop_true"`

	// NoBeliefRuns counts runs that ended with no believers at all.
	NoBeliefRuns int `json:"no_beliefs_n"`
}

// Options configures a Runner.
type Options struct {
	Runs    int
	Seed    int64
	Workers int

	// Logger receives per-configuration progress. Nil disables it.
	Logger *zap.Logger

	// Tracer receives a census line per round of every run. Nil disables it.
	Tracer *logging.RoundTracer
}

// Runner executes sweeps.
type Runner struct {
	runs    int
	seed    int64
	workers int
	logger  *zap.Logger
	tracer  *logging.RoundTracer
}

// NewRunner validates opts and returns a Runner. Workers <= 0 means one
// worker per CPU.
func NewRunner(opts Options) (*Runner, error) {
	if opts.Runs <= 0 {
		return nil, fmt.Errorf("runs must be positive, got %d", opts.Runs)
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		runs:    opts.Runs,
		seed:    opts.Seed,
		workers: workers,
		logger:  logger,
		tracer:  opts.Tracer,
	}, nil
}

// Run executes Runs simulations of every configuration and returns one
// Summary per configuration, in input order. The output depends only on the
// seed and the configurations, never on the number of workers.
func (r *Runner) Run(ctx context.Context, configs []simulation.Configuration) ([]Summary, error) {
	for i, cfg := range configs {
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("configuration %d: %w", i, err)
		}
	}

	results := make([][]simulation.Result, len(configs))
	remaining := make([]atomic.Int64, len(configs))
	for i := range configs {
		results[i] = make([]simulation.Result, r.runs)
		remaining[i].Store(int64(r.runs))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

schedule:
	for ci := range configs {
		for run := range r.runs {
			if gctx.Err() != nil {
				break schedule
			}
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				res, err := r.runOne(configs[ci], ci, run)
				if err != nil {
					return err
				}
				results[ci][run] = res
				if remaining[ci].Add(-1) == 0 {
					r.logger.Debug("configuration complete",
						zap.Int("config", ci),
						zap.Int("of", len(configs)),
						zap.Int("runs", r.runs))
				}
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	summaries := make([]Summary, len(configs))
	for ci, cfg := range configs {
		summaries[ci] = Summarize(cfg, results[ci])
		r.logger.Info("configuration summarized",
			zap.Int("config", ci),
			zap.Float64("tw", cfg.TW),
			zap.Int("rounds", cfg.RoundsOfPlay),
			zap.Int("disinfo_agents_n", cfg.DisinfoAgentsN),
			zap.Int("no_belief_runs", summaries[ci].NoBeliefRuns))
	}
	return summaries, nil
}

func (r *Runner) runOne(cfg simulation.Configuration, ci, run int) (simulation.Result, error) {
	rng := rand.New(rand.NewSource(RunSeed(r.seed, ci, run)))

	var opts []simulation.Option
	if r.tracer != nil {
		opts = append(opts, simulation.WithRoundObserver(func(round int, c network.Census) {
			r.tracer.Log(map[string]any{
				"config":      ci,
				"run":         run,
				"round":       round,
				"p_n":         c.P,
				"q_n":         c.Q,
				"no_belief_n": c.None,
			})
		}))
	}

	sim, err := simulation.New(cfg, rng, opts...)
	if err != nil {
		return simulation.Result{}, fmt.Errorf("configuration %d run %d: %w", ci, run, err)
	}
	return sim.Run(), nil
}

// RunSeed derives the seed of one run from the batch seed and the run's
// position, using the splitmix64 finalizer so neighbouring runs get
// unrelated streams.
func RunSeed(seed int64, configIndex, run int) int64 {
	z := uint64(seed)
	z ^= uint64(configIndex)*0x9e3779b97f4a7c15 + uint64(run)*0xbf58476d1ce4e5b9
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	z ^= z >> 31
	return int64(z)
}

// Summarize reduces the results of one configuration.
func Summarize(cfg simulation.Configuration, results []simulation.Result) Summary {
	s := Summary{Config: cfg, SimCount: len(results)}

	var sum float64
	defined := 0
	for _, res := range results {
		p, ok := res.ProportionTrueBeliefs()
		if !ok {
			s.NoBeliefRuns++
			continue
		}
		sum += p
		defined++
	}

	if defined > 0 {
		avg := Round(sum / float64(defined))
		s.AvgPropTrue = &avg
	}
	return s
}

// Round rounds v to the precision summaries are reported at.
func Round(v float64) float64 {
	scale := math.Pow10(constants.ProportionPrecision)
	return math.Round(v*scale) / scale
}
