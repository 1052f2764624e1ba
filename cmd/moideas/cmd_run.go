package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nvandessel/moideas/internal/batch"
	"github.com/nvandessel/moideas/internal/config"
	"github.com/nvandessel/moideas/internal/logging"
	"github.com/nvandessel/moideas/internal/report"
	"github.com/nvandessel/moideas/internal/store"
	"github.com/nvandessel/moideas/internal/sweep"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "Run a parameter sweep",
		Long: `Expand a sweep into configurations, run every configuration many times
and report the average proportion of true beliefs per configuration.

The sweep is a built-in preset (default "mill") or a YAML grid file.
Summaries are appended to the CSV output and stored for 'moideas history'.

Examples:
  moideas run                       # the mill preset, 300 runs each
  moideas run disinfo --runs 100    # the disinformation preset
  moideas run --grid sweeps.yaml    # grids from a file`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			applyRunFlags(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			gridFile, _ := cmd.Flags().GetString("grid")
			name, grids, err := resolveGrids(args, gridFile)
			if err != nil {
				return err
			}

			configs, err := sweep.ExpandAll(grids)
			if err != nil {
				return err
			}

			logger := newLogger(cmd, cfg)
			defer logger.Sync()

			var tracer *logging.RoundTracer
			if dir, err := config.DataDir(); err == nil {
				tracer = logging.NewRoundTracer(dir, cfg.Logging.Level)
				defer tracer.Close()
			}

			runner, err := batch.NewRunner(batch.Options{
				Runs:    cfg.Batch.Runs,
				Seed:    cfg.Batch.Seed,
				Workers: cfg.Batch.Workers,
				Logger:  logger,
				Tracer:  tracer,
			})
			if err != nil {
				return err
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			logger.Info("starting sweep",
				zap.String("sweep", name),
				zap.Int("configurations", len(configs)),
				zap.Int("runs", cfg.Batch.Runs),
				zap.Int64("seed", cfg.Batch.Seed))

			started := time.Now()
			summaries, err := runner.Run(ctx, configs)
			if err != nil {
				return fmt.Errorf("sweep failed: %w", err)
			}
			logger.Info("sweep finished", zap.Duration("elapsed", time.Since(started)))

			if cfg.Batch.Output != "" {
				if err := report.AppendFile(cfg.Batch.Output, summaries); err != nil {
					return err
				}
			}

			batchID := ""
			if cfg.Store.Enabled {
				batchID, err = saveBatch(ctx, cfg, store.Batch{
					Name:      name,
					Seed:      cfg.Batch.Seed,
					Runs:      cfg.Batch.Runs,
					Summaries: summaries,
				})
				if err != nil {
					return err
				}
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), map[string]any{
					"batch_id":  batchID,
					"sweep":     name,
					"seed":      cfg.Batch.Seed,
					"runs":      cfg.Batch.Runs,
					"output":    cfg.Batch.Output,
					"summaries": summaries,
				})
			}

			fmt.Fprint(cmd.OutOrStdout(), summaryTable(name, summaries).render())
			if cfg.Batch.Output != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "\nAppended %d rows to %s\n", len(summaries), cfg.Batch.Output)
			}
			if batchID != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Stored as batch %s\n", batchID)
			}
			return nil
		},
	}

	cmd.Flags().String("grid", "", "YAML grid file to sweep instead of a preset")
	cmd.Flags().Int("runs", 0, "Simulations per configuration (overrides config)")
	cmd.Flags().Int64("seed", 0, "Batch seed (overrides config)")
	cmd.Flags().Int("workers", 0, "Parallel simulations (overrides config)")
	cmd.Flags().String("output", "", "CSV file to append to (overrides config)")
	cmd.Flags().Bool("no-csv", false, "Do not write CSV output")
	cmd.Flags().Bool("no-store", false, "Do not persist the batch")

	return cmd
}

func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("runs") {
		cfg.Batch.Runs, _ = flags.GetInt("runs")
	}
	if flags.Changed("seed") {
		cfg.Batch.Seed, _ = flags.GetInt64("seed")
	}
	if flags.Changed("workers") {
		cfg.Batch.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("output") {
		cfg.Batch.Output, _ = flags.GetString("output")
	}
	if noCSV, _ := flags.GetBool("no-csv"); noCSV {
		cfg.Batch.Output = ""
	}
	if noStore, _ := flags.GetBool("no-store"); noStore {
		cfg.Store.Enabled = false
	}
}

// resolveGrids returns the sweep name and grids for a preset argument or a
// grid file. With neither, the mill preset is used.
func resolveGrids(args []string, gridFile string) (string, []sweep.Grid, error) {
	if gridFile != "" {
		if len(args) > 0 {
			return "", nil, fmt.Errorf("give either a preset or --grid, not both")
		}
		grids, err := sweep.LoadFile(gridFile)
		if err != nil {
			return "", nil, err
		}
		return gridFile, grids, nil
	}

	name := "mill"
	if len(args) > 0 {
		name = args[0]
	}
	g, err := sweep.Preset(name)
	if err != nil {
		return "", nil, err
	}
	return name, []sweep.Grid{g}, nil
}

func openStore(cfg *config.Config) (*store.SQLiteStore, error) {
	path, err := cfg.StorePath()
	if err != nil {
		return nil, err
	}
	return store.Open(path)
}

func saveBatch(ctx context.Context, cfg *config.Config, b store.Batch) (string, error) {
	s, err := openStore(cfg)
	if err != nil {
		return "", err
	}
	defer s.Close()

	return s.SaveBatch(ctx, b)
}

func summaryTable(title string, summaries []batch.Summary) *table {
	t := newTable(title, "#", "tw", "rounds", "atrophy", "output", "disinfo", "fan-out", "av_prop_true", "no_beliefs")
	for i, s := range summaries {
		c := s.Config
		avg := "-"
		if s.AvgPropTrue != nil {
			avg = strconv.FormatFloat(*s.AvgPropTrue, 'f', 4, 64)
		}
		t.addRow(
			strconv.Itoa(i+1),
			strconv.FormatFloat(c.TW, 'g', -1, 64),
			strconv.Itoa(c.RoundsOfPlay),
			strconv.FormatFloat(c.AtrophyP, 'g', -1, 64),
			strconv.FormatFloat(c.OutputP, 'g', -1, 64),
			strconv.Itoa(c.DisinfoAgentsN),
			strconv.Itoa(c.DisinfoBroadcastCapability),
			avg,
			fmt.Sprintf("%d/%d", s.NoBeliefRuns, s.SimCount),
		)
	}
	return t
}
