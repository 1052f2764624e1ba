package main

import (
	"fmt"
	"math/rand"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/nvandessel/moideas/internal/constants"
	"github.com/nvandessel/moideas/internal/logging"
	"github.com/nvandessel/moideas/internal/network"
	"github.com/nvandessel/moideas/internal/simulation"
)

func newSimCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sim",
		Short: "Run a single simulation",
		Long: `Run one simulation and print the final belief census of the ordinary
agents. Every configuration field can be set by flag.

Examples:
  moideas sim --seed 1
  moideas sim --disinfo-agents-n 5 --disinfo-broadcast-capability 15 --rounds 40
  moideas sim --trace --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := newLogger(cmd, cfg)
			defer logger.Sync()

			simCfg, err := configurationFromFlags(cmd.Flags())
			if err != nil {
				return err
			}
			seed, _ := cmd.Flags().GetInt64("seed")
			trace, _ := cmd.Flags().GetBool("trace")

			var rounds []map[string]int
			var opts []simulation.Option
			if trace {
				opts = append(opts, simulation.WithRoundObserver(func(round int, c network.Census) {
					rounds = append(rounds, map[string]int{"round": round, "p_n": c.P, "q_n": c.Q, "no_belief_n": c.None})
					if ce := logger.Check(logging.LevelTrace, "round"); ce != nil {
						ce.Write(zap.Int("round", round), zap.Int("p_n", c.P), zap.Int("q_n", c.Q), zap.Int("no_belief_n", c.None))
					}
				}))
			}

			sim, err := simulation.New(simCfg, rand.New(rand.NewSource(seed)), opts...)
			if err != nil {
				return err
			}
			res := sim.Run()
			prop, ok := res.ProportionTrueBeliefs()

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				out := map[string]any{
					"seed":   seed,
					"result": res,
				}
				if ok {
					out["prop_true"] = prop
				} else {
					out["prop_true"] = nil
				}
				if trace {
					out["rounds"] = rounds
				}
				return writeJSON(cmd.OutOrStdout(), out)
			}

			w := cmd.OutOrStdout()
			if trace {
				t := newTable("rounds", "round", "P", "Q", "none")
				for _, r := range rounds {
					t.addRow(strconv.Itoa(r["round"]), strconv.Itoa(r["p_n"]), strconv.Itoa(r["q_n"]), strconv.Itoa(r["no_belief_n"]))
				}
				fmt.Fprintln(w, t.render())
			}
			fmt.Fprintf(w, "Believe P (true):  %d\n", res.PN)
			fmt.Fprintf(w, "Believe Q (false): %d\n", res.QN)
			fmt.Fprintf(w, "No belief:         %d\n", res.NoBeliefN)
			if ok {
				fmt.Fprintf(w, "Proportion true:   %.4f\n", prop)
			} else {
				fmt.Fprintln(w, "Proportion true:   undefined (no believers)")
			}
			return nil
		},
	}

	d := simulation.DefaultConfiguration()
	f := cmd.Flags()
	f.Int("agents-n", d.AgentsN, "Number of ordinary agents")
	f.Float64("p-start-belief", d.PStartBelief, "Chance an agent starts with a belief")
	f.Int("rounds", d.RoundsOfPlay, "Rounds of play")
	f.Int("mrb", d.MRB, "Minimum received signals before belief forms")
	f.Float64("tw", d.TW, "Truth-wins bonus")
	f.Float64("atrophy-p", d.AtrophyP, "Chance an uncontested belief is forgotten each round")
	f.Float64("min-bar", d.MinBAR, "Lower bound of the base adoption rate")
	f.Float64("max-bar", d.MaxBAR, "Upper bound of the base adoption rate")
	f.Float64("output-p", d.OutputP, "Chance an agent broadcasts each round")
	f.Int("disinfo-agents-n", d.DisinfoAgentsN, "Number of disinformation agents")
	f.Int("disinfo-broadcast-capability", d.DisinfoBroadcastCapability, "Targets per disinformation broadcast")
	f.Int64("seed", constants.DefaultSeed, "Random seed")
	f.Bool("trace", false, "Report the census after every round")

	return cmd
}

func configurationFromFlags(f *pflag.FlagSet) (simulation.Configuration, error) {
	var c simulation.Configuration
	var err error
	ints := []struct {
		name string
		dst  *int
	}{
		{"agents-n", &c.AgentsN},
		{"rounds", &c.RoundsOfPlay},
		{"mrb", &c.MRB},
		{"disinfo-agents-n", &c.DisinfoAgentsN},
		{"disinfo-broadcast-capability", &c.DisinfoBroadcastCapability},
	}
	for _, v := range ints {
		if *v.dst, err = f.GetInt(v.name); err != nil {
			return c, err
		}
	}
	floats := []struct {
		name string
		dst  *float64
	}{
		{"p-start-belief", &c.PStartBelief},
		{"tw", &c.TW},
		{"atrophy-p", &c.AtrophyP},
		{"min-bar", &c.MinBAR},
		{"max-bar", &c.MaxBAR},
		{"output-p", &c.OutputP},
	}
	for _, v := range floats {
		if *v.dst, err = f.GetFloat64(v.name); err != nil {
			return c, err
		}
	}
	return c, c.Validate()
}
