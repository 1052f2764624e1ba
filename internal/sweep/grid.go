// Package sweep enumerates simulation configurations from parameter grids.
package sweep

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/nvandessel/moideas/internal/simulation"
)

// ErrUnknownPreset is returned by Preset for names that are not built in.
var ErrUnknownPreset = errors.New("unknown preset")

// Grid describes a family of configurations. Scalar fields are shared by
// every configuration; list fields are varied, and the cartesian product of
// all lists is expanded.
type Grid struct {
	Name string `json:"name" yaml:"name"`

	AgentsN      int     `json:"agents_n" yaml:"agents_n"`
	PStartBelief float64 `json:"p_start_belief" yaml:"p_start_belief"`
	MRB          int     `json:"mrb" yaml:"mrb"`
	MinBAR       float64 `json:"min_bar" yaml:"min_bar"`
	MaxBAR       float64 `json:"max_bar" yaml:"max_bar"`

	TW                         []float64 `json:"tw" yaml:"tw"`
	RoundsOfPlay               []int     `json:"rounds_of_play" yaml:"rounds_of_play"`
	AtrophyP                   []float64 `json:"atrophy_p" yaml:"atrophy_p"`
	OutputP                    []float64 `json:"output_p" yaml:"output_p"`
	DisinfoAgentsN             []int     `json:"disinfo_agents_n" yaml:"disinfo_agents_n"`
	DisinfoBroadcastCapability []int     `json:"disinfo_broadcast_capability" yaml:"disinfo_broadcast_capability"`
}

// DefaultGrid returns a grid that expands to exactly the default
// configuration.
func DefaultGrid(name string) Grid {
	d := simulation.DefaultConfiguration()
	return Grid{
		Name:                       name,
		AgentsN:                    d.AgentsN,
		PStartBelief:               d.PStartBelief,
		MRB:                        d.MRB,
		MinBAR:                     d.MinBAR,
		MaxBAR:                     d.MaxBAR,
		TW:                         []float64{d.TW},
		RoundsOfPlay:               []int{d.RoundsOfPlay},
		AtrophyP:                   []float64{d.AtrophyP},
		OutputP:                    []float64{d.OutputP},
		DisinfoAgentsN:             []int{d.DisinfoAgentsN},
		DisinfoBroadcastCapability: []int{d.DisinfoBroadcastCapability},
	}
}

// UnmarshalYAML fills fields missing from the document with defaults.
func (g *Grid) UnmarshalYAML(value *yaml.Node) error {
	type plain Grid
	p := plain(DefaultGrid(""))
	if err := value.Decode(&p); err != nil {
		return err
	}
	*g = Grid(p)
	return nil
}

// Size returns the number of configurations the grid expands to.
func (g Grid) Size() int {
	return len(g.TW) * len(g.RoundsOfPlay) * len(g.AtrophyP) * len(g.OutputP) *
		len(g.DisinfoAgentsN) * len(g.DisinfoBroadcastCapability)
}

// Expand returns every configuration of the grid. The nesting order, from
// outermost to innermost, is tw, rounds_of_play, atrophy_p, output_p,
// disinfo_agents_n, disinfo_broadcast_capability. Each configuration is
// validated.
func (g Grid) Expand() ([]simulation.Configuration, error) {
	if g.Size() == 0 {
		return nil, fmt.Errorf("grid %q has an empty parameter list", g.Name)
	}

	configs := make([]simulation.Configuration, 0, g.Size())
	for _, tw := range g.TW {
		for _, rounds := range g.RoundsOfPlay {
			for _, atrophy := range g.AtrophyP {
				for _, output := range g.OutputP {
					for _, disinfoN := range g.DisinfoAgentsN {
						for _, capability := range g.DisinfoBroadcastCapability {
							cfg := simulation.Configuration{
								AgentsN:                    g.AgentsN,
								PStartBelief:               g.PStartBelief,
								RoundsOfPlay:               rounds,
								MRB:                        g.MRB,
								TW:                         tw,
								AtrophyP:                   atrophy,
								MinBAR:                     g.MinBAR,
								MaxBAR:                     g.MaxBAR,
								OutputP:                    output,
								DisinfoAgentsN:             disinfoN,
								DisinfoBroadcastCapability: capability,
							}
							if err := cfg.Validate(); err != nil {
								return nil, fmt.Errorf("grid %q: %w", g.Name, err)
							}
							configs = append(configs, cfg)
						}
					}
				}
			}
		}
	}
	return configs, nil
}

// ExpandAll expands grids in order and concatenates the results.
func ExpandAll(grids []Grid) ([]simulation.Configuration, error) {
	var all []simulation.Configuration
	for _, g := range grids {
		configs, err := g.Expand()
		if err != nil {
			return nil, err
		}
		all = append(all, configs...)
	}
	return all, nil
}

// File is the on-disk YAML layout of a sweep.
type File struct {
	Grids []Grid `json:"grids" yaml:"grids"`
}

// LoadFile reads a YAML sweep file.
func LoadFile(path string) ([]Grid, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sweep file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing sweep file: %w", err)
	}
	if len(f.Grids) == 0 {
		return nil, fmt.Errorf("sweep file %s defines no grids", path)
	}
	return f.Grids, nil
}

// Marshal renders grids in the LoadFile format.
func Marshal(grids []Grid) ([]byte, error) {
	return yaml.Marshal(File{Grids: grids})
}

// presets mirror the marketplace experiments: Mill's claims without
// interference, and the same sweep under a disinformation campaign.
var presets = map[string]func() Grid{
	"mill": func() Grid {
		g := DefaultGrid("mill")
		g.TW = []float64{0.05, 0.1, 0.15}
		g.RoundsOfPlay = []int{20}
		g.AtrophyP = []float64{0, 0.2}
		g.OutputP = []float64{0.6, 1}
		return g
	},
	"disinfo": func() Grid {
		g := DefaultGrid("disinfo")
		g.TW = []float64{0.05, 0.1, 0.15}
		g.RoundsOfPlay = []int{20}
		g.AtrophyP = []float64{0, 0.2}
		g.OutputP = []float64{0.6, 1}
		g.DisinfoAgentsN = []int{5}
		g.DisinfoBroadcastCapability = []int{15}
		return g
	},
	"disinfo-heavy": func() Grid {
		g := DefaultGrid("disinfo-heavy")
		g.TW = []float64{0.05, 0.1}
		g.RoundsOfPlay = []int{20}
		g.AtrophyP = []float64{0}
		g.OutputP = []float64{0.6}
		g.DisinfoAgentsN = []int{10}
		g.DisinfoBroadcastCapability = []int{30}
		return g
	},
}

// Presets returns the names of the built-in grids, sorted.
func Presets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Preset returns a fresh copy of the named built-in grid.
func Preset(name string) (Grid, error) {
	build, ok := presets[name]
	if !ok {
		return Grid{}, fmt.Errorf("%w: %s (valid: %v)", ErrUnknownPreset, name, Presets())
	}
	return build(), nil
}
