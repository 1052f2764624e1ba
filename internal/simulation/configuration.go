package simulation

import (
	"errors"
	"fmt"

	"github.com/nvandessel/moideas/internal/constants"
)

// ErrInvalidConfiguration is returned when a Configuration is out of range.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// Configuration is the immutable parameter bundle for one simulation.
type Configuration struct {
	// AgentsN is the number of ordinary agents.
	AgentsN int `json:"agents_n" yaml:"agents_n"`

	// PStartBelief is the chance that an ordinary agent starts with a
	// belief. Starting beliefs are P or Q with equal chance.
	PStartBelief float64 `json:"p_start_belief" yaml:"p_start_belief"`

	// RoundsOfPlay is the number of rounds Run plays.
	RoundsOfPlay int `json:"rounds_of_play" yaml:"rounds_of_play"`

	// MRB is the minimum evidence before belief forms (time to belief).
	MRB int `json:"mrb" yaml:"mrb"`

	// TW is the truth-wins bonus to adoption of true signals.
	TW float64 `json:"tw" yaml:"tw"`

	// AtrophyP is the per-round chance an uncontested belief is forgotten.
	AtrophyP float64 `json:"atrophy_p" yaml:"atrophy_p"`

	// MinBAR and MaxBAR bound the uniformly drawn base adoption rate.
	MinBAR float64 `json:"min_bar" yaml:"min_bar"`
	MaxBAR float64 `json:"max_bar" yaml:"max_bar"`

	// OutputP is the per-round chance an agent broadcasts its belief.
	OutputP float64 `json:"output_p" yaml:"output_p"`

	// DisinfoAgentsN is the number of disinformation agents.
	DisinfoAgentsN int `json:"disinfo_agents_n" yaml:"disinfo_agents_n"`

	// DisinfoBroadcastCapability is the fan-out of each disinformation
	// broadcast.
	DisinfoBroadcastCapability int `json:"disinfo_broadcast_capability" yaml:"disinfo_broadcast_capability"`
}

// DefaultConfiguration returns the marketplace baseline: 30 agents, 30% of
// them with a starting belief, 20 rounds.
func DefaultConfiguration() Configuration {
	return Configuration{
		AgentsN:                    constants.DefaultAgentsN,
		PStartBelief:               constants.DefaultPStartBelief,
		RoundsOfPlay:               constants.DefaultRoundsOfPlay,
		MRB:                        constants.DefaultMRB,
		TW:                         constants.DefaultTW,
		AtrophyP:                   constants.DefaultAtrophyP,
		MinBAR:                     constants.DefaultMinBAR,
		MaxBAR:                     constants.DefaultMaxBAR,
		OutputP:                    constants.DefaultOutputP,
		DisinfoAgentsN:             0,
		DisinfoBroadcastCapability: constants.DefaultDisinfoBroadcastCapability,
	}
}

// Validate checks that every field is in range.
func (c Configuration) Validate() error {
	if c.AgentsN < 1 {
		return fmt.Errorf("%w: agents_n must be at least 1, got %d", ErrInvalidConfiguration, c.AgentsN)
	}
	if err := checkProbability("p_start_belief", c.PStartBelief); err != nil {
		return err
	}
	if c.RoundsOfPlay < 0 {
		return fmt.Errorf("%w: rounds_of_play must be non-negative, got %d", ErrInvalidConfiguration, c.RoundsOfPlay)
	}
	if c.MRB < 0 {
		return fmt.Errorf("%w: mrb must be non-negative, got %d", ErrInvalidConfiguration, c.MRB)
	}
	if c.TW < 0 {
		return fmt.Errorf("%w: tw must be non-negative, got %f", ErrInvalidConfiguration, c.TW)
	}
	if err := checkProbability("atrophy_p", c.AtrophyP); err != nil {
		return err
	}
	if err := checkProbability("min_bar", c.MinBAR); err != nil {
		return err
	}
	if err := checkProbability("max_bar", c.MaxBAR); err != nil {
		return err
	}
	if c.MinBAR > c.MaxBAR {
		return fmt.Errorf("%w: min_bar %f exceeds max_bar %f", ErrInvalidConfiguration, c.MinBAR, c.MaxBAR)
	}
	// Acceptance of true signals divides tw by the drawn bar.
	if c.TW > 0 && c.MinBAR == 0 {
		return fmt.Errorf("%w: tw %f requires min_bar above 0", ErrInvalidConfiguration, c.TW)
	}
	if err := checkProbability("output_p", c.OutputP); err != nil {
		return err
	}
	if c.DisinfoAgentsN < 0 {
		return fmt.Errorf("%w: disinfo_agents_n must be non-negative, got %d", ErrInvalidConfiguration, c.DisinfoAgentsN)
	}
	if c.DisinfoBroadcastCapability < 1 {
		return fmt.Errorf("%w: disinfo_broadcast_capability must be at least 1, got %d", ErrInvalidConfiguration, c.DisinfoBroadcastCapability)
	}
	return nil
}

func checkProbability(name string, v float64) error {
	// Written as a negation so NaN is rejected too.
	if !(v >= 0 && v <= 1) {
		return fmt.Errorf("%w: %s must be between 0 and 1, got %f", ErrInvalidConfiguration, name, v)
	}
	return nil
}
