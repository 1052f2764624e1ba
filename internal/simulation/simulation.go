package simulation

import (
	"fmt"
	"math/rand"

	"github.com/nvandessel/moideas/internal/agent"
	"github.com/nvandessel/moideas/internal/models"
	"github.com/nvandessel/moideas/internal/network"
)

// RoundObserver is called after every round with the 1-based round number and
// the census of ordinary agents at the end of that round.
type RoundObserver func(round int, census network.Census)

// Option customizes a Simulation.
type Option func(*options)

type options struct {
	observer       RoundObserver
	initialBeliefs []models.Proposition
}

// WithRoundObserver registers fn to be called after each round.
func WithRoundObserver(fn RoundObserver) Option {
	return func(o *options) {
		o.observer = fn
	}
}

// WithInitialBeliefs overrides the drawn starting belief of the first
// len(beliefs) ordinary agents. The random draws still happen, so the rest of
// the population is seeded exactly as it would be without the override.
func WithInitialBeliefs(beliefs ...models.Proposition) Option {
	return func(o *options) {
		o.initialBeliefs = beliefs
	}
}

// Simulation is one stochastic trial of a Configuration.
type Simulation struct {
	config   Configuration
	network  *network.Network
	observer RoundObserver
}

// New validates cfg and builds the population. All randomness, during
// construction and during Run, comes from rng.
func New(cfg Configuration, rng *rand.Rand, opts ...Option) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if len(o.initialBeliefs) > cfg.AgentsN {
		return nil, fmt.Errorf("%w: %d initial beliefs for %d agents", ErrInvalidConfiguration, len(o.initialBeliefs), cfg.AgentsN)
	}

	members := make([]*agent.Agent, 0, cfg.AgentsN+cfg.DisinfoAgentsN)
	believers := 0

	for i := range cfg.AgentsN {
		belief := models.None
		if rng.Float64() < cfg.PStartBelief {
			belief = coinFlip(rng)
		}
		bar := cfg.MinBAR + rng.Float64()*(cfg.MaxBAR-cfg.MinBAR)

		if i < len(o.initialBeliefs) {
			belief = o.initialBeliefs[i]
		}
		if belief != models.None {
			believers++
		}

		a, err := agent.New(i, agent.RoleHonest, agent.Params{
			MRB:                 cfg.MRB,
			BAR:                 bar,
			TW:                  cfg.TW,
			AtrophyP:            cfg.AtrophyP,
			OutputP:             cfg.OutputP,
			BroadcastCapability: 1,
		}, belief, rng)
		if err != nil {
			return nil, fmt.Errorf("creating agent %d: %w", i, err)
		}
		members = append(members, a)
	}

	// Disinformation agents are not believers; the Q is just what they say.
	for i := range cfg.DisinfoAgentsN {
		id := cfg.AgentsN + i
		d, err := agent.New(id, agent.RoleDisinformation, agent.DisinformationParams(cfg.DisinfoBroadcastCapability), models.Q, rng)
		if err != nil {
			return nil, fmt.Errorf("creating disinformation agent %d: %w", id, err)
		}
		members = append(members, d)
	}

	// A population without any belief can never develop one.
	if believers == 0 {
		members[0].SetBelief(coinFlip(rng))
	}

	net, err := network.New(members)
	if err != nil {
		return nil, fmt.Errorf("building network: %w", err)
	}

	return &Simulation{
		config:   cfg,
		network:  net,
		observer: o.observer,
	}, nil
}

// Run plays RoundsOfPlay rounds and returns the census of ordinary agents.
//
// Run is not idempotent: a second call continues from the state the first
// call left behind and plays RoundsOfPlay more rounds.
func (s *Simulation) Run() Result {
	for range s.config.RoundsOfPlay {
		s.network.PlayRound()
		if s.observer != nil {
			s.observer(s.network.Round(), s.network.Census())
		}
	}
	return newResult(s.config, s.network.Census())
}

// Config returns the configuration the simulation was built from.
func (s *Simulation) Config() Configuration {
	return s.config
}

// Network exposes the underlying network for inspection.
func (s *Simulation) Network() *network.Network {
	return s.network
}

func coinFlip(rng *rand.Rand) models.Proposition {
	if rng.Intn(2) == 0 {
		return models.P
	}
	return models.Q
}
