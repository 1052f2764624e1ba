// Package agent implements the epistemic state machine of a single network
// member: when it forgets, when it speaks, and how received testimony turns
// into belief.
package agent

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/nvandessel/moideas/internal/models"
)

// ErrInvalidAgent is returned by New when the parameters cannot describe a
// well-defined agent.
var ErrInvalidAgent = errors.New("invalid agent")

// Role gates which phases of a round apply to an agent.
type Role string

const (
	// RoleHonest agents forget, speak, listen and update their belief.
	RoleHonest Role = "honest"

	// RoleDisinformation agents only broadcast a fixed false belief. The
	// network never asks them to forget or to process signals.
	RoleDisinformation Role = "disinformation"
)

// Valid returns true if the role is a recognized value.
func (r Role) Valid() bool {
	return r == RoleHonest || r == RoleDisinformation
}

// Params holds the epistemic parameters fixed at creation.
type Params struct {
	// MRB is the minimum amount of accepted evidence (signals for P plus
	// signals for Q) before evidence converts into belief.
	MRB int `json:"mrb" yaml:"mrb"`

	// BAR is the base adoption rate: the probability that a received
	// signal is accepted as evidence.
	BAR float64 `json:"bar" yaml:"bar"`

	// TW is the truth-wins bonus. True signals are accepted with
	// probability BAR + TW/BAR, capped at 1.
	TW float64 `json:"tw" yaml:"tw"`

	// AtrophyP is the per-round chance of forgetting a belief that is not
	// being contested.
	AtrophyP float64 `json:"atrophy_p" yaml:"atrophy_p"`

	// OutputP is the per-round chance of broadcasting the current belief.
	OutputP float64 `json:"output_p" yaml:"output_p"`

	// BroadcastCapability is the number of targets drawn (with replacement)
	// per broadcast.
	BroadcastCapability int `json:"broadcast_capability" yaml:"broadcast_capability"`
}

// DisinformationParams returns the degenerate parameter set used for
// disinformation agents: no trust, no forgetting, always speaking.
func DisinformationParams(broadcastCapability int) Params {
	return Params{
		MRB:                 0,
		BAR:                 0,
		TW:                  0,
		AtrophyP:            0,
		OutputP:             1,
		BroadcastCapability: broadcastCapability,
	}
}

// Validate checks ranges and the bar/tw coupling.
func (p Params) Validate() error {
	if p.MRB < 0 {
		return fmt.Errorf("%w: mrb must be non-negative, got %d", ErrInvalidAgent, p.MRB)
	}
	if p.BAR < 0 || p.BAR > 1 {
		return fmt.Errorf("%w: bar must be between 0 and 1, got %f", ErrInvalidAgent, p.BAR)
	}
	if p.TW < 0 {
		return fmt.Errorf("%w: tw must be non-negative, got %f", ErrInvalidAgent, p.TW)
	}
	// The truth bonus is scaled by 1/bar.
	if p.TW > 0 && p.BAR == 0 {
		return fmt.Errorf("%w: tw %f requires a positive bar", ErrInvalidAgent, p.TW)
	}
	if p.AtrophyP < 0 || p.AtrophyP > 1 {
		return fmt.Errorf("%w: atrophy_p must be between 0 and 1, got %f", ErrInvalidAgent, p.AtrophyP)
	}
	if p.OutputP < 0 || p.OutputP > 1 {
		return fmt.Errorf("%w: output_p must be between 0 and 1, got %f", ErrInvalidAgent, p.OutputP)
	}
	if p.BroadcastCapability < 1 {
		return fmt.Errorf("%w: broadcast_capability must be at least 1, got %d", ErrInvalidAgent, p.BroadcastCapability)
	}
	return nil
}

// Audience is an index set of potential broadcast targets.
type Audience interface {
	Len() int
	Member(k int) int
}

// Poster delivers a signal to the member at the given arena index.
type Poster interface {
	Post(target int, signal models.Signal)
}

// Member is the capability every network participant provides.
type Member interface {
	ID() int
	Role() Role
	Belief() models.Proposition
	RollAtrophy()
	ReceiveSignal(signal models.Signal)
	DecideCommunication(audience Audience, poster Poster)
	ProcessSignals()
}

// Agent is a network member with a belief, evidence counters and an inbox.
// An Agent is not safe for concurrent use; the network drives it in lockstep.
type Agent struct {
	id     int
	role   Role
	params Params
	rng    *rand.Rand

	belief      models.Proposition
	signalsForP int
	signalsForQ int

	// inbox collects signals posted this round. draining is the buffer
	// being processed; the two are swapped at the start of processing.
	inbox    []models.Signal
	draining []models.Signal

	roundsOutOfCompetition int
}

var _ Member = (*Agent)(nil)

// New creates an agent. belief may be models.None. Disinformation agents must
// start with a belief since it is all they ever say.
func New(id int, role Role, params Params, belief models.Proposition, rng *rand.Rand) (*Agent, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidAgent, role)
	}
	if rng == nil {
		return nil, fmt.Errorf("%w: random source is required", ErrInvalidAgent)
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if belief != models.None && !belief.Valid() {
		return nil, fmt.Errorf("%w: invalid belief %q", ErrInvalidAgent, string(belief))
	}
	if role == RoleDisinformation && belief == models.None {
		return nil, fmt.Errorf("%w: disinformation agent %d has nothing to broadcast", ErrInvalidAgent, id)
	}

	return &Agent{
		id:     id,
		role:   role,
		params: params,
		rng:    rng,
		belief: belief,
	}, nil
}

// ID returns the agent's identity.
func (a *Agent) ID() int { return a.id }

// Role returns the agent's role.
func (a *Agent) Role() Role { return a.role }

// Params returns the agent's epistemic parameters.
func (a *Agent) Params() Params { return a.params }

// Belief returns the currently held proposition, or models.None.
func (a *Agent) Belief() models.Proposition { return a.belief }

// SignalsForP returns the accepted evidence for P.
func (a *Agent) SignalsForP() int { return a.signalsForP }

// SignalsForQ returns the accepted evidence for Q.
func (a *Agent) SignalsForQ() int { return a.signalsForQ }

// RIC returns the total accepted evidence.
func (a *Agent) RIC() int { return a.signalsForP + a.signalsForQ }

// RoundsOutOfCompetition returns the number of consecutive rounds in which
// no signal arrived.
func (a *Agent) RoundsOutOfCompetition() int { return a.roundsOutOfCompetition }

// Pending returns the number of signals waiting to be processed.
func (a *Agent) Pending() int { return len(a.inbox) }

// SetBelief overrides the current belief without touching the evidence
// counters. It is used when seeding a population.
func (a *Agent) SetBelief(p models.Proposition) {
	a.belief = p
}

// RollAtrophy forgets the belief, along with the reasons for holding it, with
// probability AtrophyP. Only beliefs that went uncontested last round can
// atrophy.
func (a *Agent) RollAtrophy() {
	if !(a.params.AtrophyP > 0) {
		return
	}
	if a.roundsOutOfCompetition == 0 {
		return
	}
	if a.rng.Float64() >= a.params.AtrophyP {
		return
	}

	a.belief = models.None
	a.signalsForP = 0
	a.signalsForQ = 0
}

// DecideCommunication broadcasts the current belief with probability OutputP
// to BroadcastCapability targets drawn uniformly, with replacement, from
// audience. A target drawn twice receives two signals. An empty audience is
// a no-op and consumes no randomness.
func (a *Agent) DecideCommunication(audience Audience, poster Poster) {
	if a.belief == models.None {
		return
	}
	n := audience.Len()
	if n == 0 {
		return
	}
	if a.rng.Float64() >= a.params.OutputP {
		return
	}

	signal := models.NewSignal(a.belief)
	for range a.params.BroadcastCapability {
		poster.Post(audience.Member(a.rng.Intn(n)), signal)
	}
}

// ReceiveSignal buffers a signal for the next processing step.
func (a *Agent) ReceiveSignal(signal models.Signal) {
	a.inbox = append(a.inbox, signal)
}

// ProcessSignals weighs every buffered signal in arrival order and leaves
// the inbox empty. A round without signals counts as a round out of
// competition.
func (a *Agent) ProcessSignals() {
	if len(a.inbox) == 0 {
		a.roundsOutOfCompetition++
		return
	}
	a.roundsOutOfCompetition = 0

	batch := a.inbox
	a.inbox, a.draining = a.draining[:0], batch

	for _, signal := range batch {
		a.processSignal(signal)
	}
}

func (a *Agent) processSignal(signal models.Signal) {
	if a.rng.Float64() >= a.acceptanceProbability(signal) {
		return
	}

	switch signal.Proposition() {
	case models.P:
		a.signalsForP++
	case models.Q:
		a.signalsForQ++
	}

	if a.RIC() < a.params.MRB {
		return
	}
	a.updateBelief()
}

// acceptanceProbability returns BAR, raised by TW/BAR for true signals and
// capped at 1.
func (a *Agent) acceptanceProbability(signal models.Signal) float64 {
	p := a.params.BAR
	if signal.TruthValue() && a.params.TW > 0 {
		p += a.params.TW / a.params.BAR
	}
	if p > 1 {
		p = 1
	}
	return p
}

// updateBelief adopts whichever proposition has strictly more evidence. A
// tie keeps the current belief.
func (a *Agent) updateBelief() {
	switch {
	case a.signalsForP > a.signalsForQ:
		a.belief = models.P
	case a.signalsForP < a.signalsForQ:
		a.belief = models.Q
	}
}
