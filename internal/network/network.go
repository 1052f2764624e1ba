// Package network owns an agent population and advances it one round at a
// time. Each round runs four lockstep phases over the whole population:
// atrophy, honest broadcast, disinformation broadcast, signal processing.
//
// Agents live in an index-addressed arena. Ordinary agents occupy indices
// [0, n) and disinformation agents follow them. Broadcast audiences are
// index sets over the ordinary agents, so no agent ever holds a handle to
// another.
package network

import (
	"fmt"

	"github.com/nvandessel/moideas/internal/agent"
	"github.com/nvandessel/moideas/internal/models"
)

// Audience is the contiguous index range [0, Size) with at most one index
// removed. Exclude is -1 when no index is removed.
type Audience struct {
	Size    int
	Exclude int
}

var _ agent.Audience = Audience{}

// Everyone returns the audience of all size indices.
func Everyone(size int) Audience {
	return Audience{Size: size, Exclude: -1}
}

// AllBut returns the audience of all size indices except self.
func AllBut(size, self int) Audience {
	return Audience{Size: size, Exclude: self}
}

// Len returns the number of members.
func (a Audience) Len() int {
	if a.excludes() {
		return a.Size - 1
	}
	return a.Size
}

// Member returns the k-th member in ascending index order.
func (a Audience) Member(k int) int {
	if a.excludes() && k >= a.Exclude {
		return k + 1
	}
	return k
}

func (a Audience) excludes() bool {
	return a.Exclude >= 0 && a.Exclude < a.Size
}

// Census counts the beliefs held by ordinary agents.
type Census struct {
	P    int `json:"p_n"`
	Q    int `json:"q_n"`
	None int `json:"no_belief_n"`
}

// Network holds the agent arena and the round counter.
type Network struct {
	members  []*agent.Agent
	ordinary int
	round    int
	post     postOffice
}

// postOffice delivers signals into the arena by index.
type postOffice struct {
	members []*agent.Agent
}

func (p postOffice) Post(target int, signal models.Signal) {
	p.members[target].ReceiveSignal(signal)
}

// New builds a network. Members are placed in the arena by role: ordinary
// agents first, in the given order, then disinformation agents. Agent IDs
// must be unique.
func New(members []*agent.Agent) (*Network, error) {
	var ordinary, disinfo []*agent.Agent
	seen := make(map[int]bool, len(members))

	for i, m := range members {
		if m == nil {
			return nil, fmt.Errorf("member %d is nil", i)
		}
		if seen[m.ID()] {
			return nil, fmt.Errorf("duplicate agent id %d", m.ID())
		}
		seen[m.ID()] = true

		switch m.Role() {
		case agent.RoleHonest:
			ordinary = append(ordinary, m)
		case agent.RoleDisinformation:
			disinfo = append(disinfo, m)
		default:
			return nil, fmt.Errorf("agent %d has unknown role %q", m.ID(), m.Role())
		}
	}

	arena := make([]*agent.Agent, 0, len(members))
	arena = append(arena, ordinary...)
	arena = append(arena, disinfo...)

	return &Network{
		members:  arena,
		ordinary: len(ordinary),
		post:     postOffice{members: arena},
	}, nil
}

// PlayRound advances the whole population by one round. Forgetting resolves
// before anyone speaks, and signals sent this round are weighed at the end of
// this round.
func (n *Network) PlayRound() {
	honest := n.Ordinary()

	for _, a := range honest {
		a.RollAtrophy()
	}

	for i, a := range honest {
		a.DecideCommunication(AllBut(n.ordinary, i), n.post)
	}

	everyone := Everyone(n.ordinary)
	for _, d := range n.Disinformation() {
		d.DecideCommunication(everyone, n.post)
	}

	for _, a := range honest {
		a.ProcessSignals()
	}

	n.round++
}

// Ordinary returns the ordinary agents. Callers must not modify the slice.
func (n *Network) Ordinary() []*agent.Agent {
	return n.members[:n.ordinary:n.ordinary]
}

// Disinformation returns the disinformation agents. Callers must not modify
// the slice.
func (n *Network) Disinformation() []*agent.Agent {
	return n.members[n.ordinary:]
}

// Round returns the number of rounds played so far.
func (n *Network) Round() int {
	return n.round
}

// Census counts beliefs across ordinary agents only.
func (n *Network) Census() Census {
	var c Census
	for _, a := range n.Ordinary() {
		switch a.Belief() {
		case models.P:
			c.P++
		case models.Q:
			c.Q++
		default:
			c.None++
		}
	}
	return c
}
