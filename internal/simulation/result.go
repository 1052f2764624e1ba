package simulation

import "github.com/nvandessel/moideas/internal/network"

// Result is the terminal belief census of one simulation. Disinformation
// agents are never counted.
type Result struct {
	Config    Configuration `json:"config"`
	PN        int           `json:"p_n"`
	QN        int           `json:"q_n"`
	NoBeliefN int           `json:"no_belief_n"`
}

func newResult(cfg Configuration, c network.Census) Result {
	return Result{Config: cfg, PN: c.P, QN: c.Q, NoBeliefN: c.None}
}

// ProportionTrueBeliefs returns p_n / (p_n + q_n). ok is false when nobody
// holds a belief; that is a legitimate outcome, not a zero.
func (r Result) ProportionTrueBeliefs() (proportion float64, ok bool) {
	believers := r.PN + r.QN
	if believers == 0 {
		return 0, false
	}
	return float64(r.PN) / float64(believers), true
}
