package models

// Signal is a single piece of testimony sent from one agent to another.
// Signals are immutable values; receivers buffer and then discard them.
type Signal struct {
	proposition Proposition
}

// NewSignal creates a signal carrying p. It panics if p is None: an agent
// without a belief has nothing to say, and callers check that first.
func NewSignal(p Proposition) Signal {
	if !p.Valid() {
		panic("models: signal requires proposition P or Q, got " + p.String())
	}
	return Signal{proposition: p}
}

// Proposition returns the claim carried by the signal.
func (s Signal) Proposition() Proposition {
	return s.proposition
}

// TruthValue reports whether the signal carries the true proposition.
func (s Signal) TruthValue() bool {
	return s.proposition.TruthValue()
}
