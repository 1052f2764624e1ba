// Package models defines the value types exchanged between agents: the two
// competing propositions and the signals that carry them.
package models

import (
	"fmt"
	"strings"
)

// Proposition is one of two mutually exclusive claims. P is true by
// construction of the model and Q is false. The zero value None stands for
// "no belief" and is never carried by a Signal.
type Proposition string

const (
	None Proposition = ""  // No belief held
	P    Proposition = "P" // The true claim
	Q    Proposition = "Q" // The false claim
)

// Valid returns true if the proposition is P or Q.
func (p Proposition) Valid() bool {
	return p == P || p == Q
}

// TruthValue reports whether the proposition is the true claim.
func (p Proposition) TruthValue() bool {
	return p == P
}

// String returns "P", "Q" or "none".
func (p Proposition) String() string {
	if p == None {
		return "none"
	}
	return string(p)
}

// ParseProposition maps "p", "q" or "none" (case-insensitive) to a Proposition.
// An empty string parses as None.
func ParseProposition(s string) (Proposition, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "p":
		return P, nil
	case "q":
		return Q, nil
	case "", "none":
		return None, nil
	}
	return None, fmt.Errorf("invalid proposition %q (valid: P, Q, none)", s)
}
