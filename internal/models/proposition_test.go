package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProposition_TruthValue(t *testing.T) {
	assert.True(t, P.TruthValue())
	assert.False(t, Q.TruthValue())
	assert.False(t, None.TruthValue())
}

func TestProposition_Valid(t *testing.T) {
	assert.True(t, P.Valid())
	assert.True(t, Q.Valid())
	assert.False(t, None.Valid())
	assert.False(t, Proposition("R").Valid())
}

func TestProposition_String(t *testing.T) {
	assert.Equal(t, "P", P.String())
	assert.Equal(t, "Q", Q.String())
	assert.Equal(t, "none", None.String())
}

func TestParseProposition(t *testing.T) {
	tests := []struct {
		in      string
		want    Proposition
		wantErr bool
	}{
		{in: "P", want: P},
		{in: "q", want: Q},
		{in: " none ", want: None},
		{in: "", want: None},
		{in: "maybe", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseProposition(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSignal(t *testing.T) {
	sp := NewSignal(P)
	assert.Equal(t, P, sp.Proposition())
	assert.True(t, sp.TruthValue())

	sq := NewSignal(Q)
	assert.Equal(t, Q, sq.Proposition())
	assert.False(t, sq.TruthValue())
}

func TestNewSignal_PanicsWithoutBelief(t *testing.T) {
	assert.Panics(t, func() { NewSignal(None) })
}
