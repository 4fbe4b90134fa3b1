package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchStatusTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    MatchStatus
		to      MatchStatus
		allowed bool
	}{
		{"open to ongoing", MatchStatusOpen, MatchStatusOngoing, true},
		{"open to cancelled", MatchStatusOpen, MatchStatusCancelled, true},
		{"open to completed skips ongoing", MatchStatusOpen, MatchStatusCompleted, false},
		{"ongoing to completed", MatchStatusOngoing, MatchStatusCompleted, true},
		{"ongoing to disputed", MatchStatusOngoing, MatchStatusDisputed, true},
		{"ongoing to verification", MatchStatusOngoing, MatchStatusVerification, true},
		{"verification to completed", MatchStatusVerification, MatchStatusCompleted, true},
		{"disputed to completed via admin override", MatchStatusDisputed, MatchStatusCompleted, true},
		{"disputed to ongoing", MatchStatusDisputed, MatchStatusOngoing, false},
		{"completed is terminal", MatchStatusCompleted, MatchStatusDisputed, false},
		{"cancelled is terminal", MatchStatusCancelled, MatchStatusOngoing, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestMatchStatusIsTerminal(t *testing.T) {
	assert.False(t, MatchStatusOpen.IsTerminal())
	assert.False(t, MatchStatusOngoing.IsTerminal())
	assert.False(t, MatchStatusVerification.IsTerminal())
	assert.True(t, MatchStatusCompleted.IsTerminal())
	assert.True(t, MatchStatusDisputed.IsTerminal())
	assert.True(t, MatchStatusCancelled.IsTerminal())
}

func TestMatchParticipants(t *testing.T) {
	m := &Match{PlayerOneID: 10, PlayerTwoID: 20}

	assert.True(t, m.IsParticipant(10))
	assert.True(t, m.IsParticipant(20))
	assert.False(t, m.IsParticipant(30))

	assert.Equal(t, int64(20), m.Opponent(10))
	assert.Equal(t, int64(10), m.Opponent(20))
	assert.Equal(t, int64(0), m.Opponent(30))
}

func TestUserWinRate(t *testing.T) {
	u := &User{MatchesPlayed: 0, MatchesWon: 0}
	assert.Equal(t, 0.0, u.WinRate())

	u = &User{MatchesPlayed: 4, MatchesWon: 3}
	assert.Equal(t, 0.75, u.WinRate())
}
