package models

import (
	"time"
)

// MatchStatus represents the state of a match
type MatchStatus string

const (
	MatchStatusOpen         MatchStatus = "open"
	MatchStatusOngoing      MatchStatus = "ongoing"
	MatchStatusVerification MatchStatus = "verification"
	MatchStatusCompleted    MatchStatus = "completed"
	MatchStatusDisputed     MatchStatus = "disputed"
	MatchStatusCancelled    MatchStatus = "cancelled"
)

// matchTransitions is the set of legal status transitions. Terminal states
// have no outgoing edges except the admin override from disputed.
var matchTransitions = map[MatchStatus][]MatchStatus{
	MatchStatusOpen:         {MatchStatusOngoing, MatchStatusDisputed, MatchStatusCancelled},
	MatchStatusOngoing:      {MatchStatusVerification, MatchStatusCompleted, MatchStatusDisputed, MatchStatusCancelled},
	MatchStatusVerification: {MatchStatusCompleted, MatchStatusDisputed, MatchStatusCancelled},
	MatchStatusDisputed:     {MatchStatusCompleted, MatchStatusCancelled},
	MatchStatusCompleted:    {},
	MatchStatusCancelled:    {},
}

// CanTransitionTo reports whether a status change is legal.
func (s MatchStatus) CanTransitionTo(next MatchStatus) bool {
	for _, allowed := range matchTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further automatic transition occurs.
func (s MatchStatus) IsTerminal() bool {
	return s == MatchStatusCompleted || s == MatchStatusDisputed || s == MatchStatusCancelled
}

// Dispute reasons produced by result reconciliation.
const (
	DisputeReasonMultipleWinners      = "multiple players claimed victory"
	DisputeReasonDuplicateScreenshots = "duplicate screenshots submitted"
	DisputeReasonNoWinner             = "no clear winner claimed"
	DisputeReasonSystemError          = "system error during reconciliation"
)

// Match represents a 1v1 stake match. EntryPot is the gross sum of entry
// fees; PrizePool is the commission-adjusted amount paid to the winner.
// Matches are never deleted.
type Match struct {
	ID               string      `db:"id"`
	StakeTier        int64       `db:"stake_tier"`
	EntryPot         int64       `db:"entry_pot"`
	PrizePool        int64       `db:"prize_pool"`
	PlayerOneID      int64       `db:"player_one_id"`
	PlayerTwoID      int64       `db:"player_two_id"`
	Status           MatchStatus `db:"status"`
	StatusReason     string      `db:"status_reason"`
	WinnerID         *int64      `db:"winner_id"`
	PrizeDistributed bool        `db:"prize_distributed"`
	CreatedAt        time.Time   `db:"created_at"`
	UpdatedAt        time.Time   `db:"updated_at"`
}

// PlayerIDs returns both participants.
func (m *Match) PlayerIDs() []int64 {
	return []int64{m.PlayerOneID, m.PlayerTwoID}
}

// IsParticipant checks if a user plays in this match
func (m *Match) IsParticipant(userID int64) bool {
	return m.PlayerOneID == userID || m.PlayerTwoID == userID
}

// Opponent returns the other participant's id, or 0 for a non-participant.
func (m *Match) Opponent(userID int64) int64 {
	if m.PlayerOneID == userID {
		return m.PlayerTwoID
	}
	if m.PlayerTwoID == userID {
		return m.PlayerOneID
	}
	return 0
}
