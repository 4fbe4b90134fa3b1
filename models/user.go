package models

import (
	"time"
)

// User represents a platform account with a wallet balance.
// WalletBalance is held in integer minor currency units and is only ever
// mutated by the ledger service.
type User struct {
	ID                int64     `db:"id"`
	Username          string    `db:"username"`
	WalletBalance     int64     `db:"wallet_balance"`
	ReferredBy        *int64    `db:"referred_by"`
	ReferralBonusPaid bool      `db:"referral_bonus_paid"`
	ActiveMatchID     *string   `db:"active_match_id"`
	MatchesPlayed     int       `db:"matches_played"`
	MatchesWon        int       `db:"matches_won"`
	Rating            int       `db:"rating"`
	CreatedAt         time.Time `db:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"`
}

// WinRate returns the fraction of played matches this user has won.
func (u *User) WinRate() float64 {
	if u.MatchesPlayed == 0 {
		return 0
	}
	return float64(u.MatchesWon) / float64(u.MatchesPlayed)
}
