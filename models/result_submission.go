package models

import (
	"time"
)

// ClaimedStatus is a player's self-reported outcome
type ClaimedStatus string

const (
	ClaimedStatusWin  ClaimedStatus = "win"
	ClaimedStatusLoss ClaimedStatus = "loss"
)

// ResultSubmission is the immutable evidence record a player files for a
// match. The (MatchID, UserID) composite key enforces one submission per
// player per match.
type ResultSubmission struct {
	MatchID       string        `db:"match_id"`
	UserID        int64         `db:"user_id"`
	ClaimedStatus ClaimedStatus `db:"claimed_status"`
	ScreenshotKey string        `db:"screenshot_key"`
	SubmittedAt   time.Time     `db:"submitted_at"`
}
