package models

import (
	"time"
)

// QueueEntryStatus represents the state of a matchmaking queue entry
type QueueEntryStatus string

const (
	QueueEntryStatusWaiting QueueEntryStatus = "waiting"
	QueueEntryStatusMatched QueueEntryStatus = "matched"
)

// QueueEntry represents a player waiting to be paired at a stake tier.
// UserID is the primary key, so a player can hold at most one entry.
type QueueEntry struct {
	UserID      int64            `db:"user_id"`
	StakeTier   int64            `db:"stake_tier"`
	Status      QueueEntryStatus `db:"status"`
	DisplayName string           `db:"display_name"`
	Rating      int              `db:"rating"`
	JoinedAt    time.Time        `db:"joined_at"`
}
