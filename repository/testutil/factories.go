package testutil

import (
	"time"

	"arenaserver/models"
)

// NewTestUser builds an unsaved user with sensible defaults
func NewTestUser(id int64, username string) *models.User {
	now := time.Now()
	return &models.User{
		ID:            id,
		Username:      username,
		WalletBalance: 100000,
		Rating:        1000,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// NewTestUserWithBalance builds an unsaved user with a specific balance
func NewTestUserWithBalance(id int64, username string, balance int64) *models.User {
	user := NewTestUser(id, username)
	user.WalletBalance = balance
	return user
}

// NewTestMatch builds an unsaved open match between two players at a tier,
// with a 10% commission already withheld from the pot.
func NewTestMatch(id string, playerOne, playerTwo int64, stakeTier int64) *models.Match {
	pot := stakeTier * 2
	return &models.Match{
		ID:          id,
		StakeTier:   stakeTier,
		EntryPot:    pot,
		PrizePool:   pot - pot/10,
		PlayerOneID: playerOne,
		PlayerTwoID: playerTwo,
		Status:      models.MatchStatusOpen,
	}
}

// NewTestQueueEntry builds an unsaved waiting queue entry
func NewTestQueueEntry(userID int64, stakeTier int64) *models.QueueEntry {
	return &models.QueueEntry{
		UserID:      userID,
		StakeTier:   stakeTier,
		Status:      models.QueueEntryStatusWaiting,
		DisplayName: "player",
		Rating:      1000,
		JoinedAt:    time.Now(),
	}
}

// NewTestLedgerEntry builds an unsaved completed ledger entry
func NewTestLedgerEntry(key string, userID int64, amount int64, kind models.LedgerEntryKind) *models.LedgerEntry {
	return &models.LedgerEntry{
		IdempotencyKey: key,
		UserID:         userID,
		Amount:         amount,
		Kind:           kind,
		Status:         models.LedgerEntryStatusCompleted,
		Metadata: map[string]any{
			"test": true,
		},
	}
}
