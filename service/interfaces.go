package service

import (
	"context"

	"arenaserver/events"
	"arenaserver/models"
)

// UserRepository defines the interface for account data access
type UserRepository interface {
	// GetByID retrieves a user by id
	GetByID(ctx context.Context, userID int64) (*models.User, error)

	// GetByUsername retrieves a user by username
	GetByUsername(ctx context.Context, username string) (*models.User, error)

	// GetForUpdate retrieves a user and locks the row for the transaction;
	// concurrent balance mutations for one account serialize on this lock
	GetForUpdate(ctx context.Context, userID int64) (*models.User, error)

	// Create creates a new user, optionally attributed to a referrer
	Create(ctx context.Context, username string, referredBy *int64, startingBalance int64) (*models.User, error)

	// ApplyBalanceDelta adjusts wallet_balance, failing if the result would be negative
	ApplyBalanceDelta(ctx context.Context, userID int64, delta int64) error

	// SetActiveMatch records or clears the match a user is currently playing
	SetActiveMatch(ctx context.Context, userID int64, matchID *string) error

	// SetReferralBonusPaid marks the one-time referral bonus as issued
	SetReferralBonusPaid(ctx context.Context, userID int64) error

	// IncrementStats bumps matches_played (and matches_won for winners) and
	// applies a rating delta floored at zero
	IncrementStats(ctx context.Context, userID int64, won bool, ratingDelta int) error
}

// QueueEntryRepository defines the interface for matchmaking queue data access
type QueueEntryRepository interface {
	// Insert adds a waiting entry; a second entry for the same user fails
	// with ErrPreconditionFailed
	Insert(ctx context.Context, entry *models.QueueEntry) error

	// GetByUserID retrieves a user's queue entry, if any
	GetByUserID(ctx context.Context, userID int64) (*models.QueueEntry, error)

	// ClaimWaitingPair locks up to two waiting entries at a stake tier,
	// skipping rows already claimed by a concurrent pairing attempt
	ClaimWaitingPair(ctx context.Context, stakeTier int64) ([]*models.QueueEntry, error)

	// MarkMatched flags a claimed entry as consumed by a pairing
	MarkMatched(ctx context.Context, userID int64) error

	// DeleteWaiting removes an entry only while it is still waiting and
	// reports whether a row was removed
	DeleteWaiting(ctx context.Context, userID int64) (bool, error)

	// Delete removes an entry unconditionally
	Delete(ctx context.Context, userID int64) error

	// WaitingTiers returns the distinct stake tiers with at least two
	// waiting entries
	WaitingTiers(ctx context.Context) ([]int64, error)
}

// MatchRepository defines the interface for match data access
type MatchRepository interface {
	// Create persists a new match
	Create(ctx context.Context, match *models.Match) error

	// GetByID retrieves a match by id
	GetByID(ctx context.Context, matchID string) (*models.Match, error)

	// GetForUpdate retrieves a match and locks the row for the transaction
	GetForUpdate(ctx context.Context, matchID string) (*models.Match, error)

	// Update writes a match's mutable fields
	Update(ctx context.Context, match *models.Match) error
}

// ResultSubmissionRepository defines the interface for result evidence records
type ResultSubmissionRepository interface {
	// Create persists an immutable submission; a duplicate for the same
	// (match, user) fails with ErrPreconditionFailed
	Create(ctx context.Context, submission *models.ResultSubmission) error

	// ListByMatch returns all submissions for a match
	ListByMatch(ctx context.Context, matchID string) ([]*models.ResultSubmission, error)
}

// LedgerEntryRepository defines the interface for the append-only ledger
type LedgerEntryRepository interface {
	// Insert appends an entry; a duplicate idempotency key fails with
	// ErrPreconditionFailed
	Insert(ctx context.Context, entry *models.LedgerEntry) error

	// ListByUser returns a user's most recent entries
	ListByUser(ctx context.Context, userID int64, limit int) ([]*models.LedgerEntry, error)

	// SumCompletedByUser returns the sum of completed entry amounts for a user
	SumCompletedByUser(ctx context.Context, userID int64) (int64, error)
}

// PaymentRequestRepository defines the interface for deposit/withdrawal requests
type PaymentRequestRepository interface {
	// Create persists a pending request
	Create(ctx context.Context, request *models.PaymentRequest) error

	// GetForUpdate retrieves a request and locks the row for the transaction
	GetForUpdate(ctx context.Context, requestID int64) (*models.PaymentRequest, error)

	// Update writes a request's review state
	Update(ctx context.Context, request *models.PaymentRequest) error
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and flushes pending events
	Commit() error

	// Rollback rolls back the transaction and discards pending events
	Rollback() error

	// Repository getters
	UserRepository() UserRepository
	QueueEntryRepository() QueueEntryRepository
	MatchRepository() MatchRepository
	ResultSubmissionRepository() ResultSubmissionRepository
	LedgerEntryRepository() LedgerEntryRepository
	PaymentRequestRepository() PaymentRequestRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// LedgerService is the only component permitted to mutate wallet balances.
type LedgerService interface {
	// Submit applies an entry in its own transaction. A debit that would
	// overdraw the account is persisted as a failed entry with a reason and
	// returns ErrInsufficientFunds.
	Submit(ctx context.Context, entry *models.LedgerEntry) error
}

// MatchmakingService pairs waiting players into matches.
type MatchmakingService interface {
	// JoinQueue enters a player into the queue for a stake tier
	JoinQueue(ctx context.Context, userID int64, stakeTier int64) (*models.QueueEntry, error)

	// CancelQueue withdraws a player from the queue before pairing
	CancelQueue(ctx context.Context, userID int64) error

	// TryPair attempts to convert two waiting entries at a tier into one
	// match plus two entry-fee ledger entries. Returns nil when no pair is
	// available; safe to invoke concurrently and repeatedly.
	TryPair(ctx context.Context, stakeTier int64) (*models.PairingResult, error)
}

// MatchResultService reconciles self-reported results into one outcome.
type MatchResultService interface {
	// SubmitResult files a player's immutable result claim and, once all
	// players have reported, drives the match to a terminal outcome
	SubmitResult(ctx context.Context, matchID string, userID int64, claimed models.ClaimedStatus, screenshotKey string) (*models.Match, error)

	// DeclareWinner is the operator override: forces a non-paid-out match to
	// completed with an explicit winner
	DeclareWinner(ctx context.Context, matchID string, winnerID int64) (*models.Match, error)

	// CancelMatch voids a match and refunds both entry fees
	CancelMatch(ctx context.Context, matchID string, reason string) (*models.Match, error)
}

// PayoutService releases prize funds exactly once per completed match.
type PayoutService interface {
	// Distribute pays the stored prize pool to the winner, guarded against
	// re-entry; a second invocation is a no-op
	Distribute(ctx context.Context, matchID string) (*models.PayoutResult, error)
}

// ReferralService issues one-time referral commissions.
type ReferralService interface {
	// EvaluateDeposit pays the referrer's commission on a user's first
	// qualifying deposit; repeated or stale invocations are no-ops
	EvaluateDeposit(ctx context.Context, userID int64, depositAmount int64) error
}

// WalletService handles deposit/withdrawal requests and their review outcomes.
type WalletService interface {
	RequestDeposit(ctx context.Context, userID int64, amount int64, reference string) (*models.PaymentRequest, error)
	ApproveDeposit(ctx context.Context, requestID int64) error
	RequestWithdrawal(ctx context.Context, userID int64, amount int64) (*models.PaymentRequest, error)
	ApproveWithdrawal(ctx context.Context, requestID int64) error
	RejectWithdrawal(ctx context.Context, requestID int64) error
	AdminAdjust(ctx context.Context, userID int64, amount int64, note string) error
}

// UserService serves account reads and signup.
type UserService interface {
	GetOrCreateUser(ctx context.Context, username string, referredBy *int64) (*models.User, error)
	GetProfile(ctx context.Context, userID int64) (*models.Profile, error)
	GetLedger(ctx context.Context, userID int64, limit int) ([]*models.LedgerEntry, error)
	GetMatch(ctx context.Context, matchID string) (*models.Match, error)
}
