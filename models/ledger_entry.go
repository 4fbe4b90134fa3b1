package models

import (
	"time"
)

// LedgerEntryKind represents the type of balance change
type LedgerEntryKind string

const (
	LedgerEntryKindDeposit       LedgerEntryKind = "deposit"
	LedgerEntryKindWithdrawal    LedgerEntryKind = "withdrawal"
	LedgerEntryKindEntryFee      LedgerEntryKind = "entry_fee"
	LedgerEntryKindWinnings      LedgerEntryKind = "winnings"
	LedgerEntryKindRefund        LedgerEntryKind = "refund"
	LedgerEntryKindReferralBonus LedgerEntryKind = "referral_bonus"
	LedgerEntryKindAdminCredit   LedgerEntryKind = "admin_credit"
	LedgerEntryKindAdminDebit    LedgerEntryKind = "admin_debit"
)

// LedgerEntryStatus represents the processing state of a ledger entry
type LedgerEntryStatus string

const (
	LedgerEntryStatusPending   LedgerEntryStatus = "pending"
	LedgerEntryStatusCompleted LedgerEntryStatus = "completed"
	LedgerEntryStatusFailed    LedgerEntryStatus = "failed"
)

// LedgerEntry is an append-only signed monetary record; the sole input to
// balance mutation. IdempotencyKey is unique so a duplicate application of
// the same logical entry collapses into a no-op.
type LedgerEntry struct {
	ID             int64             `db:"id"`
	IdempotencyKey string            `db:"idempotency_key"`
	UserID         int64             `db:"user_id"`
	Amount         int64             `db:"amount"`
	Kind           LedgerEntryKind   `db:"kind"`
	Status         LedgerEntryStatus `db:"status"`
	FailReason     string            `db:"fail_reason"`
	MatchID        *string           `db:"match_id"`
	BalanceBefore  int64             `db:"balance_before"`
	BalanceAfter   int64             `db:"balance_after"`
	Metadata       map[string]any    `db:"metadata"`
	CreatedAt      time.Time         `db:"created_at"`
}

// IsTerminal reports whether the entry can no longer change state.
func (s LedgerEntryStatus) IsTerminal() bool {
	return s == LedgerEntryStatusCompleted || s == LedgerEntryStatusFailed
}
