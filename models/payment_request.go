package models

import (
	"time"
)

// PaymentRequestKind distinguishes deposits from withdrawals
type PaymentRequestKind string

const (
	PaymentRequestKindDeposit    PaymentRequestKind = "deposit"
	PaymentRequestKindWithdrawal PaymentRequestKind = "withdrawal"
)

// PaymentRequestStatus represents the review state of a payment request
type PaymentRequestStatus string

const (
	PaymentRequestStatusPending  PaymentRequestStatus = "pending"
	PaymentRequestStatusApproved PaymentRequestStatus = "approved"
	PaymentRequestStatusRejected PaymentRequestStatus = "rejected"
)

// PaymentRequest is a deposit or withdrawal awaiting operator review.
// Withdrawal funds are held (debited) when the request is filed and refunded
// on rejection.
type PaymentRequest struct {
	ID        int64                `db:"id"`
	UserID    int64                `db:"user_id"`
	Kind      PaymentRequestKind   `db:"kind"`
	Amount    int64                `db:"amount"`
	Status    PaymentRequestStatus `db:"status"`
	Reference string               `db:"reference"`
	CreatedAt time.Time            `db:"created_at"`
	DecidedAt *time.Time           `db:"decided_at"`
}
