package repository

import (
	"context"
	"fmt"

	"arenaserver/database"
	"arenaserver/models"
	"arenaserver/service"

	"github.com/jackc/pgx/v5"
)

// PaymentRequestRepository implements the PaymentRequestRepository interface
type PaymentRequestRepository struct {
	q queryable
}

// NewPaymentRequestRepository creates a new payment request repository
func NewPaymentRequestRepository(db *database.DB) *PaymentRequestRepository {
	return &PaymentRequestRepository{q: db.Pool}
}

// newPaymentRequestRepositoryWithTx creates a new payment request repository with a transaction
func newPaymentRequestRepositoryWithTx(tx queryable) *PaymentRequestRepository {
	return &PaymentRequestRepository{q: tx}
}

// Create persists a pending request
func (r *PaymentRequestRepository) Create(ctx context.Context, request *models.PaymentRequest) error {
	query := `
		INSERT INTO payment_requests (user_id, kind, amount, status, reference)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		request.UserID,
		request.Kind,
		request.Amount,
		request.Status,
		request.Reference,
	).Scan(&request.ID, &request.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create payment request for user %d: %w", request.UserID, err)
	}

	return nil
}

// GetForUpdate retrieves a request and locks the row until the transaction
// ends, serializing concurrent review decisions.
func (r *PaymentRequestRepository) GetForUpdate(ctx context.Context, requestID int64) (*models.PaymentRequest, error) {
	query := `
		SELECT id, user_id, kind, amount, status, reference, created_at, decided_at
		FROM payment_requests
		WHERE id = $1
		FOR UPDATE
	`

	var request models.PaymentRequest
	err := r.q.QueryRow(ctx, query, requestID).Scan(
		&request.ID,
		&request.UserID,
		&request.Kind,
		&request.Amount,
		&request.Status,
		&request.Reference,
		&request.CreatedAt,
		&request.DecidedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock payment request %d: %w", requestID, err)
	}

	return &request, nil
}

// Update writes a request's review state
func (r *PaymentRequestRepository) Update(ctx context.Context, request *models.PaymentRequest) error {
	query := `
		UPDATE payment_requests
		SET status = $1, decided_at = $2
		WHERE id = $3
	`

	result, err := r.q.Exec(ctx, query, request.Status, request.DecidedAt, request.ID)
	if err != nil {
		return fmt.Errorf("failed to update payment request %d: %w", request.ID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("payment request %d: %w", request.ID, service.ErrNotFound)
	}

	return nil
}
