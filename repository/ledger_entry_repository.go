package repository

import (
	"context"
	"errors"
	"fmt"

	"arenaserver/database"
	"arenaserver/models"
	"arenaserver/service"

	"github.com/jackc/pgx/v5/pgconn"
)

// LedgerEntryRepository implements the LedgerEntryRepository interface
type LedgerEntryRepository struct {
	q queryable
}

// NewLedgerEntryRepository creates a new ledger entry repository
func NewLedgerEntryRepository(db *database.DB) *LedgerEntryRepository {
	return &LedgerEntryRepository{q: db.Pool}
}

// newLedgerEntryRepositoryWithTx creates a new ledger entry repository with a transaction
func newLedgerEntryRepositoryWithTx(tx queryable) *LedgerEntryRepository {
	return &LedgerEntryRepository{q: tx}
}

// Insert appends an entry. The unique idempotency key makes a duplicate
// application of the same logical entry surface as ErrPreconditionFailed.
func (r *LedgerEntryRepository) Insert(ctx context.Context, entry *models.LedgerEntry) error {
	query := `
		INSERT INTO ledger_entries (idempotency_key, user_id, amount, kind, status, fail_reason, match_id, balance_before, balance_after, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		entry.IdempotencyKey,
		entry.UserID,
		entry.Amount,
		entry.Kind,
		entry.Status,
		entry.FailReason,
		entry.MatchID,
		entry.BalanceBefore,
		entry.BalanceAfter,
		entry.Metadata,
	).Scan(&entry.ID, &entry.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("ledger entry %s already exists: %w", entry.IdempotencyKey, service.ErrPreconditionFailed)
		}
		return fmt.Errorf("failed to insert ledger entry for user %d: %w", entry.UserID, err)
	}

	return nil
}

// ListByUser returns a user's most recent entries, newest first
func (r *LedgerEntryRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]*models.LedgerEntry, error) {
	query := `
		SELECT id, idempotency_key, user_id, amount, kind, status, fail_reason, match_id, balance_before, balance_after, metadata, created_at
		FROM ledger_entries
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries for user %d: %w", userID, err)
	}
	defer rows.Close()

	var entries []*models.LedgerEntry
	for rows.Next() {
		var entry models.LedgerEntry
		err := rows.Scan(
			&entry.ID,
			&entry.IdempotencyKey,
			&entry.UserID,
			&entry.Amount,
			&entry.Kind,
			&entry.Status,
			&entry.FailReason,
			&entry.MatchID,
			&entry.BalanceBefore,
			&entry.BalanceAfter,
			&entry.Metadata,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ledger entries: %w", err)
	}

	return entries, nil
}

// SumCompletedByUser returns the sum of completed entry amounts for a user.
// Against a consistent snapshot this equals the user's wallet balance.
func (r *LedgerEntryRepository) SumCompletedByUser(ctx context.Context, userID int64) (int64, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM ledger_entries
		WHERE user_id = $1 AND status = 'completed'
	`

	var sum int64
	if err := r.q.QueryRow(ctx, query, userID).Scan(&sum); err != nil {
		return 0, fmt.Errorf("failed to sum ledger entries for user %d: %w", userID, err)
	}

	return sum, nil
}
