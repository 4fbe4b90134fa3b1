package repository

import (
	"context"
	"errors"
	"fmt"

	"arenaserver/database"
	"arenaserver/models"
	"arenaserver/service"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// QueueEntryRepository implements the QueueEntryRepository interface
type QueueEntryRepository struct {
	q queryable
}

// NewQueueEntryRepository creates a new queue entry repository
func NewQueueEntryRepository(db *database.DB) *QueueEntryRepository {
	return &QueueEntryRepository{q: db.Pool}
}

// newQueueEntryRepositoryWithTx creates a new queue entry repository with a transaction
func newQueueEntryRepositoryWithTx(tx queryable) *QueueEntryRepository {
	return &QueueEntryRepository{q: tx}
}

// Insert adds a waiting entry. The user id is the primary key, so a player
// already queued (or already claimed) surfaces as ErrPreconditionFailed.
func (r *QueueEntryRepository) Insert(ctx context.Context, entry *models.QueueEntry) error {
	query := `
		INSERT INTO queue_entries (user_id, stake_tier, status, display_name, rating)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING joined_at
	`

	err := r.q.QueryRow(ctx, query,
		entry.UserID,
		entry.StakeTier,
		entry.Status,
		entry.DisplayName,
		entry.Rating,
	).Scan(&entry.JoinedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("user %d already queued: %w", entry.UserID, service.ErrPreconditionFailed)
		}
		return fmt.Errorf("failed to insert queue entry for user %d: %w", entry.UserID, err)
	}

	return nil
}

// GetByUserID retrieves a user's queue entry, if any
func (r *QueueEntryRepository) GetByUserID(ctx context.Context, userID int64) (*models.QueueEntry, error) {
	query := `
		SELECT user_id, stake_tier, status, display_name, rating, joined_at
		FROM queue_entries
		WHERE user_id = $1
	`

	var entry models.QueueEntry
	err := r.q.QueryRow(ctx, query, userID).Scan(
		&entry.UserID,
		&entry.StakeTier,
		&entry.Status,
		&entry.DisplayName,
		&entry.Rating,
		&entry.JoinedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get queue entry for user %d: %w", userID, err)
	}

	return &entry, nil
}

// ClaimWaitingPair locks up to two of the longest-waiting entries at a stake
// tier. SKIP LOCKED lets concurrent pairing attempts claim disjoint rows
// instead of blocking on each other, so the same entry can never end up in
// two matches.
func (r *QueueEntryRepository) ClaimWaitingPair(ctx context.Context, stakeTier int64) ([]*models.QueueEntry, error) {
	query := `
		SELECT user_id, stake_tier, status, display_name, rating, joined_at
		FROM queue_entries
		WHERE stake_tier = $1 AND status = 'waiting'
		ORDER BY joined_at
		LIMIT 2
		FOR UPDATE SKIP LOCKED
	`

	rows, err := r.q.Query(ctx, query, stakeTier)
	if err != nil {
		return nil, fmt.Errorf("failed to claim waiting pair at tier %d: %w", stakeTier, err)
	}
	defer rows.Close()

	var entries []*models.QueueEntry
	for rows.Next() {
		var entry models.QueueEntry
		err := rows.Scan(
			&entry.UserID,
			&entry.StakeTier,
			&entry.Status,
			&entry.DisplayName,
			&entry.Rating,
			&entry.JoinedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan queue entry: %w", err)
		}
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate queue entries: %w", err)
	}

	return entries, nil
}

// MarkMatched flags a claimed entry as consumed by a pairing before it is
// removed.
func (r *QueueEntryRepository) MarkMatched(ctx context.Context, userID int64) error {
	query := `
		UPDATE queue_entries
		SET status = 'matched'
		WHERE user_id = $1
	`

	result, err := r.q.Exec(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to mark queue entry matched for user %d: %w", userID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("queue entry for user %d: %w", userID, service.ErrNotFound)
	}
	return nil
}

// DeleteWaiting removes an entry only while it is still waiting and reports
// whether a row was removed. An entry already claimed by a pairer is left
// alone.
func (r *QueueEntryRepository) DeleteWaiting(ctx context.Context, userID int64) (bool, error) {
	query := `
		DELETE FROM queue_entries
		WHERE user_id = $1 AND status = 'waiting'
	`

	result, err := r.q.Exec(ctx, query, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete waiting queue entry for user %d: %w", userID, err)
	}

	return result.RowsAffected() > 0, nil
}

// Delete removes an entry unconditionally
func (r *QueueEntryRepository) Delete(ctx context.Context, userID int64) error {
	query := `DELETE FROM queue_entries WHERE user_id = $1`

	if _, err := r.q.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to delete queue entry for user %d: %w", userID, err)
	}
	return nil
}

// WaitingTiers returns the distinct stake tiers with at least two waiting
// entries, oldest demand first.
func (r *QueueEntryRepository) WaitingTiers(ctx context.Context) ([]int64, error) {
	query := `
		SELECT stake_tier
		FROM queue_entries
		WHERE status = 'waiting'
		GROUP BY stake_tier
		HAVING COUNT(*) >= 2
		ORDER BY MIN(joined_at)
	`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get waiting tiers: %w", err)
	}
	defer rows.Close()

	var tiers []int64
	for rows.Next() {
		var tier int64
		if err := rows.Scan(&tier); err != nil {
			return nil, fmt.Errorf("failed to scan stake tier: %w", err)
		}
		tiers = append(tiers, tier)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stake tiers: %w", err)
	}

	return tiers, nil
}
