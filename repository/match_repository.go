package repository

import (
	"context"
	"fmt"

	"arenaserver/database"
	"arenaserver/models"
	"arenaserver/service"

	"github.com/jackc/pgx/v5"
)

const matchColumns = `
	id, stake_tier, entry_pot, prize_pool, player_one_id, player_two_id,
	status, status_reason, winner_id, prize_distributed, created_at, updated_at`

// MatchRepository implements the MatchRepository interface
type MatchRepository struct {
	q queryable
}

// NewMatchRepository creates a new match repository
func NewMatchRepository(db *database.DB) *MatchRepository {
	return &MatchRepository{q: db.Pool}
}

// newMatchRepositoryWithTx creates a new match repository with a transaction
func newMatchRepositoryWithTx(tx queryable) *MatchRepository {
	return &MatchRepository{q: tx}
}

func scanMatch(row pgx.Row) (*models.Match, error) {
	var match models.Match
	err := row.Scan(
		&match.ID,
		&match.StakeTier,
		&match.EntryPot,
		&match.PrizePool,
		&match.PlayerOneID,
		&match.PlayerTwoID,
		&match.Status,
		&match.StatusReason,
		&match.WinnerID,
		&match.PrizeDistributed,
		&match.CreatedAt,
		&match.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &match, nil
}

// Create persists a new match
func (r *MatchRepository) Create(ctx context.Context, match *models.Match) error {
	query := `
		INSERT INTO matches (id, stake_tier, entry_pot, prize_pool, player_one_id, player_two_id, status, status_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		match.ID,
		match.StakeTier,
		match.EntryPot,
		match.PrizePool,
		match.PlayerOneID,
		match.PlayerTwoID,
		match.Status,
		match.StatusReason,
	).Scan(&match.CreatedAt, &match.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create match %s: %w", match.ID, err)
	}

	return nil
}

// GetByID retrieves a match by id
func (r *MatchRepository) GetByID(ctx context.Context, matchID string) (*models.Match, error) {
	query := `SELECT` + matchColumns + ` FROM matches WHERE id = $1`

	match, err := scanMatch(r.q.QueryRow(ctx, query, matchID))
	if err != nil {
		return nil, fmt.Errorf("failed to get match %s: %w", matchID, err)
	}
	return match, nil
}

// GetForUpdate retrieves a match and locks the row until the transaction
// ends. Every state transition and the payout guard go through this lock.
func (r *MatchRepository) GetForUpdate(ctx context.Context, matchID string) (*models.Match, error) {
	query := `SELECT` + matchColumns + ` FROM matches WHERE id = $1 FOR UPDATE`

	match, err := scanMatch(r.q.QueryRow(ctx, query, matchID))
	if err != nil {
		return nil, fmt.Errorf("failed to lock match %s: %w", matchID, err)
	}
	return match, nil
}

// Update writes a match's mutable fields
func (r *MatchRepository) Update(ctx context.Context, match *models.Match) error {
	query := `
		UPDATE matches
		SET status = $1, status_reason = $2, winner_id = $3, prize_distributed = $4, updated_at = NOW()
		WHERE id = $5
	`

	result, err := r.q.Exec(ctx, query,
		match.Status,
		match.StatusReason,
		match.WinnerID,
		match.PrizeDistributed,
		match.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update match %s: %w", match.ID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("match %s: %w", match.ID, service.ErrNotFound)
	}

	return nil
}
