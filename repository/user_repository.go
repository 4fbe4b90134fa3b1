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

const userColumns = `
	id, username, wallet_balance, referred_by, referral_bonus_paid,
	active_match_id, matches_played, matches_won, rating, created_at, updated_at`

// UserRepository implements the UserRepository interface
type UserRepository struct {
	q queryable
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{q: db.Pool}
}

// newUserRepositoryWithTx creates a new user repository with a transaction
func newUserRepositoryWithTx(tx queryable) *UserRepository {
	return &UserRepository{q: tx}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.WalletBalance,
		&user.ReferredBy,
		&user.ReferralBonusPaid,
		&user.ActiveMatchID,
		&user.MatchesPlayed,
		&user.MatchesWon,
		&user.Rating,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByID retrieves a user by id
func (r *UserRepository) GetByID(ctx context.Context, userID int64) (*models.User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.q.QueryRow(ctx, query, userID))
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}
	return user, nil
}

// GetByUsername retrieves a user by username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE username = $1`

	user, err := scanUser(r.q.QueryRow(ctx, query, username))
	if err != nil {
		return nil, fmt.Errorf("failed to get user %q: %w", username, err)
	}
	return user, nil
}

// GetForUpdate retrieves a user and locks the row until the transaction ends
func (r *UserRepository) GetForUpdate(ctx context.Context, userID int64) (*models.User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE id = $1 FOR UPDATE`

	user, err := scanUser(r.q.QueryRow(ctx, query, userID))
	if err != nil {
		return nil, fmt.Errorf("failed to lock user %d: %w", userID, err)
	}
	return user, nil
}

// Create creates a new user, optionally attributed to a referrer
func (r *UserRepository) Create(ctx context.Context, username string, referredBy *int64, startingBalance int64) (*models.User, error) {
	query := `
		INSERT INTO users (username, wallet_balance, referred_by)
		VALUES ($1, $2, $3)
		RETURNING` + userColumns

	user, err := scanUser(r.q.QueryRow(ctx, query, username, startingBalance, referredBy))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, fmt.Errorf("username %q already taken: %w", username, service.ErrPreconditionFailed)
		}
		return nil, fmt.Errorf("failed to create user %q: %w", username, err)
	}
	return user, nil
}

// ApplyBalanceDelta adjusts wallet_balance atomically. The update predicate
// mirrors the table's non-negativity constraint so an overdraw surfaces as
// ErrInsufficientFunds instead of a constraint violation.
func (r *UserRepository) ApplyBalanceDelta(ctx context.Context, userID int64, delta int64) error {
	query := `
		UPDATE users
		SET wallet_balance = wallet_balance + $1, updated_at = NOW()
		WHERE id = $2 AND wallet_balance + $1 >= 0
	`

	result, err := r.q.Exec(ctx, query, delta, userID)
	if err != nil {
		return fmt.Errorf("failed to apply balance delta for user %d: %w", userID, err)
	}

	if result.RowsAffected() == 0 {
		user, err := r.GetByID(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to check user %d: %w", userID, err)
		}
		if user == nil {
			return fmt.Errorf("user %d: %w", userID, service.ErrNotFound)
		}
		return fmt.Errorf("balance %d cannot absorb delta %d: %w", user.WalletBalance, delta, service.ErrInsufficientFunds)
	}

	return nil
}

// SetActiveMatch records or clears the match a user is currently playing
func (r *UserRepository) SetActiveMatch(ctx context.Context, userID int64, matchID *string) error {
	query := `
		UPDATE users
		SET active_match_id = $1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.q.Exec(ctx, query, matchID, userID)
	if err != nil {
		return fmt.Errorf("failed to set active match for user %d: %w", userID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %d: %w", userID, service.ErrNotFound)
	}
	return nil
}

// SetReferralBonusPaid marks the one-time referral bonus as issued. Reports
// ErrPreconditionFailed if it was already marked, so concurrent evaluators
// cannot both pay out.
func (r *UserRepository) SetReferralBonusPaid(ctx context.Context, userID int64) error {
	query := `
		UPDATE users
		SET referral_bonus_paid = TRUE, updated_at = NOW()
		WHERE id = $1 AND referral_bonus_paid = FALSE
	`

	result, err := r.q.Exec(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to mark referral bonus paid for user %d: %w", userID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("referral bonus already paid for user %d: %w", userID, service.ErrPreconditionFailed)
	}
	return nil
}

// IncrementStats bumps matches_played (and matches_won for winners) and
// applies a rating delta floored at zero.
func (r *UserRepository) IncrementStats(ctx context.Context, userID int64, won bool, ratingDelta int) error {
	wonIncrement := 0
	if won {
		wonIncrement = 1
	}

	query := `
		UPDATE users
		SET matches_played = matches_played + 1,
		    matches_won = matches_won + $1,
		    rating = GREATEST(rating + $2, 0),
		    updated_at = NOW()
		WHERE id = $3
	`

	result, err := r.q.Exec(ctx, query, wonIncrement, ratingDelta, userID)
	if err != nil {
		return fmt.Errorf("failed to increment stats for user %d: %w", userID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %d: %w", userID, service.ErrNotFound)
	}
	return nil
}
