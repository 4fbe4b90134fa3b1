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

// ResultSubmissionRepository implements the ResultSubmissionRepository interface
type ResultSubmissionRepository struct {
	q queryable
}

// NewResultSubmissionRepository creates a new result submission repository
func NewResultSubmissionRepository(db *database.DB) *ResultSubmissionRepository {
	return &ResultSubmissionRepository{q: db.Pool}
}

// newResultSubmissionRepositoryWithTx creates a new result submission repository with a transaction
func newResultSubmissionRepositoryWithTx(tx queryable) *ResultSubmissionRepository {
	return &ResultSubmissionRepository{q: tx}
}

// Create persists an immutable submission. The (match_id, user_id) primary
// key makes a second claim from the same player surface as
// ErrPreconditionFailed.
func (r *ResultSubmissionRepository) Create(ctx context.Context, submission *models.ResultSubmission) error {
	query := `
		INSERT INTO result_submissions (match_id, user_id, claimed_status, screenshot_key)
		VALUES ($1, $2, $3, $4)
		RETURNING submitted_at
	`

	err := r.q.QueryRow(ctx, query,
		submission.MatchID,
		submission.UserID,
		submission.ClaimedStatus,
		submission.ScreenshotKey,
	).Scan(&submission.SubmittedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("user %d already submitted a result for match %s: %w",
				submission.UserID, submission.MatchID, service.ErrPreconditionFailed)
		}
		return fmt.Errorf("failed to create result submission for match %s: %w", submission.MatchID, err)
	}

	return nil
}

// ListByMatch returns all submissions for a match in submission order
func (r *ResultSubmissionRepository) ListByMatch(ctx context.Context, matchID string) ([]*models.ResultSubmission, error) {
	query := `
		SELECT match_id, user_id, claimed_status, screenshot_key, submitted_at
		FROM result_submissions
		WHERE match_id = $1
		ORDER BY submitted_at
	`

	rows, err := r.q.Query(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list result submissions for match %s: %w", matchID, err)
	}
	defer rows.Close()

	var submissions []*models.ResultSubmission
	for rows.Next() {
		var submission models.ResultSubmission
		err := rows.Scan(
			&submission.MatchID,
			&submission.UserID,
			&submission.ClaimedStatus,
			&submission.ScreenshotKey,
			&submission.SubmittedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan result submission: %w", err)
		}
		submissions = append(submissions, &submission)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate result submissions: %w", err)
	}

	return submissions, nil
}
