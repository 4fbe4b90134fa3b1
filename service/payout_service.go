package service

import (
	"context"
	"fmt"

	"arenaserver/models"

	log "github.com/sirupsen/logrus"
)

type payoutService struct {
	uowFactory      UnitOfWorkFactory
	ratingWinDelta  int
	ratingLossDelta int
}

// NewPayoutService creates a new payout service
func NewPayoutService(uowFactory UnitOfWorkFactory, ratingWinDelta, ratingLossDelta int) PayoutService {
	return &payoutService{
		uowFactory:      uowFactory,
		ratingWinDelta:  ratingWinDelta,
		ratingLossDelta: ratingLossDelta,
	}
}

// Distribute pays the stored prize pool to the winner exactly once. The
// match row lock plus the prize_distributed flag guard against concurrent
// invocations; the winnings idempotency key is the final backstop.
func (s *payoutService) Distribute(ctx context.Context, matchID string) (*models.PayoutResult, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	match, err := uow.MatchRepository().GetForUpdate(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock match: %w", err)
	}
	if match == nil {
		return nil, fmt.Errorf("match %s: %w", matchID, ErrNotFound)
	}
	if match.Status != models.MatchStatusCompleted {
		return nil, fmt.Errorf("match %s is %s, not completed: %w", matchID, match.Status, ErrPreconditionFailed)
	}
	if match.WinnerID == nil {
		return nil, fmt.Errorf("match %s completed without a winner: %w", matchID, ErrPreconditionFailed)
	}
	if match.PrizeDistributed {
		return nil, fmt.Errorf("prize already distributed for match %s: %w", matchID, ErrPreconditionFailed)
	}

	winnings := &models.LedgerEntry{
		IdempotencyKey: "winnings:" + match.ID,
		UserID:         *match.WinnerID,
		Amount:         match.PrizePool,
		Kind:           models.LedgerEntryKindWinnings,
		MatchID:        &match.ID,
	}
	if err := ApplyLedgerEntry(ctx, uow, winnings); err != nil {
		return nil, fmt.Errorf("failed to credit winnings: %w", err)
	}

	match.PrizeDistributed = true
	if err := uow.MatchRepository().Update(ctx, match); err != nil {
		return nil, fmt.Errorf("failed to mark prize distributed: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"matchID":  matchID,
		"winnerID": *match.WinnerID,
		"prize":    match.PrizePool,
	}).Info("Prize pool distributed")

	// Stats are best-effort bookkeeping: a failure here never claws back a
	// paid prize.
	s.updateStats(ctx, match)

	return &models.PayoutResult{
		Match:      match,
		Winnings:   winnings,
		Commission: match.EntryPot - match.PrizePool,
	}, nil
}

// updateStats bumps both players' match counters and ratings in a small
// follow-up transaction.
func (s *payoutService) updateStats(ctx context.Context, match *models.Match) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		log.WithField("matchID", match.ID).WithError(err).Error("Failed to begin stats transaction")
		return
	}
	defer uow.Rollback()

	for _, playerID := range match.PlayerIDs() {
		won := playerID == *match.WinnerID
		delta := s.ratingLossDelta
		if won {
			delta = s.ratingWinDelta
		}
		if err := uow.UserRepository().IncrementStats(ctx, playerID, won, delta); err != nil {
			log.WithFields(log.Fields{
				"matchID": match.ID,
				"userID":  playerID,
			}).WithError(err).Error("Failed to update player stats")
			return
		}
	}

	if err := uow.Commit(); err != nil {
		log.WithField("matchID", match.ID).WithError(err).Error("Failed to commit stats update")
	}
}
