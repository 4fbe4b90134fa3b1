package service

import (
	"context"
	"fmt"
	"sort"

	"arenaserver/events"
	"arenaserver/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type matchmakingService struct {
	uowFactory     UnitOfWorkFactory
	commissionRate float64
}

// NewMatchmakingService creates a new matchmaking service
func NewMatchmakingService(uowFactory UnitOfWorkFactory, commissionRate float64) MatchmakingService {
	return &matchmakingService{
		uowFactory:     uowFactory,
		commissionRate: commissionRate,
	}
}

// JoinQueue enters a player into the queue for a stake tier. The player must
// exist, be free of an active match, and afford the stake at entry time.
func (s *matchmakingService) JoinQueue(ctx context.Context, userID int64, stakeTier int64) (*models.QueueEntry, error) {
	if stakeTier <= 0 {
		return nil, fmt.Errorf("stake tier must be positive: %w", ErrValidation)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetForUpdate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	if user.ActiveMatchID != nil {
		return nil, fmt.Errorf("user %d already in match %s: %w", userID, *user.ActiveMatchID, ErrPreconditionFailed)
	}
	if user.WalletBalance < stakeTier {
		return nil, fmt.Errorf("balance %d below stake %d: %w", user.WalletBalance, stakeTier, ErrInsufficientFunds)
	}

	entry := &models.QueueEntry{
		UserID:      userID,
		StakeTier:   stakeTier,
		Status:      models.QueueEntryStatusWaiting,
		DisplayName: user.Username,
		Rating:      user.Rating,
	}
	if err := uow.QueueEntryRepository().Insert(ctx, entry); err != nil {
		return nil, err
	}

	uow.EventBus().Publish(events.QueueEntryWaitingEvent{
		UserID:    userID,
		StakeTier: stakeTier,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"userID":    userID,
		"stakeTier": stakeTier,
	}).Info("Player joined matchmaking queue")

	return entry, nil
}

// CancelQueue withdraws a player from the queue. Fails with
// ErrPreconditionFailed once the entry is claimed or gone, so a cancel can
// never race a pairing into a half-formed match.
func (s *matchmakingService) CancelQueue(ctx context.Context, userID int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	removed, err := uow.QueueEntryRepository().DeleteWaiting(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to cancel queue entry: %w", err)
	}
	if !removed {
		return fmt.Errorf("no cancellable queue entry for user %d: %w", userID, ErrPreconditionFailed)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithField("userID", userID).Info("Player left matchmaking queue")
	return nil
}

// TryPair attempts to convert two waiting entries at a tier into one match
// plus two entry-fee debits, all in a single transaction. Either both
// players are charged and the match exists, or nothing changed.
func (s *matchmakingService) TryPair(ctx context.Context, stakeTier int64) (*models.PairingResult, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	entries, err := uow.QueueEntryRepository().ClaimWaitingPair(ctx, stakeTier)
	if err != nil {
		return nil, fmt.Errorf("failed to claim waiting pair: %w", err)
	}
	if len(entries) < 2 {
		return nil, nil
	}

	// Lock user rows in ascending id order so concurrent pairings at
	// different tiers cannot deadlock on overlapping players.
	userIDs := []int64{entries[0].UserID, entries[1].UserID}
	sort.Slice(userIDs, func(i, j int) bool { return userIDs[i] < userIDs[j] })

	for _, userID := range userIDs {
		user, err := uow.UserRepository().GetForUpdate(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to lock user %d: %w", userID, err)
		}
		if user == nil || user.ActiveMatchID != nil || user.WalletBalance < stakeTier {
			// The queue entry no longer reflects an eligible player.
			// Abort this pairing and evict the entry so the tier is not
			// livelocked on a player who can never be paired.
			uow.Rollback()
			s.evict(ctx, userID)
			return nil, nil
		}
	}

	entryPot := stakeTier * 2
	commission := int64(float64(entryPot) * s.commissionRate)
	match := &models.Match{
		ID:          uuid.NewString(),
		StakeTier:   stakeTier,
		EntryPot:    entryPot,
		PrizePool:   entryPot - commission,
		PlayerOneID: entries[0].UserID,
		PlayerTwoID: entries[1].UserID,
		Status:      models.MatchStatusOpen,
	}
	if err := uow.MatchRepository().Create(ctx, match); err != nil {
		return nil, fmt.Errorf("failed to create match: %w", err)
	}

	var fees []*models.LedgerEntry
	for _, userID := range userIDs {
		fee := &models.LedgerEntry{
			IdempotencyKey: fmt.Sprintf("entry-fee:%s:%d", match.ID, userID),
			UserID:         userID,
			Amount:         -stakeTier,
			Kind:           models.LedgerEntryKindEntryFee,
			MatchID:        &match.ID,
		}
		if err := ApplyLedgerEntry(ctx, uow, fee); err != nil {
			return nil, fmt.Errorf("failed to charge entry fee for user %d: %w", userID, err)
		}
		fees = append(fees, fee)

		// Consumed entries pass through matched before removal.
		if err := uow.QueueEntryRepository().MarkMatched(ctx, userID); err != nil {
			return nil, fmt.Errorf("failed to mark queue entry matched: %w", err)
		}
		if err := uow.QueueEntryRepository().Delete(ctx, userID); err != nil {
			return nil, fmt.Errorf("failed to remove queue entry: %w", err)
		}
		if err := uow.UserRepository().SetActiveMatch(ctx, userID, &match.ID); err != nil {
			return nil, fmt.Errorf("failed to set active match: %w", err)
		}
	}

	uow.EventBus().Publish(events.MatchCreatedEvent{
		MatchID:     match.ID,
		StakeTier:   stakeTier,
		PlayerOneID: match.PlayerOneID,
		PlayerTwoID: match.PlayerTwoID,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"matchID":   match.ID,
		"stakeTier": stakeTier,
		"playerOne": match.PlayerOneID,
		"playerTwo": match.PlayerTwoID,
		"prizePool": match.PrizePool,
	}).Info("Match created from queue pair")

	return &models.PairingResult{Match: match, EntryFees: fees}, nil
}

// evict drops a stale queue entry in its own transaction after a pairing
// attempt was rolled back.
func (s *matchmakingService) evict(ctx context.Context, userID int64) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		log.WithField("userID", userID).WithError(err).Error("Failed to begin eviction transaction")
		return
	}
	defer uow.Rollback()

	if err := uow.QueueEntryRepository().Delete(ctx, userID); err != nil {
		log.WithField("userID", userID).WithError(err).Error("Failed to evict stale queue entry")
		return
	}
	if err := uow.Commit(); err != nil {
		log.WithField("userID", userID).WithError(err).Error("Failed to commit eviction")
		return
	}

	log.WithField("userID", userID).Warn("Evicted ineligible player from matchmaking queue")
}
