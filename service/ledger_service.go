package service

import (
	"context"
	"errors"
	"fmt"

	"arenaserver/events"
	"arenaserver/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type ledgerService struct {
	uowFactory UnitOfWorkFactory
}

// NewLedgerService creates a new ledger service
func NewLedgerService(uowFactory UnitOfWorkFactory) LedgerService {
	return &ledgerService{
		uowFactory: uowFactory,
	}
}

// ApplyLedgerEntry is the single entry point for all balance mutation. It
// runs within the caller's transaction: the target account row is locked,
// the new balance computed and guarded against going negative, and the
// completed entry inserted together with the balance update. A duplicate
// idempotency key means the entry was already applied and is reported as
// ErrPreconditionFailed so duplicate trigger deliveries collapse into no-ops.
func ApplyLedgerEntry(ctx context.Context, uow UnitOfWork, entry *models.LedgerEntry) error {
	if entry.IdempotencyKey == "" {
		entry.IdempotencyKey = uuid.NewString()
	}

	user, err := uow.UserRepository().GetForUpdate(ctx, entry.UserID)
	if err != nil {
		return fmt.Errorf("failed to lock account %d: %w", entry.UserID, err)
	}
	if user == nil {
		return fmt.Errorf("account %d: %w", entry.UserID, ErrNotFound)
	}

	newBalance := user.WalletBalance + entry.Amount
	if newBalance < 0 {
		return fmt.Errorf("balance %d cannot cover %d: %w", user.WalletBalance, -entry.Amount, ErrInsufficientFunds)
	}

	entry.Status = models.LedgerEntryStatusCompleted
	entry.BalanceBefore = user.WalletBalance
	entry.BalanceAfter = newBalance

	if err := uow.LedgerEntryRepository().Insert(ctx, entry); err != nil {
		if errors.Is(err, ErrPreconditionFailed) {
			return fmt.Errorf("ledger entry %s already applied: %w", entry.IdempotencyKey, ErrPreconditionFailed)
		}
		return fmt.Errorf("failed to insert ledger entry: %w", err)
	}

	if err := uow.UserRepository().ApplyBalanceDelta(ctx, entry.UserID, entry.Amount); err != nil {
		return fmt.Errorf("failed to apply balance delta: %w", err)
	}

	uow.EventBus().Publish(events.LedgerEntryCompletedEvent{
		EntryID: entry.ID,
		UserID:  entry.UserID,
		Kind:    entry.Kind,
		Amount:  entry.Amount,
	})
	uow.EventBus().Publish(events.BalanceChangedEvent{
		UserID:     entry.UserID,
		OldBalance: entry.BalanceBefore,
		NewBalance: entry.BalanceAfter,
		Kind:       entry.Kind,
	})

	return nil
}

// Submit applies an entry in its own transaction. Financial failures are
// never silently dropped: an entry rejected for insufficient funds is
// re-persisted as failed with a reason, in a second transaction, for
// operator review.
func (s *ledgerService) Submit(ctx context.Context, entry *models.LedgerEntry) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	applyErr := ApplyLedgerEntry(ctx, uow, entry)
	if applyErr == nil {
		if err := uow.Commit(); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}
		return nil
	}

	if errors.Is(applyErr, ErrInsufficientFunds) {
		uow.Rollback()
		if err := s.recordFailure(ctx, entry, applyErr.Error()); err != nil {
			log.WithFields(log.Fields{
				"userID": entry.UserID,
				"kind":   entry.Kind,
			}).WithError(err).Error("Failed to record failed ledger entry")
		}
	}

	return applyErr
}

// recordFailure persists a rejected entry as failed so the reason stays
// inspectable.
func (s *ledgerService) recordFailure(ctx context.Context, entry *models.LedgerEntry, reason string) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByID(ctx, entry.UserID)
	if err != nil {
		return fmt.Errorf("failed to get account: %w", err)
	}

	entry.Status = models.LedgerEntryStatusFailed
	entry.FailReason = reason
	if user != nil {
		entry.BalanceBefore = user.WalletBalance
		entry.BalanceAfter = user.WalletBalance
	}

	if err := uow.LedgerEntryRepository().Insert(ctx, entry); err != nil {
		return fmt.Errorf("failed to insert failed entry: %w", err)
	}

	return uow.Commit()
}
