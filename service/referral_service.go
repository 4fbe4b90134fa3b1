package service

import (
	"context"
	"errors"
	"fmt"

	"arenaserver/models"

	log "github.com/sirupsen/logrus"
)

type referralService struct {
	uowFactory UnitOfWorkFactory
	bonusRate  float64
}

// NewReferralService creates a new referral service
func NewReferralService(uowFactory UnitOfWorkFactory, bonusRate float64) ReferralService {
	return &referralService{
		uowFactory: uowFactory,
		bonusRate:  bonusRate,
	}
}

// EvaluateDeposit pays the referrer's one-time commission on a qualifying
// deposit. Users without a referrer, and users whose bonus was already
// issued, are silent no-ops; the referral_bonus_paid flip and the bonus
// credit commit atomically so the commission can never double-pay.
func (s *referralService) EvaluateDeposit(ctx context.Context, userID int64, depositAmount int64) error {
	if depositAmount <= 0 {
		return nil
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetForUpdate(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to lock user: %w", err)
	}
	if user == nil || user.ReferredBy == nil || user.ReferralBonusPaid {
		return nil
	}

	referrer, err := uow.UserRepository().GetByID(ctx, *user.ReferredBy)
	if err != nil {
		return fmt.Errorf("failed to get referrer: %w", err)
	}
	if referrer == nil {
		log.WithFields(log.Fields{
			"userID":     userID,
			"referrerID": *user.ReferredBy,
		}).Warn("Referrer no longer exists, skipping commission")
		return nil
	}

	amount := int64(float64(depositAmount) * s.bonusRate)
	if amount <= 0 {
		return nil
	}

	if err := uow.UserRepository().SetReferralBonusPaid(ctx, userID); err != nil {
		if errors.Is(err, ErrPreconditionFailed) {
			return nil
		}
		return err
	}

	bonus := &models.LedgerEntry{
		IdempotencyKey: fmt.Sprintf("referral-bonus:%d", userID),
		UserID:         referrer.ID,
		Amount:         amount,
		Kind:           models.LedgerEntryKindReferralBonus,
		Metadata: map[string]any{
			"referred_user_id": userID,
			"deposit_amount":   depositAmount,
		},
	}

	if err := ApplyLedgerEntry(ctx, uow, bonus); err != nil {
		if errors.Is(err, ErrPreconditionFailed) {
			// The bonus entry already exists from an earlier delivery.
			return nil
		}
		return fmt.Errorf("failed to credit referral bonus: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"userID":     userID,
		"referrerID": referrer.ID,
		"bonus":      bonus.Amount,
	}).Info("Referral commission paid")

	return nil
}
