package service

import (
	"context"
	"testing"

	"arenaserver/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestReferralService_EvaluateDeposit(t *testing.T) {
	ctx := context.Background()
	referrerID := int64(10)

	t.Run("pays commission on first qualifying deposit", func(t *testing.T) {
		uow := NewMockUnitOfWork()
		svc := NewReferralService(NewMockUnitOfWorkFactory(uow), 0.05)

		referred := &models.User{ID: 1, Username: "alice", ReferredBy: &referrerID}
		referrer := &models.User{ID: 10, Username: "bob", WalletBalance: 1000}

		uow.Users().On("GetForUpdate", mock.Anything, int64(1)).Return(referred, nil)
		uow.Users().On("GetByID", mock.Anything, int64(10)).Return(referrer, nil)
		uow.Users().On("SetReferralBonusPaid", mock.Anything, int64(1)).Return(nil)
		uow.Users().On("GetForUpdate", mock.Anything, int64(10)).Return(referrer, nil)
		uow.LedgerEntries().On("Insert", mock.Anything, mock.MatchedBy(func(e *models.LedgerEntry) bool {
			return e.IdempotencyKey == "referral-bonus:1" && e.UserID == 10 &&
				e.Kind == models.LedgerEntryKindReferralBonus && e.Amount == 500
		})).Return(nil)
		uow.Users().On("ApplyBalanceDelta", mock.Anything, int64(10), int64(500)).Return(nil)

		err := svc.EvaluateDeposit(ctx, 1, 10000)
		require.NoError(t, err)
		uow.LedgerEntries().AssertExpectations(t)
	})

	t.Run("no referrer is a no-op", func(t *testing.T) {
		uow := NewMockUnitOfWork()
		svc := NewReferralService(NewMockUnitOfWorkFactory(uow), 0.05)

		uow.Users().On("GetForUpdate", mock.Anything, int64(2)).
			Return(&models.User{ID: 2, Username: "carol"}, nil)

		err := svc.EvaluateDeposit(ctx, 2, 10000)
		require.NoError(t, err)
		uow.LedgerEntries().AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	})

	t.Run("bonus already paid is a no-op", func(t *testing.T) {
		uow := NewMockUnitOfWork()
		svc := NewReferralService(NewMockUnitOfWorkFactory(uow), 0.05)

		referred := &models.User{ID: 3, Username: "dave", ReferredBy: &referrerID, ReferralBonusPaid: true}
		uow.Users().On("GetForUpdate", mock.Anything, int64(3)).Return(referred, nil)

		err := svc.EvaluateDeposit(ctx, 3, 10000)
		require.NoError(t, err)
		uow.Users().AssertNotCalled(t, "SetReferralBonusPaid", mock.Anything, mock.Anything)
	})

	t.Run("vanished referrer is skipped", func(t *testing.T) {
		uow := NewMockUnitOfWork()
		svc := NewReferralService(NewMockUnitOfWorkFactory(uow), 0.05)

		referred := &models.User{ID: 4, Username: "erin", ReferredBy: &referrerID}
		uow.Users().On("GetForUpdate", mock.Anything, int64(4)).Return(referred, nil)
		uow.Users().On("GetByID", mock.Anything, int64(10)).Return(nil, nil)

		err := svc.EvaluateDeposit(ctx, 4, 10000)
		require.NoError(t, err)
		uow.LedgerEntries().AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	})

	t.Run("concurrent evaluator losing the flag race is a no-op", func(t *testing.T) {
		uow := NewMockUnitOfWork()
		svc := NewReferralService(NewMockUnitOfWorkFactory(uow), 0.05)

		referred := &models.User{ID: 5, Username: "frank", ReferredBy: &referrerID}
		referrer := &models.User{ID: 10, Username: "bob"}
		uow.Users().On("GetForUpdate", mock.Anything, int64(5)).Return(referred, nil)
		uow.Users().On("GetByID", mock.Anything, int64(10)).Return(referrer, nil)
		uow.Users().On("SetReferralBonusPaid", mock.Anything, int64(5)).Return(ErrPreconditionFailed)

		err := svc.EvaluateDeposit(ctx, 5, 10000)
		require.NoError(t, err)
		uow.LedgerEntries().AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	})

	t.Run("non-positive deposit is ignored", func(t *testing.T) {
		svc := NewReferralService(NewMockUnitOfWorkFactory(NewMockUnitOfWork()), 0.05)

		assert.NoError(t, svc.EvaluateDeposit(ctx, 1, 0))
		assert.NoError(t, svc.EvaluateDeposit(ctx, 1, -500))
	})
}
