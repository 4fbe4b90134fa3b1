package service

import (
	"context"
	"testing"

	"arenaserver/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestLedgerService_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("successful credit records balances", func(t *testing.T) {
		uow := NewMockUnitOfWork()
		svc := NewLedgerService(NewMockUnitOfWorkFactory(uow))

		user := &models.User{ID: 1, Username: "alice", WalletBalance: 1000}
		uow.Users().On("GetForUpdate", mock.Anything, int64(1)).Return(user, nil)
		uow.LedgerEntries().On("Insert", mock.Anything, mock.MatchedBy(func(e *models.LedgerEntry) bool {
			return e.Status == models.LedgerEntryStatusCompleted &&
				e.BalanceBefore == 1000 && e.BalanceAfter == 1500
		})).Return(nil)
		uow.Users().On("ApplyBalanceDelta", mock.Anything, int64(1), int64(500)).Return(nil)

		entry := &models.LedgerEntry{
			IdempotencyKey: "deposit:42",
			UserID:         1,
			Amount:         500,
			Kind:           models.LedgerEntryKindDeposit,
		}
		err := svc.Submit(ctx, entry)
		require.NoError(t, err)
		assert.Equal(t, int64(1000), entry.BalanceBefore)
		assert.Equal(t, int64(1500), entry.BalanceAfter)
		uow.Users().AssertExpectations(t)
		uow.LedgerEntries().AssertExpectations(t)
	})

	t.Run("overdraw persists failed entry", func(t *testing.T) {
		applyUow := NewMockUnitOfWork()
		failUow := NewMockUnitOfWork()
		svc := NewLedgerService(NewMockUnitOfWorkFactory(applyUow, failUow))

		user := &models.User{ID: 2, Username: "bob", WalletBalance: 100}
		applyUow.Users().On("GetForUpdate", mock.Anything, int64(2)).Return(user, nil)

		failUow.Users().On("GetByID", mock.Anything, int64(2)).Return(user, nil)
		failUow.LedgerEntries().On("Insert", mock.Anything, mock.MatchedBy(func(e *models.LedgerEntry) bool {
			return e.Status == models.LedgerEntryStatusFailed && e.FailReason != ""
		})).Return(nil)

		entry := &models.LedgerEntry{
			IdempotencyKey: "withdrawal-hold:7",
			UserID:         2,
			Amount:         -500,
			Kind:           models.LedgerEntryKindWithdrawal,
		}
		err := svc.Submit(ctx, entry)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInsufficientFunds)
		failUow.LedgerEntries().AssertExpectations(t)
	})

	t.Run("duplicate idempotency key is surfaced", func(t *testing.T) {
		uow := NewMockUnitOfWork()
		svc := NewLedgerService(NewMockUnitOfWorkFactory(uow))

		user := &models.User{ID: 3, Username: "carol", WalletBalance: 1000}
		uow.Users().On("GetForUpdate", mock.Anything, int64(3)).Return(user, nil)
		uow.LedgerEntries().On("Insert", mock.Anything, mock.Anything).Return(ErrPreconditionFailed)

		entry := &models.LedgerEntry{
			IdempotencyKey: "deposit:dup",
			UserID:         3,
			Amount:         500,
			Kind:           models.LedgerEntryKindDeposit,
		}
		err := svc.Submit(ctx, entry)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrPreconditionFailed)
		uow.Users().AssertNotCalled(t, "ApplyBalanceDelta", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown account", func(t *testing.T) {
		uow := NewMockUnitOfWork()
		svc := NewLedgerService(NewMockUnitOfWorkFactory(uow))

		uow.Users().On("GetForUpdate", mock.Anything, int64(99)).Return(nil, nil)

		entry := &models.LedgerEntry{
			IdempotencyKey: "deposit:99",
			UserID:         99,
			Amount:         500,
			Kind:           models.LedgerEntryKindDeposit,
		}
		err := svc.Submit(ctx, entry)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
