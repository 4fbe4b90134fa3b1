package service

import (
	"context"
	"testing"

	"arenaserver/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMatchmakingService_JoinQueue(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid stake tier", func(t *testing.T) {
		svc := NewMatchmakingService(NewMockUnitOfWorkFactory(NewMockUnitOfWork()), 0.10)

		_, err := svc.JoinQueue(ctx, 1, 0)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("successful join", func(t *testing.T) {
		uow := NewMockUnitOfWork()
		svc := NewMatchmakingService(NewMockUnitOfWorkFactory(uow), 0.10)

		user := &models.User{ID: 1, Username: "alice", WalletBalance: 5000, Rating: 1200}
		uow.Users().On("GetForUpdate", mock.Anything, int64(1)).Return(user, nil)
		uow.QueueEntries().On("Insert", mock.Anything, mock.MatchedBy(func(e *models.QueueEntry) bool {
			return e.UserID == 1 && e.StakeTier == 2500 && e.Status == models.QueueEntryStatusWaiting &&
				e.DisplayName == "alice" && e.Rating == 1200
		})).Return(nil)

		entry, err := svc.JoinQueue(ctx, 1, 2500)
		require.NoError(t, err)
		assert.Equal(t, int64(2500), entry.StakeTier)
		uow.QueueEntries().AssertExpectations(t)
	})

	t.Run("cannot afford stake", func(t *testing.T) {
		uow := NewMockUnitOfWork()
		svc := NewMatchmakingService(NewMockUnitOfWorkFactory(uow), 0.10)

		user := &models.User{ID: 2, Username: "bob", WalletBalance: 100}
		uow.Users().On("GetForUpdate", mock.Anything, int64(2)).Return(user, nil)

		_, err := svc.JoinQueue(ctx, 2, 2500)
		assert.ErrorIs(t, err, ErrInsufficientFunds)
		uow.QueueEntries().AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	})

	t.Run("already in a match", func(t *testing.T) {
		uow := NewMockUnitOfWork()
		svc := NewMatchmakingService(NewMockUnitOfWorkFactory(uow), 0.10)

		matchID := "existing-match"
		user := &models.User{ID: 3, Username: "carol", WalletBalance: 5000, ActiveMatchID: &matchID}
		uow.Users().On("GetForUpdate", mock.Anything, int64(3)).Return(user, nil)

		_, err := svc.JoinQueue(ctx, 3, 2500)
		assert.ErrorIs(t, err, ErrPreconditionFailed)
	})
}

func TestMatchmakingService_TryPair(t *testing.T) {
	ctx := context.Background()

	t.Run("fewer than two waiting is a no-op", func(t *testing.T) {
		uow := NewMockUnitOfWork()
		svc := NewMatchmakingService(NewMockUnitOfWorkFactory(uow), 0.10)

		uow.QueueEntries().On("ClaimWaitingPair", mock.Anything, int64(2500)).
			Return([]*models.QueueEntry{{UserID: 1, StakeTier: 2500}}, nil)

		result, err := svc.TryPair(ctx, 2500)
		require.NoError(t, err)
		assert.Nil(t, result)
		uow.Matches().AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("pairs two players atomically", func(t *testing.T) {
		uow := NewMockUnitOfWork()
		svc := NewMatchmakingService(NewMockUnitOfWorkFactory(uow), 0.10)

		entries := []*models.QueueEntry{
			{UserID: 1, StakeTier: 10000, Status: models.QueueEntryStatusWaiting},
			{UserID: 2, StakeTier: 10000, Status: models.QueueEntryStatusWaiting},
		}
		playerOne := &models.User{ID: 1, Username: "alice", WalletBalance: 50000}
		playerTwo := &models.User{ID: 2, Username: "bob", WalletBalance: 50000}

		uow.QueueEntries().On("ClaimWaitingPair", mock.Anything, int64(10000)).Return(entries, nil)
		uow.Users().On("GetForUpdate", mock.Anything, int64(1)).Return(playerOne, nil)
		uow.Users().On("GetForUpdate", mock.Anything, int64(2)).Return(playerTwo, nil)
		uow.Matches().On("Create", mock.Anything, mock.MatchedBy(func(m *models.Match) bool {
			return m.EntryPot == 20000 && m.PrizePool == 18000 && m.Status == models.MatchStatusOpen
		})).Return(nil)
		uow.LedgerEntries().On("Insert", mock.Anything, mock.MatchedBy(func(e *models.LedgerEntry) bool {
			return e.Kind == models.LedgerEntryKindEntryFee && e.Amount == -10000
		})).Return(nil).Twice()
		uow.Users().On("ApplyBalanceDelta", mock.Anything, mock.Anything, int64(-10000)).Return(nil).Twice()
		uow.QueueEntries().On("MarkMatched", mock.Anything, mock.Anything).Return(nil).Twice()
		uow.QueueEntries().On("Delete", mock.Anything, mock.Anything).Return(nil).Twice()
		uow.Users().On("SetActiveMatch", mock.Anything, mock.Anything, mock.Anything).Return(nil).Twice()

		result, err := svc.TryPair(ctx, 10000)
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Len(t, result.EntryFees, 2)
		assert.Equal(t, int64(18000), result.Match.PrizePool)
		uow.Matches().AssertExpectations(t)
		uow.LedgerEntries().AssertExpectations(t)
		uow.QueueEntries().AssertExpectations(t)
	})

	t.Run("evicts player who can no longer afford the stake", func(t *testing.T) {
		pairUow := NewMockUnitOfWork()
		evictUow := NewMockUnitOfWork()
		svc := NewMatchmakingService(NewMockUnitOfWorkFactory(pairUow, evictUow), 0.10)

		entries := []*models.QueueEntry{
			{UserID: 5, StakeTier: 10000, Status: models.QueueEntryStatusWaiting},
			{UserID: 6, StakeTier: 10000, Status: models.QueueEntryStatusWaiting},
		}
		broke := &models.User{ID: 5, Username: "dave", WalletBalance: 100}

		pairUow.QueueEntries().On("ClaimWaitingPair", mock.Anything, int64(10000)).Return(entries, nil)
		pairUow.Users().On("GetForUpdate", mock.Anything, int64(5)).Return(broke, nil)
		evictUow.QueueEntries().On("Delete", mock.Anything, int64(5)).Return(nil)

		result, err := svc.TryPair(ctx, 10000)
		require.NoError(t, err)
		assert.Nil(t, result)
		pairUow.Matches().AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		evictUow.QueueEntries().AssertExpectations(t)
	})
}

func TestMatchmakingService_CancelQueue(t *testing.T) {
	ctx := context.Background()

	t.Run("cancels a waiting entry", func(t *testing.T) {
		uow := NewMockUnitOfWork()
		svc := NewMatchmakingService(NewMockUnitOfWorkFactory(uow), 0.10)

		uow.QueueEntries().On("DeleteWaiting", mock.Anything, int64(1)).Return(true, nil)

		err := svc.CancelQueue(ctx, 1)
		assert.NoError(t, err)
	})

	t.Run("cannot cancel a claimed entry", func(t *testing.T) {
		uow := NewMockUnitOfWork()
		svc := NewMatchmakingService(NewMockUnitOfWorkFactory(uow), 0.10)

		uow.QueueEntries().On("DeleteWaiting", mock.Anything, int64(1)).Return(false, nil)

		err := svc.CancelQueue(ctx, 1)
		assert.ErrorIs(t, err, ErrPreconditionFailed)
	})
}
