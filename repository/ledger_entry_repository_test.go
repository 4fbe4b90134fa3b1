package repository

import (
	"context"
	"testing"

	"arenaserver/models"
	"arenaserver/repository/testutil"
	"arenaserver/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerEntryRepository_Insert(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	userRepo := NewUserRepository(testDB.DB)
	repo := NewLedgerEntryRepository(testDB.DB)
	ctx := context.Background()

	user, err := userRepo.Create(ctx, "alice", nil, 100000)
	require.NoError(t, err)

	t.Run("successful insert", func(t *testing.T) {
		entry := testutil.NewTestLedgerEntry("deposit:1", user.ID, 5000, models.LedgerEntryKindDeposit)
		entry.BalanceBefore = 100000
		entry.BalanceAfter = 105000

		err := repo.Insert(ctx, entry)
		require.NoError(t, err)
		assert.NotZero(t, entry.ID)
		assert.False(t, entry.CreatedAt.IsZero())
	})

	t.Run("duplicate idempotency key", func(t *testing.T) {
		entry := testutil.NewTestLedgerEntry("deposit:dup", user.ID, 5000, models.LedgerEntryKindDeposit)
		require.NoError(t, repo.Insert(ctx, entry))

		dup := testutil.NewTestLedgerEntry("deposit:dup", user.ID, 5000, models.LedgerEntryKindDeposit)
		err := repo.Insert(ctx, dup)
		require.Error(t, err)
		assert.ErrorIs(t, err, service.ErrPreconditionFailed)
	})

	t.Run("failed entry persists with reason", func(t *testing.T) {
		entry := testutil.NewTestLedgerEntry("withdrawal:1", user.ID, -999999, models.LedgerEntryKindWithdrawal)
		entry.Status = models.LedgerEntryStatusFailed
		entry.FailReason = "insufficient funds"

		err := repo.Insert(ctx, entry)
		require.NoError(t, err)

		entries, err := repo.ListByUser(ctx, user.ID, 10)
		require.NoError(t, err)
		require.NotEmpty(t, entries)
		assert.Equal(t, models.LedgerEntryStatusFailed, entries[0].Status)
		assert.Equal(t, "insufficient funds", entries[0].FailReason)
	})
}

func TestLedgerEntryRepository_SumCompletedByUser(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	userRepo := NewUserRepository(testDB.DB)
	repo := NewLedgerEntryRepository(testDB.DB)
	ctx := context.Background()

	user, err := userRepo.Create(ctx, "bob", nil, 0)
	require.NoError(t, err)

	t.Run("no entries", func(t *testing.T) {
		sum, err := repo.SumCompletedByUser(ctx, user.ID)
		require.NoError(t, err)
		assert.Zero(t, sum)
	})

	t.Run("sums only completed entries", func(t *testing.T) {
		completed := []*models.LedgerEntry{
			testutil.NewTestLedgerEntry("deposit:sum-1", user.ID, 10000, models.LedgerEntryKindDeposit),
			testutil.NewTestLedgerEntry("entry-fee:sum-1", user.ID, -2500, models.LedgerEntryKindEntryFee),
			testutil.NewTestLedgerEntry("winnings:sum-1", user.ID, 4500, models.LedgerEntryKindWinnings),
		}
		for _, entry := range completed {
			require.NoError(t, repo.Insert(ctx, entry))
		}

		failed := testutil.NewTestLedgerEntry("withdrawal:sum-1", user.ID, -50000, models.LedgerEntryKindWithdrawal)
		failed.Status = models.LedgerEntryStatusFailed
		failed.FailReason = "insufficient funds"
		require.NoError(t, repo.Insert(ctx, failed))

		sum, err := repo.SumCompletedByUser(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(12000), sum)
	})
}

