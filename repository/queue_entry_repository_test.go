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

func TestQueueEntryRepository_ClaimWaitingPair(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	userRepo := NewUserRepository(testDB.DB)
	queueRepo := NewQueueEntryRepository(testDB.DB)
	ctx := context.Background()

	var users []*models.User
	for _, name := range []string{"dave", "erin", "frank"} {
		user, err := userRepo.Create(ctx, name, nil, 10000)
		require.NoError(t, err)
		users = append(users, user)
	}

	t.Run("fewer than two waiting", func(t *testing.T) {
		entry := testutil.NewTestQueueEntry(users[0].ID, 2500)
		require.NoError(t, queueRepo.Insert(ctx, entry))

		pair, err := queueRepo.ClaimWaitingPair(ctx, 2500)
		require.NoError(t, err)
		assert.Len(t, pair, 1)
	})

	t.Run("claims oldest pair at tier", func(t *testing.T) {
		for _, user := range users[1:] {
			require.NoError(t, queueRepo.Insert(ctx, testutil.NewTestQueueEntry(user.ID, 2500)))
		}

		pair, err := queueRepo.ClaimWaitingPair(ctx, 2500)
		require.NoError(t, err)
		require.Len(t, pair, 2)
		assert.Equal(t, users[0].ID, pair[0].UserID)
		assert.Equal(t, users[1].ID, pair[1].UserID)
	})

	t.Run("duplicate entry rejected", func(t *testing.T) {
		err := queueRepo.Insert(ctx, testutil.NewTestQueueEntry(users[0].ID, 5000))
		assert.ErrorIs(t, err, service.ErrPreconditionFailed)
	})

	t.Run("waiting tiers", func(t *testing.T) {
		tiers, err := queueRepo.WaitingTiers(ctx)
		require.NoError(t, err)
		assert.Contains(t, tiers, int64(2500))
	})

	t.Run("matched entries leave the waiting pool", func(t *testing.T) {
		require.NoError(t, queueRepo.MarkMatched(ctx, users[0].ID))

		entry, err := queueRepo.GetByUserID(ctx, users[0].ID)
		require.NoError(t, err)
		require.NotNil(t, entry)
		assert.Equal(t, models.QueueEntryStatusMatched, entry.Status)

		removed, err := queueRepo.DeleteWaiting(ctx, users[0].ID)
		require.NoError(t, err)
		assert.False(t, removed)
	})
}
