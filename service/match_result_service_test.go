package service

import (
	"context"
	"testing"

	"arenaserver/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newVerificationMatch(id string) *models.Match {
	return &models.Match{
		ID:          id,
		StakeTier:   10000,
		EntryPot:    20000,
		PrizePool:   18000,
		PlayerOneID: 1,
		PlayerTwoID: 2,
		Status:      models.MatchStatusVerification,
	}
}

func TestMatchResultService_SubmitResult(t *testing.T) {
	ctx := context.Background()

	t.Run("first submission moves match into verification", func(t *testing.T) {
		uow := NewMockUnitOfWork()
		svc := NewMatchResultService(NewMockUnitOfWorkFactory(uow))

		match := newVerificationMatch("m1")
		match.Status = models.MatchStatusOpen

		uow.Matches().On("GetForUpdate", mock.Anything, "m1").Return(match, nil)
		uow.ResultSubmissions().On("Create", mock.Anything, mock.Anything).Return(nil)
		uow.ResultSubmissions().On("ListByMatch", mock.Anything, "m1").
			Return([]*models.ResultSubmission{{MatchID: "m1", UserID: 1, ClaimedStatus: models.ClaimedStatusWin}}, nil)
		uow.Matches().On("Update", mock.Anything, match).Return(nil)

		updated, err := svc.SubmitResult(ctx, "m1", 1, models.ClaimedStatusWin, "s3://shot-1")
		require.NoError(t, err)
		assert.Equal(t, models.MatchStatusVerification, updated.Status)
	})

	t.Run("agreeing claims complete the match", func(t *testing.T) {
		uow := NewMockUnitOfWork()
		svc := NewMatchResultService(NewMockUnitOfWorkFactory(uow))

		match := newVerificationMatch("m2")
		submissions := []*models.ResultSubmission{
			{MatchID: "m2", UserID: 1, ClaimedStatus: models.ClaimedStatusWin, ScreenshotKey: "s3://shot-1"},
			{MatchID: "m2", UserID: 2, ClaimedStatus: models.ClaimedStatusLoss, ScreenshotKey: "s3://shot-2"},
		}

		uow.Matches().On("GetForUpdate", mock.Anything, "m2").Return(match, nil)
		uow.ResultSubmissions().On("Create", mock.Anything, mock.Anything).Return(nil)
		uow.ResultSubmissions().On("ListByMatch", mock.Anything, "m2").Return(submissions, nil)
		uow.Matches().On("Update", mock.Anything, match).Return(nil)
		uow.Users().On("SetActiveMatch", mock.Anything, mock.Anything, (*string)(nil)).Return(nil).Twice()

		updated, err := svc.SubmitResult(ctx, "m2", 2, models.ClaimedStatusLoss, "s3://shot-2")
		require.NoError(t, err)
		assert.Equal(t, models.MatchStatusCompleted, updated.Status)
		require.NotNil(t, updated.WinnerID)
		assert.Equal(t, int64(1), *updated.WinnerID)
	})

	t.Run("two win claims dispute the match", func(t *testing.T) {
		uow := NewMockUnitOfWork()
		svc := NewMatchResultService(NewMockUnitOfWorkFactory(uow))

		match := newVerificationMatch("m3")
		submissions := []*models.ResultSubmission{
			{MatchID: "m3", UserID: 1, ClaimedStatus: models.ClaimedStatusWin, ScreenshotKey: "s3://shot-1"},
			{MatchID: "m3", UserID: 2, ClaimedStatus: models.ClaimedStatusWin, ScreenshotKey: "s3://shot-2"},
		}

		uow.Matches().On("GetForUpdate", mock.Anything, "m3").Return(match, nil)
		uow.ResultSubmissions().On("Create", mock.Anything, mock.Anything).Return(nil)
		uow.ResultSubmissions().On("ListByMatch", mock.Anything, "m3").Return(submissions, nil)
		uow.Matches().On("Update", mock.Anything, match).Return(nil)

		updated, err := svc.SubmitResult(ctx, "m3", 2, models.ClaimedStatusWin, "s3://shot-2")
		require.NoError(t, err)
		assert.Equal(t, models.MatchStatusDisputed, updated.Status)
		assert.Equal(t, models.DisputeReasonMultipleWinners, updated.StatusReason)
		assert.Nil(t, updated.WinnerID)
	})

	t.Run("duplicate screenshots outrank resolution", func(t *testing.T) {
		uow := NewMockUnitOfWork()
		svc := NewMatchResultService(NewMockUnitOfWorkFactory(uow))

		match := newVerificationMatch("m4")
		submissions := []*models.ResultSubmission{
			{MatchID: "m4", UserID: 1, ClaimedStatus: models.ClaimedStatusWin, ScreenshotKey: "s3://same"},
			{MatchID: "m4", UserID: 2, ClaimedStatus: models.ClaimedStatusLoss, ScreenshotKey: "s3://same"},
		}

		uow.Matches().On("GetForUpdate", mock.Anything, "m4").Return(match, nil)
		uow.ResultSubmissions().On("Create", mock.Anything, mock.Anything).Return(nil)
		uow.ResultSubmissions().On("ListByMatch", mock.Anything, "m4").Return(submissions, nil)
		uow.Matches().On("Update", mock.Anything, match).Return(nil)

		updated, err := svc.SubmitResult(ctx, "m4", 2, models.ClaimedStatusLoss, "s3://same")
		require.NoError(t, err)
		assert.Equal(t, models.MatchStatusDisputed, updated.Status)
		assert.Equal(t, models.DisputeReasonDuplicateScreenshots, updated.StatusReason)
	})

	t.Run("two loss claims dispute the match", func(t *testing.T) {
		uow := NewMockUnitOfWork()
		svc := NewMatchResultService(NewMockUnitOfWorkFactory(uow))

		match := newVerificationMatch("m5")
		submissions := []*models.ResultSubmission{
			{MatchID: "m5", UserID: 1, ClaimedStatus: models.ClaimedStatusLoss, ScreenshotKey: "s3://shot-1"},
			{MatchID: "m5", UserID: 2, ClaimedStatus: models.ClaimedStatusLoss, ScreenshotKey: "s3://shot-2"},
		}

		uow.Matches().On("GetForUpdate", mock.Anything, "m5").Return(match, nil)
		uow.ResultSubmissions().On("Create", mock.Anything, mock.Anything).Return(nil)
		uow.ResultSubmissions().On("ListByMatch", mock.Anything, "m5").Return(submissions, nil)
		uow.Matches().On("Update", mock.Anything, match).Return(nil)

		updated, err := svc.SubmitResult(ctx, "m5", 2, models.ClaimedStatusLoss, "s3://shot-2")
		require.NoError(t, err)
		assert.Equal(t, models.MatchStatusDisputed, updated.Status)
		assert.Equal(t, models.DisputeReasonNoWinner, updated.StatusReason)
	})

	t.Run("non-participant is rejected", func(t *testing.T) {
		uow := NewMockUnitOfWork()
		svc := NewMatchResultService(NewMockUnitOfWorkFactory(uow))

		match := newVerificationMatch("m6")
		uow.Matches().On("GetForUpdate", mock.Anything, "m6").Return(match, nil)

		_, err := svc.SubmitResult(ctx, "m6", 99, models.ClaimedStatusWin, "s3://shot")
		assert.ErrorIs(t, err, ErrPermissionDenied)
	})

	t.Run("terminal match rejects further submissions", func(t *testing.T) {
		uow := NewMockUnitOfWork()
		svc := NewMatchResultService(NewMockUnitOfWorkFactory(uow))

		match := newVerificationMatch("m7")
		match.Status = models.MatchStatusCompleted
		uow.Matches().On("GetForUpdate", mock.Anything, "m7").Return(match, nil)

		_, err := svc.SubmitResult(ctx, "m7", 1, models.ClaimedStatusWin, "s3://shot")
		assert.ErrorIs(t, err, ErrPreconditionFailed)
	})

	t.Run("missing evidence is rejected", func(t *testing.T) {
		svc := NewMatchResultService(NewMockUnitOfWorkFactory(NewMockUnitOfWork()))

		_, err := svc.SubmitResult(ctx, "m8", 1, models.ClaimedStatusWin, "")
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestMatchResultService_DeclareWinner(t *testing.T) {
	ctx := context.Background()

	t.Run("resolves a disputed match", func(t *testing.T) {
		uow := NewMockUnitOfWork()
		svc := NewMatchResultService(NewMockUnitOfWorkFactory(uow))

		match := newVerificationMatch("d1")
		match.Status = models.MatchStatusDisputed

		uow.Matches().On("GetForUpdate", mock.Anything, "d1").Return(match, nil)
		uow.Matches().On("Update", mock.Anything, match).Return(nil)
		uow.Users().On("SetActiveMatch", mock.Anything, mock.Anything, (*string)(nil)).Return(nil).Twice()

		updated, err := svc.DeclareWinner(ctx, "d1", 2)
		require.NoError(t, err)
		assert.Equal(t, models.MatchStatusCompleted, updated.Status)
		assert.Equal(t, int64(2), *updated.WinnerID)
	})

	t.Run("refuses after prize distribution", func(t *testing.T) {
		uow := NewMockUnitOfWork()
		svc := NewMatchResultService(NewMockUnitOfWorkFactory(uow))

		match := newVerificationMatch("d2")
		match.Status = models.MatchStatusCompleted
		match.PrizeDistributed = true
		uow.Matches().On("GetForUpdate", mock.Anything, "d2").Return(match, nil)

		_, err := svc.DeclareWinner(ctx, "d2", 1)
		assert.ErrorIs(t, err, ErrPreconditionFailed)
	})

	t.Run("winner must be a participant", func(t *testing.T) {
		uow := NewMockUnitOfWork()
		svc := NewMatchResultService(NewMockUnitOfWorkFactory(uow))

		match := newVerificationMatch("d3")
		uow.Matches().On("GetForUpdate", mock.Anything, "d3").Return(match, nil)

		_, err := svc.DeclareWinner(ctx, "d3", 42)
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestMatchResultService_CancelMatch(t *testing.T) {
	ctx := context.Background()

	t.Run("refunds both entry fees", func(t *testing.T) {
		uow := NewMockUnitOfWork()
		svc := NewMatchResultService(NewMockUnitOfWorkFactory(uow))

		match := newVerificationMatch("c1")

		uow.Matches().On("GetForUpdate", mock.Anything, "c1").Return(match, nil)
		uow.Matches().On("Update", mock.Anything, match).Return(nil)
		uow.Users().On("GetForUpdate", mock.Anything, mock.Anything).
			Return(&models.User{ID: 1, WalletBalance: 1000}, nil)
		uow.LedgerEntries().On("Insert", mock.Anything, mock.MatchedBy(func(e *models.LedgerEntry) bool {
			return e.Kind == models.LedgerEntryKindRefund && e.Amount == 10000
		})).Return(nil).Twice()
		uow.Users().On("ApplyBalanceDelta", mock.Anything, mock.Anything, int64(10000)).Return(nil).Twice()
		uow.Users().On("SetActiveMatch", mock.Anything, mock.Anything, (*string)(nil)).Return(nil).Twice()

		updated, err := svc.CancelMatch(ctx, "c1", "opponent unreachable")
		require.NoError(t, err)
		assert.Equal(t, models.MatchStatusCancelled, updated.Status)
		uow.LedgerEntries().AssertExpectations(t)
	})

	t.Run("completed match cannot be cancelled", func(t *testing.T) {
		uow := NewMockUnitOfWork()
		svc := NewMatchResultService(NewMockUnitOfWorkFactory(uow))

		match := newVerificationMatch("c2")
		match.Status = models.MatchStatusCompleted
		uow.Matches().On("GetForUpdate", mock.Anything, "c2").Return(match, nil)

		_, err := svc.CancelMatch(ctx, "c2", "too late")
		assert.ErrorIs(t, err, ErrPreconditionFailed)
	})
}
