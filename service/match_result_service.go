package service

import (
	"context"
	"fmt"

	"arenaserver/events"
	"arenaserver/models"

	log "github.com/sirupsen/logrus"
)

type matchResultService struct {
	uowFactory UnitOfWorkFactory
}

// NewMatchResultService creates a new match result service
func NewMatchResultService(uowFactory UnitOfWorkFactory) MatchResultService {
	return &matchResultService{
		uowFactory: uowFactory,
	}
}

// SubmitResult files a player's immutable result claim. The first claim
// moves the match into verification; the second triggers reconciliation,
// which runs its fraud checks in a fixed order so the same pair of claims
// always produces the same outcome.
func (s *matchResultService) SubmitResult(ctx context.Context, matchID string, userID int64, claimed models.ClaimedStatus, screenshotKey string) (*models.Match, error) {
	if claimed != models.ClaimedStatusWin && claimed != models.ClaimedStatusLoss {
		return nil, fmt.Errorf("claimed status %q: %w", claimed, ErrValidation)
	}
	if screenshotKey == "" {
		return nil, fmt.Errorf("screenshot evidence is required: %w", ErrValidation)
	}

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
	if !match.IsParticipant(userID) {
		return nil, fmt.Errorf("user %d is not a participant of match %s: %w", userID, matchID, ErrPermissionDenied)
	}
	if match.Status.IsTerminal() {
		return nil, fmt.Errorf("match %s is already %s: %w", matchID, match.Status, ErrPreconditionFailed)
	}

	submission := &models.ResultSubmission{
		MatchID:       matchID,
		UserID:        userID,
		ClaimedStatus: claimed,
		ScreenshotKey: screenshotKey,
	}
	if err := uow.ResultSubmissionRepository().Create(ctx, submission); err != nil {
		return nil, err
	}

	submissions, err := uow.ResultSubmissionRepository().ListByMatch(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}

	if len(submissions) < 2 {
		// A filed result means the match was evidently played.
		if match.Status == models.MatchStatusOpen {
			if err := s.transition(ctx, uow, match, models.MatchStatusOngoing, ""); err != nil {
				return nil, err
			}
		}
		if err := s.transition(ctx, uow, match, models.MatchStatusVerification, "awaiting opponent result"); err != nil {
			return nil, err
		}
		if err := uow.Commit(); err != nil {
			return nil, fmt.Errorf("failed to commit transaction: %w", err)
		}
		return match, nil
	}

	if err := s.reconcile(ctx, uow, match, submissions); err != nil {
		uow.Rollback()
		s.markDisputed(ctx, matchID, models.DisputeReasonSystemError)
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"matchID": matchID,
		"status":  match.Status,
		"reason":  match.StatusReason,
	}).Info("Match result reconciled")

	return match, nil
}

// reconcile drives a fully-reported match to its terminal outcome. Check
// order is fixed: conflicting win claims, then duplicated evidence, then
// resolution.
func (s *matchResultService) reconcile(ctx context.Context, uow UnitOfWork, match *models.Match, submissions []*models.ResultSubmission) error {
	first, second := submissions[0], submissions[1]

	if first.ClaimedStatus == models.ClaimedStatusWin && second.ClaimedStatus == models.ClaimedStatusWin {
		return s.dispute(ctx, uow, match, models.DisputeReasonMultipleWinners)
	}

	if first.ScreenshotKey == second.ScreenshotKey {
		return s.dispute(ctx, uow, match, models.DisputeReasonDuplicateScreenshots)
	}

	if first.ClaimedStatus == models.ClaimedStatusLoss && second.ClaimedStatus == models.ClaimedStatusLoss {
		return s.dispute(ctx, uow, match, models.DisputeReasonNoWinner)
	}

	winnerID := first.UserID
	if second.ClaimedStatus == models.ClaimedStatusWin {
		winnerID = second.UserID
	}

	match.WinnerID = &winnerID
	if err := s.transition(ctx, uow, match, models.MatchStatusCompleted, "results agree"); err != nil {
		return err
	}
	return s.releasePlayers(ctx, uow, match)
}

// dispute freezes the match for operator review. Players stay bound to the
// match so neither can requeue while funds are contested.
func (s *matchResultService) dispute(ctx context.Context, uow UnitOfWork, match *models.Match, reason string) error {
	return s.transition(ctx, uow, match, models.MatchStatusDisputed, reason)
}

// DeclareWinner is the operator override: it forces a match to completed
// with an explicit winner. Refused once the prize left the pot.
func (s *matchResultService) DeclareWinner(ctx context.Context, matchID string, winnerID int64) (*models.Match, error) {
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
	if !match.IsParticipant(winnerID) {
		return nil, fmt.Errorf("user %d is not a participant of match %s: %w", winnerID, matchID, ErrValidation)
	}
	if match.PrizeDistributed {
		return nil, fmt.Errorf("prize already distributed for match %s: %w", matchID, ErrPreconditionFailed)
	}

	match.WinnerID = &winnerID
	if err := s.transition(ctx, uow, match, models.MatchStatusCompleted, "winner declared by operator"); err != nil {
		return nil, err
	}
	if err := s.releasePlayers(ctx, uow, match); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"matchID":  matchID,
		"winnerID": winnerID,
	}).Warn("Operator declared match winner")

	return match, nil
}

// CancelMatch voids a match and refunds both entry fees in the same
// transaction. The refund keys make a repeated cancel converge instead of
// double-refunding.
func (s *matchResultService) CancelMatch(ctx context.Context, matchID string, reason string) (*models.Match, error) {
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

	if err := s.transition(ctx, uow, match, models.MatchStatusCancelled, reason); err != nil {
		return nil, err
	}

	stake := match.EntryPot / 2
	for _, playerID := range match.PlayerIDs() {
		refund := &models.LedgerEntry{
			IdempotencyKey: fmt.Sprintf("refund:%s:%d", match.ID, playerID),
			UserID:         playerID,
			Amount:         stake,
			Kind:           models.LedgerEntryKindRefund,
			MatchID:        &match.ID,
		}
		if err := ApplyLedgerEntry(ctx, uow, refund); err != nil {
			return nil, fmt.Errorf("failed to refund entry fee for user %d: %w", playerID, err)
		}
	}

	if err := s.releasePlayers(ctx, uow, match); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"matchID": matchID,
		"reason":  reason,
	}).Info("Match cancelled and entry fees refunded")

	return match, nil
}

// transition applies a guarded status change and publishes the change event.
func (s *matchResultService) transition(ctx context.Context, uow UnitOfWork, match *models.Match, next models.MatchStatus, reason string) error {
	if !match.Status.CanTransitionTo(next) {
		return fmt.Errorf("match %s cannot move from %s to %s: %w", match.ID, match.Status, next, ErrPreconditionFailed)
	}

	oldStatus := match.Status
	match.Status = next
	match.StatusReason = reason

	if err := uow.MatchRepository().Update(ctx, match); err != nil {
		return fmt.Errorf("failed to update match: %w", err)
	}

	uow.EventBus().Publish(events.MatchStateChangedEvent{
		MatchID:   match.ID,
		OldStatus: oldStatus,
		NewStatus: next,
		Reason:    reason,
		WinnerID:  match.WinnerID,
	})

	return nil
}

// releasePlayers clears both players' active-match binding.
func (s *matchResultService) releasePlayers(ctx context.Context, uow UnitOfWork, match *models.Match) error {
	for _, playerID := range match.PlayerIDs() {
		if err := uow.UserRepository().SetActiveMatch(ctx, playerID, nil); err != nil {
			return fmt.Errorf("failed to release player %d: %w", playerID, err)
		}
	}
	return nil
}

// markDisputed force-freezes a match in a fresh transaction after an
// unexpected reconciliation failure, so contested funds never auto-resolve
// on a partial view.
func (s *matchResultService) markDisputed(ctx context.Context, matchID string, reason string) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		log.WithField("matchID", matchID).WithError(err).Error("Failed to begin dispute transaction")
		return
	}
	defer uow.Rollback()

	match, err := uow.MatchRepository().GetForUpdate(ctx, matchID)
	if err != nil || match == nil || !match.Status.CanTransitionTo(models.MatchStatusDisputed) {
		return
	}

	if err := s.transition(ctx, uow, match, models.MatchStatusDisputed, reason); err != nil {
		log.WithField("matchID", matchID).WithError(err).Error("Failed to mark match disputed")
		return
	}
	if err := uow.Commit(); err != nil {
		log.WithField("matchID", matchID).WithError(err).Error("Failed to commit dispute")
	}
}
