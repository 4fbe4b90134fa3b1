package service

import (
	"context"
	"fmt"
	"time"

	"arenaserver/models"

	log "github.com/sirupsen/logrus"
)

type walletService struct {
	uowFactory UnitOfWorkFactory
	ledger     LedgerService
}

// NewWalletService creates a new wallet service
func NewWalletService(uowFactory UnitOfWorkFactory, ledger LedgerService) WalletService {
	return &walletService{
		uowFactory: uowFactory,
		ledger:     ledger,
	}
}

// RequestDeposit files a deposit for operator review. No funds move until
// approval.
func (s *walletService) RequestDeposit(ctx context.Context, userID int64, amount int64, reference string) (*models.PaymentRequest, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("deposit amount must be positive: %w", ErrValidation)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := s.requireUser(ctx, uow, userID); err != nil {
		return nil, err
	}

	request := &models.PaymentRequest{
		UserID:    userID,
		Kind:      models.PaymentRequestKindDeposit,
		Amount:    amount,
		Status:    models.PaymentRequestStatusPending,
		Reference: reference,
	}
	if err := uow.PaymentRequestRepository().Create(ctx, request); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return request, nil
}

// ApproveDeposit credits the requested amount. The ledger key is derived
// from the request id, so approving twice credits once.
func (s *walletService) ApproveDeposit(ctx context.Context, requestID int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	request, err := s.lockPending(ctx, uow, requestID, models.PaymentRequestKindDeposit)
	if err != nil {
		return err
	}

	deposit := &models.LedgerEntry{
		IdempotencyKey: fmt.Sprintf("deposit:%d", request.ID),
		UserID:         request.UserID,
		Amount:         request.Amount,
		Kind:           models.LedgerEntryKindDeposit,
		Metadata: map[string]any{
			"payment_request_id": request.ID,
			"reference":          request.Reference,
		},
	}
	if err := ApplyLedgerEntry(ctx, uow, deposit); err != nil {
		return fmt.Errorf("failed to credit deposit: %w", err)
	}

	if err := s.decide(ctx, uow, request, models.PaymentRequestStatusApproved); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"requestID": requestID,
		"userID":    request.UserID,
		"amount":    request.Amount,
	}).Info("Deposit approved")

	return nil
}

// RequestWithdrawal files a withdrawal and holds the funds immediately, so
// a player cannot stake money that is already on its way out.
func (s *walletService) RequestWithdrawal(ctx context.Context, userID int64, amount int64) (*models.PaymentRequest, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("withdrawal amount must be positive: %w", ErrValidation)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := s.requireUser(ctx, uow, userID); err != nil {
		return nil, err
	}

	request := &models.PaymentRequest{
		UserID: userID,
		Kind:   models.PaymentRequestKindWithdrawal,
		Amount: amount,
		Status: models.PaymentRequestStatusPending,
	}
	if err := uow.PaymentRequestRepository().Create(ctx, request); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	// The hold goes through the ledger service so an unaffordable
	// withdrawal leaves a failed entry behind for review.
	hold := &models.LedgerEntry{
		IdempotencyKey: fmt.Sprintf("withdrawal-hold:%d", request.ID),
		UserID:         userID,
		Amount:         -amount,
		Kind:           models.LedgerEntryKindWithdrawal,
		Metadata: map[string]any{
			"payment_request_id": request.ID,
		},
	}
	if err := s.ledger.Submit(ctx, hold); err != nil {
		s.closeUnfunded(ctx, request)
		return nil, err
	}

	log.WithFields(log.Fields{
		"requestID": request.ID,
		"userID":    userID,
		"amount":    amount,
	}).Info("Withdrawal requested, funds held")

	return request, nil
}

// closeUnfunded rejects a withdrawal request whose hold could not be taken,
// so the request can never be approved against funds that were never held.
func (s *walletService) closeUnfunded(ctx context.Context, request *models.PaymentRequest) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		log.WithField("requestID", request.ID).WithError(err).Error("Failed to begin request close transaction")
		return
	}
	defer uow.Rollback()

	if err := s.decide(ctx, uow, request, models.PaymentRequestStatusRejected); err != nil {
		log.WithField("requestID", request.ID).WithError(err).Error("Failed to reject unfunded withdrawal request")
		return
	}
	if err := uow.Commit(); err != nil {
		log.WithField("requestID", request.ID).WithError(err).Error("Failed to commit request close")
	}
}

// ApproveWithdrawal finalizes a withdrawal whose funds were already held.
func (s *walletService) ApproveWithdrawal(ctx context.Context, requestID int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	request, err := s.lockPending(ctx, uow, requestID, models.PaymentRequestKindWithdrawal)
	if err != nil {
		return err
	}

	if err := s.decide(ctx, uow, request, models.PaymentRequestStatusApproved); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithField("requestID", requestID).Info("Withdrawal approved")
	return nil
}

// RejectWithdrawal refunds the held funds and closes the request.
func (s *walletService) RejectWithdrawal(ctx context.Context, requestID int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	request, err := s.lockPending(ctx, uow, requestID, models.PaymentRequestKindWithdrawal)
	if err != nil {
		return err
	}

	refund := &models.LedgerEntry{
		IdempotencyKey: fmt.Sprintf("withdrawal-refund:%d", request.ID),
		UserID:         request.UserID,
		Amount:         request.Amount,
		Kind:           models.LedgerEntryKindRefund,
		Metadata: map[string]any{
			"payment_request_id": request.ID,
		},
	}
	if err := ApplyLedgerEntry(ctx, uow, refund); err != nil {
		return fmt.Errorf("failed to refund withdrawal hold: %w", err)
	}

	if err := s.decide(ctx, uow, request, models.PaymentRequestStatusRejected); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithField("requestID", requestID).Info("Withdrawal rejected, hold refunded")
	return nil
}

// AdminAdjust applies a manual operator correction through the ledger.
func (s *walletService) AdminAdjust(ctx context.Context, userID int64, amount int64, note string) error {
	if amount == 0 {
		return fmt.Errorf("adjustment amount must be nonzero: %w", ErrValidation)
	}

	kind := models.LedgerEntryKindAdminCredit
	if amount < 0 {
		kind = models.LedgerEntryKindAdminDebit
	}

	adjustment := &models.LedgerEntry{
		UserID: userID,
		Amount: amount,
		Kind:   kind,
		Metadata: map[string]any{
			"note": note,
		},
	}
	if err := s.ledger.Submit(ctx, adjustment); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"userID": userID,
		"amount": amount,
		"kind":   kind,
	}).Warn("Admin balance adjustment applied")

	return nil
}

func (s *walletService) requireUser(ctx context.Context, uow UnitOfWork, userID int64) error {
	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	return nil
}

// lockPending locks a request row and verifies it is still reviewable.
func (s *walletService) lockPending(ctx context.Context, uow UnitOfWork, requestID int64, kind models.PaymentRequestKind) (*models.PaymentRequest, error) {
	request, err := uow.PaymentRequestRepository().GetForUpdate(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock payment request: %w", err)
	}
	if request == nil {
		return nil, fmt.Errorf("payment request %d: %w", requestID, ErrNotFound)
	}
	if request.Kind != kind {
		return nil, fmt.Errorf("payment request %d is a %s: %w", requestID, request.Kind, ErrValidation)
	}
	if request.Status != models.PaymentRequestStatusPending {
		return nil, fmt.Errorf("payment request %d already %s: %w", requestID, request.Status, ErrPreconditionFailed)
	}
	return request, nil
}

func (s *walletService) decide(ctx context.Context, uow UnitOfWork, request *models.PaymentRequest, status models.PaymentRequestStatus) error {
	now := time.Now()
	request.Status = status
	request.DecidedAt = &now
	if err := uow.PaymentRequestRepository().Update(ctx, request); err != nil {
		return fmt.Errorf("failed to update payment request: %w", err)
	}
	return nil
}
