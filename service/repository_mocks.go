package service

import (
	"context"

	"arenaserver/events"
	"arenaserver/models"

	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, userID int64) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetForUpdate(ctx context.Context, userID int64) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, username string, referredBy *int64, startingBalance int64) (*models.User, error) {
	args := m.Called(ctx, username, referredBy, startingBalance)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) ApplyBalanceDelta(ctx context.Context, userID int64, delta int64) error {
	args := m.Called(ctx, userID, delta)
	return args.Error(0)
}

func (m *MockUserRepository) SetActiveMatch(ctx context.Context, userID int64, matchID *string) error {
	args := m.Called(ctx, userID, matchID)
	return args.Error(0)
}

func (m *MockUserRepository) SetReferralBonusPaid(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockUserRepository) IncrementStats(ctx context.Context, userID int64, won bool, ratingDelta int) error {
	args := m.Called(ctx, userID, won, ratingDelta)
	return args.Error(0)
}

// MockQueueEntryRepository is a mock implementation of QueueEntryRepository
type MockQueueEntryRepository struct {
	mock.Mock
}

func (m *MockQueueEntryRepository) Insert(ctx context.Context, entry *models.QueueEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockQueueEntryRepository) GetByUserID(ctx context.Context, userID int64) (*models.QueueEntry, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.QueueEntry), args.Error(1)
}

func (m *MockQueueEntryRepository) ClaimWaitingPair(ctx context.Context, stakeTier int64) ([]*models.QueueEntry, error) {
	args := m.Called(ctx, stakeTier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.QueueEntry), args.Error(1)
}

func (m *MockQueueEntryRepository) MarkMatched(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockQueueEntryRepository) DeleteWaiting(ctx context.Context, userID int64) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockQueueEntryRepository) Delete(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockQueueEntryRepository) WaitingTiers(ctx context.Context) ([]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

// MockMatchRepository is a mock implementation of MatchRepository
type MockMatchRepository struct {
	mock.Mock
}

func (m *MockMatchRepository) Create(ctx context.Context, match *models.Match) error {
	args := m.Called(ctx, match)
	return args.Error(0)
}

func (m *MockMatchRepository) GetByID(ctx context.Context, matchID string) (*models.Match, error) {
	args := m.Called(ctx, matchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Match), args.Error(1)
}

func (m *MockMatchRepository) GetForUpdate(ctx context.Context, matchID string) (*models.Match, error) {
	args := m.Called(ctx, matchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Match), args.Error(1)
}

func (m *MockMatchRepository) Update(ctx context.Context, match *models.Match) error {
	args := m.Called(ctx, match)
	return args.Error(0)
}

// MockResultSubmissionRepository is a mock implementation of ResultSubmissionRepository
type MockResultSubmissionRepository struct {
	mock.Mock
}

func (m *MockResultSubmissionRepository) Create(ctx context.Context, submission *models.ResultSubmission) error {
	args := m.Called(ctx, submission)
	return args.Error(0)
}

func (m *MockResultSubmissionRepository) ListByMatch(ctx context.Context, matchID string) ([]*models.ResultSubmission, error) {
	args := m.Called(ctx, matchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ResultSubmission), args.Error(1)
}

// MockLedgerEntryRepository is a mock implementation of LedgerEntryRepository
type MockLedgerEntryRepository struct {
	mock.Mock
}

func (m *MockLedgerEntryRepository) Insert(ctx context.Context, entry *models.LedgerEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockLedgerEntryRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]*models.LedgerEntry, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LedgerEntry), args.Error(1)
}

func (m *MockLedgerEntryRepository) SumCompletedByUser(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

// MockPaymentRequestRepository is a mock implementation of PaymentRequestRepository
type MockPaymentRequestRepository struct {
	mock.Mock
}

func (m *MockPaymentRequestRepository) Create(ctx context.Context, request *models.PaymentRequest) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

func (m *MockPaymentRequestRepository) GetForUpdate(ctx context.Context, requestID int64) (*models.PaymentRequest, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentRequest), args.Error(1)
}

func (m *MockPaymentRequestRepository) Update(ctx context.Context, request *models.PaymentRequest) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// MockUnitOfWork is a mock implementation of UnitOfWork
type MockUnitOfWork struct {
	mock.Mock

	userRepo             *MockUserRepository
	queueEntryRepo       *MockQueueEntryRepository
	matchRepo            *MockMatchRepository
	resultSubmissionRepo *MockResultSubmissionRepository
	ledgerEntryRepo      *MockLedgerEntryRepository
	paymentRequestRepo   *MockPaymentRequestRepository
	eventBus             *MockEventPublisher
}

// NewMockUnitOfWork creates a unit of work whose repositories are all mocks.
// Begin, Commit and Rollback succeed unless expectations say otherwise.
func NewMockUnitOfWork() *MockUnitOfWork {
	uow := &MockUnitOfWork{
		userRepo:             new(MockUserRepository),
		queueEntryRepo:       new(MockQueueEntryRepository),
		matchRepo:            new(MockMatchRepository),
		resultSubmissionRepo: new(MockResultSubmissionRepository),
		ledgerEntryRepo:      new(MockLedgerEntryRepository),
		paymentRequestRepo:   new(MockPaymentRequestRepository),
		eventBus:             new(MockEventPublisher),
	}
	uow.On("Begin", mock.Anything).Return(nil).Maybe()
	uow.On("Commit").Return(nil).Maybe()
	uow.On("Rollback").Return(nil).Maybe()
	uow.eventBus.On("Publish", mock.Anything).Maybe()
	return uow
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) UserRepository() UserRepository { return m.userRepo }

func (m *MockUnitOfWork) QueueEntryRepository() QueueEntryRepository { return m.queueEntryRepo }

func (m *MockUnitOfWork) MatchRepository() MatchRepository { return m.matchRepo }

func (m *MockUnitOfWork) ResultSubmissionRepository() ResultSubmissionRepository {
	return m.resultSubmissionRepo
}

func (m *MockUnitOfWork) LedgerEntryRepository() LedgerEntryRepository { return m.ledgerEntryRepo }

func (m *MockUnitOfWork) PaymentRequestRepository() PaymentRequestRepository {
	return m.paymentRequestRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher { return m.eventBus }

// Users exposes the mock user repository for expectations
func (m *MockUnitOfWork) Users() *MockUserRepository { return m.userRepo }

// QueueEntries exposes the mock queue entry repository for expectations
func (m *MockUnitOfWork) QueueEntries() *MockQueueEntryRepository { return m.queueEntryRepo }

// Matches exposes the mock match repository for expectations
func (m *MockUnitOfWork) Matches() *MockMatchRepository { return m.matchRepo }

// ResultSubmissions exposes the mock result submission repository for expectations
func (m *MockUnitOfWork) ResultSubmissions() *MockResultSubmissionRepository {
	return m.resultSubmissionRepo
}

// LedgerEntries exposes the mock ledger entry repository for expectations
func (m *MockUnitOfWork) LedgerEntries() *MockLedgerEntryRepository { return m.ledgerEntryRepo }

// PaymentRequests exposes the mock payment request repository for expectations
func (m *MockUnitOfWork) PaymentRequests() *MockPaymentRequestRepository {
	return m.paymentRequestRepo
}

// Events exposes the mock event publisher for expectations
func (m *MockUnitOfWork) Events() *MockEventPublisher { return m.eventBus }

// MockUnitOfWorkFactory is a mock factory returning a fixed sequence of
// units of work, one per Create call.
type MockUnitOfWorkFactory struct {
	units []*MockUnitOfWork
	next  int
}

// NewMockUnitOfWorkFactory creates a factory over the given units
func NewMockUnitOfWorkFactory(units ...*MockUnitOfWork) *MockUnitOfWorkFactory {
	return &MockUnitOfWorkFactory{units: units}
}

func (f *MockUnitOfWorkFactory) Create() UnitOfWork {
	if f.next >= len(f.units) {
		// Reuse the last unit when a service opens more transactions than
		// the test cares to distinguish.
		return f.units[len(f.units)-1]
	}
	uow := f.units[f.next]
	f.next++
	return uow
}
