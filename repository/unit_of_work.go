package repository

import (
	"context"
	"fmt"

	"arenaserver/database"
	"arenaserver/events"
	"arenaserver/service"

	"github.com/jackc/pgx/v5"
)

// unitOfWork implements the UnitOfWork interface
type unitOfWork struct {
	db               *database.DB
	tx               pgx.Tx
	ctx              context.Context
	transactionalBus *events.TransactionalBus

	userRepo             service.UserRepository
	queueEntryRepo       service.QueueEntryRepository
	matchRepo            service.MatchRepository
	resultSubmissionRepo service.ResultSubmissionRepository
	ledgerEntryRepo      service.LedgerEntryRepository
	paymentRequestRepo   service.PaymentRequestRepository
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB, eventBus *events.Bus) service.UnitOfWorkFactory {
	return &unitOfWorkFactory{
		db:       db,
		eventBus: eventBus,
	}
}

type unitOfWorkFactory struct {
	db       *database.DB
	eventBus *events.Bus
}

func (f *unitOfWorkFactory) Create() service.UnitOfWork {
	return &unitOfWork{
		db:               f.db,
		transactionalBus: events.NewTransactionalBus(f.eventBus),
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	// Create repositories with the transaction
	u.userRepo = newUserRepositoryWithTx(tx)
	u.queueEntryRepo = newQueueEntryRepositoryWithTx(tx)
	u.matchRepo = newMatchRepositoryWithTx(tx)
	u.resultSubmissionRepo = newResultSubmissionRepositoryWithTx(tx)
	u.ledgerEntryRepo = newLedgerEntryRepositoryWithTx(tx)
	u.paymentRequestRepo = newPaymentRequestRepositoryWithTx(tx)

	return nil
}

// Commit commits the transaction
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	err := u.tx.Commit(u.ctx)
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil

	// Flush pending events after successful commit
	if u.transactionalBus != nil {
		u.transactionalBus.Flush(u.ctx)
	}

	return nil
}

// Rollback rolls back the transaction
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil // Nothing to rollback
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && err != pgx.ErrTxClosed {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	u.tx = nil

	// Discard pending events on rollback
	if u.transactionalBus != nil {
		u.transactionalBus.Discard()
	}

	return nil
}

// UserRepository returns the user repository for this unit of work
func (u *unitOfWork) UserRepository() service.UserRepository {
	if u.userRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.userRepo
}

// QueueEntryRepository returns the queue entry repository for this unit of work
func (u *unitOfWork) QueueEntryRepository() service.QueueEntryRepository {
	if u.queueEntryRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.queueEntryRepo
}

// MatchRepository returns the match repository for this unit of work
func (u *unitOfWork) MatchRepository() service.MatchRepository {
	if u.matchRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.matchRepo
}

// ResultSubmissionRepository returns the result submission repository for this unit of work
func (u *unitOfWork) ResultSubmissionRepository() service.ResultSubmissionRepository {
	if u.resultSubmissionRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.resultSubmissionRepo
}

// LedgerEntryRepository returns the ledger entry repository for this unit of work
func (u *unitOfWork) LedgerEntryRepository() service.LedgerEntryRepository {
	if u.ledgerEntryRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.ledgerEntryRepo
}

// PaymentRequestRepository returns the payment request repository for this unit of work
func (u *unitOfWork) PaymentRequestRepository() service.PaymentRequestRepository {
	if u.paymentRequestRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.paymentRequestRepo
}

// EventBus returns the transactional event bus for this unit of work
func (u *unitOfWork) EventBus() service.EventPublisher {
	if u.transactionalBus == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.transactionalBus
}
