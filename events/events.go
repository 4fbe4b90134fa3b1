package events

import (
	"context"
	"sync"

	"arenaserver/models"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeQueueEntryWaiting    EventType = "queue_entry_waiting"
	EventTypeMatchCreated         EventType = "match_created"
	EventTypeMatchStateChanged    EventType = "match_state_changed"
	EventTypeLedgerEntryCompleted EventType = "ledger_entry_completed"
	EventTypeBalanceChanged       EventType = "balance_changed"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// QueueEntryWaitingEvent fires when a player enters the matchmaking queue.
type QueueEntryWaitingEvent struct {
	UserID    int64
	StakeTier int64
}

func (e QueueEntryWaitingEvent) Type() EventType {
	return EventTypeQueueEntryWaiting
}

// MatchCreatedEvent fires when the pairer converts two queue entries into a match.
type MatchCreatedEvent struct {
	MatchID     string
	StakeTier   int64
	PlayerOneID int64
	PlayerTwoID int64
}

func (e MatchCreatedEvent) Type() EventType {
	return EventTypeMatchCreated
}

// MatchStateChangedEvent fires on every match status transition.
type MatchStateChangedEvent struct {
	MatchID   string
	OldStatus models.MatchStatus
	NewStatus models.MatchStatus
	Reason    string
	WinnerID  *int64
}

func (e MatchStateChangedEvent) Type() EventType {
	return EventTypeMatchStateChanged
}

// LedgerEntryCompletedEvent fires when a ledger entry is applied to a balance.
type LedgerEntryCompletedEvent struct {
	EntryID int64
	UserID  int64
	Kind    models.LedgerEntryKind
	Amount  int64
}

func (e LedgerEntryCompletedEvent) Type() EventType {
	return EventTypeLedgerEntryCompleted
}

// BalanceChangedEvent reports a wallet balance mutation.
type BalanceChangedEvent struct {
	UserID     int64
	OldBalance int64
	NewBalance int64
	Kind       models.LedgerEntryKind
}

func (e BalanceChangedEvent) Type() EventType {
	return EventTypeBalanceChanged
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching. Handlers run in their own
// goroutines and may observe the same logical event more than once; every
// subscriber must treat a stale precondition as a safe no-op.
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	for _, handler := range handlers {
		go func(h Handler) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType": event.Type(),
						"panic":     r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler)
	}
}

// TransactionalBus stashes events published during a unit of work and flushes
// them to the underlying bus only after the database commit succeeds.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// Flush emits all pending events; called after a successful commit. Events
// are emitted on a background context so they outlive the transaction scope.
func (b *TransactionalBus) Flush(ctx context.Context) error {
	eventCtx := context.Background()
	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
	return nil
}

// Discard drops pending events; called after a rollback.
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
