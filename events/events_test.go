package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"arenaserver/models"

	"github.com/stretchr/testify/assert"
)

// TestTransactionalFlush tests the complete event flow from TransactionalBus
// to the main Bus after a simulated commit.
func TestTransactionalFlush(t *testing.T) {
	mainBus := NewBus()
	txBus := NewTransactionalBus(mainBus)

	received := make(chan BalanceChangedEvent, 1)
	var wg sync.WaitGroup
	wg.Add(1)

	mainBus.Subscribe(EventTypeBalanceChanged, func(ctx context.Context, event Event) {
		defer wg.Done()
		if e, ok := event.(BalanceChangedEvent); ok {
			received <- e
		} else {
			t.Errorf("Expected BalanceChangedEvent, got %T", event)
		}
	})

	testEvent := BalanceChangedEvent{
		UserID:     42,
		OldBalance: 1000,
		NewBalance: 900,
		Kind:       models.LedgerEntryKindEntryFee,
	}

	txBus.Publish(testEvent)
	assert.NoError(t, txBus.Flush(context.Background()))

	wg.Wait()

	select {
	case got := <-received:
		assert.Equal(t, testEvent, got)
	case <-time.After(2 * time.Second):
		t.Fatal("Event was not received within timeout")
	}
}

// TestDiscardDropsPending verifies that a rollback discards stashed events.
func TestDiscardDropsPending(t *testing.T) {
	mainBus := NewBus()
	txBus := NewTransactionalBus(mainBus)

	var mu sync.Mutex
	delivered := 0
	mainBus.Subscribe(EventTypeMatchStateChanged, func(ctx context.Context, event Event) {
		mu.Lock()
		delivered++
		mu.Unlock()
	})

	txBus.Publish(MatchStateChangedEvent{
		MatchID:   "m1",
		OldStatus: models.MatchStatusOngoing,
		NewStatus: models.MatchStatusDisputed,
		Reason:    models.DisputeReasonMultipleWinners,
	})
	txBus.Discard()

	assert.NoError(t, txBus.Flush(context.Background()))
	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 0, delivered)
}

// TestMultipleEventsDelivery tests delivering multiple events in sequence.
func TestMultipleEventsDelivery(t *testing.T) {
	mainBus := NewBus()
	txBus := NewTransactionalBus(mainBus)

	received := make(chan LedgerEntryCompletedEvent, 3)
	var wg sync.WaitGroup
	wg.Add(3)

	mainBus.Subscribe(EventTypeLedgerEntryCompleted, func(ctx context.Context, event Event) {
		defer wg.Done()
		if e, ok := event.(LedgerEntryCompletedEvent); ok {
			received <- e
		}
	})

	for i := int64(1); i <= 3; i++ {
		txBus.Publish(LedgerEntryCompletedEvent{
			EntryID: i,
			UserID:  i * 100,
			Kind:    models.LedgerEntryKindDeposit,
			Amount:  i * 1000,
		})
	}

	assert.NoError(t, txBus.Flush(context.Background()))
	wg.Wait()

	seen := make(map[int64]bool)
	for i := 0; i < 3; i++ {
		select {
		case e := <-received:
			seen[e.EntryID] = true
		case <-time.After(2 * time.Second):
			t.Fatalf("Only received %d out of 3 events", len(seen))
		}
	}
	assert.Len(t, seen, 3)

	// Pending queue is cleared after flush
	assert.NoError(t, txBus.Flush(context.Background()))
}
