// Package app wires the reactive pipeline: committed domain events drive
// pairing, payout and referral evaluation, and a polling worker backstops
// any delivery the bus lost.
package app

import (
	"context"
	"errors"

	"arenaserver/events"
	"arenaserver/models"
	"arenaserver/notifier"
	"arenaserver/service"

	log "github.com/sirupsen/logrus"
)

// Services bundles the domain services the reactive pipeline drives.
type Services struct {
	Matchmaking service.MatchmakingService
	Payout      service.PayoutService
	Referral    service.ReferralService
}

// Subscribe connects domain events to their follow-up actions. Every handler
// is a converging no-op on redelivery, so at-least-once delivery is safe.
func Subscribe(bus *events.Bus, services Services, fanout *notifier.Notifier) {
	bus.Subscribe(events.EventTypeQueueEntryWaiting, func(ctx context.Context, event events.Event) {
		e, ok := event.(events.QueueEntryWaitingEvent)
		if !ok {
			return
		}
		if _, err := services.Matchmaking.TryPair(ctx, e.StakeTier); err != nil {
			log.WithField("stakeTier", e.StakeTier).WithError(err).Error("Pairing attempt failed")
		}
	})

	bus.Subscribe(events.EventTypeMatchStateChanged, func(ctx context.Context, event events.Event) {
		e, ok := event.(events.MatchStateChangedEvent)
		if !ok {
			return
		}
		if e.NewStatus == models.MatchStatusCompleted {
			if _, err := services.Payout.Distribute(ctx, e.MatchID); err != nil &&
				!errors.Is(err, service.ErrPreconditionFailed) {
				log.WithField("matchID", e.MatchID).WithError(err).Error("Prize distribution failed")
			}
		}
		if fanout != nil {
			fanout.PublishMatchState(ctx, e)
		}
	})

	bus.Subscribe(events.EventTypeLedgerEntryCompleted, func(ctx context.Context, event events.Event) {
		e, ok := event.(events.LedgerEntryCompletedEvent)
		if !ok {
			return
		}
		if e.Kind != models.LedgerEntryKindDeposit {
			return
		}
		if err := services.Referral.EvaluateDeposit(ctx, e.UserID, e.Amount); err != nil {
			log.WithField("userID", e.UserID).WithError(err).Error("Referral evaluation failed")
		}
	})

	if fanout != nil {
		bus.Subscribe(events.EventTypeMatchCreated, func(ctx context.Context, event events.Event) {
			e, ok := event.(events.MatchCreatedEvent)
			if !ok {
				return
			}
			fanout.PublishMatchCreated(ctx, e)
		})

		bus.Subscribe(events.EventTypeBalanceChanged, func(ctx context.Context, event events.Event) {
			e, ok := event.(events.BalanceChangedEvent)
			if !ok {
				return
			}
			fanout.PublishBalance(ctx, e)
		})
	}
}
