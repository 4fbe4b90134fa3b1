package app

import (
	"context"
	"time"

	"arenaserver/service"

	log "github.com/sirupsen/logrus"
)

// MatchmakerWorker periodically sweeps the queue for pairable tiers. The
// event-driven path pairs most players within a transaction commit; the
// sweep catches entries whose trigger was lost to a crash or restart.
type MatchmakerWorker struct {
	uowFactory  service.UnitOfWorkFactory
	matchmaking service.MatchmakingService
	interval    time.Duration
}

// NewMatchmakerWorker creates a new matchmaker sweep worker
func NewMatchmakerWorker(uowFactory service.UnitOfWorkFactory, matchmaking service.MatchmakingService, interval time.Duration) *MatchmakerWorker {
	return &MatchmakerWorker{
		uowFactory:  uowFactory,
		matchmaking: matchmaking,
		interval:    interval,
	}
}

// Start runs the sweep loop until the context is cancelled
func (w *MatchmakerWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	log.WithField("interval", w.interval).Info("Matchmaker sweep worker started")

	for {
		select {
		case <-ctx.Done():
			log.Info("Matchmaker sweep worker stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

// sweep drains every tier that currently holds a pairable number of players
func (w *MatchmakerWorker) sweep(ctx context.Context) {
	tiers, err := w.waitingTiers(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to list waiting tiers")
		return
	}

	for _, tier := range tiers {
		for {
			result, err := w.matchmaking.TryPair(ctx, tier)
			if err != nil {
				log.WithField("stakeTier", tier).WithError(err).Error("Sweep pairing failed")
				break
			}
			if result == nil {
				break
			}
		}
	}
}

func (w *MatchmakerWorker) waitingTiers(ctx context.Context) ([]int64, error) {
	uow := w.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	return uow.QueueEntryRepository().WaitingTiers(ctx)
}
