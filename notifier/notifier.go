// Package notifier fans committed state changes out over Redis pub/sub so
// connected clients see balance and match updates without polling.
package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"arenaserver/events"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Notifier publishes state-change payloads to per-entity Redis channels.
type Notifier struct {
	client *redis.Client
}

// New connects a notifier to Redis. A ping failure is returned so startup
// can decide whether live updates are required.
func New(ctx context.Context, redisURL string) (*Notifier, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &Notifier{client: client}, nil
}

// Close releases the Redis connection
func (n *Notifier) Close() error {
	return n.client.Close()
}

// BalanceChannel is the pub/sub channel carrying one user's balance updates
func BalanceChannel(userID int64) string {
	return fmt.Sprintf("arena:balance:%d", userID)
}

// MatchChannel is the pub/sub channel carrying one match's state updates
func MatchChannel(matchID string) string {
	return fmt.Sprintf("arena:match:%s", matchID)
}

type balancePayload struct {
	UserID  int64  `json:"user_id"`
	Balance int64  `json:"balance"`
	Kind    string `json:"kind"`
}

type matchPayload struct {
	MatchID  string `json:"match_id"`
	Status   string `json:"status"`
	Reason   string `json:"reason,omitempty"`
	WinnerID *int64 `json:"winner_id,omitempty"`
}

type matchCreatedPayload struct {
	MatchID   string `json:"match_id"`
	StakeTier int64  `json:"stake_tier"`
	Opponent  int64  `json:"opponent_id"`
}

// PlayerChannel is the pub/sub channel carrying one user's pairing updates
func PlayerChannel(userID int64) string {
	return fmt.Sprintf("arena:player:%d", userID)
}

// PublishMatchCreated tells both players they were paired.
func (n *Notifier) PublishMatchCreated(ctx context.Context, event events.MatchCreatedEvent) {
	players := [2]int64{event.PlayerOneID, event.PlayerTwoID}
	for i, playerID := range players {
		payload, err := json.Marshal(matchCreatedPayload{
			MatchID:   event.MatchID,
			StakeTier: event.StakeTier,
			Opponent:  players[1-i],
		})
		if err != nil {
			log.WithError(err).Error("Failed to marshal match created payload")
			return
		}
		if err := n.client.Publish(ctx, PlayerChannel(playerID), payload).Err(); err != nil {
			log.WithField("userID", playerID).WithError(err).Warn("Failed to publish pairing update")
		}
	}
}

// PublishBalance pushes a wallet update to the user's channel. Delivery is
// best-effort; the ledger row is the source of truth.
func (n *Notifier) PublishBalance(ctx context.Context, event events.BalanceChangedEvent) {
	payload, err := json.Marshal(balancePayload{
		UserID:  event.UserID,
		Balance: event.NewBalance,
		Kind:    string(event.Kind),
	})
	if err != nil {
		log.WithError(err).Error("Failed to marshal balance payload")
		return
	}

	if err := n.client.Publish(ctx, BalanceChannel(event.UserID), payload).Err(); err != nil {
		log.WithField("userID", event.UserID).WithError(err).Warn("Failed to publish balance update")
	}
}

// PublishMatchState pushes a match transition to the match's channel.
func (n *Notifier) PublishMatchState(ctx context.Context, event events.MatchStateChangedEvent) {
	payload, err := json.Marshal(matchPayload{
		MatchID:  event.MatchID,
		Status:   string(event.NewStatus),
		Reason:   event.Reason,
		WinnerID: event.WinnerID,
	})
	if err != nil {
		log.WithError(err).Error("Failed to marshal match payload")
		return
	}

	if err := n.client.Publish(ctx, MatchChannel(event.MatchID), payload).Err(); err != nil {
		log.WithField("matchID", event.MatchID).WithError(err).Warn("Failed to publish match update")
	}
}
