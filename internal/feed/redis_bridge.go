package feed

import (
	"complaintdesk/backend/internal/models"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// EventSource opens a subscription to the shared complaint events channel.
type EventSource interface {
	SubscribeComplaintEvents(ctx context.Context) *redis.PubSub
}

// RedisBridge forwards complaint events from Redis into the hub, so changes
// made by any instance reach local subscribers.
type RedisBridge struct {
	Source EventSource
	Hub    *Hub
}

// Run subscribes and forwards until ctx is cancelled or the hub stops.
func (b *RedisBridge) Run(ctx context.Context) error {
	pubsub := b.Source.SubscribeComplaintEvents(ctx)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("subscribe complaint events: %w", err)
	}
	slog.Info("listening for complaint events")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var evt models.ComplaintEvent
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
				slog.Warn("skipping malformed complaint event", "err", err)
				continue
			}
			if err := b.Hub.Notify(ctx, evt); err != nil {
				if errors.Is(err, ErrHubStopped) || ctx.Err() != nil {
					return nil
				}
				return err
			}
		}
	}
}
