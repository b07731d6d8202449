package storage

import (
	"complaintdesk/backend/internal/config"
	"complaintdesk/backend/internal/models"
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

// PublishComplaintEvent publishes evt on the complaint events channel.
// Without a Redis client it does nothing.
func (s *Service) PublishComplaintEvent(ctx context.Context, evt models.ComplaintEvent) error {
	if s.Redis == nil {
		return nil
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return s.Redis.Publish(ctx, config.ComplaintEventsChannel, payload).Err()
}

// SubscribeComplaintEvents subscribes to the complaint events channel.
// The caller owns the returned PubSub and must close it.
func (s *Service) SubscribeComplaintEvents(ctx context.Context) *redis.PubSub {
	return s.Redis.Subscribe(ctx, config.ComplaintEventsChannel)
}
