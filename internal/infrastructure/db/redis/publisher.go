package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/taskmgr/task-manager-api/internal/core/domain"
)

// DefaultEventChannel is the pub/sub channel realtime consumers subscribe to.
const DefaultEventChannel = "tasks.events"

// EventPublisher pushes domain events to a Redis pub/sub channel as JSON.
// Delivery is at-most-once: a subscriber that is offline misses the event,
// which is acceptable for a realtime notification feed.
type EventPublisher struct {
	client  *redis.Client
	channel string
}

// NewEventPublisher creates an EventPublisher wrapping the given Redis
// client. An empty channel falls back to DefaultEventChannel.
func NewEventPublisher(client *redis.Client, channel string) *EventPublisher {
	if channel == "" {
		channel = DefaultEventChannel
	}
	return &EventPublisher{client: client, channel: channel}
}

// Publish marshals the event and pushes it to the channel.
func (p *EventPublisher) Publish(ctx context.Context, event domain.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}
