package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/V4T54L/realm-provisioner/internal/adapter/pii"
	"github.com/V4T54L/realm-provisioner/internal/domain"
)

// DefaultEventStream is the stream realm events are appended to.
const DefaultEventStream = "realm_events"

var _ domain.EventPublisher = (*EventPublisher)(nil)

// EventPublisher implements domain.EventPublisher on a Redis Stream.
type EventPublisher struct {
	client    *redis.Client
	logger    *slog.Logger
	streamKey string
	maxLen    int64
	redactor  *pii.Redactor
}

// NewEventPublisher creates a publisher writing to streamKey. A positive
// maxLen caps the stream length approximately. When redactor is non-nil,
// realm snapshots are masked before they are written.
func NewEventPublisher(client *redis.Client, logger *slog.Logger, streamKey string, maxLen int64, redactor *pii.Redactor) *EventPublisher {
	if streamKey == "" {
		streamKey = DefaultEventStream
	}
	return &EventPublisher{
		client:    client,
		logger:    logger.With("component", "redis_event_publisher"),
		streamKey: streamKey,
		maxLen:    maxLen,
		redactor:  redactor,
	}
}

// Publish appends the event to the stream. The full event is stored as JSON
// under "data" next to a few flat fields for stream-side filtering.
func (p *EventPublisher) Publish(ctx context.Context, event domain.RealmEvent) error {
	if p.redactor != nil {
		event.Snapshot = p.redactor.Realm(event.Snapshot)
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal realm event: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: p.streamKey,
		Values: map[string]interface{}{
			"event_id": event.ID,
			"type":     string(event.Type),
			"realm":    event.Realm,
			"data":     data,
		},
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}

	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("failed to publish event to stream %s: %w", p.streamKey, err)
	}
	p.logger.Debug("published realm event", "event_id", event.ID, "type", event.Type, "realm", event.Realm)
	return nil
}
