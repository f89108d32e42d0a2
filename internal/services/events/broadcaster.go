package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jhin-exe/weave/pkg/engine"
)

// EventType represents the type of event being broadcast
type EventType string

const (
	EventTypeSessionStarted EventType = "session.started"
	EventTypeEffectsApplied EventType = "session.effects_applied"
	EventTypeSceneChanged   EventType = "session.scene_changed"
	EventTypeSessionDeleted EventType = "session.deleted"
)

// Event represents a generic event structure
type Event struct {
	Type      EventType     `json:"type"`
	SessionID string        `json:"session_id"`
	Data      *engine.Event `json:"data,omitempty"`
}

// Channel is the pub/sub channel carrying a session's events.
func Channel(sessionID uuid.UUID) string {
	return fmt.Sprintf("session-events:%s", sessionID.String())
}

// Broadcaster publishes session events to Redis Pub/Sub for SSE distribution
type Broadcaster struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewBroadcaster creates a new event broadcaster
func NewBroadcaster(redisClient *redis.Client, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		redisClient: redisClient,
		logger:      logger,
	}
}

var engineEventTypes = map[engine.EventType]EventType{
	engine.EventStarted:        EventTypeSessionStarted,
	engine.EventEffectsApplied: EventTypeEffectsApplied,
	engine.EventSceneChanged:   EventTypeSceneChanged,
}

// PublishEngineEvent publishes an event raised by a session's engine.
func (b *Broadcaster) PublishEngineEvent(ctx context.Context, sessionID uuid.UUID, ev engine.Event) error {
	t, ok := engineEventTypes[ev.Type]
	if !ok {
		return fmt.Errorf("unknown engine event type %q", ev.Type)
	}
	return b.publishToSession(ctx, sessionID, Event{
		Type:      t,
		SessionID: sessionID.String(),
		Data:      &ev,
	})
}

// PublishSessionDeleted publishes a session.deleted event
func (b *Broadcaster) PublishSessionDeleted(ctx context.Context, sessionID uuid.UUID) error {
	return b.publishToSession(ctx, sessionID, Event{
		Type:      EventTypeSessionDeleted,
		SessionID: sessionID.String(),
	})
}

// Observer returns an engine observer that publishes every event of the
// session. Publish failures are logged; they never interrupt play.
func (b *Broadcaster) Observer(ctx context.Context, sessionID uuid.UUID) engine.Observer {
	return engine.ObserverFunc(func(ev engine.Event) {
		if err := b.PublishEngineEvent(ctx, sessionID, ev); err != nil {
			b.logger.Warn("Dropped session event",
				"session_id", sessionID.String(),
				"event_type", ev.Type,
				"error", err)
		}
	})
}

// Subscribe opens a subscription to a session's channel. The caller
// closes it.
func (b *Broadcaster) Subscribe(ctx context.Context, sessionID uuid.UUID) *redis.PubSub {
	return b.redisClient.Subscribe(ctx, Channel(sessionID))
}

// publishToSession publishes an event to the session-specific channel
func (b *Broadcaster) publishToSession(ctx context.Context, sessionID uuid.UUID, event Event) error {
	channel := Channel(sessionID)

	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("Failed to marshal event", "error", err, "event_type", event.Type)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		b.logger.Error("Failed to publish event", "error", err, "channel", channel)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("Event published",
		"channel", channel,
		"event_type", event.Type,
	)

	return nil
}
