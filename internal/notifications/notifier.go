// Package notifications publishes post change events to Redis.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"blogrr/internal/models"
	"blogrr/internal/observability"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// PostEventsChannel is the Redis channel post events are published on.
const PostEventsChannel = "blog:posts"

// Post event types.
const (
	EventPostCreated = "post.created"
	EventPostUpdated = "post.updated"
	EventPostDeleted = "post.deleted"
)

// PostEvent describes a committed change to a post.
type PostEvent struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	PostID     uint      `json:"post_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewPostEvent builds an event for post. OccurredAt is the post's updated_at,
// or now for deletions.
func NewPostEvent(eventType string, post *models.Post) PostEvent {
	occurred := post.UpdatedAt
	if eventType == EventPostDeleted || occurred.IsZero() {
		occurred = time.Now().UTC()
	}
	return PostEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		PostID:     post.ID,
		OccurredAt: occurred,
	}
}

// Notifier publishes post events into Redis. A Notifier with a nil client
// drops every event.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// Enabled reports whether events are actually delivered.
func (n *Notifier) Enabled() bool {
	return n != nil && n.rdb != nil
}

// PublishPostEvent sends event to PostEventsChannel.
func (n *Notifier) PublishPostEvent(ctx context.Context, event PostEvent) error {
	if !n.Enabled() {
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		observability.EventsPublished.WithLabelValues(event.Type, "error").Inc()
		return fmt.Errorf("marshal post event: %w", err)
	}

	if err := n.rdb.Publish(ctx, PostEventsChannel, payload).Err(); err != nil {
		observability.EventsPublished.WithLabelValues(event.Type, "error").Inc()
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}

	observability.EventsPublished.WithLabelValues(event.Type, "ok").Inc()
	return nil
}

// Ping checks the Redis connection. A disabled notifier is always healthy.
func (n *Notifier) Ping(ctx context.Context) error {
	if !n.Enabled() {
		return nil
	}
	return n.rdb.Ping(ctx).Err()
}
