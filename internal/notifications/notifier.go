// Package notifications publishes social graph events into Redis channels.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"murmur/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// Event types published to user channels.
const (
	EventReaction = "reaction"
	EventFollow   = "follow"
	EventTagged   = "tagged"
	EventComment  = "comment"
	EventReply    = "reply"
)

// Event is the JSON payload delivered on a user's channel.
type Event struct {
	Type          string    `json:"type"`
	ActorID       uint      `json:"actor_id"`
	ActorUsername string    `json:"actor_username"`
	PostID        uint      `json:"post_id,omitempty"`
	CommentID     uint      `json:"comment_id,omitempty"`
	ReplyID       uint      `json:"reply_id,omitempty"`
	Detail        string    `json:"detail,omitempty"`
	At            time.Time `json:"at"`
}

// UserChannel returns the channel events for userID are published on.
func UserChannel(userID uint) string {
	return fmt.Sprintf("social:user:%d", userID)
}

// Notifier provides helpers to publish notifications into Redis channels
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishUser sends ev to a user's channel. Events to oneself are dropped.
func (n *Notifier) PublishUser(ctx context.Context, userID uint, ev Event) error {
	if n == nil || n.rdb == nil || userID == 0 || userID == ev.ActorID {
		return nil
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return n.rdb.Publish(ctx, UserChannel(userID), payload).Err()
}

// Notify publishes ev to each recipient, logging failures. Delivery is best
// effort and never fails the write that produced the event.
func (n *Notifier) Notify(ctx context.Context, ev Event, recipients ...uint) {
	for _, id := range recipients {
		if err := n.PublishUser(ctx, id, ev); err != nil {
			middleware.Logger.WarnContext(ctx, "failed to publish event",
				slog.String("type", ev.Type),
				slog.Uint64("recipient", uint64(id)),
				slog.String("error", err.Error()),
			)
		}
	}
}
