package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"murmur/internal/middleware"
	"murmur/internal/observability"

	"github.com/redis/go-redis/v9"
)

const (
	UserKeyPrefix = "user:%d"
	PostKeyPrefix = "post:%d"
)

const (
	UserTTL = 5 * time.Minute
	PostTTL = 30 * time.Minute
	// TombstoneTTL outlives any in-flight loader that read a row before it
	// changed.
	TombstoneTTL = 15 * time.Second
)

// tombstone replaces an invalidated value. It is not valid JSON, so it can
// never collide with a cached entity.
const tombstone = "\x00gone"

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func PostKey(postID uint) string {
	return fmt.Sprintf(PostKeyPrefix, postID)
}

// Cache is a JSON cache-aside layer over Redis. A nil *Cache or one without
// a client is valid and always falls through to the loader.
type Cache struct {
	client *redis.Client
}

// New wraps client. client may be nil.
func New(client *redis.Client) *Cache {
	return &Cache{client: client}
}

func (c *Cache) enabled() bool {
	return c != nil && c.client != nil
}

// Aside loads key into dest, calling fetch and storing its result on a miss.
// fetch must populate dest. Redis failures degrade to fetch; fetch errors are
// returned as-is. Results are stored with SET NX, so a fill never replaces a
// tombstone left by Invalidate; while the tombstone lives every read goes to
// fetch.
func (c *Cache) Aside(ctx context.Context, key string, dest interface{}, ttl time.Duration, fetch func() error) error {
	if !c.enabled() {
		return fetch()
	}

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil && string(raw) == tombstone:
		observability.CacheLookups.WithLabelValues("invalidated").Inc()
		return fetch()
	case err == nil:
		if jsonErr := json.Unmarshal(raw, dest); jsonErr == nil {
			observability.CacheLookups.WithLabelValues("hit").Inc()
			return nil
		}
		observability.CacheLookups.WithLabelValues("error").Inc()
	case errors.Is(err, redis.Nil):
		observability.CacheLookups.WithLabelValues("miss").Inc()
	default:
		observability.CacheLookups.WithLabelValues("error").Inc()
		middleware.Logger.WarnContext(ctx, "cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	}

	if err := fetch(); err != nil {
		return err
	}

	payload, err := json.Marshal(dest)
	if err != nil {
		return nil
	}
	if err := c.client.SetNX(ctx, key, payload, ttl).Err(); err != nil {
		middleware.Logger.WarnContext(ctx, "cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	return nil
}

// Invalidate replaces keys with short-lived tombstones, ignoring Redis
// failures. A loader that read the old row and fills after the write
// committed loses to the tombstone instead of caching a deleted or
// outdated entity.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if !c.enabled() || len(keys) == 0 {
		return
	}
	_, err := c.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		for _, key := range keys {
			p.Set(ctx, key, tombstone, TombstoneTTL)
		}
		return nil
	})
	if err != nil {
		middleware.Logger.WarnContext(ctx, "cache invalidate failed", slog.Any("keys", keys), slog.String("error", err.Error()))
	}
}

func (c *Cache) InvalidatePost(ctx context.Context, postIDs ...uint) {
	keys := make([]string, 0, len(postIDs))
	for _, id := range postIDs {
		keys = append(keys, PostKey(id))
	}
	c.Invalidate(ctx, keys...)
}

func (c *Cache) InvalidateUser(ctx context.Context, userID uint) {
	c.Invalidate(ctx, UserKey(userID))
}
