package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultChannel carries invalidations between service replicas.
const DefaultChannel = "workflow:cache:invalidate"

// Invalidation is the message exchanged over Redis.
type Invalidation struct {
	Origin string   `json:"origin"`
	Event  Event    `json:"event"`
	Tags   []string `json:"tags,omitempty"`
}

// RedisInvalidator fans cache invalidations out to every replica sharing a
// Redis channel. Local invalidation never depends on Redis being reachable.
type RedisInvalidator struct {
	rdb     *redis.Client
	channel string
	cache   *Cache
	origin  string
}

// NewRedisInvalidator binds c to channel on rdb.
func NewRedisInvalidator(rdb *redis.Client, channel string, c *Cache) *RedisInvalidator {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisInvalidator{rdb: rdb, channel: channel, cache: c, origin: uuid.NewString()}
}

// Publish invalidates locally, then tells the other replicas.
func (r *RedisInvalidator) Publish(ctx context.Context, ev Event, tags ...string) error {
	r.cache.Notify(ev, tags...)
	payload, err := json.Marshal(Invalidation{Origin: r.origin, Event: ev, Tags: tags})
	if err != nil {
		return fmt.Errorf("encode invalidation: %w", err)
	}
	if err := r.rdb.Publish(ctx, r.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish invalidation: %w", err)
	}
	return nil
}

// Run applies invalidations published by other replicas until ctx is done.
func (r *RedisInvalidator) Run(ctx context.Context) error {
	sub := r.rdb.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", r.channel, err)
	}
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			r.apply(msg.Payload)
		}
	}
}

func (r *RedisInvalidator) apply(payload string) {
	var inv Invalidation
	if err := json.Unmarshal([]byte(payload), &inv); err != nil {
		slog.Warn("cache: malformed invalidation", "channel", r.channel, "err", err)
		return
	}
	if inv.Origin == r.origin {
		return
	}
	n := r.cache.Notify(inv.Event, inv.Tags...)
	slog.Debug("cache: remote invalidation", "event", inv.Event, "tags", inv.Tags, "removed", n)
}
