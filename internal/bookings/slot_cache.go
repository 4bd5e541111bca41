package bookings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultSlotCacheTTL bounds how stale a cached slot list can be when an
// invalidation is missed.
const DefaultSlotCacheTTL = 30 * time.Second

// slotVersionTTL outlives any in-flight read so a bump is never forgotten
// while a reader still holds the old version.
const slotVersionTTL = 24 * time.Hour

// SlotCache caches taken-slot lists per building and date.
//
// Readers take the version before reading the store and pass it to Set.
// Invalidate bumps the version, so a list read before a booking committed is
// never written back over the invalidation.
type SlotCache interface {
	Get(ctx context.Context, building, date string) ([]string, bool, error)
	Version(ctx context.Context, building, date string) (int64, error)
	Set(ctx context.Context, building, date string, version int64, slots []string) error
	Invalidate(ctx context.Context, building, date string) error
}

// RedisSlotCache stores slot lists as JSON strings.
type RedisSlotCache struct {
	redis redis.UniversalClient
	ttl   time.Duration
}

// NewRedisSlotCache creates a cache on client. A non-positive ttl uses
// DefaultSlotCacheTTL.
func NewRedisSlotCache(client redis.UniversalClient, ttl time.Duration) *RedisSlotCache {
	if client == nil {
		panic("bookings: redis client required")
	}
	if ttl <= 0 {
		ttl = DefaultSlotCacheTTL
	}
	return &RedisSlotCache{redis: client, ttl: ttl}
}

// slotKey escapes both parts so free-text values containing ':' cannot
// collide with another building and date.
func slotKey(building, date string) string {
	return "prism:slots:" + url.QueryEscape(building) + ":" + url.QueryEscape(date)
}

func slotVersionKey(building, date string) string {
	return "prism:slotver:" + url.QueryEscape(building) + ":" + url.QueryEscape(date)
}

// Get returns the cached slots and whether the key was present.
func (c *RedisSlotCache) Get(ctx context.Context, building, date string) ([]string, bool, error) {
	data, err := c.redis.Get(ctx, slotKey(building, date)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("bookings: get slot cache: %w", err)
	}

	var slots []string
	if err := json.Unmarshal(data, &slots); err != nil {
		return nil, false, fmt.Errorf("bookings: decode slot cache: %w", err)
	}
	if slots == nil {
		slots = []string{}
	}
	return slots, true, nil
}

// Version returns the invalidation counter, 0 when nothing was invalidated.
func (c *RedisSlotCache) Version(ctx context.Context, building, date string) (int64, error) {
	v, err := c.redis.Get(ctx, slotVersionKey(building, date)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("bookings: get slot cache version: %w", err)
	}
	return v, nil
}

// Set stores slots only while the version still equals version. A stale
// write is dropped silently.
func (c *RedisSlotCache) Set(ctx context.Context, building, date string, version int64, slots []string) error {
	if slots == nil {
		slots = []string{}
	}
	data, err := json.Marshal(slots)
	if err != nil {
		return fmt.Errorf("bookings: encode slot cache: %w", err)
	}

	verKey := slotVersionKey(building, date)
	err = c.redis.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, verKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, slotKey(building, date), data, c.ttl)
			return nil
		})
		return err
	}, verKey)
	if errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("bookings: set slot cache: %w", err)
	}
	return nil
}

func (c *RedisSlotCache) Invalidate(ctx context.Context, building, date string) error {
	verKey := slotVersionKey(building, date)
	_, err := c.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, verKey)
		pipe.Expire(ctx, verKey, slotVersionTTL)
		pipe.Del(ctx, slotKey(building, date))
		return nil
	})
	if err != nil {
		return fmt.Errorf("bookings: invalidate slot cache: %w", err)
	}
	return nil
}
