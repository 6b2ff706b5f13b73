// Package cache stores computed availability so repeated lookups for the same provider
// and day range skip the planner. Entries are keyed by a per-provider generation that
// every calendar change bumps, which retires all older entries at once.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"easyapt/backend/internal/domain"
)

type AvailabilityKey struct {
	ProviderID  uuid.UUID
	Zone        string
	FirstDay    domain.LocalDate
	LastDay     domain.LocalDate
	SlotMinutes int
}

// Lookup is the result of a Get. Generation is the provider generation the read saw and
// must be handed back to Set; a result planned before an invalidation then lands under a
// retired generation.
type Lookup struct {
	Days       []domain.DayAvailability
	Hit        bool
	Generation int64
}

type AvailabilityCache interface {
	Get(ctx context.Context, key AvailabilityKey) (Lookup, error)
	Set(ctx context.Context, key AvailabilityKey, generation int64, days []domain.DayAvailability) error
	Invalidate(ctx context.Context, providerID uuid.UUID) error
}

type Nop struct{}

func (Nop) Get(context.Context, AvailabilityKey) (Lookup, error) { return Lookup{}, nil }

func (Nop) Set(context.Context, AvailabilityKey, int64, []domain.DayAvailability) error { return nil }

func (Nop) Invalidate(context.Context, uuid.UUID) error { return nil }

type RedisAvailabilityCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisAvailabilityCache(rdb *redis.Client, ttl time.Duration, prefix string) *RedisAvailabilityCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "easyapt"
	}
	return &RedisAvailabilityCache{rdb: rdb, ttl: ttl, prefix: prefix}
}

func (c *RedisAvailabilityCache) Get(ctx context.Context, key AvailabilityKey) (Lookup, error) {
	gen, err := c.generation(ctx, key.ProviderID)
	if err != nil {
		return Lookup{}, err
	}
	raw, err := c.rdb.Get(ctx, c.entryKey(key, gen)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Lookup{Generation: gen}, nil
	}
	if err != nil {
		return Lookup{}, err
	}

	var days []domain.DayAvailability
	if err := json.Unmarshal(raw, &days); err != nil {
		return Lookup{Generation: gen}, fmt.Errorf("decode cached availability: %w", err)
	}
	return Lookup{Days: days, Hit: true, Generation: gen}, nil
}

// Set stores days under the generation returned by the Get that preceded planning.
func (c *RedisAvailabilityCache) Set(ctx context.Context, key AvailabilityKey, generation int64, days []domain.DayAvailability) error {
	if days == nil {
		days = []domain.DayAvailability{}
	}
	raw, err := json.Marshal(days)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.entryKey(key, generation), raw, c.ttl).Err()
}

func (c *RedisAvailabilityCache) Invalidate(ctx context.Context, providerID uuid.UUID) error {
	return c.rdb.Incr(ctx, c.generationKey(providerID)).Err()
}

func (c *RedisAvailabilityCache) generation(ctx context.Context, providerID uuid.UUID) (int64, error) {
	raw, err := c.rdb.Get(ctx, c.generationKey(providerID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(raw, 10, 64)
}

func (c *RedisAvailabilityCache) generationKey(providerID uuid.UUID) string {
	return c.prefix + ":avail:gen:" + providerID.String()
}

func (c *RedisAvailabilityCache) entryKey(key AvailabilityKey, gen int64) string {
	return fmt.Sprintf("%s:avail:%s:%d:%s:%s:%s:%d",
		c.prefix, key.ProviderID, gen, key.Zone, key.FirstDay, key.LastDay, key.SlotMinutes)
}
