/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package jeopardy

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const cacheKeyPrefix = "jeopardy:clues:"

// Cache stores encoded clue pools by key.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type memoryEntry struct {
	value   []byte
	expires time.Time
}

// MemoryCache is a process-local Cache. Entries expire according to clock.
type MemoryCache struct {
	mu      sync.Mutex
	clock   clockwork.Clock
	entries map[string]memoryEntry
}

func NewMemoryCache(clock clockwork.Clock) *MemoryCache {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &MemoryCache{
		clock:   clock,
		entries: make(map[string]memoryEntry),
	}
}

func (m *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}

	if !e.expires.IsZero() && !m.clock.Now().Before(e.expires) {
		delete(m.entries, key)
		return nil, false, nil
	}

	return e.value, true, nil
}

func (m *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := memoryEntry{value: value}
	if ttl > 0 {
		e.expires = m.clock.Now().Add(ttl)
	}
	m.entries[key] = e

	return nil
}

// RedisCache shares clue pools between instances through redis.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	return value, true, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

// CachedSource remembers clue pools fetched from an underlying Source.
// Category listings always go to the underlying Source, so every game still
// draws from a fresh pool.
type CachedSource struct {
	Source
	cache  Cache
	ttl    time.Duration
	logger zerolog.Logger
}

func NewCachedSource(src Source, cache Cache, ttl time.Duration, logger zerolog.Logger) *CachedSource {
	return &CachedSource{
		Source: src,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

func (c *CachedSource) Clues(ctx context.Context, categoryID int) ([]Clue, error) {
	key := cacheKeyPrefix + strconv.Itoa(categoryID)

	data, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.Warn().Err(err).Int("category", categoryID).Msg("clue cache read failed")
	}
	if ok {
		var clues []Clue
		if err := json.Unmarshal(data, &clues); err == nil {
			return clues, nil
		}
		c.logger.Warn().Int("category", categoryID).Msg("discarding undecodable cached clues")
	}

	clues, err := c.Source.Clues(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	data, err = json.Marshal(clues)
	if err == nil {
		err = c.cache.Set(ctx, key, data, c.ttl)
	}
	if err != nil {
		c.logger.Warn().Err(err).Int("category", categoryID).Msg("clue cache write failed")
	}

	return clues, nil
}
