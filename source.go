/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/Seednode/jeopardy/games/jeopardy"
)

// newSource picks where boards are dealt from and wraps it in the clue cache.
// The returned func releases anything the source holds open.
func newSource(ctx context.Context, cfg *Config, clock clockwork.Clock) (jeopardy.Source, func() error, error) {
	noop := func() error { return nil }

	if cfg.clueFile != "" {
		src, err := jeopardy.LoadFileSource(cfg.clueFile)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load clue file: %w", err)
		}

		logf(cfg, "START: Dealing boards from %s", cfg.clueFile)

		return src, noop, nil
	}

	client := jeopardy.NewAPIClient(cfg.apiURL, cfg.apiTimeout)
	client.SetHeader("User-Agent", "jeopardy/"+releaseVersion)

	logf(cfg, "START: Dealing boards from %s", cfg.apiURL)

	if cfg.cacheTTL <= 0 {
		return client, noop, nil
	}

	if cfg.redisAddr == "" {
		cache := jeopardy.NewMemoryCache(clock)

		return jeopardy.NewCachedSource(client, cache, cfg.cacheTTL, log.Logger), noop, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.redisAddr,
		Password: cfg.redisPassword,
		DB:       cfg.redisDB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()

		return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.redisAddr, err)
	}

	logf(cfg, "START: Caching clues in redis at %s for %s", cfg.redisAddr, cfg.cacheTTL)

	return jeopardy.NewCachedSource(client, jeopardy.NewRedisCache(rdb), cfg.cacheTTL, log.Logger), rdb.Close, nil
}
