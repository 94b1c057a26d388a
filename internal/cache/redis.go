package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"duofinance/internal/ledger"
)

const keyPrefix = "duofinance:summary"

// RedisSummaryCache is a SummaryCache backed by Redis.
type RedisSummaryCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSummaryCache wraps an existing client. Entries expire after ttl.
func NewRedisSummaryCache(client *redis.Client, ttl time.Duration) *RedisSummaryCache {
	return &RedisSummaryCache{client: client, ttl: ttl}
}

// Connect parses a redis:// URL, pings the server and returns the client.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func generationKey(ownerID string) string {
	return fmt.Sprintf("%s:%s:gen", keyPrefix, ownerID)
}

func entryKey(ownerID string, generation Version, period ledger.Period) string {
	return fmt.Sprintf("%s:%s:%d:%s", keyPrefix, ownerID, generation, period)
}

func (c *RedisSummaryCache) generation(ctx context.Context, ownerID string) (Version, error) {
	gen, err := c.client.Get(ctx, generationKey(ownerID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return Version(gen), err
}

func (c *RedisSummaryCache) Get(ctx context.Context, ownerID string, period ledger.Period) (ledger.Summary, Version, bool, error) {
	gen, err := c.generation(ctx, ownerID)
	if err != nil {
		return ledger.Summary{}, 0, false, fmt.Errorf("read generation: %w", err)
	}

	raw, err := c.client.Get(ctx, entryKey(ownerID, gen, period)).Bytes()
	if errors.Is(err, redis.Nil) {
		return ledger.Summary{}, gen, false, nil
	}
	if err != nil {
		return ledger.Summary{}, gen, false, fmt.Errorf("read summary: %w", err)
	}

	var summary ledger.Summary
	if err := json.Unmarshal(raw, &summary); err != nil {
		return ledger.Summary{}, gen, false, fmt.Errorf("decode summary: %w", err)
	}
	return summary, gen, true, nil
}

// Set writes under the given generation, never the current one, so a summary
// computed before an Invalidate cannot be stored where later reads look.
func (c *RedisSummaryCache) Set(ctx context.Context, ownerID string, period ledger.Period, version Version, summary ledger.Summary) error {
	raw, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}

	if err := c.client.Set(ctx, entryKey(ownerID, version, period), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}

func (c *RedisSummaryCache) Invalidate(ctx context.Context, ownerID string) error {
	if err := c.client.Incr(ctx, generationKey(ownerID)).Err(); err != nil {
		return fmt.Errorf("bump generation: %w", err)
	}
	return nil
}
