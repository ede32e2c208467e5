package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// RedisSink stores series in RedisTimeSeries.
type RedisSink struct {
	Client *redis.Client
}

// NewRedisSink connects to the Redis server at url and checks it is reachable.
func NewRedisSink(ctx context.Context, url string) (*RedisSink, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisSink{Client: client}, nil
}

// EnsureSeries runs TS.CREATE and ignores "already exists" replies. A later
// write to the same timestamp replaces the earlier one.
func (s *RedisSink) EnsureSeries(ctx context.Context, key string, retention time.Duration) error {
	err := s.Client.Do(ctx, "TS.CREATE", key,
		"RETENTION", retention.Milliseconds(),
		"DUPLICATE_POLICY", "LAST",
	).Err()
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "already exists") {
			return nil
		}
		return fmt.Errorf("TS.CREATE %s: %w", key, err)
	}
	return nil
}

// Append runs TS.ADD for a single point.
func (s *RedisSink) Append(ctx context.Context, key string, ts time.Time, value decimal.Decimal) error {
	err := s.Client.Do(ctx, "TS.ADD", key, ts.UnixMilli(), value.String(), "ON_DUPLICATE", "LAST").Err()
	if err != nil {
		return fmt.Errorf("TS.ADD %s: %w", key, err)
	}
	return nil
}

// Close closes the Redis client.
func (s *RedisSink) Close() error {
	return s.Client.Close()
}
