package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/campushub/identity-service/internal/core/port"
)

// SlidingWindowConfig tunes the attempt store backing the limiter.
type SlidingWindowConfig struct {
	KeyPrefix string
	TTL       time.Duration
}

// RateLimitStore keeps per-caller attempt timestamps in Redis sorted sets.
type RateLimitStore struct {
	client *redis.Client
	cfg    SlidingWindowConfig
}

// NewRateLimitStore constructs an attempt store over the given client.
func NewRateLimitStore(client *redis.Client, cfg SlidingWindowConfig) *RateLimitStore {
	return &RateLimitStore{client: client, cfg: cfg}
}

// RecordAttempt adds one attempt timestamp and refreshes the key TTL.
func (s *RateLimitStore) RecordAttempt(ctx context.Context, identifier string, at time.Time) error {
	key := s.key(identifier)
	member := redis.Z{Score: float64(at.UnixNano()), Member: at.UnixNano()}

	if err := s.client.ZAdd(ctx, key, member).Err(); err != nil {
		return fmt.Errorf("redis zadd: %w", err)
	}

	if s.cfg.TTL > 0 {
		if err := s.client.Expire(ctx, key, s.cfg.TTL).Err(); err != nil {
			return fmt.Errorf("redis expire: %w", err)
		}
	}

	return nil
}

// CountAttempts reports how many attempts fall inside the window that ends
// at the reference time.
func (s *RateLimitStore) CountAttempts(ctx context.Context, identifier string, window time.Duration, reference time.Time) (int, error) {
	if window <= 0 {
		return 0, errors.New("window must be positive")
	}

	key := s.key(identifier)
	lo := formatScore(reference.Add(-window))
	hi := formatScore(reference)

	count, err := s.client.ZCount(ctx, key, lo, hi).Result()
	if err != nil {
		return 0, fmt.Errorf("redis zcount: %w", err)
	}

	return int(count), nil
}

// TrimWindow drops attempts that slid out of the window.
func (s *RateLimitStore) TrimWindow(ctx context.Context, identifier string, window time.Duration, reference time.Time) error {
	if window <= 0 {
		return errors.New("window must be positive")
	}

	key := s.key(identifier)
	threshold := formatScore(reference.Add(-window))

	if err := s.client.ZRemRangeByScore(ctx, key, "-inf", threshold).Err(); err != nil {
		return fmt.Errorf("redis zremrangebyscore: %w", err)
	}

	return nil
}

// OldestAttempt returns the earliest attempt still inside the window, used to
// compute a Retry-After hint.
func (s *RateLimitStore) OldestAttempt(ctx context.Context, identifier string, window time.Duration, reference time.Time) (time.Time, bool, error) {
	if window <= 0 {
		return time.Time{}, false, errors.New("window must be positive")
	}

	key := s.key(identifier)

	values, err := s.client.ZRangeByScore(ctx, key, &redis.ZRangeBy{
		Min:    formatScore(reference.Add(-window)),
		Max:    formatScore(reference),
		Offset: 0,
		Count:  1,
	}).Result()
	if err != nil {
		return time.Time{}, false, fmt.Errorf("redis zrangebyscore: %w", err)
	}

	if len(values) == 0 {
		return time.Time{}, false, nil
	}

	ts, err := strconv.ParseInt(values[0], 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse attempt timestamp: %w", err)
	}

	return time.Unix(0, ts), true, nil
}

func (s *RateLimitStore) key(identifier string) string {
	if s.cfg.KeyPrefix == "" {
		return identifier
	}
	return fmt.Sprintf("%s:%s", s.cfg.KeyPrefix, identifier)
}

func formatScore(at time.Time) string {
	return fmt.Sprintf("%f", float64(at.UnixNano()))
}

var _ port.RateLimitStore = (*RateLimitStore)(nil)
