package lockout

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	failureKeyPrefix = "pin:failures:"
	lockKeyPrefix    = "pin:lock:"
)

// Redis is the production lockout Store. Failure counts live in a key with
// the window as TTL, so the sliding window resets itself without a sweeper.
type Redis struct {
	client redis.Cmdable
}

func NewRedis(client redis.Cmdable) *Redis {
	return &Redis{client: client}
}

func (s *Redis) RecordFailure(ctx context.Context, employeeID string, window time.Duration) (int64, error) {
	key := failureKeyPrefix + employeeID

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	// NX keeps the window anchored to the first failure.
	pipe.ExpireNX(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("record pin failure: %w", err)
	}
	return incr.Val(), nil
}

func (s *Redis) Lock(ctx context.Context, employeeID string, duration time.Duration) error {
	if err := s.client.Set(ctx, lockKeyPrefix+employeeID, "1", duration).Err(); err != nil {
		return fmt.Errorf("set pin lock: %w", err)
	}
	return nil
}

func (s *Redis) IsLocked(ctx context.Context, employeeID string) (bool, time.Duration, error) {
	ttl, err := s.client.TTL(ctx, lockKeyPrefix+employeeID).Result()
	if err != nil {
		return false, 0, fmt.Errorf("check pin lock: %w", err)
	}
	// TTL returns a negative duration when the key does not exist or has
	// no expiry.
	if ttl <= 0 {
		return false, 0, nil
	}
	return true, ttl, nil
}

func (s *Redis) Clear(ctx context.Context, employeeID string) error {
	if err := s.client.Del(ctx, failureKeyPrefix+employeeID, lockKeyPrefix+employeeID).Err(); err != nil {
		return fmt.Errorf("clear pin failures: %w", err)
	}
	return nil
}
