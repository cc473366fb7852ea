package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	leaseKey = "health:retry:drain-lease"
	leaseTTL = 25 * time.Second
)

// RedisLease elects one draining instance per tick via SET NX. Missing the
// lease is not an error: the holder drains, everyone else waits for the next
// tick. The guarded UPDATE claims in the store remain the real fence; the
// lease only avoids wasted competing passes.
type RedisLease struct {
	client *redis.Client
	owner  string
	logger *slog.Logger
}

func NewRedisLease(client *redis.Client, logger *slog.Logger) *RedisLease {
	return &RedisLease{
		client: client,
		owner:  uuid.NewString(),
		logger: logger,
	}
}

// Acquire takes the lease if free. Redis being down degrades to leaderless
// draining rather than halting the queue.
func (l *RedisLease) Acquire(ctx context.Context) (bool, error) {
	ok, err := l.client.SetNX(ctx, leaseKey, l.owner, leaseTTL).Result()
	if err != nil {
		l.logger.Warn("drain lease unavailable, proceeding without it", "err", err)
		return true, nil
	}
	return ok, nil
}

// Release deletes the lease if this instance still holds it. The check and
// delete are two round trips; the worst case is deleting a lease that just
// expired and was re-acquired, which costs one extra concurrent pass and is
// harmless given the guarded claims.
func (l *RedisLease) Release(ctx context.Context) {
	val, err := l.client.Get(ctx, leaseKey).Result()
	if err != nil {
		return
	}
	if val == l.owner {
		if err := l.client.Del(ctx, leaseKey).Err(); err != nil {
			l.logger.Warn("drain lease release failed", "err", err)
		}
	}
}
