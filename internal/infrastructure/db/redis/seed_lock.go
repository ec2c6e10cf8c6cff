package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/tata/car-sales/internal/core/domain"
)

const defaultLockTTL = time.Minute

// releaseScript deletes the key only while it still holds our token, so an
// expired lock taken over by another process is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// SeedLock is a single-holder lock on key seed:lock:<name>.
type SeedLock struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewSeedLock creates a lock; ttl <= 0 selects defaultLockTTL.
func NewSeedLock(client *redis.Client, name string, ttl time.Duration) *SeedLock {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &SeedLock{client: client, key: "seed:lock:" + name, ttl: ttl}
}

// Acquire takes the lock or returns domain.ErrSeedInProgress when another
// holder has it.
func (l *SeedLock) Acquire(ctx context.Context) (func(context.Context) error, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("seed lock: %w", err)
	}
	if !ok {
		return nil, domain.ErrSeedInProgress
	}

	release := func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{l.key}, token).Err(); err != nil {
			return fmt.Errorf("seed lock release: %w", err)
		}
		return nil
	}
	return release, nil
}
