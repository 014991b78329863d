package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

// LockKeyPrefix namespaces lock keys.
const LockKeyPrefix = "lock:"

var (
	releaseScript = rueidis.NewLuaScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

	extendScript = rueidis.NewLuaScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)
)

// Locker provides token based mutual exclusion across processes. A lock
// expires after its TTL unless extended by the holder.
type Locker struct {
	client rueidis.Client
	logger *zap.Logger
}

// NewLocker creates a Locker on the given client.
func NewLocker(client rueidis.Client, logger *zap.Logger) *Locker {
	return &Locker{
		client: client,
		logger: logger.Named("redis_lock"),
	}
}

// Acquire tries to take the lock. It returns the holder token and true on
// success, or false when another holder owns the lock.
func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()

	err := l.client.Do(ctx, l.client.B().Set().
		Key(LockKeyPrefix+key).
		Value(token).
		Nx().
		PxMilliseconds(ttl.Milliseconds()).
		Build()).Error()
	if rueidis.IsRedisNil(err) {
		return "", false, nil
	}

	if err != nil {
		return "", false, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}

	l.logger.Debug("Acquired lock", zap.String("key", key), zap.Duration("ttl", ttl))

	return token, true, nil
}

// Extend resets the TTL of a lock still held with token. It returns false when
// the lock expired or belongs to someone else.
func (l *Locker) Extend(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	result, err := extendScript.Exec(ctx, l.client,
		[]string{LockKeyPrefix + key},
		[]string{token, fmt.Sprint(ttl.Milliseconds())},
	).AsInt64()
	if err != nil {
		return false, fmt.Errorf("failed to extend lock %s: %w", key, err)
	}

	return result == 1, nil
}

// Release frees a lock held with token. Releasing a lock owned by someone else
// is a no-op.
func (l *Locker) Release(ctx context.Context, key, token string) error {
	result, err := releaseScript.Exec(ctx, l.client,
		[]string{LockKeyPrefix + key},
		[]string{token},
	).AsInt64()
	if err != nil {
		return fmt.Errorf("failed to release lock %s: %w", key, err)
	}

	if result == 0 {
		l.logger.Warn("Lock was no longer held on release", zap.String("key", key))
	}

	return nil
}
