package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/sbn-software/samsync/internal/shared/errors"
	"github.com/sbn-software/samsync/internal/shared/logger"
)

const (
	// runLockKeyPrefix is the prefix for all run lock keys
	runLockKeyPrefix = "samsync:lock:"
)

// releaseScript deletes the lock only while it still holds our token, so an
// expired lock re-acquired by another run is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RunLocker keeps two runs of the same kind against the same experiment from
// overlapping.
type RunLocker struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Interface
}

// RunLock is a held lock.
type RunLock struct {
	locker *RunLocker
	key    string
	token  string
}

func NewRunLocker(client *redis.Client, ttl time.Duration, log logger.Interface) *RunLocker {
	return &RunLocker{client: client, ttl: ttl, logger: log}
}

// buildKey builds the Redis key of a run lock
// Format: samsync:lock:{kind}:{experiment}
func (l *RunLocker) buildKey(kind, experiment string) string {
	return fmt.Sprintf("%s%s:%s", runLockKeyPrefix, kind, experiment)
}

// Acquire takes the lock for kind and experiment. A lock held by another run
// is reported as a conflict error.
func (l *RunLocker) Acquire(ctx context.Context, kind, experiment string) (*RunLock, error) {
	key := l.buildKey(kind, experiment)
	token := uuid.NewString()

	acquired, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire run lock: %w", err)
	}
	if !acquired {
		remaining, _ := l.client.TTL(ctx, key).Result()
		return nil, errors.NewConflictError("another run holds the lock",
			fmt.Sprintf("%s (expires in %s)", key, remaining))
	}

	l.logger.Debugw("run lock acquired", "key", key, "ttl", l.ttl)
	return &RunLock{locker: l, key: key, token: token}, nil
}

// Release frees the lock. Releasing a lock that already expired is not an error.
func (r *RunLock) Release(ctx context.Context) error {
	deleted, err := releaseScript.Run(ctx, r.locker.client, []string{r.key}, r.token).Int()
	if err != nil {
		return fmt.Errorf("failed to release run lock: %w", err)
	}
	if deleted == 0 {
		r.locker.logger.Warnw("run lock expired before release", "key", r.key)
	}
	return nil
}

// Key returns the Redis key of the lock.
func (r *RunLock) Key() string {
	return r.key
}
