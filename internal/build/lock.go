package build

import (
	"context"
	"fmt"
	"sync"
	"time"

	"template-builder/internal/common/errors"

	"github.com/redis/go-redis/v9"
)

// Lock serializes artifact-writing builds of the same template. Acquire
// fails with BUILD_IN_PROGRESS while another owner holds key.
type Lock interface {
	Acquire(ctx context.Context, key, owner string, ttl time.Duration) (release func(context.Context) error, err error)
}

// LocalLock is an in-process Lock for single-instance deployments.
type LocalLock struct {
	mu    sync.Mutex
	held  map[string]localHold
	clock func() time.Time
}

type localHold struct {
	owner   string
	expires time.Time
}

func NewLocalLock() *LocalLock {
	return &LocalLock{held: make(map[string]localHold), clock: time.Now}
}

func (l *LocalLock) Acquire(_ context.Context, key, owner string, ttl time.Duration) (func(context.Context) error, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.clock()
	if h, ok := l.held[key]; ok && now.Before(h.expires) {
		return nil, errors.NewBuildInProgressError(key)
	}
	l.held[key] = localHold{owner: owner, expires: now.Add(ttl)}

	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if h, ok := l.held[key]; ok && h.owner == owner {
			delete(l.held, key)
		}
		return nil
	}, nil
}

// releaseScript deletes the key only if it still holds our token, so an
// expired lock taken over by another build is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLock is a Lock shared by every instance using the same Redis.
type RedisLock struct {
	client *redis.Client
	prefix string
}

func NewRedisLock(client *redis.Client, prefix string) *RedisLock {
	return &RedisLock{client: client, prefix: prefix}
}

func (r *RedisLock) Acquire(ctx context.Context, key, owner string, ttl time.Duration) (func(context.Context) error, error) {
	fullKey := r.prefix + "lock:" + key
	ok, err := r.client.SetNX(ctx, fullKey, owner, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquiring build lock: %w", err)
	}
	if !ok {
		return nil, errors.NewBuildInProgressError(key)
	}
	return func(ctx context.Context) error {
		return releaseScript.Run(ctx, r.client, []string{fullKey}, owner).Err()
	}, nil
}
