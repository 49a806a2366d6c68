package cron

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	pkgredis "github.com/angelmondragon/supermarket-backend/pkg/redis"
)

const defaultLockTTL = 25 * time.Hour

// LockKeyFormat namespaces the maintenance lock per environment.
const LockKeyFormat = "sm:maintenance:lock:%s"

// Lock guards a maintenance cycle so only one replica runs it.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// RedisLock holds a SETNX key tagged with a per-acquire token. Release is a
// compare-and-delete, so an expired holder never frees a newer owner's lock.
type RedisLock struct {
	client pkgredis.Locker
	key    string
	ttl    time.Duration

	mu    sync.Mutex
	token string
}

// LockTTL sizes the lock to outlive one cycle but expire before the next.
func LockTTL(interval time.Duration) time.Duration {
	if interval <= 0 {
		return defaultLockTTL
	}
	return interval + interval/24
}

func NewRedisLock(client pkgredis.Locker, key string, ttl time.Duration) (*RedisLock, error) {
	if client == nil {
		return nil, errors.New("redis client required for lock")
	}
	if key == "" {
		return nil, errors.New("lock key is required")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLock{client: client, key: key, ttl: ttl}, nil
}

func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl)
	if err != nil {
		return false, fmt.Errorf("acquire %s: %w", l.key, err)
	}
	if ok {
		l.mu.Lock()
		l.token = token
		l.mu.Unlock()
	}
	return ok, nil
}

func (l *RedisLock) Release(ctx context.Context) error {
	l.mu.Lock()
	token := l.token
	l.token = ""
	l.mu.Unlock()
	if token == "" {
		return nil
	}
	if _, err := l.client.CompareAndDelete(ctx, l.key, token); err != nil {
		return fmt.Errorf("release %s: %w", l.key, err)
	}
	return nil
}

// LocalLock always grants the lock. Only safe with a single worker replica.
type LocalLock struct{}

func (LocalLock) Acquire(context.Context) (bool, error) { return true, nil }
func (LocalLock) Release(context.Context) error         { return nil }
