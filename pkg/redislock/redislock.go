// Package redislock serializes work on a key across goroutines and processes.
package redislock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/exp/slog"
)

const (
	defaultTTL         = 30 * time.Second
	defaultRetryDelay  = 25 * time.Millisecond
	defaultDialTimeout = 5 * time.Second
)

// ErrNotAcquired is returned when the lock could not be taken before the context ended.
var ErrNotAcquired = errors.New("lock not acquired")

// Locker takes an exclusive lock on key. The returned func releases it.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

var releaseScript = goredis.NewScript(`
if redis.call('get', KEYS[1]) == ARGV[1] then
  return redis.call('del', KEYS[1])
else
  return 0
end
`)

// RedisLocker is a Locker backed by SET NX PX with a token-checked release.
type RedisLocker struct {
	client     goredis.UniversalClient
	prefix     string
	ttl        time.Duration
	retryDelay time.Duration
}

// Option configures a RedisLocker.
type Option func(*RedisLocker)

// WithTTL sets how long a lock survives if its holder dies.
func WithTTL(ttl time.Duration) Option {
	return func(l *RedisLocker) {
		if ttl > 0 {
			l.ttl = ttl
		}
	}
}

// WithRetryDelay sets the polling interval while waiting for a held lock.
func WithRetryDelay(d time.Duration) Option {
	return func(l *RedisLocker) {
		if d > 0 {
			l.retryDelay = d
		}
	}
}

// NewRedisLocker creates a RedisLocker. Keys are stored under prefix.
func NewRedisLocker(client goredis.UniversalClient, prefix string, opts ...Option) *RedisLocker {
	l := &RedisLocker{
		client:     client,
		prefix:     prefix,
		ttl:        defaultTTL,
		retryDelay: defaultRetryDelay,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Lock blocks until key is free or ctx is done.
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := l.prefix + key
	token := uuid.NewString()

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrNotAcquired, key, ctx.Err())
			}
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %v", ErrNotAcquired, key, ctx.Err())
		case <-time.After(l.retryDelay):
		}
	}

	return func() {
		// release with a fresh context so a cancelled request still frees the key
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.client, []string{redisKey}, token).Err(); err != nil {
			slog.Error("Failed to release lock", "key", key, "error", err)
		}
	}, nil
}

// LocalLocker is an in-process Locker used when Redis is not configured.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

// NewLocalLocker creates a LocalLocker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{slots: make(map[string]*slot)}
}

// Lock blocks until key is free or ctx is done.
func (l *LocalLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	s, ok := l.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	l.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		l.drop(key, s)
		return nil, fmt.Errorf("%w: %s: %v", ErrNotAcquired, key, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.ch
			l.drop(key, s)
		})
	}, nil
}

func (l *LocalLocker) drop(key string, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}

// NewClientFromURL creates a Redis client from a redis:// URL and checks it with PING.
func NewClientFromURL(ctx context.Context, redisURL string) (*goredis.Client, error) {
	if redisURL == "" {
		return nil, errors.New("redis url is required")
	}
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = defaultDialTimeout
	}
	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
