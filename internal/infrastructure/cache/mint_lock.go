package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const mintLockPrefix = "bridge:mint-lock:"

// DefaultMintLockTTL bounds how long a crashed holder can block a retry
const DefaultMintLockTTL = 2 * time.Minute

// ReleaseFunc gives a held lock back
type ReleaseFunc func()

// MintLock serialises mint submissions per source burn
type MintLock interface {
	// TryAcquire returns ok=false without blocking when the key is held
	TryAcquire(ctx context.Context, key string) (release ReleaseFunc, ok bool, err error)
}

// RedisMintLock is a SETNX lock shared by every replica
type RedisMintLock struct {
	client RedisClient
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisMintLock creates a new distributed mint lock
func NewRedisMintLock(client RedisClient, ttl time.Duration, logger *zap.Logger) *RedisMintLock {
	if ttl <= 0 {
		ttl = DefaultMintLockTTL
	}
	return &RedisMintLock{client: client, ttl: ttl, logger: logger}
}

func (l *RedisMintLock) TryAcquire(ctx context.Context, key string) (ReleaseFunc, bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, mintLockPrefix+key, token, l.ttl)
	if err != nil || !ok {
		return nil, false, err
	}
	release := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := l.client.CompareAndDelete(ctx, mintLockPrefix+key, token); err != nil {
			l.logger.Warn("Failed to release mint lock", zap.String("key", key), zap.Error(err))
		}
	}
	return release, true, nil
}

// LocalMintLock is an in-process lock used when Redis is not configured
type LocalMintLock struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewLocalMintLock creates a new in-process mint lock
func NewLocalMintLock() *LocalMintLock {
	return &LocalMintLock{held: make(map[string]struct{})}
}

func (l *LocalMintLock) TryAcquire(_ context.Context, key string) (ReleaseFunc, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.held[key]; busy {
		return nil, false, nil
	}
	l.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
	}, true, nil
}
