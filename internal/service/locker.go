package service

import (
	"context"
	"errors"
	"sync"
	"time"

	pkgerrors "edusync/backend/pkg/errors"
	pkgredis "edusync/backend/pkg/redis"
)

// ReleaseFunc 释放已获取的锁
type ReleaseFunc func(ctx context.Context) error

// RunLocker 排课运行互斥锁
// 已被持有时返回 pkgerrors.ErrLockNotAcquired
type RunLocker interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (ReleaseFunc, error)
}

// ── Redis 实现（多实例部署） ──

type redisLocker struct {
	client *pkgredis.Client
}

// NewRedisLocker 基于 Redis SET NX 的分布式锁
func NewRedisLocker(client *pkgredis.Client) RunLocker {
	return &redisLocker{client: client}
}

func (l *redisLocker) Acquire(ctx context.Context, name string, ttl time.Duration) (ReleaseFunc, error) {
	lock, err := l.client.AcquireLock(ctx, name, ttl)
	if err != nil {
		return nil, err
	}
	return lock.Release, nil
}

// ── 进程内实现（Redis 不可用时） ──

type localLocker struct {
	mu   sync.Mutex
	seq  uint64
	held map[string]localLock
}

type localLock struct {
	token    uint64
	expireAt time.Time
}

// NewLocalLocker 进程内锁，仅保证单实例互斥
func NewLocalLocker() RunLocker {
	return &localLocker{held: make(map[string]localLock)}
}

func (l *localLocker) Acquire(_ context.Context, name string, ttl time.Duration) (ReleaseFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if cur, ok := l.held[name]; ok && (cur.expireAt.IsZero() || time.Now().Before(cur.expireAt)) {
		return nil, pkgerrors.ErrLockNotAcquired
	}

	l.seq++
	lock := localLock{token: l.seq}
	if ttl > 0 {
		lock.expireAt = time.Now().Add(ttl)
	}
	l.held[name] = lock

	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if cur, ok := l.held[name]; !ok || cur.token != lock.token {
			return pkgerrors.ErrLockNotHeld
		}
		delete(l.held, name)
		return nil
	}, nil
}

func isLockBusy(err error) bool {
	return errors.Is(err, pkgerrors.ErrLockNotAcquired)
}
