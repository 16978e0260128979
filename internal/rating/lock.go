package rating

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

// KeyedMutex is an in-process Locker with one lock per movie.  It only
// serialises work inside a single server; use RedisLocker when several
// instances share the database.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[uint64]*keyedEntry
}

type keyedEntry struct {
	ch   chan struct{}
	refs int
}

// NewKeyedMutex returns an empty KeyedMutex.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[uint64]*keyedEntry)}
}

// Lock blocks until the movie's lock is free or ctx is done.
func (k *KeyedMutex) Lock(ctx context.Context, movieID uint64) (func(), error) {
	k.mu.Lock()
	e, ok := k.locks[movieID]
	if !ok {
		e = &keyedEntry{ch: make(chan struct{}, 1)}
		k.locks[movieID] = e
	}
	e.refs++
	k.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		k.release(movieID, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			k.release(movieID, e)
		})
	}, nil
}

func (k *KeyedMutex) release(movieID uint64, e *keyedEntry) {
	k.mu.Lock()
	defer k.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(k.locks, movieID)
	}
}

// RedisLocker is a Locker backed by a redsync mutex per movie, so
// every server instance sharing the redis sees the same lock.
type RedisLocker struct {
	rs     *redsync.Redsync
	expiry time.Duration
	prefix string
}

// NewRedisLocker builds a RedisLocker.  expiry bounds how long a
// crashed holder can block others.
func NewRedisLocker(rdb *redis.Client, expiry time.Duration) *RedisLocker {
	if expiry <= 0 {
		expiry = 10 * time.Second
	}
	return &RedisLocker{
		rs:     redsync.New(goredis.NewPool(rdb)),
		expiry: expiry,
		prefix: "rating:lock",
	}
}

// Lock acquires the movie's distributed mutex.
func (l *RedisLocker) Lock(ctx context.Context, movieID uint64) (func(), error) {
	mu := l.rs.NewMutex(fmt.Sprintf("%s:%d", l.prefix, movieID),
		redsync.WithExpiry(l.expiry),
		redsync.WithTries(20),
		redsync.WithRetryDelay(50*time.Millisecond),
	)
	if err := mu.LockContext(ctx); err != nil {
		return nil, fmt.Errorf("acquire %s: %w", mu.Name(), err)
	}
	return func() {
		// Release even if the request context is already cancelled.
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_, _ = mu.UnlockContext(ctx)
	}, nil
}
