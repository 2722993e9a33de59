package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
)

// Counter is the state of one fixed window after a hit.
type Counter struct {
	Count       int
	WindowStart time.Time
}

// Store counts hits per key within fixed windows.
type Store interface {
	// Hit records one request for key and returns the window's count
	// including this hit. A window that has expired starts over.
	Hit(ctx context.Context, key string, window time.Duration) (Counter, error)
	// Sweep drops windows that expired before now.
	Sweep(now time.Time)
}

type memoryEntry struct {
	count   int
	start   time.Time
	expires time.Time
}

// MemoryStore keeps counters in process memory. Entries are removed by
// Sweep once their window has passed, so memory stays bounded by the number
// of clients active within the longest window.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	now     func() time.Time
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*memoryEntry), now: time.Now}
}

// Hit implements Store.
func (s *MemoryStore) Hit(_ context.Context, key string, window time.Duration) (Counter, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || !now.Before(e.expires) {
		e = &memoryEntry{start: now, expires: now.Add(window)}
		s.entries[key] = e
	}
	e.count++
	return Counter{Count: e.count, WindowStart: e.start}, nil
}

// Sweep implements Store.
func (s *MemoryStore) Sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, e := range s.entries {
		if !now.Before(e.expires) {
			delete(s.entries, key)
		}
	}
}

// Len returns the number of live counters.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// RedisStore keeps counters in Redis so several API instances share limits.
// Keys expire on their own, so Sweep is a no-op.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore returns a store using client. Keys are namespaced under prefix.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "ratelimit:"
	}
	return &RedisStore{client: client, prefix: prefix}
}

// Hit implements Store with INCR and, on the first hit of a window, PEXPIRE.
func (s *RedisStore) Hit(ctx context.Context, key string, window time.Duration) (Counter, error) {
	k := s.prefix + key

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	ttl := pipe.PTTL(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil {
		return Counter{}, errors.Wrap(err, "redis rate limit hit")
	}

	remaining := ttl.Val()
	if incr.Val() == 1 || remaining < 0 {
		if err := s.client.PExpire(ctx, k, window).Err(); err != nil {
			return Counter{}, errors.Wrap(err, "redis rate limit expire")
		}
		remaining = window
	}

	start := time.Now().Add(remaining - window)
	return Counter{Count: int(incr.Val()), WindowStart: start}, nil
}

// Sweep implements Store.
func (s *RedisStore) Sweep(time.Time) {}
