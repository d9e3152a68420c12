package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/charlesng35/qualitree/internal/cache"
)

const defaultRateWindow = time.Minute

// RateStore counts hits for a key inside a fixed window and reports the time
// left until the window resets.
type RateStore interface {
	Increment(ctx context.Context, key string, window time.Duration) (count int, ttl time.Duration, err error)
}

type fixedWindow struct {
	hits  int
	until time.Time
}

// memoryRateStore is a per-process fixed window counter. Expired windows are
// swept at most once per window length.
type memoryRateStore struct {
	mu        sync.Mutex
	windows   map[string]fixedWindow
	nextSweep time.Time
	clock     func() time.Time
}

// NewMemoryRateStore constructs an in-process rate store.
func NewMemoryRateStore() RateStore {
	return &memoryRateStore{windows: make(map[string]fixedWindow), clock: time.Now}
}

func (s *memoryRateStore) Increment(_ context.Context, key string, window time.Duration) (int, time.Duration, error) {
	if window <= 0 {
		window = defaultRateWindow
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	if now.After(s.nextSweep) {
		for k, w := range s.windows {
			if !now.Before(w.until) {
				delete(s.windows, k)
			}
		}
		s.nextSweep = now.Add(window)
	}

	w, ok := s.windows[key]
	if !ok || !now.Before(w.until) {
		w = fixedWindow{until: now.Add(window)}
	}
	w.hits++
	s.windows[key] = w

	return w.hits, w.until.Sub(now), nil
}

func (s *memoryRateStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}

// cacheRateStore shares counters between instances through the cache table.
type cacheRateStore struct {
	store cache.Store
}

// NewDatabaseRateStore builds a RateStore on the shared cache store. A nil
// store yields a nil RateStore.
func NewDatabaseRateStore(store cache.Store) RateStore {
	if store == nil {
		return nil
	}
	return cacheRateStore{store: store}
}

func (s cacheRateStore) Increment(ctx context.Context, key string, window time.Duration) (int, time.Duration, error) {
	if window <= 0 {
		window = defaultRateWindow
	}
	count, ttl, err := s.store.IncrementWithTTL(ctx, "ratelimit:"+key, window)
	return int(count), ttl, err
}
