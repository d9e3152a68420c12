package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// initialGeneration is the generation of an id that was never invalidated.
const initialGeneration = "0"

// defaultSnapshotTTL bounds entries left behind under abandoned generations.
const defaultSnapshotTTL = time.Hour

// Snapshot keeps JSON encoded values of T in a Store. Entries are keyed by id
// and the id's generation; Invalidate bumps the generation so a value computed
// before the bump is never served after it. A Snapshot over a nil Store never
// hits and ignores writes.
type Snapshot[T any] struct {
	store  Store
	prefix string
	ttl    time.Duration
}

// NewSnapshot binds a Snapshot to store. Non-positive ttl falls back to an hour.
func NewSnapshot[T any](store Store, prefix string, ttl time.Duration) *Snapshot[T] {
	if ttl <= 0 {
		ttl = defaultSnapshotTTL
	}
	return &Snapshot[T]{store: store, prefix: prefix, ttl: ttl}
}

// Key returns the store key of the entry for id at generation.
func (s *Snapshot[T]) Key(id, generation string) string {
	return s.prefix + id + "@" + generation
}

func (s *Snapshot[T]) generationKey(id string) string {
	return s.prefix + id + "#gen"
}

// Generation returns the current generation of id. Read it before computing a
// value and pass it to Load and Save.
func (s *Snapshot[T]) Generation(ctx context.Context, id string) (string, error) {
	if s == nil || s.store == nil {
		return "", nil
	}
	payload, ok, err := s.store.Get(ctx, s.generationKey(id))
	if err != nil {
		return "", fmt.Errorf("cache: read generation of %s: %w", id, err)
	}
	if !ok || len(payload) == 0 {
		return initialGeneration, nil
	}
	return string(payload), nil
}

// Load reads the value for id at generation. Undecodable entries are dropped
// and reported as an error.
func (s *Snapshot[T]) Load(ctx context.Context, id, generation string) (T, bool, error) {
	var value T
	if s == nil || s.store == nil {
		return value, false, nil
	}

	key := s.Key(id, generation)
	payload, ok, err := s.store.Get(ctx, key)
	if err != nil || !ok {
		return value, false, err
	}
	if err := json.Unmarshal(payload, &value); err != nil {
		_ = s.store.Delete(ctx, key)
		return value, false, fmt.Errorf("cache: decode %s: %w", key, err)
	}
	return value, true, nil
}

// Save encodes value and stores it for id at generation. A value saved under a
// generation that was bumped meanwhile is unreachable and expires on its own.
func (s *Snapshot[T]) Save(ctx context.Context, id, generation string, value T) error {
	if s == nil || s.store == nil {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: encode %s: %w", s.Key(id, generation), err)
	}
	return s.store.Set(ctx, s.Key(id, generation), payload, s.ttl)
}

// Invalidate moves id to a fresh generation and drops the entry of the old one.
// Generations never repeat, so the generation key is kept without expiry.
func (s *Snapshot[T]) Invalidate(ctx context.Context, id string) error {
	if s == nil || s.store == nil {
		return nil
	}
	previous, err := s.Generation(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, s.generationKey(id), []byte(uuid.NewString()), 0); err != nil {
		return fmt.Errorf("cache: bump generation of %s: %w", id, err)
	}
	return s.store.Delete(ctx, s.Key(id, previous))
}
