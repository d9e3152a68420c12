package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/qualitree/internal/database/testutil"
)

func newTestStore(t *testing.T) (*DatabaseStore, *time.Time) {
	t.Helper()
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	store := NewDatabaseStore(db)
	clock := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }
	return store, &clock
}

func TestDatabaseStoreSetGetDelete(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "tree:p")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.Set(ctx, "tree:p", []byte("first"), time.Minute))
	require.NoError(t, store.Set(ctx, "tree:p", []byte("second"), time.Minute))

	value, ok, err := store.Get(ctx, "tree:p")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "second", string(value))

	require.NoError(t, store.Delete(ctx, "tree:p", "missing"))
	_, ok, err = store.Get(ctx, "tree:p")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDatabaseStoreExpiry(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "short", []byte("x"), time.Second))
	require.NoError(t, store.Set(ctx, "forever", []byte("y"), 0))

	*clock = clock.Add(time.Minute)

	_, ok, err := store.Get(ctx, "short")
	require.NoError(t, err)
	require.False(t, ok)

	value, ok, err := store.Get(ctx, "forever")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "y", string(value))
}

func TestDatabaseStoreIncrementWithTTL(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	count, ttl, err := store.IncrementWithTTL(ctx, "rl:1.2.3.4", time.Minute)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
	require.Equal(t, time.Minute, ttl)

	*clock = clock.Add(20 * time.Second)
	count, ttl, err = store.IncrementWithTTL(ctx, "rl:1.2.3.4", time.Minute)
	require.NoError(t, err)
	require.EqualValues(t, 2, count)
	require.Equal(t, 40*time.Second, ttl)

	*clock = clock.Add(time.Minute)
	count, _, err = store.IncrementWithTTL(ctx, "rl:1.2.3.4", time.Minute)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
}

func TestDatabaseStorePurgeExpired(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "a", []byte("1"), time.Second))
	require.NoError(t, store.Set(ctx, "b", []byte("2"), time.Hour))
	require.NoError(t, store.Set(ctx, "c", []byte("3"), 0))

	removed, err := store.PurgeExpired(ctx, clock.Add(time.Minute))
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)

	_, ok, err := store.Get(ctx, "b")
	require.NoError(t, err)
	require.True(t, ok)
	_, ok, err = store.Get(ctx, "c")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestNilDatabaseStore(t *testing.T) {
	require.Nil(t, NewDatabaseStore(nil))

	var store *DatabaseStore
	_, _, err := store.Get(context.Background(), "k")
	require.Error(t, err)
}
