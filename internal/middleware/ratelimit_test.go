package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/charlesng35/qualitree/internal/cache"
	"github.com/charlesng35/qualitree/internal/database/testutil"
)

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryRateStore().(*memoryRateStore)
	store.clock = func() time.Time { return now }

	r := gin.New()
	r.Use(RateLimit(store, 2, time.Minute))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	hit := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		return w
	}

	for i := 0; i < 2; i++ {
		require.Equal(t, http.StatusOK, hit().Code)
	}

	w := hit()
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	require.NotEmpty(t, w.Header().Get("Retry-After"))

	now = now.Add(61 * time.Second)
	w = hit()
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))
}

type failingRateStore struct{}

func (failingRateStore) Increment(context.Context, string, time.Duration) (int, time.Duration, error) {
	return 0, 0, errors.New("store down")
}

func TestRateLimitFailsOpen(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RateLimit(failingRateStore{}, 1, time.Minute))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}
}

func TestDatabaseRateStoreSharesCounters(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	store := NewDatabaseRateStore(cache.NewDatabaseStore(db))
	require.NotNil(t, store)

	ctx := context.Background()
	count, ttl, err := store.Increment(ctx, "127.0.0.1|GET /ping", time.Minute)
	require.NoError(t, err)
	require.Equal(t, 1, count)
	require.Greater(t, ttl, time.Duration(0))

	count, _, err = store.Increment(ctx, "127.0.0.1|GET /ping", time.Minute)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	require.Nil(t, NewDatabaseRateStore(nil))
}

func TestMemoryRateStoreSweepsExpiredWindows(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryRateStore().(*memoryRateStore)
	store.clock = func() time.Time { return now }

	ctx := context.Background()
	for _, key := range []string{"a", "b", "c"} {
		_, _, err := store.Increment(ctx, key, time.Minute)
		require.NoError(t, err)
	}
	require.Equal(t, 3, store.size())

	now = now.Add(2 * time.Minute)
	count, ttl, err := store.Increment(ctx, "a", time.Minute)
	require.NoError(t, err)
	require.Equal(t, 1, count)
	require.Equal(t, time.Minute, ttl)
	require.Equal(t, 1, store.size())
}
