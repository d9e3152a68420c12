package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/qualitree/internal/api"
	"github.com/charlesng35/qualitree/internal/app"
	iauth "github.com/charlesng35/qualitree/internal/auth"
	"github.com/charlesng35/qualitree/internal/cache"
	sharedtestutil "github.com/charlesng35/qualitree/internal/database/testutil"
	"github.com/charlesng35/qualitree/pkg/response"
)

const testJWTSecret = "test-suite-super-secret-key-32-bytes!!"

// Env encapsulates a fully-wired API instance backed by an in-memory database for handler tests.
type Env struct {
	T      *testing.T
	DB     *gorm.DB
	Router *gin.Engine
	Cache  *cache.DatabaseStore
	JWT    *iauth.JWTService
	Config *app.Config
}

// Option tweaks the configuration before the router is built.
type Option func(cfg *app.Config)

// WithJWT protects write routes with bearer tokens.
func WithJWT() Option {
	return func(cfg *app.Config) {
		cfg.Auth.JWT = app.JWTSettings{
			Enabled: true,
			Secret:  testJWTSecret,
			Issuer:  "test-suite",
			TTL:     time.Hour,
		}
	}
}

// WithRateLimit enables rate limiting with the given budget per window.
func WithRateLimit(requests int, window time.Duration) Option {
	return func(cfg *app.Config) {
		cfg.Server.RateLimit = app.RateLimitConfig{Enabled: true, Requests: requests, Window: window}
	}
}

// NewEnv provisions a fresh handler test environment with migrations and fixture data applied.
func NewEnv(t *testing.T, opts ...Option) *Env {
	t.Helper()

	gin.SetMode(gin.TestMode)

	db := sharedtestutil.MustOpenTestDB(t, sharedtestutil.WithFixtures())

	cfg := &app.Config{
		Cache: app.CacheConfig{TreeTTL: time.Minute},
		Monitoring: app.MonitoringConfig{
			Prometheus: app.PrometheusConfig{Enabled: true, Endpoint: "/metrics"},
			Health:     app.HealthConfig{Enabled: true},
		},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	store := cache.NewDatabaseStore(db)
	deps := api.Dependencies{Cache: store}

	var jwtSvc *iauth.JWTService
	if cfg.Auth.JWT.Enabled {
		var err error
		jwtSvc, err = iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
		require.NoError(t, err)
		deps.JWT = jwtSvc
	}

	router, err := api.NewRouter(db, cfg, deps)
	require.NoError(t, err)

	return &Env{
		T:      t,
		DB:     db,
		Router: router,
		Cache:  store,
		JWT:    jwtSvc,
		Config: cfg,
	}
}

// Token issues an access token for subject with the given scopes.
func (e *Env) Token(subject string, scopes ...string) string {
	e.T.Helper()
	require.NotNil(e.T, e.JWT, "environment built without WithJWT")

	token, err := e.JWT.GenerateAccessToken(iauth.AccessTokenInput{Subject: subject, Scopes: scopes})
	require.NoError(e.T, err)
	return token
}

// APIResponse represents the canonical API envelope returned by handlers.
type APIResponse struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Error   *response.ErrorInfo `json:"error"`
	Meta    *response.Meta      `json:"meta"`
}

// DecodeResponse parses the standard API response object from a recorder.
func DecodeResponse(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

// DecodeInto unmarshals the data payload into the provided destination.
func DecodeInto[T any](t *testing.T, raw json.RawMessage, dest *T) {
	t.Helper()
	if dest == nil {
		t.Fatal("destination must not be nil")
	}
	require.NoError(t, json.Unmarshal(raw, dest))
}

// Request executes an HTTP request against the test router, applying JSON encoding and auth headers automatically.
func (e *Env) Request(method, path string, body any, token string) *httptest.ResponseRecorder {
	e.T.Helper()

	buf := bytes.NewBuffer(nil)
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(e.T, err)
		buf = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, path, buf)
	require.NoError(e.T, err)
	req.RemoteAddr = "192.0.2.10:40000"

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	return w
}
