package api

import (
	"context"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/charlesng35/qualitree/internal/app"
	iauth "github.com/charlesng35/qualitree/internal/auth"
	"github.com/charlesng35/qualitree/internal/cache"
	"github.com/charlesng35/qualitree/internal/handlers"
	"github.com/charlesng35/qualitree/internal/middleware"
	"github.com/charlesng35/qualitree/internal/monitoring"
	"github.com/charlesng35/qualitree/internal/monitoring/checks"
	"github.com/charlesng35/qualitree/internal/services"
)

// Dependencies carries the optional collaborators of the router.
type Dependencies struct {
	// JWT protects write routes when set.
	JWT *iauth.JWTService
	// Cache backs the tree cache and, unless RateStore is set, rate limiting.
	Cache cache.Store
	// RateStore overrides the rate limit counter store.
	RateStore middleware.RateStore
	// Audit is built from db when nil.
	Audit *services.AuditService
}

// NewRouter builds the Gin engine, wires middleware and registers the API routes.
func NewRouter(db *gorm.DB, cfg *app.Config, deps Dependencies) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}
	if cfg.Auth.JWT.Enabled && deps.JWT == nil {
		return nil, fmt.Errorf("jwt service must be provided when jwt auth is enabled")
	}

	audit := deps.Audit
	if audit == nil {
		var err error
		if audit, err = services.NewAuditService(db); err != nil {
			return nil, err
		}
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true

	r.Use(middleware.Recovery())
	r.Use(middleware.RequestContext())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowedOrigins...))
	if rl := cfg.Server.RateLimit; rl.Enabled {
		store := deps.RateStore
		if store == nil {
			store = middleware.NewDatabaseRateStore(deps.Cache)
		}
		if store == nil {
			store = middleware.NewMemoryRateStore()
		}
		r.Use(middleware.RateLimit(store, rl.Requests, rl.Window))
	}

	if cfg.Monitoring.Health.Enabled {
		manager := monitoring.NewHealthManager(0)
		manager.RegisterLiveness(monitoring.NewCheck("process", func(_ context.Context) monitoring.ProbeResult {
			return monitoring.ProbeResult{Status: monitoring.StatusUp}
		}))
		manager.RegisterReadiness(checks.Database(db))
		manager.RegisterReadiness(checks.Cache(deps.Cache))
		registerHealthRoutes(r, handlers.NewHealthHandler(manager))
	}

	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := strings.TrimSpace(cfg.Monitoring.Prometheus.Endpoint)
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	write := func(c *gin.Context) { c.Next() }
	if cfg.Auth.JWT.Enabled {
		write = middleware.Auth(deps.JWT, iauth.ScopeWrite)
	}

	apiGroup := r.Group("/api")
	if err := registerProjectRoutes(apiGroup, db, audit, write); err != nil {
		return nil, err
	}

	project := apiGroup.Group("/projects/:projectCode")
	if err := registerFunctionalityRoutes(project, db, audit, deps.Cache, cfg.Cache.TreeTTL, write); err != nil {
		return nil, err
	}
	if err := registerTeamRoutes(project, db, audit, write); err != nil {
		return nil, err
	}
	if err := registerCountryRoutes(project, db, audit, write); err != nil {
		return nil, err
	}
	registerAuditRoutes(project, audit, write)

	r.NoRoute(middleware.NotFoundHandler)
	r.NoMethod(middleware.MethodNotAllowedHandler)

	return r, nil
}
