package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/qualitree/internal/api"
	"github.com/charlesng35/qualitree/internal/app"
	"github.com/charlesng35/qualitree/internal/app/maintenance"
	iauth "github.com/charlesng35/qualitree/internal/auth"
	"github.com/charlesng35/qualitree/internal/cache"
	"github.com/charlesng35/qualitree/internal/database"
	"github.com/charlesng35/qualitree/internal/fixtures"
	"github.com/charlesng35/qualitree/internal/models"
	"github.com/charlesng35/qualitree/internal/services"
	"github.com/charlesng35/qualitree/pkg/logger"
)

// runtimeStack bundles long-lived services used by the HTTP server.
type runtimeStack struct {
	DB      *gorm.DB
	Cache   *cache.DatabaseStore
	Audit   *services.AuditService
	JWT     *iauth.JWTService
	Cleaner *maintenance.Cleaner
	Router  *gin.Engine
}

// bootstrapRuntime opens the database, loads fixtures when asked, starts maintenance and builds the router.
func bootstrapRuntime(ctx context.Context, cfg *app.Config, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}
	success := false
	defer func() {
		if !success {
			if err := stack.Shutdown(context.Background()); err != nil {
				log.Warn("partial bootstrap cleanup failed", zap.Error(err))
			}
		}
	}()

	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	var err error
	stack.DB, err = openDatabase(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Fixtures.LoadOnStart {
		if _, err := loadFixtures(ctx, stack.DB, cfg.Fixtures.Path); err != nil {
			return nil, err
		}
	}

	stack.Cache = cache.NewDatabaseStore(stack.DB)

	stack.Audit, err = services.NewAuditService(stack.DB)
	if err != nil {
		return nil, fmt.Errorf("initialise audit service: %w", err)
	}

	if cfg.Auth.JWT.Enabled {
		stack.JWT, err = iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
		if err != nil {
			return nil, fmt.Errorf("initialise jwt service: %w", err)
		}
	}

	if cfg.Maintenance.Enabled {
		stack.Cleaner = maintenance.NewCleaner(stack.Audit, stack.Cache,
			maintenance.WithAuditRetentionDays(cfg.Maintenance.AuditRetentionDays),
			maintenance.WithAuditSchedule(cfg.Maintenance.Schedule),
		)
		if err := stack.Cleaner.Start(); err != nil {
			return nil, fmt.Errorf("start maintenance jobs: %w", err)
		}
	}

	stack.Router, err = api.NewRouter(stack.DB, cfg, api.Dependencies{
		JWT:   stack.JWT,
		Cache: stack.Cache,
		Audit: stack.Audit,
	})
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	success = true
	return stack, nil
}

// Shutdown stops background jobs, runs a final sweep and closes the database.
func (s *runtimeStack) Shutdown(ctx context.Context) error {
	if s == nil {
		return nil
	}

	var errs error
	if s.Cleaner != nil {
		stopped := s.Cleaner.Stop()
		select {
		case <-stopped.Done():
		case <-ctx.Done():
		}
		errs = multierr.Append(errs, s.Cleaner.RunOnce(ctx))
		s.Cleaner = nil
	}
	if s.DB != nil {
		errs = multierr.Append(errs, database.Close(s.DB))
		s.DB = nil
	}
	return errs
}

func openDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := cfg.Database.DatabaseOptions()
	db, err := database.OpenAndMigrate(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	logger.WithModule("database").Info("database connected", zap.String("driver", dbCfg.Driver))
	return db, nil
}

// loadFixtures applies the dataset at path, or the built-in one when path is empty.
// A database that already holds projects is left untouched.
func loadFixtures(ctx context.Context, db *gorm.DB, path string) (bool, error) {
	var existing int64
	if err := db.WithContext(ctx).Model(&models.Project{}).Count(&existing).Error; err != nil {
		return false, fmt.Errorf("count projects: %w", err)
	}
	log := logger.WithModule("fixtures")
	if existing > 0 {
		log.Info("database already populated; skipping fixtures", zap.Int64("projects", existing))
		return false, nil
	}

	var (
		set *fixtures.Set
		err error
	)
	if path == "" {
		set, err = fixtures.Default()
	} else {
		set, err = fixtures.LoadFile(path)
	}
	if err != nil {
		return false, err
	}

	if err := set.Apply(ctx, db); err != nil {
		return false, err
	}
	log.Info("fixtures loaded",
		zap.String("source", fixtureSource(path)),
		zap.Int("projects", len(set.Projects)),
		zap.Int("functionalities", len(set.Functionalities)),
	)
	return true, nil
}

func fixtureSource(path string) string {
	if path == "" {
		return "built-in"
	}
	return path
}
