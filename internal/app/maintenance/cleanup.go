package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/charlesng35/qualitree/internal/cache"
	"github.com/charlesng35/qualitree/internal/services"
	"github.com/charlesng35/qualitree/pkg/logger"
	"github.com/charlesng35/qualitree/pkg/metrics"
)

const (
	defaultAuditRetentionDays = 90
	defaultAuditSchedule      = "@daily"
	defaultCacheSchedule      = "@hourly"
)

// job is one scheduled unit of maintenance; run reports how many rows it removed.
type job struct {
	name     string
	schedule string
	run      func(ctx context.Context) (int64, error)
}

type settings struct {
	cron          *cron.Cron
	now           func() time.Time
	retentionDays int
	auditSchedule string
	cacheSchedule string
}

// Option customises the Cleaner.
type Option func(*settings)

// WithCron injects a preconfigured cron instance.
func WithCron(c *cron.Cron) Option {
	return func(s *settings) {
		if c != nil {
			s.cron = c
		}
	}
}

// WithNow overrides the clock used for cache expiry comparisons.
func WithNow(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

// WithAuditRetentionDays sets how many days of audit history are kept.
func WithAuditRetentionDays(days int) Option {
	return func(s *settings) {
		if days > 0 {
			s.retentionDays = days
		}
	}
}

// WithAuditSchedule overrides the cron expression of the audit pruning job.
func WithAuditSchedule(expr string) Option {
	return func(s *settings) {
		if expr != "" {
			s.auditSchedule = expr
		}
	}
}

// WithCacheSchedule overrides the cron expression of the cache sweep.
func WithCacheSchedule(expr string) Option {
	return func(s *settings) {
		if expr != "" {
			s.cacheSchedule = expr
		}
	}
}

// Cleaner prunes old audit logs and sweeps expired cache entries on a cron schedule.
type Cleaner struct {
	jobs []job
	cron *cron.Cron
	log  *zap.Logger
}

// NewCleaner constructs a Cleaner. A nil dependency skips the matching job.
func NewCleaner(audit *services.AuditService, purger cache.Purger, opts ...Option) *Cleaner {
	cfg := settings{
		now:           time.Now,
		retentionDays: defaultAuditRetentionDays,
		auditSchedule: defaultAuditSchedule,
		cacheSchedule: defaultCacheSchedule,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.cron == nil {
		cfg.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	c := &Cleaner{cron: cfg.cron, log: logger.WithModule("maintenance")}
	if audit != nil {
		c.jobs = append(c.jobs, job{
			name:     "audit",
			schedule: cfg.auditSchedule,
			run: func(ctx context.Context) (int64, error) {
				return audit.CleanupOlderThan(ctx, cfg.retentionDays)
			},
		})
	}
	if purger != nil {
		c.jobs = append(c.jobs, job{
			name:     "cache",
			schedule: cfg.cacheSchedule,
			run: func(ctx context.Context) (int64, error) {
				return purger.PurgeExpired(ctx, cfg.now())
			},
		})
	}
	return c
}

// Start registers every job and launches the scheduler.
func (c *Cleaner) Start() error {
	if len(c.jobs) == 0 {
		return nil
	}
	for _, j := range c.jobs {
		if _, err := c.cron.AddFunc(j.schedule, func() { _ = c.execute(context.Background(), j) }); err != nil {
			return fmt.Errorf("maintenance: schedule %s job %q: %w", j.name, j.schedule, err)
		}
	}
	c.cron.Start()
	return nil
}

// Stop halts the scheduler; the returned context is done once running jobs finish.
func (c *Cleaner) Stop() context.Context {
	return c.cron.Stop()
}

// RunOnce executes every job in turn and combines their errors.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	var errs error
	for _, j := range c.jobs {
		errs = multierr.Append(errs, c.execute(ctx, j))
	}
	return errs
}

func (c *Cleaner) execute(ctx context.Context, j job) error {
	removed, err := j.run(ctx)
	if err != nil {
		metrics.MaintenanceRuns.WithLabelValues(j.name, "failure").Inc()
		c.log.Warn("maintenance job failed", zap.String("job", j.name), zap.Error(err))
		return fmt.Errorf("%s: %w", j.name, err)
	}
	metrics.MaintenanceRuns.WithLabelValues(j.name, "success").Inc()
	c.log.Debug("maintenance job finished", zap.String("job", j.name), zap.Int64("removed", removed))
	return nil
}
