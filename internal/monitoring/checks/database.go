package checks

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/charlesng35/qualitree/internal/models"
	"github.com/charlesng35/qualitree/internal/monitoring"
)

// Database pings the connection pool and verifies the functionality table answers a query.
func Database(db *gorm.DB) monitoring.Check {
	return monitoring.NewCheck("database", func(ctx context.Context) monitoring.ProbeResult {
		start := time.Now()
		if db == nil {
			return monitoring.ProbeResult{Status: monitoring.StatusDown, Details: "database not configured"}
		}

		sqlDB, err := db.DB()
		if err != nil {
			return monitoring.ResultFromError("database", err, time.Since(start))
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			return monitoring.ResultFromError("database", err, time.Since(start))
		}

		var id int64
		err = db.WithContext(ctx).Model(&models.Functionality{}).Select("id").Limit(1).Scan(&id).Error
		return monitoring.ResultFromError("database", err, time.Since(start))
	})
}
