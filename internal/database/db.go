package database

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Config contains database connection options.
type Config struct {
	Driver   string
	Path     string // sqlite file; empty or ":memory:" opens a private in-memory database
	DSN      string // overrides every other connection field when set
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	Options  map[string]string

	Pool PoolConfig

	LogLevel      string
	SlowThreshold time.Duration
}

// PoolConfig tunes database/sql connection pooling. Zero values keep driver defaults.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

var (
	errMissingCredentials = errors.New("configuration requires user and database name")
	errUnsupportedDriver  = errors.New("unsupported database driver")
)

// Open connects to the configured driver. sqlite is used when Driver is blank.
func Open(cfg Config) (*gorm.DB, error) {
	dialector, inMemory, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         newGormLogger(cfg.LogLevel, cfg.SlowThreshold),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialector.Name(), err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	pool := cfg.Pool
	if inMemory {
		// a second connection would see a different in-memory database
		pool.MaxOpenConns = 1
	}
	if pool.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}

	if dialector.Name() == "sqlite" {
		if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("enable sqlite foreign keys: %w", err)
		}
	}

	return db, nil
}

func dialectorFor(cfg Config) (gorm.Dialector, bool, error) {
	switch driver := strings.ToLower(strings.TrimSpace(cfg.Driver)); driver {
	case "", "sqlite", "sqlite3":
		dsn, inMemory, err := sqliteDSN(cfg)
		if err != nil {
			return nil, false, err
		}
		return sqlite.Open(dsn), inMemory, nil
	case "postgres", "postgresql":
		dsn, err := postgresDSN(cfg)
		if err != nil {
			return nil, false, err
		}
		return postgres.Open(dsn), false, nil
	case "mysql", "mariadb":
		dsn, err := mysqlDSN(cfg)
		if err != nil {
			return nil, false, err
		}
		return mysql.Open(dsn), false, nil
	default:
		return nil, false, fmt.Errorf("%w %q", errUnsupportedDriver, cfg.Driver)
	}
}

// OpenAndMigrate opens the database and applies schema migrations, closing the handle on failure.
func OpenAndMigrate(cfg Config) (*gorm.DB, error) {
	db, err := Open(cfg)
	if err != nil {
		return nil, err
	}

	if err := AutoMigrate(db); err != nil {
		_ = Close(db)
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return db, nil
}

// Close releases the underlying sql.DB. Nil handles are ignored.
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
