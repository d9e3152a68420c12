package database

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/charlesng35/qualitree/internal/models"
)

func TestOpenSQLiteMemory(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.Exec("SELECT 1").Error)
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open(Config{Driver: "oracle"})
	require.ErrorIs(t, err, errUnsupportedDriver)
}

func TestInMemoryDatabaseUsesSingleConnection(t *testing.T) {
	db, err := Open(Config{Pool: PoolConfig{MaxOpenConns: 8}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestInMemoryDatabasesAreIsolated(t *testing.T) {
	first := openTestDB(t)
	second := openTestDB(t)

	require.NoError(t, AutoMigrate(first))
	require.NoError(t, first.Create(&models.Project{Code: "p1", Name: "Project 1"}).Error)

	require.False(t, second.Migrator().HasTable(&models.Project{}))
}

func TestAutoMigrateCreatesTables(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, AutoMigrate(db))

	migrator := db.Migrator()
	for _, table := range []interface{}{
		&models.Project{},
		&models.Team{},
		&models.Country{},
		&models.Functionality{},
		&models.AuditLog{},
		&models.CacheEntry{},
	} {
		require.True(t, migrator.HasTable(table), "expected table for %T to exist", table)
	}
	require.True(t, migrator.HasColumn(&models.Functionality{}, "sort_order"))
	require.True(t, migrator.HasIndex(&models.Team{}, "idx_teams_project_name"))
}

func TestOpenAndMigrateIsIdempotent(t *testing.T) {
	db, err := OpenAndMigrate(Config{Driver: "sqlite"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	require.NoError(t, AutoMigrate(db))
}

func TestParseGormLevel(t *testing.T) {
	require.Equal(t, gormlogger.Silent, parseGormLevel(""))
	require.Equal(t, gormlogger.Info, parseGormLevel("INFO"))
	require.Equal(t, gormlogger.Warn, parseGormLevel("warn"))
	require.Equal(t, gormlogger.Error, parseGormLevel(" error "))
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := Open(Config{Driver: "sqlite"})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = Close(db)
	})

	return db
}
