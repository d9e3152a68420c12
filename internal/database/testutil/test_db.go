package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/qualitree/internal/database"
	"github.com/charlesng35/qualitree/internal/fixtures"
)

// TestDBOption customises the behaviour of MustOpenTestDB.
type TestDBOption func(*testDBConfig)

type testDBConfig struct {
	autoMigrate bool
	fixtures    bool
}

// WithAutoMigrate enables automatic schema migration after opening the test database.
func WithAutoMigrate() TestDBOption {
	return func(cfg *testDBConfig) {
		cfg.autoMigrate = true
	}
}

// WithFixtures migrates the schema and loads the embedded fixture dataset.
func WithFixtures() TestDBOption {
	return func(cfg *testDBConfig) {
		cfg.autoMigrate = true
		cfg.fixtures = true
	}
}

// MustOpenTestDB opens an isolated in-memory SQLite database closed via t.Cleanup.
func MustOpenTestDB(t *testing.T, opts ...TestDBOption) *gorm.DB {
	t.Helper()

	cfg := testDBConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	db, err := database.Open(database.Config{Driver: "sqlite", LogLevel: "silent"})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = database.Close(db)
	})

	if cfg.autoMigrate {
		require.NoError(t, database.AutoMigrate(db))
	}
	if cfg.fixtures {
		set, err := fixtures.Default()
		require.NoError(t, err)
		require.NoError(t, set.Apply(context.Background(), db))
	}

	return db
}
