package checks_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/qualitree/internal/cache"
	"github.com/charlesng35/qualitree/internal/database/testutil"
	"github.com/charlesng35/qualitree/internal/monitoring"
	"github.com/charlesng35/qualitree/internal/monitoring/checks"
)

func TestDatabaseCheck(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	result := checks.Database(db).Run(context.Background())
	require.Equal(t, monitoring.StatusUp, result.Status, result.Details)

	result = checks.Database(nil).Run(context.Background())
	require.Equal(t, monitoring.StatusDown, result.Status)
}

func TestDatabaseCheckWithoutSchema(t *testing.T) {
	db := testutil.MustOpenTestDB(t)

	result := checks.Database(db).Run(context.Background())
	require.Equal(t, monitoring.StatusDown, result.Status)
	require.NotEmpty(t, result.Details)
}

func TestCacheCheck(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	result := checks.Cache(cache.NewDatabaseStore(db)).Run(context.Background())
	require.Equal(t, monitoring.StatusUp, result.Status, result.Details)

	result = checks.Cache(nil).Run(context.Background())
	require.Equal(t, monitoring.StatusUp, result.Status)
	require.Equal(t, "cache disabled", result.Details)
}
