package monitoring_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/qualitree/internal/monitoring"
)

func TestHealthManagerEvaluate(t *testing.T) {
	manager := monitoring.NewHealthManager(time.Second)
	manager.RegisterReadiness(monitoring.NewCheck("database", func(ctx context.Context) monitoring.ProbeResult {
		return monitoring.ProbeResult{Status: monitoring.StatusUp}
	}))
	manager.RegisterReadiness(monitoring.NewCheck("cache", func(ctx context.Context) monitoring.ProbeResult {
		return monitoring.ProbeResult{Status: monitoring.StatusDegraded, Details: "slow"}
	}))
	manager.RegisterReadiness(monitoring.NewCheck("", nil))

	report := manager.EvaluateReadiness(context.Background())
	require.False(t, report.Success)
	require.Equal(t, monitoring.StatusDegraded, report.Status)
	require.Len(t, report.Checks, 2)
	require.Equal(t, "database", report.Checks[0].Component)
	require.Equal(t, "cache", report.Checks[1].Component)
	require.False(t, report.CheckedAt.IsZero())
}

func TestHealthManagerRecoversPanics(t *testing.T) {
	manager := monitoring.NewHealthManager(0)
	manager.RegisterLiveness(monitoring.NewCheck("boom", func(context.Context) monitoring.ProbeResult {
		panic("exploded")
	}))
	manager.RegisterLiveness(monitoring.NewCheck("stub", nil))

	report := manager.EvaluateLiveness(context.Background())
	require.False(t, report.Success)
	require.Equal(t, monitoring.StatusDown, report.Status)
	require.Equal(t, "exploded", report.Checks[0].Details)
	require.Equal(t, "boom", report.Checks[0].Component)
	require.Equal(t, "probe not implemented", report.Checks[1].Details)
}

func TestHealthManagerAppliesTimeout(t *testing.T) {
	manager := monitoring.NewHealthManager(10 * time.Millisecond)
	manager.RegisterReadiness(monitoring.NewCheck("slow", func(ctx context.Context) monitoring.ProbeResult {
		<-ctx.Done()
		return monitoring.ResultFromError("slow", ctx.Err(), 0)
	}))

	report := manager.EvaluateReadiness(context.Background())
	require.Equal(t, monitoring.StatusDegraded, report.Status)
}

func TestEmptyManagerIsUp(t *testing.T) {
	report := monitoring.NewHealthManager(0).EvaluateLiveness(context.Background())
	require.True(t, report.Success)
	require.Equal(t, monitoring.StatusUp, report.Status)
	require.NotNil(t, report.Checks)
}

func TestMergeReports(t *testing.T) {
	live := monitoring.HealthReport{Checks: []monitoring.ProbeResult{{Component: "process", Status: monitoring.StatusUp}}}
	ready := monitoring.HealthReport{Checks: []monitoring.ProbeResult{{Component: "database", Status: monitoring.StatusDown}}}

	merged := monitoring.MergeReports(live, ready)
	require.False(t, merged.Success)
	require.Equal(t, monitoring.StatusDown, merged.Status)
	require.Len(t, merged.Checks, 2)
}

func TestResultFromError(t *testing.T) {
	require.Equal(t, monitoring.StatusUp, monitoring.ResultFromError("db", nil, -time.Second).Status)
	require.Equal(t, monitoring.StatusDown, monitoring.ResultFromError("db", errors.New("refused"), 0).Status)
	require.Equal(t, monitoring.StatusDegraded, monitoring.ResultFromError("db", context.DeadlineExceeded, 0).Status)
}
