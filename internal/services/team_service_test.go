package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/qualitree/internal/database/testutil"
)

func TestTeamServiceCreateAndList(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithFixtures())
	auditSvc, err := NewAuditService(db)
	require.NoError(t, err)
	svc, err := NewTeamService(db, auditSvc)
	require.NoError(t, err)

	ctx := context.Background()

	team, err := svc.Create(ctx, "p", CreateTeamInput{Name: "  Quality  "})
	require.NoError(t, err)
	require.Equal(t, "Quality", team.Name)
	require.True(t, team.AssignFunctionalities)

	readOnly, err := svc.Create(ctx, "p", CreateTeamInput{Name: "Release", AssignFunctionalities: ptr(false)})
	require.NoError(t, err)
	require.False(t, readOnly.AssignFunctionalities)

	teams, err := svc.List(ctx, "p")
	require.NoError(t, err)
	names := make([]string, 0, len(teams))
	for _, team := range teams {
		names = append(names, team.Name)
	}
	require.Equal(t, []string{"Infrastructure", "Quality", "Release", "Team A", "Team B"}, names)

	var stored bool
	require.NoError(t, db.Raw("SELECT assign_functionalities FROM teams WHERE id = ?", readOnly.ID).Scan(&stored).Error)
	require.False(t, stored)
}

func TestTeamServiceCreateValidation(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithFixtures())
	svc, err := NewTeamService(db, nil)
	require.NoError(t, err)

	ctx := context.Background()

	_, err = svc.Create(ctx, "p", CreateTeamInput{Name: " "})
	require.Error(t, err)

	_, err = svc.Create(ctx, "p", CreateTeamInput{Name: "Team A"})
	require.ErrorIs(t, err, ErrTeamNameAlreadyExists)

	// names are unique per project only
	_, err = svc.Create(ctx, "other", CreateTeamInput{Name: "Team A"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, "missing", CreateTeamInput{Name: "Team A"})
	require.ErrorIs(t, err, ErrProjectNotFound)
}
