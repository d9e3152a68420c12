package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/qualitree/internal/handlers/testutil"
	"github.com/charlesng35/qualitree/internal/models"
)

func TestProjectHandler_ListGetCreate(t *testing.T) {
	env := testutil.NewEnv(t)

	list := env.Request(http.MethodGet, "/api/projects", nil, "")
	require.Equal(t, http.StatusOK, list.Code)
	payload := testutil.DecodeResponse(t, list)
	require.Equal(t, 2, payload.Meta.Total)

	get := env.Request(http.MethodGet, "/api/projects/P", nil, "")
	require.Equal(t, http.StatusOK, get.Code)
	var project models.Project
	testutil.DecodeInto(t, testutil.DecodeResponse(t, get).Data, &project)
	require.Equal(t, "p", project.Code)
	require.True(t, project.DefaultAtStartup)

	missing := env.Request(http.MethodGet, "/api/projects/ghost", nil, "")
	require.Equal(t, http.StatusNotFound, missing.Code)
	require.Equal(t, "PROJECT_NOT_FOUND", testutil.DecodeResponse(t, missing).Error.Code)

	created := env.Request(http.MethodPost, "/api/projects", map[string]any{"code": "Mobile-App", "name": "Mobile"}, "")
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())
	testutil.DecodeInto(t, testutil.DecodeResponse(t, created).Data, &project)
	require.Equal(t, "mobile-app", project.Code)

	dup := env.Request(http.MethodPost, "/api/projects", map[string]any{"code": "mobile-app", "name": "Again"}, "")
	require.Equal(t, http.StatusConflict, dup.Code)

	invalid := env.Request(http.MethodPost, "/api/projects", map[string]any{"code": "no spaces", "name": "x"}, "")
	require.Equal(t, http.StatusBadRequest, invalid.Code)

	forest := env.Request(http.MethodGet, "/api/projects/mobile-app/functionalities", nil, "")
	require.Equal(t, http.StatusOK, forest.Code)
	require.JSONEq(t, "[]", string(testutil.DecodeResponse(t, forest).Data))
}

func TestTeamHandler_ListCreate(t *testing.T) {
	env := testutil.NewEnv(t)

	list := env.Request(http.MethodGet, "/api/projects/p/teams", nil, "")
	require.Equal(t, http.StatusOK, list.Code)
	var teams []models.Team
	testutil.DecodeInto(t, testutil.DecodeResponse(t, list).Data, &teams)
	require.Len(t, teams, 3)

	created := env.Request(http.MethodPost, "/api/projects/p/teams", map[string]any{
		"name":                  "Release",
		"assignFunctionalities": false,
	}, "")
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())
	var team models.Team
	testutil.DecodeInto(t, testutil.DecodeResponse(t, created).Data, &team)
	require.False(t, team.AssignFunctionalities)

	dup := env.Request(http.MethodPost, "/api/projects/p/teams", map[string]any{"name": "Team A"}, "")
	require.Equal(t, http.StatusConflict, dup.Code)

	unknown := env.Request(http.MethodGet, "/api/projects/ghost/teams", nil, "")
	require.Equal(t, http.StatusNotFound, unknown.Code)
}

func TestCountryHandler_ListCreate(t *testing.T) {
	env := testutil.NewEnv(t)

	created := env.Request(http.MethodPost, "/api/projects/p/countries", map[string]any{"code": "DE", "name": "Germany"}, "")
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())

	list := env.Request(http.MethodGet, "/api/projects/p/countries", nil, "")
	require.Equal(t, http.StatusOK, list.Code)
	var countries []models.Country
	testutil.DecodeInto(t, testutil.DecodeResponse(t, list).Data, &countries)
	codes := make([]string, len(countries))
	for i, c := range countries {
		codes[i] = c.Code
	}
	require.Equal(t, []string{"be", "cn", "de", "nl"}, codes)

	dup := env.Request(http.MethodPost, "/api/projects/p/countries", map[string]any{"code": "de", "name": "Again"}, "")
	require.Equal(t, http.StatusConflict, dup.Code)

	tooLong := env.Request(http.MethodPost, "/api/projects/p/countries", map[string]any{"code": "deu", "name": "Germany"}, "")
	require.Equal(t, http.StatusBadRequest, tooLong.Code)
	require.Contains(t, testutil.DecodeResponse(t, tooLong).Error.Message, "code must be exactly 2 characters")
}
