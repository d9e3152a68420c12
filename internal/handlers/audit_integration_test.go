package handlers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/qualitree/internal/handlers/testutil"
)

func TestAuditHandler_PagesWithPerPage(t *testing.T) {
	env := testutil.NewEnv(t)

	for i := 1; i <= 3; i++ {
		body := map[string]any{"functionality": map[string]any{"type": "FOLDER", "name": fmt.Sprintf("Audited %d", i)}}
		w := env.Request(http.MethodPost, treePath, body, "")
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	seen := map[string]bool{}
	for page := 1; page <= 3; page++ {
		w := env.Request(http.MethodGet, fmt.Sprintf("/api/projects/p/audit?action=functionality.create&page=%d&perPage=1", page), nil, "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		payload := testutil.DecodeResponse(t, w)
		require.Equal(t, 3, payload.Meta.Total)
		require.Equal(t, page, payload.Meta.Page)
		require.Equal(t, 1, payload.Meta.PerPage)

		var entries []struct {
			Resource string `json:"resource"`
		}
		testutil.DecodeInto(t, payload.Data, &entries)
		require.Len(t, entries, 1)
		seen[entries[0].Resource] = true
	}
	require.Len(t, seen, 3)

	past := env.Request(http.MethodGet, "/api/projects/p/audit?action=functionality.create&page=4&perPage=1", nil, "")
	require.Equal(t, http.StatusOK, past.Code)
	var entries []map[string]any
	testutil.DecodeInto(t, testutil.DecodeResponse(t, past).Data, &entries)
	require.Empty(t, entries)
}

func TestAuditHandler_UnknownProject(t *testing.T) {
	env := testutil.NewEnv(t)

	w := env.Request(http.MethodGet, "/api/projects/nope/audit", nil, "")
	require.Equal(t, http.StatusNotFound, w.Code, w.Body.String())

	payload := testutil.DecodeResponse(t, w)
	require.False(t, payload.Success)
	require.Equal(t, "PROJECT_NOT_FOUND", payload.Error.Code)
}
