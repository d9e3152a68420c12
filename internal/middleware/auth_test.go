package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/charlesng35/qualitree/internal/auditctx"
	iauth "github.com/charlesng35/qualitree/internal/auth"
	"github.com/charlesng35/qualitree/pkg/response"
)

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	jwtSvc, err := iauth.NewJWTService(iauth.JWTConfig{
		Secret:         "secret",
		Issuer:         "test-suite",
		AccessTokenTTL: time.Minute,
	})
	require.NoError(t, err)

	writer, err := jwtSvc.GenerateAccessToken(iauth.AccessTokenInput{
		Subject: "qa-bot",
		Scopes:  []string{iauth.ScopeWrite},
	})
	require.NoError(t, err)

	reader, err := jwtSvc.GenerateAccessToken(iauth.AccessTokenInput{Subject: "viewer"})
	require.NoError(t, err)

	r := gin.New()
	r.Use(RequestContext())
	r.POST("/secure", Auth(jwtSvc, iauth.ScopeWrite), func(c *gin.Context) {
		actor, _ := auditctx.FromContext(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{
			"subject": c.GetString(CtxSubjectKey),
			"actor":   actor.Subject,
		})
	})

	cases := []struct {
		name   string
		header string
		status int
		code   string
	}{
		{name: "missing header", status: http.StatusUnauthorized, code: "UNAUTHORIZED"},
		{name: "wrong scheme", header: "Basic abc", status: http.StatusUnauthorized, code: "UNAUTHORIZED"},
		{name: "garbage token", header: "Bearer nope", status: http.StatusUnauthorized, code: "UNAUTHORIZED"},
		{name: "missing scope", header: "Bearer " + reader, status: http.StatusForbidden, code: "FORBIDDEN"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/secure", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			r.ServeHTTP(w, req)
			require.Equal(t, tc.status, w.Code)

			var payload response.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
			require.False(t, payload.Success)
			require.Equal(t, tc.code, payload.Error.Code)
		})
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/secure", nil)
	req.Header.Set("Authorization", "bearer "+writer)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "qa-bot", body["subject"])
	require.Equal(t, "qa-bot", body["actor"])
}
