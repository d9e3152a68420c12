package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/qualitree/internal/auditctx"
	iauth "github.com/charlesng35/qualitree/internal/auth"
	"github.com/charlesng35/qualitree/pkg/errors"
	"github.com/charlesng35/qualitree/pkg/response"
)

// Auth enforces bearer JWT authentication. When scope is non-empty the token must grant it.
func Auth(jwt *iauth.JWTService, scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if len(authz) < 8 || !strings.EqualFold(authz[:7], "Bearer ") {
			c.Header("WWW-Authenticate", "Bearer")
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		claims, err := jwt.ValidateAccessToken(strings.TrimSpace(authz[7:]))
		if err != nil {
			c.Header("WWW-Authenticate", "Bearer")
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		if scope != "" && !claims.HasScope(scope) {
			response.Error(c, errors.ErrForbidden)
			c.Abort()
			return
		}

		c.Set(CtxClaimsKey, claims)
		c.Set(CtxSubjectKey, claims.Subject)

		actor, _ := auditctx.FromContext(c.Request.Context())
		actor.Subject = claims.Subject
		if actor.IPAddress == "" {
			actor.IPAddress = c.ClientIP()
		}
		c.Request = c.Request.WithContext(auditctx.WithActor(c.Request.Context(), actor))

		c.Next()
	}
}
