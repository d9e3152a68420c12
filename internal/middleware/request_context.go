package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/charlesng35/qualitree/internal/auditctx"
)

const (
	CtxRequestIDKey = "requestID"
	CtxClaimsKey    = "authClaims"
	CtxSubjectKey   = "subject"

	anonymousSubject = "anonymous"
	maxRequestIDLen  = 64
)

// RequestContext tags each request with an id and seeds the audit actor.
func RequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader("X-Request-ID"))
		if requestID == "" || len(requestID) > maxRequestIDLen {
			requestID = uuid.NewString()
		}
		c.Set(CtxRequestIDKey, requestID)
		c.Header("X-Request-ID", requestID)

		ctx := auditctx.WithActor(c.Request.Context(), auditctx.Actor{
			Subject:   anonymousSubject,
			IPAddress: c.ClientIP(),
			RequestID: requestID,
		})
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
