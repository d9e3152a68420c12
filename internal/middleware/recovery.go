package middleware

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/charlesng35/qualitree/pkg/errors"
	"github.com/charlesng35/qualitree/pkg/logger"
	"github.com/charlesng35/qualitree/pkg/response"
)

// ErrMethodNotAllowed is rendered when a route exists under a different method.
var ErrMethodNotAllowed = errors.New("METHOD_NOT_ALLOWED", "Method not allowed", http.StatusMethodNotAllowed)

// Recovery turns a panicking handler into a 500 envelope and logs the stack.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		logger.WithModule("http").Error("handler panic",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", c.GetString(CtxRequestIDKey)),
			zap.Any("panic", recovered),
			zap.Stack("stack"),
		)
		response.Error(c, errors.ErrInternalServer)
		c.Abort()
	})
}

// NotFoundHandler renders unknown routes as a JSON 404.
func NotFoundHandler(c *gin.Context) {
	response.Error(c, errors.ErrNotFound.WithMessage("route %s not found", c.Request.URL.Path))
}

// MethodNotAllowedHandler renders a JSON 405.
func MethodNotAllowedHandler(c *gin.Context) {
	response.Error(c, ErrMethodNotAllowed.WithMessage("method %s not allowed on %s", c.Request.Method, c.Request.URL.Path))
}
