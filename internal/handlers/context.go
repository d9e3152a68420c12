package handlers

import (
	"context"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	appErrors "github.com/charlesng35/qualitree/pkg/errors"
	"github.com/charlesng35/qualitree/pkg/response"
)

// requestContext safely returns the request context with a background fallback for tests.
func requestContext(c *gin.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if req := c.Request; req != nil {
		return req.Context()
	}
	return context.Background()
}

// projectCode returns the project path parameter, lowercased.
func projectCode(c *gin.Context) string {
	return strings.ToLower(strings.TrimSpace(c.Param("projectCode")))
}

// pathID parses a positive integer path parameter, writing a 400 on failure.
func pathID(c *gin.Context, name string) (int64, bool) {
	raw := strings.TrimSpace(c.Param(name))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, appErrors.InvalidField(name, "%s must be a positive integer", name))
		return 0, false
	}
	return id, true
}
