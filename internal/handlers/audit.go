package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/qualitree/internal/services"
	appErrors "github.com/charlesng35/qualitree/pkg/errors"
	"github.com/charlesng35/qualitree/pkg/response"
)

type AuditHandler struct {
	svc *services.AuditService
}

func NewAuditHandler(svc *services.AuditService) *AuditHandler {
	return &AuditHandler{svc: svc}
}

// GET /api/projects/:projectCode/audit
func (h *AuditHandler) List(c *gin.Context) {
	opts := services.AuditListOptions{
		Page:     parseIntQuery(c, "page", 1),
		PageSize: parseIntQuery(c, "perPage", 0),
		Filters: services.AuditFilters{
			Action: strings.TrimSpace(c.Query("action")),
			Result: strings.TrimSpace(c.Query("result")),
		},
	}.Normalize()

	var ok bool
	if opts.Filters.Since, ok = timeQuery(c, "since"); !ok {
		return
	}
	if opts.Filters.Until, ok = timeQuery(c, "until"); !ok {
		return
	}

	logs, total, err := h.svc.ListForProject(requestContext(c), projectCode(c), opts)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, logs, &response.Meta{
		Total:   int(total),
		Page:    opts.Page,
		PerPage: opts.PageSize,
	})
}

// timeQuery parses an optional RFC3339 query parameter, writing a 400 when malformed.
func timeQuery(c *gin.Context, key string) (*time.Time, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, true
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		response.Error(c, appErrors.InvalidField(key, "%s must be an RFC3339 timestamp", key))
		return nil, false
	}
	return &parsed, true
}
