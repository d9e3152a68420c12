package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/qualitree/internal/services"
	"github.com/charlesng35/qualitree/pkg/response"
)

type ProjectHandler struct {
	svc *services.ProjectService
}

type createProjectRequest struct {
	Code             string `json:"code" validate:"notblank,max=32"`
	Name             string `json:"name" validate:"notblank,max=64"`
	DefaultAtStartup bool   `json:"defaultAtStartup"`
}

func NewProjectHandler(svc *services.ProjectService) *ProjectHandler {
	return &ProjectHandler{svc: svc}
}

// GET /api/projects
func (h *ProjectHandler) List(c *gin.Context) {
	projects, err := h.svc.List(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, projects, &response.Meta{Total: len(projects)})
}

// GET /api/projects/:projectCode
func (h *ProjectHandler) Get(c *gin.Context) {
	project, err := h.svc.GetByCode(requestContext(c), projectCode(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, project)
}

// POST /api/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var body createProjectRequest
	if !bindAndValidate(c, &body) {
		return
	}

	project, err := h.svc.Create(requestContext(c), services.CreateProjectInput{
		Code:             body.Code,
		Name:             body.Name,
		DefaultAtStartup: body.DefaultAtStartup,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, project)
}
