package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/qualitree/internal/services"
	"github.com/charlesng35/qualitree/pkg/response"
)

type TeamHandler struct {
	svc *services.TeamService
}

type createTeamRequest struct {
	Name                  string `json:"name" validate:"notblank,max=128"`
	AssignFunctionalities *bool  `json:"assignFunctionalities"`
}

func NewTeamHandler(svc *services.TeamService) *TeamHandler {
	return &TeamHandler{svc: svc}
}

// GET /api/projects/:projectCode/teams
func (h *TeamHandler) List(c *gin.Context) {
	teams, err := h.svc.List(requestContext(c), projectCode(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, teams, &response.Meta{Total: len(teams)})
}

// POST /api/projects/:projectCode/teams
func (h *TeamHandler) Create(c *gin.Context) {
	var body createTeamRequest
	if !bindAndValidate(c, &body) {
		return
	}

	team, err := h.svc.Create(requestContext(c), projectCode(c), services.CreateTeamInput{
		Name:                  body.Name,
		AssignFunctionalities: body.AssignFunctionalities,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, team)
}
