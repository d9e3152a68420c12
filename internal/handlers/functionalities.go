package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/qualitree/internal/models"
	"github.com/charlesng35/qualitree/internal/services"
	appErrors "github.com/charlesng35/qualitree/pkg/errors"
	"github.com/charlesng35/qualitree/pkg/response"
)

// FunctionalityHandler exposes the functionality tree of a project.
type FunctionalityHandler struct {
	svc *services.FunctionalityService
}

type functionalityRequest struct {
	Type           string  `json:"type" validate:"omitempty,functionality_type"`
	Name           string  `json:"name" validate:"notblank,max=512"`
	CountryCodes   *string `json:"countryCodes" validate:"omitempty,max=128"`
	TeamID         *int64  `json:"teamId"`
	Severity       *string `json:"severity" validate:"omitempty,severity"`
	Created        *string `json:"created" validate:"omitempty,max=10"`
	Started        *bool   `json:"started"`
	NotAutomatable *bool   `json:"notAutomatable"`
	Comment        *string `json:"comment"`
}

type createFunctionalityRequest struct {
	Functionality    *functionalityRequest `json:"functionality" validate:"required"`
	ReferenceID      *int64                `json:"referenceId"`
	RelativePosition string                `json:"relativePosition" validate:"relative_position"`
}

type moveFunctionalityRequest struct {
	SourceID         int64  `json:"sourceId" validate:"required,gt=0"`
	ReferenceID      *int64 `json:"referenceId"`
	RelativePosition string `json:"relativePosition" validate:"relative_position"`
}

type moveFunctionalitiesRequest struct {
	SourceIDs        []int64 `json:"sourceIds" validate:"required,min=1,dive,gt=0"`
	ReferenceID      *int64  `json:"referenceId"`
	RelativePosition string  `json:"relativePosition" validate:"relative_position"`
}

func NewFunctionalityHandler(svc *services.FunctionalityService) *FunctionalityHandler {
	return &FunctionalityHandler{svc: svc}
}

// GET /api/projects/:projectCode/functionalities
func (h *FunctionalityHandler) Tree(c *gin.Context) {
	forest, err := h.svc.Tree(requestContext(c), projectCode(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, forest)
}

// GET /api/projects/:projectCode/functionalities/:id
func (h *FunctionalityHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	node, err := h.svc.Get(requestContext(c), projectCode(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, node)
}

// POST /api/projects/:projectCode/functionalities
func (h *FunctionalityHandler) Create(c *gin.Context) {
	var body createFunctionalityRequest
	if !bindAndValidate(c, &body) {
		return
	}
	if strings.TrimSpace(body.Functionality.Type) == "" {
		response.Error(c, appErrors.InvalidField("functionality.type", "type is required"))
		return
	}

	position, _ := services.ParseRelativePosition(body.RelativePosition)
	node, err := h.svc.Create(requestContext(c), projectCode(c), services.CreateFunctionalityInput{
		Functionality:    body.Functionality.toInput(),
		ReferenceID:      body.ReferenceID,
		RelativePosition: position,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, node)
}

// PUT /api/projects/:projectCode/functionalities/:id
func (h *FunctionalityHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var body functionalityRequest
	if !bindAndValidate(c, &body) {
		return
	}

	node, err := h.svc.Update(requestContext(c), projectCode(c), id, body.toInput())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, node)
}

// DELETE /api/projects/:projectCode/functionalities/:id
func (h *FunctionalityHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	removed, err := h.svc.Delete(requestContext(c), projectCode(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deletedIds": removed})
}

// POST /api/projects/:projectCode/functionalities/move
func (h *FunctionalityHandler) Move(c *gin.Context) {
	var body moveFunctionalityRequest
	if !bindAndValidate(c, &body) {
		return
	}

	position, _ := services.ParseRelativePosition(body.RelativePosition)
	node, err := h.svc.Move(requestContext(c), projectCode(c), services.MoveFunctionalityInput{
		SourceID:         body.SourceID,
		ReferenceID:      body.ReferenceID,
		RelativePosition: position,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, node)
}

// POST /api/projects/:projectCode/functionalities/move/list
func (h *FunctionalityHandler) MoveList(c *gin.Context) {
	var body moveFunctionalitiesRequest
	if !bindAndValidate(c, &body) {
		return
	}

	position, _ := services.ParseRelativePosition(body.RelativePosition)
	nodes, err := h.svc.MoveList(requestContext(c), projectCode(c), services.MoveFunctionalitiesInput{
		SourceIDs:        body.SourceIDs,
		ReferenceID:      body.ReferenceID,
		RelativePosition: position,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, nodes)
}

func (r *functionalityRequest) toInput() services.FunctionalityInput {
	input := services.FunctionalityInput{
		Type:           models.FunctionalityType(strings.ToUpper(strings.TrimSpace(r.Type))),
		Name:           r.Name,
		CountryCodes:   r.CountryCodes,
		TeamID:         r.TeamID,
		Created:        r.Created,
		Started:        r.Started,
		NotAutomatable: r.NotAutomatable,
		Comment:        r.Comment,
	}
	if r.Severity != nil {
		severity := models.FunctionalitySeverity(strings.ToUpper(strings.TrimSpace(*r.Severity)))
		input.Severity = &severity
	}
	return input
}
