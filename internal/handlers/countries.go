package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/qualitree/internal/services"
	"github.com/charlesng35/qualitree/pkg/response"
)

type CountryHandler struct {
	svc *services.CountryService
}

type createCountryRequest struct {
	Code string `json:"code" validate:"required,len=2"`
	Name string `json:"name" validate:"notblank,max=40"`
}

func NewCountryHandler(svc *services.CountryService) *CountryHandler {
	return &CountryHandler{svc: svc}
}

// GET /api/projects/:projectCode/countries
func (h *CountryHandler) List(c *gin.Context) {
	countries, err := h.svc.List(requestContext(c), projectCode(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, countries, &response.Meta{Total: len(countries)})
}

// POST /api/projects/:projectCode/countries
func (h *CountryHandler) Create(c *gin.Context) {
	var body createCountryRequest
	if !bindAndValidate(c, &body) {
		return
	}

	country, err := h.svc.Create(requestContext(c), projectCode(c), services.CreateCountryInput{
		Code: body.Code,
		Name: body.Name,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, country)
}
