package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/charlesng35/qualitree/pkg/errors"
)

// Response is the envelope shared by every API payload.
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
	Meta    *Meta      `json:"meta,omitempty"`
}

// ErrorInfo is the client-facing part of an AppError.
type ErrorInfo struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details []appErrors.FieldError `json:"details,omitempty"`
}

// Meta describes collection metadata.
type Meta struct {
	Total   int `json:"total"`
	Page    int `json:"page,omitempty"`
	PerPage int `json:"perPage,omitempty"`
}

// Success writes data in a success envelope.
func Success(c *gin.Context, statusCode int, data any) {
	c.JSON(statusCode, Response{Success: true, Data: data})
}

// Created is Success with 201.
func Created(c *gin.Context, data any) {
	Success(c, http.StatusCreated, data)
}

// SuccessWithMeta writes a collection together with its metadata.
func SuccessWithMeta(c *gin.Context, statusCode int, data any, meta *Meta) {
	c.JSON(statusCode, Response{Success: true, Data: data, Meta: meta})
}

// Error renders err as an error envelope and aborts the handler chain. Errors
// that are not AppErrors become a 500 and their cause is recorded on the
// context for the access log.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	if appErr == nil {
		appErr = appErrors.ErrInternalServer
	}

	status := appErr.StatusCode
	if status == 0 {
		status = http.StatusInternalServerError
	}
	if appErr.Internal != nil {
		_ = c.Error(appErr.Internal)
	}

	c.AbortWithStatusJSON(status, Response{
		Error: &ErrorInfo{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: appErr.Details,
		},
	})
}
