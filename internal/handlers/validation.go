package handlers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	appErrors "github.com/charlesng35/qualitree/pkg/errors"
	"github.com/charlesng35/qualitree/pkg/response"
	appValidator "github.com/charlesng35/qualitree/pkg/validator"
)

// bindAndValidate binds the JSON payload into dest and runs struct validation rules.
// On failure a 400 response is written and false is returned.
func bindAndValidate[T any](c *gin.Context, dest *T) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.NewBadRequest("invalid JSON payload"))
		return false
	}

	if err := appValidator.ValidateStruct(dest); err != nil {
		response.Error(c, validationError(err))
		return false
	}

	return true
}

// validationError renders rule failures as one 400 with a detail per field.
func validationError(err error) *appErrors.AppError {
	var failures appValidator.ValidationErrors
	if !errors.As(err, &failures) || len(failures) == 0 {
		return appErrors.NewBadRequest("invalid request payload")
	}

	details := make([]appErrors.FieldError, len(failures))
	messages := make([]string, len(failures))
	for i, failure := range failures {
		messages[i] = describeFailure(failure)
		details[i] = appErrors.FieldError{Field: failure.Path, Message: messages[i]}
	}
	return appErrors.NewBadRequest(strings.Join(messages, "; ")).WithDetails(details...)
}

func describeFailure(failure appValidator.ValidationError) string {
	field := failure.Field
	if field == "" {
		field = "field"
	}

	switch failure.Tag {
	case "required", "notblank":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, failure.Param)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, failure.Param)
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters", field, failure.Param)
	case "slug":
		return field + " must contain only lowercase letters, digits and dashes"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(failure.Param, " ", ", "))
	case "functionality_type":
		return field + " must be FOLDER or FUNCTIONALITY"
	case "severity":
		return field + " must be HIGH, MEDIUM or LOW"
	case "relative_position":
		return field + " must be ABOVE, BELOW or LAST_CHILD"
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, failure.Param)
	default:
		if failure.Param != "" {
			return fmt.Sprintf("%s failed validation: %s=%s", field, failure.Tag, failure.Param)
		}
		return fmt.Sprintf("%s failed validation: %s", field, failure.Tag)
	}
}

func parseIntQuery(c *gin.Context, key string, fallback int) int {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
