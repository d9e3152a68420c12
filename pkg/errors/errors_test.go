package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorString(t *testing.T) {
	var nilErr *AppError
	require.Equal(t, "<nil>", nilErr.Error())

	internal := stdErrors.New("disk full")
	err := ErrInternalServer.WithInternal(internal)
	require.Equal(t, "Internal server error: disk full", err.Error())
	require.ErrorIs(t, err, internal)
	require.Nil(t, ErrInternalServer.Internal)
}

func TestCopiesMatchSentinelByCode(t *testing.T) {
	err := ErrNotFound.WithMessage("functionality %d not found", 42)

	require.Equal(t, "functionality 42 not found", err.Message)
	require.Equal(t, "Resource not found", ErrNotFound.Message)
	require.ErrorIs(t, fmt.Errorf("lookup: %w", err), ErrNotFound)
	require.NotErrorIs(t, err, ErrConflict)
}

func TestInvalidField(t *testing.T) {
	err := InvalidField("teamId", "team %d cannot own functionalities", 7)

	require.ErrorIs(t, err, ErrBadRequest)
	require.Equal(t, http.StatusBadRequest, err.StatusCode)
	require.Equal(t, "team 7 cannot own functionalities", err.Message)
	require.Equal(t, []FieldError{{Field: "teamId", Message: "team 7 cannot own functionalities"}}, err.Details)
	require.Empty(t, ErrBadRequest.Details)
}

func TestWithDetailsDoesNotAlias(t *testing.T) {
	base := ErrBadRequest.WithDetails(FieldError{Field: "name", Message: "name is required"})
	first := base.WithDetails(FieldError{Field: "type", Message: "type is required"})
	second := base.WithDetails(FieldError{Field: "severity", Message: "severity is required"})

	require.Len(t, base.Details, 1)
	require.Equal(t, "type", first.Details[1].Field)
	require.Equal(t, "severity", second.Details[1].Field)
}

func TestFromError(t *testing.T) {
	require.Same(t, ErrNotFound, FromError(ErrNotFound))
	require.Same(t, ErrConflict, FromError(fmt.Errorf("service: %w", ErrConflict)))
	require.Nil(t, FromError(nil))

	out := FromError(stdErrors.New("raw"))
	require.Equal(t, ErrInternalServer.Code, out.Code)
	require.NotNil(t, out.Internal)
}

func TestNewBadRequest(t *testing.T) {
	err := NewBadRequest("100% invalid")

	require.Equal(t, ErrBadRequest.Code, err.Code)
	require.Equal(t, "100% invalid", err.Message)
	require.Equal(t, http.StatusBadRequest, err.StatusCode)
}
