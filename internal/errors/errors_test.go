package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructorsSetStatusAndCode(t *testing.T) {
	tests := []struct {
		err        *ServiceError
		wantCode   ErrorCode
		wantStatus int
	}{
		{Validation("bad input"), CodeValidation, http.StatusBadRequest},
		{Unauthorized("no token"), CodeUnauthorized, http.StatusUnauthorized},
		{InvalidCredentials(), CodeInvalidCredentials, http.StatusUnauthorized},
		{Forbidden("nope"), CodeForbidden, http.StatusForbidden},
		{NotFound("gone"), CodeNotFound, http.StatusNotFound},
		{Conflict("taken"), CodeConflict, http.StatusBadRequest},
		{Internal("boom", nil), CodeInternal, http.StatusInternalServerError},
		{InvalidToken(nil), CodeUnauthorized, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.wantCode, tt.err.Code)
		assert.Equal(t, tt.wantStatus, tt.err.HTTPStatus)
	}
}

func TestInvalidCredentialsMessageIsUniform(t *testing.T) {
	// Unknown username and wrong password must be indistinguishable.
	assert.Equal(t, InvalidCredentials().Message, InvalidCredentials().Message)
	assert.Equal(t, "Invalid credentials", InvalidCredentials().Message)
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Internal("query failed", cause)

	require.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "query failed")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestGetServiceError(t *testing.T) {
	svcErr := NotFound("missing")
	wrapped := fmt.Errorf("handler: %w", svcErr)

	got := GetServiceError(wrapped)
	require.NotNil(t, got)
	assert.Equal(t, CodeNotFound, got.Code)

	assert.Nil(t, GetServiceError(stderrors.New("plain")))
	assert.Nil(t, GetServiceError(nil))
}

func TestWithDetails(t *testing.T) {
	err := Validation("bad field").WithDetails("field", "rating")
	require.NotNil(t, err.Details)
	assert.Equal(t, "rating", err.Details["field"])
}
