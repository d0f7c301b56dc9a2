// Copyright (c) 2026 Synapse Learn. All rights reserved.
// Author: dev@synapselearn.app

package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synapselearn/synapse/internal/platform/apperr"
)

/*
TestConstructors verifies each constructor maps to the right HTTP status.
*/
func TestConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *apperr.AppError
		wantCode   string
		wantStatus int
	}{
		{"not_found", apperr.NotFound("User"), "NOT_FOUND", http.StatusNotFound},
		{"unauthorized", apperr.Unauthorized("Invalid token"), "UNAUTHORIZED", http.StatusUnauthorized},
		{"forbidden", apperr.Forbidden("Account is disabled"), "FORBIDDEN", http.StatusForbidden},
		// Duplicate accounts surface as a client error, not 409.
		{"conflict", apperr.Conflict("Username is already taken"), "CONFLICT", http.StatusBadRequest},
		{"validation", apperr.ValidationError("Validation failed"), "VALIDATION_ERROR", http.StatusBadRequest},
		{"internal", apperr.Internal(errors.New("boom")), "INTERNAL_ERROR", http.StatusInternalServerError},
		{"bad_gateway", apperr.BadGateway("Upstream unavailable", errors.New("timeout")), "BAD_GATEWAY", http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantCode, tt.err.Code)
			assert.Equal(t, tt.wantStatus, tt.err.HTTPStatus)
		})
	}
}

/*
TestUnwrap verifies errors.Is works through the Cause chain.
*/
func TestUnwrap(t *testing.T) {
	sentinel := errors.New("disk full")
	err := apperr.Internal(sentinel)

	assert.ErrorIs(t, err, sentinel)
}

/*
TestAs extracts an AppError through wrapping layers.
*/
func TestAs(t *testing.T) {
	wrapped := fmt.Errorf("service_failed: %w", apperr.NotFound("Session"))

	assert.True(t, apperr.IsAppError(wrapped))

	ae := apperr.As(wrapped)
	require.NotNil(t, ae)
	assert.Equal(t, http.StatusNotFound, ae.HTTPStatus)

	assert.Nil(t, apperr.As(errors.New("plain")))
	assert.False(t, apperr.IsAppError(errors.New("plain")))
}

/*
TestIsNotFound distinguishes a missing row from every other failure class,
including plain storage errors.
*/
func TestIsNotFound(t *testing.T) {
	assert.True(t, apperr.IsNotFound(apperr.NotFound("User")))
	assert.True(t, apperr.IsNotFound(fmt.Errorf("lookup_failed: %w", apperr.NotFound("Session"))))

	assert.False(t, apperr.IsNotFound(apperr.Unauthorized("Invalid token")))
	assert.False(t, apperr.IsNotFound(errors.New("connection refused")))
	assert.False(t, apperr.IsNotFound(nil))
}
