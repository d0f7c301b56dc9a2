// Copyright (c) 2026 Synapse Learn. All rights reserved.
// Author: dev@synapselearn.app

/*
Package request provides utilities for extracting data from HTTP requests.

It abstracts away bearer-token parsing and common body decoding patterns,
ensuring consistent error handling and type safety.
*/
package requestutil

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/synapselearn/synapse/internal/platform/apperr"
	"github.com/synapselearn/synapse/internal/platform/constants"
	"github.com/synapselearn/synapse/internal/platform/ctxutil"
	"github.com/synapselearn/synapse/internal/platform/sec"
	"github.com/synapselearn/synapse/internal/platform/validate"
)

/*
DecodeJSON reads the request body and decodes it into the target structure.

Parameters:
  - request: *http.Request
  - target: interface{} (Pointer to the destination struct)

Returns:
  - error: validate.ErrInvalidJSON if decoding fails, otherwise nil
*/
func DecodeJSON(request *http.Request, target interface{}) error {
	if err := json.NewDecoder(request.Body).Decode(target); err != nil {
		return validate.ErrInvalidJSON
	}
	return nil
}

/*
BearerToken extracts the bearer token from the Authorization header.

Returns:
  - string: The raw token string
  - error: apperr.Unauthorized if the header is missing or malformed
*/
func BearerToken(request *http.Request) (string, error) {
	authHeader := request.Header.Get(constants.HeaderAuthorization)
	if authHeader == "" {
		return "", apperr.Unauthorized("Missing authentication token")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", apperr.Unauthorized("Invalid authorization format")
	}

	return parts[1], nil
}

/*
Identity extracts the verified user identity from the request context.

Returns nil if the request is not authenticated.
*/
func Identity(request *http.Request) *sec.Identity {
	return ctxutil.GetAuthUser(request.Context())
}

/*
RequiredIdentity ensures the request is authenticated and returns the identity.

Returns:
  - *sec.Identity: The verified user identity
  - error: apperr.Unauthorized if the request is not authenticated
*/
func RequiredIdentity(request *http.Request) (*sec.Identity, error) {

	// Get the verified identity
	identity := ctxutil.GetAuthUser(request.Context())

	// If the user is not authenticated, return an error
	if identity == nil {
		return nil, apperr.Unauthorized("Authentication required")
	}

	return identity, nil
}
