// Copyright (c) 2026 Synapse Learn. All rights reserved.
// Author: dev@synapselearn.app

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/synapselearn/synapse/internal/platform/apperr"
	"github.com/synapselearn/synapse/internal/platform/constants"
	"github.com/synapselearn/synapse/internal/platform/ctxutil"
	"github.com/synapselearn/synapse/internal/platform/respond"
	"github.com/synapselearn/synapse/internal/platform/sec"
)

// SessionVerifier defines the interface needed to verify bearer tokens in middleware.
//
// # Why an interface?
//
// Defining SessionVerifier here decouples the middleware from the `auth` service
// implementation, allowing us to easily inject mocks during unit testing. The
// production implementation performs the full three-stage check: token
// signature and expiry, live session row, active account.
type SessionVerifier interface {
	Verify(ctx context.Context, token string) (*sec.Identity, error)
}

// Authenticate extracts and verifies the bearer token from the Authorization header.
//
// # Flow
//  1. Check for 'Authorization: Bearer <token>' header.
//  2. If absent, request proceeds as anonymous.
//  3. If present, resolve the token via [SessionVerifier].
//  4. Inject [*sec.Identity] into the request context for downstream use.
func Authenticate(verifier SessionVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			authHeader := request.Header.Get(constants.HeaderAuthorization)

			// ── 1. Anonymous Access ───────────────────────────────────────────
			if authHeader == "" {
				next.ServeHTTP(writer, request)
				return
			}

			// ── 2. Format Validation ──────────────────────────────────────────
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				respond.Error(writer, request, apperr.Unauthorized("Invalid authorization format"))
				return
			}

			// ── 3. Session Verification ───────────────────────────────────────
			identity, err := verifier.Verify(request.Context(), parts[1])
			if err != nil {
				respond.Error(writer, request, err)
				return
			}

			// ── 4. Context Injection ──────────────────────────────────────────
			ctx := ctxutil.WithAuthUser(request.Context(), identity)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireAuth blocks requests that are not authenticated.
//
// # Usage
//
// Must be registered in the router AFTER [Authenticate].
//
// # Flow
//  1. Check if [*sec.Identity] exists in context.
//  2. If missing, abort with HTTP 401 Unauthorized.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		identity := ctxutil.GetAuthUser(request.Context())
		if identity == nil {
			respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}
