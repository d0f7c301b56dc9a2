// Copyright (c) 2026 Synapse Learn. All rights reserved.
// Author: dev@synapselearn.app

/*
HTTP delivery layer for user identity management.

The handler acts as a thin mediation layer between the web and the domain
service:

  - Protocol: Standard RESTful JSON interface.
  - Security: Bearer-token transport via the Authorization header.
  - Verification: Input validation and all business rules live in [Service].

This layer is strictly responsible for transport concerns (status codes, headers, JSON).
*/

package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/synapselearn/synapse/internal/platform/request"
	"github.com/synapselearn/synapse/internal/platform/respond"
	"github.com/synapselearn/synapse/internal/platform/validate"
)

// # Definitions & Constructors

// Handler implements authentication-related HTTP endpoints.
//
// # Scope
//
// This handler manages the user lifecycle entry points (Registration, Login,
// Logout, Verification).
type Handler struct {
	authService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{authService: service}
}

// Routes returns a [chi.Router] configured with authentication-specific routes.
//
// # Endpoints
//   - POST /register : Creates a new account and issues a token.
//   - POST /login    : Authenticates credentials and issues a token.
//   - POST /logout   : Revokes the bearer token's session.
//   - GET  /verify   : Resolves the bearer token into its owner.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/register", handler.register)
	router.Post("/login", handler.login)

	// Bearer-token endpoints handle the header themselves: logout must stay
	// idempotent even for tokens that no longer resolve to a session.
	router.Post("/logout", handler.logout)
	router.Get("/verify", handler.verify)

	return router
}

// # Request Payloads

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username   string `json:"username"` // Username or email.
	Password   string `json:"password"`
	RememberMe bool   `json:"remember_me"`
}

// # Response Payloads

type verifyResponse struct {
	Valid    bool   `json:"valid"`
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

/*
register handles the creation of a new user account.

POST /api/auth/register

Description: Validates input, checks for identity conflicts, persists the
account, and establishes its first session (7-day token).

Request:
  - Body: registerRequest (Username, Email, Password)

Response:
  - 201: Credentials: user_id, token, username, email
  - 400: Validation failure or duplicate username/email
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	credentials, err := handler.authService.Register(request.Context(), RegisterInput{
		Username: input.Username,
		Email:    input.Email,
		Password: input.Password,
	})

	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, credentials)
}

/*
login authenticates a user and establishes a session.

POST /api/auth/login

Description: Verifies credentials and issues a signed token — 7 days with
remember_me, 24 hours without.

Request:
  - Body: loginRequest (Username-or-email, Password, RememberMe)

Response:
  - 200: Credentials: user_id, token, username, email
  - 401: Invalid credentials (uniform for unknown user and wrong password)
  - 403: Account disabled
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	credentials, err := handler.authService.Login(request.Context(), LoginInput{
		Identifier: input.Username,
		Password:   input.Password,
		RememberMe: input.RememberMe,
	})

	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, credentials)
}

/*
logout terminates the session belonging to the bearer token.

POST /api/auth/logout

Description: Deletes the matching session row. Idempotent — a token that no
longer has a session still logs out successfully.

Response:
  - 200: {success: true}
  - 401: Missing or malformed Authorization header
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	token, err := requestutil.BearerToken(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.Logout(request.Context(), token); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]bool{"success": true})
}

/*
verify resolves the bearer token into its owning user.

GET /api/auth/verify

Description: Full three-stage verification — token signature and expiry,
live session row, active account.

Response:
  - 200: verifyResponse: valid flag plus user_id, username, email
  - 401: Invalid, expired, or revoked token
*/
func (handler *Handler) verify(writer http.ResponseWriter, request *http.Request) {
	token, err := requestutil.BearerToken(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	identity, err := handler.authService.Verify(request.Context(), token)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, verifyResponse{
		Valid:    true,
		UserID:   identity.UserID,
		Username: identity.Username,
		Email:    identity.Email,
	})
}
