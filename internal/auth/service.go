// Copyright (c) 2026 Synapse Learn. All rights reserved.
// Author: dev@synapselearn.app

/*
Package auth implements account registration, credential authentication, and
session lifecycle management.

It issues signed, expiring bearer tokens on successful registration or login,
persists each as a durable session row, and verifies inbound tokens through a
three-stage check (signature and expiry, live session row, active account).

Architecture:

  - Service: Orchestrates business logic (Register, Login, Logout, Verify).
  - Repository: Abstracted interfaces for PostgreSQL (Users, Sessions).
  - Security: Leverages bcrypt hashing and HMAC-signed tokens.

The package ensures that identity data remains consistent and secure throughout
the platform's lifecycle.
*/
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/synapselearn/synapse/internal/platform/apperr"
	"github.com/synapselearn/synapse/internal/platform/sec"
	"github.com/synapselearn/synapse/internal/platform/validate"
)

// # Contracts & Types

// TokenProvider defines the contract for issuing and checking signed tokens.
//
// Verification here is purely cryptographic — session liveness and account
// state are layered on top by [Service.Verify].
type TokenProvider interface {
	// Generate creates a signed token string for the given user.
	Generate(userID int64, username string, timeToLive time.Duration) (string, error)

	// Verify validates signature and embedded expiry, returning the claims.
	// Failures are sec.ErrTokenExpired or sec.ErrTokenInvalid.
	Verify(tokenString string) (*sec.AuthClaims, error)
}

// Service implements user authentication use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, registration,
// or login logic must be reviewed carefully.
type Service struct {
	userRepository    UserRepository
	sessionRepository SessionRepository
	tokenProvider     TokenProvider
	logger            *slog.Logger
}

// NewService constructs a new [Service] with necessary dependencies.
func NewService(
	userRepo UserRepository,
	sessionRepo SessionRepository,
	tokenProv TokenProvider,
	logger *slog.Logger,
) *Service {
	return &Service{
		userRepository:    userRepo,
		sessionRepository: sessionRepo,
		tokenProvider:     tokenProv,
		logger:            logger,
	}
}

// Credentials is the transport-ready result of a successful registration or
// login: the public user fields plus the freshly issued token. The password
// hash never appears here.
type Credentials struct {
	UserID   int64  `json:"user_id"`
	Token    string `json:"token"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new member.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

/*
Register validates, hashes, and persists a brand new user account, then
immediately establishes its first session.

Description: Empty fields are rejected before shape checks so the two failure
classes stay distinct. Uniqueness is pre-checked for a fast user-facing error,
but the storage-level constraint remains the authority for races.

Parameters:
  - context: context.Context
  - input: RegisterInput

Returns:
  - *Credentials: Token plus public user fields
  - err: Validation, Conflict, or storage errors
*/
func (service *Service) Register(context context.Context, input RegisterInput) (*Credentials, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = normalizeEmail(input.Email)

	// Phase 1: presence. Empty fields fail distinctly from malformed ones.
	required := &validate.Validator{}
	required.Required(FieldUsername, input.Username).
		Required(FieldEmail, input.Email).
		Required(FieldPassword, input.Password)
	if err := required.Err(); err != nil {
		return nil, err
	}

	// Phase 2: shape.
	shape := &validate.Validator{}
	shape.Pattern(FieldUsername, input.Username, UsernamePattern,
		fmt.Sprintf("Must be %d-%d characters (letters, digits, underscore)", UsernameMinLen, UsernameMaxLen)).
		Email(FieldEmail, input.Email).
		MinLen(FieldPassword, input.Password, PasswordMinLen)
	if err := shape.Err(); err != nil {
		return nil, err
	}

	// Fast-path uniqueness checks. Return a client-safe Conflict err.
	if _, err := service.userRepository.FindByUsername(context, input.Username); err == nil {
		return nil, apperr.Conflict(msgUsernameTaken)
	}
	if _, err := service.userRepository.FindByEmail(context, input.Email); err == nil {
		return nil, apperr.Conflict(msgEmailTaken)
	}

	// Prevent storing plain-text passwords. Default cost is used for balance
	// between security and CPU utilization during registration spikes.
	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	user := &User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hashedPassword,
		IsActive:     true,
	}

	// Persist the user. A concurrent duplicate insert loses here and gets
	// the same Conflict error as the fast path (storage is the authority).
	if err := service.userRepository.Create(context, user); err != nil {
		if apperr.IsAppError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("auth_service_register_failed: %w", err)
	}

	return service.establishSession(context, user, RememberedTokenTTL)
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Identifier string // Username, or email when it contains '@'.
	Password   string
	RememberMe bool
}

/*
Login validates user credentials and establishes a new session.

Description: The identifier is routed to email lookup when it contains '@',
username lookup otherwise. Unknown identifier and wrong password are
indistinguishable to the caller. The active-account check deliberately runs
only after password verification — inactive state must not leak to callers
who don't hold the password.

Parameters:
  - context: context.Context
  - input: LoginInput

Returns:
  - *Credentials: Token plus public user fields
  - err: Unauthorized, Forbidden (disabled account), or internal failures
*/
func (service *Service) Login(context context.Context, input LoginInput) (*Credentials, error) {
	input.Identifier = strings.TrimSpace(input.Identifier)

	required := &validate.Validator{}
	required.Required(FieldUsername, input.Identifier).
		Required(FieldPassword, input.Password)
	if err := required.Err(); err != nil {
		return nil, err
	}

	var user *User
	var err error
	if strings.Contains(input.Identifier, "@") {
		user, err = service.userRepository.FindByEmail(context, normalizeEmail(input.Identifier))
	} else {
		user, err = service.userRepository.FindByUsername(context, input.Identifier)
	}

	// Only a genuinely missing account maps to the generic credential error;
	// a storage failure must surface as a server error, not a 401 that tells
	// every client their password is wrong during an outage.
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.Unauthorized(msgInvalidCredentials)
		}
		return nil, fmt.Errorf("auth_service_login_lookup_failed: %w", err)
	}

	// Constant-time comparison inside bcrypt; same message as above.
	if !sec.CheckPasswordHash(input.Password, user.PasswordHash) {
		return nil, apperr.Unauthorized(msgInvalidCredentials)
	}

	// Only reachable with a correct password.
	if !user.IsActive {
		return nil, apperr.Forbidden(msgAccountDisabled)
	}

	if err := service.userRepository.TouchLastLogin(context, user.ID); err != nil {
		return nil, fmt.Errorf("auth_service_touch_last_login_failed: %w", err)
	}

	timeToLive := ShortTokenTTL
	if input.RememberMe {
		timeToLive = RememberedTokenTTL
	}

	return service.establishSession(context, user, timeToLive)
}

// establishSession issues a signed token with the given TTL and persists the
// matching session row.
func (service *Service) establishSession(context context.Context, user *User, timeToLive time.Duration) (*Credentials, error) {
	token, err := service.tokenProvider.Generate(user.ID, user.Username, timeToLive)
	if err != nil {
		return nil, fmt.Errorf("auth_service_token_generation_failed: %w", err)
	}

	session := &Session{
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: time.Now().Add(timeToLive),
	}

	if err := service.sessionRepository.Create(context, session); err != nil {
		return nil, fmt.Errorf("auth_service_session_creation_failed: %w", err)
	}

	return &Credentials{
		UserID:   user.ID,
		Token:    token,
		Username: user.Username,
		Email:    user.Email,
	}, nil
}

// # Session Termination

/*
Logout deletes the session row for the given token.

Description: Idempotent — logging out a token that has no session (already
logged out, expired and swept, or forged) is a success. The token itself
remains cryptographically valid until its embedded expiry, which is exactly
why the session row is the revocation layer.

Parameters:
  - context: context.Context
  - token: string

Returns:
  - err: Storage failures only
*/
func (service *Service) Logout(context context.Context, token string) error {
	if err := service.sessionRepository.DeleteByToken(context, token); err != nil {
		return fmt.Errorf("auth_service_logout_failed: %w", err)
	}
	return nil
}

// # Verification

/*
Verify resolves a bearer token into the identity of its owner.

Description: Three-stage check —

 1. The token codec validates signature and embedded expiry with no storage
    round-trip.
 2. The session store must hold a live row for that exact token (catches
    logout-revoked tokens whose embedded expiry hasn't passed).
 3. The owning account must still be active.

Any stage failing on its own terms yields an Unauthorized result; the reason
strings differ for logging and client display but the contract is
boolean-like. Storage failures are not verification outcomes and propagate
as server errors.

Parameters:
  - context: context.Context
  - token: string

Returns:
  - *sec.Identity: The resolved user (id, username, email)
  - err: apperr.Unauthorized with a human-readable reason
*/
func (service *Service) Verify(context context.Context, token string) (*sec.Identity, error) {

	// Stage 1: cryptographic validity.
	claims, err := service.tokenProvider.Verify(token)
	if err != nil {
		if errors.Is(err, sec.ErrTokenExpired) {
			return nil, apperr.Unauthorized("Token has expired")
		}
		return nil, apperr.Unauthorized("Invalid token")
	}

	// Stage 2: live session row. A missing or expired row is an auth
	// failure; anything else is a storage failure and stays a server error.
	row, err := service.sessionRepository.FindValidByToken(context, token)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.Unauthorized("Session not found or expired")
		}
		return nil, fmt.Errorf("auth_service_verify_lookup_failed: %w", err)
	}

	// Stage 3: account state. Checked regardless of how fresh the token is.
	if !row.IsActive {
		return nil, apperr.Unauthorized(msgAccountDisabled)
	}

	// The session row is the authority for identity; the claims only have to
	// agree with it.
	if claims.UserID != row.UserID {
		return nil, apperr.Unauthorized("Invalid token")
	}

	return &sec.Identity{
		UserID:   row.UserID,
		Username: row.Username,
		Email:    row.Email,
	}, nil
}

// # Expiry Sweep

/*
SweepExpired deletes expired session rows.

Description: Best-effort maintenance. Errors are absorbed and logged, never
propagated — correctness is guaranteed by the expiry predicate in the valid-
session lookup regardless of sweep timing.

Parameters:
  - context: context.Context
*/
func (service *Service) SweepExpired(context context.Context) {
	count, err := service.sessionRepository.DeleteExpired(context)
	if err != nil {
		service.logger.WarnContext(context, "session_sweep_failed", slog.Any("error", err))
		return
	}
	if count > 0 {
		service.logger.InfoContext(context, "session_sweep_completed", slog.Int64("deleted", count))
	}
}

/*
StartSweeper runs [Service.SweepExpired] on a fixed interval until the
context is cancelled.

Description: Intended to be launched as a goroutine from main with the
process-lifetime context. It never blocks a foreground request.

Parameters:
  - context: context.Context
  - interval: time.Duration
*/
func (service *Service) StartSweeper(context context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			service.SweepExpired(context)
		case <-context.Done():
			return
		}
	}
}

// normalizeEmail lowercases and trims an email address for storage and lookup.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
