// Copyright (c) 2026 Synapse Learn. All rights reserved.
// Author: dev@synapselearn.app

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (Hashing, JWT Signing) from
// the domain logic. It acts as an Infrastructure service injected into the
// Application layer via the auth.TokenProvider interface.
package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// # Verification Errors

var (
	// ErrTokenExpired indicates a well-formed, correctly signed token whose
	// embedded expiry is in the past.
	ErrTokenExpired = errors.New("sec: token expired")

	// ErrTokenInvalid indicates a malformed token or a signature mismatch.
	ErrTokenInvalid = errors.New("sec: token tampered or malformed")
)

// AuthClaims represents the payload embedded inside a signed session token.
//
// The token is signed, not encrypted: the payload is readable by anyone but
// tamper-evident. It carries enough identity to name its owner without a
// database round-trip; the session store provides the revocable second layer.
type AuthClaims struct {
	jwt.RegisteredClaims

	// Custom application claims are abbreviated to keep the token payload small.
	UserID   int64  `json:"uid"`
	Username string `json:"unm"`
}

// Identity is the resolved, session-backed identity of an authenticated user.
//
// It is produced by the auth service after the full three-stage verification
// (signature, live session row, active account) and injected into the request
// context for downstream handlers.
type Identity struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// TokenService handles generation and verification of JWT tokens using HS256.
type TokenService struct {
	secret []byte
	issuer string
}

// NewTokenService creates a new TokenService.
//
// The signing secret is configuration-supplied and must never be hardcoded
// or logged.
func NewTokenService(secret, issuer string) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("sec: signing secret must not be empty")
	}
	return &TokenService{
		secret: []byte(secret),
		issuer: issuer,
	}, nil
}

// Generate creates a new signed session token for a user.
//
// Each token carries a unique jti: the timestamps have second granularity,
// so without it two logins inside the same second would produce identical
// tokens and collide on the session store's unique token constraint.
func (service *TokenService) Generate(userID int64, username string, timeToLive time.Duration) (string, error) {
	tokenID, err := uuid.NewV7()
	if err != nil {
		tokenID = uuid.New()
	}

	currentTime := time.Now()
	claims := AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID.String(),
			Subject:   fmt.Sprintf("%d", userID),
			Issuer:    service.issuer,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(timeToLive)),
		},
		UserID:   userID,
		Username: username,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(service.secret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign token: %w", err)
	}

	return signedToken, nil
}

// Verify checks the signature and expiry of a token string.
//
// It fails distinctly for the two invalidity classes:
//   - [ErrTokenExpired]: signature is fine, embedded expiry has passed.
//   - [ErrTokenInvalid]: malformed payload or signature mismatch.
//
// Verification is entirely self-contained — no storage round-trip.
func (service *TokenService) Verify(tokenString string) (*AuthClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AuthClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
		}
		return service.secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*AuthClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
