// Copyright (c) 2026 Synapse Learn. All rights reserved.
// Author: dev@synapselearn.app

/*
Package auth implements the user identity and session management layer.

It defines the core domain entities (User, Session) and logic for registration,
login, logout, and bearer-token verification.

# Architecture

This layer is the "Truth" of the system. Entities defined here have no external
dependencies and encapsulate all business rules related to user identity.
*/
package auth

import (
	"time"
)

// # Domain Entities

// User represents a registered member of the Synapse learning platform.
type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // Explicitly omitted from JSON for security.
	IsActive     bool       `json:"is_active"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Session represents a durable record pairing an issued token with its owner
// and absolute expiry.
//
// The token is self-describing (signed, carries its own expiry) — the session
// row exists so the server can revoke it before that embedded expiry passes.
// Sessions are never mutated once created: logout deletes the row.
type Session struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Token     string    `json:"-"` // Opaque to the store. Omitted for security.
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionUser is the join row returned by the valid-session lookup: the
// session plus the minimal owner fields needed to finish verification in a
// single round trip.
type SessionUser struct {
	Session

	Username string `json:"username"`
	Email    string `json:"email"`
	IsActive bool   `json:"is_active"`
}

// # Field Identifiers

// Global field names for validation and identity mapping in the authentication domain.
const (
	FieldUsername = "username"
	FieldEmail    = "email"
	FieldPassword = "password"
	FieldToken    = "token"
)
