// Copyright (c) 2026 Synapse Learn. All rights reserved.
// Author: dev@synapselearn.app

package auth

import (
	"regexp"
	"time"
)

// # Session Policy

const (
	// RememberedTokenTTL is the session lifetime issued on registration and
	// on login with remember_me. Fixed at 7 days — per-flow policy, not a
	// configurable knob.
	RememberedTokenTTL = 7 * 24 * time.Hour

	// ShortTokenTTL is the session lifetime issued on login without
	// remember_me.
	ShortTokenTTL = 24 * time.Hour

	// SweepInterval is how often the background sweep deletes expired
	// session rows. Correctness never depends on sweep timing: the valid-
	// session lookup checks expiry itself.
	SweepInterval = 5 * time.Minute
)

// # Input Constraints

const (
	// UsernameMinLen and UsernameMaxLen bound the username length.
	UsernameMinLen = 3
	UsernameMaxLen = 20

	// PasswordMinLen is the minimum accepted password length.
	PasswordMinLen = 6
)

// UsernamePattern matches valid usernames: 3-20 letters, digits, underscores.
var UsernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,20}$`)

// # Client-Safe Messages

const (
	// msgInvalidCredentials is deliberately identical for unknown identifier
	// and wrong password to resist username enumeration.
	msgInvalidCredentials = "Invalid username or password"

	msgUsernameTaken   = "Username is already taken"
	msgEmailTaken      = "Email is already registered"
	msgAccountDisabled = "Account is disabled"
)
