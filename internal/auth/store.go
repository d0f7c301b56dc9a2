// Copyright (c) 2026 Synapse Learn. All rights reserved.
// Author: dev@synapselearn.app

package auth

import (
	"context"
)

// # User Data Access

// UserRepository defines the data access contract for user accounts.
//
// All reads return a snapshot of current durable state — no caching layer
// sits between this interface and storage.
type UserRepository interface {

	/*
		Create persists a brand-new user account and assigns its numeric ID.

		Uniqueness of username and email is enforced by storage-level
		constraints, not just pre-checks: a violation surfaces as a Conflict
		error naming the offending field, closing the race window between
		check and insert.

		Parameters:
		  - context: context.Context
		  - user: *User (ID and CreatedAt are populated on success)

		Returns:
		  - error: Conflict on duplicate username/email, or storage failures
	*/
	Create(context context.Context, user *User) error

	/*
		FindByID returns the account with the given ID.

		Parameters:
		  - context: context.Context
		  - id: int64

		Returns:
		  - *User: Hydrated entity
		  - error: NotFound or database retrieval failures
	*/
	FindByID(context context.Context, id int64) (*User, error)

	/*
		FindByUsername returns the account with the given username.

		Parameters:
		  - context: context.Context
		  - username: string

		Returns:
		  - *User: Hydrated entity
		  - error: NotFound or database retrieval failures
	*/
	FindByUsername(context context.Context, username string) (*User, error)

	/*
		FindByEmail returns the account with the given (lowercased) email.

		Parameters:
		  - context: context.Context
		  - email: string

		Returns:
		  - *User: Hydrated entity
		  - error: NotFound or database retrieval failures
	*/
	FindByEmail(context context.Context, email string) (*User, error)

	/*
		TouchLastLogin stamps the account's last-login time with now.

		Parameters:
		  - context: context.Context
		  - userID: int64

		Returns:
		  - error: Persistence failures
	*/
	TouchLastLogin(context context.Context, userID int64) error

	/*
		SetActive flips the account's active flag. Deactivation is driven by
		an external admin surface; the flag is load-bearing for login and
		verification checks here.

		Parameters:
		  - context: context.Context
		  - userID: int64
		  - active: bool

		Returns:
		  - error: Persistence failures
	*/
	SetActive(context context.Context, userID int64, active bool) error
}

// # Session Data Access

// SessionRepository defines the data access contract for durable sessions.
type SessionRepository interface {

	/*
		Create persists a new session for an authenticated login.

		Parameters:
		  - context: context.Context
		  - session: *Session (ID and CreatedAt are populated on success)

		Returns:
		  - error: Persistence failures
	*/
	Create(context context.Context, session *Session) error

	/*
		FindValidByToken returns the unexpired session matching the exact
		token, joined with the minimal owner fields (username, email, active
		flag) in one round trip. Rows whose expiry has passed are never
		returned, regardless of whether a sweep has deleted them yet.

		Parameters:
		  - context: context.Context
		  - token: string

		Returns:
		  - *SessionUser: Session plus owner subset
		  - error: NotFound or execution errors
	*/
	FindValidByToken(context context.Context, token string) (*SessionUser, error)

	/*
		DeleteByToken removes the session with the given token. Deleting a
		nonexistent token is not an error (idempotent logout).

		Parameters:
		  - context: context.Context
		  - token: string

		Returns:
		  - error: Persistence failures
	*/
	DeleteByToken(context context.Context, token string) error

	/*
		DeleteExpired removes all sessions whose expiry is in the past and
		reports how many rows were deleted. Safe to call concurrently.

		Parameters:
		  - context: context.Context

		Returns:
		  - int64: Number of rows deleted
		  - error: Cleanup failures
	*/
	DeleteExpired(context context.Context) (int64, error)
}
