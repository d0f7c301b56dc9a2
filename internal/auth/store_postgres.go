// Copyright (c) 2026 Synapse Learn. All rights reserved.
// Author: dev@synapselearn.app

// PostgreSQL implementations of the auth storage contracts.
//
// # Error Mapping
//
// Storage-specific errors (pgx.ErrNoRows, SQLSTATE 23505) are mapped to
// domain-friendly [apperr.AppError] types at this boundary so that no raw
// database detail crosses into the service layer.

package auth

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/synapselearn/synapse/internal/platform/apperr"
	"github.com/synapselearn/synapse/internal/platform/dberr"
)

// Unique constraint names from data/migrations. The insert path inspects
// these to tell a username conflict apart from an email conflict.
const (
	constraintUsername = "users_username_key"
	constraintEmail    = "users_email_key"
)

// # User Repository

// PostgresUserRepository implements the UserRepository interface using pgx.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new PostgreSQL implementation of the UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

/*
Create persists a new user record into the users table.

Description: The insert is all-or-nothing with respect to the unique
constraints — a duplicate-key race between pre-check and insert surfaces
here as the authoritative Conflict error.

Parameters:
  - context: context.Context
  - user: *User (Entity to persist; ID and CreatedAt populated on success)

Returns:
  - error: apperr.Conflict on duplicates, or connectivity errors
*/
func (repository *PostgresUserRepository) Create(context context.Context, user *User) error {
	const query = `
		INSERT INTO users (username, email, password_hash, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := repository.pool.QueryRow(context, query,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.IsActive,
	).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		if constraint, ok := dberr.UniqueConstraint(err); ok {
			switch constraint {
			case constraintUsername:
				return apperr.Conflict(msgUsernameTaken)
			case constraintEmail:
				return apperr.Conflict(msgEmailTaken)
			}
		}
		return fmt.Errorf("postgres_user_repo_create_failed: %w", err)
	}

	return nil
}

/*
FindByID retrieves a user record by their unique ID.

Parameters:
  - context: context.Context
  - id: int64

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresUserRepository) FindByID(context context.Context, id int64) (*User, error) {
	const query = `
		SELECT id, username, email, password_hash, is_active, last_login_at, created_at
		FROM users
		WHERE id = $1`

	user := &User{}
	err := repository.pool.QueryRow(context, query, id).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.IsActive,
		&user.LastLoginAt,
		&user.CreatedAt,
	)

	if err != nil {
		if dberr.IsNoRows(err) {
			return nil, apperr.NotFound("User")
		}
		return nil, fmt.Errorf("postgres_user_repo_find_by_id_failed: %w", err)
	}

	return user, nil
}

/*
FindByUsername retrieves a user record by their unique username.

Parameters:
  - context: context.Context
  - username: string

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresUserRepository) FindByUsername(context context.Context, username string) (*User, error) {
	const query = `
		SELECT id, username, email, password_hash, is_active, last_login_at, created_at
		FROM users
		WHERE username = $1`

	user := &User{}
	err := repository.pool.QueryRow(context, query, username).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.IsActive,
		&user.LastLoginAt,
		&user.CreatedAt,
	)

	if err != nil {
		if dberr.IsNoRows(err) {
			return nil, apperr.NotFound("User")
		}
		return nil, fmt.Errorf("postgres_user_repo_find_by_username_failed: %w", err)
	}

	return user, nil
}

/*
FindByEmail retrieves a user record by their unique email address.

Description: Emails are stored lowercase; callers normalize before lookup.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresUserRepository) FindByEmail(context context.Context, email string) (*User, error) {
	const query = `
		SELECT id, username, email, password_hash, is_active, last_login_at, created_at
		FROM users
		WHERE email = $1`

	user := &User{}
	err := repository.pool.QueryRow(context, query, email).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.IsActive,
		&user.LastLoginAt,
		&user.CreatedAt,
	)

	if err != nil {
		if dberr.IsNoRows(err) {
			return nil, apperr.NotFound("User")
		}
		return nil, fmt.Errorf("postgres_user_repo_find_by_email_failed: %w", err)
	}

	return user, nil
}

/*
TouchLastLogin stamps the account's last-login time with the storage clock.

Parameters:
  - context: context.Context
  - userID: int64

Returns:
  - error: Execution errors
*/
func (repository *PostgresUserRepository) TouchLastLogin(context context.Context, userID int64) error {
	const query = "UPDATE users SET last_login_at = NOW() WHERE id = $1"

	_, err := repository.pool.Exec(context, query, userID)
	if err != nil {
		return fmt.Errorf("postgres_user_repo_touch_last_login_failed: %w", err)
	}

	return nil
}

/*
SetActive flips the account's active flag.

Parameters:
  - context: context.Context
  - userID: int64
  - active: bool

Returns:
  - error: Execution errors
*/
func (repository *PostgresUserRepository) SetActive(context context.Context, userID int64, active bool) error {
	const query = "UPDATE users SET is_active = $2 WHERE id = $1"

	_, err := repository.pool.Exec(context, query, userID, active)
	if err != nil {
		return fmt.Errorf("postgres_user_repo_set_active_failed: %w", err)
	}

	return nil
}

// # Session Repository

// PostgresSessionRepository implements the SessionRepository interface.
type PostgresSessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new PostgreSQL implementation of SessionRepository.
func NewSessionRepository(pool *pgxpool.Pool) *PostgresSessionRepository {
	return &PostgresSessionRepository{pool: pool}
}

/*
Create persists a new session record into the user_sessions table.

Parameters:
  - context: context.Context
  - session: *Session

Returns:
  - error: Storage failures
*/
func (repository *PostgresSessionRepository) Create(context context.Context, session *Session) error {
	const query = `
		INSERT INTO user_sessions (user_id, token, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := repository.pool.QueryRow(context, query,
		session.UserID,
		session.Token,
		session.ExpiresAt,
	).Scan(&session.ID, &session.CreatedAt)

	if err != nil {
		return fmt.Errorf("postgres_session_repo_create_failed: %w", err)
	}

	return nil
}

/*
FindValidByToken retrieves an unexpired session by its exact token, joined
with the owner's username, email, and active flag.

Description: The expiry predicate uses the storage clock, so a session that
expired a moment ago is invisible here even if the sweep has not deleted its
row yet.

Parameters:
  - context: context.Context
  - token: string

Returns:
  - *SessionUser: Hydrated session plus owner subset
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresSessionRepository) FindValidByToken(context context.Context, token string) (*SessionUser, error) {
	const query = `
		SELECT s.id, s.user_id, s.token, s.expires_at, s.created_at,
		       u.username, u.email, u.is_active
		FROM user_sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.token = $1 AND s.expires_at > NOW()`

	row := &SessionUser{}
	err := repository.pool.QueryRow(context, query, token).Scan(
		&row.ID,
		&row.UserID,
		&row.Token,
		&row.ExpiresAt,
		&row.CreatedAt,
		&row.Username,
		&row.Email,
		&row.IsActive,
	)

	if err != nil {
		if dberr.IsNoRows(err) {
			return nil, apperr.NotFound("Session")
		}
		return nil, fmt.Errorf("postgres_session_repo_find_valid_failed: %w", err)
	}

	return row, nil
}

/*
DeleteByToken removes the session with the given token.

Description: Zero rows affected is a success — logout is idempotent.

Parameters:
  - context: context.Context
  - token: string

Returns:
  - error: Execution errors
*/
func (repository *PostgresSessionRepository) DeleteByToken(context context.Context, token string) error {
	const query = "DELETE FROM user_sessions WHERE token = $1"

	_, err := repository.pool.Exec(context, query, token)
	if err != nil {
		return fmt.Errorf("postgres_session_repo_delete_failed: %w", err)
	}

	return nil
}

/*
DeleteExpired permanently removes all sessions that have passed their expiration.

Description: Cleanup task to reclaim storage from stale sessions. Idempotent
and safe to run concurrently with reads.

Parameters:
  - context: context.Context

Returns:
  - int64: Number of rows deleted
  - error: Cleanup failures
*/
func (repository *PostgresSessionRepository) DeleteExpired(context context.Context) (int64, error) {
	const query = "DELETE FROM user_sessions WHERE expires_at <= NOW()"

	tag, err := repository.pool.Exec(context, query)
	if err != nil {
		return 0, fmt.Errorf("postgres_session_repo_delete_expired_failed: %w", err)
	}

	return tag.RowsAffected(), nil
}
