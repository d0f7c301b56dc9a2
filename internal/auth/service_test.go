// Copyright (c) 2026 Synapse Learn. All rights reserved.
// Author: dev@synapselearn.app

package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synapselearn/synapse/internal/platform/apperr"
	"github.com/synapselearn/synapse/internal/platform/dberr"
	"github.com/synapselearn/synapse/internal/platform/sec"
)

// # In-Memory Fakes

// fakeUserRepository implements UserRepository with a mutex-guarded map so
// concurrent registration races can be exercised.
type fakeUserRepository struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*User

	findErr error
}

func newFakeUserRepository() *fakeUserRepository {
	return &fakeUserRepository{users: make(map[int64]*User)}
}

func (r *fakeUserRepository) Create(_ context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Username == user.Username {
			return apperr.Conflict("Username is already taken")
		}
		if existing.Email == user.Email {
			return apperr.Conflict("Email is already registered")
		}
	}
	r.nextID++
	user.ID = r.nextID
	user.CreatedAt = time.Now()
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepository) FindByID(_ context.Context, id int64) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[id]; ok {
		clone := *user
		return &clone, nil
	}
	return nil, apperr.NotFound("User")
}

func (r *fakeUserRepository) FindByUsername(_ context.Context, username string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, user := range r.users {
		if user.Username == username {
			clone := *user
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (r *fakeUserRepository) FindByEmail(_ context.Context, email string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, user := range r.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (r *fakeUserRepository) TouchLastLogin(_ context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return dberr.ErrNotFound
	}
	now := time.Now()
	user.LastLoginAt = &now
	return nil
}

func (r *fakeUserRepository) SetActive(_ context.Context, userID int64, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return dberr.ErrNotFound
	}
	user.IsActive = active
	return nil
}

// fakeSessionRepository implements SessionRepository backed by its sibling
// user store, mirroring the join in the real query.
type fakeSessionRepository struct {
	mu       sync.Mutex
	nextID   int64
	sessions map[string]*Session
	users    *fakeUserRepository

	createErr    error
	deleteErr    error
	findValidErr error
}

func newFakeSessionRepository(users *fakeUserRepository) *fakeSessionRepository {
	return &fakeSessionRepository{
		sessions: make(map[string]*Session),
		users:    users,
	}
}

func (r *fakeSessionRepository) Create(_ context.Context, session *Session) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	session.ID = r.nextID
	session.CreatedAt = time.Now()
	clone := *session
	r.sessions[session.Token] = &clone
	return nil
}

func (r *fakeSessionRepository) FindValidByToken(ctx context.Context, token string) (*SessionUser, error) {
	if r.findValidErr != nil {
		return nil, r.findValidErr
	}
	r.mu.Lock()
	session, ok := r.sessions[token]
	if ok {
		clone := *session
		session = &clone
	}
	r.mu.Unlock()

	if !ok || !session.ExpiresAt.After(time.Now()) {
		return nil, apperr.NotFound("Session")
	}

	user, err := r.users.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}

	return &SessionUser{
		Session:  *session,
		Username: user.Username,
		Email:    user.Email,
		IsActive: user.IsActive,
	}, nil
}

func (r *fakeSessionRepository) DeleteByToken(_ context.Context, token string) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, token)
	return nil
}

func (r *fakeSessionRepository) DeleteExpired(_ context.Context) (int64, error) {
	if r.deleteErr != nil {
		return 0, r.deleteErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for token, session := range r.sessions {
		if !session.ExpiresAt.After(time.Now()) {
			delete(r.sessions, token)
			count++
		}
	}
	return count, nil
}

// # Test Harness

type serviceFixture struct {
	service  *Service
	users    *fakeUserRepository
	sessions *fakeSessionRepository
	tokens   *sec.TokenService
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	tokens, err := sec.NewTokenService("service-test-secret", "synapselearn.app")
	require.NoError(t, err)

	users := newFakeUserRepository()
	sessions := newFakeSessionRepository(users)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &serviceFixture{
		service:  NewService(users, sessions, tokens, logger),
		users:    users,
		sessions: sessions,
		tokens:   tokens,
	}
}

func validRegisterInput() RegisterInput {
	return RegisterInput{
		Username: "bob",
		Email:    "bob@example.com",
		Password: "secret123",
	}
}

// # Registration

/*
TestService_Register verifies the happy path: account stored, password
hashed, session established.
*/
func TestService_Register(t *testing.T) {
	fixture := newServiceFixture(t)
	ctx := context.Background()

	credentials, err := fixture.service.Register(ctx, validRegisterInput())
	require.NoError(t, err)

	assert.Equal(t, "bob", credentials.Username)
	assert.Equal(t, "bob@example.com", credentials.Email)
	assert.NotZero(t, credentials.UserID)
	assert.NotEmpty(t, credentials.Token)

	// The stored password is a hash, never the plain text.
	stored, err := fixture.users.FindByID(ctx, credentials.UserID)
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", stored.PasswordHash)
	assert.True(t, sec.CheckPasswordHash("secret123", stored.PasswordHash))
	assert.True(t, stored.IsActive)

	// The issued token verifies immediately.
	identity, err := fixture.service.Verify(ctx, credentials.Token)
	require.NoError(t, err)
	assert.Equal(t, credentials.UserID, identity.UserID)
}

/*
TestService_Register_Validation covers presence and shape failures.
*/
func TestService_Register_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RegisterInput)
	}{
		{"empty_username", func(in *RegisterInput) { in.Username = "" }},
		{"empty_email", func(in *RegisterInput) { in.Email = "" }},
		{"empty_password", func(in *RegisterInput) { in.Password = "" }},
		{"username_too_short", func(in *RegisterInput) { in.Username = "ab" }},
		{"username_too_long", func(in *RegisterInput) { in.Username = "abcdefghijklmnopqrstu" }},
		{"username_illegal_chars", func(in *RegisterInput) { in.Username = "bob smith!" }},
		{"malformed_email", func(in *RegisterInput) { in.Email = "not-an-email" }},
		{"short_password", func(in *RegisterInput) { in.Password = "12345" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fixture := newServiceFixture(t)
			input := validRegisterInput()
			tt.mutate(&input)

			_, err := fixture.service.Register(context.Background(), input)
			require.Error(t, err)

			ae := apperr.As(err)
			require.NotNil(t, ae)
			assert.Equal(t, http.StatusBadRequest, ae.HTTPStatus)
		})
	}
}

/*
TestService_Register_Duplicates verifies both duplicate dimensions map to a
client-visible 400 with a field-specific message.
*/
func TestService_Register_Duplicates(t *testing.T) {
	fixture := newServiceFixture(t)
	ctx := context.Background()

	_, err := fixture.service.Register(ctx, validRegisterInput())
	require.NoError(t, err)

	t.Run("username_taken", func(t *testing.T) {
		input := validRegisterInput()
		input.Email = "other@example.com"

		_, err := fixture.service.Register(ctx, input)
		require.Error(t, err)

		ae := apperr.As(err)
		require.NotNil(t, ae)
		assert.Equal(t, http.StatusBadRequest, ae.HTTPStatus)
		assert.Equal(t, "Username is already taken", ae.Message)
	})

	t.Run("email_taken", func(t *testing.T) {
		input := validRegisterInput()
		input.Username = "alice"

		_, err := fixture.service.Register(ctx, input)
		require.Error(t, err)

		ae := apperr.As(err)
		require.NotNil(t, ae)
		assert.Equal(t, "Email is already registered", ae.Message)
	})
}

/*
TestService_Register_ConcurrentDuplicate races two registrations for the same
username; exactly one must win.
*/
func TestService_Register_ConcurrentDuplicate(t *testing.T) {
	fixture := newServiceFixture(t)
	ctx := context.Background()

	const attempts = 8
	errs := make(chan error, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := fixture.service.Register(ctx, validRegisterInput())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var successes, conflicts int
	for err := range errs {
		if err == nil {
			successes++
			continue
		}
		ae := apperr.As(err)
		require.NotNil(t, ae)
		conflicts++
	}

	assert.Equal(t, 1, successes)
	assert.Equal(t, attempts-1, conflicts)
}

// # Login

/*
TestService_Login exercises username and email identifiers plus the
remember-me TTL split.
*/
func TestService_Login(t *testing.T) {
	fixture := newServiceFixture(t)
	ctx := context.Background()

	_, err := fixture.service.Register(ctx, validRegisterInput())
	require.NoError(t, err)

	t.Run("by_username", func(t *testing.T) {
		credentials, err := fixture.service.Login(ctx, LoginInput{
			Identifier: "bob",
			Password:   "secret123",
		})
		require.NoError(t, err)
		assert.Equal(t, "bob", credentials.Username)
		assert.NotEmpty(t, credentials.Token)
	})

	t.Run("by_email", func(t *testing.T) {
		credentials, err := fixture.service.Login(ctx, LoginInput{
			Identifier: "BOB@Example.com", // Case-insensitive lookup.
			Password:   "secret123",
		})
		require.NoError(t, err)
		assert.Equal(t, "bob", credentials.Username)
	})

	t.Run("short_session_by_default", func(t *testing.T) {
		credentials, err := fixture.service.Login(ctx, LoginInput{
			Identifier: "bob",
			Password:   "secret123",
		})
		require.NoError(t, err)

		fixture.sessions.mu.Lock()
		session := fixture.sessions.sessions[credentials.Token]
		fixture.sessions.mu.Unlock()
		require.NotNil(t, session)

		assert.WithinDuration(t, time.Now().Add(ShortTokenTTL), session.ExpiresAt, time.Minute)
	})

	t.Run("remembered_session", func(t *testing.T) {
		credentials, err := fixture.service.Login(ctx, LoginInput{
			Identifier: "bob",
			Password:   "secret123",
			RememberMe: true,
		})
		require.NoError(t, err)

		fixture.sessions.mu.Lock()
		session := fixture.sessions.sessions[credentials.Token]
		fixture.sessions.mu.Unlock()
		require.NotNil(t, session)

		assert.WithinDuration(t, time.Now().Add(RememberedTokenTTL), session.ExpiresAt, time.Minute)
	})

	t.Run("back_to_back_logins_issue_distinct_tokens", func(t *testing.T) {
		// Both logins land within the same second; the jti keeps the tokens
		// (and so the session rows) distinct.
		first, err := fixture.service.Login(ctx, LoginInput{Identifier: "bob", Password: "secret123"})
		require.NoError(t, err)
		second, err := fixture.service.Login(ctx, LoginInput{Identifier: "bob", Password: "secret123"})
		require.NoError(t, err)

		assert.NotEqual(t, first.Token, second.Token)
	})

	t.Run("touches_last_login", func(t *testing.T) {
		user, err := fixture.users.FindByUsername(ctx, "bob")
		require.NoError(t, err)
		assert.NotNil(t, user.LastLoginAt)
	})
}

/*
TestService_Login_Failures verifies the uniform credential error and the
post-password disabled-account check.
*/
func TestService_Login_Failures(t *testing.T) {
	fixture := newServiceFixture(t)
	ctx := context.Background()

	credentials, err := fixture.service.Register(ctx, validRegisterInput())
	require.NoError(t, err)

	t.Run("unknown_username", func(t *testing.T) {
		_, err := fixture.service.Login(ctx, LoginInput{Identifier: "nobody", Password: "secret123"})
		require.Error(t, err)

		ae := apperr.As(err)
		require.NotNil(t, ae)
		assert.Equal(t, http.StatusUnauthorized, ae.HTTPStatus)
		assert.Equal(t, "Invalid username or password", ae.Message)
	})

	t.Run("wrong_password", func(t *testing.T) {
		_, err := fixture.service.Login(ctx, LoginInput{Identifier: "bob", Password: "wrong"})
		require.Error(t, err)

		ae := apperr.As(err)
		require.NotNil(t, ae)
		// Identical message to the unknown-user case: no account enumeration.
		assert.Equal(t, http.StatusUnauthorized, ae.HTTPStatus)
		assert.Equal(t, "Invalid username or password", ae.Message)
	})

	t.Run("missing_fields", func(t *testing.T) {
		_, err := fixture.service.Login(ctx, LoginInput{Identifier: "", Password: ""})
		require.Error(t, err)

		ae := apperr.As(err)
		require.NotNil(t, ae)
		assert.Equal(t, http.StatusBadRequest, ae.HTTPStatus)
	})

	t.Run("disabled_account_with_correct_password", func(t *testing.T) {
		require.NoError(t, fixture.users.SetActive(ctx, credentials.UserID, false))

		_, err := fixture.service.Login(ctx, LoginInput{Identifier: "bob", Password: "secret123"})
		require.Error(t, err)

		ae := apperr.As(err)
		require.NotNil(t, ae)
		assert.Equal(t, http.StatusForbidden, ae.HTTPStatus)
		assert.Equal(t, "Account is disabled", ae.Message)
	})

	t.Run("disabled_account_with_wrong_password", func(t *testing.T) {
		// Disabled state must not leak without the password.
		_, err := fixture.service.Login(ctx, LoginInput{Identifier: "bob", Password: "wrong"})
		require.Error(t, err)

		ae := apperr.As(err)
		require.NotNil(t, ae)
		assert.Equal(t, http.StatusUnauthorized, ae.HTTPStatus)
		assert.Equal(t, "Invalid username or password", ae.Message)
	})
}

// # Logout

/*
TestService_Logout verifies revocation and idempotency.
*/
func TestService_Logout(t *testing.T) {
	fixture := newServiceFixture(t)
	ctx := context.Background()

	credentials, err := fixture.service.Register(ctx, validRegisterInput())
	require.NoError(t, err)

	// First logout revokes the session.
	require.NoError(t, fixture.service.Logout(ctx, credentials.Token))

	_, err = fixture.service.Verify(ctx, credentials.Token)
	require.Error(t, err)

	// Second logout of the same token is still a success.
	assert.NoError(t, fixture.service.Logout(ctx, credentials.Token))

	// So is logging out a token that never had a session.
	assert.NoError(t, fixture.service.Logout(ctx, "never-issued"))
}

// # Verification

/*
TestService_Verify walks each stage of the three-stage check.
*/
func TestService_Verify(t *testing.T) {
	fixture := newServiceFixture(t)
	ctx := context.Background()

	credentials, err := fixture.service.Register(ctx, validRegisterInput())
	require.NoError(t, err)

	t.Run("valid_token", func(t *testing.T) {
		identity, err := fixture.service.Verify(ctx, credentials.Token)
		require.NoError(t, err)
		assert.Equal(t, credentials.UserID, identity.UserID)
		assert.Equal(t, "bob", identity.Username)
		assert.Equal(t, "bob@example.com", identity.Email)
	})

	t.Run("malformed_token", func(t *testing.T) {
		_, err := fixture.service.Verify(ctx, "garbage")
		require.Error(t, err)

		ae := apperr.As(err)
		require.NotNil(t, ae)
		assert.Equal(t, http.StatusUnauthorized, ae.HTTPStatus)
		assert.Equal(t, "Invalid token", ae.Message)
	})

	t.Run("expired_token", func(t *testing.T) {
		expired, err := fixture.tokens.Generate(credentials.UserID, "bob", -time.Minute)
		require.NoError(t, err)

		_, err = fixture.service.Verify(ctx, expired)
		require.Error(t, err)

		ae := apperr.As(err)
		require.NotNil(t, ae)
		assert.Equal(t, "Token has expired", ae.Message)
	})

	t.Run("valid_signature_without_session", func(t *testing.T) {
		// Cryptographically fine, but no session row was ever created.
		orphan, err := fixture.tokens.Generate(credentials.UserID, "bob", time.Hour)
		require.NoError(t, err)

		_, err = fixture.service.Verify(ctx, orphan)
		require.Error(t, err)

		ae := apperr.As(err)
		require.NotNil(t, ae)
		assert.Equal(t, "Session not found or expired", ae.Message)
	})

	t.Run("deactivated_account", func(t *testing.T) {
		require.NoError(t, fixture.users.SetActive(ctx, credentials.UserID, false))
		defer func() {
			require.NoError(t, fixture.users.SetActive(ctx, credentials.UserID, true))
		}()

		_, err := fixture.service.Verify(ctx, credentials.Token)
		require.Error(t, err)

		ae := apperr.As(err)
		require.NotNil(t, ae)
		assert.Equal(t, "Account is disabled", ae.Message)
	})
}

/*
TestService_StorageOutage verifies that a failing store surfaces as a server
error, never as an authentication verdict: a database outage must not tell
clients their credentials or session are invalid.
*/
func TestService_StorageOutage(t *testing.T) {
	fixture := newServiceFixture(t)
	ctx := context.Background()

	credentials, err := fixture.service.Register(ctx, validRegisterInput())
	require.NoError(t, err)

	t.Run("login_during_user_store_outage", func(t *testing.T) {
		fixture.users.findErr = errors.New("connection refused")
		defer func() { fixture.users.findErr = nil }()

		_, err := fixture.service.Login(ctx, LoginInput{Identifier: "bob", Password: "secret123"})
		require.Error(t, err)

		// Not an AppError: the response layer turns it into a generic 500,
		// never the invalid-credentials 401.
		assert.Nil(t, apperr.As(err))
	})

	t.Run("verify_during_session_store_outage", func(t *testing.T) {
		fixture.sessions.findValidErr = errors.New("connection refused")
		defer func() { fixture.sessions.findValidErr = nil }()

		_, err := fixture.service.Verify(ctx, credentials.Token)
		require.Error(t, err)
		assert.Nil(t, apperr.As(err))
	})

	t.Run("recovers_after_outage", func(t *testing.T) {
		identity, err := fixture.service.Verify(ctx, credentials.Token)
		require.NoError(t, err)
		assert.Equal(t, credentials.UserID, identity.UserID)
	})
}

// # Sweep

/*
TestService_SweepExpired verifies expired rows are removed and errors are
swallowed.
*/
func TestService_SweepExpired(t *testing.T) {
	fixture := newServiceFixture(t)
	ctx := context.Background()

	// One live and one expired session, inserted directly.
	require.NoError(t, fixture.sessions.Create(ctx, &Session{
		UserID: 1, Token: "live", ExpiresAt: time.Now().Add(time.Hour),
	}))
	require.NoError(t, fixture.sessions.Create(ctx, &Session{
		UserID: 1, Token: "stale", ExpiresAt: time.Now().Add(-time.Hour),
	}))

	fixture.service.SweepExpired(ctx)

	fixture.sessions.mu.Lock()
	_, liveRemains := fixture.sessions.sessions["live"]
	_, staleRemains := fixture.sessions.sessions["stale"]
	fixture.sessions.mu.Unlock()

	assert.True(t, liveRemains)
	assert.False(t, staleRemains)

	// A failing store must not panic or propagate.
	fixture.sessions.deleteErr = assert.AnError
	assert.NotPanics(t, func() {
		fixture.service.SweepExpired(ctx)
	})
}
