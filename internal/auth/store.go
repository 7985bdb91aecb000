package auth

import "context"

// UserRepository defines the persistence contract for accounts.
type UserRepository interface {
	/*
		Create persists a new user account.

		Returns:
		  - error: Conflict on duplicate username or email, otherwise storage errors
	*/
	Create(ctx context.Context, user *User) error

	/*
		FindByID returns the account with the given ID.

		Returns:
		  - *User: The account
		  - error: apperr.NotFound if absent or soft-deleted
	*/
	FindByID(ctx context.Context, id string) (*User, error)

	// FindByEmail returns the account registered under the given email.
	FindByEmail(ctx context.Context, email string) (*User, error)

	// FindByUsername returns the account with the given username.
	FindByUsername(ctx context.Context, username string) (*User, error)
}

// SessionRepository defines the persistence contract for refresh sessions.
//
// # Caching
//
// FindByTokenHash sits on the token-refresh hot path; the canonical
// implementation wraps the Postgres store with a Redis look-aside cache
// (see [CachedSessionRepository]).
type SessionRepository interface {
	// Create persists a new session.
	Create(ctx context.Context, session *Session) error

	/*
		FindByTokenHash returns the live session matching a refresh token hash.

		Returns:
		  - *Session: The session, never expired or revoked
		  - error: apperr.NotFound for unknown, expired, or revoked tokens
	*/
	FindByTokenHash(ctx context.Context, tokenHash string) (*Session, error)

	// Revoke marks a session unusable. Revocation is permanent and must
	// be visible immediately, caches included.
	Revoke(ctx context.Context, session *Session) error
}
