/*
Package auth implements account registration and session management.

Aldex is a personal tracker, so the identity layer is deliberately small:
username/email accounts with bcrypt-hashed passwords, short-lived RSA-signed
access tokens, and rotating refresh tokens tracked in PostgreSQL with a
Redis look-aside cache on the hot verification path.
*/
package auth

import (
	"time"

	"github.com/qdes/aldex/internal/platform/sec"
)

// User is a registered Aldex account.
type User struct {
	ID           string       `json:"id"`
	Username     string       `json:"username"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"`
	DisplayName  string       `json:"display_name,omitempty"`
	Role         sec.UserRole `json:"role"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// Session is one active refresh-token session.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	TokenHash string    `json:"-"`
	UserAgent string    `json:"user_agent"`
	IPAddress string    `json:"ip_address"`
	ExpiresAt time.Time `json:"expires_at"`
	IsRevoked bool      `json:"is_revoked"`
	CreatedAt time.Time `json:"created_at"`
}

// # Token Lifetimes

const (
	// AccessTokenTTL keeps the JWT short-lived so a leaked token has a
	// small blast radius.
	AccessTokenTTL = 15 * time.Minute

	// RefreshTokenTTL keeps users signed in for a month of inactivity.
	RefreshTokenTTL = 30 * 24 * time.Hour

	// RefreshTokenLength is the byte length of the random refresh token.
	RefreshTokenLength = 32
)
