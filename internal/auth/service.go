package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/qdes/aldex/internal/platform/apperr"
	"github.com/qdes/aldex/internal/platform/sec"
	"github.com/qdes/aldex/internal/platform/validate"
	"github.com/qdes/aldex/pkg/uuidv7"
)

// TokenProvider signs access tokens. Satisfied by [sec.TokenService].
type TokenProvider interface {
	GenerateAccessToken(userID, username, role string, timeToLive time.Duration) (string, error)
}

// Service implements the authentication use cases.
type Service struct {
	users    UserRepository
	sessions SessionRepository
	tokens   TokenProvider
}

func NewService(users UserRepository, sessions SessionRepository, tokens TokenProvider) *Service {
	return &Service{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
	}
}

// RegisterInput holds a new account submission.
type RegisterInput struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

/*
Register validates, hashes, and persists a new account.

Returns:
  - *User: The created account
  - error: apperr.Conflict when the username or email is taken
*/
func (service *Service) Register(ctx context.Context, input RegisterInput) (*User, error) {
	v := &validate.Validator{}
	v.Required("username", input.Username).MinLen("username", input.Username, 3).MaxLen("username", input.Username, 32)
	v.Required("email", input.Email).Email("email", input.Email)
	v.Required("password", input.Password).MinLen("password", input.Password, 8)
	if err := v.Err(); err != nil {
		return nil, err
	}

	if _, err := service.users.FindByEmail(ctx, input.Email); err == nil {
		return nil, apperr.Conflict("Email is already registered")
	}
	if _, err := service.users.FindByUsername(ctx, input.Username); err == nil {
		return nil, apperr.Conflict("Username is already taken")
	}

	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	user := &User{
		ID:           uuidv7.New(),
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hashedPassword,
		DisplayName:  input.DisplayName,
		Role:         sec.RoleMember,
	}

	if err := service.users.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// LoginInput defines credentials for an authentication attempt. Login
// accepts either username or email.
type LoginInput struct {
	Login     string
	Password  string
	UserAgent string
	IPAddress string
}

// LoginSession is a successfully established session.
type LoginSession struct {
	AccessToken           string
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
	User                  *User
}

/*
Login validates credentials and issues a token pair.

Description: Looks the account up by email then username, verifies the
password against its bcrypt hash, and opens a tracked refresh session.
Unknown account and wrong password produce the same message so the
endpoint cannot be used to enumerate accounts.

Returns:
  - *LoginSession: Transport-ready credentials
  - error: apperr.Unauthorized on any credential failure
*/
func (service *Service) Login(ctx context.Context, input LoginInput) (*LoginSession, error) {
	user, err := service.users.FindByEmail(ctx, input.Login)
	if err != nil {
		user, err = service.users.FindByUsername(ctx, input.Login)
	}
	if err != nil {
		return nil, apperr.Unauthorized("Invalid login credentials")
	}

	if !sec.CheckPasswordHash(input.Password, user.PasswordHash) {
		return nil, apperr.Unauthorized("Invalid login credentials")
	}

	return service.openSession(ctx, user, input.UserAgent, input.IPAddress)
}

// Logout revokes the session behind a refresh token. An unknown token is a
// successful logout; the operation is idempotent.
func (service *Service) Logout(ctx context.Context, refreshToken string) error {
	session, err := service.sessions.FindByTokenHash(ctx, sec.HashToken(refreshToken))
	if err != nil {
		return nil
	}

	if err := service.sessions.Revoke(ctx, session); err != nil {
		return fmt.Errorf("auth_service_logout_failed: %w", err)
	}
	return nil
}

/*
RefreshSession rotates a refresh token.

Description: Verifies the presented token, revokes its session so the token
can never be replayed, and issues a fresh pair bound to a new session.

Returns:
  - *LoginSession: The rotated credentials
  - error: apperr.Unauthorized for unknown, expired, or revoked tokens
*/
func (service *Service) RefreshSession(ctx context.Context, refreshToken, userAgent, ipAddress string) (*LoginSession, error) {
	session, err := service.sessions.FindByTokenHash(ctx, sec.HashToken(refreshToken))
	if err != nil {
		return nil, apperr.Unauthorized("Invalid or expired refresh token")
	}

	if err := service.sessions.Revoke(ctx, session); err != nil {
		return nil, fmt.Errorf("auth_service_refresh_revoke_failed: %w", err)
	}

	user, err := service.users.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, apperr.Unauthorized("User not found or suspended")
	}

	return service.openSession(ctx, user, userAgent, ipAddress)
}

// Me returns the account behind an authenticated request.
func (service *Service) Me(ctx context.Context, userID string) (*User, error) {
	return service.users.FindByID(ctx, userID)
}

// openSession mints an access token and persists a new refresh session.
func (service *Service) openSession(ctx context.Context, user *User, userAgent, ipAddress string) (*LoginSession, error) {
	accessToken, err := service.tokens.GenerateAccessToken(user.ID, user.Username, string(user.Role), AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("auth_service_token_generation_failed: %w", err)
	}

	refreshToken, err := sec.GenerateSecureToken(RefreshTokenLength)
	if err != nil {
		return nil, fmt.Errorf("auth_service_refresh_token_failed: %w", err)
	}

	expiresAt := time.Now().Add(RefreshTokenTTL)
	session := &Session{
		ID:        uuidv7.New(),
		UserID:    user.ID,
		TokenHash: sec.HashToken(refreshToken),
		UserAgent: userAgent,
		IPAddress: ipAddress,
		ExpiresAt: expiresAt,
	}

	if err := service.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("auth_service_session_creation_failed: %w", err)
	}

	return &LoginSession{
		AccessToken:           accessToken,
		RefreshToken:          refreshToken,
		RefreshTokenExpiresAt: expiresAt,
		User:                  user,
	}, nil
}
