package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qdes/aldex/internal/auth"
	"github.com/qdes/aldex/internal/platform/apperr"
	"github.com/qdes/aldex/internal/platform/sec"
)

// memoryUsers is an in-memory UserRepository.
type memoryUsers struct {
	users []*auth.User
}

func (r *memoryUsers) Create(_ context.Context, user *auth.User) error {
	for _, existing := range r.users {
		if existing.Email == user.Email || existing.Username == user.Username {
			return apperr.Conflict("account already exists")
		}
	}
	r.users = append(r.users, user)
	return nil
}

func (r *memoryUsers) FindByID(_ context.Context, id string) (*auth.User, error) {
	for _, user := range r.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (r *memoryUsers) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (r *memoryUsers) FindByUsername(_ context.Context, username string) (*auth.User, error) {
	for _, user := range r.users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, apperr.NotFound("User")
}

// memorySessions is an in-memory SessionRepository with the same liveness
// rules as the Postgres store: revoked or expired sessions are invisible.
type memorySessions struct {
	sessions map[string]*auth.Session
}

func (r *memorySessions) Create(_ context.Context, session *auth.Session) error {
	if r.sessions == nil {
		r.sessions = map[string]*auth.Session{}
	}
	r.sessions[session.TokenHash] = session
	return nil
}

func (r *memorySessions) FindByTokenHash(_ context.Context, tokenHash string) (*auth.Session, error) {
	session, ok := r.sessions[tokenHash]
	if !ok || session.IsRevoked || time.Now().After(session.ExpiresAt) {
		return nil, apperr.NotFound("Session")
	}
	return session, nil
}

func (r *memorySessions) Revoke(_ context.Context, session *auth.Session) error {
	session.IsRevoked = true
	return nil
}

// staticTokens signs predictable access tokens.
type staticTokens struct{}

func (staticTokens) GenerateAccessToken(userID, _, _ string, _ time.Duration) (string, error) {
	return "access-" + userID, nil
}

func newAuthFixture(t *testing.T) (*auth.Service, *memoryUsers, *memorySessions) {
	t.Helper()
	users := &memoryUsers{}
	sessions := &memorySessions{}
	return auth.NewService(users, sessions, staticTokens{}), users, sessions
}

func register(t *testing.T, service *auth.Service, username, email string) *auth.User {
	t.Helper()
	user, err := service.Register(context.Background(), auth.RegisterInput{
		Username: username,
		Email:    email,
		Password: "correct horse",
	})
	require.NoError(t, err)
	return user
}

/*
TestRegister_Validation verifies the input rules for new accounts.
*/
func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name  string
		input auth.RegisterInput
	}{
		{"short_username", auth.RegisterInput{Username: "ab", Email: "a@b.test", Password: "longenough"}},
		{"bad_email", auth.RegisterInput{Username: "collector", Email: "not-an-email", Password: "longenough"}},
		{"short_password", auth.RegisterInput{Username: "collector", Email: "a@b.test", Password: "short"}},
		{"empty", auth.RegisterInput{}},
	}

	service, _, _ := newAuthFixture(t)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := service.Register(context.Background(), tc.input)
			require.Error(t, err)
			appError := apperr.As(err)
			require.NotNil(t, appError)
			assert.Equal(t, "VALIDATION_ERROR", appError.Code)
		})
	}
}

/*
TestRegister_Conflicts verifies that a taken email or username is rejected
with a conflict, checked in that order.
*/
func TestRegister_Conflicts(t *testing.T) {
	service, _, _ := newAuthFixture(t)
	register(t, service, "collector", "collector@aldex.test")

	_, err := service.Register(context.Background(), auth.RegisterInput{
		Username: "someoneelse",
		Email:    "collector@aldex.test",
		Password: "longenough",
	})
	require.Error(t, err)
	assert.Equal(t, "Email is already registered", apperr.As(err).Message)

	_, err = service.Register(context.Background(), auth.RegisterInput{
		Username: "collector",
		Email:    "fresh@aldex.test",
		Password: "longenough",
	})
	require.Error(t, err)
	assert.Equal(t, "Username is already taken", apperr.As(err).Message)
}

/*
TestLogin verifies that both email and username work as the login
identifier, and that the issued pair is usable.
*/
func TestLogin(t *testing.T) {
	service, _, sessions := newAuthFixture(t)
	user := register(t, service, "collector", "collector@aldex.test")

	byEmail, err := service.Login(context.Background(), auth.LoginInput{
		Login: "collector@aldex.test", Password: "correct horse",
	})
	require.NoError(t, err)
	assert.Equal(t, "access-"+user.ID, byEmail.AccessToken)
	assert.NotEmpty(t, byEmail.RefreshToken)

	byUsername, err := service.Login(context.Background(), auth.LoginInput{
		Login: "collector", Password: "correct horse",
	})
	require.NoError(t, err)
	assert.NotEqual(t, byEmail.RefreshToken, byUsername.RefreshToken)

	// Both logins opened tracked sessions.
	assert.Len(t, sessions.sessions, 2)
}

/*
TestLogin_UniformFailure verifies that an unknown account and a wrong
password are indistinguishable, so the endpoint cannot enumerate accounts.
*/
func TestLogin_UniformFailure(t *testing.T) {
	service, _, _ := newAuthFixture(t)
	register(t, service, "collector", "collector@aldex.test")

	_, unknownErr := service.Login(context.Background(), auth.LoginInput{
		Login: "nobody@aldex.test", Password: "correct horse",
	})
	_, wrongErr := service.Login(context.Background(), auth.LoginInput{
		Login: "collector@aldex.test", Password: "wrong horse",
	})

	require.Error(t, unknownErr)
	require.Error(t, wrongErr)
	assert.Equal(t, apperr.As(unknownErr).Message, apperr.As(wrongErr).Message)
	assert.Equal(t, "UNAUTHORIZED", apperr.As(unknownErr).Code)
	assert.Equal(t, "UNAUTHORIZED", apperr.As(wrongErr).Code)
}

/*
TestRefreshSession_Rotation verifies that refreshing revokes the presented
token: the new pair works, the old token is dead.
*/
func TestRefreshSession_Rotation(t *testing.T) {
	service, _, _ := newAuthFixture(t)
	register(t, service, "collector", "collector@aldex.test")

	login, err := service.Login(context.Background(), auth.LoginInput{
		Login: "collector", Password: "correct horse",
	})
	require.NoError(t, err)

	rotated, err := service.RefreshSession(context.Background(), login.RefreshToken, "", "")
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, rotated.RefreshToken)

	// Replaying the consumed token must fail.
	_, err = service.RefreshSession(context.Background(), login.RefreshToken, "", "")
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", apperr.As(err).Code)

	// The rotated token is still live.
	_, err = service.RefreshSession(context.Background(), rotated.RefreshToken, "", "")
	require.NoError(t, err)
}

/*
TestLogout verifies that logout revokes the session and that logging out an
unknown token is a silent success.
*/
func TestLogout(t *testing.T) {
	service, _, _ := newAuthFixture(t)
	register(t, service, "collector", "collector@aldex.test")

	login, err := service.Login(context.Background(), auth.LoginInput{
		Login: "collector", Password: "correct horse",
	})
	require.NoError(t, err)

	require.NoError(t, service.Logout(context.Background(), login.RefreshToken))

	_, err = service.RefreshSession(context.Background(), login.RefreshToken, "", "")
	require.Error(t, err)

	// Idempotent: a second logout, and a garbage token, both succeed.
	require.NoError(t, service.Logout(context.Background(), login.RefreshToken))
	require.NoError(t, service.Logout(context.Background(), "no-such-token"))
}

/*
TestPasswordHashing sanity-checks the bcrypt round trip the service relies on.
*/
func TestPasswordHashing(t *testing.T) {
	hash, err := sec.HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)
	assert.True(t, sec.CheckPasswordHash("correct horse", hash))
	assert.False(t, sec.CheckPasswordHash("wrong horse", hash))
}
