package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/study-group-api/internal/auth"
	"github.com/yukikurage/study-group-api/internal/models"
	"github.com/yukikurage/study-group-api/internal/repository"
)

func newAuthService(t *testing.T, now func() time.Time, store auth.RevocationStore) *AuthService {
	t.Helper()
	db := setupTestDB(t)
	tokens := auth.NewTokenService("test-secret", time.Hour)
	if now != nil {
		tokens.WithClock(now)
	}
	return NewAuthService(repository.NewUserRepository(db), tokens, store)
}

func TestAuthService_Register(t *testing.T) {
	svc := newAuthService(t, nil, nil)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{
		Username: "alice",
		Email:    "Alice@Example.com",
		Password: "password123",
		FullName: "Alice A.",
	})
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotEqual(t, "password123", user.PasswordHash)
	assert.Empty(t, user.Password)

	tests := []struct {
		name  string
		input RegisterInput
		want  error
	}{
		{
			name:  "email differs only in case",
			input: RegisterInput{Username: "alice2", Email: "ALICE@example.COM", Password: "password123"},
			want:  ErrEmailTaken,
		},
		{
			name:  "username taken",
			input: RegisterInput{Username: "alice", Email: "other@example.com", Password: "password123"},
			want:  ErrUsernameTaken,
		},
		{
			name:  "short password",
			input: RegisterInput{Username: "bob", Email: "bob@example.com", Password: "123"},
			want:  ErrPasswordTooShort,
		},
		{
			name:  "missing username",
			input: RegisterInput{Username: "  ", Email: "bob@example.com", Password: "password123"},
			want:  ErrUsernameRequired,
		},
		{
			name:  "missing email",
			input: RegisterInput{Username: "bob", Password: "password123"},
			want:  ErrEmailRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.input)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAuthService_LoginFailuresAreIndistinguishable(t *testing.T) {
	svc := newAuthService(t, nil, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Username: "alice", Email: "alice@example.com", Password: "password123"})
	require.NoError(t, err)

	user, err := svc.Login(ctx, LoginInput{Email: "ALICE@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	_, wrongPassword := svc.Login(ctx, LoginInput{Email: "alice@example.com", Password: "nope-nope"})
	_, unknownEmail := svc.Login(ctx, LoginInput{Email: "ghost@example.com", Password: "password123"})

	require.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	require.ErrorIs(t, unknownEmail, ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestAuthService_LoginUnknownEmailComparesHash(t *testing.T) {
	svc := newAuthService(t, nil, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Username: "alice", Email: "alice@example.com", Password: "password123"})
	require.NoError(t, err)

	var compared []string
	svc.checkPassword = func(user *models.User, password string) bool {
		compared = append(compared, user.PasswordHash)
		return user.CheckPassword(password)
	}

	_, err = svc.Login(ctx, LoginInput{Email: "ghost@example.com", Password: "password123"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
	require.Len(t, compared, 1, "unknown email must still pay for a bcrypt comparison")
	assert.Equal(t, placeholderUser().PasswordHash, compared[0])
	assert.True(t, strings.HasPrefix(compared[0], "$2"), "placeholder must be a real bcrypt hash")

	_, err = svc.Login(ctx, LoginInput{Email: "alice@example.com", Password: "wrong-password"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
	require.Len(t, compared, 2)
	assert.NotEqual(t, compared[0], compared[1])

	assert.False(t, placeholderUser().CheckPassword(""))
}

func TestAuthService_ResolvePrincipal(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := new(MockRevocationStore)
	svc := newAuthService(t, func() time.Time { return now }, store)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Username: "alice", Email: "alice@example.com", Password: "password123"})
	require.NoError(t, err)

	token, err := svc.IssueToken(user)
	require.NoError(t, err)

	store.On("IsRevoked", mock.Anything, mock.AnythingOfType("string")).Return(false, nil).Once()

	principal, claims, err := svc.ResolvePrincipal(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, principal.ID)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Empty(t, principal.Password)

	t.Run("revoked token", func(t *testing.T) {
		store.On("IsRevoked", mock.Anything, claims.ID).Return(true, nil).Once()
		_, _, err := svc.ResolvePrincipal(ctx, token)
		assert.ErrorIs(t, err, ErrTokenRevoked)
	})

	t.Run("expired token", func(t *testing.T) {
		now = now.Add(2 * time.Hour)
		defer func() { now = now.Add(-2 * time.Hour) }()
		_, _, err := svc.ResolvePrincipal(ctx, token)
		assert.ErrorIs(t, err, auth.ErrTokenExpired)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, _, err := svc.ResolvePrincipal(ctx, "not-a-token")
		assert.ErrorIs(t, err, auth.ErrTokenInvalid)
	})

	store.AssertExpectations(t)
}

func TestAuthService_ResolvePrincipalUnknownUser(t *testing.T) {
	svc := newAuthService(t, nil, nil)

	token, err := svc.tokens.Issue(999)
	require.NoError(t, err)

	_, _, err = svc.ResolvePrincipal(context.Background(), token)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestAuthService_Logout(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := new(MockRevocationStore)
	svc := newAuthService(t, func() time.Time { return now }, store)
	ctx := context.Background()

	token, err := svc.tokens.Issue(1)
	require.NoError(t, err)
	claims, err := svc.tokens.Verify(token)
	require.NoError(t, err)

	now = now.Add(15 * time.Minute)
	store.On("Revoke", mock.Anything, claims.ID, 45*time.Minute).Return(nil).Once()

	require.NoError(t, svc.Logout(ctx, claims))
	assert.ErrorIs(t, svc.Logout(ctx, nil), ErrAuthenticationRequired)
	store.AssertExpectations(t)
}
