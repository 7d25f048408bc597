package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/yukikurage/study-group-api/internal/auth"
	"github.com/yukikurage/study-group-api/internal/constants"
	"github.com/yukikurage/study-group-api/internal/models"
	"github.com/yukikurage/study-group-api/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUsernameRequired       = errors.New("username is required")
	ErrEmailRequired          = errors.New("email is required")
	ErrUsernameTaken          = errors.New("username already exists")
	ErrEmailTaken             = errors.New("email already exists")
	ErrUserExists             = errors.New("username or email already exists")
	ErrInvalidCredentials     = errors.New("invalid email or password")
	ErrPasswordTooShort       = errors.New("password too short")
	ErrUserNotFound           = errors.New("user not found")
	ErrTokenRevoked           = errors.New("token has been revoked")
	ErrAuthenticationRequired = errors.New("authentication required")
)

// placeholderUser stands in for unknown emails during login so that both
// failure paths pay for one bcrypt comparison.
var placeholderUser = sync.OnceValue(func() *models.User {
	hash, err := bcrypt.GenerateFromPassword([]byte("placeholder-password"), constants.BcryptCost)
	if err != nil {
		panic(fmt.Sprintf("failed to hash placeholder password: %v", err))
	}
	return &models.User{PasswordHash: string(hash)}
})

// AuthService handles authentication related business logic.
type AuthService struct {
	userRepo      repository.UserRepository
	tokens        *auth.TokenService
	revoked       auth.RevocationStore
	checkPassword func(user *models.User, password string) bool
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository, tokens *auth.TokenService, revoked auth.RevocationStore) *AuthService {
	return &AuthService{
		userRepo:      userRepo,
		tokens:        tokens,
		revoked:       revoked,
		checkPassword: (*models.User).CheckPassword,
	}
}

// RegisterInput represents the required information to create a new user.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	FullName string
}

// Register creates a new user. Username and email must be unused; email
// comparison ignores case.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, ErrUsernameRequired
	}
	email := models.NormalizeEmail(input.Email)
	if email == "" {
		return nil, ErrEmailRequired
	}
	if len(input.Password) < constants.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	if _, err := s.userRepo.FindByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}

	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	user := &models.User{
		Username: username,
		Email:    email,
		Password: input.Password,
		FullName: strings.TrimSpace(input.FullName),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// Lost a race with a concurrent registration.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Email    string
	Password string
}

// Login verifies credentials and returns the authenticated user. Unknown
// email and wrong password fail with the same error.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*models.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.checkPassword(placeholderUser(), input.Password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !s.checkPassword(user, input.Password) {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// IssueToken signs a bearer token for the user.
func (s *AuthService) IssueToken(user *models.User) (string, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(ctx context.Context, id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// ResolvePrincipal turns a bearer token into the user it was issued for.
// Errors are auth.ErrTokenExpired, auth.ErrTokenInvalid, ErrTokenRevoked or
// ErrUserNotFound.
func (s *AuthService) ResolvePrincipal(ctx context.Context, token string) (*models.User, *auth.Claims, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, nil, err
	}

	if s.revoked != nil {
		revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to check token revocation: %w", err)
		}
		if revoked {
			return nil, nil, ErrTokenRevoked
		}
	}

	user, err := s.GetUser(ctx, claims.UserID)
	if err != nil {
		return nil, nil, err
	}

	return user, claims, nil
}

// Logout revokes the token described by claims for the rest of its
// lifetime.
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil {
		return ErrAuthenticationRequired
	}
	if s.revoked == nil {
		return nil
	}
	if err := s.revoked.Revoke(ctx, claims.ID, s.tokens.Remaining(claims)); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

func principalID(principal *models.User) uint64 {
	if principal == nil {
		return 0
	}
	return principal.ID
}
