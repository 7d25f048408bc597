package middleware

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/study-group-api/internal/auth"
	"github.com/yukikurage/study-group-api/internal/constants"
	apierrors "github.com/yukikurage/study-group-api/internal/errors"
	"github.com/yukikurage/study-group-api/internal/metrics"
	"github.com/yukikurage/study-group-api/internal/models"
	"github.com/yukikurage/study-group-api/internal/services"
)

// PrincipalResolver turns a bearer token into a user.
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, token string) (*models.User, *auth.Claims, error)
}

// Authenticator builds the bearer-token middlewares.
type Authenticator struct {
	resolver PrincipalResolver
	metrics  metrics.Recorder
}

// NewAuthenticator creates a new Authenticator.
func NewAuthenticator(resolver PrincipalResolver, recorder metrics.Recorder) *Authenticator {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &Authenticator{resolver: resolver, metrics: recorder}
}

// RequireAuth rejects requests without a valid bearer token
func (a *Authenticator) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			a.metrics.RecordAuthFailure("missing_token")
			apierrors.Unauthorized(c, "Not authorized, no token")
			return
		}

		user, claims, err := a.resolver.ResolvePrincipal(c.Request.Context(), token)
		if err != nil {
			a.reject(c, err)
			return
		}

		setPrincipal(c, user, claims)
		c.Next()
	}
}

// OptionalAuth attaches the principal when a valid bearer token is present.
// Missing or bad tokens leave the request anonymous.
func (a *Authenticator) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.Next()
			return
		}

		user, claims, err := a.resolver.ResolvePrincipal(c.Request.Context(), token)
		if err != nil {
			slog.Debug("ignoring unusable bearer token", slog.String("error", err.Error()))
			c.Next()
			return
		}

		setPrincipal(c, user, claims)
		c.Next()
	}
}

func (a *Authenticator) reject(c *gin.Context, err error) {
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		a.metrics.RecordAuthFailure("expired")
		apierrors.TokenExpired(c)
	case errors.Is(err, services.ErrTokenRevoked):
		a.metrics.RecordAuthFailure("revoked")
		apierrors.Unauthorized(c, "Not authorized, token revoked")
	case errors.Is(err, auth.ErrTokenInvalid), errors.Is(err, services.ErrUserNotFound):
		a.metrics.RecordAuthFailure("invalid")
		apierrors.Unauthorized(c, "Not authorized, token failed")
	default:
		apierrors.InternalError(c, err)
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, constants.BearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, constants.BearerPrefix))
	return token, token != ""
}

func setPrincipal(c *gin.Context, user *models.User, claims *auth.Claims) {
	c.Set(constants.ContextKeyUser, user)
	c.Set(constants.ContextKeyUserID, user.ID)
	c.Set(constants.ContextKeyTokenClaims, claims)
}

// GetPrincipal returns the authenticated user, or nil for anonymous requests
func GetPrincipal(c *gin.Context) *models.User {
	v, exists := c.Get(constants.ContextKeyUser)
	if !exists {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

// GetClaims returns the verified token claims of the request
func GetClaims(c *gin.Context) *auth.Claims {
	v, exists := c.Get(constants.ContextKeyTokenClaims)
	if !exists {
		return nil
	}
	claims, _ := v.(*auth.Claims)
	return claims
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (uint64, bool) {
	userID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, false
	}

	id, ok := userID.(uint64)
	return id, ok
}
