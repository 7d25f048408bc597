package constants

import "time"

// Context keys
const (
	ContextKeyUserID      = "user_id"
	ContextKeyUser        = "current_user"
	ContextKeyTokenClaims = "token_claims"
)

// Auth
const (
	MinPasswordLength = 6
	BcryptCost        = 10
	DefaultTokenTTL   = time.Hour
	BearerPrefix      = "Bearer "
)

// Groups
const (
	JoinCodeLength   = 8
	JoinCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)
