package service

import (
	"errors"
	"fmt"

	"github.com/cemlevent54/FileMate/internal/security"
)

var (
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrWeakPassword       = errors.New("password is too short")
	ErrRoleConfiguration  = errors.New("default role is not configured")
	ErrUserNotFound       = errors.New("user not found")
	ErrAccountInactive    = errors.New("account is not active")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidSession     = errors.New("invalid session")
	ErrRevokedToken       = errors.New("token revoked")
	ErrRevocationFailure  = errors.New("revocation failed")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidRole        = errors.New("unknown role")
	ErrSelfModification   = errors.New("admins cannot block or delete their own account")

	ErrInvalidToken   = security.ErrInvalidToken
	ErrExpiredToken   = security.ErrExpiredToken
	ErrWrongTokenType = security.ErrWrongTokenType
)

func invalidSession(cause error) error {
	return fmt.Errorf("%w: %w", ErrInvalidSession, cause)
}

func invalidInput(cause error) error {
	return fmt.Errorf("%w: %w", ErrInvalidInput, cause)
}

// outcome labels a finished operation for metrics.
func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrWeakPassword), errors.Is(err, ErrDuplicateEmail):
		return "rejected"
	case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrAccountInactive):
		return "denied"
	case errors.Is(err, ErrInvalidSession), errors.Is(err, ErrInvalidToken):
		return "invalid_token"
	default:
		return "error"
	}
}
