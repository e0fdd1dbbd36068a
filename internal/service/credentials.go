package service

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/cemlevent54/FileMate/internal/security"
)

const DefaultMinPasswordLength = 6

// Policy holds the tunables shared by the services.
type Policy struct {
	MinPasswordLength   int
	RotateRefreshTokens bool
}

type credentials struct {
	hasher    security.PasswordHasher
	minLength int
}

func newCredentials(hasher security.PasswordHasher, policy Policy) credentials {
	minLength := policy.MinPasswordLength
	if minLength <= 0 {
		minLength = DefaultMinPasswordLength
	}
	return credentials{hasher: hasher, minLength: minLength}
}

func (c credentials) checkStrength(password string) error {
	if utf8.RuneCountInString(password) < c.minLength {
		return fmt.Errorf("%w: minimum is %d characters", ErrWeakPassword, c.minLength)
	}
	return nil
}

func (c credentials) hash(password string) (string, error) {
	if err := c.checkStrength(password); err != nil {
		return "", err
	}
	digest, err := c.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, security.ErrPasswordTooLong) {
			return "", invalidInput(err)
		}
		return "", fmt.Errorf("hash password: %w", err)
	}
	return digest, nil
}

func (c credentials) verify(password, digest string) bool {
	return c.hasher.Verify(password, digest)
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}
