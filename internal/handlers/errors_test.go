package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cemlevent54/FileMate/internal/service"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	session := func(cause error) error { return fmt.Errorf("%w: %w", service.ErrInvalidSession, cause) }

	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"duplicate", service.ErrDuplicateEmail, http.StatusConflict, "email_taken"},
		{"weak", fmt.Errorf("%w: minimum is 6 characters", service.ErrWeakPassword), http.StatusBadRequest, "weak_password"},
		{"invalid role", fmt.Errorf("%w: %w", service.ErrInvalidInput, service.ErrInvalidRole), http.StatusBadRequest, "invalid_role"},
		{"invalid input", fmt.Errorf("%w: email: must be a valid email address", service.ErrInvalidInput), http.StatusBadRequest, "invalid_input"},
		{"not found", service.ErrUserNotFound, http.StatusNotFound, "user_not_found"},
		{"session user gone", session(service.ErrUserNotFound), http.StatusUnauthorized, "invalid_session"},
		{"expired", session(service.ErrExpiredToken), http.StatusUnauthorized, "token_expired"},
		{"forged", session(service.ErrInvalidToken), http.StatusUnauthorized, "invalid_token"},
		{"wrong type", session(service.ErrWrongTokenType), http.StatusForbidden, "wrong_token_type"},
		{"inactive", session(service.ErrAccountInactive), http.StatusForbidden, "user_inactive"},
		{"revocation", fmt.Errorf("%w: %w", service.ErrRevocationFailure, errors.New("down")), http.StatusInternalServerError, "revocation_unavailable"},
		{"role seed", service.ErrRoleConfiguration, http.StatusInternalServerError, "role_configuration"},
		{"self", service.ErrSelfModification, http.StatusForbidden, "self_modification"},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError, "internal_server_error"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			status, code, _ := classify(tc.err, nil)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.code, code)
		})
	}
}

func TestClassify_OverridesWin(t *testing.T) {
	t.Parallel()

	status, code, message := classify(service.ErrUserNotFound, []errorMapping{
		override(service.ErrUserNotFound, http.StatusUnauthorized, "invalid_credentials"),
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "invalid_credentials", code)
	assert.Equal(t, service.ErrUserNotFound.Error(), message)

	_, _, message = classify(service.ErrUserNotFound, []errorMapping{
		{target: service.ErrUserNotFound, public: service.ErrInvalidCredentials, status: http.StatusUnauthorized, code: "invalid_credentials"},
	})
	assert.Equal(t, service.ErrInvalidCredentials.Error(), message)
}

func TestClassify_HidesInternalDetail(t *testing.T) {
	t.Parallel()

	_, _, message := classify(errors.New("pq: connection refused on 10.0.0.3"), nil)
	assert.Equal(t, "internal server error", message)

	_, _, message = classify(fmt.Errorf("%w: minimum is 6 characters", service.ErrWeakPassword), nil)
	assert.Contains(t, message, "minimum is 6")
}
