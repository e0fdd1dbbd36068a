package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cemlevent54/FileMate/internal/service"
)

type errorMapping struct {
	target error
	status int
	code   string
	// public replaces the target's message when set.
	public error
	// detail exposes err.Error() instead of the target's message.
	detail bool
}

// Order matters: wrapped session errors also match their cause.
var errorTable = []errorMapping{
	{target: service.ErrRevocationFailure, status: http.StatusInternalServerError, code: "revocation_unavailable"},
	{target: service.ErrRoleConfiguration, status: http.StatusInternalServerError, code: "role_configuration"},
	{target: service.ErrWrongTokenType, status: http.StatusForbidden, code: "wrong_token_type"},
	{target: service.ErrAccountInactive, status: http.StatusForbidden, code: "user_inactive"},
	{target: service.ErrExpiredToken, status: http.StatusUnauthorized, code: "token_expired"},
	{target: service.ErrRevokedToken, status: http.StatusUnauthorized, code: "token_revoked"},
	{target: service.ErrInvalidToken, status: http.StatusUnauthorized, code: "invalid_token"},
	{target: service.ErrInvalidSession, status: http.StatusUnauthorized, code: "invalid_session"},
	{target: service.ErrInvalidCredentials, status: http.StatusUnauthorized, code: "invalid_credentials"},
	{target: service.ErrUserNotFound, status: http.StatusNotFound, code: "user_not_found"},
	{target: service.ErrDuplicateEmail, status: http.StatusConflict, code: "email_taken"},
	{target: service.ErrWeakPassword, status: http.StatusBadRequest, code: "weak_password", detail: true},
	{target: service.ErrInvalidRole, status: http.StatusBadRequest, code: "invalid_role", detail: true},
	{target: service.ErrInvalidInput, status: http.StatusBadRequest, code: "invalid_input", detail: true},
	{target: service.ErrSelfModification, status: http.StatusForbidden, code: "self_modification"},
}

func override(target error, status int, code string) errorMapping {
	return errorMapping{target: target, status: status, code: code}
}

func classify(err error, overrides []errorMapping) (int, string, string) {
	for _, table := range [][]errorMapping{overrides, errorTable} {
		for _, m := range table {
			if !errors.Is(err, m.target) {
				continue
			}
			message := m.target.Error()
			if m.public != nil {
				message = m.public.Error()
			}
			if m.detail {
				message = err.Error()
			}
			return m.status, m.code, message
		}
	}
	return http.StatusInternalServerError, "internal_server_error", "internal server error"
}

func (h HandlerSet) fail(c *gin.Context, err error, overrides ...errorMapping) {
	status, code, message := classify(err, overrides)
	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	}
	c.AbortWithStatusJSON(status, gin.H{"error": code, "message": message})
}

func badRequest(c *gin.Context, code string, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": code, "message": err.Error()})
}
