package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cemlevent54/FileMate/internal/security"
	"github.com/cemlevent54/FileMate/internal/service"
)

const (
	ContextIdentity    = "identity"
	ContextCurrentUser = "current_user"
	ContextAccessToken = "access_token"
)

type Authenticator interface {
	VerifyAccessToken(ctx context.Context, token string) (service.Identity, error)
}

// BearerToken returns the token from an "Authorization: Bearer" header.
func BearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	return token, token != ""
}

func Auth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, ok := BearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing_token"})
			return
		}

		// A refresh token must never pass as a bearer credential.
		if typ, err := security.PeekTokenType(tokenStr); err == nil && typ == security.TokenTypeRefresh {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "refresh_token_not_allowed"})
			return
		}

		identity, err := auth.VerifyAccessToken(c.Request.Context(), tokenStr)
		if err != nil {
			status, code := authFailure(err)
			c.AbortWithStatusJSON(status, gin.H{"error": code})
			return
		}

		c.Set(ContextAccessToken, tokenStr)
		c.Set(ContextIdentity, identity)
		c.Set(ContextCurrentUser, identity.User)

		c.Next()
	}
}

func CurrentIdentity(c *gin.Context) (service.Identity, bool) {
	v, ok := c.Get(ContextIdentity)
	if !ok {
		return service.Identity{}, false
	}
	identity, ok := v.(service.Identity)
	return identity, ok
}

func authFailure(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrRevocationFailure):
		return http.StatusInternalServerError, "revocation_unavailable"
	case errors.Is(err, service.ErrAccountInactive):
		return http.StatusForbidden, "user_inactive"
	case errors.Is(err, service.ErrWrongTokenType):
		return http.StatusForbidden, "wrong_token_type"
	case errors.Is(err, service.ErrExpiredToken):
		return http.StatusUnauthorized, "token_expired"
	case errors.Is(err, service.ErrRevokedToken):
		return http.StatusUnauthorized, "token_revoked"
	case errors.Is(err, service.ErrUserNotFound):
		return http.StatusUnauthorized, "user_not_found"
	case errors.Is(err, service.ErrInvalidSession):
		return http.StatusUnauthorized, "invalid_token"
	default:
		return http.StatusInternalServerError, "internal_server_error"
	}
}
