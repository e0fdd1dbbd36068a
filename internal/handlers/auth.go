package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cemlevent54/FileMate/internal/middleware"
	"github.com/cemlevent54/FileMate/internal/service"
)

var errMissingBearer = errors.New("authorization header must carry a bearer token")

// Outside the gate a token of the wrong class is just an invalid token.
var wrongClassIsInvalid = errorMapping{
	target: service.ErrWrongTokenType,
	public: service.ErrInvalidToken,
	status: http.StatusUnauthorized,
	code:   "invalid_token",
}

type registerRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name"`
}

type sessionResponse struct {
	User              userResponse `json:"user"`
	AccessToken       string       `json:"accessToken"`
	RefreshToken      string       `json:"refreshToken"`
	ExpireDate        time.Time    `json:"expireDate"`
	RefreshExpireDate time.Time    `json:"refreshExpireDate"`
}

func toSessionResponse(session service.Session) sessionResponse {
	return sessionResponse{
		User:              toUserResponse(session.User),
		AccessToken:       session.AccessToken,
		RefreshToken:      session.RefreshToken,
		ExpireDate:        session.AccessExpiresAt,
		RefreshExpireDate: session.RefreshExpiresAt,
	}
}

func (h HandlerSet) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid_input", err)
		return
	}

	session, err := h.auth.Register(c.Request.Context(), service.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, toSessionResponse(session))
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid_input", err)
		return
	}

	session, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		// Unknown email and wrong password look the same to the caller.
		h.fail(c, err,
			errorMapping{
				target: service.ErrUserNotFound,
				public: service.ErrInvalidCredentials,
				status: http.StatusUnauthorized,
				code:   "invalid_credentials",
			},
			override(service.ErrAccountInactive, http.StatusUnauthorized, "user_inactive"),
		)
		return
	}

	c.JSON(http.StatusOK, toSessionResponse(session))
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type refreshResponse struct {
	AccessToken       string     `json:"accessToken"`
	ExpireDate        time.Time  `json:"expireDate"`
	RefreshToken      string     `json:"refreshToken,omitempty"`
	RefreshExpireDate *time.Time `json:"refreshExpireDate,omitempty"`
}

func (h HandlerSet) RefreshToken(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid_input", err)
		return
	}

	refreshed, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.fail(c, err, wrongClassIsInvalid)
		return
	}

	resp := refreshResponse{
		AccessToken: refreshed.AccessToken,
		ExpireDate:  refreshed.AccessExpiresAt,
	}
	if refreshed.RefreshToken != "" {
		resp.RefreshToken = refreshed.RefreshToken
		resp.RefreshExpireDate = &refreshed.RefreshExpiresAt
	}
	c.JSON(http.StatusOK, resp)
}

type logoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Logout is not behind the gate: expired tokens can still be revoked.
func (h HandlerSet) Logout(c *gin.Context) {
	token, ok := middleware.BearerToken(c)
	if !ok {
		badRequest(c, "missing_token", errMissingBearer)
		return
	}

	var req logoutRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid_input", err)
			return
		}
	}

	logoutFailure := override(service.ErrInvalidToken, http.StatusBadRequest, "invalid_token")
	if err := h.auth.Logout(c.Request.Context(), token); err != nil {
		h.fail(c, err, logoutFailure)
		return
	}
	if req.RefreshToken != "" {
		if err := h.auth.Logout(c.Request.Context(), req.RefreshToken); err != nil {
			h.fail(c, err, logoutFailure)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

func (h HandlerSet) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid_input", err)
		return
	}

	ticket, err := h.auth.ForgotPassword(c.Request.Context(), req.Email)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "password reset token issued",
		"resetToken": ticket.Token,
		"expireDate": ticket.ExpiresAt,
	})
}

type resetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h HandlerSet) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid_input", err)
		return
	}

	if err := h.auth.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		h.fail(c, err, wrongClassIsInvalid)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}

func (h HandlerSet) Me(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": toUserResponse(identity.User),
	})
}
