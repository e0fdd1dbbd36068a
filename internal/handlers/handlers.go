package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/cemlevent54/FileMate/internal/config"
	"github.com/cemlevent54/FileMate/internal/middleware"
	"github.com/cemlevent54/FileMate/internal/models"
	"github.com/cemlevent54/FileMate/internal/service"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Services struct {
	Auth     *service.AuthService
	Accounts *service.AccountService
	Admin    *service.AdminService
}

type HandlerSet struct {
	log      zerolog.Logger
	cfg      *config.AppConfig
	db       Pinger
	cache    *redis.Client
	gatherer prometheus.Gatherer
	auth     *service.AuthService
	accounts *service.AccountService
	admin    *service.AdminService
}

// NewHandlerSet accepts a nil cache and a nil gatherer; the health check and
// the metrics route adapt.
func NewHandlerSet(log zerolog.Logger, cfg *config.AppConfig, db Pinger, cache *redis.Client, gatherer prometheus.Gatherer, svc Services) HandlerSet {
	return HandlerSet{
		log:      log.With().Str("component", "http").Logger(),
		cfg:      cfg,
		db:       db,
		cache:    cache,
		gatherer: gatherer,
		auth:     svc.Auth,
		accounts: svc.Accounts,
		admin:    svc.Admin,
	}
}

func (h HandlerSet) Routes(router *gin.RouterGroup) {
	router.GET("/", h.Index)
	router.GET("/healthz", h.Health)
	if h.gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))
	}

	requireAuth := middleware.Auth(h.auth)

	v1 := router.Group("/v1")
	{
		auth := v1.Group("/auth")
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/refresh-token", h.RefreshToken)
		auth.POST("/logout", h.Logout)
		auth.POST("/forgot-password", h.ForgotPassword)
		auth.POST("/reset-password", h.ResetPassword)
		auth.GET("/me", requireAuth, h.Me)

		users := v1.Group("/users")
		users.Use(requireAuth)
		users.GET("/me", h.Me)
		users.PUT("/update-password", h.UpdatePassword)
		users.PUT("/update-info", h.UpdateInfo)
		users.DELETE("/delete-account", h.DeleteAccount)

		admin := v1.Group("/admin")
		admin.Use(
			requireAuth,
			middleware.RequireRoles(models.UserRoleAdmin),
		)
		admin.GET("/users", h.AdminListUsers)
		admin.GET("/users/:id", h.AdminGetUser)
		admin.PUT("/users/:id", h.AdminUpdateUser)
		admin.DELETE("/users/:id", h.AdminDeleteUser)
		admin.POST("/users/:id/activate", h.AdminActivateUser)
		admin.POST("/users/:id/block", h.AdminBlockUser)
	}
}

func (h HandlerSet) Index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "FileMate API"})
}

type userResponse struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	IsActive  bool      `json:"isActive"`
	RoleID    uint      `json:"roleId"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toUserResponse(user models.User) userResponse {
	return userResponse{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		IsActive:  user.IsActive,
		RoleID:    user.RoleID,
		Role:      string(user.UserRole()),
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

func currentIdentity(c *gin.Context) (service.Identity, bool) {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	}
	return identity, ok
}
