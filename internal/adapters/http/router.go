package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/Louis-hue-lang/OrientaVision/config"
	"github.com/Louis-hue-lang/OrientaVision/internal/adapters/http/handlers"
	"github.com/Louis-hue-lang/OrientaVision/internal/adapters/http/middleware"
)

type Router struct {
	cfg         *config.Config
	auth        *handlers.AuthHandler
	admin       *handlers.AdminHandler
	guard       *middleware.AuthMiddleware
	apiLimiter  *middleware.RateLimiter
	authLimiter *middleware.RateLimiter
}

func NewRouter(cfg *config.Config, auth *handlers.AuthHandler, admin *handlers.AdminHandler, guard *middleware.AuthMiddleware) *Router {
	return &Router{
		cfg:         cfg,
		auth:        auth,
		admin:       admin,
		guard:       guard,
		apiLimiter:  middleware.NewRateLimiter(cfg.APIRateLimitRPM),
		authLimiter: middleware.NewRateLimiter(cfg.AuthRateLimitRPM),
	}
}

func (r *Router) Setup(e *echo.Echo) {
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.Logger())

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	api := e.Group(r.cfg.HTTPBasePath, r.apiLimiter.Handler())

	// auth endpoints sit behind the tighter limiter on top of the API one
	auth := api.Group("/auth", r.authLimiter.Handler())
	auth.POST("/register", r.auth.Register)
	auth.POST("/login", r.auth.Login)
	auth.POST("/refresh", r.auth.Refresh)
	auth.POST("/logout", r.auth.Logout)
	auth.POST("/forgot-password", r.auth.ForgotPassword)
	auth.POST("/reset-password", r.auth.ResetPassword)
	auth.POST("/update-email", r.auth.UpdateEmail, r.guard.Authenticate)

	admin := api.Group("/admin", r.guard.Authenticate)
	admin.GET("/users", r.admin.ListUsers, r.guard.RequireElevated)
	admin.DELETE("/users/:username", r.admin.DeleteUser, r.guard.RequireElevated)
	admin.PUT("/users/:username/role", r.admin.UpdateRole, r.guard.RequireElevated)
	admin.POST("/invite", r.admin.CreateInvite, r.guard.RequireInviteCapable)
	admin.GET("/invites", r.admin.ListInvites, r.guard.RequireInviteCapable)
	admin.DELETE("/invites/:code", r.admin.RevokeInvite, r.guard.RequireInviteCapable)
}
