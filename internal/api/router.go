package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/identitykit/identity-core/internal/api/handler"
	"github.com/identitykit/identity-core/internal/api/middleware"
	"github.com/identitykit/identity-core/internal/core/domain"
	"github.com/identitykit/identity-core/internal/core/ports"
	"github.com/identitykit/identity-core/pkg/logger"
)

// Dependencies carries everything the router needs, already constructed.
// Wiring order and lifecycle (connections, dispatcher start, index creation)
// stay in main; the router only registers routes.
type Dependencies struct {
	AuthService  ports.AuthService
	TokenService ports.TokenService
	UserService  ports.UserService
	Users        ports.UserRepository
	Mongo        *mongo.Database
	Redis        *redis.Client
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(logger.Get())

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("identity"))

	e.GET("/metrics", echoprometheus.NewHandler())

	authHandler := handler.NewAuthHandler(deps.AuthService, deps.TokenService, deps.Users)
	userHandler := handler.NewUserHandler(deps.UserService, deps.Users)
	requireAuth := middleware.Auth(deps.TokenService)

	// --- Auth routes ---
	auth := e.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/password/forgot", authHandler.ForgotPassword)
	auth.POST("/password/reset", authHandler.ResetPassword)
	auth.POST("/verify-email", authHandler.VerifyEmail)

	authed := e.Group("/auth", requireAuth)
	authed.POST("/logout", authHandler.Logout)
	authed.POST("/logout-all", authHandler.LogoutAll)
	authed.GET("/sessions", authHandler.Sessions)
	authed.DELETE("/sessions/:id", authHandler.RevokeSession)
	authed.POST("/password/change", authHandler.ChangePassword)
	authed.POST("/verify-email/request", authHandler.RequestEmailVerification)

	// --- User management routes ---
	users := e.Group("/v1/users", requireAuth)
	users.GET("/:id", userHandler.Get)
	users.PUT("/:id/profile", userHandler.UpdateProfile)

	admin := e.Group("/v1/users", requireAuth, middleware.RequireRole(domain.RoleAdmin))
	admin.GET("", userHandler.List)
	admin.POST("", userHandler.Create)
	admin.PUT("/:id/status", userHandler.SetStatus)
	admin.POST("/:id/roles", userHandler.AssignRole)
	admin.DELETE("/:id/roles/:role", userHandler.RevokeRole)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.Mongo, deps.Redis)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	return e
}
