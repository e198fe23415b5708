package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/gadgetghar/account-service/internal/api/handler"
	"github.com/gadgetghar/account-service/internal/api/middleware"
	"github.com/gadgetghar/account-service/internal/core/ports"
	"github.com/gadgetghar/account-service/internal/pkg/token"
)

// Deps carries everything the HTTP layer needs. The service and issuers are
// built in main so the router stays free of infrastructure wiring.
type Deps struct {
	Auth          ports.AuthService
	Sessions      *token.Issuer
	DB            *mongo.Database
	Redis         *redis.Client
	SecureCookies bool
	Logger        zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("gadgetghar"))

	authHandler := handler.NewAuthHandler(d.Auth, d.SecureCookies)
	requireAuth := middleware.Auth(d.Sessions)

	// --- Account routes ---
	auth := e.Group("/auth")
	auth.POST("/signup", authHandler.Signup)
	auth.GET("/verify-email", authHandler.VerifyEmail)
	auth.POST("/resend-verification", authHandler.ResendVerification)
	auth.POST("/login", authHandler.Login)
	auth.POST("/logout", authHandler.Logout)
	auth.POST("/forgot-password", authHandler.ForgotPassword)
	auth.POST("/reset-password", authHandler.ResetPassword)
	auth.GET("/me", authHandler.Me)

	// --- Back-office routes ---
	admin := e.Group("/admin")
	admin.POST("/login", authHandler.AdminLogin)
	admin.POST("/signup", authHandler.AdminSignup, requireAuth, middleware.RBAC("admin"))

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(d.DB, d.Redis)

	e.GET("/health", healthHandler.Liveness)           // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
