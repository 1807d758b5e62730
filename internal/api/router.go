package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sentinela/identity-service/internal/api/handler"
	"github.com/sentinela/identity-service/internal/api/middleware"
	"github.com/sentinela/identity-service/internal/core/domain"
	"github.com/sentinela/identity-service/internal/core/ports"
	"github.com/sentinela/identity-service/internal/infrastructure/http/handlers"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(
	identity ports.IdentityService,
	db *mongo.Database,
	rdb *redis.Client,
	jwtSecret string,
	log zerolog.Logger,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("sentinela_identity_http"))

	// --- Dependencies ---
	identityHandler := handler.NewIdentityHandler(identity)
	adminHandler := handler.NewAdminHandler(identity)
	authMiddleware := middleware.Auth(jwtSecret)

	// --- Auth routes ---
	e.POST("/auth/register", identityHandler.Register)
	e.POST("/auth/login", identityHandler.Login)
	e.POST("/auth/logout", identityHandler.Logout)
	e.GET("/auth/me", identityHandler.Me, authMiddleware)
	e.POST("/auth/password/forgot", identityHandler.ForgotPassword)
	e.POST("/auth/password/reset", identityHandler.ResetPassword)

	// --- Adjudication routes (capability-guarded) ---
	admin := e.Group("/admin", authMiddleware, middleware.RequireCapability(domain.CapUserApprove))
	admin.GET("/accounts/pending", adminHandler.ListPending)
	admin.PUT("/accounts/:email/approval", adminHandler.Adjudicate)

	// --- Observability (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoswagger.WrapHandler)

	return e
}
