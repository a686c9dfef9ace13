package api

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ratewise/feedback-system/internal/api/handler"
	"github.com/ratewise/feedback-system/internal/core/service"
	"github.com/ratewise/feedback-system/internal/infrastructure/auth"
	mongorepo "github.com/ratewise/feedback-system/internal/infrastructure/db/mongo"
	redisrepo "github.com/ratewise/feedback-system/internal/infrastructure/db/redis"
	"github.com/ratewise/feedback-system/internal/infrastructure/http/handlers"
)

// Options carries the collaborators the router needs.
type Options struct {
	Mongo     *mongo.Database
	Redis     *redis.Client
	JWTSecret string
	TokenTTL  time.Duration
	Logger    zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(opts.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("feedback"))

	// --- Dependencies ---
	hasher := auth.NewBcryptHasher(0)
	tokens := auth.NewJWTManager(opts.JWTSecret, opts.TokenTTL)

	userRepo := mongorepo.NewUserRepository(opts.Mongo)
	feedbackRepo := mongorepo.NewFeedbackRepository(opts.Mongo)
	statsCache := redisrepo.NewAggregateCache(opts.Redis)

	authService := service.NewAuthService(userRepo, hasher, tokens, opts.Logger)
	identityService := service.NewIdentityService(tokens, opts.Logger)
	feedbackService := service.NewFeedbackService(feedbackRepo, userRepo, statsCache, opts.Logger)

	authHandler := handler.NewAuthHandler(authService)
	feedbackHandler := handler.NewFeedbackHandler(feedbackService, identityService)

	// --- Auth and user routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)
	e.GET("/users", authHandler.ListUsers)
	e.DELETE("/users/:id", authHandler.DeleteUser)

	// --- Feedback routes ---
	e.POST("/feedback", feedbackHandler.Submit)
	e.GET("/feedback", feedbackHandler.ListAll)
	e.GET("/feedback/:resourceId", feedbackHandler.Query)
	e.DELETE("/feedback/:resourceId", feedbackHandler.Delete)

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(opts.Mongo, opts.Redis)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
