package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/christi903/fraudwatch-service/internal/api/handlers"
	"github.com/christi903/fraudwatch-service/internal/api/middleware"
	"github.com/christi903/fraudwatch-service/internal/infrastructure/config"
	"github.com/christi903/fraudwatch-service/pkg/logger"
)

// Handlers bundles the constructed handler set for route registration.
type Handlers struct {
	Auth         *handlers.AuthHandler
	Users        *handlers.UserHandler
	Transactions *handlers.TransactionHandler
	Health       *handlers.HealthHandler
}

// SetupRoutes configures all application routes
func SetupRoutes(cfg *config.Config, log *logger.Logger, h Handlers) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Global middleware - order matters for security
	router.Use(middleware.RequestID())
	router.Use(middleware.Metrics())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	router.Use(middleware.RateLimit(cfg.Server.RateLimitRequests,
		time.Duration(cfg.Server.RateLimitWindowMin)*time.Minute))
	router.Use(middleware.SecurityHeaders())

	// Health checks (no auth required)
	router.GET("/health", h.Health.Health)
	router.GET("/ready", h.Health.Ready)
	router.GET("/live", h.Health.Live)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")

	// Auth proxy: verify-email and reset-password are reachable without a
	// bearer token, the rest require one.
	auth := api.Group("/auth")
	{
		auth.GET("/verify-email", h.Auth.VerifyEmail)
		auth.POST("/reset-password", h.Auth.ResetPassword)

		authenticated := auth.Group("")
		authenticated.Use(middleware.Authentication(cfg, log))
		{
			authenticated.POST("/register", h.Auth.Register)
			authenticated.DELETE("/delete-account", h.Auth.DeleteAccount)
		}
	}

	users := api.Group("/users")
	users.Use(middleware.Authentication(cfg, log))
	{
		users.GET("/:uid", h.Users.GetUser)
		users.PUT("/:uid", h.Users.UpdateUser)
		users.DELETE("/:uid", h.Users.DeleteUser)
	}

	transactions := api.Group("/transactions")
	transactions.Use(middleware.Authentication(cfg, log))
	{
		transactions.GET("", h.Transactions.ListTransactions)
		transactions.GET("/stream", h.Transactions.StreamChanges)
		transactions.DELETE("/session", h.Transactions.EndSession)
		transactions.GET("/export/csv", h.Transactions.ExportCSV)
		transactions.GET("/export/xlsx", h.Transactions.ExportXLSX)
		transactions.GET("/:id", h.Transactions.GetTransaction)
		transactions.PUT("/:id/edit", h.Transactions.StageEdit)
		transactions.DELETE("/:id/edit", h.Transactions.DiscardEdit)
		transactions.POST("/:id/review", h.Transactions.SaveReview)
		transactions.GET("/:id/reviews", h.Transactions.ListReviews)
	}

	statsGroup := api.Group("/stats")
	statsGroup.Use(middleware.Authentication(cfg, log))
	{
		statsGroup.GET("/dashboard", h.Transactions.GetStats)
	}

	return router
}
