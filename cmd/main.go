package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/christi903/fraudwatch-service/internal/api/handlers"
	"github.com/christi903/fraudwatch-service/internal/api/routes"
	"github.com/christi903/fraudwatch-service/internal/domain/services/identity"
	"github.com/christi903/fraudwatch-service/internal/domain/services/records"
	"github.com/christi903/fraudwatch-service/internal/domain/services/review"
	"github.com/christi903/fraudwatch-service/internal/domain/services/stats"
	"github.com/christi903/fraudwatch-service/internal/infrastructure/adapters"
	"github.com/christi903/fraudwatch-service/internal/infrastructure/cache"
	"github.com/christi903/fraudwatch-service/internal/infrastructure/config"
	"github.com/christi903/fraudwatch-service/internal/infrastructure/database"
	"github.com/christi903/fraudwatch-service/internal/infrastructure/notify"
	"github.com/christi903/fraudwatch-service/internal/infrastructure/repositories"
	"github.com/christi903/fraudwatch-service/internal/workers"
	"github.com/christi903/fraudwatch-service/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Initialize logger
	log := logger.New(cfg.LogLevel, cfg.Environment)

	// Initialize database
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", "error", err)
	}
	defer db.Close()

	// Run migrations
	if err := database.RunMigrations(cfg.Database.URL, cfg.Database.MigrationsPath); err != nil {
		log.Fatal("Failed to run migrations", "error", err)
	}

	// Initialize Redis for change notifications and the stats cache
	redisClient, err := notify.NewRedisClient(cfg.Redis)
	if err != nil {
		log.Fatal("Failed to connect to Redis", "error", err)
	}
	defer redisClient.Close()

	notifier := notify.NewNotifier(redisClient, log.Zap())
	statsCache := cache.New(redisClient, log.Zap(),
		time.Duration(cfg.Stats.CacheTTLMinutes)*time.Minute)

	// Repositories
	transactionRepo := repositories.NewTransactionRepository(db, log.Zap())
	reviewRepo := repositories.NewReviewRepository(db, log.Zap())
	userRepo := repositories.NewUserRepository(db, log.Zap())
	statsRepo := repositories.NewStatsRepository(db, log.Zap())

	// Services
	identityResolver := identity.NewResolver(userRepo, log.Zap())
	statsService := stats.NewService(statsRepo, statsCache, log.Zap(),
		time.Duration(cfg.Stats.CacheTTLMinutes)*time.Minute)

	// One view-model (and with it one edit buffer) per reviewer session.
	sessions := records.NewRegistry(context.Background(), transactionRepo, notifier,
		func() *review.Service {
			return review.NewService(transactionRepo, reviewRepo, identityResolver, notifier, log.Zap())
		}, log.Zap(), 25)

	emailService := adapters.NewEmailService(log.Zap(), adapters.EmailServiceConfig{
		APIKey:      cfg.Email.APIKey,
		FromEmail:   cfg.Email.FromEmail,
		FromName:    cfg.Email.FromName,
		Environment: cfg.Environment,
		BaseURL:     cfg.Email.BaseURL,
	})

	// Handlers
	router := routes.SetupRoutes(cfg, log, routes.Handlers{
		Auth:         handlers.NewAuthHandler(userRepo, emailService, cfg, log),
		Users:        handlers.NewUserHandler(userRepo, log),
		Transactions: handlers.NewTransactionHandler(transactionRepo, reviewRepo, sessions, statsService, log),
		Health:       handlers.NewHealthHandler(db, redisClient, log),
	})

	// Start the nightly stats refresher
	refresher := workers.NewStatsRefresher(statsService, log.Zap(), cfg.Stats.RefreshSchedule)
	if err := refresher.Start(); err != nil {
		log.Fatal("Failed to start stats refresher", "error", err)
	}

	// Create server
	server := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.Server.WriteTimeout) * time.Second,
		MaxHeaderBytes: 1 << 20, // 1MB
	}

	// Start server in goroutine
	go func() {
		log.Info("Starting server", "port", cfg.Server.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", "error", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	refresher.Stop()
	sessions.CloseAll()

	// Give outstanding requests 30 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", "error", err)
	}

	log.Info("Server exited")
}
