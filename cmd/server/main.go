package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fasahat78/startege-sub004/internal/cache"
	"github.com/fasahat78/startege-sub004/internal/config"
	"github.com/fasahat78/startege-sub004/internal/cooldown"
	"github.com/fasahat78/startege-sub004/internal/handlers"
	"github.com/fasahat78/startege-sub004/internal/metrics"
	"github.com/fasahat78/startege-sub004/internal/middleware"
	"github.com/fasahat78/startege-sub004/internal/repositories/postgres"
	"github.com/fasahat78/startege-sub004/internal/services"
	"github.com/fasahat78/startege-sub004/internal/utils"
	"github.com/fasahat78/startege-sub004/internal/validator"
	"github.com/fasahat78/startege-sub004/pkg"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

// @title Exam Attempt Service API
// @version 1.0
// @description Timed governance exams with shuffled options, cooldowns and reviews.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := utils.NewLogger(utils.LogOptions{
		Environment: cfg.Environment,
		FilePath:    cfg.LogFile,
	})
	slogLogger := utils.ToSlogLogger(logger)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		logger.LogError(err, "Failed to initialize database")
		os.Exit(1)
	}
	if err := postgres.Migrate(db); err != nil {
		logger.LogError(err, "Failed to migrate database")
		os.Exit(1)
	}

	zapLogger, err := newZapLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize zap: %v", err)
	}
	defer zapLogger.Sync()

	cacheService := cache.NewNoopCache()
	redisClient, err := pkg.NewRedisClient(cfg)
	switch {
	case err != nil:
		logger.Warn("Redis unavailable, running without exam cache", "error", err)
	case redisClient != nil:
		defer redisClient.Close()
		cacheService = cache.NewRedisCache(redisClient, "exam-attempts:", zapLogger)
	}

	publisher, err := cfg.Events.CreateEventPublisher(slogLogger)
	if err != nil {
		logger.LogError(err, "Failed to create event publisher")
		os.Exit(1)
	}
	defer publisher.Close()

	policy, err := cooldown.NewPolicy(cfg.Cooldown.Schedules)
	if err != nil {
		logger.LogError(err, "Invalid cooldown schedules")
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New(registry)

	repo := postgres.NewRepositoryManager(db, cacheService, zapLogger, cfg.CacheTTL)
	serviceManager := services.NewServiceManager(services.ServiceDeps{
		Repo:      repo,
		Publisher: publisher,
		Policy:    policy,
		Metrics:   appMetrics,
		Validator: validator.New(),
		Logger:    slogLogger,
	})

	verifier, err := middleware.NewVerifier(cfg.Auth)
	if err != nil {
		logger.LogError(err, "Failed to create token verifier")
		os.Exit(1)
	}

	router := gin.New()
	handlers.NewHandlerManager(serviceManager, logger, handlers.RouterOptions{
		Verifier:       verifier,
		Metrics:        appMetrics,
		RateLimiter:    middleware.NewRateLimiter(cfg.HTTP.RateLimit, cfg.HTTP.RateLimitWindow),
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		Health:         repo,
	}).SetupRoutes(router)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.ExpirySweepInterval > 0 {
		go runExpirySweeper(ctx, serviceManager.Attempt(), cfg.ExpirySweepInterval, logger)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.Port, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.LogError(err, "Server failed")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.LogError(err, "Server forced to shutdown")
	}

	logger.Info("Server exited")
}

// runExpirySweeper closes timed attempts whose clock ran out while nobody was looking
func runExpirySweeper(ctx context.Context, attempts services.AttemptService, interval time.Duration, logger utils.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := attempts.ExpireOverdue(ctx)
			if err != nil {
				logger.LogError(err, "Expiry sweep failed")
				continue
			}
			if n > 0 {
				logger.Info("Expired overdue attempts", "count", n)
			}
		}
	}
}

func newZapLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
