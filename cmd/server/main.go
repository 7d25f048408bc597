package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/yukikurage/study-group-api/internal/auth"
	"github.com/yukikurage/study-group-api/internal/cache"
	"github.com/yukikurage/study-group-api/internal/config"
	"github.com/yukikurage/study-group-api/internal/constants"
	"github.com/yukikurage/study-group-api/internal/database"
	"github.com/yukikurage/study-group-api/internal/handlers"
	"github.com/yukikurage/study-group-api/internal/logger"
	"github.com/yukikurage/study-group-api/internal/metrics"
	"github.com/yukikurage/study-group-api/internal/middleware"
	"github.com/yukikurage/study-group-api/internal/repository"
	"github.com/yukikurage/study-group-api/internal/router"
	"github.com/yukikurage/study-group-api/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()
	logger.SetupDefault(os.Stdout, cfg.LogLevel)

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		slog.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Run migrations
	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	sqlDB, err := db.DB()
	if err != nil {
		slog.Error("failed to access database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer sqlDB.Close()

	// Redis is optional; without it logout cannot revoke tokens early.
	redisClient := cache.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if redisClient == nil {
		slog.Warn("REDIS_ADDR not set, token revocation disabled")
	} else {
		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := redisClient.Ping(pingCtx); err != nil {
			slog.Warn("redis unreachable, continuing without revocation", slog.String("error", err.Error()))
		}
		cancel()
		defer redisClient.Close()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)

	// Initialize services
	userRepo := repository.NewUserRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	tokenService := auth.NewTokenService(cfg.JWTSecret, constants.DefaultTokenTTL)
	authService := services.NewAuthService(userRepo, tokenService, auth.NewTokenStore(redisClient))
	groupService := services.NewGroupService(groupRepo)
	taskService := services.NewTaskService(taskRepo, groupRepo)

	authLimiter := middleware.NewRateLimiter(middleware.PerMinute(cfg.AuthRatePerMinute, cfg.AuthRateBurst), collector)
	defer authLimiter.Stop()

	r := router.New(router.Dependencies{
		FrontendOrigin: cfg.FrontendOrigin,
		TrustedProxies: cfg.TrustedProxies,
		AuthHandler:    handlers.NewAuthHandler(authService),
		GroupHandler:   handlers.NewGroupHandler(groupService),
		TaskHandler:    handlers.NewTaskHandler(taskService),
		Authenticator:  middleware.NewAuthenticator(authService, collector),
		AuthLimiter:    authLimiter,
		Metrics:        collector,
		Gatherer:       registry,
		HealthCheck:    sqlDB.PingContext,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("server shutdown failed", slog.String("error", err.Error()))
	}
}
