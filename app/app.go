package app

import (
	"context"
	"lms-auth-api/config"
	"lms-auth-api/db"
	"lms-auth-api/handler"
	"lms-auth-api/logger"
	"lms-auth-api/repository"
	"lms-auth-api/router"
	"lms-auth-api/service"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func Run() {
	config.LoadConfig(".")
	logger.Init()
	logger.Log.Info("Logger initialized")
	logger.Log.Info("Configuration loaded successfully")

	database, err := db.Connect()
	if err != nil {
		logger.Log.Fatalf("Error connecting to the database: %v", err)
	}
	defer database.Close()

	redisClient, err := db.ConnectRedis()
	if err != nil {
		logger.Log.Fatalf("Error connecting to redis: %v", err)
	}
	defer redisClient.Close()

	cfg := config.AppConfig

	// A short signing key is a deployment mistake; refuse to start.
	tokenService, err := service.NewTokenService(
		cfg.JWT.SecretKey, cfg.JWT.Issuer, cfg.JWT.Audience, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	if err != nil {
		logger.Log.Fatalf("Invalid JWT configuration: %v", err)
	}

	sessionRepo := repository.NewSessionRepository(database)
	identityGateway := service.NewHTTPIdentityGateway(cfg.UserService.BaseURL, cfg.UserService.Timeout)
	reuseMonitor := service.NewRedisReuseMonitor(redisClient, cfg.Auth.ReuseAlertWindow)

	authService := service.NewAuthService(sessionRepo, tokenService, identityGateway, reuseMonitor, cfg.Auth.ReuseAlertThreshold)
	authHandler := handler.NewAuthHandler(authService)

	var proxy http.Handler
	if cfg.Downstream.BaseURL != "" {
		proxy, err = handler.NewDownstreamProxy(cfg.Downstream.BaseURL)
		if err != nil {
			logger.Log.Fatalf("Invalid downstream configuration: %v", err)
		}
	}

	r := router.NewRouter(authHandler, tokenService, proxy, cfg.Auth.Mode)

	port := cfg.Server.Port
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		logger.Log.Infof("Server starting on port :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Warn("Shutdown signal received. Starting graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Log.Info("Server exited properly")
}
