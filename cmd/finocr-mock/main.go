package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"finocr/internal/mockapi"
	"finocr/internal/repository"
	"finocr/pkg/auth"
	"finocr/pkg/config"
	"finocr/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	if err := logger.Init(cfg.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	appLogger.Info("Starting finocr mock backend")

	// Initialize in-memory repositories
	userRepo := repository.NewUserRepository(appLogger)
	docRepo := repository.NewDocumentRepository(appLogger)

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Expiration)

	// Initialize backend and seed data
	backend := mockapi.NewBackend(userRepo, docRepo, jwtManager, appLogger)
	if err := backend.Seed(context.Background()); err != nil {
		appLogger.Error("Failed to seed mock backend", zap.Error(err))
		os.Exit(1)
	}

	// Setup router
	app := mockapi.SetupRouter(backend, jwtManager, appLogger, mockapi.RouterOptions{
		AccessLog: true,
		BodyLimit: int(cfg.Upload.MaxFileSize) * 8,
	})

	// Start server
	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Mock.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		errCh <- app.Listen(addr)
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-errCh:
		if err != nil {
			appLogger.Error("Server failed", zap.Error(err))
			os.Exit(1)
		}
	}

	appLogger.Info("Shutting down server")
	if err := app.Shutdown(); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}
}
