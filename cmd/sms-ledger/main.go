package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"sms-ledger/internal/api"
	"sms-ledger/internal/api/handlers"
	"sms-ledger/internal/metrics"
	"sms-ledger/internal/repository"
	"sms-ledger/internal/service"
	"sms-ledger/pkg/auth"
	"sms-ledger/pkg/config"
	"sms-ledger/pkg/logger"
	"sms-ledger/pkg/postgres"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logger.Level); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	appLogger.Info("Starting SMS ledger service")

	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Repositories
	txRepo := repository.NewTransactionRepository(db, appLogger)
	categoryRepo := repository.NewCategoryRepository(db, appLogger)
	walletRepo := repository.NewWalletRepository(db, appLogger)
	settingsRepo := repository.NewSettingsRepository(db, appLogger)

	// Services
	appMetrics := metrics.New(nil)
	llmService := service.NewLLMService(appLogger, appMetrics)
	pipeline := service.NewPipelineService(settingsRepo, walletRepo, categoryRepo, txRepo, llmService, appMetrics, appLogger)

	jwtManager := auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Expiration)

	smsHandler := handlers.NewSMSHandler(pipeline, appLogger)

	app := api.SetupRouter(smsHandler, jwtManager, db, appLogger)

	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	if err := app.Shutdown(); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}
}
