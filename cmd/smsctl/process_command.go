package main

import (
	"context"
	"fmt"

	"sms-ledger/internal/dto"
	"sms-ledger/internal/repository"
	"sms-ledger/internal/service"
	"sms-ledger/pkg/config"
	"sms-ledger/pkg/logger"
	"sms-ledger/pkg/postgres"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

// processCommand runs a single SMS through the pipeline with a
// freshly opened database handle. This is the background/cold-start
// entry point: no server required, one message in, one outcome out.
func processCommand() *cli.Command {
	return &cli.Command{
		Name:  "process",
		Usage: "Classify and persist one SMS message",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "sender",
				Usage:    "SMS sender id (address)",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "body",
				Usage:    "SMS body text",
				Required: true,
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if err := logger.Init(cfg.Logger.Level); err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			defer logger.Sync()
			appLogger := logger.Get()

			ctx := context.Background()
			db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer db.Close()

			txRepo := repository.NewTransactionRepository(db, appLogger)
			categoryRepo := repository.NewCategoryRepository(db, appLogger)
			walletRepo := repository.NewWalletRepository(db, appLogger)
			settingsRepo := repository.NewSettingsRepository(db, appLogger)

			llmService := service.NewLLMService(appLogger, nil)
			pipeline := service.NewPipelineService(settingsRepo, walletRepo, categoryRepo, txRepo, llmService, nil, appLogger)

			outcome, err := pipeline.Process(ctx, dto.SMSRequest{
				Sender: c.String("sender"),
				Body:   c.String("body"),
			})
			if err != nil {
				appLogger.Error("Pipeline failure", zap.Error(err))
			}

			fmt.Printf("status: %s\n", outcome.Status)
			if outcome.Reason != "" {
				fmt.Printf("reason: %s\n", outcome.Reason)
			}
			if outcome.Status == service.StatusPersisted {
				fmt.Printf("transaction: %s\n", outcome.TransactionID)
			}
			return nil
		},
	}
}
