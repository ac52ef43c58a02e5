package main

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"sms-ledger/internal/models"
	"sms-ledger/internal/repository"
	"sms-ledger/pkg/config"
	"sms-ledger/pkg/logger"
	"sms-ledger/pkg/postgres"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var defaultCategories = []string{
	"Food & Drinks",
	"Shopping",
	"Transport",
	"Bills & Fees",
	"Groceries",
	"Entertainment",
	"Health",
	"Transfers",
	"Other",
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Logger.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	appLogger := logger.Get()

	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	categoryRepo := repository.NewCategoryRepository(db, appLogger)
	walletRepo := repository.NewWalletRepository(db, appLogger)
	settingsRepo := repository.NewSettingsRepository(db, appLogger)

	appLogger.Info("Starting database seeding...")

	existing, err := categoryRepo.List(ctx)
	if err != nil {
		appLogger.Fatal("Failed to list categories", zap.Error(err))
	}
	if len(existing) == 0 {
		now := time.Now()
		for _, name := range defaultCategories {
			category := &models.Category{
				ID:        uuid.New(),
				Name:      name,
				CreatedAt: now,
			}
			if err := categoryRepo.Create(ctx, category); err != nil {
				appLogger.Fatal("Failed to seed category", zap.String("name", name), zap.Error(err))
			}
			// Keep list order stable for the first-category fallback.
			now = now.Add(time.Millisecond)
		}
		appLogger.Info("Seeded categories", zap.Int("count", len(defaultCategories)))
	}

	wallet, err := walletRepo.GetDefault(ctx)
	if err != nil {
		appLogger.Fatal("Failed to look up default wallet", zap.Error(err))
	}
	if wallet == nil {
		wallet = &models.Wallet{
			ID:        uuid.New(),
			Name:      "Cash",
			Currency:  "INR",
			IsDefault: true,
			CreatedAt: time.Now(),
		}
		if err := walletRepo.Create(ctx, wallet); err != nil {
			appLogger.Fatal("Failed to seed default wallet", zap.Error(err))
		}
		appLogger.Info("Seeded default wallet", zap.String("id", wallet.ID.String()))
	}

	blob, err := settingsRepo.Get(ctx)
	if err != nil {
		appLogger.Fatal("Failed to read settings", zap.Error(err))
	}
	if len(blob) == 0 {
		initial, _ := json.Marshal(map[string]interface{}{
			"selectedWalletPk": wallet.ID.String(),
		})
		if err := settingsRepo.Put(ctx, initial); err != nil {
			appLogger.Fatal("Failed to seed settings", zap.Error(err))
		}
		appLogger.Info("Seeded initial app settings")
	}

	appLogger.Info("Database seeding completed successfully!")
}
