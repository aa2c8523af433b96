package db

import (
	"errors"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"gorm.io/gorm"
)

// Models lists every table owned by this service.
func Models() []interface{} {
	return []interface{}{
		&model.Store{},
		&model.CartSnapshot{},
	}
}

// Migrate runs database migrations
func Migrate(database *gorm.DB) error {
	logger.Info("Running database migrations...")

	models := Models()
	if err := database.AutoMigrate(models...); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	logger.Info("Database migrations completed successfully", map[string]interface{}{
		"models_count": len(models),
	})
	return nil
}

// DemoStoreID is the store created by Seed for local development.
const DemoStoreID = "demo-store"

// Seed adds a demo store so the storefront has something to check out against.
func Seed(database *gorm.DB) error {
	var existing model.Store
	err := database.First(&existing, "id = ?", DemoStoreID).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	logger.Info("Seeding demo store...")
	return database.Create(&model.Store{
		ID:                     DemoStoreID,
		Name:                   "Demo Store",
		Slug:                   "demo-store",
		Currency:               "MMK",
		CashOnDeliveryEnabled:  true,
		WalletTransferAEnabled: true,
		WalletTransferAAddress: "09-000-000-001",
		WalletTransferBEnabled: false,
	}).Error
}
