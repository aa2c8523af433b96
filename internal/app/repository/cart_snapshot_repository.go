package repository

import (
	"context"
	"errors"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type cartSnapshotRepository struct {
	db *gorm.DB
}

// NewCartSnapshotRepository persists carts as rows of the cart_snapshots table.
func NewCartSnapshotRepository(db *gorm.DB) CartStorage {
	return &cartSnapshotRepository{db: db}
}

func (r *cartSnapshotRepository) Load(ctx context.Context, key string) ([]model.CartItem, error) {
	var snapshot model.CartSnapshot
	err := r.db.WithContext(ctx).Where("storage_key = ?", key).First(&snapshot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return []model.CartItem{}, nil
	}
	if err != nil {
		logger.Error("Failed to load cart snapshot from database", err, map[string]interface{}{
			"key": key,
		})
		return nil, err
	}
	return decodeCart([]byte(snapshot.Payload))
}

func (r *cartSnapshotRepository) Save(ctx context.Context, key string, items []model.CartItem) error {
	data, err := encodeCart(items)
	if err != nil {
		return err
	}

	snapshot := model.CartSnapshot{StorageKey: key, Payload: string(data)}
	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "storage_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&snapshot).Error
	if err != nil {
		logger.Error("Failed to save cart snapshot to database", err, map[string]interface{}{
			"key":   key,
			"lines": len(items),
		})
		return err
	}

	logger.Debug("Cart snapshot saved to database", map[string]interface{}{
		"key":   key,
		"lines": len(items),
	})
	return nil
}

func (r *cartSnapshotRepository) Clear(ctx context.Context, key string) error {
	if err := r.db.WithContext(ctx).Where("storage_key = ?", key).Delete(&model.CartSnapshot{}).Error; err != nil {
		logger.Error("Failed to delete cart snapshot from database", err, map[string]interface{}{
			"key": key,
		})
		return err
	}
	return nil
}
