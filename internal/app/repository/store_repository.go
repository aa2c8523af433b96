package repository

import (
	"context"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"gorm.io/gorm"
)

type StoreRepository interface {
	FindByID(ctx context.Context, id string) (*model.Store, error)
	Create(ctx context.Context, store *model.Store) error
}

type storeRepository struct {
	db *gorm.DB
}

func NewStoreRepository(db *gorm.DB) StoreRepository {
	return &storeRepository{db: db}
}

func (r *storeRepository) FindByID(ctx context.Context, id string) (*model.Store, error) {
	logger.Debug("Finding store by ID in database", map[string]interface{}{
		"store_id": id,
	})

	var store model.Store
	if err := r.db.WithContext(ctx).First(&store, "id = ?", id).Error; err != nil {
		logger.Error("Failed to find store by ID in database", err, map[string]interface{}{
			"store_id": id,
		})
		return nil, err
	}
	return &store, nil
}

func (r *storeRepository) Create(ctx context.Context, store *model.Store) error {
	if err := r.db.WithContext(ctx).Create(store).Error; err != nil {
		logger.Error("Failed to create store in database", err, map[string]interface{}{
			"store_id": store.ID,
		})
		return err
	}
	return nil
}
