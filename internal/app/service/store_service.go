package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrStoreNotFound    = errors.New("store not found")
	ErrStoreUnavailable = errors.New("store information is unavailable")
)

// StoreService is the read-only store and payment-method lookup.
type StoreService interface {
	GetStore(ctx context.Context, id string) (*model.Store, error)
	PaymentOptions(ctx context.Context, id string) ([]model.PaymentOption, error)
}

type storeService struct {
	storeRepo repository.StoreRepository
}

func NewStoreService(storeRepo repository.StoreRepository) StoreService {
	return &storeService{storeRepo: storeRepo}
}

func (s *storeService) GetStore(ctx context.Context, id string) (*model.Store, error) {
	if id == "" {
		return nil, ErrStoreNotFound
	}

	store, err := s.storeRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Store not found", map[string]interface{}{
				"store_id": id,
			})
			return nil, ErrStoreNotFound
		}
		logger.Error("Failed to fetch store", err, map[string]interface{}{
			"store_id": id,
		})
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return store, nil
}

func (s *storeService) PaymentOptions(ctx context.Context, id string) ([]model.PaymentOption, error) {
	store, err := s.GetStore(ctx, id)
	if err != nil {
		return nil, err
	}
	return store.PaymentOptions(), nil
}
