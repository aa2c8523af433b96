package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

type redisCartStorage struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCartStorage stores each cart as a JSON string. A zero ttl keeps
// keys until they are cleared.
func NewRedisCartStorage(client *redis.Client, ttl time.Duration) CartStorage {
	return &redisCartStorage{client: client, ttl: ttl}
}

func (r *redisCartStorage) Load(ctx context.Context, key string) ([]model.CartItem, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return []model.CartItem{}, nil
	}
	if err != nil {
		logger.Error("Failed to load cart from redis", err, map[string]interface{}{
			"key": key,
		})
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	return decodeCart(data)
}

func (r *redisCartStorage) Save(ctx context.Context, key string, items []model.CartItem) error {
	data, err := encodeCart(items)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		logger.Error("Failed to save cart to redis", err, map[string]interface{}{
			"key":   key,
			"lines": len(items),
		})
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *redisCartStorage) Clear(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}
