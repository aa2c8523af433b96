package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ikkim/storefront-backend/internal/app/model"
)

// CartStorage is the persistent key-value cache behind a cart. A missing key
// loads as an empty cart.
type CartStorage interface {
	Load(ctx context.Context, key string) ([]model.CartItem, error)
	Save(ctx context.Context, key string, items []model.CartItem) error
	Clear(ctx context.Context, key string) error
}

func encodeCart(items []model.CartItem) ([]byte, error) {
	if items == nil {
		items = []model.CartItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("marshal cart failed: %w", err)
	}
	return data, nil
}

func decodeCart(data []byte) ([]model.CartItem, error) {
	var items []model.CartItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	return items, nil
}

type memoryCartStorage struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryCartStorage keeps carts in process memory. Contents survive only
// as long as the process.
func NewMemoryCartStorage() CartStorage {
	return &memoryCartStorage{data: make(map[string][]byte)}
}

func (m *memoryCartStorage) Load(_ context.Context, key string) ([]model.CartItem, error) {
	m.mu.RLock()
	data, ok := m.data[key]
	m.mu.RUnlock()
	if !ok {
		return []model.CartItem{}, nil
	}
	return decodeCart(data)
}

func (m *memoryCartStorage) Save(_ context.Context, key string, items []model.CartItem) error {
	data, err := encodeCart(items)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data[key] = data
	m.mu.Unlock()
	return nil
}

func (m *memoryCartStorage) Clear(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}
