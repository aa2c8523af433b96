package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/ikkim/storefront-backend/pkg/metrics"
)

var ErrMissingSession = errors.New("cart session is required")

// CartService hands out one CartStore per shopper session.
type CartService interface {
	Cart(ctx context.Context, sessionID string) (*CartStore, error)
	Forget(sessionID string)
	EvictIdle(now time.Time) int
}

type CartServiceOptions struct {
	StorageKey          string
	AddDelay            time.Duration
	RecentlyAddedWindow time.Duration
	IdleTimeout         time.Duration
	Now                 func() time.Time
	Metrics             *metrics.CheckoutMetrics
}

type cartEntry struct {
	store    *CartStore
	lastUsed time.Time
}

type cartService struct {
	storage repository.CartStorage
	opts    CartServiceOptions

	mu    sync.Mutex
	carts map[string]*cartEntry
}

func NewCartService(storage repository.CartStorage, opts CartServiceOptions) CartService {
	if opts.StorageKey == "" {
		opts.StorageKey = "cart-storage"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &cartService{
		storage: storage,
		opts:    opts,
		carts:   make(map[string]*cartEntry),
	}
}

func (s *cartService) storageKey(sessionID string) string {
	return s.opts.StorageKey + ":" + sessionID
}

// Cart returns the session's cart, loading it from storage on first use.
func (s *cartService) Cart(ctx context.Context, sessionID string) (*CartStore, error) {
	if sessionID == "" {
		return nil, ErrMissingSession
	}

	s.mu.Lock()
	if entry, ok := s.carts[sessionID]; ok {
		entry.lastUsed = s.opts.Now()
		s.mu.Unlock()
		return entry.store, nil
	}
	s.mu.Unlock()

	store, err := OpenCartStore(ctx, s.storageKey(sessionID), s.storage, CartStoreOptions{
		AddDelay:            s.opts.AddDelay,
		RecentlyAddedWindow: s.opts.RecentlyAddedWindow,
		Now:                 s.opts.Now,
		Metrics:             s.opts.Metrics,
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.carts[sessionID]; ok {
		entry.lastUsed = s.opts.Now()
		return entry.store, nil
	}
	s.carts[sessionID] = &cartEntry{store: store, lastUsed: s.opts.Now()}
	return store, nil
}

// Forget drops the in-memory cart. Stored contents are kept.
func (s *cartService) Forget(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, sessionID)
}

// EvictIdle forgets carts unused for longer than the idle timeout and
// returns how many were dropped.
func (s *cartService) EvictIdle(now time.Time) int {
	if s.opts.IdleTimeout <= 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	evicted := 0
	for id, entry := range s.carts {
		if now.Sub(entry.lastUsed) > s.opts.IdleTimeout {
			delete(s.carts, id)
			evicted++
		}
	}
	if evicted > 0 {
		logger.Info("Evicted idle carts", map[string]interface{}{
			"evicted":   evicted,
			"remaining": len(s.carts),
		})
	}
	return evicted
}
