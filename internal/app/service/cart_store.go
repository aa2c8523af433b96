package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/ikkim/storefront-backend/pkg/metrics"
	"github.com/ikkim/storefront-backend/pkg/util"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrInvalidPrice    = errors.New("price must not be negative")
	ErrInvalidCartItem = errors.New("cart item is missing product or store")
)

// CartStoreOptions tunes one cart. Zero values disable the add delay and
// the recently-added window.
type CartStoreOptions struct {
	AddDelay            time.Duration
	RecentlyAddedWindow time.Duration
	Now                 func() time.Time
	Metrics             *metrics.CheckoutMetrics
}

// CartStore is the authoritative cart for one shopper session. Every
// mutation is serialized and written through to storage.
type CartStore struct {
	mu      sync.Mutex
	key     string
	storage repository.CartStorage
	items   []model.CartItem
	recent  map[string]time.Time
	opts    CartStoreOptions
}

// OpenCartStore loads whatever was stored under key.
func OpenCartStore(ctx context.Context, key string, storage repository.CartStorage, opts CartStoreOptions) (*CartStore, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}

	items, err := storage.Load(ctx, key)
	if err != nil {
		logger.Error("Failed to load cart", err, map[string]interface{}{
			"storage_key": key,
		})
		return nil, fmt.Errorf("load cart: %w", err)
	}

	logger.Debug("Cart restored", map[string]interface{}{
		"storage_key": key,
		"lines":       len(items),
	})
	return &CartStore{
		key:     key,
		storage: storage,
		items:   items,
		recent:  make(map[string]time.Time),
		opts:    opts,
	}, nil
}

// AddItem merges on product id or appends a new line.
func (c *CartStore) AddItem(ctx context.Context, in model.NewCartItem) (model.CartItem, error) {
	in.ProductID = strings.TrimSpace(in.ProductID)
	in.StoreID = strings.TrimSpace(in.StoreID)
	switch {
	case in.ProductID == "" || in.StoreID == "":
		return model.CartItem{}, ErrInvalidCartItem
	case in.Quantity <= 0:
		return model.CartItem{}, ErrInvalidQuantity
	case in.Price.IsNegative():
		return model.CartItem{}, ErrInvalidPrice
	}

	if c.opts.AddDelay > 0 {
		timer := time.NewTimer(c.opts.AddDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return model.CartItem{}, ctx.Err()
		case <-timer.C:
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.opts.Now()
	if len(c.items) > 0 && c.items[0].StoreID != in.StoreID {
		logger.Warn("Cart switched to another store, previous lines dropped", map[string]interface{}{
			"storage_key": c.key,
			"from_store":  c.items[0].StoreID,
			"to_store":    in.StoreID,
			"dropped":     len(c.items),
		})
		c.items = nil
		c.recent = make(map[string]time.Time)
	}

	var line model.CartItem
	merged := false
	for i := range c.items {
		if c.items[i].ProductID == in.ProductID {
			c.items[i].Quantity += in.Quantity
			line = c.items[i]
			merged = true
			break
		}
	}
	if !merged {
		line = model.CartItem{
			ID:        uuid.NewString(),
			ProductID: in.ProductID,
			StoreID:   in.StoreID,
			Name:      in.Name,
			Price:     in.Price,
			Quantity:  in.Quantity,
			Image:     in.Image,
			AddedAt:   now,
		}
		c.items = append(c.items, line)
	}
	if c.opts.RecentlyAddedWindow > 0 {
		c.recent[in.ProductID] = now.Add(c.opts.RecentlyAddedWindow)
	}

	logger.Info("Item added to cart", map[string]interface{}{
		"storage_key": c.key,
		"product_id":  in.ProductID,
		"quantity":    line.Quantity,
		"merged":      merged,
	})
	c.opts.Metrics.IncCartMutation("add")
	return line, c.persistLocked(ctx)
}

// RemoveItem drops every line of the product. Absent products are ignored.
func (c *CartStore) RemoveItem(ctx context.Context, productID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.removeLocked(productID) {
		return nil
	}
	logger.Info("Item removed from cart", map[string]interface{}{
		"storage_key": c.key,
		"product_id":  productID,
	})
	c.opts.Metrics.IncCartMutation("remove")
	return c.persistLocked(ctx)
}

// UpdateQuantity sets the quantity of a line; zero removes it.
func (c *CartStore) UpdateQuantity(ctx context.Context, productID string, quantity int) error {
	if quantity < 0 {
		return ErrInvalidQuantity
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if quantity == 0 {
		if !c.removeLocked(productID) {
			return nil
		}
		c.opts.Metrics.IncCartMutation("remove")
		return c.persistLocked(ctx)
	}

	for i := range c.items {
		if c.items[i].ProductID == productID {
			c.items[i].Quantity = quantity
			logger.Info("Cart item quantity updated", map[string]interface{}{
				"storage_key": c.key,
				"product_id":  productID,
				"quantity":    quantity,
			})
			c.opts.Metrics.IncCartMutation("update")
			return c.persistLocked(ctx)
		}
	}
	return nil
}

// ClearCart empties the cart unconditionally.
func (c *CartStore) ClearCart(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = nil
	c.recent = make(map[string]time.Time)
	c.opts.Metrics.IncCartMutation("clear")

	if err := c.storage.Clear(ctx, c.key); err != nil {
		logger.Error("Failed to clear persisted cart", err, map[string]interface{}{
			"storage_key": c.key,
		})
		return fmt.Errorf("clear cart: %w", err)
	}
	logger.Info("Cart cleared", map[string]interface{}{
		"storage_key": c.key,
	})
	return nil
}

// RemoveOrdered takes the lines of a submitted order out of the cart. Lines
// are matched by id; quantity added to a line after the snapshot was taken
// stays, and so do lines added since.
func (c *CartStore) RemoveOrdered(ctx context.Context, ordered []model.CartItem) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	taken := make(map[string]int, len(ordered))
	for _, item := range ordered {
		taken[item.ID] += item.Quantity
	}

	kept := c.items[:0]
	for _, item := range c.items {
		qty, ok := taken[item.ID]
		if !ok {
			kept = append(kept, item)
			continue
		}
		if item.Quantity > qty {
			item.Quantity -= qty
			kept = append(kept, item)
			continue
		}
		delete(c.recent, item.ProductID)
	}
	c.items = kept
	c.opts.Metrics.IncCartMutation("order")

	logger.Info("Ordered lines removed from cart", map[string]interface{}{
		"storage_key": c.key,
		"ordered":     len(ordered),
		"remaining":   len(kept),
	})

	if len(c.items) == 0 {
		if err := c.storage.Clear(ctx, c.key); err != nil {
			logger.Error("Failed to clear persisted cart", err, map[string]interface{}{
				"storage_key": c.key,
			})
			return fmt.Errorf("clear cart: %w", err)
		}
		return nil
	}
	return c.persistLocked(ctx)
}

// Items returns a copy of the lines in insertion order.
func (c *CartStore) Items() []model.CartItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.CartItem, len(c.items))
	copy(out, c.items)
	return out
}

// Total is Σ price × quantity rounded to the display precision.
func (c *CartStore) Total() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := decimal.Zero
	for _, item := range c.items {
		total = total.Add(item.Subtotal())
	}
	return util.RoundAmount(total)
}

// ItemCount is Σ quantity, not the number of lines.
func (c *CartStore) ItemCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, item := range c.items {
		n += item.Quantity
	}
	return n
}

// StoreID is the store every line belongs to, or "" for an empty cart.
func (c *CartStore) StoreID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.items) == 0 {
		return ""
	}
	return c.items[0].StoreID
}

// RecentlyAdded reports whether productID was added within the feedback window.
func (c *CartStore) RecentlyAdded(productID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	until, ok := c.recent[productID]
	if !ok {
		return false
	}
	if !c.opts.Now().Before(until) {
		delete(c.recent, productID)
		return false
	}
	return true
}

func (c *CartStore) removeLocked(productID string) bool {
	kept := c.items[:0]
	removed := false
	for _, item := range c.items {
		if item.ProductID == productID {
			removed = true
			continue
		}
		kept = append(kept, item)
	}
	c.items = kept
	delete(c.recent, productID)
	return removed
}

func (c *CartStore) persistLocked(ctx context.Context) error {
	if err := c.storage.Save(ctx, c.key, c.items); err != nil {
		logger.Error("Failed to persist cart", err, map[string]interface{}{
			"storage_key": c.key,
			"lines":       len(c.items),
		})
		return fmt.Errorf("persist cart: %w", err)
	}
	return nil
}
