package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem is one product line in a shopper's cart.
type CartItem struct {
	ID        string          `json:"id"`              // generated on insert
	ProductID string          `json:"product_id"`      // merge key
	StoreID   string          `json:"store_id"`        // owning store
	Name      string          `json:"name"`            // display name at add time
	Price     decimal.Decimal `json:"price"`           // unit price
	Quantity  int             `json:"quantity"`        // always positive
	Image     string          `json:"image,omitempty"` // display-only URL
	AddedAt   time.Time       `json:"added_at"`        // display ordering only
}

// Subtotal is price × quantity.
func (i CartItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// NewCartItem is a cart line before the store assigns its id and timestamp.
type NewCartItem struct {
	ProductID string
	StoreID   string
	Name      string
	Price     decimal.Decimal
	Quantity  int
	Image     string
}

// CartSnapshot is the database-backed copy of a persisted cart.
type CartSnapshot struct {
	StorageKey string    `gorm:"primaryKey;size:191" json:"storage_key"`
	Payload    string    `gorm:"type:text;not null" json:"payload"` // JSON-encoded []CartItem
	UpdatedAt  time.Time `json:"updated_at"`
}

func (CartSnapshot) TableName() string {
	return "cart_snapshots"
}
