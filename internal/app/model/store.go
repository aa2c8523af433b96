package model

import (
	"time"
)

// Store is the read-only view of a marketplace store that checkout needs:
// its name and which payment methods it accepts.
type Store struct {
	ID                     string    `gorm:"primaryKey;size:64" json:"id"`
	Name                   string    `gorm:"not null" json:"name"`
	Slug                   string    `gorm:"uniqueIndex;size:191" json:"slug"`
	Currency               string    `gorm:"size:8;default:'MMK'" json:"currency"`
	CashOnDeliveryEnabled  bool      `gorm:"not null" json:"cash_on_delivery_enabled"`
	WalletTransferAEnabled bool      `gorm:"not null" json:"wallet_transfer_a_enabled"`
	WalletTransferAAddress string    `gorm:"size:191" json:"wallet_transfer_a_address,omitempty"`
	WalletTransferBEnabled bool      `gorm:"not null" json:"wallet_transfer_b_enabled"`
	WalletTransferBAddress string    `gorm:"size:191" json:"wallet_transfer_b_address,omitempty"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
}

func (Store) TableName() string {
	return "stores"
}

// PaymentOption is one payment method as shown to the buyer.
type PaymentOption struct {
	Method        PaymentMethod `json:"method"`
	Enabled       bool          `json:"enabled"`
	WalletAddress string        `json:"wallet_address,omitempty"`
}

// PaymentOptions lists every known method with the store's enablement.
func (s *Store) PaymentOptions() []PaymentOption {
	return []PaymentOption{
		{Method: PaymentCashOnDelivery, Enabled: s.CashOnDeliveryEnabled},
		{Method: PaymentWalletTransferA, Enabled: s.WalletTransferAEnabled, WalletAddress: s.WalletTransferAAddress},
		{Method: PaymentWalletTransferB, Enabled: s.WalletTransferBEnabled, WalletAddress: s.WalletTransferBAddress},
	}
}

// Accepts reports whether the store has enabled m.
func (s *Store) Accepts(m PaymentMethod) bool {
	for _, opt := range s.PaymentOptions() {
		if opt.Method == m {
			return opt.Enabled
		}
	}
	return false
}
