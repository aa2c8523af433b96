package model

import (
	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentCashOnDelivery  PaymentMethod = "cash_on_delivery"
	PaymentWalletTransferA PaymentMethod = "wallet_transfer_a"
	PaymentWalletTransferB PaymentMethod = "wallet_transfer_b"
)

// Valid reports whether m is one of the known methods.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCashOnDelivery, PaymentWalletTransferA, PaymentWalletTransferB:
		return true
	}
	return false
}

// RequiresTransactionRef is true for the manual wallet transfers.
func (m PaymentMethod) RequiresTransactionRef() bool {
	return m == PaymentWalletTransferA || m == PaymentWalletTransferB
}

// Label is the buyer-facing name.
func (m PaymentMethod) Label() string {
	switch m {
	case PaymentCashOnDelivery:
		return "Cash on delivery"
	case PaymentWalletTransferA:
		return "Wallet transfer A"
	case PaymentWalletTransferB:
		return "Wallet transfer B"
	}
	return string(m)
}

// OrderIntentItem is the snapshot of one cart line at confirmation time.
type OrderIntentItem struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// OrderIntent is handed to the notification endpoint once and then dropped.
type OrderIntent struct {
	StoreID           string            `json:"store_id"`
	BuyerHandle       string            `json:"buyer_handle"`
	ShippingAddress   string            `json:"shipping_address"`
	PhoneNumber       string            `json:"phone_number,omitempty"`
	Remark            string            `json:"remark,omitempty"`
	PaymentMethod     PaymentMethod     `json:"payment_method"`
	TransactionNumber string            `json:"transaction_number,omitempty"`
	Items             []OrderIntentItem `json:"items"`
	TotalAmount       decimal.Decimal   `json:"total_amount"`
}
