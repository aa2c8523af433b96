package checkout

import (
	"errors"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/pkg/notify"
	"github.com/ikkim/storefront-backend/pkg/util"
	"github.com/shopspring/decimal"
)

var (
	ErrEmptyOrder   = errors.New("order has no items")
	ErrMixedStores  = errors.New("order items belong to another store")
	ErrOrderInvalid = errors.New("order details are invalid")
)

// SummaryLine is one row of the confirmation summary.
type SummaryLine struct {
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Display   string          `json:"display"`
}

// Summary is everything the buyer sees before the secondary confirmation.
type Summary struct {
	StoreID       string              `json:"store_id"`
	StoreName     string              `json:"store_name"`
	Lines         []SummaryLine       `json:"lines"`
	Total         decimal.Decimal     `json:"total"`
	TotalDisplay  string              `json:"total_display"`
	PaymentMethod model.PaymentMethod `json:"payment_method"`
	PaymentLabel  string              `json:"payment_label"`
	WalletAddress string              `json:"wallet_address,omitempty"`
	Details       Details             `json:"details"`
}

// BuildSummary renders the review step for the given store and cart lines.
func BuildSummary(store *model.Store, items []model.CartItem, s State) Summary {
	currency := ""
	sum := Summary{
		StoreID:       s.StoreID,
		PaymentMethod: s.Payment,
		PaymentLabel:  s.Payment.Label(),
		Details:       Normalize(s.Payment, s.Details),
		Lines:         make([]SummaryLine, 0, len(items)),
	}
	if store != nil {
		currency = store.Currency
		sum.StoreName = store.Name
		for _, opt := range store.PaymentOptions() {
			if opt.Method == s.Payment {
				sum.WalletAddress = opt.WalletAddress
			}
		}
	}

	total := decimal.Zero
	for _, item := range items {
		subtotal := item.Subtotal()
		total = total.Add(subtotal)
		sum.Lines = append(sum.Lines, SummaryLine{
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.Price,
			Subtotal:  util.RoundAmount(subtotal),
			Display:   util.FormatAmount(subtotal, currency),
		})
	}
	sum.Total = util.RoundAmount(total)
	sum.TotalDisplay = util.FormatAmount(total, currency)
	return sum
}

// NewOrderIntent snapshots the cart and the validated form. It is the only
// way to build an OrderIntent.
func NewOrderIntent(storeID string, items []model.CartItem, method model.PaymentMethod, d Details) (model.OrderIntent, error) {
	if len(items) == 0 {
		return model.OrderIntent{}, ErrEmptyOrder
	}
	if fields := ValidateDetails(method, d); len(fields) > 0 {
		return model.OrderIntent{}, &ValidationError{Fields: fields}
	}
	d = Normalize(method, d)

	intent := model.OrderIntent{
		StoreID:           storeID,
		BuyerHandle:       d.BuyerHandle,
		ShippingAddress:   d.ShippingAddress,
		PhoneNumber:       d.PhoneNumber,
		Remark:            d.Remark,
		PaymentMethod:     method,
		TransactionNumber: d.TransactionNumber,
		Items:             make([]model.OrderIntentItem, 0, len(items)),
	}
	total := decimal.Zero
	for _, item := range items {
		if item.StoreID != "" && storeID != "" && item.StoreID != storeID {
			return model.OrderIntent{}, ErrMixedStores
		}
		if item.Quantity <= 0 || item.Price.IsNegative() {
			return model.OrderIntent{}, ErrOrderInvalid
		}
		intent.Items = append(intent.Items, model.OrderIntentItem{
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.Price,
		})
		total = total.Add(item.Subtotal())
	}
	intent.TotalAmount = util.RoundAmount(total)
	return intent, nil
}

// ToNotification maps an intent onto the notification endpoint's payload.
func ToNotification(o model.OrderIntent) notify.OrderNotification {
	n := notify.OrderNotification{
		StoreID:           o.StoreID,
		BuyerHandle:       o.BuyerHandle,
		TransactionNumber: o.TransactionNumber,
		ShippingAddress:   o.ShippingAddress,
		PhoneNumber:       o.PhoneNumber,
		Remark:            o.Remark,
		Items:             make([]notify.OrderItem, 0, len(o.Items)),
		TotalAmount:       o.TotalAmount.InexactFloat64(),
		PaymentMethod:     string(o.PaymentMethod),
	}
	for _, item := range o.Items {
		n.Items = append(n.Items, notify.OrderItem{
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.Price.InexactFloat64(),
		})
	}
	return n
}
