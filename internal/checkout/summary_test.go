package checkout

import (
	"testing"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cartLines() []model.CartItem {
	return []model.CartItem{
		{ID: "l1", ProductID: "p1", StoreID: "store-1", Name: "Tea", Price: decimal.NewFromInt(100), Quantity: 3},
		{ID: "l2", ProductID: "p2", StoreID: "store-1", Name: "Cup", Price: decimal.RequireFromString("1250.5"), Quantity: 1},
	}
}

func TestBuildSummary(t *testing.T) {
	store := &model.Store{
		ID:                     "store-1",
		Name:                   "Tea House",
		Currency:               "MMK",
		WalletTransferAEnabled: true,
		WalletTransferAAddress: "09-111-222",
	}
	s := reviewing(t)

	sum := BuildSummary(store, cartLines(), s)

	assert.Equal(t, "Tea House", sum.StoreName)
	require.Len(t, sum.Lines, 2)
	assert.Equal(t, 3, sum.Lines[0].Quantity)
	assert.True(t, sum.Lines[0].Subtotal.Equal(decimal.NewFromInt(300)))
	assert.Equal(t, "300.00 MMK", sum.Lines[0].Display)
	assert.True(t, sum.Total.Equal(decimal.RequireFromString("1550.5")))
	assert.Equal(t, "1,550.50 MMK", sum.TotalDisplay)
	assert.Equal(t, "Wallet transfer A", sum.PaymentLabel)
	assert.Equal(t, "09-111-222", sum.WalletAddress)
	assert.Equal(t, "@buyer", sum.Details.BuyerHandle)
	assert.Equal(t, "123456", sum.Details.TransactionNumber)
}

func TestNewOrderIntent(t *testing.T) {
	d := validDetails()
	d.Remark = "  leave at the door "

	intent, err := NewOrderIntent("store-1", cartLines(), model.PaymentWalletTransferA, d)

	require.NoError(t, err)
	assert.Equal(t, "store-1", intent.StoreID)
	assert.Equal(t, "leave at the door", intent.Remark)
	assert.Equal(t, "123456", intent.TransactionNumber)
	require.Len(t, intent.Items, 2)
	assert.Equal(t, "Tea", intent.Items[0].Name)
	assert.True(t, intent.TotalAmount.Equal(decimal.RequireFromString("1550.5")))
}

func TestNewOrderIntent_EmptyCart(t *testing.T) {
	_, err := NewOrderIntent("store-1", nil, model.PaymentCashOnDelivery, validDetails())
	assert.ErrorIs(t, err, ErrEmptyOrder)
}

func TestNewOrderIntent_InvalidForm(t *testing.T) {
	d := validDetails()
	d.BuyerHandle = ""

	_, err := NewOrderIntent("store-1", cartLines(), model.PaymentCashOnDelivery, d)

	assert.ErrorIs(t, err, ErrValidation)
}

func TestNewOrderIntent_OtherStoreRejected(t *testing.T) {
	lines := cartLines()
	lines[1].StoreID = "store-2"

	_, err := NewOrderIntent("store-1", lines, model.PaymentCashOnDelivery, validDetails())

	assert.ErrorIs(t, err, ErrMixedStores)
}

func TestToNotification(t *testing.T) {
	intent, err := NewOrderIntent("store-1", cartLines(), model.PaymentCashOnDelivery, validDetails())
	require.NoError(t, err)

	n := ToNotification(intent)

	assert.Equal(t, "store-1", n.StoreID)
	assert.Equal(t, "@buyer", n.BuyerHandle)
	assert.Empty(t, n.TransactionNumber)
	assert.Equal(t, "cash_on_delivery", n.PaymentMethod)
	assert.InDelta(t, 1550.5, n.TotalAmount, 0.001)
	require.Len(t, n.Items, 2)
	assert.InDelta(t, 100, n.Items[0].Price, 0.001)
	assert.Equal(t, 3, n.Items[0].Quantity)
}
