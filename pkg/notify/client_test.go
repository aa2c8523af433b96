package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleNotification() OrderNotification {
	return OrderNotification{
		StoreID:           "store-1",
		BuyerHandle:       "@buyer",
		TransactionNumber: "123456",
		ShippingAddress:   "12 Market St",
		Items:             []OrderItem{{Name: "Tea", Quantity: 2, Price: 100}},
		TotalAmount:       200,
		PaymentMethod:     "wallet_transfer_a",
	}
}

func TestNewClient_RequiresURL(t *testing.T) {
	_, err := NewClient(Config{})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestClient_Send_Success(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	client, err := NewClient(Config{URL: srv.URL, APIKey: "secret"})
	require.NoError(t, err)

	require.NoError(t, client.Send(context.Background(), sampleNotification()))

	assert.Equal(t, "store-1", got["storeId"])
	assert.Equal(t, "@buyer", got["buyerHandle"])
	assert.Equal(t, "123456", got["transactionNumber"])
	assert.Equal(t, "12 Market St", got["shippingAddress"])
	assert.Equal(t, float64(200), got["totalAmount"])
	assert.Equal(t, "wallet_transfer_a", got["paymentMethod"])
	items := got["items"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, "Tea", items[0].(map[string]interface{})["name"])
}

func TestClient_Send_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	client, err := NewClient(Config{URL: srv.URL})
	require.NoError(t, err)

	err = client.Send(context.Background(), sampleNotification())
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
}

func TestClient_Send_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client, err := NewClient(Config{URL: url, Timeout: time.Second})
	require.NoError(t, err)

	err = client.Send(context.Background(), sampleNotification())
	assert.ErrorIs(t, err, ErrNetworkError)
}

func TestClient_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client, err := NewClient(Config{URL: srv.URL, BreakerFailures: 2, BreakerCooldown: time.Minute})
	require.NoError(t, err)

	ctx := context.Background()
	assert.ErrorIs(t, client.Send(ctx, sampleNotification()), ErrUnexpectedStatus)
	assert.ErrorIs(t, client.Send(ctx, sampleNotification()), ErrUnexpectedStatus)
	assert.ErrorIs(t, client.Send(ctx, sampleNotification()), ErrCircuitOpen)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}
