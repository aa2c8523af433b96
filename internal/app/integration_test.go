package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-backend/internal/app/controller"
	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/internal/app/service"
	"github.com/ikkim/storefront-backend/internal/db"
	"github.com/ikkim/storefront-backend/internal/middleware"
	"github.com/ikkim/storefront-backend/pkg/notify"
	"github.com/ikkim/storefront-backend/pkg/retry"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type TestServer struct {
	Router *gin.Engine
	DB     *gorm.DB
	Redis  *miniredis.Miniredis

	mu            sync.Mutex
	notifications []notify.OrderNotification
	notifyStatus  int
}

func (ts *TestServer) received() []notify.OrderNotification {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return append([]notify.OrderNotification(nil), ts.notifications...)
}

func setupIntegrationTest(t *testing.T) *TestServer {
	gin.SetMode(gin.TestMode)
	ts := &TestServer{notifyStatus: http.StatusOK}

	// Setup database
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})
	require.NoError(t, db.Seed(testDB))
	ts.DB = testDB

	// Cart persistence
	ts.Redis = miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: ts.Redis.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	// Order notification endpoint
	notifyServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var n notify.OrderNotification
		_ = json.NewDecoder(r.Body).Decode(&n)
		ts.mu.Lock()
		status := ts.notifyStatus
		if status < 300 {
			ts.notifications = append(ts.notifications, n)
		}
		ts.mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(notifyServer.Close)
	notifier, err := notify.NewClient(notify.Config{URL: notifyServer.URL, Timeout: time.Second})
	require.NoError(t, err)

	// Setup services
	storeService := service.NewStoreService(repository.NewStoreRepository(testDB))
	cartService := service.NewCartService(repository.NewRedisCartStorage(client, time.Hour), service.CartServiceOptions{})
	checkoutService := service.NewCheckoutService(cartService, storeService, notifier, service.CheckoutOptions{
		PaymentWindow: 15 * time.Minute,
		RedirectDelay: 10 * time.Second,
		Retry:         retry.Policy{MaxRetries: 2, BaseDelay: time.Millisecond},
	})

	// Setup controllers
	storeController := controller.NewStoreController(storeService)
	cartController := controller.NewCartController(cartService)
	checkoutController := controller.NewCheckoutController(checkoutService, "/")

	// Setup middleware
	sessionMiddleware := middleware.NewSessionMiddleware("test-secret", time.Hour)

	// Setup router
	router := gin.New()
	v1 := router.Group("/api/v1")
	v1.GET("/stores/:id/payment-methods", storeController.GetPaymentMethods)

	cart := v1.Group("/cart")
	cart.Use(sessionMiddleware.Handle())
	{
		cart.GET("", cartController.GetCart)
		cart.POST("/items", cartController.AddItem)
		cart.DELETE("", cartController.ClearCart)
	}

	checkout := v1.Group("/checkout")
	checkout.Use(sessionMiddleware.Handle())
	{
		checkout.POST("", checkoutController.Open)
		checkout.GET("", checkoutController.Get)
		checkout.PUT("/payment", checkoutController.SelectPayment)
		checkout.PUT("/details", checkoutController.UpdateDetails)
		checkout.POST("/review", checkoutController.RequestReview)
		checkout.POST("/confirm", checkoutController.Confirm)
		checkout.POST("/continue", checkoutController.Continue)
	}

	ts.Router = router
	return ts
}

func (ts *TestServer) call(t *testing.T, method, path, session string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if session != "" {
		req.Header.Set(middleware.SessionHeader, session)
	}
	w := httptest.NewRecorder()
	ts.Router.ServeHTTP(w, req)
	return w
}

func TestCompleteShopperJourney(t *testing.T) {
	ts := setupIntegrationTest(t)

	// 1. Browse the store's payment methods
	t.Log("Step 1: Payment methods")
	w := ts.call(t, http.MethodGet, "/api/v1/stores/"+db.DemoStoreID+"/payment-methods", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	// 2. Add to cart; the first request issues the session token
	t.Log("Step 2: Add to cart")
	w = ts.call(t, http.MethodPost, "/api/v1/cart/items", "", map[string]interface{}{
		"product_id": "tea-1",
		"store_id":   db.DemoStoreID,
		"name":       "Jasmine Tea",
		"price":      "1500",
		"quantity":   2,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	session := w.Header().Get(middleware.SessionHeader)
	require.NotEmpty(t, session)

	w = ts.call(t, http.MethodPost, "/api/v1/cart/items", session, map[string]interface{}{
		"product_id": "tea-1",
		"store_id":   db.DemoStoreID,
		"name":       "Jasmine Tea",
		"price":      "1500",
		"quantity":   1,
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get(middleware.SessionHeader))

	// 3. Checkout
	t.Log("Step 3: Open checkout")
	w = ts.call(t, http.MethodPost, "/api/v1/checkout", session, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = ts.call(t, http.MethodPut, "/api/v1/checkout/payment", session, map[string]string{
		"payment_method": string(model.PaymentWalletTransferA),
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.call(t, http.MethodPut, "/api/v1/checkout/details", session, map[string]string{
		"buyer_handle":       "@mya",
		"shipping_address":   "No. 7, Bogyoke Road",
		"phone_number":       "09-450-000-111",
		"transaction_number": "654321",
	})
	require.Equal(t, http.StatusOK, w.Code)

	// 4. Review then confirm
	t.Log("Step 4: Review and confirm")
	w = ts.call(t, http.MethodPost, "/api/v1/checkout/review", session, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "4,500.00 MMK")
	assert.Empty(t, ts.received())

	w = ts.call(t, http.MethodPost, "/api/v1/checkout/confirm", session, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"phase":"success"`)

	sent := ts.received()
	require.Len(t, sent, 1)
	assert.Equal(t, db.DemoStoreID, sent[0].StoreID)
	assert.Equal(t, "654321", sent[0].TransactionNumber)
	assert.Equal(t, float64(4500), sent[0].TotalAmount)
	require.Len(t, sent[0].Items, 1)

	// 5. Cart emptied, including the persisted copy
	t.Log("Step 5: Verify cart is empty")
	w = ts.call(t, http.MethodGet, "/api/v1/cart", session, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var cartResp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cartResp))
	assert.Len(t, cartResp["items"], 0)

	// 6. Leave the success view
	t.Log("Step 6: Continue")
	w = ts.call(t, http.MethodPost, "/api/v1/checkout/continue", session, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/stores/"+db.DemoStoreID)
}

func TestCheckoutSurvivesNotificationOutage(t *testing.T) {
	ts := setupIntegrationTest(t)
	ts.notifyStatus = http.StatusServiceUnavailable

	w := ts.call(t, http.MethodPost, "/api/v1/cart/items", "", map[string]interface{}{
		"product_id": "tea-1",
		"store_id":   db.DemoStoreID,
		"name":       "Jasmine Tea",
		"price":      "1500",
		"quantity":   1,
	})
	require.Equal(t, http.StatusOK, w.Code)
	session := w.Header().Get(middleware.SessionHeader)

	require.Equal(t, http.StatusOK, ts.call(t, http.MethodPost, "/api/v1/checkout", session, nil).Code)
	require.Equal(t, http.StatusOK, ts.call(t, http.MethodPut, "/api/v1/checkout/payment", session, map[string]string{
		"payment_method": string(model.PaymentCashOnDelivery),
	}).Code)
	require.Equal(t, http.StatusOK, ts.call(t, http.MethodPut, "/api/v1/checkout/details", session, map[string]string{
		"buyer_handle":     "@mya",
		"shipping_address": "No. 7, Bogyoke Road",
	}).Code)
	require.Equal(t, http.StatusOK, ts.call(t, http.MethodPost, "/api/v1/checkout/review", session, nil).Code)

	w = ts.call(t, http.MethodPost, "/api/v1/checkout/confirm", session, nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"phase":"success"`)
	assert.Empty(t, ts.received())
}

func TestCheckoutRequiresCart(t *testing.T) {
	ts := setupIntegrationTest(t)

	w := ts.call(t, http.MethodPost, "/api/v1/checkout", "", nil)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), `"redirect_to":"/"`)
}

func TestCartSurvivesRestart(t *testing.T) {
	ts := setupIntegrationTest(t)

	w := ts.call(t, http.MethodPost, "/api/v1/cart/items", "", map[string]interface{}{
		"product_id": "tea-1",
		"store_id":   db.DemoStoreID,
		"name":       "Jasmine Tea",
		"price":      "1500",
		"quantity":   2,
	})
	require.Equal(t, http.StatusOK, w.Code)

	// a fresh service over the same redis sees the persisted cart
	client := redis.NewClient(&redis.Options{Addr: ts.Redis.Addr()})
	defer client.Close()
	keys, err := client.Keys(context.Background(), "cart-storage:*").Result()
	require.NoError(t, err)
	require.Len(t, keys, 1)

	fresh := service.NewCartService(repository.NewRedisCartStorage(client, time.Hour), service.CartServiceOptions{})
	sessionID := keys[0][len("cart-storage:"):]
	cart, err := fresh.Cart(context.Background(), sessionID)
	require.NoError(t, err)
	assert.Equal(t, 2, cart.ItemCount())
}
