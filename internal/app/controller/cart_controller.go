package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/service"
	apperrors "github.com/ikkim/storefront-backend/internal/errors"
	"github.com/ikkim/storefront-backend/internal/middleware"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/shopspring/decimal"
)

type CartController struct {
	cartService service.CartService
}

func NewCartController(cartService service.CartService) *CartController {
	return &CartController{
		cartService: cartService,
	}
}

type AddCartItemRequest struct {
	ProductID string           `json:"product_id" binding:"required"`
	StoreID   string           `json:"store_id" binding:"required"`
	Name      string           `json:"name" binding:"required,max=200"`
	Price     *decimal.Decimal `json:"price" binding:"required"`
	Quantity  int              `json:"quantity" binding:"required,gt=0"`
	Image     string           `json:"image" binding:"omitempty,url"`
}

type UpdateCartItemRequest struct {
	Quantity *int `json:"quantity" binding:"required,gte=0"`
}

type cartResponse struct {
	Items         []model.CartItem `json:"items"`
	ItemCount     int              `json:"item_count"`
	Total         decimal.Decimal  `json:"total"`
	StoreID       string           `json:"store_id,omitempty"`
	RecentlyAdded []string         `json:"recently_added"`
}

func newCartResponse(cart *service.CartStore) cartResponse {
	items := cart.Items()
	recent := make([]string, 0)
	for _, item := range items {
		if cart.RecentlyAdded(item.ProductID) {
			recent = append(recent, item.ProductID)
		}
	}
	return cartResponse{
		Items:         items,
		ItemCount:     cart.ItemCount(),
		Total:         cart.Total(),
		StoreID:       cart.StoreID(),
		RecentlyAdded: recent,
	}
}

func (ctrl *CartController) cart(c *gin.Context, log *logger.Logger) (*service.CartStore, bool) {
	sessionID, _ := middleware.GetSessionID(c)
	cart, err := ctrl.cartService.Cart(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, service.ErrMissingSession) {
			apperrors.Unauthorized(c, apperrors.SessionInvalid, "")
			return nil, false
		}
		log.Error("Failed to open cart", err)
		apperrors.ParseAndRespond(c, err, "cart")
		return nil, false
	}
	return cart, true
}

// GetCart returns the session's cart
// GET /api/v1/cart
func (ctrl *CartController) GetCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	cart, ok := ctrl.cart(c, log)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, newCartResponse(cart))
}

// AddItem adds a product line or merges into an existing one
// POST /api/v1/cart/items
func (ctrl *CartController) AddItem(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid add to cart request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "invalid request data")
		return
	}

	cart, ok := ctrl.cart(c, log)
	if !ok {
		return
	}

	item, err := cart.AddItem(c.Request.Context(), model.NewCartItem{
		ProductID: req.ProductID,
		StoreID:   req.StoreID,
		Name:      req.Name,
		Price:     *req.Price,
		Quantity:  req.Quantity,
		Image:     req.Image,
	})
	if err != nil && !ctrl.respondCartError(c, err) {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"item": item,
		"cart": newCartResponse(cart),
	})
}

// UpdateItem sets a line's quantity; zero removes it
// PUT /api/v1/cart/items/:product_id
func (ctrl *CartController) UpdateItem(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	productID := c.Param("product_id")

	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid update cart request", map[string]interface{}{
			"product_id": productID,
			"error":      err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "invalid request data")
		return
	}

	cart, ok := ctrl.cart(c, log)
	if !ok {
		return
	}
	if err := cart.UpdateQuantity(c.Request.Context(), productID, *req.Quantity); err != nil && !ctrl.respondCartError(c, err) {
		return
	}
	c.JSON(http.StatusOK, newCartResponse(cart))
}

// RemoveItem deletes a product's line
// DELETE /api/v1/cart/items/:product_id
func (ctrl *CartController) RemoveItem(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	cart, ok := ctrl.cart(c, log)
	if !ok {
		return
	}
	if err := cart.RemoveItem(c.Request.Context(), c.Param("product_id")); err != nil && !ctrl.respondCartError(c, err) {
		return
	}
	c.JSON(http.StatusOK, newCartResponse(cart))
}

// ClearCart empties the cart
// DELETE /api/v1/cart
func (ctrl *CartController) ClearCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	cart, ok := ctrl.cart(c, log)
	if !ok {
		return
	}
	if err := cart.ClearCart(c.Request.Context()); err != nil && !ctrl.respondCartError(c, err) {
		return
	}
	c.JSON(http.StatusOK, newCartResponse(cart))
}

// respondCartError writes an error response for input errors and reports
// false. Storage errors are only logged: the in-memory cart already reflects
// the change, so it reports true and the caller responds normally.
func (ctrl *CartController) respondCartError(c *gin.Context, err error) bool {
	log := middleware.GetLoggerFromContext(c)

	switch {
	case errors.Is(err, service.ErrInvalidQuantity):
		apperrors.BadRequest(c, apperrors.CartInvalidQuantity, err.Error())
	case errors.Is(err, service.ErrInvalidPrice):
		apperrors.BadRequest(c, apperrors.CartInvalidPrice, err.Error())
	case errors.Is(err, service.ErrInvalidCartItem):
		apperrors.BadRequest(c, apperrors.CartInvalidItem, err.Error())
	case c.Request.Context().Err() != nil && errors.Is(err, c.Request.Context().Err()):
		apperrors.ParseAndRespond(c, err, "cart")
	default:
		log.Warn("Cart change not persisted", map[string]interface{}{
			"error": err.Error(),
		})
		c.Header("X-Cart-Persisted", "false")
		return true
	}
	return false
}
