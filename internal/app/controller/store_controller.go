package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-backend/internal/app/service"
	apperrors "github.com/ikkim/storefront-backend/internal/errors"
	"github.com/ikkim/storefront-backend/internal/middleware"
)

type StoreController struct {
	storeService service.StoreService
}

func NewStoreController(storeService service.StoreService) *StoreController {
	return &StoreController{storeService: storeService}
}

// GetPaymentMethods lists the store's payment methods with enablement and
// wallet addresses
// GET /api/v1/stores/:id/payment-methods
func (ctrl *StoreController) GetPaymentMethods(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	storeID := c.Param("id")

	store, err := ctrl.storeService.GetStore(c.Request.Context(), storeID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrStoreNotFound):
			apperrors.NotFound(c, apperrors.StoreNotFound, "store not found")
		case errors.Is(err, service.ErrStoreUnavailable):
			log.Error("Failed to load store payment methods", err, map[string]interface{}{
				"store_id": storeID,
			})
			apperrors.RespondWithError(c, http.StatusServiceUnavailable, apperrors.StoreUnavailable, "store information is unavailable")
		default:
			apperrors.ParseAndRespond(c, err, "store")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"store_id":        store.ID,
		"store_name":      store.Name,
		"currency":        store.Currency,
		"payment_methods": store.PaymentOptions(),
	})
}
