package controller

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/service"
	"github.com/ikkim/storefront-backend/internal/checkout"
	apperrors "github.com/ikkim/storefront-backend/internal/errors"
	"github.com/ikkim/storefront-backend/internal/middleware"
)

type CheckoutController struct {
	checkoutService service.CheckoutService
	defaultLanding  string
	now             func() time.Time
}

func NewCheckoutController(checkoutService service.CheckoutService, defaultLanding string) *CheckoutController {
	if defaultLanding == "" {
		defaultLanding = "/"
	}
	return &CheckoutController{
		checkoutService: checkoutService,
		defaultLanding:  defaultLanding,
		now:             time.Now,
	}
}

type SelectPaymentRequest struct {
	Method model.PaymentMethod `json:"payment_method" binding:"required"`
}

type UpdateDetailsRequest struct {
	BuyerHandle       string `json:"buyer_handle" binding:"max=64"`
	ShippingAddress   string `json:"shipping_address" binding:"max=500"`
	PhoneNumber       string `json:"phone_number" binding:"max=32"`
	Remark            string `json:"remark" binding:"max=1000"`
	TransactionNumber string `json:"transaction_number" binding:"max=16"`
}

// checkoutView is the render model for the checkout page.
type checkoutView struct {
	State            checkout.State `json:"state"`
	RemainingSeconds int64          `json:"remaining_seconds"`
	CanConfirm       bool           `json:"can_confirm"`
}

type checkoutErrorResponse struct {
	Error      string            `json:"error"`
	Message    string            `json:"message"`
	Fields     map[string]string `json:"fields,omitempty"`
	RedirectTo string            `json:"redirect_to,omitempty"`
	Checkout   *checkoutView     `json:"checkout,omitempty"`
}

func (ctrl *CheckoutController) view(st checkout.State) checkoutView {
	now := ctrl.now()
	return checkoutView{
		State:            st,
		RemainingSeconds: int64(st.Remaining(now).Seconds()),
		CanConfirm:       st.CanConfirm(now),
	}
}

func sessionID(c *gin.Context) string {
	id, _ := middleware.GetSessionID(c)
	return id
}

// Open enters checkout; an empty cart is answered with a redirect target
// POST /api/v1/checkout
func (ctrl *CheckoutController) Open(c *gin.Context) {
	st, err := ctrl.checkoutService.Open(c.Request.Context(), sessionID(c))
	if err != nil {
		ctrl.respondError(c, err, st)
		return
	}
	c.JSON(http.StatusOK, ctrl.view(st))
}

// GET /api/v1/checkout
func (ctrl *CheckoutController) Get(c *gin.Context) {
	st, err := ctrl.checkoutService.State(sessionID(c))
	if err != nil {
		ctrl.respondError(c, err, st)
		return
	}
	c.JSON(http.StatusOK, ctrl.view(st))
}

// Leave abandons checkout and cancels the payment countdown
// DELETE /api/v1/checkout
func (ctrl *CheckoutController) Leave(c *gin.Context) {
	if err := ctrl.checkoutService.Leave(c.Request.Context(), sessionID(c)); err != nil {
		ctrl.respondError(c, err, checkout.State{})
		return
	}
	c.Status(http.StatusNoContent)
}

// PUT /api/v1/checkout/payment
func (ctrl *CheckoutController) SelectPayment(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req SelectPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid payment selection", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "payment_method is required")
		return
	}

	st, err := ctrl.checkoutService.SelectPayment(c.Request.Context(), sessionID(c), req.Method)
	if err != nil {
		ctrl.respondError(c, err, st)
		return
	}
	c.JSON(http.StatusOK, ctrl.view(st))
}

// PUT /api/v1/checkout/details
func (ctrl *CheckoutController) UpdateDetails(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req UpdateDetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid checkout details", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "invalid request data")
		return
	}

	st, err := ctrl.checkoutService.UpdateDetails(c.Request.Context(), sessionID(c), checkout.Details{
		BuyerHandle:       req.BuyerHandle,
		ShippingAddress:   req.ShippingAddress,
		PhoneNumber:       req.PhoneNumber,
		Remark:            req.Remark,
		TransactionNumber: req.TransactionNumber,
	})
	if err != nil {
		ctrl.respondError(c, err, st)
		return
	}
	c.JSON(http.StatusOK, ctrl.view(st))
}

// RequestReview validates the form and returns the order summary
// POST /api/v1/checkout/review
func (ctrl *CheckoutController) RequestReview(c *gin.Context) {
	summary, st, err := ctrl.checkoutService.RequestReview(c.Request.Context(), sessionID(c))
	if err != nil {
		ctrl.respondError(c, err, st)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"checkout": ctrl.view(st),
		"summary":  summary,
	})
}

// DELETE /api/v1/checkout/review
func (ctrl *CheckoutController) CancelReview(c *gin.Context) {
	st, err := ctrl.checkoutService.CancelReview(c.Request.Context(), sessionID(c))
	if err != nil {
		ctrl.respondError(c, err, st)
		return
	}
	c.JSON(http.StatusOK, ctrl.view(st))
}

// Confirm is the secondary confirmation inside the summary
// POST /api/v1/checkout/confirm
func (ctrl *CheckoutController) Confirm(c *gin.Context) {
	st, err := ctrl.checkoutService.Confirm(c.Request.Context(), sessionID(c))
	if err != nil {
		ctrl.respondError(c, err, st)
		return
	}
	c.JSON(http.StatusOK, ctrl.view(st))
}

// Retry leaves the failed state
// POST /api/v1/checkout/retry
func (ctrl *CheckoutController) Retry(c *gin.Context) {
	st, err := ctrl.checkoutService.Recover(c.Request.Context(), sessionID(c))
	if err != nil {
		ctrl.respondError(c, err, st)
		return
	}
	c.JSON(http.StatusOK, ctrl.view(st))
}

// Continue leaves the success view without waiting for the redirect
// POST /api/v1/checkout/continue
func (ctrl *CheckoutController) Continue(c *gin.Context) {
	location, err := ctrl.checkoutService.Continue(c.Request.Context(), sessionID(c))
	if err != nil {
		ctrl.respondError(c, err, checkout.State{})
		return
	}
	c.JSON(http.StatusOK, gin.H{"redirect_to": location})
}

func (ctrl *CheckoutController) respondError(c *gin.Context, err error, st checkout.State) {
	log := middleware.GetLoggerFromContext(c)

	var withState *checkoutView
	if st.Phase != "" {
		v := ctrl.view(st)
		withState = &v
	}
	respond := func(status int, code, message string) {
		c.JSON(status, checkoutErrorResponse{Error: code, Message: message, Checkout: withState})
	}

	var verr *checkout.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, checkoutErrorResponse{
			Error:    apperrors.CheckoutValidationFailed,
			Message:  "some fields need attention",
			Fields:   verr.Fields,
			Checkout: withState,
		})
	case errors.Is(err, service.ErrCartEmpty):
		c.JSON(http.StatusConflict, checkoutErrorResponse{
			Error:      apperrors.CartEmpty,
			Message:    "your cart is empty",
			RedirectTo: ctrl.defaultLanding,
		})
	case errors.Is(err, service.ErrStoreChanged):
		c.JSON(http.StatusConflict, checkoutErrorResponse{
			Error:      apperrors.CheckoutStoreChanged,
			Message:    "your cart now holds items from another store, start checkout again",
			RedirectTo: ctrl.defaultLanding,
		})
	case errors.Is(err, service.ErrMissingSession):
		apperrors.Unauthorized(c, apperrors.SessionInvalid, "")
	case errors.Is(err, service.ErrCheckoutNotStarted):
		respond(http.StatusNotFound, apperrors.CheckoutNotStarted, "checkout has not been started")
	case errors.Is(err, service.ErrStoreNotFound):
		respond(http.StatusNotFound, apperrors.StoreNotFound, "store not found")
	case errors.Is(err, service.ErrStoreUnavailable):
		log.Error("Store lookup failed during checkout", err)
		respond(http.StatusServiceUnavailable, apperrors.StoreUnavailable, "store information is unavailable, please try again")
	case errors.Is(err, checkout.ErrPaymentUnavailable):
		respond(http.StatusUnprocessableEntity, apperrors.PaymentMethodUnavailable, "this store does not accept that payment method")
	case errors.Is(err, checkout.ErrWindowExpired):
		respond(http.StatusConflict, apperrors.PaymentWindowExpired, "payment window expired, select a payment method again")
	case errors.Is(err, service.ErrSubmissionInProgress):
		respond(http.StatusConflict, apperrors.CheckoutSubmitting, "order is being submitted")
	case errors.Is(err, service.ErrSubmitFailed):
		respond(http.StatusUnprocessableEntity, apperrors.CheckoutSubmitFailed, "order could not be prepared, please review and try again")
	case errors.Is(err, checkout.ErrInvalidTransition):
		respond(http.StatusConflict, apperrors.CheckoutInvalidTransition, err.Error())
	case errors.Is(err, checkout.ErrSessionClosed):
		respond(http.StatusGone, apperrors.CheckoutNotStarted, "checkout session has ended")
	default:
		log.Error("Checkout request failed", err)
		apperrors.ParseAndRespond(c, err, "checkout")
	}
}
