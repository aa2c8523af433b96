package checkout

import (
	"time"

	"github.com/ikkim/storefront-backend/internal/app/model"
)

// Event is anything the UI (or a timer) can dispatch into the machine.
type Event interface {
	Name() string
}

// SelectPayment picks a payment method and (re)starts the payment window.
type SelectPayment struct {
	Method  model.PaymentMethod
	Options []model.PaymentOption
	Window  time.Duration
	At      time.Time
}

// EditDetails replaces the buyer-supplied fields.
type EditDetails struct {
	Details Details
}

// RequestReview is the first "confirm order" click; it opens the summary.
type RequestReview struct {
	At time.Time
}

// CancelReview closes the summary without side effects.
type CancelReview struct{}

// ConfirmOrder is the secondary confirmation inside the summary.
type ConfirmOrder struct {
	At time.Time
}

// OrderSent ends submission; delivery failures still end here.
type OrderSent struct {
	Order      model.OrderIntent
	Delivered  bool
	Attempts   int
	RedirectTo string
	RedirectAt time.Time
}

// SubmitFailed ends submission when no order could be built.
type SubmitFailed struct {
	Reason string
}

// Recover leaves the failed state for another attempt.
type Recover struct{}

// WindowElapsed is fired by the countdown timer.
type WindowElapsed struct {
	At time.Time
}

// Navigate leaves the success view, manually or by the redirect timer.
type Navigate struct{}

func (SelectPayment) Name() string { return "select_payment" }
func (EditDetails) Name() string   { return "edit_details" }
func (RequestReview) Name() string { return "request_review" }
func (CancelReview) Name() string  { return "cancel_review" }
func (ConfirmOrder) Name() string  { return "confirm_order" }
func (OrderSent) Name() string     { return "order_sent" }
func (SubmitFailed) Name() string  { return "submit_failed" }
func (Recover) Name() string       { return "recover" }
func (WindowElapsed) Name() string { return "window_elapsed" }
func (Navigate) Name() string      { return "navigate" }
