// Package checkout holds the checkout flow as an explicit state machine.
// State values are immutable from the caller's point of view: Apply returns
// a new State for every event and never mutates its input.
package checkout

import (
	"time"

	"github.com/ikkim/storefront-backend/internal/app/model"
)

type Phase string

const (
	PhaseSelectingPayment     Phase = "selecting_payment"
	PhaseAwaitingConfirmation Phase = "awaiting_confirmation"
	PhaseReviewing            Phase = "reviewing"
	PhaseSubmitting           Phase = "submitting"
	PhaseSucceeded            Phase = "success"
	PhaseFailed               Phase = "failed"
)

func (p Phase) String() string {
	return string(p)
}

// Details are the buyer-supplied order fields.
type Details struct {
	BuyerHandle       string `json:"buyer_handle" validate:"required,max=64"`
	ShippingAddress   string `json:"shipping_address" validate:"required,max=500"`
	PhoneNumber       string `json:"phone_number" validate:"max=32"`
	Remark            string `json:"remark" validate:"max=1000"`
	TransactionNumber string `json:"transaction_number" validate:"omitempty,txref"`
}

// Notification records how delivery to store staff went.
type Notification struct {
	Delivered bool `json:"delivered"`
	Attempts  int  `json:"attempts"`
}

// State is one snapshot of a checkout flow.
type State struct {
	Phase        Phase               `json:"phase"`
	StoreID      string              `json:"store_id"`
	Payment      model.PaymentMethod `json:"payment_method,omitempty"`
	Details      Details             `json:"details"`
	WindowEndsAt time.Time           `json:"window_ends_at,omitempty"`
	Expired      bool                `json:"expired"`
	Errors       map[string]string   `json:"errors,omitempty"`
	FailReason   string              `json:"fail_reason,omitempty"`
	Order        *model.OrderIntent  `json:"order,omitempty"`
	Notification Notification        `json:"-"`
	RedirectTo   string              `json:"redirect_to,omitempty"`
	RedirectAt   time.Time           `json:"redirect_at,omitempty"`
	Navigated    bool                `json:"navigated"`
}

// NewState is the initial state for a store's checkout.
func NewState(storeID string) State {
	return State{Phase: PhaseSelectingPayment, StoreID: storeID}
}

// PaymentSelected is the sub-state in which order details become required.
func (s State) PaymentSelected() bool {
	return s.Payment != ""
}

// Remaining is the time left in the payment window, never negative.
func (s State) Remaining(now time.Time) time.Duration {
	if s.WindowEndsAt.IsZero() || s.Expired {
		return 0
	}
	if d := s.WindowEndsAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

// CanConfirm reports whether the confirm action is enabled.
func (s State) CanConfirm(now time.Time) bool {
	if s.Phase != PhaseAwaitingConfirmation && s.Phase != PhaseReviewing {
		return false
	}
	return s.PaymentSelected() && s.Remaining(now) > 0
}

// Terminal is true once the order has been handed off.
func (s State) Terminal() bool {
	return s.Phase == PhaseSucceeded
}

func (s State) clone() State {
	out := s
	if s.Errors != nil {
		out.Errors = make(map[string]string, len(s.Errors))
		for k, v := range s.Errors {
			out.Errors[k] = v
		}
	}
	return out
}
