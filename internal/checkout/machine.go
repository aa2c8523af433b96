package checkout

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ikkim/storefront-backend/internal/app/model"
)

var (
	ErrPaymentUnavailable = errors.New("payment method is not available for this store")
	ErrValidation         = errors.New("order details are incomplete")
	ErrWindowExpired      = errors.New("payment window has expired")
	ErrInvalidTransition  = errors.New("invalid checkout transition")
)

// TransitionError describes an event the current phase does not accept.
type TransitionError struct {
	From  Phase
	Event string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s is not allowed while %s", e.Event, e.From)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// ValidationError carries the per-field messages shown inline.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(keys, ", "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func reject(s State, ev Event) (State, error) {
	return s, &TransitionError{From: s.Phase, Event: ev.Name()}
}

// Apply is the transition function. On error the returned state is the one
// the UI should render: it may carry visible errors but its phase, payment
// and window are unchanged.
func Apply(s State, ev Event) (State, error) {
	next := s.clone()

	switch e := ev.(type) {
	case SelectPayment:
		if s.Phase != PhaseSelectingPayment && s.Phase != PhaseAwaitingConfirmation {
			return reject(s, ev)
		}
		if !methodEnabled(e.Method, e.Options) {
			next.setError(FieldPayment, ErrPaymentUnavailable.Error())
			return next, fmt.Errorf("%w: %s", ErrPaymentUnavailable, e.Method)
		}
		next.Phase = PhaseAwaitingConfirmation
		next.Payment = e.Method
		next.WindowEndsAt = e.At.Add(e.Window)
		next.Expired = false
		next.Errors = nil
		return next, nil

	case EditDetails:
		if s.Phase != PhaseAwaitingConfirmation {
			return reject(s, ev)
		}
		next.Details = e.Details
		next.clearFieldErrors()
		return next, nil

	case RequestReview:
		if s.Phase != PhaseAwaitingConfirmation {
			return reject(s, ev)
		}
		if !s.CanConfirm(e.At) {
			next.Expired = next.Expired || (!s.WindowEndsAt.IsZero() && !e.At.Before(s.WindowEndsAt))
			next.setError(FieldWindow, ErrWindowExpired.Error())
			return next, ErrWindowExpired
		}
		if fields := ValidateDetails(s.Payment, s.Details); len(fields) > 0 {
			next.Errors = fields
			return next, &ValidationError{Fields: fields}
		}
		next.Phase = PhaseReviewing
		next.Details = Normalize(s.Payment, s.Details)
		next.Errors = nil
		return next, nil

	case CancelReview:
		if s.Phase != PhaseReviewing {
			return reject(s, ev)
		}
		next.Phase = PhaseAwaitingConfirmation
		return next, nil

	case ConfirmOrder:
		if s.Phase != PhaseReviewing {
			return reject(s, ev)
		}
		if !s.CanConfirm(e.At) {
			next.Phase = PhaseAwaitingConfirmation
			next.Expired = true
			next.setError(FieldWindow, ErrWindowExpired.Error())
			return next, ErrWindowExpired
		}
		next.Phase = PhaseSubmitting
		next.Errors = nil
		return next, nil

	case OrderSent:
		if s.Phase != PhaseSubmitting {
			return reject(s, ev)
		}
		order := e.Order
		next.Phase = PhaseSucceeded
		next.Order = &order
		next.Notification = Notification{Delivered: e.Delivered, Attempts: e.Attempts}
		next.RedirectTo = e.RedirectTo
		next.RedirectAt = e.RedirectAt
		next.Errors = nil
		return next, nil

	case SubmitFailed:
		if s.Phase != PhaseSubmitting {
			return reject(s, ev)
		}
		next.Phase = PhaseFailed
		next.FailReason = e.Reason
		next.setError(FieldOrder, e.Reason)
		return next, nil

	case Recover:
		if s.Phase != PhaseFailed {
			return reject(s, ev)
		}
		next.Phase = PhaseAwaitingConfirmation
		next.FailReason = ""
		next.Errors = nil
		return next, nil

	case WindowElapsed:
		if s.Phase != PhaseAwaitingConfirmation && s.Phase != PhaseReviewing {
			return s, nil
		}
		if s.WindowEndsAt.IsZero() || e.At.Before(s.WindowEndsAt) {
			return s, nil
		}
		next.Expired = true
		next.Phase = PhaseAwaitingConfirmation
		return next, nil

	case Navigate:
		if s.Phase != PhaseSucceeded {
			return reject(s, ev)
		}
		next.Navigated = true
		return next, nil
	}

	return s, fmt.Errorf("%w: unknown event %T", ErrInvalidTransition, ev)
}

func methodEnabled(m model.PaymentMethod, options []model.PaymentOption) bool {
	if !m.Valid() {
		return false
	}
	for _, opt := range options {
		if opt.Method == m {
			return opt.Enabled
		}
	}
	return false
}

func (s *State) setError(field, msg string) {
	if s.Errors == nil {
		s.Errors = map[string]string{}
	}
	s.Errors[field] = msg
}

func (s *State) clearFieldErrors() {
	for _, f := range []string{FieldBuyerHandle, FieldShippingAddress, FieldTransactionNumber, "phone_number", "remark"} {
		delete(s.Errors, f)
	}
	if len(s.Errors) == 0 {
		s.Errors = nil
	}
}
