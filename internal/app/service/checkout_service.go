package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/checkout"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/ikkim/storefront-backend/pkg/metrics"
	"github.com/ikkim/storefront-backend/pkg/notify"
	"github.com/ikkim/storefront-backend/pkg/retry"
)

var (
	ErrCartEmpty            = errors.New("cart is empty")
	ErrCheckoutNotStarted   = errors.New("checkout has not been started")
	ErrSubmissionInProgress = errors.New("order is being submitted")
	ErrSubmitFailed         = errors.New("order could not be prepared")
	ErrStoreChanged         = errors.New("cart now holds another store's items")
)

// Notifier delivers an order to store staff.
type Notifier interface {
	Send(ctx context.Context, n notify.OrderNotification) error
}

// CheckoutPublisher receives every state change of a session.
type CheckoutPublisher interface {
	PublishCheckout(sessionID string, state checkout.State)
}

type CheckoutOptions struct {
	PaymentWindow  time.Duration
	RedirectDelay  time.Duration
	DefaultLanding string
	IdleTimeout    time.Duration
	Retry          retry.Policy
	Clock          checkout.Clock
	Metrics        *metrics.CheckoutMetrics
	Publisher      CheckoutPublisher
}

type CheckoutService interface {
	Open(ctx context.Context, sessionID string) (checkout.State, error)
	State(sessionID string) (checkout.State, error)
	SelectPayment(ctx context.Context, sessionID string, method model.PaymentMethod) (checkout.State, error)
	UpdateDetails(ctx context.Context, sessionID string, details checkout.Details) (checkout.State, error)
	RequestReview(ctx context.Context, sessionID string) (*checkout.Summary, checkout.State, error)
	CancelReview(ctx context.Context, sessionID string) (checkout.State, error)
	Confirm(ctx context.Context, sessionID string) (checkout.State, error)
	Recover(ctx context.Context, sessionID string) (checkout.State, error)
	Continue(ctx context.Context, sessionID string) (string, error)
	Leave(ctx context.Context, sessionID string) error
	Subscribe(sessionID string, fn checkout.Observer) error
	Sweep(now time.Time) int
}

type checkoutService struct {
	carts    CartService
	stores   StoreService
	notifier Notifier
	opts     CheckoutOptions

	mu       sync.Mutex
	sessions map[string]*checkout.Session
}

func NewCheckoutService(carts CartService, stores StoreService, notifier Notifier, opts CheckoutOptions) CheckoutService {
	if opts.Clock == nil {
		opts.Clock = checkout.RealClock()
	}
	if opts.DefaultLanding == "" {
		opts.DefaultLanding = "/"
	}
	return &checkoutService{
		carts:    carts,
		stores:   stores,
		notifier: notifier,
		opts:     opts,
		sessions: make(map[string]*checkout.Session),
	}
}

func (s *checkoutService) session(sessionID string) (*checkout.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok || sess.Closed() {
		return nil, ErrCheckoutNotStarted
	}
	return sess, nil
}

// Open enters checkout. An empty cart is refused unless an order is in
// flight or just completed for this session.
func (s *checkoutService) Open(ctx context.Context, sessionID string) (checkout.State, error) {
	if existing, err := s.session(sessionID); err == nil {
		st := existing.Snapshot()
		if st.Phase == checkout.PhaseSubmitting || (st.Phase == checkout.PhaseSucceeded && !st.Navigated) {
			return st, nil
		}
	}

	cart, err := s.carts.Cart(ctx, sessionID)
	if err != nil {
		return checkout.State{}, err
	}
	if cart.ItemCount() == 0 {
		s.drop(sessionID)
		logger.Info("Checkout refused: cart is empty", map[string]interface{}{
			"session_id": sessionID,
		})
		return checkout.State{}, ErrCartEmpty
	}

	storeID := cart.StoreID()
	if _, err := s.stores.GetStore(ctx, storeID); err != nil {
		return checkout.State{}, err
	}

	s.mu.Lock()
	if sess, ok := s.sessions[sessionID]; ok && !sess.Closed() {
		st := sess.Snapshot()
		if st.StoreID == storeID && !st.Terminal() {
			s.mu.Unlock()
			return st, nil
		}
		sess.Close()
	}
	sess := checkout.NewSession(sessionID, storeID, checkout.SessionOptions{
		Clock:         s.opts.Clock,
		PaymentWindow: s.opts.PaymentWindow,
		RedirectDelay: s.opts.RedirectDelay,
	})
	sess.Subscribe(func(st checkout.State) {
		if s.opts.Publisher != nil {
			s.opts.Publisher.PublishCheckout(sessionID, st)
		}
	})
	s.sessions[sessionID] = sess
	s.mu.Unlock()

	logger.Info("Checkout started", map[string]interface{}{
		"session_id": sessionID,
		"store_id":   storeID,
		"items":      cart.ItemCount(),
	})
	s.opts.Metrics.IncTransition(string(checkout.PhaseSelectingPayment))
	return sess.Snapshot(), nil
}

func (s *checkoutService) State(sessionID string) (checkout.State, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return checkout.State{}, err
	}
	return sess.Snapshot(), nil
}

func (s *checkoutService) SelectPayment(ctx context.Context, sessionID string, method model.PaymentMethod) (checkout.State, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return checkout.State{}, err
	}

	cart, err := s.carts.Cart(ctx, sessionID)
	if err != nil {
		return sess.Snapshot(), err
	}
	if err := s.ensureSameStore(sess, cart); err != nil {
		return checkout.State{}, err
	}

	options, err := s.stores.PaymentOptions(ctx, sess.Snapshot().StoreID)
	if err != nil {
		return sess.Snapshot(), err
	}

	st, err := s.dispatch(sess, checkout.SelectPayment{Method: method, Options: options})
	if err != nil {
		logger.Warn("Payment method rejected", map[string]interface{}{
			"session_id": sessionID,
			"method":     method,
			"error":      err.Error(),
		})
		return st, err
	}
	logger.Info("Payment method selected", map[string]interface{}{
		"session_id":     sessionID,
		"method":         method,
		"window_ends_at": st.WindowEndsAt,
	})
	return st, nil
}

func (s *checkoutService) UpdateDetails(ctx context.Context, sessionID string, details checkout.Details) (checkout.State, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return checkout.State{}, err
	}
	return s.dispatch(sess, checkout.EditDetails{Details: details})
}

// RequestReview runs validation and, when it passes, returns the summary the
// buyer must confirm a second time.
func (s *checkoutService) RequestReview(ctx context.Context, sessionID string) (*checkout.Summary, checkout.State, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, checkout.State{}, err
	}

	cart, err := s.carts.Cart(ctx, sessionID)
	if err != nil {
		return nil, sess.Snapshot(), err
	}
	if cart.ItemCount() == 0 {
		return nil, sess.Snapshot(), ErrCartEmpty
	}
	if err := s.ensureSameStore(sess, cart); err != nil {
		return nil, checkout.State{}, err
	}
	store, err := s.stores.GetStore(ctx, sess.Snapshot().StoreID)
	if err != nil {
		return nil, sess.Snapshot(), err
	}

	st, err := s.dispatch(sess, checkout.RequestReview{})
	if err != nil {
		logger.Info("Checkout review refused", map[string]interface{}{
			"session_id": sessionID,
			"errors":     st.Errors,
		})
		return nil, st, err
	}

	summary := checkout.BuildSummary(store, cart.Items(), st)
	return &summary, st, nil
}

func (s *checkoutService) CancelReview(ctx context.Context, sessionID string) (checkout.State, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return checkout.State{}, err
	}
	return s.dispatch(sess, checkout.CancelReview{})
}

// Confirm submits the order. Notification is best effort: once the order
// intent is built the flow always ends in success and the ordered lines leave
// the cart.
func (s *checkoutService) Confirm(ctx context.Context, sessionID string) (checkout.State, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return checkout.State{}, err
	}

	cart, cartErr := s.carts.Cart(ctx, sessionID)
	if cartErr == nil {
		if err := s.ensureSameStore(sess, cart); err != nil {
			return checkout.State{}, err
		}
	}

	st, err := s.dispatch(sess, checkout.ConfirmOrder{})
	if err != nil {
		return st, err
	}
	if cartErr != nil {
		return s.fail(sess, cartErr)
	}

	// only these lines are ordered; anything added while submitting stays
	ordered := cart.Items()
	intent, err := checkout.NewOrderIntent(st.StoreID, ordered, st.Payment, st.Details)
	if err != nil {
		return s.fail(sess, err)
	}

	delivered, attempts := s.deliver(context.WithoutCancel(ctx), sessionID, intent)

	if err := cart.RemoveOrdered(context.WithoutCancel(ctx), ordered); err != nil {
		logger.Warn("Ordered lines removed in memory only", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
	}

	st, err = s.dispatch(sess, checkout.OrderSent{
		Order:      intent,
		Delivered:  delivered,
		Attempts:   attempts,
		RedirectTo: s.redirectTarget(st.StoreID),
	})
	if err != nil {
		return st, err
	}

	logger.Info("Order sent", map[string]interface{}{
		"session_id":     sessionID,
		"store_id":       intent.StoreID,
		"total":          intent.TotalAmount.String(),
		"payment_method": intent.PaymentMethod,
		"delivered":      delivered,
	})
	return st, nil
}

func (s *checkoutService) deliver(ctx context.Context, sessionID string, intent model.OrderIntent) (bool, int) {
	if s.notifier == nil {
		logger.Warn("No order notifier configured, skipping notification", map[string]interface{}{
			"session_id": sessionID,
			"store_id":   intent.StoreID,
		})
		s.opts.Metrics.ObserveNotification(false, 0)
		return false, 0
	}

	payload := checkout.ToNotification(intent)
	outcome := retry.Do(ctx, s.opts.Retry, func(ctx context.Context) error {
		return s.notifier.Send(ctx, payload)
	})
	s.opts.Metrics.ObserveNotification(outcome.Succeeded(), outcome.Attempts)

	if !outcome.Succeeded() {
		logger.Error("Order notification failed", outcome.Err, map[string]interface{}{
			"session_id": sessionID,
			"store_id":   intent.StoreID,
			"attempts":   outcome.Attempts,
		})
		return false, outcome.Attempts
	}
	return true, outcome.Attempts
}

// ensureSameStore ends a session whose cart was switched to another store
// after checkout opened. In-flight and finished sessions are left alone.
func (s *checkoutService) ensureSameStore(sess *checkout.Session, cart *CartStore) error {
	st := sess.Snapshot()
	if st.Phase == checkout.PhaseSubmitting || st.Phase == checkout.PhaseSucceeded {
		return nil
	}
	cartStore := cart.StoreID()
	if cartStore == "" || cartStore == st.StoreID {
		return nil
	}
	logger.Warn("Cart switched store during checkout, session closed", map[string]interface{}{
		"session_id":     sess.ID(),
		"checkout_store": st.StoreID,
		"cart_store":     cartStore,
	})
	s.drop(sess.ID())
	return ErrStoreChanged
}

func (s *checkoutService) fail(sess *checkout.Session, cause error) (checkout.State, error) {
	logger.Error("Order could not be prepared", cause, map[string]interface{}{
		"session_id": sess.ID(),
	})
	st, err := s.dispatch(sess, checkout.SubmitFailed{Reason: cause.Error()})
	if err != nil {
		return st, err
	}
	return st, fmt.Errorf("%w: %v", ErrSubmitFailed, cause)
}

func (s *checkoutService) redirectTarget(storeID string) string {
	if storeID == "" {
		return s.opts.DefaultLanding
	}
	return "/stores/" + storeID
}

func (s *checkoutService) Recover(ctx context.Context, sessionID string) (checkout.State, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return checkout.State{}, err
	}
	return s.dispatch(sess, checkout.Recover{})
}

// Continue leaves the success view immediately and returns where to go.
func (s *checkoutService) Continue(ctx context.Context, sessionID string) (string, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return s.opts.DefaultLanding, err
	}
	st, err := s.dispatch(sess, checkout.Navigate{})
	if err != nil {
		return "", err
	}
	s.drop(sessionID)

	if st.RedirectTo == "" {
		return s.opts.DefaultLanding, nil
	}
	return st.RedirectTo, nil
}

// Leave abandons checkout before submission and cancels its timers.
func (s *checkoutService) Leave(ctx context.Context, sessionID string) error {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil
	}
	if sess.Snapshot().Phase == checkout.PhaseSubmitting {
		return ErrSubmissionInProgress
	}
	s.drop(sessionID)
	logger.Info("Checkout left", map[string]interface{}{
		"session_id": sessionID,
	})
	return nil
}

func (s *checkoutService) Subscribe(sessionID string, fn checkout.Observer) error {
	sess, err := s.session(sessionID)
	if err != nil {
		return err
	}
	sess.Subscribe(fn)
	return nil
}

// Sweep closes sessions that have navigated away or sat idle past the
// configured timeout. Sessions mid-submission are never swept.
func (s *checkoutService) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	swept := 0
	for id, sess := range s.sessions {
		st := sess.Snapshot()
		if st.Phase == checkout.PhaseSubmitting {
			continue
		}
		idle := s.opts.IdleTimeout > 0 && now.Sub(sess.LastActive()) > s.opts.IdleTimeout
		if sess.Closed() || st.Navigated || idle {
			sess.Close()
			delete(s.sessions, id)
			swept++
		}
	}
	if swept > 0 {
		logger.Info("Swept checkout sessions", map[string]interface{}{
			"swept":     swept,
			"remaining": len(s.sessions),
		})
	}
	return swept
}

func (s *checkoutService) drop(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[sessionID]; ok {
		sess.Close()
		delete(s.sessions, sessionID)
	}
}

func (s *checkoutService) dispatch(sess *checkout.Session, ev checkout.Event) (checkout.State, error) {
	prev := sess.Snapshot().Phase
	st, err := sess.Dispatch(ev)
	if err == nil && st.Phase != prev {
		s.opts.Metrics.IncTransition(string(st.Phase))
	}
	return st, err
}
