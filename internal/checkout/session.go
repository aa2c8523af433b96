package checkout

import (
	"errors"
	"sync"
	"time"
)

var ErrSessionClosed = errors.New("checkout session is closed")

const (
	DefaultPaymentWindow = 15 * time.Minute
	DefaultRedirectDelay = 10 * time.Second
)

// Observer is called after every dispatched event with the resulting state.
type Observer func(State)

// Session owns one buyer's checkout state and the two timers attached to it:
// the payment window countdown and the post-success redirect.
type Session struct {
	mu            sync.Mutex
	id            string
	state         State
	clock         Clock
	window        time.Duration
	redirectDelay time.Duration

	countdown    Timer
	countdownGen int
	redirect     Timer
	redirectGen  int

	observers  []Observer
	closed     bool
	lastActive time.Time
}

type SessionOptions struct {
	Clock         Clock
	PaymentWindow time.Duration
	RedirectDelay time.Duration
}

func NewSession(id, storeID string, opts SessionOptions) *Session {
	if opts.Clock == nil {
		opts.Clock = RealClock()
	}
	if opts.PaymentWindow <= 0 {
		opts.PaymentWindow = DefaultPaymentWindow
	}
	if opts.RedirectDelay <= 0 {
		opts.RedirectDelay = DefaultRedirectDelay
	}
	return &Session{
		id:            id,
		state:         NewState(storeID),
		clock:         opts.Clock,
		window:        opts.PaymentWindow,
		redirectDelay: opts.RedirectDelay,
		lastActive:    opts.Clock.Now(),
	}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Now() time.Time {
	return s.clock.Now()
}

// RedirectDelay is how long the success view stays before navigating away.
func (s *Session) RedirectDelay() time.Duration {
	return s.redirectDelay
}

func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Subscribe registers fn for every later state change.
func (s *Session) Subscribe(fn Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

// Dispatch applies ev and starts or stops timers according to the
// transition. The returned state is what the buyer should see, also when
// err is non-nil.
func (s *Session) Dispatch(ev Event) (State, error) {
	s.mu.Lock()
	if s.closed {
		st := s.state.clone()
		s.mu.Unlock()
		return st, ErrSessionClosed
	}

	ev = s.stamp(ev)
	prev := s.state
	next, err := Apply(prev, ev)
	s.state = next
	s.lastActive = s.clock.Now()

	if err == nil {
		s.scheduleLocked(prev, next, ev)
	}

	out := next.clone()
	observers := append([]Observer(nil), s.observers...)
	s.mu.Unlock()

	for _, fn := range observers {
		fn(out)
	}
	return out, err
}

// Close stops both timers. Later dispatches fail with ErrSessionClosed.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.stopCountdownLocked()
	s.stopRedirectLocked()
}

func (s *Session) stamp(ev Event) Event {
	now := s.clock.Now()
	switch e := ev.(type) {
	case SelectPayment:
		if e.At.IsZero() {
			e.At = now
		}
		if e.Window <= 0 {
			e.Window = s.window
		}
		return e
	case RequestReview:
		if e.At.IsZero() {
			e.At = now
		}
		return e
	case ConfirmOrder:
		if e.At.IsZero() {
			e.At = now
		}
		return e
	case WindowElapsed:
		if e.At.IsZero() {
			e.At = now
		}
		return e
	case OrderSent:
		if e.RedirectAt.IsZero() {
			e.RedirectAt = now.Add(s.redirectDelay)
		}
		return e
	}
	return ev
}

func (s *Session) scheduleLocked(prev, next State, ev Event) {
	switch ev.(type) {
	case SelectPayment:
		s.startCountdownLocked(next.WindowEndsAt.Sub(s.clock.Now()))
	case WindowElapsed:
		if next.Expired {
			s.stopCountdownLocked()
		}
	case Navigate:
		s.stopRedirectLocked()
	}

	if next.Phase == PhaseSucceeded && prev.Phase != PhaseSucceeded {
		s.stopCountdownLocked()
		delay := next.RedirectAt.Sub(s.clock.Now())
		if delay < 0 {
			delay = 0
		}
		s.startRedirectLocked(delay)
	}
}

func (s *Session) startCountdownLocked(d time.Duration) {
	s.stopCountdownLocked()
	gen := s.countdownGen
	s.countdown = s.clock.AfterFunc(d, func() {
		if !s.timerCurrent(&s.countdownGen, gen) {
			return
		}
		_, _ = s.Dispatch(WindowElapsed{})
	})
}

func (s *Session) stopCountdownLocked() {
	s.countdownGen++
	if s.countdown != nil {
		s.countdown.Stop()
		s.countdown = nil
	}
}

func (s *Session) startRedirectLocked(d time.Duration) {
	s.stopRedirectLocked()
	gen := s.redirectGen
	s.redirect = s.clock.AfterFunc(d, func() {
		if !s.timerCurrent(&s.redirectGen, gen) {
			return
		}
		_, _ = s.Dispatch(Navigate{})
	})
}

func (s *Session) stopRedirectLocked() {
	s.redirectGen++
	if s.redirect != nil {
		s.redirect.Stop()
		s.redirect = nil
	}
}

func (s *Session) timerCurrent(gen *int, want int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed && *gen == want
}
