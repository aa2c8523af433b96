package scheduler

import (
	"time"

	"github.com/ikkim/storefront-backend/internal/app/service"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

// SessionSweeper periodically drops abandoned checkout sessions and idle
// in-memory carts. Persisted cart contents are untouched.
type SessionSweeper struct {
	cron     *cron.Cron
	schedule string
	checkout service.CheckoutService
	carts    service.CartService
	now      func() time.Time
}

func NewSessionSweeper(schedule string, checkout service.CheckoutService, carts service.CartService) *SessionSweeper {
	return &SessionSweeper{
		cron:     cron.New(),
		schedule: schedule,
		checkout: checkout,
		carts:    carts,
		now:      time.Now,
	}
}

// Start registers the sweep job and starts the cron runner.
func (s *SessionSweeper) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.Sweep); err != nil {
		logger.Error("Failed to add cron job for session sweep", err, map[string]interface{}{
			"schedule": s.schedule,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Session sweeper started", map[string]interface{}{
		"schedule": s.schedule,
	})
	return nil
}

// Sweep runs one pass.
func (s *SessionSweeper) Sweep() {
	now := s.now()
	sessions := s.checkout.Sweep(now)
	carts := s.carts.EvictIdle(now)
	logger.Debug("Session sweep finished", map[string]interface{}{
		"checkout_sessions": sessions,
		"carts":             carts,
	})
}

// Stop waits for a running sweep to finish.
func (s *SessionSweeper) Stop() {
	logger.Info("Stopping session sweeper...")
	<-s.cron.Stop().Done()
	logger.Info("Session sweeper stopped")
}
