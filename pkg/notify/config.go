package notify

import "time"

// Config represents the configuration for the order notification client
type Config struct {
	// URL is the endpoint that receives new-order payloads
	URL string

	// APIKey is sent as a bearer token when set
	APIKey string

	// Timeout bounds a single delivery attempt
	Timeout time.Duration

	// BreakerFailures is the number of consecutive failures that opens the breaker
	BreakerFailures uint32

	// BreakerCooldown is how long the breaker stays open before probing again
	BreakerCooldown time.Duration
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.URL == "" {
		return ErrInvalidConfig
	}
	return nil
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.Timeout <= 0 {
		out.Timeout = 10 * time.Second
	}
	if out.BreakerFailures == 0 {
		out.BreakerFailures = 5
	}
	if out.BreakerCooldown <= 0 {
		out.BreakerCooldown = 30 * time.Second
	}
	return out
}
