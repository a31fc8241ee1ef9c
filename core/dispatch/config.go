package dispatch

import (
	"fmt"
	"time"
)

// Config defines the scheduler parameters loaded from configuration. None of
// them is hardcoded in the core.
type Config struct {
	Platforms           []string `json:"platforms"`
	MaxConcurrentOrders int      `json:"max_concurrent_orders"`
	// RetryAttempts is the number of retries after the initial acceptance
	// attempt, so an order sees at most RetryAttempts+1 calls per cycle.
	RetryAttempts       int     `json:"retry_attempts"`
	RetryDelaySeconds   float64 `json:"retry_delay_seconds"`
	CycleTimeoutSeconds float64 `json:"cycle_timeout_seconds"`
}

// SetDefaults fills unset fields whose zero value is invalid. The retry and
// timeout fields keep their zero values: 0 retries and no cycle deadline are
// legitimate configurations, so their defaults live in the config layer where
// unset and explicit zero are distinguishable.
func (c *Config) SetDefaults() {
	if c.MaxConcurrentOrders == 0 {
		c.MaxConcurrentOrders = 200
	}
}

// Validate rejects configurations the scheduler cannot run with.
func (c Config) Validate() error {
	if len(c.Platforms) == 0 {
		return fmt.Errorf("at least one platform is required")
	}
	if c.MaxConcurrentOrders <= 0 {
		return fmt.Errorf("max_concurrent_orders must be positive, got %d", c.MaxConcurrentOrders)
	}
	if c.RetryAttempts < 0 {
		return fmt.Errorf("retry_attempts must not be negative, got %d", c.RetryAttempts)
	}
	if c.RetryDelaySeconds < 0 {
		return fmt.Errorf("retry_delay_seconds must not be negative, got %f", c.RetryDelaySeconds)
	}
	return nil
}

// RetryDelay returns the fixed inter-attempt delay.
func (c Config) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelaySeconds * float64(time.Second))
}

// CycleTimeout returns the per-cycle deadline.
func (c Config) CycleTimeout() time.Duration {
	return time.Duration(c.CycleTimeoutSeconds * float64(time.Second))
}
