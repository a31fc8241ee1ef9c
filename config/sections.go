package config

import (
	"fmt"
	"time"
)

// LedgerConfig selects the ledger backend.
type LedgerConfig struct {
	Backend string `json:"backend"` // jsonl or sqlite
	Path    string `json:"path"`
}

func (c *LedgerConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "jsonl"
	}
	if c.Path == "" {
		c.Path = "data/ledger.log"
	}
}

func (c LedgerConfig) Validate() error {
	switch c.Backend {
	case "jsonl", "sqlite":
	default:
		return fmt.Errorf("unsupported ledger backend: %s", c.Backend)
	}
	if c.Path == "" {
		return fmt.Errorf("ledger path is required")
	}
	return nil
}

// ThresholdConfig parameterizes the threshold predictor.
type ThresholdConfig struct {
	Floor float64 `json:"order_threshold_floor"`
	// RegionHeat is the static heat value used when no external provider is
	// wired; 0.0 means no peak amplification.
	RegionHeat float64 `json:"region_heat"`
}

func (c ThresholdConfig) Validate() error {
	if c.Floor < 0 {
		return fmt.Errorf("order_threshold_floor must not be negative, got %f", c.Floor)
	}
	if c.RegionHeat < 0 {
		return fmt.Errorf("region_heat must not be negative, got %f", c.RegionHeat)
	}
	return nil
}

// CycleLogConfig parameterizes the rotating cycle audit log.
type CycleLogConfig struct {
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
}

func (c *CycleLogConfig) SetDefaults() {
	if c.Path == "" {
		c.Path = "data/cycles.jsonl"
	}
	if c.MaxSizeMB == 0 {
		c.MaxSizeMB = 10
	}
	if c.MaxBackups == 0 {
		c.MaxBackups = 7
	}
	if c.MaxAgeDays == 0 {
		c.MaxAgeDays = 30
	}
}

// PayoutConfig parameterizes the payout record store.
type PayoutConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

func (c *PayoutConfig) SetDefaults() {
	if c.Path == "" {
		c.Path = "data/payouts.db"
	}
}

// LoopsConfig holds the intervals of the periodic loops.
type LoopsConfig struct {
	CycleIntervalSeconds     int `json:"cycle_interval_seconds"`
	HealthIntervalSeconds    int `json:"health_interval_seconds"`
	RecoverySeconds          int `json:"recovery_seconds"`
	RetentionIntervalSeconds int `json:"retention_interval_seconds"`
}

func (c *LoopsConfig) SetDefaults() {
	if c.CycleIntervalSeconds == 0 {
		c.CycleIntervalSeconds = 7200
	}
	if c.HealthIntervalSeconds == 0 {
		c.HealthIntervalSeconds = 60
	}
	if c.RecoverySeconds == 0 {
		c.RecoverySeconds = 300
	}
	if c.RetentionIntervalSeconds == 0 {
		c.RetentionIntervalSeconds = 86400
	}
}

func (c LoopsConfig) Validate() error {
	if c.CycleIntervalSeconds < 0 || c.HealthIntervalSeconds < 0 ||
		c.RecoverySeconds < 0 || c.RetentionIntervalSeconds < 0 {
		return fmt.Errorf("loop intervals must not be negative")
	}
	return nil
}

func (c LoopsConfig) CycleInterval() time.Duration {
	return time.Duration(c.CycleIntervalSeconds) * time.Second
}

func (c LoopsConfig) HealthInterval() time.Duration {
	return time.Duration(c.HealthIntervalSeconds) * time.Second
}

func (c LoopsConfig) Recovery() time.Duration {
	return time.Duration(c.RecoverySeconds) * time.Second
}

func (c LoopsConfig) RetentionInterval() time.Duration {
	return time.Duration(c.RetentionIntervalSeconds) * time.Second
}
