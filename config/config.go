package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/lightningtw/dispatchd/core/dispatch"
	"github.com/lightningtw/dispatchd/core/metrics"
	"github.com/lightningtw/dispatchd/core/scoring"
	"github.com/lightningtw/dispatchd/infra/notify"
	"github.com/lightningtw/dispatchd/infra/source"
)

type Config struct {
	Ledger    LedgerConfig                     `json:"ledger"`
	Dispatch  dispatch.Config                  `json:"dispatch"`
	Scoring   scoring.Config                   `json:"scoring"`
	Threshold ThresholdConfig                  `json:"threshold"`
	Platforms map[string]source.PlatformConfig `json:"platforms"`
	Metrics   metrics.Config                   `json:"metrics"`
	Notify    notify.Config                    `json:"notify"`
	CycleLog  CycleLogConfig                   `json:"cycle_log"`
	Payout    PayoutConfig                     `json:"payout"`
	Loops     LoopsConfig                      `json:"loops"`
}

// Load reads the configuration file, applies LD_ environment overrides and
// validates the result. A partially configured system must not start.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	// Defaults load first so the file and environment override them. Fields
	// whose zero value is meaningful live here rather than in SetDefaults: an
	// unset retry_attempts means 3, a configured 0 means no retries.
	if err := k.Load(confmap.Provider(map[string]any{
		"dispatch.retry_attempts":        3,
		"dispatch.retry_delay_seconds":   2.0,
		"dispatch.cycle_timeout_seconds": 300.0,
	}, "."), nil); err != nil {
		return nil, err
	}
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("LD_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "ld_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults fills unset fields on every section.
func (c *Config) SetDefaults() {
	c.Ledger.SetDefaults()
	c.Dispatch.SetDefaults()
	c.Scoring.SetDefaults()
	c.Notify.SetDefaults()
	c.CycleLog.SetDefaults()
	c.Payout.SetDefaults()
	c.Loops.SetDefaults()
	if len(c.Dispatch.Platforms) == 0 {
		for p := range c.Platforms {
			c.Dispatch.Platforms = append(c.Dispatch.Platforms, p)
		}
	}
	if c.Scoring.PlatformWeights == nil {
		c.Scoring.PlatformWeights = make(map[string]float64)
	}
	for p, pc := range c.Platforms {
		if _, ok := c.Scoring.PlatformWeights[p]; !ok && pc.Weight > 0 {
			c.Scoring.PlatformWeights[p] = pc.Weight
		}
	}
}

// Validate aggregates section validations.
func (c *Config) Validate() error {
	if err := c.Ledger.Validate(); err != nil {
		return err
	}
	if err := c.Dispatch.Validate(); err != nil {
		return err
	}
	if err := c.Scoring.Validate(); err != nil {
		return err
	}
	if err := c.Threshold.Validate(); err != nil {
		return err
	}
	return c.Loops.Validate()
}
