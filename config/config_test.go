package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	data := `ledger:
  backend: "jsonl"
  path: "data/ledger.log"
dispatch:
  max_concurrent_orders: 5
  retry_attempts: 2
  retry_delay_seconds: 0.5
  cycle_timeout_seconds: 60
scoring:
  priority_cut_high: 5000
  priority_cut_medium: 2300
threshold:
  order_threshold_floor: 2300
  region_heat: 0.3
platforms:
  foodpanda:
    base_url: "https://fp.example.com/orders"
    token: "secret"
    weight: 1.2
  ubereats:
    base_url: "https://ue.example.com/orders"
    weight: 1.0
loops:
  cycle_interval_seconds: 3600
`
	cfg, err := Load(writeConfig(t, "config.yaml", data))
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"ledger backend", cfg.Ledger.Backend, "jsonl"},
		{"max concurrent", cfg.Dispatch.MaxConcurrentOrders, 5},
		{"retry attempts", cfg.Dispatch.RetryAttempts, 2},
		{"cut high", cfg.Scoring.PriorityCutHigh, 5000.0},
		{"cut medium", cfg.Scoring.PriorityCutMedium, 2300.0},
		{"floor", cfg.Threshold.Floor, 2300.0},
		{"heat", cfg.Threshold.RegionHeat, 0.3},
		{"platform token", cfg.Platforms["foodpanda"].Token, "secret"},
		{"cycle interval", cfg.Loops.CycleIntervalSeconds, 3600},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Fatalf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestLoad_DefaultsPropagate(t *testing.T) {
	data := `platforms:
  foodpanda:
    base_url: "https://fp.example.com/orders"
    weight: 1.2
`
	cfg, err := Load(writeConfig(t, "config.yaml", data))
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if len(cfg.Dispatch.Platforms) != 1 || cfg.Dispatch.Platforms[0] != "foodpanda" {
		t.Fatalf("dispatch platforms not derived: %v", cfg.Dispatch.Platforms)
	}
	if w := cfg.Scoring.PlatformWeights["foodpanda"]; w != 1.2 {
		t.Fatalf("platform weight not propagated: %v", w)
	}
	if cfg.Scoring.PriorityCutHigh != 50 || cfg.Scoring.PriorityCutMedium != 40 {
		t.Fatalf("default cuts missing: %v/%v", cfg.Scoring.PriorityCutHigh, cfg.Scoring.PriorityCutMedium)
	}
	if cfg.Dispatch.MaxConcurrentOrders != 200 {
		t.Fatalf("default cap = %d, want 200", cfg.Dispatch.MaxConcurrentOrders)
	}
	if cfg.Dispatch.RetryAttempts != 3 {
		t.Fatalf("default retries = %d, want 3", cfg.Dispatch.RetryAttempts)
	}
	if cfg.Dispatch.RetryDelaySeconds != 2 || cfg.Dispatch.CycleTimeoutSeconds != 300 {
		t.Fatalf("default delays missing: %+v", cfg.Dispatch)
	}
	if cfg.Loops.CycleIntervalSeconds != 7200 {
		t.Fatalf("default cycle interval = %d, want 7200", cfg.Loops.CycleIntervalSeconds)
	}
}

func TestLoad_ExplicitZeroRetries(t *testing.T) {
	data := `platforms:
  foodpanda:
    base_url: "https://fp.example.com/orders"
dispatch:
  retry_attempts: 0
  retry_delay_seconds: 0
`
	cfg, err := Load(writeConfig(t, "config.yaml", data))
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	// An explicit 0 is a no-retry deployment, not an unset field.
	if cfg.Dispatch.RetryAttempts != 0 {
		t.Fatalf("retry_attempts = %d, want 0", cfg.Dispatch.RetryAttempts)
	}
	if cfg.Dispatch.RetryDelaySeconds != 0 {
		t.Fatalf("retry_delay_seconds = %v, want 0", cfg.Dispatch.RetryDelaySeconds)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	data := `platforms:
  foodpanda:
    base_url: "https://fp.example.com/orders"
threshold:
  order_threshold_floor: 100
`
	t.Setenv("LD_THRESHOLD__ORDER_THRESHOLD_FLOOR", "2300")
	cfg, err := Load(writeConfig(t, "config.yaml", data))
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Threshold.Floor != 2300 {
		t.Fatalf("env override ignored: floor = %v", cfg.Threshold.Floor)
	}
}

func TestLoad_RejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"bad backend", "ledger:\n  backend: \"csv\"\nplatforms:\n  p:\n    base_url: \"http://x\"\n"},
		{"no platforms", "threshold:\n  order_threshold_floor: 10\n"},
		{"negative floor", "threshold:\n  order_threshold_floor: -5\nplatforms:\n  p:\n    base_url: \"http://x\"\n"},
	}
	for _, c := range cases {
		if _, err := Load(writeConfig(t, "config.yaml", c.data)); err == nil {
			t.Fatalf("%s: expected error", c.name)
		}
	}
}

func TestLoad_UnsupportedFormat(t *testing.T) {
	if _, err := Load(writeConfig(t, "config.toml", "x = 1\n")); err == nil {
		t.Fatal("expected error for unsupported extension")
	}
}
