package notify

import (
	"context"
	"testing"

	"github.com/lightningtw/dispatchd/core/model"
)

func TestDeliveryPriority(t *testing.T) {
	cases := []struct {
		in   model.Priority
		want string
	}{
		{model.PriorityHigh, "high"},
		{model.PriorityMedium, "normal"},
		{model.PriorityLow, "low"},
	}
	for _, c := range cases {
		if got := deliveryPriority(c.in); got != c.want {
			t.Fatalf("deliveryPriority(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestLogSink_NilLogger(t *testing.T) {
	var s LogSink
	if err := s.Notify(context.Background(), "hello", model.PriorityHigh); err != nil {
		t.Fatalf("notify: %v", err)
	}
}

func TestConfig_SetDefaults(t *testing.T) {
	var cfg Config
	cfg.SetDefaults()
	if cfg.ClientID == "" || cfg.TopicPrefix == "" || cfg.TimeoutMS == 0 {
		t.Fatalf("defaults missing: %+v", cfg)
	}
	custom := Config{ClientID: "x", TopicPrefix: "y", TimeoutMS: 5}
	custom.SetDefaults()
	if custom.ClientID != "x" || custom.TopicPrefix != "y" || custom.TimeoutMS != 5 {
		t.Fatalf("defaults clobbered explicit values: %+v", custom)
	}
}
