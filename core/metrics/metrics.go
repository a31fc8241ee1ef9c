package metrics

import "time"

// CycleStats summarizes one dispatch cycle for observability purposes.
type CycleStats struct {
	Threshold  float64
	Candidates int
	Accepted   int
	Failed     int
	Skipped    int
	Duration   time.Duration
	Time       time.Time
}

// OrderOutcome records the terminal decision for one candidate order.
type OrderOutcome struct {
	OrderID    string
	Platform   string
	Priority   string
	ValueScore float64
	Outcome    string // accepted, failed or skipped
	Time       time.Time
}

// MetricsSink records dispatch activity. Sinks must tolerate concurrent calls.
type MetricsSink interface {
	RecordCycle(stats CycleStats) error
	RecordOrderOutcome(out OrderOutcome) error
}

// Config selects and parameterizes the metrics backends.
type Config struct {
	PrometheusEnabled bool   `json:"prometheus_enabled"`
	PrometheusPort    string `json:"prometheus_port"`
	InfluxEnabled     bool   `json:"influx_enabled"`
	InfluxURL         string `json:"influx_url"`
	InfluxToken       string `json:"influx_token"`
	InfluxOrg         string `json:"influx_org"`
	InfluxBucket      string `json:"influx_bucket"`
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordCycle(CycleStats) error          { return nil }
func (NopSink) RecordOrderOutcome(OrderOutcome) error { return nil }
