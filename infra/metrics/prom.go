package metrics

import (
	coremetrics "github.com/lightningtw/dispatchd/core/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink records dispatch activity in Prometheus metrics.
type PromSink struct {
	outcomes  *prometheus.CounterVec
	cycles    prometheus.Counter
	duration  prometheus.Histogram
	threshold prometheus.Gauge
}

// NewPromSink registers dispatch metrics on the default Prometheus registerer.
// The Prometheus server should be started separately using cfg.PrometheusPort.
func NewPromSink(cfg coremetrics.Config) (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(cfg coremetrics.Config, reg prometheus.Registerer) (coremetrics.MetricsSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_order_outcomes_total",
		Help: "Total number of order decisions by platform and outcome",
	}, []string{"platform", "priority", "outcome"})
	cycles := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dispatch_cycles_total",
		Help: "Total number of completed dispatch cycles",
	})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "dispatch_cycle_duration_seconds",
		Help:    "Duration of one dispatch cycle",
		Buckets: prometheus.DefBuckets,
	})
	threshold := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dispatch_threshold",
		Help: "Acceptance threshold of the last dispatch cycle",
	})

	collectors := []prometheus.Collector{outcomes, cycles, duration, threshold}
	for i, c := range collectors {
		if err := reg.Register(c); err != nil {
			if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
				switch i {
				case 0:
					outcomes = are.ExistingCollector.(*prometheus.CounterVec)
				case 1:
					cycles = are.ExistingCollector.(prometheus.Counter)
				case 2:
					duration = are.ExistingCollector.(prometheus.Histogram)
				case 3:
					threshold = are.ExistingCollector.(prometheus.Gauge)
				}
			} else {
				return nil, err
			}
		}
	}

	return &PromSink{outcomes: outcomes, cycles: cycles, duration: duration, threshold: threshold}, nil
}

// RecordCycle updates the cycle counter, duration histogram and threshold gauge.
func (s *PromSink) RecordCycle(stats coremetrics.CycleStats) error {
	s.cycles.Inc()
	s.duration.Observe(stats.Duration.Seconds())
	s.threshold.Set(stats.Threshold)
	return nil
}

// RecordOrderOutcome increments the outcome counter.
func (s *PromSink) RecordOrderOutcome(out coremetrics.OrderOutcome) error {
	s.outcomes.WithLabelValues(out.Platform, out.Priority, out.Outcome).Inc()
	return nil
}
