package metrics

import coremetrics "github.com/lightningtw/dispatchd/core/metrics"

// MultiSink fans dispatch records out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordCycle forwards the stats to all sinks, returning the first error.
func (m *MultiSink) RecordCycle(stats coremetrics.CycleStats) error {
	for _, s := range m.Sinks {
		if err := s.RecordCycle(stats); err != nil {
			return err
		}
	}
	return nil
}

// RecordOrderOutcome forwards the outcome to all sinks, returning the first error.
func (m *MultiSink) RecordOrderOutcome(out coremetrics.OrderOutcome) error {
	for _, s := range m.Sinks {
		if err := s.RecordOrderOutcome(out); err != nil {
			return err
		}
	}
	return nil
}
