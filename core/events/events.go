// Package events defines the in-process events published on the bus during a
// dispatch cycle.
package events

import (
	"time"

	"github.com/lightningtw/dispatchd/core/model"
)

// OrderAccepted is published after an order is committed to the ledger.
type OrderAccepted struct {
	Order model.ScoredOrder
	Time  time.Time
}

// OrderFailed is published after acceptance retries are exhausted.
type OrderFailed struct {
	Order model.ScoredOrder
	Err   string
	Time  time.Time
}

// CycleCompleted summarizes one finished dispatch cycle.
type CycleCompleted struct {
	Threshold  float64
	Candidates int
	Accepted   int
	Failed     int
	Skipped    int
	Duration   time.Duration
	Time       time.Time
}
