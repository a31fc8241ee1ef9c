package cyclelog

import (
	"context"
	"time"
)

// CycleRecord captures one dispatch cycle for auditing. Unlike the ledger it
// is derived observability data, not a source of truth, so it may rotate.
type CycleRecord struct {
	Timestamp  time.Time     `json:"timestamp"`
	Threshold  float64       `json:"threshold"`
	Candidates int           `json:"candidates"`
	Accepted   []string      `json:"accepted"`
	Failed     []string      `json:"failed"`
	Skipped    []string      `json:"skipped"`
	Duration   time.Duration `json:"duration"`
	Error      string        `json:"error,omitempty"`
}

// Store persists CycleRecords.
type Store interface {
	Append(ctx context.Context, rec CycleRecord) error
	ReadAll(ctx context.Context) ([]CycleRecord, error)
	Close() error
}
