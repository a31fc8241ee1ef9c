package model

import "time"

// EventType identifies the kind of fact recorded in the ledger.
type EventType string

const (
	EventTaskCreated   EventType = "TASK_CREATED"
	EventStatusUpdated EventType = "STATUS_UPDATED"
	EventOrderAccepted EventType = "ORDER_ACCEPTED"
	EventOrderFailed   EventType = "ORDER_FAILED"
)

// Event is one immutable, timestamped fact. Ledger order is the authoritative
// order; the sequence number is implicit in the position within the ledger.
type Event struct {
	Timestamp time.Time      `json:"timestamp"`
	Type      EventType      `json:"event_type"`
	Data      map[string]any `json:"data"`
}
