package ledger

import (
	"context"

	"github.com/lightningtw/dispatchd/core/model"
)

// Store is the append-only event ledger, the single source of truth for task
// and order history. There is no update or delete operation; state is always
// reconstructable by replaying all events in append order.
type Store interface {
	// Append durably writes one event and returns it with its timestamp set.
	// If Append returns an error the caller must not assume partial success.
	Append(ctx context.Context, typ model.EventType, data map[string]any) (model.Event, error)
	// ReplayAll returns every stored event in write order. Unparsable or
	// truncated trailing entries are skipped with a warning, never an error.
	ReplayAll(ctx context.Context) ([]model.Event, error)
	Close() error
}
