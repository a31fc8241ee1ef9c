package payout

import (
	"context"
	"time"

	"github.com/lightningtw/dispatchd/core/events"
	"github.com/lightningtw/dispatchd/core/logger"
	"github.com/lightningtw/dispatchd/internal/eventbus"
)

// Recorder listens on the event bus and creates a payout record for every
// accepted order.
type Recorder struct {
	store *Store
	bus   eventbus.EventBus
	log   logger.Logger
}

func NewRecorder(store *Store, bus eventbus.EventBus, log logger.Logger) *Recorder {
	return &Recorder{store: store, bus: bus, log: log}
}

// Run consumes bus events until the context is cancelled.
func (r *Recorder) Run(ctx context.Context) {
	sub := r.bus.Subscribe()
	defer r.bus.Unsubscribe(sub)
	for {
		select {
		case ev, ok := <-sub:
			if !ok {
				return
			}
			acc, isAccepted := ev.(events.OrderAccepted)
			if !isAccepted {
				continue
			}
			rec := Record{
				OrderID:   acc.Order.ID,
				Platform:  acc.Order.Platform,
				Amount:    acc.Order.Price,
				CreatedAt: acc.Time,
			}
			if rec.CreatedAt.IsZero() {
				rec.CreatedAt = time.Now()
			}
			if err := r.store.Add(ctx, rec); err != nil {
				r.log.Errorf("payout record for order %s failed: %v", acc.Order.ID, err)
			}
		case <-ctx.Done():
			return
		}
	}
}
