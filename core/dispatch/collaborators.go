package dispatch

import (
	"context"
	"errors"

	"github.com/lightningtw/dispatchd/core/model"
)

// ErrTransient marks collaborator failures that are worth retrying. Wrap it
// with %w so the scheduler can classify errors via errors.Is.
var ErrTransient = errors.New("transient error")

// IsTransient reports whether the error belongs to the retryable class.
func IsTransient(err error) bool { return errors.Is(err, ErrTransient) }

// OrderSource fetches the candidate orders of one platform. Implementations
// may fail with a transient network error or return an empty slice.
type OrderSource interface {
	Fetch(ctx context.Context, platform string) ([]model.Order, error)
}

// AcceptanceClient commits an order on its platform. A transient failure is
// retried up to the configured attempt budget; any other error is terminal
// for the order.
type AcceptanceClient interface {
	Accept(ctx context.Context, order model.ScoredOrder) error
}

// NotificationSink delivers fire-and-forget notifications. Failures are
// logged by the scheduler and never propagate into the cycle.
type NotificationSink interface {
	Notify(ctx context.Context, message string, priority model.Priority) error
}

// HeatSource supplies the external region-heat signal, 0.0 when unavailable.
type HeatSource interface {
	RegionHeat(ctx context.Context) float64
}

// StaticHeat is a HeatSource returning a fixed value.
type StaticHeat float64

func (h StaticHeat) RegionHeat(context.Context) float64 { return float64(h) }
