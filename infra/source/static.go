package source

import (
	"context"

	"github.com/lightningtw/dispatchd/core/model"
)

// StaticSource serves a fixed candidate set per platform. Used by the
// simulate command and in tests.
type StaticSource struct {
	Orders map[string][]model.Order
}

func (s StaticSource) Fetch(ctx context.Context, platform string) ([]model.Order, error) {
	_ = ctx
	orders := make([]model.Order, len(s.Orders[platform]))
	copy(orders, s.Orders[platform])
	for i := range orders {
		if orders[i].Platform == "" {
			orders[i].Platform = platform
		}
	}
	return orders, nil
}
