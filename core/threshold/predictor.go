package threshold

import (
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/lightningtw/dispatchd/core/model"
)

// Predictor computes the minimum acceptable value score for a cycle from the
// current candidate set and demand signals.
type Predictor interface {
	Predict(orders []model.Order, at time.Time, regionHeat float64) float64
}

// PeakFn reports whether a time falls in a peak-hour window.
type PeakFn func(time.Time) bool

// MeanPricePredictor derives the threshold from the mean candidate price:
// max(mean*1.05, floor), raised by the region heat in peak hours and damped
// to 90% off peak. With no candidates the configured floor is returned
// unmodified.
type MeanPricePredictor struct {
	Floor float64
	Peak  PeakFn
}

func (p MeanPricePredictor) Predict(orders []model.Order, at time.Time, regionHeat float64) float64 {
	if len(orders) == 0 {
		return p.Floor
	}
	prices := make([]float64, len(orders))
	for i, o := range orders {
		prices[i] = o.Price
	}
	base := stat.Mean(prices, nil) * 1.05
	if base < p.Floor {
		base = p.Floor
	}
	if p.Peak != nil && p.Peak(at) {
		return base * (1 + regionHeat)
	}
	return base * 0.9
}

// StaticPredictor always returns a fixed threshold.
type StaticPredictor struct {
	Value float64
}

func (p StaticPredictor) Predict([]model.Order, time.Time, float64) float64 { return p.Value }
