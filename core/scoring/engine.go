package scoring

import (
	"fmt"
	"sort"
	"time"

	"github.com/lightningtw/dispatchd/core/model"
)

// Config holds the tunable parts of the scoring formula. Two deployments run
// this engine on different price scales, so the tier cut points are
// configuration, never constants.
type Config struct {
	PriorityCutHigh   float64            `json:"priority_cut_high"`
	PriorityCutMedium float64            `json:"priority_cut_medium"`
	PlatformWeights   map[string]float64 `json:"platform_weights"`
	PeakWindows       []Window           `json:"peak_windows"`
	DefaultRating     float64            `json:"default_rating"`
	DefaultDistanceKm float64            `json:"default_distance_km"`
}

// SetDefaults fills unset fields with the canonical regime.
func (c *Config) SetDefaults() {
	if c.PriorityCutHigh == 0 {
		c.PriorityCutHigh = 50
	}
	if c.PriorityCutMedium == 0 {
		c.PriorityCutMedium = 40
	}
	if c.DefaultRating == 0 {
		c.DefaultRating = 5.0
	}
	if c.DefaultDistanceKm == 0 {
		c.DefaultDistanceKm = 1.0
	}
	if len(c.PeakWindows) == 0 {
		c.PeakWindows = []Window{{Start: "11:00", End: "14:00"}, {Start: "17:00", End: "20:00"}}
	}
}

// Validate rejects configurations that could produce negative or unordered
// scores.
func (c Config) Validate() error {
	if c.PriorityCutHigh < c.PriorityCutMedium {
		return fmt.Errorf("priority_cut_high %.2f below priority_cut_medium %.2f", c.PriorityCutHigh, c.PriorityCutMedium)
	}
	for p, w := range c.PlatformWeights {
		if w <= 0 {
			return fmt.Errorf("platform weight for %s must be positive, got %.2f", p, w)
		}
	}
	if c.DefaultRating < 0 || c.DefaultRating > 5 {
		return fmt.Errorf("default_rating must be within [0,5], got %.2f", c.DefaultRating)
	}
	if c.DefaultDistanceKm <= 0 {
		return fmt.Errorf("default_distance_km must be positive, got %.2f", c.DefaultDistanceKm)
	}
	if _, err := NewPeakSchedule(c.PeakWindows); err != nil {
		return err
	}
	return nil
}

// Strategy converts raw candidates into scored, tiered orders. Implementations
// are selected once at composition time.
type Strategy interface {
	Score(orders []model.Order, at time.Time, regionHeat float64) []model.ScoredOrder
}

// Engine is the canonical value-score implementation:
//
//	score = price * (rating/5) / (distance+0.1) * weight * timeFactor * (1 + density*0.1)
//
// where density is candidates per distinct platform and timeFactor is 1.2 in
// peak hours, 0.8 otherwise.
type Engine struct {
	cfg  Config
	peak *PeakSchedule
}

// NewEngine builds an Engine from a validated configuration.
func NewEngine(cfg Config) (*Engine, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	peak, err := NewPeakSchedule(cfg.PeakWindows)
	if err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg, peak: peak}, nil
}

// IsPeak exposes the engine's peak-hour predicate.
func (e *Engine) IsPeak(t time.Time) bool { return e.peak.IsPeak(t) }

// DemandDensity is the number of candidates per distinct platform, at least 0.
func DemandDensity(orders []model.Order) float64 {
	if len(orders) == 0 {
		return 0
	}
	platforms := make(map[string]struct{})
	for _, o := range orders {
		platforms[o.Platform] = struct{}{}
	}
	n := len(platforms)
	if n < 1 {
		n = 1
	}
	return float64(len(orders)) / float64(n)
}

// Score computes the value score and tier for every candidate. Missing rating
// or distance falls back to neutral defaults rather than failing the cycle.
func (e *Engine) Score(orders []model.Order, at time.Time, regionHeat float64) []model.ScoredOrder {
	_ = regionHeat // the threshold predictor consumes heat; scoring uses demand density
	density := DemandDensity(orders)
	timeFactor := 0.8
	if e.peak.IsPeak(at) {
		timeFactor = 1.2
	}
	res := make([]model.ScoredOrder, 0, len(orders))
	for _, o := range orders {
		rating := o.UserRating
		if rating <= 0 {
			rating = e.cfg.DefaultRating
		}
		distance := o.DistanceKm
		if distance <= 0 {
			distance = e.cfg.DefaultDistanceKm
		}
		weight := o.PlatformWeight
		if weight <= 0 {
			if w, ok := e.cfg.PlatformWeights[o.Platform]; ok {
				weight = w
			} else {
				weight = 1.0
			}
		}
		score := o.Price * (rating / 5.0) / (distance + 0.1) * weight * timeFactor * (1 + density*0.1)
		if score < 0 {
			score = 0
		}
		res = append(res, model.ScoredOrder{
			Order:      o,
			ValueScore: score,
			Priority:   e.Tier(score),
		})
	}
	return res
}

// Tier maps a score onto a priority using the configured cut points. The
// medium boundary is inclusive on both ends.
func (e *Engine) Tier(score float64) model.Priority {
	switch {
	case score > e.cfg.PriorityCutHigh:
		return model.PriorityHigh
	case score >= e.cfg.PriorityCutMedium:
		return model.PriorityMedium
	default:
		return model.PriorityLow
	}
}

// Rank sorts scored orders in place, descending by (tier, score). The tier
// dominates; the raw score only breaks ties within a tier.
func Rank(orders []model.ScoredOrder) {
	sort.SliceStable(orders, func(i, j int) bool {
		if orders[i].Priority.Rank() != orders[j].Priority.Rank() {
			return orders[i].Priority.Rank() > orders[j].Priority.Rank()
		}
		return orders[i].ValueScore > orders[j].ValueScore
	})
}
