package scoring

import (
	"math"
	"testing"
	"time"

	"github.com/lightningtw/dispatchd/core/model"
)

func mustEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	e, err := NewEngine(cfg)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	return e
}

func TestEngine_ScoreFormula(t *testing.T) {
	e := mustEngine(t, Config{PlatformWeights: map[string]float64{"foodpanda": 1.2}})
	offPeak := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	orders := []model.Order{
		{ID: "o1", Platform: "foodpanda", Price: 50, UserRating: 4.5, DistanceKm: 2.5},
	}

	scored := e.Score(orders, offPeak, 0)
	if len(scored) != 1 {
		t.Fatalf("expected 1 scored order got %d", len(scored))
	}
	// 50 * (4.5/5) / 2.6 * 1.2 * 0.8 * 1.1 with a single platform (density 1)
	want := 50.0 * (4.5 / 5.0) / 2.6 * 1.2 * 0.8 * 1.1
	if math.Abs(scored[0].ValueScore-want) > 1e-9 {
		t.Fatalf("score = %v, want %v", scored[0].ValueScore, want)
	}
	// ~18.28 sits well below the default medium cut of 40.
	if scored[0].Priority != model.PriorityLow {
		t.Fatalf("priority = %v, want low", scored[0].Priority)
	}
}

func TestEngine_ScoreMonotonicity(t *testing.T) {
	e := mustEngine(t, Config{})
	at := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	base := model.Order{ID: "base", Platform: "p", Price: 50, UserRating: 4, DistanceKm: 3}

	// Each case varies exactly one input of the base order in the direction
	// that must not lower the score.
	cases := []struct {
		name   string
		better model.Order
	}{
		{"higher price", func(o model.Order) model.Order { o.Price = 80; return o }(base)},
		{"higher rating", func(o model.Order) model.Order { o.UserRating = 4.8; return o }(base)},
		{"shorter distance", func(o model.Order) model.Order { o.DistanceKm = 1; return o }(base)},
	}
	for _, c := range cases {
		c.better.ID = "better"
		scored := e.Score([]model.Order{base, c.better}, at, 0)
		var baseScore, betterScore float64
		for _, s := range scored {
			if s.ID == "base" {
				baseScore = s.ValueScore
			} else {
				betterScore = s.ValueScore
			}
		}
		if betterScore <= baseScore {
			t.Fatalf("%s: score %v not above baseline %v", c.name, betterScore, baseScore)
		}
	}
}

func TestEngine_PeakTimeFactor(t *testing.T) {
	e := mustEngine(t, Config{})
	order := []model.Order{{ID: "o1", Platform: "p", Price: 100, UserRating: 5, DistanceKm: 1}}

	peak := e.Score(order, time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC), 0)
	off := e.Score(order, time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC), 0)
	ratio := peak[0].ValueScore / off[0].ValueScore
	if math.Abs(ratio-1.5) > 1e-9 {
		t.Fatalf("peak/off-peak ratio = %v, want 1.5", ratio)
	}
}

func TestEngine_DefaultsForMissingFields(t *testing.T) {
	e := mustEngine(t, Config{})
	at := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	full := e.Score([]model.Order{
		{ID: "o1", Platform: "p", Price: 30, UserRating: 5, DistanceKm: 1},
	}, at, 0)
	missing := e.Score([]model.Order{
		{ID: "o2", Platform: "p", Price: 30},
	}, at, 0)
	if math.Abs(full[0].ValueScore-missing[0].ValueScore) > 1e-9 {
		t.Fatalf("defaults differ: %v vs %v", full[0].ValueScore, missing[0].ValueScore)
	}
	if missing[0].ValueScore <= 0 {
		t.Fatalf("expected positive score, got %v", missing[0].ValueScore)
	}
}

func TestEngine_TierBoundaries(t *testing.T) {
	e := mustEngine(t, Config{})
	cases := []struct {
		score float64
		want  model.Priority
	}{
		{50.0001, model.PriorityHigh},
		{50.0, model.PriorityMedium},
		{40.0, model.PriorityMedium},
		{39.9999, model.PriorityLow},
		{0, model.PriorityLow},
	}
	for _, c := range cases {
		if got := e.Tier(c.score); got != c.want {
			t.Fatalf("Tier(%v) = %v, want %v", c.score, got, c.want)
		}
	}
}

func TestEngine_ConfigurableCuts(t *testing.T) {
	e := mustEngine(t, Config{PriorityCutHigh: 5000, PriorityCutMedium: 2300})
	if got := e.Tier(3000); got != model.PriorityMedium {
		t.Fatalf("Tier(3000) = %v, want medium", got)
	}
	if got := e.Tier(5001); got != model.PriorityHigh {
		t.Fatalf("Tier(5001) = %v, want high", got)
	}
	if got := e.Tier(2299); got != model.PriorityLow {
		t.Fatalf("Tier(2299) = %v, want low", got)
	}
}

func TestDemandDensity(t *testing.T) {
	if got := DemandDensity(nil); got != 0 {
		t.Fatalf("empty density = %v, want 0", got)
	}
	orders := []model.Order{
		{ID: "a", Platform: "p1"},
		{ID: "b", Platform: "p1"},
		{ID: "c", Platform: "p2"},
		{ID: "d", Platform: "p2"},
	}
	if got := DemandDensity(orders); got != 2 {
		t.Fatalf("density = %v, want 2", got)
	}
}

func TestRank_TierDominatesScore(t *testing.T) {
	orders := []model.ScoredOrder{
		{Order: model.Order{ID: "mid-high-score"}, ValueScore: 49, Priority: model.PriorityMedium},
		{Order: model.Order{ID: "high-low-score"}, ValueScore: 51, Priority: model.PriorityHigh},
		{Order: model.Order{ID: "low"}, ValueScore: 10, Priority: model.PriorityLow},
		{Order: model.Order{ID: "high-top"}, ValueScore: 90, Priority: model.PriorityHigh},
	}
	Rank(orders)
	want := []string{"high-top", "high-low-score", "mid-high-score", "low"}
	for i, id := range want {
		if orders[i].ID != id {
			t.Fatalf("position %d = %s, want %s (order %v)", i, orders[i].ID, id, orders)
		}
	}
}

func TestConfig_Validate(t *testing.T) {
	bad := Config{PriorityCutHigh: 10, PriorityCutMedium: 20, DefaultRating: 5, DefaultDistanceKm: 1}
	bad.PeakWindows = []Window{{Start: "11:00", End: "14:00"}}
	if err := bad.Validate(); err == nil {
		t.Fatal("expected error for inverted cut points")
	}
	worse := Config{PriorityCutHigh: 50, PriorityCutMedium: 40, DefaultRating: 5, DefaultDistanceKm: 1,
		PeakWindows:     []Window{{Start: "11:00", End: "14:00"}},
		PlatformWeights: map[string]float64{"p": -1}}
	if err := worse.Validate(); err == nil {
		t.Fatal("expected error for negative platform weight")
	}
}
