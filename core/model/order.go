package model

// Priority is the coarse dispatch tier derived from the value score.
type Priority int

const (
	PriorityLow Priority = iota + 1
	PriorityMedium
	PriorityHigh
)

// Rank returns the sort weight of the tier. Higher tiers dominate raw scores
// when ranking candidates.
func (p Priority) Rank() int { return int(p) }

// String returns a human-readable representation of the priority tier.
func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	case PriorityLow:
		return "low"
	default:
		return "unknown"
	}
}

// Order is one candidate delivery order fetched for a dispatch cycle. Orders
// are ephemeral: only the decision about an order is persisted, as an event.
type Order struct {
	ID             string  `json:"id"`
	Platform       string  `json:"platform"`
	Price          float64 `json:"price"`
	UserRating     float64 `json:"user_rating"`
	DistanceKm     float64 `json:"distance"`
	PlatformWeight float64 `json:"platform_weight"`
}

// ScoredOrder is an Order with its computed ranking signal. Discarded after
// the cycle.
type ScoredOrder struct {
	Order
	ValueScore float64  `json:"value_score"`
	Priority   Priority `json:"priority"`
}
