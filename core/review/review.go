// Package review defines the AI generation and verification collaborators
// used by the task pipeline. Real model integrations live outside the core;
// the mocks here are deterministic stand-ins.
package review

import "context"

// Verdict is the outcome of a content review.
type Verdict struct {
	Result     string  `json:"result"` // approved, rejected or needs_revision
	Confidence float64 `json:"confidence"`
	Feedback   string  `json:"feedback,omitempty"`
}

// Approved reports whether the verdict allows the task to proceed.
func (v Verdict) Approved() bool { return v.Result == "approved" }

// Generator produces content for a task prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Reviewer verifies generated content before a task may advance.
type Reviewer interface {
	Review(ctx context.Context, content string) (Verdict, error)
}
