package review

import (
	"context"
	"fmt"
)

// MockGenerator returns a canned response for any prompt.
type MockGenerator struct{}

func (MockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	_ = ctx
	return fmt.Sprintf("mock response for prompt: %q", prompt), nil
}

// MockReviewer returns a fixed verdict.
type MockReviewer struct {
	Reject     bool
	Confidence float64
}

func (m MockReviewer) Review(ctx context.Context, content string) (Verdict, error) {
	_ = ctx
	_ = content
	conf := m.Confidence
	if conf == 0 {
		conf = 0.95
	}
	if m.Reject {
		return Verdict{Result: "rejected", Confidence: conf, Feedback: "content rejected by reviewer"}, nil
	}
	return Verdict{Result: "approved", Confidence: conf, Feedback: "content appears consistent and safe"}, nil
}
