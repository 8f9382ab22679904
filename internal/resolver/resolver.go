// Package resolver abstracts the "ask the operator" prompts used for
// classification ambiguity and status confirmation. A terminal
// implementation prompts on a TTY; the batch implementation picks the most
// likely option and flags it for later review, so every caller stays
// testable without a live operator.
package resolver

import (
	"context"
)

// Question is a structured resolution request.
type Question struct {
	// Prompt is the single-line question shown to the operator.
	Prompt string
	// Options are the allowed answers, most likely first.
	Options []string
	// Default is returned when the operator just presses enter, and is the
	// batch implementation's answer. Empty falls back to the first option.
	Default string
	// Context carries extra lines shown above the prompt.
	Context string
}

// Answer is the structured result of a resolution request.
type Answer struct {
	Value string
	// Confirmed is true only when a live operator gave the answer; batch
	// answers stay unconfirmed so they can be reviewed later.
	Confirmed bool
}

// Interactive resolves questions the pipeline cannot answer from files.
type Interactive interface {
	Resolve(ctx context.Context, q Question) (Answer, error)
}

func (q Question) fallback() string {
	if q.Default != "" {
		return q.Default
	}
	if len(q.Options) > 0 {
		return q.Options[0]
	}
	return ""
}
