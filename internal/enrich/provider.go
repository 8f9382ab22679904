// Package enrich is the boundary to the external enrichment collaborator:
// the service that turns a directive's structured task payloads into prose.
// The pipeline never depends on which implementation is behind the
// interface, only on getting results keyed by task id.
package enrich

import (
	"context"

	"daybook/internal/directive"
)

// ActionSuggestion is an action item the collaborator extracted from its
// source material. Reconciliation assigns the id.
type ActionSuggestion struct {
	Title string `json:"title"`
	Due   string `json:"due,omitempty"`
	Owner string `json:"owner,omitempty"`
}

// Result is the enrichment output for a single task.
type Result struct {
	Content string             `json:"content"`
	Actions []ActionSuggestion `json:"actions,omitempty"`
}

// Provider produces enrichment results for directive tasks. Implementations
// may return a partial map; delivery substitutes placeholders for missing
// task ids.
type Provider interface {
	Enrich(ctx context.Context, tasks []directive.EnrichmentTask) (map[string]Result, error)
	// Available reports whether the provider can do any work at all; an
	// unavailable provider sends the pipeline into manual mode.
	Available() bool
}

// Manual is the always-empty provider: delivery proceeds with mechanically
// derived content only.
type Manual struct{}

// Enrich returns no results.
func (Manual) Enrich(ctx context.Context, tasks []directive.EnrichmentTask) (map[string]Result, error) {
	return map[string]Result{}, ctx.Err()
}

// Available reports false; manual mode is the absence of a collaborator.
func (Manual) Available() bool { return false }
