package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSourceUnavailable marks a calendar/mail/entity source that could
	// not be read; the run falls back to cached data.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrStale marks data older than the configured threshold.
	ErrStale = errors.New("stale data")
	// ErrAmbiguous marks a classification that needs operator resolution.
	ErrAmbiguous = errors.New("ambiguous match")
	// ErrPartialEnrichment marks a directive task with no enrichment result.
	ErrPartialEnrichment = errors.New("partial enrichment")
	// ErrReentrant marks an invocation overlapping an incomplete prior run.
	ErrReentrant = errors.New("pipeline re-entry")
	// ErrValidation marks malformed artifacts or inputs.
	ErrValidation = errors.New("validation error")
	// ErrConfiguration marks unusable configuration.
	ErrConfiguration = errors.New("configuration error")
	// ErrNotFound marks a missing required artifact.
	ErrNotFound = errors.New("not found")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrValidation
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsWarning reports whether an error represents a degraded-mode condition
// the run should survive with a surfaced warning rather than a failure.
func IsWarning(err error) bool {
	switch {
	case errors.Is(err, ErrSourceUnavailable),
		errors.Is(err, ErrStale),
		errors.Is(err, ErrPartialEnrichment):
		return true
	default:
		return false
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
