package prep

import (
	"fmt"
	"strings"
)

// Status represents the readiness lifecycle of a meeting.
type Status string

const (
	// StatusNeedsAgenda means the operator owns the agenda and none exists.
	StatusNeedsAgenda Status = "needs_agenda"
	// StatusPrepNeeded means the counterpart drives and the operator reads up.
	StatusPrepNeeded Status = "prep_needed"
	// StatusBringUpdates marks a project sync the operator brings updates to.
	StatusBringUpdates Status = "bring_updates"
	// StatusContextNeeded marks an internal meeting needing light context.
	StatusContextNeeded Status = "context_needed"
	// StatusDraftReady means the preparation phase produced a draft artifact.
	StatusDraftReady Status = "draft_ready"
	// StatusPrepReady means enrichment produced the final prep artifact.
	StatusPrepReady Status = "prep_ready"
	// StatusDone is terminal; assigned to any meeting whose end has passed.
	StatusDone Status = "done"
)

var allStatuses = []Status{
	StatusNeedsAgenda,
	StatusPrepNeeded,
	StatusBringUpdates,
	StatusContextNeeded,
	StatusDraftReady,
	StatusPrepReady,
	StatusDone,
}

// rank orders the lifecycle: the four initial states share a rank so a
// reschedule reset can move between them, and progress is monotonic above.
var rank = map[Status]int{
	StatusNeedsAgenda:   0,
	StatusPrepNeeded:    0,
	StatusBringUpdates:  0,
	StatusContextNeeded: 0,
	StatusDraftReady:    1,
	StatusPrepReady:     2,
	StatusDone:          3,
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// Parse converts a string into a known Status.
func Parse(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	_, ok := rank[normalized]
	return normalized, ok
}

// IsInitial reports whether the status is one of the four entry states.
func (s Status) IsInitial() bool {
	return rank[s] == 0
}

// Advance moves a meeting forward to a progress state. Moving backward or
// sideways is rejected; Done is only reachable through Complete.
func Advance(from, to Status) (Status, error) {
	if to != StatusDraftReady && to != StatusPrepReady {
		return from, fmt.Errorf("cannot advance to %q", to)
	}
	if rank[to] <= rank[from] {
		return from, fmt.Errorf("cannot advance from %q to %q", from, to)
	}
	return to, nil
}

// Complete marks a meeting done. Unconditional: it applies from any state,
// triggered by the closing reconciliation once the end time has passed.
func Complete(Status) Status {
	return StatusDone
}

// Reset returns a rescheduled meeting to the given initial state. It is the
// only permitted backward transition.
func Reset(from, initial Status) (Status, error) {
	if !initial.IsInitial() {
		return from, fmt.Errorf("%q is not an initial state", initial)
	}
	if from == StatusDone {
		return from, fmt.Errorf("cannot reset a completed meeting")
	}
	return initial, nil
}

// Icon returns the single-cell marker used in the week overview table.
func (s Status) Icon() string {
	switch s {
	case StatusNeedsAgenda:
		return "✍"
	case StatusPrepNeeded:
		return "📖"
	case StatusBringUpdates:
		return "🔄"
	case StatusContextNeeded:
		return "ℹ"
	case StatusDraftReady:
		return "📝"
	case StatusPrepReady:
		return "✅"
	case StatusDone:
		return "✔"
	default:
		return "?"
	}
}
