// Package actions tracks action items across the master list and the
// per-entity satellite files, and reconciles completion state between them.
package actions

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Status is the lifecycle state of an action item.
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in-progress"
	StatusBlocked    Status = "blocked"
	StatusDeferred   Status = "deferred"
	StatusCompleted  Status = "completed"
)

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case StatusOpen, StatusInProgress, StatusBlocked, StatusDeferred, StatusCompleted:
		return normalized, true
	default:
		return "", false
	}
}

// DateLayout is the due/created date format used in the checkbox lines.
const DateLayout = "2006-01-02"

// Item is one tracked action.
type Item struct {
	ID     string `validate:"required,uuid4"`
	Title  string `validate:"required"`
	Owner  string
	Due    time.Time
	Status Status `validate:"required,oneof=open in-progress blocked deferred completed"`
	// Source references where the item came from: a file, a meeting id, or
	// an enrichment task id.
	Source  string
	Created time.Time
	// Delegated marks an item the operator handed to someone else and is
	// waiting on.
	Delegated bool
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the item's structural constraints.
func (i Item) Validate() error {
	return validate.Struct(i)
}

// Completed reports whether the item has reached its terminal state.
func (i Item) Completed() bool {
	return i.Status == StatusCompleted
}

// DueOn reports whether the item is due on the given calendar day.
func (i Item) DueOn(day time.Time) bool {
	if i.Due.IsZero() {
		return false
	}
	return i.Due.Format(DateLayout) == day.Format(DateLayout)
}

// Overdue reports whether the item's due date has passed without completion.
func (i Item) Overdue(now time.Time) bool {
	if i.Due.IsZero() || i.Completed() {
		return false
	}
	return i.Due.Format(DateLayout) < now.Format(DateLayout)
}

// SurfacedFor reports whether the item belongs in the operator's own views:
// owned by the operator or unassigned. Delegated items are tracked in the
// waiting-on section instead.
func (i Item) SurfacedFor(operator string) bool {
	if i.Delegated {
		return false
	}
	owner := strings.ToLower(strings.TrimSpace(i.Owner))
	return owner == "" || owner == strings.ToLower(strings.TrimSpace(operator))
}
