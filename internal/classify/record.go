package classify

import (
	"strings"

	"daybook/internal/calendar"
	"daybook/internal/prep"
)

// Category buckets a meeting for prep purposes.
type Category string

const (
	CategoryCustomer Category = "customer"
	CategoryInternal Category = "internal"
	CategoryProject  Category = "project"
	CategoryPersonal Category = "personal"
	CategoryExternal Category = "external"
	CategoryUnknown  Category = "unknown"
)

// ParseCategory converts a string into a known Category.
func ParseCategory(value string) (Category, bool) {
	normalized := Category(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case CategoryCustomer, CategoryInternal, CategoryProject,
		CategoryPersonal, CategoryExternal, CategoryUnknown:
		return normalized, true
	default:
		return "", false
	}
}

// MeetingRecord is the classified view of a calendar event carried through
// the pipeline.
type MeetingRecord struct {
	Event       calendar.Event
	Category    Category
	Entity      string
	Stage       string
	AgendaOwner prep.AgendaOwner
	Prep        prep.Status
}
