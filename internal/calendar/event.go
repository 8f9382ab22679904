package calendar

import (
	"strings"
	"time"
)

// Attendee is a meeting participant.
type Attendee struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

// Domain returns the lowercase mail domain of the attendee.
func (a Attendee) Domain() string {
	at := strings.LastIndex(a.Email, "@")
	if at < 0 {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(a.Email[at+1:]))
}

// Event is a calendar event as read from the export snapshot.
type Event struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Start       time.Time  `json:"start"`
	End         time.Time  `json:"end"`
	Description string     `json:"description,omitempty"`
	Organizer   string     `json:"organizer,omitempty"`
	Attendees   []Attendee `json:"attendees,omitempty"`
}

// ExternalDomains returns the distinct attendee domains outside the given
// internal set, in first-seen order. The operator's own address never counts.
func (e Event) ExternalDomains(internal []string, operatorEmail string) []string {
	seen := make(map[string]struct{})
	var out []string
	operatorEmail = strings.ToLower(strings.TrimSpace(operatorEmail))
	for _, attendee := range e.Attendees {
		if strings.ToLower(strings.TrimSpace(attendee.Email)) == operatorEmail {
			continue
		}
		domain := attendee.Domain()
		if domain == "" || isInternalDomain(domain, internal) {
			continue
		}
		if _, ok := seen[domain]; ok {
			continue
		}
		seen[domain] = struct{}{}
		out = append(out, domain)
	}
	return out
}

// OnlyOperator reports whether the operator is the sole attendee (or the
// event has no attendees at all).
func (e Event) OnlyOperator(operatorEmail string) bool {
	operatorEmail = strings.ToLower(strings.TrimSpace(operatorEmail))
	for _, attendee := range e.Attendees {
		if strings.ToLower(strings.TrimSpace(attendee.Email)) != operatorEmail {
			return false
		}
	}
	return true
}

// Ended reports whether the event's end time has passed at the given moment.
func (e Event) Ended(now time.Time) bool {
	return !e.End.IsZero() && e.End.Before(now)
}

func isInternalDomain(domain string, internal []string) bool {
	for _, candidate := range internal {
		if domain == candidate || strings.HasSuffix(domain, "."+candidate) {
			return true
		}
	}
	return false
}
