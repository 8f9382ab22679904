package lookahead

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"daybook/internal/calendar"
	"daybook/internal/classify"
	"daybook/internal/prep"
)

// Friday morning, so a five-day window has to hop the weekend.
var scanNow = time.Date(2026, time.August, 28, 8, 0, 0, 0, time.UTC)

func customerMeeting(id, title string, start time.Time, description string) classify.MeetingRecord {
	return classify.MeetingRecord{
		Event: calendar.Event{
			ID:          id,
			Title:       title,
			Start:       start,
			End:         start.Add(time.Hour),
			Description: description,
		},
		Category:    classify.CategoryCustomer,
		Entity:      "acme",
		AgendaOwner: prep.OwnerSelf,
		Prep:        prep.StatusNeedsAgenda,
	}
}

func TestWindowEndSkipsWeekends(t *testing.T) {
	scanner := New(Options{BusinessDays: 5})
	end := scanner.WindowEnd(scanNow)
	// Friday + 5 business days = next Friday.
	want := time.Date(2026, time.September, 4, 8, 0, 0, 0, time.UTC)
	if !end.Equal(want) {
		t.Fatalf("WindowEnd = %s, want %s", end, want)
	}
}

func TestFindAgendaGaps(t *testing.T) {
	scanner := New(Options{BusinessDays: 5, MinDescriptionChars: 120})
	monday := time.Date(2026, time.August, 31, 14, 0, 0, 0, time.UTC)

	meetings := []classify.MeetingRecord{
		customerMeeting("evt-1", "Acme renewal sync", monday, ""),
		// Doc link counts as an agenda signal.
		customerMeeting("evt-2", "Acme pricing review", monday.Add(2*time.Hour),
			"Agenda: https://docs.internal.test/acme-pricing"),
		// Past meetings are out of window.
		customerMeeting("evt-3", "Old sync", scanNow.AddDate(0, 0, -1), ""),
		// Beyond the business-day horizon.
		customerMeeting("evt-4", "Far future", scanNow.AddDate(0, 0, 14), ""),
	}
	// Counterpart-owned agendas are never a gap.
	counterpart := customerMeeting("evt-5", "Acme deep dive", monday.Add(4*time.Hour), "")
	counterpart.AgendaOwner = prep.OwnerCounterpart
	// Internal meetings are out of scope regardless of owner.
	internal := customerMeeting("evt-6", "Team planning", monday.Add(5*time.Hour), "")
	internal.Category = classify.CategoryInternal
	meetings = append(meetings, counterpart, internal)

	gaps, err := scanner.FindAgendaGaps(context.Background(), meetings, scanNow)
	if err != nil {
		t.Fatalf("FindAgendaGaps: %v", err)
	}
	if len(gaps) != 1 {
		t.Fatalf("expected one gap, got %d: %+v", len(gaps), gaps)
	}
	if gaps[0].MeetingID != "evt-1" {
		t.Fatalf("wrong gap: %+v", gaps[0])
	}
	if gaps[0].Slug != "acme-2026-08-31-agenda" {
		t.Fatalf("slug = %q", gaps[0].Slug)
	}
}

func TestSubstantialDescriptionIsASignal(t *testing.T) {
	scanner := New(Options{BusinessDays: 5, MinDescriptionChars: 20})
	monday := time.Date(2026, time.August, 31, 10, 0, 0, 0, time.UTC)
	meeting := customerMeeting("evt-1", "Acme sync", monday,
		"Walk through the migration plan and the open renewal questions.")

	gaps, err := scanner.FindAgendaGaps(context.Background(), []classify.MeetingRecord{meeting}, scanNow)
	if err != nil {
		t.Fatalf("FindAgendaGaps: %v", err)
	}
	if len(gaps) != 0 {
		t.Fatalf("expected no gaps, got %+v", gaps)
	}
}

func TestExistingAgendaFileIsASignal(t *testing.T) {
	dir := t.TempDir()
	monday := time.Date(2026, time.August, 31, 10, 0, 0, 0, time.UTC)
	meeting := customerMeeting("evt-1", "Acme sync", monday, "")
	path := filepath.Join(dir, AgendaSlug(meeting.Entity, meeting.Event.Title, monday)+".md")
	if err := os.WriteFile(path, []byte("# Agenda\n"), 0o644); err != nil {
		t.Fatalf("write agenda: %v", err)
	}

	scanner := New(Options{BusinessDays: 5, AgendaDirs: []string{dir}})
	gaps, err := scanner.FindAgendaGaps(context.Background(), []classify.MeetingRecord{meeting}, scanNow)
	if err != nil {
		t.Fatalf("FindAgendaGaps: %v", err)
	}
	if len(gaps) != 0 {
		t.Fatalf("expected agenda file to suppress the gap, got %+v", gaps)
	}
}
