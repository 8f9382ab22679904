// Package lookahead scans the upcoming business days for customer meetings
// the operator owes an agenda and has not produced one for.
package lookahead

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"daybook/internal/classify"
	"daybook/internal/logging"
	"daybook/internal/prep"
	"daybook/internal/textutil"
)

var docLinkRe = regexp.MustCompile(`https?://\S+`)

// Gap is a meeting within the scan window that has no agenda signal.
type Gap struct {
	MeetingID string    `json:"meeting_id"`
	Title     string    `json:"title"`
	Entity    string    `json:"entity,omitempty"`
	Start     time.Time `json:"start"`
	// Slug is the entity+date file stem an agenda draft would be written to.
	Slug string `json:"slug"`
}

// Scanner finds agenda gaps in a rolling business-day window.
type Scanner struct {
	businessDays int
	minDescChars int
	agendaDirs   []string
	logger       *slog.Logger
}

// Options configures the scanner.
type Options struct {
	BusinessDays int
	// MinDescriptionChars is the free-text length treated as a substantial
	// description.
	MinDescriptionChars int
	// AgendaDirs are searched for existing agenda files, first hit wins.
	AgendaDirs []string
	Logger     *slog.Logger
}

// New builds a Scanner.
func New(opts Options) *Scanner {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	days := opts.BusinessDays
	if days <= 0 {
		days = 5
	}
	minChars := opts.MinDescriptionChars
	if minChars <= 0 {
		minChars = 120
	}
	return &Scanner{
		businessDays: days,
		minDescChars: minChars,
		agendaDirs:   opts.AgendaDirs,
		logger:       logging.NewComponentLogger(logger, "lookahead"),
	}
}

// WindowEnd returns the exclusive end of the scan window: now plus the
// configured number of business days, weekends skipped.
func (s *Scanner) WindowEnd(now time.Time) time.Time {
	day := now
	remaining := s.businessDays
	for remaining > 0 {
		day = day.AddDate(0, 0, 1)
		if isBusinessDay(day) {
			remaining--
		}
	}
	return day
}

func isBusinessDay(day time.Time) bool {
	wd := day.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// FindAgendaGaps walks the window and flags every customer meeting with an
// operator-owned agenda that shows none of the three agenda signals.
func (s *Scanner) FindAgendaGaps(ctx context.Context, meetings []classify.MeetingRecord, now time.Time) ([]Gap, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	end := s.WindowEnd(now)
	var gaps []Gap
	for _, meeting := range meetings {
		event := meeting.Event
		if event.Start.Before(now) || !event.Start.Before(end) {
			continue
		}
		if !isBusinessDay(event.Start) {
			continue
		}
		if meeting.Category != classify.CategoryCustomer {
			continue
		}
		if meeting.AgendaOwner != prep.OwnerSelf && meeting.AgendaOwner != prep.OwnerShared {
			continue
		}
		if s.hasAgendaSignal(meeting) {
			continue
		}
		gap := Gap{
			MeetingID: event.ID,
			Title:     event.Title,
			Entity:    meeting.Entity,
			Start:     event.Start,
			Slug:      AgendaSlug(meeting.Entity, event.Title, event.Start),
		}
		gaps = append(gaps, gap)
		s.logger.Info("agenda gap",
			logging.String("meeting", event.Title),
			logging.String("entity", meeting.Entity),
			logging.Time("start", event.Start))
	}
	return gaps, nil
}

// hasAgendaSignal checks the three signals in priority order: an embedded
// doc link, a substantial description, an existing agenda file.
func (s *Scanner) hasAgendaSignal(meeting classify.MeetingRecord) bool {
	description := meeting.Event.Description
	if docLinkRe.MatchString(description) {
		return true
	}
	if len(strings.TrimSpace(description)) >= s.minDescChars {
		return true
	}
	return s.agendaFileExists(meeting)
}

func (s *Scanner) agendaFileExists(meeting classify.MeetingRecord) bool {
	slug := AgendaSlug(meeting.Entity, meeting.Event.Title, meeting.Event.Start)
	for _, dir := range s.agendaDirs {
		matches, err := filepath.Glob(filepath.Join(dir, slug+"*"))
		if err == nil && len(matches) > 0 {
			return true
		}
		// Entity-level agendas for the same date also count.
		if meeting.Entity != "" {
			prefix := fmt.Sprintf("%s-%s", textutil.SanitizeToken(meeting.Entity), meeting.Event.Start.Format("2006-01-02"))
			matches, err = filepath.Glob(filepath.Join(dir, prefix+"*"))
			if err == nil && len(matches) > 0 {
				return true
			}
		}
	}
	return false
}

// AgendaSlug builds the canonical agenda file stem for a meeting.
func AgendaSlug(entity, title string, start time.Time) string {
	token := textutil.SanitizeToken(entity)
	if entity == "" {
		token = textutil.SanitizeToken(title)
	}
	return fmt.Sprintf("%s-%s-agenda", token, start.Format("2006-01-02"))
}
