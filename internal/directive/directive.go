// Package directive defines the handoff artifact between the deterministic
// preparation phase and the external enrichment phase, and its on-disk
// lifecycle: written once per run, consumed exactly once, then retired into
// the day's archive.
package directive

import (
	"time"

	"github.com/go-playground/validator/v10"

	"daybook/internal/lookahead"
	"daybook/internal/services"
)

// SchemaVersion identifies the directive JSON layout. Bump on breaking
// changes so a stale enrichment collaborator fails loudly.
const SchemaVersion = 1

// Task types the enrichment collaborator understands.
const (
	TaskMeetingPrep    = "meeting_prep"
	TaskDraftAgenda    = "draft_agenda"
	TaskSummarizeInbox = "summarize_inbox"
	TaskDailyBrief     = "daily_brief"
)

// Meeting is the classified calendar entry carried in the directive.
type Meeting struct {
	ID          string    `json:"id" validate:"required"`
	Title       string    `json:"title" validate:"required"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Category    string    `json:"category" validate:"required"`
	Entity      string    `json:"entity,omitempty"`
	AgendaOwner string    `json:"agenda_owner,omitempty"`
	PrepStatus  string    `json:"prep_status" validate:"required"`
}

// Action is an action item surfaced for today's run.
type Action struct {
	ID        string `json:"id,omitempty"`
	Title     string `json:"title" validate:"required"`
	Due       string `json:"due,omitempty"`
	Owner     string `json:"owner,omitempty"`
	Status    string `json:"status,omitempty"`
	Overdue   bool   `json:"overdue,omitempty"`
	MeetingID string `json:"meeting_id,omitempty"`
}

// EnrichmentTask is one unit of work for the collaborator; Input carries the
// mechanically-derived payload the prose is generated from.
type EnrichmentTask struct {
	ID    string         `json:"id" validate:"required"`
	Type  string         `json:"type" validate:"required,oneof=meeting_prep draft_agenda summarize_inbox daily_brief"`
	Input map[string]any `json:"input,omitempty"`
}

// Directive is the Phase-1 output manifest.
type Directive struct {
	Schema          int              `json:"schema" validate:"required"`
	RunID           string           `json:"run_id" validate:"required,uuid4"`
	Date            string           `json:"date" validate:"required"`
	GeneratedAt     time.Time        `json:"generated_at"`
	Meetings        []Meeting        `json:"meetings" validate:"dive"`
	Actions         []Action         `json:"actions" validate:"dive"`
	EnrichmentTasks []EnrichmentTask `json:"enrichment_tasks" validate:"dive"`
	LookAheadGaps   []lookahead.Gap  `json:"look_ahead_gaps"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the manifest's structural constraints.
func (d *Directive) Validate() error {
	if err := validate.Struct(d); err != nil {
		return services.Wrap(services.ErrValidation, "directive", "validate", "invalid directive", err)
	}
	seen := make(map[string]bool, len(d.EnrichmentTasks))
	for _, task := range d.EnrichmentTasks {
		if seen[task.ID] {
			return services.Wrap(services.ErrValidation, "directive", "validate",
				"duplicate enrichment task id "+task.ID, nil)
		}
		seen[task.ID] = true
	}
	return nil
}

// Task returns the enrichment task with the given id.
func (d *Directive) Task(id string) (EnrichmentTask, bool) {
	for _, task := range d.EnrichmentTasks {
		if task.ID == id {
			return task, true
		}
	}
	return EnrichmentTask{}, false
}

// MeetingByID returns the meeting entry for a meeting id.
func (d *Directive) MeetingByID(id string) (Meeting, bool) {
	for _, meeting := range d.Meetings {
		if meeting.ID == id {
			return meeting, true
		}
	}
	return Meeting{}, false
}
