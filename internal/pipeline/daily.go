package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"daybook/internal/actions"
	"daybook/internal/classify"
	"daybook/internal/directive"
	"daybook/internal/fileutil"
	"daybook/internal/logging"
	"daybook/internal/lookahead"
	"daybook/internal/mail"
	"daybook/internal/resolver"
	"daybook/internal/services"
)

// DailyOptions are the `daily` command flags.
type DailyOptions struct {
	SkipArchive   bool
	SkipEmail     bool
	OutputPath    string
	KeepDirective bool
	Resume        bool
	Restart       bool
}

// DailySummary reports what the daily cycle did.
type DailySummary struct {
	RunID         string
	Phase         Phase
	DirectivePath string
	Meetings      int
	Tasks         int
	Gaps          []lookahead.Gap
	Resumed       bool
	Warnings      []error
	Delivered     *DeliverSummary
}

// RunDaily executes the morning cycle: archive yesterday, classify today,
// scan actions and the look-ahead window, and emit the directive. When an
// inline enrichment provider is available the run continues straight through
// delivery; otherwise it suspends at AwaitingEnrichment.
func (c *Controller) RunDaily(ctx context.Context, opts DailyOptions) (*DailySummary, error) {
	lock, err := c.lock()
	if err != nil {
		return nil, err
	}
	defer lock.Release()

	now := c.now()
	today := now.Format("2006-01-02")

	prior, err := LoadState(c.ws.RunStatePath())
	if err != nil {
		return nil, err
	}
	if prior.Pending() && fileutil.Exists(prior.DirectivePath) {
		resume, err := c.resumeDecision(ctx, prior, opts)
		if err != nil {
			return nil, err
		}
		if resume {
			return c.resumePrior(ctx, prior, opts)
		}
		// Restart: the stale directive goes into its day's archive so the
		// fresh run starts clean.
		staleDay, dateErr := time.Parse("2006-01-02", prior.Date)
		if dateErr != nil {
			staleDay = now
		}
		if err := directive.Retire(prior.DirectivePath, c.ws.ArchiveDayDir(staleDay), false); err != nil {
			return nil, err
		}
		c.logger.Info("restarting over a stale directive",
			logging.String(logging.FieldRunID, prior.RunID),
			logging.String("date", prior.Date))
	}

	summary := &DailySummary{RunID: uuid.NewString(), Phase: PhasePreparing}
	state := &RunState{
		RunID:     summary.RunID,
		Date:      today,
		Phase:     PhasePreparing,
		StartedAt: now,
	}
	if err := SaveState(c.ws.RunStatePath(), state); err != nil {
		return nil, err
	}

	if !opts.SkipArchive {
		ref := c.archiveReference(prior, now)
		result, err := c.archiver.ArchiveDay(ctx, ref)
		if err != nil {
			return nil, err
		}
		if result.NothingToArchive() {
			c.logger.Info("nothing to archive")
		}
	}

	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	endOfDay := startOfDay.AddDate(0, 0, 1)
	windowEnd := c.scanner.WindowEnd(now)

	events, err := c.calendarSource.Events(ctx, startOfDay, windowEnd)
	if err != nil {
		if !errors.Is(err, services.ErrSourceUnavailable) {
			return nil, err
		}
		summary.Warnings = append(summary.Warnings, err)
		events = nil
	}
	records, err := c.classifyAll(ctx, events)
	if err != nil {
		return nil, err
	}
	var todayMeetings []classify.MeetingRecord
	for _, record := range records {
		if record.Event.Start.Before(endOfDay) {
			todayMeetings = append(todayMeetings, record)
		}
	}

	reconciled, err := c.scanActions(ctx, now)
	if err != nil {
		return nil, err
	}
	summary.Warnings = append(summary.Warnings, reconciled.Warnings...)

	gaps, err := c.scanner.FindAgendaGaps(ctx, records, now)
	if err != nil {
		return nil, err
	}
	summary.Gaps = gaps

	var messages []mail.Message
	if !opts.SkipEmail {
		messages, err = c.mailSource.Messages(ctx)
		if err != nil {
			if !errors.Is(err, services.ErrSourceUnavailable) {
				return nil, err
			}
			summary.Warnings = append(summary.Warnings, err)
			messages = nil
		}
	}

	d := c.buildDirective(summary.RunID, today, now, todayMeetings, reconciled, gaps, messages)
	path := opts.OutputPath
	if path == "" {
		path = c.ws.DirectivePath()
	}
	if err := directive.Save(path, d); err != nil {
		return nil, err
	}
	summary.DirectivePath = path
	summary.Meetings = len(d.Meetings)
	summary.Tasks = len(d.EnrichmentTasks)

	c.seedOverview(now, todayMeetings)

	state.Phase = PhaseAwaitingEnrichment
	state.DirectivePath = path
	if err := SaveState(c.ws.RunStatePath(), state); err != nil {
		return nil, err
	}
	summary.Phase = PhaseAwaitingEnrichment
	c.logger.Info("directive written",
		logging.String(logging.FieldRunID, summary.RunID),
		logging.String(logging.FieldPhase, string(PhaseAwaitingEnrichment)),
		logging.String("path", path),
		logging.Int("meetings", summary.Meetings),
		logging.Int("tasks", summary.Tasks))

	if c.provider.Available() {
		delivered, err := c.deliver(ctx, state, d, c.provider, opts.KeepDirective)
		if err != nil {
			return nil, err
		}
		summary.Delivered = delivered
		summary.Phase = PhaseComplete
		summary.Warnings = append(summary.Warnings, delivered.Warnings...)
	}
	return summary, nil
}

// resumeDecision applies the --resume/--restart flags, falling back to
// asking the operator about the pending directive.
func (c *Controller) resumeDecision(ctx context.Context, prior *RunState, opts DailyOptions) (bool, error) {
	switch {
	case opts.Restart:
		return false, nil
	case opts.Resume:
		return true, nil
	}
	answer, err := c.ask.Resolve(ctx, resolver.Question{
		Prompt:  "Resume it?",
		Options: []string{"resume", "restart"},
		Default: "resume",
		Context: fmt.Sprintf("A directive from %s is still awaiting enrichment.", prior.Date),
	})
	if err != nil {
		return false, err
	}
	return answer.Value != "restart", nil
}

// resumePrior continues a suspended run: deliver inline when a provider is
// available, otherwise report where the directive is waiting.
func (c *Controller) resumePrior(ctx context.Context, prior *RunState, opts DailyOptions) (*DailySummary, error) {
	summary := &DailySummary{
		RunID:         prior.RunID,
		Phase:         prior.Phase,
		DirectivePath: prior.DirectivePath,
		Resumed:       true,
	}
	d, err := directive.Load(prior.DirectivePath)
	if err != nil {
		return nil, err
	}
	summary.Meetings = len(d.Meetings)
	summary.Tasks = len(d.EnrichmentTasks)
	if !c.provider.Available() {
		c.logger.Info("directive still awaiting enrichment",
			logging.String(logging.FieldRunID, prior.RunID),
			logging.String("path", prior.DirectivePath))
		return summary, nil
	}
	delivered, err := c.deliver(ctx, prior, d, c.provider, opts.KeepDirective)
	if err != nil {
		return nil, err
	}
	summary.Delivered = delivered
	summary.Phase = PhaseComplete
	return summary, nil
}

// archiveReference picks the date key for the morning archival: the prior
// run's date when known, otherwise yesterday.
func (c *Controller) archiveReference(prior *RunState, now time.Time) time.Time {
	if prior != nil && prior.Date != "" && prior.Date != now.Format("2006-01-02") {
		if ref, err := time.Parse("2006-01-02", prior.Date); err == nil {
			return ref
		}
	}
	return now.AddDate(0, 0, -1)
}

// scanActions runs a reconciliation pass over the master and satellite
// lists with nothing new to ingest.
func (c *Controller) scanActions(ctx context.Context, now time.Time) (*actions.Result, error) {
	master, satellites, err := c.loadActionLists()
	if err != nil {
		return nil, err
	}
	return c.engine.Reconcile(ctx, actions.Input{
		Master:     master,
		Satellites: satellites,
		Now:        now,
	})
}

func (c *Controller) buildDirective(runID, date string, now time.Time,
	todays []classify.MeetingRecord, reconciled *actions.Result,
	gaps []lookahead.Gap, messages []mail.Message) *directive.Directive {

	d := &directive.Directive{
		Schema:        directive.SchemaVersion,
		RunID:         runID,
		Date:          date,
		GeneratedAt:   now,
		LookAheadGaps: gaps,
	}

	for _, record := range todays {
		d.Meetings = append(d.Meetings, directive.Meeting{
			ID:          record.Event.ID,
			Title:       record.Event.Title,
			Start:       record.Event.Start,
			End:         record.Event.End,
			Category:    string(record.Category),
			Entity:      record.Entity,
			AgendaOwner: string(record.AgendaOwner),
			PrepStatus:  string(record.Prep),
		})
		if record.Category == classify.CategoryCustomer || record.Category == classify.CategoryProject {
			d.EnrichmentTasks = append(d.EnrichmentTasks, directive.EnrichmentTask{
				ID:   "prep-" + record.Event.ID,
				Type: directive.TaskMeetingPrep,
				Input: map[string]any{
					"meeting_id": record.Event.ID,
					"title":      record.Event.Title,
					"entity":     record.Entity,
					"category":   string(record.Category),
					"start":      record.Event.Start.Format(time.RFC3339),
				},
			})
		}
	}

	appendAction := func(item actions.Item, overdue bool) {
		d.Actions = append(d.Actions, directive.Action{
			ID:      item.ID,
			Title:   item.Title,
			Due:     formatDue(item),
			Owner:   item.Owner,
			Status:  string(item.Status),
			Overdue: overdue,
		})
	}
	for _, item := range reconciled.DueToday {
		appendAction(item, false)
	}
	for _, item := range reconciled.Overdue {
		appendAction(item, true)
	}

	for _, gap := range gaps {
		d.EnrichmentTasks = append(d.EnrichmentTasks, directive.EnrichmentTask{
			ID:   "agenda-" + gap.MeetingID,
			Type: directive.TaskDraftAgenda,
			Input: map[string]any{
				"meeting_id": gap.MeetingID,
				"title":      gap.Title,
				"entity":     gap.Entity,
				"slug":       gap.Slug,
				"start":      gap.Start.Format(time.RFC3339),
			},
		})
	}

	if len(messages) > 0 {
		inbox := make([]map[string]any, 0, len(messages))
		for _, message := range messages {
			if !message.Unread && !message.Flagged {
				continue
			}
			inbox = append(inbox, map[string]any{
				"from":    message.From,
				"subject": message.Subject,
				"snippet": message.Snippet,
			})
		}
		if len(inbox) > 0 {
			d.EnrichmentTasks = append(d.EnrichmentTasks, directive.EnrichmentTask{
				ID:    "inbox-" + date,
				Type:  directive.TaskSummarizeInbox,
				Input: map[string]any{"messages": inbox},
			})
		}
	}

	d.EnrichmentTasks = append(d.EnrichmentTasks, directive.EnrichmentTask{
		ID:   "brief-" + date,
		Type: directive.TaskDailyBrief,
		Input: map[string]any{
			"date":      date,
			"meetings":  len(d.Meetings),
			"due_today": len(reconciled.DueToday),
			"overdue":   len(reconciled.Overdue),
		},
	})
	return d
}

func formatDue(item actions.Item) string {
	if item.Due.IsZero() {
		return ""
	}
	return item.Due.Format(actions.DateLayout)
}

// seedOverview makes sure today's meetings each have a week-overview row
// with their initial prep state.
func (c *Controller) seedOverview(now time.Time, todays []classify.MeetingRecord) {
	if len(todays) == 0 {
		return
	}
	if err := c.upsertOverviewRows(now, todays); err != nil {
		logging.Warn(c.logger, "week overview update failed", "overview_update_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "prep statuses missing from the overview table"))
	}
}
