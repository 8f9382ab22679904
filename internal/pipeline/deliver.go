package pipeline

import (
	"context"
	"path/filepath"
	"time"

	"daybook/internal/actions"
	"daybook/internal/directive"
	"daybook/internal/enrich"
	"daybook/internal/logging"
	"daybook/internal/lookahead"
	"daybook/internal/prep"
	"daybook/internal/services"
)

// DeliverOptions are the `deliver` command flags.
type DeliverOptions struct {
	// ResultsPath points at an out-of-process results file; empty uses the
	// controller's configured provider.
	ResultsPath   string
	DirectivePath string
	KeepDirective bool
}

// DeliverSummary reports what the delivery phase wrote.
type DeliverSummary struct {
	RunID          string
	PrepsWritten   int
	AgendasWritten int
	ActionsAdded   int
	// Placeholders lists task ids that got mechanical content instead of an
	// enrichment result.
	Placeholders []string
	ManualMode   bool
	Warnings     []error
}

// Deliver runs Phase 3 against the persisted directive: collect results,
// write artifacts, update prep statuses, fold discovered actions in, and
// retire the directive.
func (c *Controller) Deliver(ctx context.Context, opts DeliverOptions) (*DeliverSummary, error) {
	lock, err := c.lock()
	if err != nil {
		return nil, err
	}
	defer lock.Release()

	state, err := LoadState(c.ws.RunStatePath())
	if err != nil {
		return nil, err
	}
	path := opts.DirectivePath
	if path == "" && state != nil && state.DirectivePath != "" {
		path = state.DirectivePath
	}
	if path == "" {
		path = c.ws.DirectivePath()
	}
	d, err := directive.Load(path)
	if err != nil {
		return nil, err
	}
	if state == nil || state.RunID != d.RunID {
		state = &RunState{
			RunID:         d.RunID,
			Date:          d.Date,
			Phase:         PhaseAwaitingEnrichment,
			DirectivePath: path,
			StartedAt:     c.now(),
		}
	}

	provider := c.provider
	if opts.ResultsPath != "" {
		provider = enrich.NewFileProvider(opts.ResultsPath)
	}
	return c.deliver(ctx, state, d, provider, opts.KeepDirective)
}

func (c *Controller) deliver(ctx context.Context, state *RunState, d *directive.Directive,
	provider enrich.Provider, keepDirective bool) (*DeliverSummary, error) {

	summary := &DeliverSummary{RunID: d.RunID}
	state.Phase = PhaseDelivering
	if err := SaveState(c.ws.RunStatePath(), state); err != nil {
		return nil, err
	}

	results := map[string]enrich.Result{}
	if provider != nil && provider.Available() {
		fetched, err := provider.Enrich(ctx, d.EnrichmentTasks)
		switch {
		case err == nil:
			results = fetched
		case services.IsWarning(err):
			// Degraded enrichment: deliver mechanical content instead.
			summary.ManualMode = true
			summary.Warnings = append(summary.Warnings, err)
			logging.Warn(c.logger, "enrichment failed, delivering in manual mode",
				"enrichment_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "artifacts carry mechanical content only"))
		default:
			return nil, err
		}
	} else {
		summary.ManualMode = true
	}

	day, err := time.Parse("2006-01-02", d.Date)
	if err != nil {
		day = c.now()
	}

	var discovered []actions.Item
	var briefContent, inboxContent string

	for _, task := range d.EnrichmentTasks {
		result, ok := results[task.ID]
		if ok {
			for _, suggestion := range result.Actions {
				item := actions.Item{
					Title:  suggestion.Title,
					Owner:  suggestion.Owner,
					Source: task.ID,
				}
				if due, parseErr := time.Parse(actions.DateLayout, suggestion.Due); parseErr == nil {
					item.Due = due
				}
				discovered = append(discovered, item)
			}
		} else if !summary.ManualMode {
			summary.Placeholders = append(summary.Placeholders, task.ID)
			warn := services.Wrap(services.ErrPartialEnrichment, "pipeline", "deliver",
				"no result for task "+task.ID, nil)
			summary.Warnings = append(summary.Warnings, warn)
		}

		switch task.Type {
		case directive.TaskMeetingPrep:
			if err := c.deliverPrep(d, task, result, ok, summary); err != nil {
				return nil, err
			}
		case directive.TaskDraftAgenda:
			if err := c.deliverAgenda(d, task, result, ok, summary); err != nil {
				return nil, err
			}
		case directive.TaskSummarizeInbox:
			inboxContent = result.Content
		case directive.TaskDailyBrief:
			briefContent = result.Content
		}
	}

	reconciled, err := c.ingestDiscovered(ctx, discovered, day)
	if err != nil {
		return nil, err
	}
	summary.ActionsAdded = len(reconciled.Added)
	summary.Warnings = append(summary.Warnings, reconciled.Warnings...)

	brief := renderBrief(d, briefContent, inboxContent, reconciled.WaitingOn)
	if err := writeArtifact(filepath.Join(c.ws.TodayDir(), "brief.md"), brief); err != nil {
		return nil, err
	}

	directivePath := state.DirectivePath
	if directivePath == "" {
		directivePath = c.ws.DirectivePath()
	}
	if err := directive.Retire(directivePath, c.ws.ArchiveDayDir(day), keepDirective); err != nil {
		return nil, err
	}
	state.Phase = PhaseComplete
	if err := SaveState(c.ws.RunStatePath(), state); err != nil {
		return nil, err
	}
	c.logger.Info("delivery complete",
		logging.String(logging.FieldRunID, d.RunID),
		logging.String(logging.FieldPhase, string(PhaseComplete)),
		logging.Int("preps", summary.PrepsWritten),
		logging.Int("agendas", summary.AgendasWritten),
		logging.Int("placeholders", len(summary.Placeholders)),
		logging.Bool("manual_mode", summary.ManualMode))
	return summary, nil
}

// deliverPrep writes the prep artifact for a meeting_prep task and advances
// the meeting's status only when enrichment actually produced content.
func (c *Controller) deliverPrep(d *directive.Directive, task directive.EnrichmentTask,
	result enrich.Result, enriched bool, summary *DeliverSummary) error {

	meetingID, _ := task.Input["meeting_id"].(string)
	meeting, ok := d.MeetingByID(meetingID)
	if !ok {
		return nil
	}
	content := result.Content
	if !enriched {
		content = prepPlaceholder(meeting)
	}
	if err := writeArtifact(c.prepArtifactPath(meeting), content); err != nil {
		return err
	}
	summary.PrepsWritten++

	if !enriched {
		// Failed enrichment leaves the meeting in its initial state.
		return nil
	}
	from, _ := prep.Parse(meeting.PrepStatus)
	advanced, err := prep.Advance(from, prep.StatusPrepReady)
	if err != nil {
		return nil
	}
	if err := c.setOverviewStatus(meeting.Start, meeting.Title, advanced); err != nil {
		logging.Warn(c.logger, "overview status update failed", "overview_update_failed",
			logging.String("meeting", meeting.Title),
			logging.Error(err))
	}
	return nil
}

// deliverAgenda writes the agenda draft for a draft_agenda task.
func (c *Controller) deliverAgenda(d *directive.Directive, task directive.EnrichmentTask,
	result enrich.Result, enriched bool, summary *DeliverSummary) error {

	slug, _ := task.Input["slug"].(string)
	if slug == "" {
		return nil
	}
	meetingID, _ := task.Input["meeting_id"].(string)
	var gap lookahead.Gap
	found := false
	for _, candidate := range d.LookAheadGaps {
		if candidate.MeetingID == meetingID {
			gap = candidate
			found = true
			break
		}
	}
	if !found {
		return nil
	}
	content := result.Content
	if !enriched {
		content = agendaPlaceholder(gap)
	}
	if err := writeArtifact(c.agendaArtifactPath(slug), content); err != nil {
		return err
	}
	summary.AgendasWritten++

	if enriched {
		if err := c.setOverviewStatus(gap.Start, gap.Title, prep.StatusDraftReady); err != nil {
			logging.Warn(c.logger, "overview status update failed", "overview_update_failed",
				logging.String("meeting", gap.Title),
				logging.Error(err))
		}
	}
	return nil
}

// ingestDiscovered folds enrichment-discovered actions into the master list
// through a normal reconciliation pass.
func (c *Controller) ingestDiscovered(ctx context.Context, discovered []actions.Item, day time.Time) (*actions.Result, error) {
	master, satellites, err := c.loadActionLists()
	if err != nil {
		return nil, err
	}
	return c.engine.Reconcile(ctx, actions.Input{
		Master:     master,
		Satellites: satellites,
		Discovered: discovered,
		Now:        day,
	})
}
