package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"daybook/internal/actions"
	"daybook/internal/classify"
	"daybook/internal/logging"
	"daybook/internal/prep"
	"daybook/internal/services"
)

// WrapSummary reports what the evening close did.
type WrapSummary struct {
	Date          string
	MeetingsDone  int
	ActionsSynced int
	OpenDueToday  int
	Warnings      []error
	// HadDirective is false when the daily cycle never ran; wrapping still
	// works off the calendar alone.
	HadDirective bool
}

// Wrap runs the closing cycle: mark every past meeting done, reconcile
// action completion both ways, and write the wrap summary. A skipped daily
// cycle is fine; there is simply no directive to account for.
func (c *Controller) Wrap(ctx context.Context) (*WrapSummary, error) {
	lock, err := c.lock()
	if err != nil {
		return nil, err
	}
	defer lock.Release()

	now := c.now()
	summary := &WrapSummary{Date: now.Format("2006-01-02")}

	state, err := LoadState(c.ws.RunStatePath())
	if err != nil {
		return nil, err
	}
	summary.HadDirective = state != nil && state.Date == summary.Date

	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	events, err := c.calendarSource.Events(ctx, startOfDay, startOfDay.AddDate(0, 0, 1))
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

	var completed []classify.MeetingRecord
	for _, record := range records {
		if !record.Event.Ended(now) {
			continue
		}
		// Done is unconditional for any meeting whose end has passed.
		done := prep.Complete(record.Prep)
		if err := c.setOverviewStatus(record.Event.Start, record.Event.Title, done); err != nil {
			logging.Warn(c.logger, "overview status update failed", "overview_update_failed",
				logging.String("meeting", record.Event.Title),
				logging.Error(err))
		}
		completed = append(completed, record)
	}
	summary.MeetingsDone = len(completed)

	master, satellites, err := c.loadActionLists()
	if err != nil {
		return nil, err
	}
	reconciled, err := c.engine.Reconcile(ctx, actions.Input{
		Master:     master,
		Satellites: satellites,
		Now:        now,
	})
	if err != nil {
		return nil, err
	}
	summary.ActionsSynced = reconciled.Synced
	summary.OpenDueToday = len(reconciled.DueToday)
	summary.Warnings = append(summary.Warnings, reconciled.Warnings...)

	wrap := renderWrap(summary, completed, reconciled)
	path := filepath.Join(c.ws.TodayDir(), fmt.Sprintf("wrap-%s.md", summary.Date))
	if err := writeArtifact(path, wrap); err != nil {
		return nil, err
	}
	c.logger.Info("wrap written",
		logging.String("date", summary.Date),
		logging.Int("meetings_done", summary.MeetingsDone),
		logging.Int("actions_synced", summary.ActionsSynced))
	return summary, nil
}

func renderWrap(summary *WrapSummary, completed []classify.MeetingRecord, reconciled *actions.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Wrap — %s\n\n", summary.Date)

	b.WriteString("## Meetings\n\n")
	if len(completed) == 0 {
		b.WriteString("No meetings ended today.\n\n")
	} else {
		for _, record := range completed {
			fmt.Fprintf(&b, "- %s %s (%s) %s\n", record.Event.Start.Format("15:04"),
				record.Event.Title, record.Category, prep.StatusDone.Icon())
		}
		b.WriteString("\n")
	}

	b.WriteString("## Actions\n\n")
	if len(reconciled.DueToday) == 0 {
		b.WriteString("Nothing left due today.\n")
	} else {
		b.WriteString("Still open:\n")
		for _, item := range reconciled.DueToday {
			fmt.Fprintf(&b, "- [ ] %s\n", item.Title)
		}
	}
	if len(reconciled.Overdue) > 0 {
		b.WriteString("\nOverdue:\n")
		for _, item := range reconciled.Overdue {
			due := item.Due.Format(actions.DateLayout)
			fmt.Fprintf(&b, "- [ ] %s (was due %s)\n", item.Title, due)
		}
	}
	if len(reconciled.WaitingOn) > 0 {
		b.WriteString("\nWaiting on:\n")
		for _, item := range reconciled.WaitingOn {
			fmt.Fprintf(&b, "- %s (%s)\n", item.Title, item.Owner)
		}
	}
	if !summary.HadDirective {
		b.WriteString("\nThe morning cycle did not run today.\n")
	}
	return b.String()
}
