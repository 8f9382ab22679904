package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"daybook/internal/classify"
	"daybook/internal/logging"
	"daybook/internal/overview"
	"daybook/internal/services"
	"daybook/internal/textutil"
)

// WeeklySummary reports what the weekly roll-up did.
type WeeklySummary struct {
	ClosedWeek   int
	NextWeek     int
	Ingested     int
	PlanPath     string
	OverviewPath string
	Warnings     []error
}

// RunWeekly closes out the current week: archive the week artifacts, ingest
// the daily archives into the long-term inbox, then build next week's plan
// and seed its overview from the look-ahead window.
func (c *Controller) RunWeekly(ctx context.Context) (*WeeklySummary, error) {
	lock, err := c.lock()
	if err != nil {
		return nil, err
	}
	defer lock.Release()

	now := c.now()
	_, currentWeek := now.ISOWeek()

	result, err := c.archiver.ArchiveWeek(ctx, currentWeek)
	if err != nil {
		return nil, err
	}
	summary := &WeeklySummary{ClosedWeek: currentWeek, Ingested: result.Ingested}

	monday := nextMonday(now)
	_, nextWeek := monday.ISOWeek()
	summary.NextWeek = nextWeek

	events, err := c.calendarSource.Events(ctx, monday, monday.AddDate(0, 0, 5))
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

	table := overview.New(c.ws.WeekOverviewPath(nextWeek), nextWeek)
	for _, record := range records {
		table.Upsert(overview.Row{
			Day:      record.Event.Start.Format("Mon"),
			Meeting:  record.Event.Title,
			Time:     record.Event.Start.Format("15:04"),
			Category: string(record.Category),
			Status:   record.Prep.Icon(),
			Type:     meetingType(record),
		})
	}
	if err := table.Save(); err != nil {
		return nil, err
	}
	summary.OverviewPath = c.ws.WeekOverviewPath(nextWeek)

	plan := renderWeekPlan(nextWeek, monday, records)
	summary.PlanPath = c.ws.WeekPlanPath(nextWeek)
	if err := writeArtifact(summary.PlanPath, plan); err != nil {
		return nil, err
	}

	c.logger.Info("weekly roll-up complete",
		logging.Int("closed_week", currentWeek),
		logging.Int("next_week", nextWeek),
		logging.Int("ingested", result.Ingested))
	return summary, nil
}

func nextMonday(now time.Time) time.Time {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	for {
		day = day.AddDate(0, 0, 1)
		if day.Weekday() == time.Monday {
			return day
		}
	}
}

func renderWeekPlan(week int, monday time.Time, records []classify.MeetingRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Week %02d Plan\n\n", week)
	fmt.Fprintf(&b, "%s to %s\n\n", monday.Format("2006-01-02"),
		monday.AddDate(0, 0, 4).Format("2006-01-02"))

	for offset := 0; offset < 5; offset++ {
		day := monday.AddDate(0, 0, offset)
		fmt.Fprintf(&b, "## %s\n\n", day.Format("Monday 2006-01-02"))
		found := false
		for _, record := range records {
			if record.Event.Start.Format("2006-01-02") != day.Format("2006-01-02") {
				continue
			}
			found = true
			fmt.Fprintf(&b, "- %s %s (%s", record.Event.Start.Format("15:04"),
				record.Event.Title, record.Category)
			if record.Entity != "" {
				fmt.Fprintf(&b, ", %s", textutil.DisplayName(record.Entity))
			}
			b.WriteString(")\n")
		}
		if !found {
			b.WriteString("- open\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}
