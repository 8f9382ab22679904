package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"daybook/internal/actions"
	"daybook/internal/classify"
	"daybook/internal/directive"
	"daybook/internal/fileutil"
	"daybook/internal/lookahead"
	"daybook/internal/overview"
	"daybook/internal/prep"
	"daybook/internal/textutil"
)

// loadActionLists opens the master list plus every satellite under tasks/.
func (c *Controller) loadActionLists() (*actions.List, []*actions.List, error) {
	master, err := actions.LoadList(c.cfg.MasterActionsPath())
	if err != nil {
		return nil, nil, err
	}
	var satellites []*actions.List
	entries, err := os.ReadDir(c.ws.TasksDir())
	if err != nil {
		if os.IsNotExist(err) {
			return master, nil, nil
		}
		return nil, nil, fmt.Errorf("list satellites: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".md" {
			continue
		}
		path := filepath.Join(c.ws.TasksDir(), entry.Name())
		if path == c.cfg.MasterActionsPath() {
			continue
		}
		satellite, err := actions.LoadList(path)
		if err != nil {
			return nil, nil, err
		}
		satellites = append(satellites, satellite)
	}
	return master, satellites, nil
}

// upsertOverviewRows writes meeting rows into the week overview table for
// the week the given time falls in.
func (c *Controller) upsertOverviewRows(when time.Time, records []classify.MeetingRecord) error {
	_, week := when.ISOWeek()
	path := c.ws.WeekOverviewPath(week)
	var table *overview.Table
	if fileutil.Exists(path) {
		loaded, err := overview.Load(path)
		if err != nil {
			return err
		}
		table = loaded
	} else {
		table = overview.New(path, week)
	}
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
	return table.Save()
}

// setOverviewStatus updates a single row's prep column, quietly doing
// nothing when the row was never seeded.
func (c *Controller) setOverviewStatus(when time.Time, meeting string, status prep.Status) error {
	_, week := when.ISOWeek()
	table, err := overview.Load(c.ws.WeekOverviewPath(week))
	if err != nil {
		return err
	}
	if !table.SetStatus(when.Format("Mon"), meeting, status) {
		return nil
	}
	return table.Save()
}

func meetingType(record classify.MeetingRecord) string {
	switch record.Category {
	case classify.CategoryProject:
		return "sync"
	case classify.CategoryInternal:
		return "internal"
	case classify.CategoryPersonal:
		return "hold"
	default:
		if record.AgendaOwner == prep.OwnerSelf {
			return "led"
		}
		return "attend"
	}
}

// prepArtifactPath is where a meeting's prep notes land under today/.
func (c *Controller) prepArtifactPath(meeting directive.Meeting) string {
	token := meeting.Entity
	if token == "" {
		token = meeting.Title
	}
	name := fmt.Sprintf("prep-%s-%s.md", textutil.SanitizeToken(token), meeting.Start.Format("1504"))
	return filepath.Join(c.ws.TodayDir(), name)
}

func (c *Controller) agendaArtifactPath(slug string) string {
	return filepath.Join(c.cfg.AgendasDir(), slug+".md")
}

func writeArtifact(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return fileutil.WriteFileAtomic(path, []byte(content), 0o644)
}

func prepPlaceholder(meeting directive.Meeting) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", meeting.Title)
	fmt.Fprintf(&b, "%s, %s-%s", meeting.Start.Format("Mon 2006-01-02"),
		meeting.Start.Format("15:04"), meeting.End.Format("15:04"))
	if meeting.Entity != "" {
		fmt.Fprintf(&b, " with %s", textutil.DisplayName(meeting.Entity))
	}
	b.WriteString("\n\n> Enrichment pending. Notes below are mechanical.\n\n")
	fmt.Fprintf(&b, "- category: %s\n- prep status: %s\n", meeting.Category, meeting.PrepStatus)
	return b.String()
}

func agendaPlaceholder(gap lookahead.Gap) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Agenda: %s\n\n", gap.Title)
	fmt.Fprintf(&b, "%s\n\n", gap.Start.Format("Mon 2006-01-02 15:04"))
	b.WriteString("> Enrichment pending. Fill in before the meeting.\n\n- [ ] topic\n")
	return b.String()
}

// renderBrief assembles today/brief.md from the directive and whatever
// enrichment produced.
func renderBrief(d *directive.Directive, briefContent, inboxContent string, waitingOn []actions.Item) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Daily Brief — %s\n\n", d.Date)

	if briefContent != "" {
		b.WriteString(strings.TrimSpace(briefContent))
		b.WriteString("\n\n")
	}

	b.WriteString("## Meetings\n\n")
	if len(d.Meetings) == 0 {
		b.WriteString("No meetings today.\n\n")
	} else {
		meetings := make([]directive.Meeting, len(d.Meetings))
		copy(meetings, d.Meetings)
		sort.Slice(meetings, func(i, j int) bool { return meetings[i].Start.Before(meetings[j].Start) })
		for _, meeting := range meetings {
			fmt.Fprintf(&b, "- %s %s (%s", meeting.Start.Format("15:04"), meeting.Title, meeting.Category)
			if meeting.Entity != "" {
				fmt.Fprintf(&b, ", %s", textutil.DisplayName(meeting.Entity))
			}
			fmt.Fprintf(&b, ") %s\n", prep.Status(meeting.PrepStatus).Icon())
		}
		b.WriteString("\n")
	}

	var due, overdue []directive.Action
	for _, action := range d.Actions {
		if action.Overdue {
			overdue = append(overdue, action)
		} else {
			due = append(due, action)
		}
	}
	b.WriteString("## Actions\n\n")
	if len(due) == 0 && len(overdue) == 0 {
		b.WriteString("Nothing due today.\n\n")
	}
	for _, action := range due {
		fmt.Fprintf(&b, "- [ ] %s\n", action.Title)
	}
	for _, action := range overdue {
		fmt.Fprintf(&b, "- [ ] %s (overdue, was due %s)\n", action.Title, action.Due)
	}
	if len(due)+len(overdue) > 0 {
		b.WriteString("\n")
	}
	if len(waitingOn) > 0 {
		b.WriteString("## Waiting on\n\n")
		for _, item := range waitingOn {
			fmt.Fprintf(&b, "- %s (%s)\n", item.Title, item.Owner)
		}
		b.WriteString("\n")
	}

	if inboxContent != "" {
		b.WriteString("## Inbox\n\n")
		b.WriteString(strings.TrimSpace(inboxContent))
		b.WriteString("\n\n")
	}

	if len(d.LookAheadGaps) > 0 {
		b.WriteString("## Agenda gaps ahead\n\n")
		for _, gap := range d.LookAheadGaps {
			fmt.Fprintf(&b, "- %s on %s\n", gap.Title, gap.Start.Format("Mon 2006-01-02"))
		}
		b.WriteString("\n")
	}
	return b.String()
}
