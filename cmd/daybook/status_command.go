package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"daybook/internal/actions"
	"daybook/internal/overview"
	"daybook/internal/pipeline"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current run, this week's overview, and feed health",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			controller, err := ctx.newController()
			if err != nil {
				return err
			}
			defer controller.Close()

			out := cmd.OutOrStdout()
			now := time.Now()
			ws := controller.Workspace()

			state, err := pipeline.LoadState(ws.RunStatePath())
			if err != nil {
				return err
			}
			if state == nil {
				fmt.Fprintln(out, "Run: none recorded")
			} else {
				fmt.Fprintf(out, "Run: %s (%s, phase %s)\n", state.RunID, state.Date, state.Phase)
				if state.Pending() {
					fmt.Fprintf(out, "Pending directive: %s\n", state.DirectivePath)
				}
			}

			master, err := actions.LoadList(cfg.MasterActionsPath())
			if err != nil {
				fmt.Fprintf(out, "Master actions: unreadable (%v)\n", err)
			} else if master.ModTime().IsZero() {
				fmt.Fprintf(out, "Master actions: not created yet (%s)\n", cfg.MasterActionsPath())
			} else {
				open := 0
				for _, item := range master.Items() {
					if !item.Completed() {
						open++
					}
				}
				age := now.Sub(master.ModTime())
				fmt.Fprintf(out, "Master actions: %d open, touched %s ago\n",
					open, age.Round(time.Minute))
				if cfg.Actions.StaleAfterDays > 0 &&
					age > time.Duration(cfg.Actions.StaleAfterDays)*24*time.Hour {
					fmt.Fprintf(out, "  stale: untouched for more than %d day(s)\n", cfg.Actions.StaleAfterDays)
				}
			}

			_, week := now.ISOWeek()
			weekTable, err := overview.Load(ws.WeekOverviewPath(week))
			if err != nil {
				return err
			}
			rows := weekTable.Rows()
			fmt.Fprintf(out, "\nWeek %02d overview (%d meetings):\n", week, len(rows))
			if len(rows) > 0 {
				printed := make([][]string, 0, len(rows))
				for _, row := range rows {
					printed = append(printed, []string{
						row.Day, row.Meeting, row.Time, row.Category, row.Status, row.Type,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Day", "Meeting", "Time", "Category", "Prep", "Type"},
					printed,
				))
			}

			unresolved, err := controller.Cache().Unresolved(cmd.Context())
			if err != nil {
				return err
			}
			if len(unresolved) == 0 {
				fmt.Fprintln(out, "Unresolved domains: none")
				return nil
			}
			fmt.Fprintf(out, "Unresolved domains (%d): run `daybook cache resolve` to map them\n", len(unresolved))
			for _, domain := range unresolved {
				fmt.Fprintf(out, "  - %s (seen %d time(s), last %s)\n",
					domain.Domain, domain.Hits, domain.LastSeen.Format("2006-01-02"))
			}
			return nil
		},
	}
}
