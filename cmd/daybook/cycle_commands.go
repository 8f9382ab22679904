package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"daybook/internal/pipeline"
)

func newDailyCommand(ctx *commandContext) *cobra.Command {
	var opts pipeline.DailyOptions

	cmd := &cobra.Command{
		Use:   "daily",
		Short: "Run the morning cycle: archive, classify, scan, emit the directive",
		RunE: func(cmd *cobra.Command, args []string) error {
			controller, err := ctx.newController()
			if err != nil {
				return err
			}
			defer controller.Close()

			summary, err := controller.RunDaily(cmd.Context(), opts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printWarnings(cmd, summary.Warnings)
			if summary.Resumed {
				fmt.Fprintf(out, "Resumed run %s\n", summary.RunID)
			}
			fmt.Fprintf(out, "Directive: %s (%d meetings, %d tasks, %d agenda gaps)\n",
				summary.DirectivePath, summary.Meetings, summary.Tasks, len(summary.Gaps))
			if summary.Delivered != nil {
				printDelivery(cmd, summary.Delivered)
				return nil
			}
			fmt.Fprintln(out, "Awaiting enrichment. Hand the directive to the enrichment step, then run:")
			fmt.Fprintln(out, "  daybook deliver <results.json>")
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.SkipArchive, "skip-archive", false, "Leave yesterday's artifacts in place")
	cmd.Flags().BoolVar(&opts.SkipEmail, "skip-email", false, "Skip the mail feed for this run")
	cmd.Flags().StringVarP(&opts.OutputPath, "output", "o", "", "Write the directive to a custom location")
	cmd.Flags().BoolVar(&opts.KeepDirective, "keep-directive", false, "Leave the directive in place after delivery")
	cmd.Flags().BoolVar(&opts.Resume, "resume", false, "Resume a pending directive without asking")
	cmd.Flags().BoolVar(&opts.Restart, "restart", false, "Discard a pending directive and start fresh")
	cmd.MarkFlagsMutuallyExclusive("resume", "restart")
	return cmd
}

func newDeliverCommand(ctx *commandContext) *cobra.Command {
	var opts pipeline.DeliverOptions

	cmd := &cobra.Command{
		Use:   "deliver [results.json]",
		Short: "Run the delivery phase against the pending directive",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.ResultsPath = args[0]
			}
			controller, err := ctx.newController()
			if err != nil {
				return err
			}
			defer controller.Close()

			summary, err := controller.Deliver(cmd.Context(), opts)
			if err != nil {
				return err
			}
			printWarnings(cmd, summary.Warnings)
			printDelivery(cmd, summary)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.DirectivePath, "directive", "", "Deliver a directive from a custom location")
	cmd.Flags().BoolVar(&opts.KeepDirective, "keep-directive", false, "Leave the directive in place after delivery")
	return cmd
}

func newWeeklyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "weekly",
		Short: "Close out the week and plan the next one",
		RunE: func(cmd *cobra.Command, args []string) error {
			controller, err := ctx.newController()
			if err != nil {
				return err
			}
			defer controller.Close()

			summary, err := controller.RunWeekly(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printWarnings(cmd, summary.Warnings)
			fmt.Fprintf(out, "Closed week %02d; %d archived day(s) filed into the inbox\n",
				summary.ClosedWeek, summary.Ingested)
			fmt.Fprintf(out, "Plan: %s\nOverview: %s\n", summary.PlanPath, summary.OverviewPath)
			return nil
		},
	}
}

func newWrapCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "wrap",
		Short: "Run the evening close: mark past meetings done and reconcile actions",
		RunE: func(cmd *cobra.Command, args []string) error {
			controller, err := ctx.newController()
			if err != nil {
				return err
			}
			defer controller.Close()

			summary, err := controller.Wrap(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printWarnings(cmd, summary.Warnings)
			fmt.Fprintf(out, "Wrapped %s: %d meeting(s) done, %d completion(s) synced, %d still due\n",
				summary.Date, summary.MeetingsDone, summary.ActionsSynced, summary.OpenDueToday)
			return nil
		},
	}
}

func printDelivery(cmd *cobra.Command, summary *pipeline.DeliverSummary) {
	out := cmd.OutOrStdout()
	mode := "enriched"
	if summary.ManualMode {
		mode = "manual"
	}
	fmt.Fprintf(out, "Delivered (%s): %d prep note(s), %d agenda draft(s), %d action(s) added\n",
		mode, summary.PrepsWritten, summary.AgendasWritten, summary.ActionsAdded)
	if len(summary.Placeholders) > 0 {
		fmt.Fprintf(out, "Placeholders for %d task(s) without results\n", len(summary.Placeholders))
	}
}

func printWarnings(cmd *cobra.Command, warnings []error) {
	errOut := cmd.ErrOrStderr()
	for _, warning := range warnings {
		fmt.Fprintf(errOut, "warning: %v\n", warning)
	}
}
