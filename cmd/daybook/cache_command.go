package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"daybook/internal/classify"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the classification learning cache",
	}

	cacheCmd.AddCommand(newCacheListCommand(ctx))
	cacheCmd.AddCommand(newCacheResolveCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))

	return cacheCmd
}

func newCacheListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show learned domain resolutions and unresolved domains",
		RunE: func(cmd *cobra.Command, args []string) error {
			controller, err := ctx.newController()
			if err != nil {
				return err
			}
			defer controller.Close()

			cache := controller.Cache()
			entries, err := cache.Entries(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "Learned resolutions: none")
			} else {
				rows := make([][]string, 0, len(entries))
				for _, entry := range entries {
					rows = append(rows, []string{
						entry.Domain,
						entry.AttendeePattern,
						entry.TitlePattern,
						entry.Entity,
						string(entry.Confidence),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Domain", "Attendee", "Title", "Entity", "Confidence"},
					rows,
				))
			}

			unresolved, err := cache.Unresolved(cmd.Context())
			if err != nil {
				return err
			}
			if len(unresolved) == 0 {
				fmt.Fprintln(out, "Unresolved domains: none")
				return nil
			}
			fmt.Fprintln(out, "Unresolved domains:")
			pending := make([][]string, 0, len(unresolved))
			for _, domain := range unresolved {
				pending = append(pending, []string{
					domain.Domain,
					strconv.Itoa(domain.Hits),
					domain.LastSeen.Format("2006-01-02"),
				})
			}
			fmt.Fprintln(out, renderTable([]string{"Domain", "Hits", "Last Seen"}, pending, 1))
			return nil
		},
	}
}

func newCacheResolveCommand(ctx *commandContext) *cobra.Command {
	var attendeePattern string
	var titlePattern string

	cmd := &cobra.Command{
		Use:   "resolve <domain> <entity>",
		Short: "Map an ambiguous domain to an entity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			domain := strings.ToLower(strings.TrimSpace(args[0]))
			entity := strings.TrimSpace(args[1])
			if domain == "" || entity == "" {
				return fmt.Errorf("domain and entity must be non-empty")
			}

			controller, err := ctx.newController()
			if err != nil {
				return err
			}
			defer controller.Close()

			entry := classify.Entry{
				Domain:          domain,
				AttendeePattern: strings.ToLower(strings.TrimSpace(attendeePattern)),
				TitlePattern:    strings.TrimSpace(titlePattern),
				Entity:          entity,
				Confidence:      classify.ConfidenceUserConfirmed,
				CreatedAt:       time.Now().UTC(),
			}
			if err := controller.Cache().Store(cmd.Context(), entry); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Mapped %s to %s\n", domain, entity)
			return nil
		},
	}

	cmd.Flags().StringVar(&attendeePattern, "attendee", "", "Restrict the mapping to a specific attendee address")
	cmd.Flags().StringVar(&titlePattern, "title", "", "Restrict the mapping to meetings whose title contains this text")
	return cmd
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Drop all learned resolutions and unresolved domains",
		RunE: func(cmd *cobra.Command, args []string) error {
			controller, err := ctx.newController()
			if err != nil {
				return err
			}
			defer controller.Close()

			if err := controller.Cache().Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Classification cache cleared")
			return nil
		},
	}
}
