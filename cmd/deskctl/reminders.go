package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/xaenox/deskbot/internal/models"
)

const timeLayout = "Mon Jan 2 15:04"

func newRemindersCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reminders",
		Short: "Manage reminders",
	}

	var all bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List pending reminders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svcs, err := c.services(cmd.Context())
			if err != nil {
				return err
			}

			list := svcs.Reminders.Pending
			if all {
				list = svcs.Reminders.List
			}
			rs, err := list(cmd.Context(), c.userID)
			if err != nil {
				return err
			}

			if len(rs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No reminders.")
				return nil
			}
			writeReminderTable(cmd.OutOrStdout(), rs, svcs.Location)
			return nil
		},
	}
	listCmd.Flags().BoolVar(&all, "all", false, "include completed reminders")

	addCmd := &cobra.Command{
		Use:   "add <text>",
		Short: `Create a reminder from text, e.g. "call John tomorrow at 3pm"`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svcs, err := c.services(cmd.Context())
			if err != nil {
				return err
			}

			r, err := svcs.Reminders.CreateFromText(cmd.Context(), c.userID, strings.Join(args, " "))
			if err != nil {
				return fmt.Errorf("failed to create reminder: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s: %s (due %s, %s)\n",
				r.ID, r.Title, r.DueDate.In(svcs.Location).Format(timeLayout), r.Priority)
			return nil
		},
	}

	doneCmd := &cobra.Command{
		Use:   "done <id>",
		Short: "Mark a reminder as done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svcs, err := c.services(cmd.Context())
			if err != nil {
				return err
			}

			r, err := svcs.Reminders.Lookup(cmd.Context(), c.userID, args[0])
			if err != nil {
				return err
			}
			if _, err := svcs.Reminders.Complete(cmd.Context(), c.userID, r.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Done: %s\n", r.Title)
			return nil
		},
	}

	cmd.AddCommand(listCmd, addCmd, doneCmd)
	return cmd
}

func writeReminderTable(out io.Writer, rs []*models.Reminder, loc *time.Location) {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"ID", "Title", "Due (" + loc.String() + ")", "Priority", "Status"})
	table.SetAutoWrapText(false)

	for _, r := range rs {
		status := "pending"
		switch {
		case r.Completed:
			status = "done"
		case r.Notified:
			status = "notified"
		}
		table.Append([]string{r.ID, r.Title, r.DueDate.In(loc).Format(timeLayout), string(r.Priority), status})
	}
	table.Render()
}
