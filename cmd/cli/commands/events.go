package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jakechorley/volunteer-hours/pkg/core/model"
	"github.com/jakechorley/volunteer-hours/pkg/core/services"
)

// CreateEventCmd creates the createEvent command
func CreateEventCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "createEvent <title> <date> <capacity>",
		Short: "Create an event with the given number of open slots",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			location, _ := cmd.Flags().GetString("location")

			date, err := parseDate("date", args[1])
			if err != nil {
				return err
			}

			capacity, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("capacity must be a number: %w", err)
			}

			event, err := app.Ledger.CreateEvent(app.Ctx, args[0], date, location, capacity)
			if err != nil {
				return fmt.Errorf("failed to create event: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "\n✓ Event created\n\n")
			fmt.Fprintf(out, "Event ID: %s\n", event.ID)
			fmt.Fprintf(out, "Title:    %s\n", event.Title)
			fmt.Fprintf(out, "Date:     %s\n", args[1])
			fmt.Fprintf(out, "Slots:    %d\n\n", event.Capacity)
			return nil
		},
	}

	cmd.Flags().String("location", "", "Where the event takes place")

	return cmd
}

// ListEventsCmd creates the listEvents command
func ListEventsCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "listEvents",
		Short: "List events with open and taken slots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			events, err := app.Ledger.ListEvents(app.Ctx)
			if err != nil {
				return fmt.Errorf("failed to list events: %w", err)
			}

			printEvents(cmd.OutOrStdout(), events)
			return nil
		},
	}
}

// UpdateEventCmd creates the updateEvent command
func UpdateEventCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "updateEvent <event_id>",
		Short: "Change an event's title, date or location",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			var changes services.EventChanges

			if flags.Changed("title") {
				title, _ := flags.GetString("title")
				changes.Title = &title
			}
			if flags.Changed("date") {
				value, _ := flags.GetString("date")
				date, err := parseDate("date", value)
				if err != nil {
					return err
				}
				changes.Date = &date
			}
			if flags.Changed("location") {
				location, _ := flags.GetString("location")
				changes.Location = &location
			}
			if changes == (services.EventChanges{}) {
				return fmt.Errorf("%w: nothing to change, pass --title, --date or --location", model.ErrValidation)
			}

			event, err := app.Ledger.UpdateEvent(app.Ctx, args[0], changes)
			if err != nil {
				return fmt.Errorf("failed to update event: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "\n✓ Event updated\n\n")
			fmt.Fprintf(out, "Event ID: %s\n", event.ID)
			fmt.Fprintf(out, "Title:    %s\n", event.Title)
			fmt.Fprintf(out, "Date:     %s\n", event.Date.Format(model.DateLayout))
			fmt.Fprintf(out, "Location: %s\n\n", orDash(event.Location))
			return nil
		},
	}

	cmd.Flags().String("title", "", "New title")
	cmd.Flags().String("date", "", "New date (YYYY-MM-DD)")
	cmd.Flags().String("location", "", "New location")

	return cmd
}

// DeleteEventCmd creates the deleteEvent command
func DeleteEventCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deleteEvent <event_id>",
		Short: "Delete an event. Recorded attendance and hours are kept.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Ledger.DeleteEvent(app.Ctx, args[0]); err != nil {
				return fmt.Errorf("failed to delete event: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\n✓ Event %s deleted\n\n", args[0])
			return nil
		},
	}
}
