package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-hours/pkg/core/model"
)

// GenerateTimesheetCmd creates the generateTimesheet command
func GenerateTimesheetCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "generateTimesheet <volunteer_id> <start_date> <end_date>",
		Short: "Preview a volunteer's hours for a date range without saving",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, end, err := parseRange(args[1], args[2])
			if err != nil {
				return err
			}

			ts, err := app.Accrual.Generate(app.Ctx, args[0], start, end)
			if err != nil {
				return fmt.Errorf("failed to generate timesheet: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\nTimesheet preview (not saved)\n\n")
			printTimesheet(cmd.OutOrStdout(), ts)
			return nil
		},
	}
}

// SubmitTimesheetCmd creates the submitTimesheet command
func SubmitTimesheetCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submitTimesheet <volunteer_id> <start_date> <end_date>",
		Short: "Save a volunteer's timesheet for a date range",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, _ := cmd.Flags().GetString("status")

			start, end, err := parseRange(args[1], args[2])
			if err != nil {
				return err
			}

			ts, err := app.Accrual.Submit(app.Ctx, app.Session(), args[0], start, end, model.TimesheetStatus(status))
			if err != nil {
				return fmt.Errorf("failed to submit timesheet: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\n✓ Timesheet submitted\n\n")
			printTimesheet(cmd.OutOrStdout(), ts)
			return nil
		},
	}

	cmd.Flags().String("status", string(model.TimesheetPending), "Status to submit with")

	return cmd
}

// SubmitEventTimesheetCmd creates the submitEventTimesheet command
func SubmitEventTimesheetCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "submitEventTimesheet <volunteer_id> <event_id>",
		Short: "Submit the accrual line for one volunteer at one event for approval",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			event, err := app.Ledger.GetEvent(app.Ctx, args[1])
			if err != nil {
				return fmt.Errorf("failed to load event: %w", err)
			}

			ts, err := app.Accrual.SubmitForEvent(app.Ctx, app.Session(), args[0], event.ID, event.Title)
			if err != nil {
				return fmt.Errorf("failed to submit timesheet: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\n✓ Timesheet submitted\n\n")
			printTimesheet(cmd.OutOrStdout(), ts)
			return nil
		},
	}
}

// ApproveTimesheetCmd creates the approveTimesheet command
func ApproveTimesheetCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "approveTimesheet <timesheet_id>",
		Short: "Approve a PENDING timesheet as the --actor administrator",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			adminID, err := app.AdminID(app.Ctx)
			if err != nil {
				return err
			}

			ts, err := app.Accrual.Approve(app.Ctx, args[0], adminID)
			if err != nil {
				return fmt.Errorf("failed to approve timesheet: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\n✅ Timesheet approved\n\n")
			printTimesheet(cmd.OutOrStdout(), ts)
			return nil
		},
	}
}

// RejectTimesheetCmd creates the rejectTimesheet command
func RejectTimesheetCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rejectTimesheet <timesheet_id> <reason>",
		Short: "Reject a PENDING timesheet as the --actor administrator",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			adminID, err := app.AdminID(app.Ctx)
			if err != nil {
				return err
			}

			ts, err := app.Accrual.Reject(app.Ctx, args[0], adminID, args[1])
			if err != nil {
				return fmt.Errorf("failed to reject timesheet: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\n✗ Timesheet rejected\n\n")
			printTimesheet(cmd.OutOrStdout(), ts)
			return nil
		},
	}
}

// ListTimesheetsCmd creates the listTimesheets command
func ListTimesheetsCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "listTimesheets",
		Short: "List timesheets, optionally filtered by volunteer and status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			volunteerID, _ := cmd.Flags().GetString("volunteer")
			status, _ := cmd.Flags().GetString("status")

			var sheets []model.Timesheet
			var err error
			if volunteerID != "" {
				sheets, err = app.Accrual.ListByVolunteer(app.Ctx, volunteerID)
			} else {
				sheets, err = app.Accrual.ListAll(app.Ctx)
			}
			if err != nil {
				return fmt.Errorf("failed to list timesheets: %w", err)
			}

			if status != "" {
				sheets = filterByStatus(sheets, model.TimesheetStatus(status))
			}

			app.Logger.Debug("Timesheets fetched", zap.Int("count", len(sheets)))
			printTimesheets(cmd.OutOrStdout(), sheets)
			return nil
		},
	}

	cmd.Flags().String("volunteer", "", "Only show timesheets for this volunteer id")
	cmd.Flags().String("status", "", "Only show timesheets with this status")

	return cmd
}

// DeleteTimesheetCmd creates the deleteTimesheet command
func DeleteTimesheetCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deleteTimesheet <timesheet_id>",
		Short: "Delete a timesheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Accrual.Delete(app.Ctx, args[0]); err != nil {
				return fmt.Errorf("failed to delete timesheet: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\n✓ Timesheet %s deleted\n\n", args[0])
			return nil
		},
	}
}

// GeneratePeriodTimesheetsCmd creates the generatePeriodTimesheets command
func GeneratePeriodTimesheetsCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "generatePeriodTimesheets",
		Short: "Submit timesheets for every active volunteer for the latest reporting period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := app.PeriodRunner().Run(app.Ctx, app.Session())
			if err != nil {
				return fmt.Errorf("failed to generate period timesheets: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "\n✓ Period %s\n\n", result.Period)
			fmt.Fprintf(out, "Submitted: %d\n", len(result.Submitted))
			fmt.Fprintf(out, "Skipped (already decided): %d\n", len(result.Skipped))
			if len(result.Submitted) > 0 {
				printTimesheets(out, result.Submitted)
			}
			return nil
		},
	}
}

func parseRange(startArg, endArg string) (start, end time.Time, err error) {
	start, err = parseDate("start_date", startArg)
	if err != nil {
		return
	}
	end, err = parseDate("end_date", endArg)
	return
}

func filterByStatus(sheets []model.Timesheet, status model.TimesheetStatus) []model.Timesheet {
	var filtered []model.Timesheet
	for _, ts := range sheets {
		if ts.ApprovalStatus == status {
			filtered = append(filtered, ts)
		}
	}
	return filtered
}
