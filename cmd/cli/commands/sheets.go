package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jakechorley/volunteer-hours/pkg/clients/sheetsclient"
	"github.com/jakechorley/volunteer-hours/pkg/core/model"
	"github.com/jakechorley/volunteer-hours/pkg/core/services"
)

// ImportVolunteersCmd creates the importVolunteers command
func ImportVolunteersCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "importVolunteers",
		Short: "Register volunteers from the volunteer sheet",
		Long:  "Register every row of the configured volunteer sheet. Rows with invalid details or an email already registered are skipped.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sheetsCfg, err := app.SheetsConfig()
			if err != nil {
				return err
			}
			client, err := app.SheetsClient(app.Ctx)
			if err != nil {
				return fmt.Errorf("failed to create sheets client: %w", err)
			}

			sheet := sheetsclient.NewVolunteerSheet(client, sheetsCfg.VolunteerSheetID, sheetsCfg.VolunteersTab)
			result, err := services.ImportVolunteers(app.Ctx, app.Volunteers, sheet, app.Session(), app.Logger)
			if err != nil {
				return fmt.Errorf("failed to import volunteers: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "\n✓ Imported %d volunteers\n\n", len(result.Imported))
			for _, v := range result.Imported {
				fmt.Fprintf(out, "  ✓ %s (%s)\n", v.FullName(), v.Email)
			}

			if len(result.Skipped) > 0 {
				fmt.Fprintf(out, "\n⚠️  Skipped %d rows:\n", len(result.Skipped))
				for _, s := range result.Skipped {
					fmt.Fprintf(out, "  ✗ %s [%s]: %s\n", orDash(s.Email), s.Kind, s.Reason)
				}
			}
			fmt.Fprintln(out)
			return nil
		},
	}
}

// PublishTimesheetsCmd creates the publishTimesheets command
func PublishTimesheetsCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "publishTimesheets [start_date end_date]",
		Short: "Publish approved timesheets to a new tab of the timesheet sheet",
		Long:  "Publish approved timesheets whose period ends within the given dates. Without dates the latest reporting period is used.",
		Args:  cobra.MatchAll(cobra.RangeArgs(0, 2), rangeArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			period, err := publishPeriod(app, args, time.Now())
			if err != nil {
				return err
			}

			sheetsCfg, err := app.SheetsConfig()
			if err != nil {
				return err
			}
			client, err := app.SheetsClient(app.Ctx)
			if err != nil {
				return fmt.Errorf("failed to create sheets client: %w", err)
			}

			sheet := sheetsclient.NewTimesheetSheet(client, sheetsCfg.TimesheetSheetID)
			result, err := services.PublishTimesheets(app.Ctx, app.Accrual, app.Volunteers, sheet, app.Logger, period)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(result.Rows) == 0 {
				fmt.Fprintf(out, "\nNo approved timesheets for %s.\n\n", period)
				return nil
			}

			fmt.Fprintf(out, "\n✅ Published %d rows to tab %q\n\n", len(result.Rows), result.TabTitle)
			fmt.Fprintf(out, "%-25s  %-25s  %-23s  %7s\n", "Volunteer", "Event", "Period", "Hours")
			for _, row := range result.Rows {
				fmt.Fprintf(out, "%-25s  %-25s  %-23s  %7.2f\n", row.VolunteerName, row.EventName, row.PeriodStart+".."+row.PeriodEnd, row.TotalHours)
			}
			fmt.Fprintln(out)
			return nil
		},
	}
}

// rangeArgs accepts either no dates or both
func rangeArgs(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		return fmt.Errorf("give both start_date and end_date, or neither")
	}
	return nil
}

func publishPeriod(app *AppContext, args []string, now time.Time) (services.ReportingPeriod, error) {
	if len(args) == 2 {
		start, end, err := parseRange(args[0], args[1])
		if err != nil {
			return services.ReportingPeriod{}, err
		}
		if end.Before(start) {
			return services.ReportingPeriod{}, fmt.Errorf("%w: end_date is before start_date", model.ErrInvalidTimeRange)
		}
		return services.ReportingPeriod{Start: start, End: end}, nil
	}

	if app.Cfg.Reporting == nil {
		return services.ReportingPeriod{}, services.ErrReportingNotConfigured
	}
	return services.LatestPeriod(app.Cfg.Reporting.PeriodRule, app.Cfg.Reporting.PeriodDays, now)
}
