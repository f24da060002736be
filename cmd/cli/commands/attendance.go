package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jakechorley/volunteer-hours/pkg/core/model"
	"github.com/jakechorley/volunteer-hours/pkg/core/services"
)

// CheckInCmd creates the checkIn command
func CheckInCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkIn <volunteer_id> <event_id>",
		Short: "Check a volunteer in to an event, taking one slot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			atFlag, _ := cmd.Flags().GetString("at")
			at, err := parseInstant("--at", atFlag, time.Now)
			if err != nil {
				return err
			}

			attendance, err := app.Tracker.CheckIn(app.Ctx, args[0], args[1], at)
			if err != nil {
				return fmt.Errorf("failed to check in: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\n✓ Checked in\n\n")
			printAttendanceRecord(cmd.OutOrStdout(), attendance)
			return nil
		},
	}

	cmd.Flags().String("at", "", "Check-in time (RFC3339, defaults to now)")

	return cmd
}

// CheckOutCmd creates the checkOut command
func CheckOutCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkOut <attendance_id>",
		Short: "Check a volunteer out and accrue the hours worked",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			atFlag, _ := cmd.Flags().GetString("at")
			at, err := parseInstant("--at", atFlag, time.Now)
			if err != nil {
				return err
			}

			attendance, err := app.Tracker.CheckOut(app.Ctx, args[0], at)
			if err != nil {
				return fmt.Errorf("failed to check out: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\n✓ Checked out\n\n")
			printAttendanceRecord(cmd.OutOrStdout(), attendance)
			return nil
		},
	}

	cmd.Flags().String("at", "", "Check-out time (RFC3339, defaults to now)")

	return cmd
}

// SetAttendanceStatusCmd creates the setAttendanceStatus command
func SetAttendanceStatusCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "setAttendanceStatus <attendance_id> <PRESENT|ABSENT|EXCUSED|LATE>",
		Short: "Set the status tag of an attendance record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			attendance, err := app.Tracker.UpdateStatus(app.Ctx, args[0], model.AttendanceStatus(args[1]))
			if err != nil {
				return fmt.Errorf("failed to set attendance status: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\n✓ Attendance %s is now %s\n\n", attendance.ID, attendance.Status)
			return nil
		},
	}
}

// EditAttendanceCmd creates the editAttendance command
func EditAttendanceCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "editAttendance <attendance_id>",
		Short: "Correct the times, hours or status of an attendance record",
		Long: `Correct an attendance record. The accrual line is adjusted by the change in hours.
When the times change and --hours is not given, hours are recomputed from the new times.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			attendance, err := app.Tracker.ByID(app.Ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to load attendance: %w", err)
			}

			if err := applyAttendanceEdits(cmd, attendance); err != nil {
				return err
			}

			updated, err := app.Tracker.Update(app.Ctx, attendance)
			if err != nil {
				return fmt.Errorf("failed to edit attendance: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\n✓ Attendance updated\n\n")
			printAttendanceRecord(cmd.OutOrStdout(), updated)
			return nil
		},
	}

	cmd.Flags().String("check-in", "", "New check-in time (RFC3339)")
	cmd.Flags().String("check-out", "", "New check-out time (RFC3339)")
	cmd.Flags().Float64("hours", 0, "Hours worked, overriding the computed value")
	cmd.Flags().String("status", "", "New status tag")

	return cmd
}

// applyAttendanceEdits overlays the flags that were set onto the record
func applyAttendanceEdits(cmd *cobra.Command, attendance *model.Attendance) error {
	flags := cmd.Flags()
	timesChanged := false

	if flags.Changed("check-in") {
		value, _ := flags.GetString("check-in")
		at, err := parseInstant("--check-in", value, time.Now)
		if err != nil {
			return err
		}
		attendance.CheckInTime = at
		timesChanged = true
	}

	if flags.Changed("check-out") {
		value, _ := flags.GetString("check-out")
		at, err := parseInstant("--check-out", value, time.Now)
		if err != nil {
			return err
		}
		attendance.CheckOutTime = &at
		timesChanged = true
	}

	if flags.Changed("status") {
		value, _ := flags.GetString("status")
		attendance.Status = model.AttendanceStatus(value)
	}

	switch {
	case flags.Changed("hours"):
		attendance.HoursWorked, _ = flags.GetFloat64("hours")
	case timesChanged && attendance.CheckOutTime != nil && !attendance.CheckOutTime.Before(attendance.CheckInTime):
		attendance.HoursWorked = services.HoursBetween(attendance.CheckInTime, *attendance.CheckOutTime)
	}

	return nil
}

// DeleteAttendanceCmd creates the deleteAttendance command
func DeleteAttendanceCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deleteAttendance <attendance_id>",
		Short: "Delete an attendance record and give its slot back to the event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Tracker.Delete(app.Ctx, args[0]); err != nil {
				return fmt.Errorf("failed to delete attendance: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\n✓ Attendance %s deleted\n\n", args[0])
			return nil
		},
	}
}

// ListAttendanceCmd creates the listAttendance command
func ListAttendanceCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "listAttendance",
		Short: "List attendance records, optionally for one volunteer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			volunteerID, _ := cmd.Flags().GetString("volunteer")

			var records []model.Attendance
			var err error
			if volunteerID != "" {
				records, err = app.Tracker.ByVolunteer(app.Ctx, volunteerID)
			} else {
				records, err = app.Tracker.ListAll(app.Ctx)
			}
			if err != nil {
				return fmt.Errorf("failed to list attendance: %w", err)
			}

			printAttendance(cmd.OutOrStdout(), records)
			return nil
		},
	}

	cmd.Flags().String("volunteer", "", "Only show records for this volunteer id")

	return cmd
}
