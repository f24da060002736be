package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jakechorley/volunteer-hours/pkg/core/model"
)

// parseDate parses a YYYY-MM-DD argument as a UTC calendar date
func parseDate(name, value string) (time.Time, error) {
	d, err := time.Parse(model.DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be a date in YYYY-MM-DD format", model.ErrValidation, name)
	}
	return d, nil
}

// parseInstant parses an RFC3339 flag value, defaulting to now when empty
func parseInstant(name, value string, now func() time.Time) (time.Time, error) {
	if value == "" {
		return now().UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be an RFC3339 time such as 2025-03-15T09:00:00Z", model.ErrValidation, name)
	}
	return t.UTC(), nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format("2006-01-02 15:04")
}

func printVolunteers(w io.Writer, volunteers []model.Volunteer) {
	fmt.Fprintf(w, "\nFound %d volunteers:\n\n", len(volunteers))
	for _, v := range volunteers {
		fmt.Fprintf(w, "- %s (%s) - %s - %s\n", v.FullName(), v.ID, v.Status, v.Email)
	}
	fmt.Fprintln(w)
}

func printEvents(w io.Writer, events []model.Event) {
	fmt.Fprintf(w, "\n%-36s  %-10s  %-25s  %-20s  %5s  %5s\n", "ID", "Date", "Title", "Location", "Open", "Taken")
	fmt.Fprintln(w, strings.Repeat("-", 36)+"  "+strings.Repeat("-", 10)+"  "+strings.Repeat("-", 25)+"  "+strings.Repeat("-", 20)+"  -----  -----")
	for _, e := range events {
		fmt.Fprintf(w, "%-36s  %-10s  %-25s  %-20s  %5d  %5d\n",
			e.ID,
			e.Date.Format(model.DateLayout),
			e.Title,
			orDash(e.Location),
			e.Capacity,
			e.CurrentRegistrations,
		)
	}
	fmt.Fprintln(w)
}

func printAttendance(w io.Writer, records []model.Attendance) {
	fmt.Fprintf(w, "\n%-36s  %-36s  %-36s  %-16s  %-16s  %5s  %-8s\n", "ID", "Volunteer", "Event", "Check in", "Check out", "Hours", "Status")
	for _, a := range records {
		fmt.Fprintf(w, "%-36s  %-36s  %-36s  %-16s  %-16s  %5.0f  %-8s\n",
			a.ID,
			a.VolunteerID,
			a.EventID,
			a.CheckInTime.UTC().Format("2006-01-02 15:04"),
			formatOptionalTime(a.CheckOutTime),
			a.HoursWorked,
			a.Status,
		)
	}
	fmt.Fprintln(w)
}

func printAttendanceRecord(w io.Writer, a *model.Attendance) {
	fmt.Fprintf(w, "Attendance ID: %s\n", a.ID)
	fmt.Fprintf(w, "Volunteer:     %s\n", a.VolunteerID)
	fmt.Fprintf(w, "Event:         %s\n", a.EventID)
	fmt.Fprintf(w, "Checked in:    %s\n", a.CheckInTime.UTC().Format(time.RFC3339))
	fmt.Fprintf(w, "Checked out:   %s\n", formatOptionalTime(a.CheckOutTime))
	fmt.Fprintf(w, "Hours:         %.0f\n", a.HoursWorked)
	fmt.Fprintf(w, "Status:        %s (%s)\n\n", a.Status, a.State())
}

func printTimesheets(w io.Writer, sheets []model.Timesheet) {
	fmt.Fprintf(w, "\n%-36s  %-36s  %-25s  %-23s  %7s  %-8s\n", "ID", "Volunteer", "Event", "Period", "Hours", "Status")
	for _, ts := range sheets {
		event := "All events"
		if ts.IsAccrualLine() {
			event = ts.EventName
		}
		fmt.Fprintf(w, "%-36s  %-36s  %-25s  %-23s  %7.2f  %-8s\n",
			ts.ID,
			ts.VolunteerID,
			event,
			formatPeriod(&ts),
			ts.TotalHours,
			ts.ApprovalStatus,
		)
	}
	fmt.Fprintln(w)
}

func printTimesheet(w io.Writer, ts *model.Timesheet) {
	fmt.Fprintf(w, "Timesheet ID: %s\n", orDash(ts.ID))
	fmt.Fprintf(w, "Volunteer:    %s\n", ts.VolunteerID)
	if ts.IsAccrualLine() {
		fmt.Fprintf(w, "Event:        %s (%s)\n", ts.EventName, ts.EventID)
	}
	fmt.Fprintf(w, "Period:       %s\n", formatPeriod(ts))
	fmt.Fprintf(w, "Hours:        %.2f\n", ts.TotalHours)
	fmt.Fprintf(w, "Status:       %s\n", orDash(string(ts.ApprovalStatus)))
	if ts.ApprovedBy != "" {
		fmt.Fprintf(w, "Decided by:   %s\n", ts.ApprovedBy)
	}
	if ts.RejectionReason != "" {
		fmt.Fprintf(w, "Reason:       %s\n", ts.RejectionReason)
	}
	fmt.Fprintln(w)
}

func formatPeriod(ts *model.Timesheet) string {
	return ts.PeriodStart.Format(model.DateLayout) + ".." + ts.PeriodEnd.Format(model.DateLayout)
}
