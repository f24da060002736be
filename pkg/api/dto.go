package api

import (
	"fmt"
	"time"

	"github.com/jakechorley/volunteer-hours/pkg/core/model"
)

type volunteerJSON struct {
	ID               string    `json:"id"`
	FirstName        string    `json:"first_name"`
	LastName         string    `json:"last_name"`
	Email            string    `json:"email"`
	Phone            string    `json:"phone,omitempty"`
	Status           string    `json:"status"`
	LastModifiedBy   string    `json:"last_modified_by,omitempty"`
	LastModifiedDate time.Time `json:"last_modified_date"`
}

func toVolunteerJSON(v model.Volunteer) volunteerJSON {
	return volunteerJSON{
		ID:               v.ID,
		FirstName:        v.FirstName,
		LastName:         v.LastName,
		Email:            v.Email,
		Phone:            v.Phone,
		Status:           string(v.Status),
		LastModifiedBy:   v.LastModifiedBy,
		LastModifiedDate: v.LastModifiedDate,
	}
}

type eventJSON struct {
	ID                   string `json:"id"`
	Title                string `json:"title"`
	Date                 string `json:"date"`
	Location             string `json:"location,omitempty"`
	Capacity             int    `json:"capacity"`
	CurrentRegistrations int    `json:"current_registrations"`
}

func toEventJSON(e model.Event) eventJSON {
	return eventJSON{
		ID:                   e.ID,
		Title:                e.Title,
		Date:                 e.Date.Format(model.DateLayout),
		Location:             e.Location,
		Capacity:             e.Capacity,
		CurrentRegistrations: e.CurrentRegistrations,
	}
}

type attendanceJSON struct {
	ID           string     `json:"id"`
	VolunteerID  string     `json:"volunteer_id"`
	EventID      string     `json:"event_id"`
	CheckInTime  time.Time  `json:"check_in_time"`
	CheckOutTime *time.Time `json:"check_out_time,omitempty"`
	HoursWorked  float64    `json:"hours_worked"`
	Status       string     `json:"status"`
	State        string     `json:"state"`
}

func toAttendanceJSON(a model.Attendance) attendanceJSON {
	return attendanceJSON{
		ID:           a.ID,
		VolunteerID:  a.VolunteerID,
		EventID:      a.EventID,
		CheckInTime:  a.CheckInTime,
		CheckOutTime: a.CheckOutTime,
		HoursWorked:  a.HoursWorked,
		Status:       string(a.Status),
		State:        string(a.State()),
	}
}

type timesheetJSON struct {
	ID               string    `json:"id"`
	VolunteerID      string    `json:"volunteer_id"`
	EventID          string    `json:"event_id,omitempty"`
	EventName        string    `json:"event_name,omitempty"`
	PeriodStart      string    `json:"period_start"`
	PeriodEnd        string    `json:"period_end"`
	TotalHours       float64   `json:"total_hours"`
	ApprovalStatus   string    `json:"approval_status"`
	ApprovedBy       string    `json:"approved_by,omitempty"`
	RejectionReason  string    `json:"rejection_reason,omitempty"`
	CreatedDate      time.Time `json:"created_date"`
	LastModifiedDate time.Time `json:"last_modified_date"`
	LastModifiedBy   string    `json:"last_modified_by,omitempty"`
}

func toTimesheetJSON(ts model.Timesheet) timesheetJSON {
	return timesheetJSON{
		ID:               ts.ID,
		VolunteerID:      ts.VolunteerID,
		EventID:          ts.EventID,
		EventName:        ts.EventName,
		PeriodStart:      ts.PeriodStart.Format(model.DateLayout),
		PeriodEnd:        ts.PeriodEnd.Format(model.DateLayout),
		TotalHours:       ts.TotalHours,
		ApprovalStatus:   string(ts.ApprovalStatus),
		ApprovedBy:       ts.ApprovedBy,
		RejectionReason:  ts.RejectionReason,
		CreatedDate:      ts.CreatedDate,
		LastModifiedDate: ts.LastModifiedDate,
		LastModifiedBy:   ts.LastModifiedBy,
	}
}

func mapSlice[T, U any](in []T, f func(T) U) []U {
	out := make([]U, 0, len(in))
	for _, v := range in {
		out = append(out, f(v))
	}
	return out
}

// parseDate parses a YYYY-MM-DD field
func parseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(model.DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be a YYYY-MM-DD date", model.ErrValidation, field)
	}
	return t, nil
}

// parseOptionalTime parses an RFC 3339 timestamp; empty means zero
func parseOptionalTime(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be an RFC 3339 timestamp", model.ErrValidation, field)
	}
	return t.UTC(), nil
}
