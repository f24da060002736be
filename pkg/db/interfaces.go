package db

import (
	"context"

	"github.com/jakechorley/volunteer-hours/pkg/core/model"
)

// EventStore defines the interface for event database operations.
// FindEvent returns model.ErrNotFound when the event does not exist.
type EventStore interface {
	FindEvent(ctx context.Context, id string) (*model.Event, error)
	InsertEvent(ctx context.Context, event *model.Event) error
	UpdateEvent(ctx context.Context, event *model.Event) error
	DeleteEvent(ctx context.Context, id string) (bool, error)
	ListEvents(ctx context.Context) ([]model.Event, error)
}

// AttendanceStore defines the interface for attendance database operations.
// UpdateAttendance returns model.ErrNotFound when the record does not exist;
// SaveAttendance writes the full record, inserting it if needed.
type AttendanceStore interface {
	InsertAttendance(ctx context.Context, attendance *model.Attendance) error
	FindAttendance(ctx context.Context, id string) (*model.Attendance, error)
	UpdateAttendance(ctx context.Context, attendance *model.Attendance) error
	SaveAttendance(ctx context.Context, attendance *model.Attendance) error
	DeleteAttendance(ctx context.Context, id string) (bool, error)
	ListAttendanceByVolunteer(ctx context.Context, volunteerID string) ([]model.Attendance, error)
	ListAttendance(ctx context.Context) ([]model.Attendance, error)
}

// TimesheetStore defines the interface for timesheet database operations.
// FindTimesheetByPair returns nil, nil when no accrual line exists for the pair.
type TimesheetStore interface {
	InsertTimesheet(ctx context.Context, timesheet *model.Timesheet) error
	UpdateTimesheet(ctx context.Context, timesheet *model.Timesheet) error
	DeleteTimesheet(ctx context.Context, id string) (bool, error)
	FindTimesheet(ctx context.Context, id string) (*model.Timesheet, error)
	FindTimesheetByPair(ctx context.Context, key model.PairKey) (*model.Timesheet, error)
	ListTimesheetsByVolunteer(ctx context.Context, volunteerID string) ([]model.Timesheet, error)
	ListTimesheets(ctx context.Context) ([]model.Timesheet, error)
}

// VolunteerStore defines the interface for volunteer database operations.
// FindVolunteerByEmail returns nil, nil when no volunteer has the email.
type VolunteerStore interface {
	FindVolunteer(ctx context.Context, id string) (*model.Volunteer, error)
	FindVolunteerByEmail(ctx context.Context, email string) (*model.Volunteer, error)
	InsertVolunteer(ctx context.Context, volunteer *model.Volunteer) error
	UpdateVolunteer(ctx context.Context, volunteer *model.Volunteer) error
	DeleteVolunteer(ctx context.Context, id string) (bool, error)
	ListVolunteers(ctx context.Context) ([]model.Volunteer, error)
}

// AdminStore defines the interface for administrator account operations
type AdminStore interface {
	FindAdminByUsername(ctx context.Context, username string) (*model.Admin, error)
	InsertAdmin(ctx context.Context, admin *model.Admin) error
}

// Transactor runs fn so that every store write made with the ctx it receives
// is applied together or not at all.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Database defines the interface for all database operations.
// Both memstore.DB and postgres.DB implement this interface.
type Database interface {
	EventStore
	AttendanceStore
	TimesheetStore
	VolunteerStore
	AdminStore
	Transactor
}
