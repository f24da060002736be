package model

import "time"

// DateLayout is the layout used for calendar dates (event dates, timesheet periods)
const DateLayout = "2006-01-02"

type VolunteerStatus string

const (
	VolunteerActive   VolunteerStatus = "ACTIVE"
	VolunteerInactive VolunteerStatus = "INACTIVE"
)

func (s VolunteerStatus) IsValid() bool {
	return s == VolunteerActive || s == VolunteerInactive
}

// Volunteer represents a registered volunteer
type Volunteer struct {
	ID               string
	FirstName        string `validate:"required"`
	LastName         string `validate:"required"`
	Email            string `validate:"required"`
	Phone            string // Empty string if not provided
	Status           VolunteerStatus
	LastModifiedBy   string
	LastModifiedDate time.Time
}

// FullName returns "FirstName LastName"
func (v Volunteer) FullName() string {
	if v.LastName == "" {
		return v.FirstName
	}
	return v.FirstName + " " + v.LastName
}

// Event is a capacity-constrained volunteering event.
// Capacity is the number of open slots remaining, not the total size.
type Event struct {
	ID                   string
	Title                string `validate:"required"`
	Date                 time.Time
	Location             string
	Capacity             int `validate:"min=0"`
	CurrentRegistrations int `validate:"min=0"`
}

// TotalSlots is capacity + registrations, fixed for the life of the event
func (e Event) TotalSlots() int {
	return e.Capacity + e.CurrentRegistrations
}

type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "PRESENT"
	AttendanceAbsent  AttendanceStatus = "ABSENT"
	AttendanceExcused AttendanceStatus = "EXCUSED"
	AttendanceLate    AttendanceStatus = "LATE"
)

func (s AttendanceStatus) IsValid() bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceExcused, AttendanceLate:
		return true
	}
	return false
}

// AttendanceState is derived from whether a check-out time has been recorded
type AttendanceState string

const (
	AttendanceOpen   AttendanceState = "OPEN"
	AttendanceClosed AttendanceState = "CLOSED"
)

// Attendance records one volunteer's presence at one event
type Attendance struct {
	ID           string
	VolunteerID  string
	EventID      string
	CheckInTime  time.Time
	CheckOutTime *time.Time // nil while the record is open
	HoursWorked  float64    // zero until checked out or edited
	Status       AttendanceStatus
}

// State reports OPEN until a check-out time is recorded
func (a Attendance) State() AttendanceState {
	if a.CheckOutTime == nil {
		return AttendanceOpen
	}
	return AttendanceClosed
}

type TimesheetStatus string

const (
	TimesheetPending  TimesheetStatus = "PENDING"
	TimesheetApproved TimesheetStatus = "APPROVED"
	TimesheetRejected TimesheetStatus = "REJECTED"
)

func (s TimesheetStatus) IsValid() bool {
	return s == TimesheetPending || s == TimesheetApproved || s == TimesheetRejected
}

// Timesheet is either an accrual line for one (volunteer, event) pair, or an
// aggregate over a date range when EventID is empty.
type Timesheet struct {
	ID               string
	VolunteerID      string
	EventID          string // Empty string for aggregate timesheets
	EventName        string
	PeriodStart      time.Time
	PeriodEnd        time.Time
	TotalHours       float64
	ApprovalStatus   TimesheetStatus
	ApprovedBy       string
	RejectionReason  string
	CreatedDate      time.Time
	LastModifiedDate time.Time
	LastModifiedBy   string
}

// IsAccrualLine reports whether the timesheet is tied to a single event
func (t Timesheet) IsAccrualLine() bool {
	return t.EventID != ""
}

// PairKey identifies the accrual line for a (volunteer, event) pair
type PairKey struct {
	VolunteerID string
	EventID     string
}

func (k PairKey) String() string {
	return k.VolunteerID + "/" + k.EventID
}

type AdminRole string

const (
	RoleSuperAdmin AdminRole = "SUPER_ADMIN"
	RoleAdmin      AdminRole = "ADMIN"
)

// Admin is an administrator account able to approve timesheets
type Admin struct {
	ID           string
	Username     string
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	Role         AdminRole
	CreatedDate  time.Time
}

// Session identifies who is performing an operation. It is passed explicitly
// into calls that stamp audit fields.
type Session struct {
	ActorID string
}

// Actor returns the actor id, defaulting to "system"
func (s Session) Actor() string {
	if s.ActorID == "" {
		return "system"
	}
	return s.ActorID
}

// Notification is a fire-and-forget message about a significant change
type Notification struct {
	Kind        string
	VolunteerID string
	EventID     string
	Subject     string
	Message     string
	OccurredAt  time.Time
}

const (
	NotifyCheckIn           = "attendance.checked_in"
	NotifyCheckOut          = "attendance.checked_out"
	NotifyCapacityExceeded  = "event.capacity_exceeded"
	NotifyTimesheetApproved = "timesheet.approved"
	NotifyTimesheetRejected = "timesheet.rejected"
)

// TimesheetRow is one published line of an approved timesheet
type TimesheetRow struct {
	VolunteerName string
	Email         string
	EventName     string
	PeriodStart   string
	PeriodEnd     string
	TotalHours    float64
	ApprovedBy    string
}
