package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-hours/pkg/core/model"
	"github.com/jakechorley/volunteer-hours/pkg/db"
)

// AttendanceTracker records check-ins and check-outs, keeping event capacity
// and accrual lines in step with every attendance change.
type AttendanceTracker struct {
	store    db.Database
	ledger   *CapacityLedger
	accrual  *AccrualEngine
	locks    *Locks
	notifier Notifier
	metrics  *Metrics
	logger   *zap.Logger
	now      func() time.Time
}

// NewAttendanceTracker creates a tracker. The ledger and accrual engine must
// share the tracker's lock table.
func NewAttendanceTracker(store db.Database, ledger *CapacityLedger, accrual *AccrualEngine, locks *Locks, notifier Notifier, metrics *Metrics, logger *zap.Logger) *AttendanceTracker {
	return &AttendanceTracker{
		store:    store,
		ledger:   ledger,
		accrual:  accrual,
		locks:    locks,
		notifier: notifierOrNop(notifier),
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// HoursBetween returns whole hours worked, rounded up from whole minutes and
// never negative.
func HoursBetween(checkIn, checkOut time.Time) float64 {
	minutes := math.Floor(checkOut.Sub(checkIn).Minutes())
	return math.Max(0, math.Ceil(minutes/60))
}

// CheckIn reserves a slot on the event, records an OPEN attendance and makes
// sure the pair has an accrual line. Nothing is written if any step fails.
func (t *AttendanceTracker) CheckIn(ctx context.Context, volunteerID, eventID string, at time.Time) (*model.Attendance, error) {
	if at.IsZero() {
		at = t.now()
	}

	t.logger.Debug("Checking in",
		zap.String("volunteer_id", volunteerID),
		zap.String("event_id", eventID))

	attendance, event, err := t.checkIn(ctx, volunteerID, eventID, at)
	if errors.Is(err, model.ErrCapacityExceeded) {
		t.metrics.incCapacityRejected()
		t.logger.Info("Check-in rejected, event is full",
			zap.String("volunteer_id", volunteerID),
			zap.String("event_id", eventID))
		t.notifier.Notify(ctx, model.Notification{
			Kind:        model.NotifyCapacityExceeded,
			VolunteerID: volunteerID,
			EventID:     eventID,
			Subject:     "Event full",
			Message:     "Check-in was refused because the event has no open slots.",
			OccurredAt:  at,
		})
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	t.metrics.incCheckIn()
	t.logger.Info("Checked in",
		zap.String("attendance_id", attendance.ID),
		zap.String("volunteer_id", volunteerID),
		zap.String("event_id", eventID),
		zap.Int("capacity", event.Capacity),
		zap.Int("registrations", event.CurrentRegistrations))
	t.notifier.Notify(ctx, model.Notification{
		Kind:        model.NotifyCheckIn,
		VolunteerID: volunteerID,
		EventID:     eventID,
		Subject:     "Checked in to " + event.Title,
		Message:     fmt.Sprintf("You checked in to %s at %s.", event.Title, at.Format(time.Kitchen)),
		OccurredAt:  at,
	})

	return attendance, nil
}

// checkIn does the locked part of CheckIn. Notifications are sent by the
// caller once the locks are released.
func (t *AttendanceTracker) checkIn(ctx context.Context, volunteerID, eventID string, at time.Time) (*model.Attendance, *model.Event, error) {
	unlockEvent := t.locks.Event(eventID)
	defer unlockEvent()
	unlockPair := t.locks.Pair(model.PairKey{VolunteerID: volunteerID, EventID: eventID})
	defer unlockPair()

	var attendance *model.Attendance
	var event *model.Event
	err := t.store.WithinTx(ctx, func(ctx context.Context) error {
		volunteer, err := t.store.FindVolunteer(ctx, volunteerID)
		if err != nil {
			return err
		}
		if volunteer.Status != model.VolunteerActive {
			return fmt.Errorf("%w: volunteer %s is %s", model.ErrValidation, volunteerID, volunteer.Status)
		}

		event, err = t.ledger.reserve(ctx, eventID)
		if err != nil {
			return err
		}

		attendance = &model.Attendance{
			ID:          uuid.New().String(),
			VolunteerID: volunteerID,
			EventID:     eventID,
			CheckInTime: at,
			Status:      model.AttendancePresent,
		}
		if err := t.store.InsertAttendance(ctx, attendance); err != nil {
			return fmt.Errorf("failed to insert attendance: %w", err)
		}

		if _, err := t.accrual.ensureLine(ctx, volunteerID, eventID, event.Title, event.Date); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return attendance, event, nil
}

// CheckOut closes the attendance record and forwards the worked hours to the
// accrual line. Checking out a CLOSED record again forwards only the change
// in hours.
func (t *AttendanceTracker) CheckOut(ctx context.Context, attendanceID string, at time.Time) (*model.Attendance, error) {
	if at.IsZero() {
		at = t.now()
	}

	closed, delta, err := t.checkOut(ctx, attendanceID, at)
	if err != nil {
		return nil, err
	}
	hours := closed.HoursWorked

	t.metrics.incCheckOut()
	t.logger.Info("Checked out",
		zap.String("attendance_id", closed.ID),
		zap.Float64("hours_worked", hours),
		zap.Float64("delta", delta))
	t.notifier.Notify(ctx, model.Notification{
		Kind:        model.NotifyCheckOut,
		VolunteerID: closed.VolunteerID,
		EventID:     closed.EventID,
		Subject:     "Checked out",
		Message:     fmt.Sprintf("You checked out with %.0f hours recorded.", hours),
		OccurredAt:  at,
	})

	return closed, nil
}

// checkOut closes the record under its pair lock and returns it with the
// hours forwarded to the accrual line
func (t *AttendanceTracker) checkOut(ctx context.Context, attendanceID string, at time.Time) (*model.Attendance, float64, error) {
	attendance, unlock, err := t.lockAttendance(ctx, attendanceID)
	if err != nil {
		return nil, 0, err
	}
	defer unlock()

	if at.Before(attendance.CheckInTime) {
		return nil, 0, fmt.Errorf("%w: check-out %s precedes check-in %s",
			model.ErrInvalidTimeRange, at.Format(time.RFC3339), attendance.CheckInTime.Format(time.RFC3339))
	}

	hours := HoursBetween(attendance.CheckInTime, at)
	delta := hours - attendance.HoursWorked

	closed := *attendance
	closed.CheckOutTime = &at
	closed.HoursWorked = hours

	err = t.store.WithinTx(ctx, func(ctx context.Context) error {
		if err := t.store.UpdateAttendance(ctx, &closed); err != nil {
			return fmt.Errorf("failed to update attendance: %w", err)
		}
		if delta == 0 {
			return nil
		}
		_, err := t.accrual.applyDelta(ctx, closed.VolunteerID, closed.EventID, delta)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return &closed, delta, nil
}

// UpdateStatus sets the status tag. Capacity and hours are untouched.
func (t *AttendanceTracker) UpdateStatus(ctx context.Context, attendanceID string, status model.AttendanceStatus) (*model.Attendance, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: unknown attendance status %q", model.ErrValidation, status)
	}

	attendance, unlock, err := t.lockAttendance(ctx, attendanceID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	attendance.Status = status
	if err := t.store.UpdateAttendance(ctx, attendance); err != nil {
		return nil, fmt.Errorf("failed to update attendance: %w", err)
	}

	t.logger.Info("Attendance status updated",
		zap.String("attendance_id", attendanceID),
		zap.String("status", string(status)))

	return attendance, nil
}

// Update overwrites an attendance record and forwards newHours - oldHours to
// the accrual line. If there is no stored record the edit is written without
// any hour adjustment.
func (t *AttendanceTracker) Update(ctx context.Context, attendance *model.Attendance) (*model.Attendance, error) {
	if attendance.ID == "" {
		return nil, fmt.Errorf("%w: attendance id is required", model.ErrValidation)
	}
	if attendance.CheckOutTime != nil && attendance.CheckOutTime.Before(attendance.CheckInTime) {
		return nil, fmt.Errorf("%w: check-out precedes check-in", model.ErrInvalidTimeRange)
	}
	if attendance.HoursWorked < 0 {
		return nil, fmt.Errorf("%w: hours worked cannot be negative", model.ErrValidation)
	}
	if attendance.Status != "" && !attendance.Status.IsValid() {
		return nil, fmt.Errorf("%w: unknown attendance status %q", model.ErrValidation, attendance.Status)
	}

	edited := *attendance
	key := model.PairKey{VolunteerID: edited.VolunteerID, EventID: edited.EventID}

	prior, unlock, err := t.lockAttendance(ctx, edited.ID)
	if errors.Is(err, model.ErrNotFound) {
		unlockPair := t.locks.Pair(key)
		defer unlockPair()

		if err := t.store.SaveAttendance(ctx, &edited); err != nil {
			return nil, fmt.Errorf("failed to update attendance: %w", err)
		}
		t.logger.Warn("Attendance written without prior record, accrual not adjusted",
			zap.String("attendance_id", edited.ID),
			zap.String("volunteer_id", edited.VolunteerID),
			zap.String("event_id", edited.EventID))
		return &edited, nil
	}
	if err != nil {
		return nil, err
	}
	defer unlock()

	if prior.VolunteerID != edited.VolunteerID || prior.EventID != edited.EventID {
		return nil, fmt.Errorf("%w: attendance %s cannot move to another volunteer or event", model.ErrValidation, edited.ID)
	}

	delta := edited.HoursWorked - prior.HoursWorked
	err = t.store.WithinTx(ctx, func(ctx context.Context) error {
		if err := t.store.UpdateAttendance(ctx, &edited); err != nil {
			return fmt.Errorf("failed to update attendance: %w", err)
		}
		if delta == 0 {
			return nil
		}
		_, err := t.accrual.applyDelta(ctx, key.VolunteerID, key.EventID, delta)
		return err
	})
	if err != nil {
		return nil, err
	}

	t.logger.Info("Attendance updated",
		zap.String("attendance_id", edited.ID),
		zap.Float64("hours_worked", edited.HoursWorked),
		zap.Float64("delta", delta))

	return &edited, nil
}

// Delete removes the attendance record and gives its slot back to the event.
// Hours already accrued on the timesheet line are kept.
func (t *AttendanceTracker) Delete(ctx context.Context, attendanceID string) error {
	attendance, err := t.store.FindAttendance(ctx, attendanceID)
	if err != nil {
		return err
	}

	unlockEvent := t.locks.Event(attendance.EventID)
	defer unlockEvent()
	unlockPair := t.locks.Pair(model.PairKey{VolunteerID: attendance.VolunteerID, EventID: attendance.EventID})
	defer unlockPair()

	// A concurrent delete may have won the race for the locks
	if _, err := t.store.FindAttendance(ctx, attendanceID); err != nil {
		return err
	}

	err = t.store.WithinTx(ctx, func(ctx context.Context) error {
		deleted, err := t.store.DeleteAttendance(ctx, attendanceID)
		if err != nil {
			return fmt.Errorf("failed to delete attendance: %w", err)
		}
		if !deleted {
			return fmt.Errorf("%w: attendance %s", model.ErrNotFound, attendanceID)
		}
		_, err = t.ledger.release(ctx, attendance.EventID)
		return err
	})
	if err != nil {
		return err
	}

	t.logger.Info("Attendance deleted",
		zap.String("attendance_id", attendanceID),
		zap.String("event_id", attendance.EventID))

	return nil
}

// ByID retrieves one attendance record
func (t *AttendanceTracker) ByID(ctx context.Context, attendanceID string) (*model.Attendance, error) {
	return t.store.FindAttendance(ctx, attendanceID)
}

// ByVolunteer retrieves a volunteer's attendance records
func (t *AttendanceTracker) ByVolunteer(ctx context.Context, volunteerID string) ([]model.Attendance, error) {
	records, err := t.store.ListAttendanceByVolunteer(ctx, volunteerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	return records, nil
}

// ListAll retrieves every attendance record
func (t *AttendanceTracker) ListAll(ctx context.Context) ([]model.Attendance, error) {
	records, err := t.store.ListAttendance(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	return records, nil
}

// IsRegistered reports whether the volunteer has any attendance at the event
func (t *AttendanceTracker) IsRegistered(ctx context.Context, volunteerID, eventID string) (bool, error) {
	records, err := t.ByVolunteer(ctx, volunteerID)
	if err != nil {
		return false, err
	}
	for _, a := range records {
		if a.EventID == eventID {
			return true, nil
		}
	}
	return false, nil
}

// lockAttendance loads a record, takes its pair lock and reloads it so the
// returned copy cannot be stale
func (t *AttendanceTracker) lockAttendance(ctx context.Context, attendanceID string) (*model.Attendance, func(), error) {
	attendance, err := t.store.FindAttendance(ctx, attendanceID)
	if err != nil {
		return nil, nil, err
	}

	unlock := t.locks.Pair(model.PairKey{VolunteerID: attendance.VolunteerID, EventID: attendance.EventID})

	attendance, err = t.store.FindAttendance(ctx, attendanceID)
	if err != nil {
		unlock()
		return nil, nil, err
	}
	return attendance, unlock, nil
}
