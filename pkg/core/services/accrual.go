package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-hours/pkg/core/model"
	"github.com/jakechorley/volunteer-hours/pkg/db"
)

// AccrualStore is the persistence the accrual engine needs
type AccrualStore interface {
	db.TimesheetStore
	db.AttendanceStore
	db.Transactor
}

// AccrualEngine owns timesheet hour totals and the approval workflow.
// Accrual lines are found by direct (volunteer, event) lookup, so there is
// exactly one line per pair.
type AccrualEngine struct {
	store    AccrualStore
	locks    *Locks
	notifier Notifier
	metrics  *Metrics
	logger   *zap.Logger
	now      func() time.Time
}

// NewAccrualEngine creates an engine. notifier and metrics may be nil.
func NewAccrualEngine(store AccrualStore, locks *Locks, notifier Notifier, metrics *Metrics, logger *zap.Logger) *AccrualEngine {
	return &AccrualEngine{
		store:    store,
		locks:    locks,
		notifier: notifierOrNop(notifier),
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// round2 rounds to two decimal places so repeated deltas do not accumulate float error
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// dateOnly truncates t to midnight UTC of its calendar date
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// EnsureLine makes sure a timesheet line exists for the pair, creating a
// zero-hour PENDING line for the event date if there is none.
func (e *AccrualEngine) EnsureLine(ctx context.Context, volunteerID, eventID, eventName string, eventDate time.Time) (*model.Timesheet, error) {
	unlock := e.locks.Pair(model.PairKey{VolunteerID: volunteerID, EventID: eventID})
	defer unlock()
	return e.ensureLine(ctx, volunteerID, eventID, eventName, eventDate)
}

// ensureLine expects the caller to hold the pair lock
func (e *AccrualEngine) ensureLine(ctx context.Context, volunteerID, eventID, eventName string, eventDate time.Time) (*model.Timesheet, error) {
	key := model.PairKey{VolunteerID: volunteerID, EventID: eventID}

	existing, err := e.store.FindTimesheetByPair(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to find timesheet line: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	now := e.now()
	day := dateOnly(eventDate)
	line := &model.Timesheet{
		ID:               uuid.New().String(),
		VolunteerID:      volunteerID,
		EventID:          eventID,
		EventName:        eventName,
		PeriodStart:      day,
		PeriodEnd:        day,
		TotalHours:       0,
		ApprovalStatus:   model.TimesheetPending,
		CreatedDate:      now,
		LastModifiedDate: now,
	}
	if err := e.store.InsertTimesheet(ctx, line); err != nil {
		return nil, fmt.Errorf("failed to insert timesheet line: %w", err)
	}

	e.logger.Debug("Timesheet line opened",
		zap.String("timesheet_id", line.ID),
		zap.String("volunteer_id", volunteerID),
		zap.String("event_id", eventID))

	return line, nil
}

// ApplyDelta adds delta hours to the pair's accrual line.
// If no line exists the delta is dropped and nil, nil is returned: this is a
// deliberate no-op, logged and counted, rather than an error.
func (e *AccrualEngine) ApplyDelta(ctx context.Context, volunteerID, eventID string, delta float64) (*model.Timesheet, error) {
	unlock := e.locks.Pair(model.PairKey{VolunteerID: volunteerID, EventID: eventID})
	defer unlock()
	return e.applyDelta(ctx, volunteerID, eventID, delta)
}

// applyDelta expects the caller to hold the pair lock
func (e *AccrualEngine) applyDelta(ctx context.Context, volunteerID, eventID string, delta float64) (*model.Timesheet, error) {
	key := model.PairKey{VolunteerID: volunteerID, EventID: eventID}

	line, err := e.store.FindTimesheetByPair(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to find timesheet line: %w", err)
	}
	if line == nil {
		e.metrics.incAccrualNoop()
		e.logger.Warn("No timesheet line for pair, hour delta dropped",
			zap.String("volunteer_id", volunteerID),
			zap.String("event_id", eventID),
			zap.Float64("delta", delta))
		return nil, nil
	}

	line.TotalHours = round2(line.TotalHours + delta)
	line.LastModifiedDate = e.now()
	if err := e.store.UpdateTimesheet(ctx, line); err != nil {
		return nil, fmt.Errorf("failed to update timesheet line: %w", err)
	}
	e.metrics.addHours(delta)

	e.logger.Debug("Hour delta applied",
		zap.String("timesheet_id", line.ID),
		zap.Float64("delta", delta),
		zap.Float64("total_hours", line.TotalHours))

	return line, nil
}

// Generate builds an aggregate timesheet for the volunteer summing the hours
// of attendance checked in between start and end (inclusive dates).
// Nothing is persisted.
func (e *AccrualEngine) Generate(ctx context.Context, volunteerID string, start, end time.Time) (*model.Timesheet, error) {
	start, end = dateOnly(start), dateOnly(end)
	if end.Before(start) {
		return nil, fmt.Errorf("%w: period end %s is before start %s",
			model.ErrInvalidTimeRange, end.Format(model.DateLayout), start.Format(model.DateLayout))
	}

	records, err := e.store.ListAttendanceByVolunteer(ctx, volunteerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}

	total := 0.0
	for _, a := range filterAttendanceInPeriod(records, start, end) {
		total += a.HoursWorked
	}

	now := e.now()
	return &model.Timesheet{
		ID:               uuid.New().String(),
		VolunteerID:      volunteerID,
		PeriodStart:      start,
		PeriodEnd:        end,
		TotalHours:       round2(total),
		ApprovalStatus:   model.TimesheetPending,
		CreatedDate:      now,
		LastModifiedDate: now,
	}, nil
}

// Submit creates or updates the aggregate timesheet for the volunteer and
// period with the given status. Transition legality is not checked here.
func (e *AccrualEngine) Submit(ctx context.Context, session model.Session, volunteerID string, start, end time.Time, status model.TimesheetStatus) (*model.Timesheet, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: unknown timesheet status %q", model.ErrValidation, status)
	}

	generated, err := e.Generate(ctx, volunteerID, start, end)
	if err != nil {
		return nil, err
	}

	unlock := e.locks.lock("period:" + volunteerID + ":" +
		generated.PeriodStart.Format(model.DateLayout) + ":" + generated.PeriodEnd.Format(model.DateLayout))
	defer unlock()

	existing, err := e.store.ListTimesheetsByVolunteer(ctx, volunteerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list timesheets: %w", err)
	}
	for _, ts := range existing {
		if ts.IsAccrualLine() || !ts.PeriodStart.Equal(generated.PeriodStart) || !ts.PeriodEnd.Equal(generated.PeriodEnd) {
			continue
		}
		current, unlockSheet, err := e.lockTimesheet(ctx, ts.ID)
		if err != nil {
			return nil, err
		}
		defer unlockSheet()

		current.TotalHours = generated.TotalHours
		current.ApprovalStatus = status
		current.LastModifiedDate = e.now()
		current.LastModifiedBy = session.Actor()
		if err := e.store.UpdateTimesheet(ctx, current); err != nil {
			return nil, fmt.Errorf("failed to update timesheet: %w", err)
		}
		e.logger.Info("Timesheet resubmitted",
			zap.String("timesheet_id", current.ID),
			zap.String("status", string(status)),
			zap.Float64("total_hours", current.TotalHours))
		return current, nil
	}

	generated.ApprovalStatus = status
	generated.LastModifiedBy = session.Actor()
	if err := e.store.InsertTimesheet(ctx, generated); err != nil {
		return nil, fmt.Errorf("failed to insert timesheet: %w", err)
	}

	e.logger.Info("Timesheet submitted",
		zap.String("timesheet_id", generated.ID),
		zap.String("volunteer_id", volunteerID),
		zap.String("status", string(status)),
		zap.Float64("total_hours", generated.TotalHours))

	return generated, nil
}

// SubmitForEvent marks the pair's accrual line as PENDING, creating it from
// the pair's recorded attendance if it does not exist yet.
func (e *AccrualEngine) SubmitForEvent(ctx context.Context, session model.Session, volunteerID, eventID, eventName string) (*model.Timesheet, error) {
	key := model.PairKey{VolunteerID: volunteerID, EventID: eventID}
	unlock := e.locks.Pair(key)
	defer unlock()

	line, err := e.store.FindTimesheetByPair(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to find timesheet line: %w", err)
	}

	now := e.now()
	if line != nil {
		line.ApprovalStatus = model.TimesheetPending
		if eventName != "" {
			line.EventName = eventName
		}
		line.LastModifiedDate = now
		line.LastModifiedBy = session.Actor()
		if err := e.store.UpdateTimesheet(ctx, line); err != nil {
			return nil, fmt.Errorf("failed to update timesheet line: %w", err)
		}
		return line, nil
	}

	records, err := e.store.ListAttendanceByVolunteer(ctx, volunteerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}

	line = &model.Timesheet{
		ID:               uuid.New().String(),
		VolunteerID:      volunteerID,
		EventID:          eventID,
		EventName:        eventName,
		ApprovalStatus:   model.TimesheetPending,
		CreatedDate:      now,
		LastModifiedDate: now,
		LastModifiedBy:   session.Actor(),
	}
	for _, a := range records {
		if a.EventID != eventID {
			continue
		}
		line.TotalHours += a.HoursWorked
		day := dateOnly(a.CheckInTime)
		if line.PeriodStart.IsZero() || day.Before(line.PeriodStart) {
			line.PeriodStart = day
		}
		if day.After(line.PeriodEnd) {
			line.PeriodEnd = day
		}
	}
	line.TotalHours = round2(line.TotalHours)
	if line.PeriodStart.IsZero() {
		line.PeriodStart = dateOnly(now)
		line.PeriodEnd = line.PeriodStart
	}

	if err := e.store.InsertTimesheet(ctx, line); err != nil {
		return nil, fmt.Errorf("failed to insert timesheet line: %w", err)
	}

	e.logger.Info("Event timesheet submitted",
		zap.String("timesheet_id", line.ID),
		zap.String("volunteer_id", volunteerID),
		zap.String("event_id", eventID),
		zap.Float64("total_hours", line.TotalHours))

	return line, nil
}

// Approve moves a PENDING timesheet to APPROVED and records the approver
func (e *AccrualEngine) Approve(ctx context.Context, timesheetID, adminID string) (*model.Timesheet, error) {
	if strings.TrimSpace(adminID) == "" {
		return nil, fmt.Errorf("%w: approver id is required", model.ErrValidation)
	}

	ts, err := e.decide(ctx, timesheetID, func(ts *model.Timesheet) {
		ts.ApprovalStatus = model.TimesheetApproved
		ts.ApprovedBy = adminID
		ts.RejectionReason = ""
		ts.LastModifiedBy = adminID
	})
	if err != nil {
		return nil, err
	}

	e.metrics.incDecision(string(model.TimesheetApproved))
	e.logger.Info("Timesheet approved", zap.String("timesheet_id", ts.ID), zap.String("admin_id", adminID))
	e.notifier.Notify(ctx, model.Notification{
		Kind:        model.NotifyTimesheetApproved,
		VolunteerID: ts.VolunteerID,
		EventID:     ts.EventID,
		Subject:     "Timesheet approved",
		Message:     fmt.Sprintf("Your timesheet for %s (%.2f hours) has been approved.", describePeriod(ts), ts.TotalHours),
		OccurredAt:  ts.LastModifiedDate,
	})
	return ts, nil
}

// Reject moves a PENDING timesheet to REJECTED. A reason is required.
func (e *AccrualEngine) Reject(ctx context.Context, timesheetID, adminID, reason string) (*model.Timesheet, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: rejection reason is required", model.ErrValidation)
	}
	if strings.TrimSpace(adminID) == "" {
		return nil, fmt.Errorf("%w: approver id is required", model.ErrValidation)
	}

	ts, err := e.decide(ctx, timesheetID, func(ts *model.Timesheet) {
		ts.ApprovalStatus = model.TimesheetRejected
		ts.ApprovedBy = adminID
		ts.RejectionReason = reason
		ts.LastModifiedBy = adminID
	})
	if err != nil {
		return nil, err
	}

	e.metrics.incDecision(string(model.TimesheetRejected))
	e.logger.Info("Timesheet rejected",
		zap.String("timesheet_id", ts.ID),
		zap.String("admin_id", adminID),
		zap.String("reason", reason))
	e.notifier.Notify(ctx, model.Notification{
		Kind:        model.NotifyTimesheetRejected,
		VolunteerID: ts.VolunteerID,
		EventID:     ts.EventID,
		Subject:     "Timesheet rejected",
		Message:     fmt.Sprintf("Your timesheet for %s was rejected: %s", describePeriod(ts), reason),
		OccurredAt:  ts.LastModifiedDate,
	})
	return ts, nil
}

// decide applies an approval decision to a PENDING timesheet
func (e *AccrualEngine) decide(ctx context.Context, timesheetID string, apply func(ts *model.Timesheet)) (*model.Timesheet, error) {
	ts, unlock, err := e.lockTimesheet(ctx, timesheetID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if ts.ApprovalStatus != model.TimesheetPending {
		return nil, fmt.Errorf("%w: timesheet %s is already %s", model.ErrConflict, ts.ID, ts.ApprovalStatus)
	}

	apply(ts)
	ts.LastModifiedDate = e.now()
	if err := e.store.UpdateTimesheet(ctx, ts); err != nil {
		return nil, fmt.Errorf("failed to update timesheet: %w", err)
	}
	return ts, nil
}

// lockTimesheet loads a timesheet and locks it against concurrent hour
// updates. Accrual lines share the pair lock used by ApplyDelta.
func (e *AccrualEngine) lockTimesheet(ctx context.Context, timesheetID string) (*model.Timesheet, func(), error) {
	ts, err := e.store.FindTimesheet(ctx, timesheetID)
	if err != nil {
		return nil, nil, err
	}

	var unlock func()
	if ts.IsAccrualLine() {
		unlock = e.locks.Pair(model.PairKey{VolunteerID: ts.VolunteerID, EventID: ts.EventID})
	} else {
		unlock = e.locks.lock("timesheet:" + ts.ID)
	}

	// Reload now that no other writer can touch the row
	ts, err = e.store.FindTimesheet(ctx, timesheetID)
	if err != nil {
		unlock()
		return nil, nil, err
	}
	return ts, unlock, nil
}

// Update overwrites a timesheet (administrative correction). The volunteer
// and event it belongs to cannot change.
func (e *AccrualEngine) Update(ctx context.Context, session model.Session, timesheet *model.Timesheet) (*model.Timesheet, error) {
	if !timesheet.ApprovalStatus.IsValid() {
		return nil, fmt.Errorf("%w: unknown timesheet status %q", model.ErrValidation, timesheet.ApprovalStatus)
	}
	if timesheet.PeriodEnd.Before(timesheet.PeriodStart) {
		return nil, fmt.Errorf("%w: period end is before start", model.ErrInvalidTimeRange)
	}
	if timesheet.TotalHours < 0 {
		return nil, fmt.Errorf("%w: total hours cannot be negative", model.ErrValidation)
	}

	current, unlock, err := e.lockTimesheet(ctx, timesheet.ID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if current.VolunteerID != timesheet.VolunteerID || current.EventID != timesheet.EventID {
		return nil, fmt.Errorf("%w: timesheet %s cannot move to another volunteer or event", model.ErrValidation, timesheet.ID)
	}

	updated := *timesheet
	updated.CreatedDate = current.CreatedDate
	updated.TotalHours = round2(updated.TotalHours)
	updated.LastModifiedDate = e.now()
	updated.LastModifiedBy = session.Actor()
	if err := e.store.UpdateTimesheet(ctx, &updated); err != nil {
		return nil, fmt.Errorf("failed to update timesheet: %w", err)
	}

	e.logger.Info("Timesheet updated",
		zap.String("timesheet_id", updated.ID),
		zap.String("actor", session.Actor()))

	return &updated, nil
}

// Delete removes a timesheet
func (e *AccrualEngine) Delete(ctx context.Context, timesheetID string) error {
	ts, unlock, err := e.lockTimesheet(ctx, timesheetID)
	if err != nil {
		return err
	}
	defer unlock()

	deleted, err := e.store.DeleteTimesheet(ctx, ts.ID)
	if err != nil {
		return fmt.Errorf("failed to delete timesheet: %w", err)
	}
	if !deleted {
		return fmt.Errorf("%w: timesheet %s", model.ErrNotFound, timesheetID)
	}

	e.logger.Info("Timesheet deleted", zap.String("timesheet_id", timesheetID))
	return nil
}

// Get retrieves a timesheet
func (e *AccrualEngine) Get(ctx context.Context, timesheetID string) (*model.Timesheet, error) {
	return e.store.FindTimesheet(ctx, timesheetID)
}

// LineFor retrieves the accrual line for a pair, nil if none exists
func (e *AccrualEngine) LineFor(ctx context.Context, volunteerID, eventID string) (*model.Timesheet, error) {
	return e.store.FindTimesheetByPair(ctx, model.PairKey{VolunteerID: volunteerID, EventID: eventID})
}

// ListAll retrieves every timesheet
func (e *AccrualEngine) ListAll(ctx context.Context) ([]model.Timesheet, error) {
	sheets, err := e.store.ListTimesheets(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list timesheets: %w", err)
	}
	return sheets, nil
}

// ListByVolunteer retrieves a volunteer's timesheets
func (e *AccrualEngine) ListByVolunteer(ctx context.Context, volunteerID string) ([]model.Timesheet, error) {
	sheets, err := e.store.ListTimesheetsByVolunteer(ctx, volunteerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list timesheets: %w", err)
	}
	return sheets, nil
}

// filterAttendanceInPeriod returns records whose check-in date falls within [start, end]
func filterAttendanceInPeriod(records []model.Attendance, start, end time.Time) []model.Attendance {
	var filtered []model.Attendance
	for _, a := range records {
		day := dateOnly(a.CheckInTime)
		if day.Before(start) || day.After(end) {
			continue
		}
		filtered = append(filtered, a)
	}
	return filtered
}

func describePeriod(ts *model.Timesheet) string {
	if ts.EventName != "" {
		return ts.EventName
	}
	start := ts.PeriodStart.Format(model.DateLayout)
	end := ts.PeriodEnd.Format(model.DateLayout)
	if start == end {
		return start
	}
	return start + " to " + end
}
