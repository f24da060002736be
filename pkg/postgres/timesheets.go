package postgres

import (
	"context"
	"fmt"

	"github.com/jakechorley/volunteer-hours/pkg/core/model"
)

const timesheetColumns = `id, volunteer_id, event_id, event_name, period_start, period_end, total_hours,
	approval_status, approved_by, rejection_reason, created_date, last_modified_date, last_modified_by`

func scanTimesheet(row interface{ Scan(dest ...any) error }) (*model.Timesheet, error) {
	var ts model.Timesheet
	var eventID, eventName, approvedBy, reason, modifiedBy *string
	var status string
	err := row.Scan(&ts.ID, &ts.VolunteerID, &eventID, &eventName, &ts.PeriodStart, &ts.PeriodEnd, &ts.TotalHours,
		&status, &approvedBy, &reason, &ts.CreatedDate, &ts.LastModifiedDate, &modifiedBy)
	if err != nil {
		return nil, err
	}
	ts.EventID = derefString(eventID)
	ts.EventName = derefString(eventName)
	ts.ApprovalStatus = model.TimesheetStatus(status)
	ts.ApprovedBy = derefString(approvedBy)
	ts.RejectionReason = derefString(reason)
	ts.LastModifiedBy = derefString(modifiedBy)
	ts.PeriodStart = ts.PeriodStart.UTC()
	ts.PeriodEnd = ts.PeriodEnd.UTC()
	ts.CreatedDate = ts.CreatedDate.UTC()
	ts.LastModifiedDate = ts.LastModifiedDate.UTC()
	return &ts, nil
}

func timesheetArgs(ts *model.Timesheet) []any {
	return []any{
		ts.ID, ts.VolunteerID, nullString(ts.EventID), nullString(ts.EventName),
		ts.PeriodStart, ts.PeriodEnd, ts.TotalHours,
		string(ts.ApprovalStatus), nullString(ts.ApprovedBy), nullString(ts.RejectionReason),
		ts.CreatedDate.UTC(), ts.LastModifiedDate.UTC(), nullString(ts.LastModifiedBy),
	}
}

func (db *DB) queryTimesheets(ctx context.Context, query string, args ...any) ([]model.Timesheet, error) {
	rows, err := db.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query timesheets: %w", err)
	}
	defer rows.Close()

	var sheets []model.Timesheet
	for rows.Next() {
		ts, err := scanTimesheet(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan timesheet: %w", err)
		}
		sheets = append(sheets, *ts)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating timesheets: %w", err)
	}

	return sheets, nil
}

// InsertTimesheet inserts a new timesheet. A second accrual line for the same
// pair is rejected by the timesheet_pair_idx index with model.ErrConflict.
func (db *DB) InsertTimesheet(ctx context.Context, ts *model.Timesheet) error {
	_, err := db.conn(ctx).Exec(ctx, `
		INSERT INTO timesheet (id, volunteer_id, event_id, event_name, period_start, period_end, total_hours,
			approval_status, approved_by, rejection_reason, created_date, last_modified_date, last_modified_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, timesheetArgs(ts)...)
	if err != nil {
		return mapWriteError(err, "timesheet")
	}
	return nil
}

// UpdateTimesheet overwrites an existing timesheet
func (db *DB) UpdateTimesheet(ctx context.Context, ts *model.Timesheet) error {
	tag, err := db.conn(ctx).Exec(ctx, `
		UPDATE timesheet SET
			volunteer_id = $2, event_id = $3, event_name = $4, period_start = $5, period_end = $6,
			total_hours = $7, approval_status = $8, approved_by = $9, rejection_reason = $10,
			created_date = $11, last_modified_date = $12, last_modified_by = $13
		WHERE id = $1
	`, timesheetArgs(ts)...)
	if err != nil {
		return mapWriteError(err, "timesheet")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: timesheet %s", model.ErrNotFound, ts.ID)
	}
	return nil
}

// DeleteTimesheet removes a timesheet, reporting whether it existed
func (db *DB) DeleteTimesheet(ctx context.Context, id string) (bool, error) {
	tag, err := db.conn(ctx).Exec(ctx, `DELETE FROM timesheet WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete timesheet: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// FindTimesheet retrieves a timesheet by id
func (db *DB) FindTimesheet(ctx context.Context, id string) (*model.Timesheet, error) {
	row := db.conn(ctx).QueryRow(ctx, forUpdate(ctx, `SELECT `+timesheetColumns+` FROM timesheet WHERE id = $1`), id)
	ts, err := scanTimesheet(row)
	if err != nil {
		return nil, notFound(err, "timesheet", id)
	}
	return ts, nil
}

// FindTimesheetByPair retrieves the accrual line for a pair. Returns nil, nil if absent.
func (db *DB) FindTimesheetByPair(ctx context.Context, key model.PairKey) (*model.Timesheet, error) {
	sheets, err := db.queryTimesheets(ctx,
		forUpdate(ctx, `SELECT `+timesheetColumns+` FROM timesheet WHERE volunteer_id = $1 AND event_id = $2`),
		key.VolunteerID, key.EventID)
	if err != nil {
		return nil, err
	}
	if len(sheets) == 0 {
		return nil, nil
	}
	return &sheets[0], nil
}

// ListTimesheetsByVolunteer retrieves a volunteer's timesheets in creation order
func (db *DB) ListTimesheetsByVolunteer(ctx context.Context, volunteerID string) ([]model.Timesheet, error) {
	return db.queryTimesheets(ctx,
		`SELECT `+timesheetColumns+` FROM timesheet WHERE volunteer_id = $1 ORDER BY created_seq`, volunteerID)
}

// ListTimesheets retrieves every timesheet in creation order
func (db *DB) ListTimesheets(ctx context.Context) ([]model.Timesheet, error) {
	return db.queryTimesheets(ctx, `SELECT `+timesheetColumns+` FROM timesheet ORDER BY created_seq`)
}
