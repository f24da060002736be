package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jakechorley/volunteer-hours/pkg/core/model"
)

const attendanceColumns = `id, volunteer_id, event_id, check_in_time, check_out_time, hours_worked, status`

func scanAttendance(row interface{ Scan(dest ...any) error }) (*model.Attendance, error) {
	var a model.Attendance
	var checkOut *time.Time
	var status string
	if err := row.Scan(&a.ID, &a.VolunteerID, &a.EventID, &a.CheckInTime, &checkOut, &a.HoursWorked, &status); err != nil {
		return nil, err
	}
	a.CheckInTime = a.CheckInTime.UTC()
	if checkOut != nil {
		t := checkOut.UTC()
		a.CheckOutTime = &t
	}
	a.Status = model.AttendanceStatus(status)
	return &a, nil
}

func (db *DB) queryAttendance(ctx context.Context, query string, args ...any) ([]model.Attendance, error) {
	rows, err := db.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance: %w", err)
	}
	defer rows.Close()

	var records []model.Attendance
	for rows.Next() {
		a, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		records = append(records, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attendance: %w", err)
	}

	return records, nil
}

// InsertAttendance inserts a new attendance record
func (db *DB) InsertAttendance(ctx context.Context, a *model.Attendance) error {
	_, err := db.conn(ctx).Exec(ctx, `
		INSERT INTO attendance (id, volunteer_id, event_id, check_in_time, check_out_time, hours_worked, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, a.ID, a.VolunteerID, a.EventID, a.CheckInTime.UTC(), utcPtr(a.CheckOutTime), a.HoursWorked, string(a.Status))
	if err != nil {
		return mapWriteError(err, "attendance")
	}
	return nil
}

// FindAttendance retrieves an attendance record by id
func (db *DB) FindAttendance(ctx context.Context, id string) (*model.Attendance, error) {
	row := db.conn(ctx).QueryRow(ctx, forUpdate(ctx, `SELECT `+attendanceColumns+` FROM attendance WHERE id = $1`), id)
	a, err := scanAttendance(row)
	if err != nil {
		return nil, notFound(err, "attendance", id)
	}
	return a, nil
}

// UpdateAttendance overwrites an existing attendance record
func (db *DB) UpdateAttendance(ctx context.Context, a *model.Attendance) error {
	tag, err := db.conn(ctx).Exec(ctx, `
		UPDATE attendance
		SET volunteer_id = $2, event_id = $3, check_in_time = $4, check_out_time = $5, hours_worked = $6, status = $7
		WHERE id = $1
	`, a.ID, a.VolunteerID, a.EventID, a.CheckInTime.UTC(), utcPtr(a.CheckOutTime), a.HoursWorked, string(a.Status))
	if err != nil {
		return mapWriteError(err, "attendance")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: attendance %s", model.ErrNotFound, a.ID)
	}
	return nil
}

// SaveAttendance writes the full record, inserting it if it does not exist
func (db *DB) SaveAttendance(ctx context.Context, a *model.Attendance) error {
	_, err := db.conn(ctx).Exec(ctx, `
		INSERT INTO attendance (id, volunteer_id, event_id, check_in_time, check_out_time, hours_worked, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			volunteer_id = EXCLUDED.volunteer_id,
			event_id = EXCLUDED.event_id,
			check_in_time = EXCLUDED.check_in_time,
			check_out_time = EXCLUDED.check_out_time,
			hours_worked = EXCLUDED.hours_worked,
			status = EXCLUDED.status
	`, a.ID, a.VolunteerID, a.EventID, a.CheckInTime.UTC(), utcPtr(a.CheckOutTime), a.HoursWorked, string(a.Status))
	if err != nil {
		return mapWriteError(err, "attendance")
	}
	return nil
}

// DeleteAttendance removes an attendance record, reporting whether it existed
func (db *DB) DeleteAttendance(ctx context.Context, id string) (bool, error) {
	tag, err := db.conn(ctx).Exec(ctx, `DELETE FROM attendance WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete attendance: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListAttendanceByVolunteer retrieves a volunteer's attendance in recording order
func (db *DB) ListAttendanceByVolunteer(ctx context.Context, volunteerID string) ([]model.Attendance, error) {
	return db.queryAttendance(ctx,
		`SELECT `+attendanceColumns+` FROM attendance WHERE volunteer_id = $1 ORDER BY created_seq`, volunteerID)
}

// ListAttendance retrieves every attendance record
func (db *DB) ListAttendance(ctx context.Context) ([]model.Attendance, error) {
	return db.queryAttendance(ctx, `SELECT `+attendanceColumns+` FROM attendance ORDER BY created_seq`)
}
