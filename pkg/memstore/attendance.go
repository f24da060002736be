package memstore

import (
	"context"
	"fmt"

	"github.com/jakechorley/volunteer-hours/pkg/core/model"
)

func copyAttendance(a model.Attendance) model.Attendance {
	if a.CheckOutTime != nil {
		t := *a.CheckOutTime
		a.CheckOutTime = &t
	}
	return a
}

// InsertAttendance inserts a new attendance record
func (d *DB) InsertAttendance(ctx context.Context, attendance *model.Attendance) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.attendance[attendance.ID]; exists {
		return fmt.Errorf("%w: attendance %s already exists", model.ErrConflict, attendance.ID)
	}
	d.attendance[attendance.ID] = copyAttendance(*attendance)
	d.attendOrder = append(d.attendOrder, attendance.ID)

	id := attendance.ID
	d.record(ctx, func() {
		delete(d.attendance, id)
		d.attendOrder = removeID(d.attendOrder, id)
	})
	return nil
}

// FindAttendance retrieves an attendance record by id
func (d *DB) FindAttendance(ctx context.Context, id string) (*model.Attendance, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	a, ok := d.attendance[id]
	if !ok {
		return nil, fmt.Errorf("%w: attendance %s", model.ErrNotFound, id)
	}
	a = copyAttendance(a)
	return &a, nil
}

// UpdateAttendance overwrites an existing attendance record
func (d *DB) UpdateAttendance(ctx context.Context, attendance *model.Attendance) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	id := attendance.ID
	prev, exists := d.attendance[id]
	if !exists {
		return fmt.Errorf("%w: attendance %s", model.ErrNotFound, id)
	}
	d.attendance[id] = copyAttendance(*attendance)

	d.record(ctx, func() {
		d.attendance[id] = prev
	})
	return nil
}

// SaveAttendance writes the full record, inserting it if it does not exist
func (d *DB) SaveAttendance(ctx context.Context, attendance *model.Attendance) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	id := attendance.ID
	prev, existed := d.attendance[id]
	d.attendance[id] = copyAttendance(*attendance)
	if !existed {
		d.attendOrder = append(d.attendOrder, id)
	}

	d.record(ctx, func() {
		if existed {
			d.attendance[id] = prev
			return
		}
		delete(d.attendance, id)
		d.attendOrder = removeID(d.attendOrder, id)
	})
	return nil
}

// DeleteAttendance removes an attendance record, reporting whether it existed
func (d *DB) DeleteAttendance(ctx context.Context, id string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	prev, exists := d.attendance[id]
	if !exists {
		return false, nil
	}
	idx := indexOf(d.attendOrder, id)
	delete(d.attendance, id)
	d.attendOrder = removeID(d.attendOrder, id)

	d.record(ctx, func() {
		d.attendance[id] = prev
		d.attendOrder = insertAt(d.attendOrder, idx, id)
	})
	return true, nil
}

// ListAttendanceByVolunteer retrieves all attendance records for a volunteer
func (d *DB) ListAttendanceByVolunteer(ctx context.Context, volunteerID string) ([]model.Attendance, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var records []model.Attendance
	for _, id := range d.attendOrder {
		if a := d.attendance[id]; a.VolunteerID == volunteerID {
			records = append(records, copyAttendance(a))
		}
	}
	return records, nil
}

// ListAttendance retrieves all attendance records
func (d *DB) ListAttendance(ctx context.Context) ([]model.Attendance, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	records := make([]model.Attendance, 0, len(d.attendOrder))
	for _, id := range d.attendOrder {
		records = append(records, copyAttendance(d.attendance[id]))
	}
	return records, nil
}
