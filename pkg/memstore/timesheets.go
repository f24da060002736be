package memstore

import (
	"context"
	"fmt"

	"github.com/jakechorley/volunteer-hours/pkg/core/model"
)

func pairOf(t model.Timesheet) (model.PairKey, bool) {
	if !t.IsAccrualLine() {
		return model.PairKey{}, false
	}
	return model.PairKey{VolunteerID: t.VolunteerID, EventID: t.EventID}, true
}

// InsertTimesheet inserts a new timesheet. Only one accrual line may exist per
// (volunteer, event) pair.
func (d *DB) InsertTimesheet(ctx context.Context, timesheet *model.Timesheet) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	id := timesheet.ID
	if _, exists := d.timesheets[id]; exists {
		return fmt.Errorf("%w: timesheet %s already exists", model.ErrConflict, id)
	}
	key, isLine := pairOf(*timesheet)
	if isLine {
		if _, taken := d.pairs[key]; taken {
			return fmt.Errorf("%w: timesheet line already exists for %s", model.ErrConflict, key)
		}
		d.pairs[key] = id
	}
	d.timesheets[id] = *timesheet
	d.sheetOrder = append(d.sheetOrder, id)

	d.record(ctx, func() {
		delete(d.timesheets, id)
		d.sheetOrder = removeID(d.sheetOrder, id)
		if isLine {
			delete(d.pairs, key)
		}
	})
	return nil
}

// UpdateTimesheet overwrites an existing timesheet
func (d *DB) UpdateTimesheet(ctx context.Context, timesheet *model.Timesheet) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	id := timesheet.ID
	prev, exists := d.timesheets[id]
	if !exists {
		return fmt.Errorf("%w: timesheet %s", model.ErrNotFound, id)
	}

	prevKey, prevIsLine := pairOf(prev)
	newKey, newIsLine := pairOf(*timesheet)
	if newIsLine && (!prevIsLine || newKey != prevKey) {
		if owner, taken := d.pairs[newKey]; taken && owner != id {
			return fmt.Errorf("%w: timesheet line already exists for %s", model.ErrConflict, newKey)
		}
	}
	if prevIsLine {
		delete(d.pairs, prevKey)
	}
	if newIsLine {
		d.pairs[newKey] = id
	}
	d.timesheets[id] = *timesheet

	d.record(ctx, func() {
		if newIsLine {
			delete(d.pairs, newKey)
		}
		if prevIsLine {
			d.pairs[prevKey] = id
		}
		d.timesheets[id] = prev
	})
	return nil
}

// DeleteTimesheet removes a timesheet, reporting whether it existed
func (d *DB) DeleteTimesheet(ctx context.Context, id string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	prev, exists := d.timesheets[id]
	if !exists {
		return false, nil
	}
	idx := indexOf(d.sheetOrder, id)
	key, isLine := pairOf(prev)
	delete(d.timesheets, id)
	d.sheetOrder = removeID(d.sheetOrder, id)
	if isLine {
		delete(d.pairs, key)
	}

	d.record(ctx, func() {
		d.timesheets[id] = prev
		d.sheetOrder = insertAt(d.sheetOrder, idx, id)
		if isLine {
			d.pairs[key] = id
		}
	})
	return true, nil
}

// FindTimesheet retrieves a timesheet by id
func (d *DB) FindTimesheet(ctx context.Context, id string) (*model.Timesheet, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, ok := d.timesheets[id]
	if !ok {
		return nil, fmt.Errorf("%w: timesheet %s", model.ErrNotFound, id)
	}
	return &t, nil
}

// FindTimesheetByPair retrieves the accrual line for a (volunteer, event) pair.
// Returns nil, nil if there is none.
func (d *DB) FindTimesheetByPair(ctx context.Context, key model.PairKey) (*model.Timesheet, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	id, ok := d.pairs[key]
	if !ok {
		return nil, nil
	}
	t := d.timesheets[id]
	return &t, nil
}

// ListTimesheetsByVolunteer retrieves all timesheets for a volunteer
func (d *DB) ListTimesheetsByVolunteer(ctx context.Context, volunteerID string) ([]model.Timesheet, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var sheets []model.Timesheet
	for _, id := range d.sheetOrder {
		if t := d.timesheets[id]; t.VolunteerID == volunteerID {
			sheets = append(sheets, t)
		}
	}
	return sheets, nil
}

// ListTimesheets retrieves all timesheets
func (d *DB) ListTimesheets(ctx context.Context) ([]model.Timesheet, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	sheets := make([]model.Timesheet, 0, len(d.sheetOrder))
	for _, id := range d.sheetOrder {
		sheets = append(sheets, d.timesheets[id])
	}
	return sheets, nil
}
