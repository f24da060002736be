package memstore

import (
	"context"
	"fmt"

	"github.com/jakechorley/volunteer-hours/pkg/core/model"
)

// FindVolunteer retrieves a volunteer by id
func (d *DB) FindVolunteer(ctx context.Context, id string) (*model.Volunteer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	v, ok := d.volunteers[id]
	if !ok {
		return nil, fmt.Errorf("%w: volunteer %s", model.ErrNotFound, id)
	}
	return &v, nil
}

// FindVolunteerByEmail retrieves a volunteer by exact email. Returns nil, nil if absent.
func (d *DB) FindVolunteerByEmail(ctx context.Context, email string) (*model.Volunteer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	id, ok := d.emails[email]
	if !ok {
		return nil, nil
	}
	v := d.volunteers[id]
	return &v, nil
}

// InsertVolunteer inserts a new volunteer; emails are unique
func (d *DB) InsertVolunteer(ctx context.Context, volunteer *model.Volunteer) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	id, email := volunteer.ID, volunteer.Email
	if _, exists := d.volunteers[id]; exists {
		return fmt.Errorf("%w: volunteer %s already exists", model.ErrConflict, id)
	}
	if _, taken := d.emails[email]; taken {
		return fmt.Errorf("%w: email %s already registered", model.ErrConflict, email)
	}
	d.volunteers[id] = *volunteer
	d.emails[email] = id
	d.volOrder = append(d.volOrder, id)

	d.record(ctx, func() {
		delete(d.volunteers, id)
		delete(d.emails, email)
		d.volOrder = removeID(d.volOrder, id)
	})
	return nil
}

// UpdateVolunteer overwrites an existing volunteer
func (d *DB) UpdateVolunteer(ctx context.Context, volunteer *model.Volunteer) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	id := volunteer.ID
	prev, exists := d.volunteers[id]
	if !exists {
		return fmt.Errorf("%w: volunteer %s", model.ErrNotFound, id)
	}
	if owner, taken := d.emails[volunteer.Email]; taken && owner != id {
		return fmt.Errorf("%w: email %s already registered", model.ErrConflict, volunteer.Email)
	}
	delete(d.emails, prev.Email)
	d.emails[volunteer.Email] = id
	d.volunteers[id] = *volunteer

	newEmail := volunteer.Email
	d.record(ctx, func() {
		delete(d.emails, newEmail)
		d.emails[prev.Email] = id
		d.volunteers[id] = prev
	})
	return nil
}

// DeleteVolunteer removes a volunteer, reporting whether it existed
func (d *DB) DeleteVolunteer(ctx context.Context, id string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	prev, exists := d.volunteers[id]
	if !exists {
		return false, nil
	}
	idx := indexOf(d.volOrder, id)
	delete(d.volunteers, id)
	delete(d.emails, prev.Email)
	d.volOrder = removeID(d.volOrder, id)

	d.record(ctx, func() {
		d.volunteers[id] = prev
		d.emails[prev.Email] = id
		d.volOrder = insertAt(d.volOrder, idx, id)
	})
	return true, nil
}

// ListVolunteers retrieves all volunteers in registration order
func (d *DB) ListVolunteers(ctx context.Context) ([]model.Volunteer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	volunteers := make([]model.Volunteer, 0, len(d.volOrder))
	for _, id := range d.volOrder {
		volunteers = append(volunteers, d.volunteers[id])
	}
	return volunteers, nil
}
