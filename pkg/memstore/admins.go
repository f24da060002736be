package memstore

import (
	"context"
	"fmt"

	"github.com/jakechorley/volunteer-hours/pkg/core/model"
)

// FindAdminByUsername retrieves an admin account. Returns nil, nil if absent.
func (d *DB) FindAdminByUsername(ctx context.Context, username string) (*model.Admin, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	admin, ok := d.admins[username]
	if !ok {
		return nil, nil
	}
	return &admin, nil
}

// InsertAdmin inserts a new admin account; usernames are unique
func (d *DB) InsertAdmin(ctx context.Context, admin *model.Admin) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	username := admin.Username
	if _, exists := d.admins[username]; exists {
		return fmt.Errorf("%w: admin %s already exists", model.ErrConflict, username)
	}
	d.admins[username] = *admin

	d.record(ctx, func() {
		delete(d.admins, username)
	})
	return nil
}
