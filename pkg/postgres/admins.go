package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/volunteer-hours/pkg/core/model"
)

// FindAdminByUsername retrieves an admin account. Returns nil, nil if absent.
func (db *DB) FindAdminByUsername(ctx context.Context, username string) (*model.Admin, error) {
	var a model.Admin
	var firstName, lastName, email *string
	var role string
	err := db.conn(ctx).QueryRow(ctx, `
		SELECT id, username, first_name, last_name, email, password_hash, role, created_date
		FROM admin_account WHERE username = $1
	`, username).Scan(&a.ID, &a.Username, &firstName, &lastName, &email, &a.PasswordHash, &role, &a.CreatedDate)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query admin: %w", err)
	}
	a.FirstName = derefString(firstName)
	a.LastName = derefString(lastName)
	a.Email = derefString(email)
	a.Role = model.AdminRole(role)
	return &a, nil
}

// InsertAdmin inserts a new admin account; usernames are unique
func (db *DB) InsertAdmin(ctx context.Context, a *model.Admin) error {
	_, err := db.conn(ctx).Exec(ctx, `
		INSERT INTO admin_account (id, username, first_name, last_name, email, password_hash, role, created_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, a.ID, a.Username, nullString(a.FirstName), nullString(a.LastName), nullString(a.Email), a.PasswordHash, string(a.Role), a.CreatedDate.UTC())
	if err != nil {
		return mapWriteError(err, "admin")
	}
	return nil
}
