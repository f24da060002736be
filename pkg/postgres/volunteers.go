package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/volunteer-hours/pkg/core/model"
)

const volunteerColumns = `id, first_name, last_name, email, phone, status, last_modified_by, last_modified_date`

func scanVolunteer(row interface{ Scan(dest ...any) error }) (*model.Volunteer, error) {
	var v model.Volunteer
	var phone, modifiedBy *string
	var status string
	if err := row.Scan(&v.ID, &v.FirstName, &v.LastName, &v.Email, &phone, &status, &modifiedBy, &v.LastModifiedDate); err != nil {
		return nil, err
	}
	v.Phone = derefString(phone)
	v.Status = model.VolunteerStatus(status)
	v.LastModifiedBy = derefString(modifiedBy)
	v.LastModifiedDate = v.LastModifiedDate.UTC()
	return &v, nil
}

// FindVolunteer retrieves a volunteer by id
func (db *DB) FindVolunteer(ctx context.Context, id string) (*model.Volunteer, error) {
	row := db.conn(ctx).QueryRow(ctx, `SELECT `+volunteerColumns+` FROM volunteer WHERE id = $1`, id)
	v, err := scanVolunteer(row)
	if err != nil {
		return nil, notFound(err, "volunteer", id)
	}
	return v, nil
}

// FindVolunteerByEmail retrieves a volunteer by exact email. Returns nil, nil if absent.
func (db *DB) FindVolunteerByEmail(ctx context.Context, email string) (*model.Volunteer, error) {
	row := db.conn(ctx).QueryRow(ctx, `SELECT `+volunteerColumns+` FROM volunteer WHERE email = $1`, email)
	v, err := scanVolunteer(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query volunteer: %w", err)
	}
	return v, nil
}

// InsertVolunteer inserts a new volunteer; emails are unique
func (db *DB) InsertVolunteer(ctx context.Context, v *model.Volunteer) error {
	_, err := db.conn(ctx).Exec(ctx, `
		INSERT INTO volunteer (id, first_name, last_name, email, phone, status, last_modified_by, last_modified_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, v.ID, v.FirstName, v.LastName, v.Email, nullString(v.Phone), string(v.Status), nullString(v.LastModifiedBy), v.LastModifiedDate.UTC())
	if err != nil {
		return mapWriteError(err, "volunteer")
	}
	return nil
}

// UpdateVolunteer overwrites an existing volunteer
func (db *DB) UpdateVolunteer(ctx context.Context, v *model.Volunteer) error {
	tag, err := db.conn(ctx).Exec(ctx, `
		UPDATE volunteer
		SET first_name = $2, last_name = $3, email = $4, phone = $5, status = $6,
			last_modified_by = $7, last_modified_date = $8
		WHERE id = $1
	`, v.ID, v.FirstName, v.LastName, v.Email, nullString(v.Phone), string(v.Status), nullString(v.LastModifiedBy), v.LastModifiedDate.UTC())
	if err != nil {
		return mapWriteError(err, "volunteer")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: volunteer %s", model.ErrNotFound, v.ID)
	}
	return nil
}

// DeleteVolunteer removes a volunteer, reporting whether it existed
func (db *DB) DeleteVolunteer(ctx context.Context, id string) (bool, error) {
	tag, err := db.conn(ctx).Exec(ctx, `DELETE FROM volunteer WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete volunteer: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListVolunteers retrieves all volunteers in registration order
func (db *DB) ListVolunteers(ctx context.Context) ([]model.Volunteer, error) {
	rows, err := db.conn(ctx).Query(ctx, `SELECT `+volunteerColumns+` FROM volunteer ORDER BY created_seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query volunteers: %w", err)
	}
	defer rows.Close()

	var volunteers []model.Volunteer
	for rows.Next() {
		v, err := scanVolunteer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan volunteer: %w", err)
		}
		volunteers = append(volunteers, *v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating volunteers: %w", err)
	}

	return volunteers, nil
}
