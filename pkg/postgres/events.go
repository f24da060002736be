package postgres

import (
	"context"
	"fmt"

	"github.com/jakechorley/volunteer-hours/pkg/core/model"
)

const eventColumns = `id, title, event_date, location, capacity, current_registrations`

func scanEvent(row interface{ Scan(dest ...any) error }) (*model.Event, error) {
	var e model.Event
	var location *string
	if err := row.Scan(&e.ID, &e.Title, &e.Date, &location, &e.Capacity, &e.CurrentRegistrations); err != nil {
		return nil, err
	}
	e.Date = e.Date.UTC()
	e.Location = derefString(location)
	return &e, nil
}

// FindEvent retrieves an event by id
func (db *DB) FindEvent(ctx context.Context, id string) (*model.Event, error) {
	row := db.conn(ctx).QueryRow(ctx, forUpdate(ctx, `SELECT `+eventColumns+` FROM event WHERE id = $1`), id)
	e, err := scanEvent(row)
	if err != nil {
		return nil, notFound(err, "event", id)
	}
	return e, nil
}

// InsertEvent inserts a new event
func (db *DB) InsertEvent(ctx context.Context, e *model.Event) error {
	_, err := db.conn(ctx).Exec(ctx, `
		INSERT INTO event (id, title, event_date, location, capacity, current_registrations)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, e.ID, e.Title, e.Date.UTC(), nullString(e.Location), e.Capacity, e.CurrentRegistrations)
	if err != nil {
		return mapWriteError(err, "event")
	}
	return nil
}

// UpdateEvent overwrites an existing event
func (db *DB) UpdateEvent(ctx context.Context, e *model.Event) error {
	tag, err := db.conn(ctx).Exec(ctx, `
		UPDATE event
		SET title = $2, event_date = $3, location = $4, capacity = $5, current_registrations = $6
		WHERE id = $1
	`, e.ID, e.Title, e.Date.UTC(), nullString(e.Location), e.Capacity, e.CurrentRegistrations)
	if err != nil {
		return mapWriteError(err, "event")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: event %s", model.ErrNotFound, e.ID)
	}
	return nil
}

// DeleteEvent removes an event, reporting whether it existed
func (db *DB) DeleteEvent(ctx context.Context, id string) (bool, error) {
	tag, err := db.conn(ctx).Exec(ctx, `DELETE FROM event WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete event: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListEvents retrieves all events in creation order
func (db *DB) ListEvents(ctx context.Context) ([]model.Event, error) {
	rows, err := db.conn(ctx).Query(ctx, `SELECT `+eventColumns+` FROM event ORDER BY created_seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, *e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}

	return events, nil
}
