package memstore

import (
	"context"
	"fmt"

	"github.com/jakechorley/volunteer-hours/pkg/core/model"
)

// FindEvent retrieves an event by id
func (d *DB) FindEvent(ctx context.Context, id string) (*model.Event, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	event, ok := d.events[id]
	if !ok {
		return nil, fmt.Errorf("%w: event %s", model.ErrNotFound, id)
	}
	return &event, nil
}

// InsertEvent inserts a new event record
func (d *DB) InsertEvent(ctx context.Context, event *model.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.events[event.ID]; exists {
		return fmt.Errorf("%w: event %s already exists", model.ErrConflict, event.ID)
	}
	d.events[event.ID] = *event
	d.eventOrder = append(d.eventOrder, event.ID)

	id := event.ID
	d.record(ctx, func() {
		delete(d.events, id)
		d.eventOrder = removeID(d.eventOrder, id)
	})
	return nil
}

// UpdateEvent overwrites an existing event record
func (d *DB) UpdateEvent(ctx context.Context, event *model.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	prev, exists := d.events[event.ID]
	if !exists {
		return fmt.Errorf("%w: event %s", model.ErrNotFound, event.ID)
	}
	d.events[event.ID] = *event

	d.record(ctx, func() {
		d.events[prev.ID] = prev
	})
	return nil
}

// DeleteEvent removes an event record, reporting whether it existed
func (d *DB) DeleteEvent(ctx context.Context, id string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	prev, exists := d.events[id]
	if !exists {
		return false, nil
	}
	idx := indexOf(d.eventOrder, id)
	delete(d.events, id)
	d.eventOrder = removeID(d.eventOrder, id)

	d.record(ctx, func() {
		d.events[id] = prev
		d.eventOrder = insertAt(d.eventOrder, idx, id)
	})
	return true, nil
}

// ListEvents retrieves all events in creation order
func (d *DB) ListEvents(ctx context.Context) ([]model.Event, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	events := make([]model.Event, 0, len(d.eventOrder))
	for _, id := range d.eventOrder {
		events = append(events, d.events[id])
	}
	return events, nil
}
