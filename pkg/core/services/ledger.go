package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-hours/pkg/core/model"
	"github.com/jakechorley/volunteer-hours/pkg/db"
)

var validate = validator.New()

// CapacityLedger owns each event's open slots and registration count and
// moves them together.
type CapacityLedger struct {
	store  db.EventStore
	locks  *Locks
	logger *zap.Logger
}

// NewCapacityLedger creates a ledger over the given event store
func NewCapacityLedger(store db.EventStore, locks *Locks, logger *zap.Logger) *CapacityLedger {
	return &CapacityLedger{store: store, locks: locks, logger: logger}
}

// CreateEvent creates an event with the given number of open slots.
// capacity + registrations is fixed from this point on.
func (l *CapacityLedger) CreateEvent(ctx context.Context, title string, date time.Time, location string, capacity int) (*model.Event, error) {
	event := &model.Event{
		ID:       uuid.New().String(),
		Title:    strings.TrimSpace(title),
		Date:     date,
		Location: strings.TrimSpace(location),
		Capacity: capacity,
	}
	if err := validate.Struct(event); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrValidation, err)
	}

	if err := l.store.InsertEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to insert event: %w", err)
	}

	l.logger.Info("Event created",
		zap.String("event_id", event.ID),
		zap.String("title", event.Title),
		zap.Int("capacity", event.Capacity))

	return event, nil
}

// GetEvent retrieves an event
func (l *CapacityLedger) GetEvent(ctx context.Context, eventID string) (*model.Event, error) {
	return l.store.FindEvent(ctx, eventID)
}

// ListEvents retrieves all events
func (l *CapacityLedger) ListEvents(ctx context.Context) ([]model.Event, error) {
	events, err := l.store.ListEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

// EventChanges lists the event details to edit. Nil fields are left as
// they are.
type EventChanges struct {
	Title    *string
	Date     *time.Time
	Location *string
}

// UpdateEvent edits an event's title, date or location. Capacity and
// registrations only move through Reserve and Release.
func (l *CapacityLedger) UpdateEvent(ctx context.Context, eventID string, changes EventChanges) (*model.Event, error) {
	unlock := l.locks.Event(eventID)
	defer unlock()

	event, err := l.store.FindEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if changes.Title != nil {
		event.Title = strings.TrimSpace(*changes.Title)
	}
	if changes.Date != nil {
		event.Date = *changes.Date
	}
	if changes.Location != nil {
		event.Location = strings.TrimSpace(*changes.Location)
	}
	if err := validate.Struct(event); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrValidation, err)
	}

	if err := l.store.UpdateEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}

	l.logger.Info("Event updated",
		zap.String("event_id", event.ID),
		zap.String("title", event.Title))

	return event, nil
}

// DeleteEvent removes an event. Attendance already recorded against it is
// kept, and releasing its slots later is a no-op.
func (l *CapacityLedger) DeleteEvent(ctx context.Context, eventID string) error {
	unlock := l.locks.Event(eventID)
	defer unlock()

	deleted, err := l.store.DeleteEvent(ctx, eventID)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	if !deleted {
		return fmt.Errorf("%w: event %s", model.ErrNotFound, eventID)
	}

	l.logger.Info("Event deleted", zap.String("event_id", eventID))
	return nil
}

// Reserve takes one open slot on the event
func (l *CapacityLedger) Reserve(ctx context.Context, eventID string) (*model.Event, error) {
	unlock := l.locks.Event(eventID)
	defer unlock()
	return l.reserve(ctx, eventID)
}

// Release gives one slot back to the event. Registrations never drop below
// zero, and a missing event is not an error.
func (l *CapacityLedger) Release(ctx context.Context, eventID string) (*model.Event, error) {
	unlock := l.locks.Event(eventID)
	defer unlock()
	return l.release(ctx, eventID)
}

// reserve expects the caller to hold the event lock
func (l *CapacityLedger) reserve(ctx context.Context, eventID string) (*model.Event, error) {
	event, err := l.store.FindEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if event.Capacity <= 0 {
		return nil, fmt.Errorf("%w: event %s has no open slots", model.ErrCapacityExceeded, eventID)
	}

	event.Capacity--
	event.CurrentRegistrations++
	if err := l.store.UpdateEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}

	l.logger.Debug("Capacity reserved",
		zap.String("event_id", eventID),
		zap.Int("capacity", event.Capacity),
		zap.Int("registrations", event.CurrentRegistrations))

	return event, nil
}

// release expects the caller to hold the event lock
func (l *CapacityLedger) release(ctx context.Context, eventID string) (*model.Event, error) {
	event, err := l.store.FindEvent(ctx, eventID)
	if errors.Is(err, model.ErrNotFound) {
		l.logger.Debug("Release skipped, event no longer exists", zap.String("event_id", eventID))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if event.CurrentRegistrations <= 0 {
		l.logger.Warn("Release skipped, event has no registrations", zap.String("event_id", eventID))
		return event, nil
	}

	event.CurrentRegistrations--
	event.Capacity++
	if err := l.store.UpdateEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}

	l.logger.Debug("Capacity released",
		zap.String("event_id", eventID),
		zap.Int("capacity", event.Capacity),
		zap.Int("registrations", event.CurrentRegistrations))

	return event, nil
}
