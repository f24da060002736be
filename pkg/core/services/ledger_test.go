package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/volunteer-hours/pkg/core/model"
)

func TestCreateEvent_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	date := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		title    string
		capacity int
	}{
		{name: "negative capacity", title: "Food bank", capacity: -1},
		{name: "blank title", title: "   ", capacity: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ledger.CreateEvent(ctx, tt.title, date, "Hall", tt.capacity)
			assert.ErrorIs(t, err, model.ErrValidation)
		})
	}

	events, err := f.ledger.ListEvents(ctx)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestCreateEvent_ZeroCapacityAllowed(t *testing.T) {
	f := newFixture(t)
	event := f.event(t, 0)

	assert.Equal(t, 0, event.Capacity)
	assert.Equal(t, 0, event.CurrentRegistrations)
	assert.Equal(t, 0, event.TotalSlots())
}

func TestReserve(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	event := f.event(t, 2)

	updated, err := f.ledger.Reserve(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Capacity)
	assert.Equal(t, 1, updated.CurrentRegistrations)

	_, err = f.ledger.Reserve(ctx, event.ID)
	require.NoError(t, err)

	_, err = f.ledger.Reserve(ctx, event.ID)
	assert.ErrorIs(t, err, model.ErrCapacityExceeded)

	stored := f.reloadEvent(t, event.ID)
	assert.Equal(t, 0, stored.Capacity)
	assert.Equal(t, 2, stored.CurrentRegistrations)
}

func TestReserve_UnknownEvent(t *testing.T) {
	f := newFixture(t)

	_, err := f.ledger.Reserve(context.Background(), "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestRelease_ClampsAtZero(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	event := f.event(t, 3)

	for i := 0; i < 3; i++ {
		released, err := f.ledger.Release(ctx, event.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, released.CurrentRegistrations)
	}

	stored := f.reloadEvent(t, event.ID)
	assert.Equal(t, 0, stored.CurrentRegistrations)
	assert.Equal(t, 3, stored.Capacity)
}

func TestRelease_MissingEventIsNoop(t *testing.T) {
	f := newFixture(t)

	event, err := f.ledger.Release(context.Background(), "missing")
	assert.NoError(t, err)
	assert.Nil(t, event)
}

func TestReserveRelease_TotalSlotsConstant(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	event := f.event(t, 4)

	steps := []func() (*model.Event, error){
		func() (*model.Event, error) { return f.ledger.Reserve(ctx, event.ID) },
		func() (*model.Event, error) { return f.ledger.Reserve(ctx, event.ID) },
		func() (*model.Event, error) { return f.ledger.Release(ctx, event.ID) },
		func() (*model.Event, error) { return f.ledger.Release(ctx, event.ID) },
		func() (*model.Event, error) { return f.ledger.Release(ctx, event.ID) },
		func() (*model.Event, error) { return f.ledger.Reserve(ctx, event.ID) },
	}
	for _, step := range steps {
		_, err := step()
		require.NoError(t, err)
		assert.Equal(t, 4, f.reloadEvent(t, event.ID).TotalSlots())
	}
}

func TestReserve_ConcurrentCallersNeverOverbook(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	event := f.event(t, 10)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded, rejected := 0, 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.ledger.Reserve(ctx, event.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, model.ErrCapacityExceeded):
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, succeeded)
	assert.Equal(t, 40, rejected)

	stored := f.reloadEvent(t, event.ID)
	assert.Equal(t, 0, stored.Capacity)
	assert.Equal(t, 10, stored.CurrentRegistrations)
}

func TestUpdateEvent_KeepsSlots(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	event := f.event(t, 4)

	_, err := f.ledger.Reserve(ctx, event.ID)
	require.NoError(t, err)

	title := "  Food bank (evening)  "
	date := time.Date(2025, 3, 16, 0, 0, 0, 0, time.UTC)
	updated, err := f.ledger.UpdateEvent(ctx, event.ID, EventChanges{Title: &title, Date: &date})
	require.NoError(t, err)
	assert.Equal(t, "Food bank (evening)", updated.Title)
	assert.Equal(t, date, updated.Date)
	assert.Equal(t, "Community hall", updated.Location)

	stored := f.reloadEvent(t, event.ID)
	assert.Equal(t, 3, stored.Capacity)
	assert.Equal(t, 1, stored.CurrentRegistrations)
	assert.Equal(t, "Food bank (evening)", stored.Title)

	blank := " "
	_, err = f.ledger.UpdateEvent(ctx, event.ID, EventChanges{Title: &blank})
	assert.ErrorIs(t, err, model.ErrValidation)
	assert.Equal(t, "Food bank (evening)", f.reloadEvent(t, event.ID).Title)

	_, err = f.ledger.UpdateEvent(ctx, "missing", EventChanges{Title: &title})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestDeleteEvent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	event := f.event(t, 2)

	require.NoError(t, f.ledger.DeleteEvent(ctx, event.ID))

	_, err := f.ledger.GetEvent(ctx, event.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)

	released, err := f.ledger.Release(ctx, event.ID)
	assert.NoError(t, err)
	assert.Nil(t, released)

	err = f.ledger.DeleteEvent(ctx, event.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}
