package memstore

import (
	"context"
	"sync"

	"github.com/jakechorley/volunteer-hours/pkg/core/model"
)

type journalKey struct{}

// journal collects undo operations for the writes made inside WithinTx
type journal struct {
	undo []func()
}

// DB is an in-memory implementation of db.Database.
// Rows are stored by value and copied on the way in and out. Listing order is
// insertion order.
type DB struct {
	mu sync.Mutex

	events      map[string]model.Event
	eventOrder  []string
	attendance  map[string]model.Attendance
	attendOrder []string
	timesheets  map[string]model.Timesheet
	sheetOrder  []string
	pairs       map[model.PairKey]string
	volunteers  map[string]model.Volunteer
	volOrder    []string
	emails      map[string]string
	admins      map[string]model.Admin
}

// NewDB creates an empty in-memory database
func NewDB() *DB {
	return &DB{
		events:     make(map[string]model.Event),
		attendance: make(map[string]model.Attendance),
		timesheets: make(map[string]model.Timesheet),
		pairs:      make(map[model.PairKey]string),
		volunteers: make(map[string]model.Volunteer),
		emails:     make(map[string]string),
		admins:     make(map[string]model.Admin),
	}
}

// WithinTx runs fn and reverts every write made through ctx if fn fails.
// Nested calls join the outermost transaction.
func (d *DB) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(journalKey{}).(*journal); ok {
		return fn(ctx)
	}

	j := &journal{}
	if err := fn(context.WithValue(ctx, journalKey{}, j)); err != nil {
		d.mu.Lock()
		for i := len(j.undo) - 1; i >= 0; i-- {
			j.undo[i]()
		}
		d.mu.Unlock()
		return err
	}
	return nil
}

// record registers an undo operation. Must be called with d.mu held.
func (d *DB) record(ctx context.Context, undo func()) {
	if j, ok := ctx.Value(journalKey{}).(*journal); ok {
		j.undo = append(j.undo, undo)
	}
}

func removeID(order []string, id string) []string {
	for i, existing := range order {
		if existing == id {
			return append(order[:i:i], order[i+1:]...)
		}
	}
	return order
}

// insertAt puts id back at position idx, used when undoing a delete
func insertAt(order []string, idx int, id string) []string {
	if idx < 0 || idx > len(order) {
		return append(order, id)
	}
	out := make([]string, 0, len(order)+1)
	out = append(out, order[:idx]...)
	out = append(out, id)
	return append(out, order[idx:]...)
}

func indexOf(order []string, id string) int {
	for i, existing := range order {
		if existing == id {
			return i
		}
	}
	return -1
}
