package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-hours/pkg/core/model"
	"github.com/jakechorley/volunteer-hours/pkg/db"
	"github.com/jakechorley/volunteer-hours/pkg/memstore"
)

var fixedNow = time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []model.Notification
}

func (n *recordingNotifier) Notify(_ context.Context, notification model.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification)
}

func (n *recordingNotifier) kinds() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var kinds []string
	for _, s := range n.sent {
		kinds = append(kinds, s.Kind)
	}
	return kinds
}

type fixture struct {
	store    db.Database
	mem      *memstore.DB
	locks    *Locks
	metrics  *Metrics
	notifier *recordingNotifier
	ledger   *CapacityLedger
	accrual  *AccrualEngine
	tracker  *AttendanceTracker
	registry *VolunteerRegistry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := memstore.NewDB()
	return newFixtureWithStore(t, mem, mem)
}

// newFixtureWithStore wires the services over store, which may wrap mem to
// inject failures
func newFixtureWithStore(t *testing.T, mem *memstore.DB, store db.Database) *fixture {
	t.Helper()
	logger := zap.NewNop()

	metrics, err := NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	f := &fixture{
		store:    store,
		mem:      mem,
		locks:    NewLocks(),
		metrics:  metrics,
		notifier: &recordingNotifier{},
	}
	f.ledger = NewCapacityLedger(store, f.locks, logger)
	f.accrual = NewAccrualEngine(store, f.locks, f.notifier, metrics, logger)
	f.accrual.now = func() time.Time { return fixedNow }
	f.tracker = NewAttendanceTracker(store, f.ledger, f.accrual, f.locks, f.notifier, metrics, logger)
	f.tracker.now = func() time.Time { return fixedNow }
	f.registry = NewVolunteerRegistry(store, logger)
	f.registry.now = func() time.Time { return fixedNow }
	return f
}

func (f *fixture) event(t *testing.T, capacity int) *model.Event {
	t.Helper()
	event, err := f.ledger.CreateEvent(context.Background(), "Food bank", time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), "Community hall", capacity)
	require.NoError(t, err)
	return event
}

func (f *fixture) volunteer(t *testing.T, email string) *model.Volunteer {
	t.Helper()
	v, err := f.registry.Register(context.Background(), model.Session{ActorID: "admin"}, model.Volunteer{
		FirstName: "Vol",
		LastName:  "Unteer",
		Email:     email,
	})
	require.NoError(t, err)
	return v
}

func (f *fixture) line(t *testing.T, volunteerID, eventID string) *model.Timesheet {
	t.Helper()
	line, err := f.accrual.LineFor(context.Background(), volunteerID, eventID)
	require.NoError(t, err)
	return line
}

func (f *fixture) reloadEvent(t *testing.T, eventID string) *model.Event {
	t.Helper()
	event, err := f.ledger.GetEvent(context.Background(), eventID)
	require.NoError(t, err)
	return event
}

var errInjected = errors.New("injected failure")

// failingStore fails selected writes after delegating everything else
type failingStore struct {
	*memstore.DB
	failInsertAttendance bool
	failInsertTimesheet  bool
	failUpdateTimesheet  bool
	failDeleteAttendance bool
	failUpdateEvent      bool
}

func (s *failingStore) InsertAttendance(ctx context.Context, a *model.Attendance) error {
	if s.failInsertAttendance {
		return errInjected
	}
	return s.DB.InsertAttendance(ctx, a)
}

func (s *failingStore) InsertTimesheet(ctx context.Context, ts *model.Timesheet) error {
	if s.failInsertTimesheet {
		return errInjected
	}
	return s.DB.InsertTimesheet(ctx, ts)
}

func (s *failingStore) UpdateTimesheet(ctx context.Context, ts *model.Timesheet) error {
	if s.failUpdateTimesheet {
		return errInjected
	}
	return s.DB.UpdateTimesheet(ctx, ts)
}

func (s *failingStore) DeleteAttendance(ctx context.Context, id string) (bool, error) {
	if s.failDeleteAttendance {
		return false, errInjected
	}
	return s.DB.DeleteAttendance(ctx, id)
}

func (s *failingStore) UpdateEvent(ctx context.Context, e *model.Event) error {
	if s.failUpdateEvent {
		return errInjected
	}
	return s.DB.UpdateEvent(ctx, e)
}
