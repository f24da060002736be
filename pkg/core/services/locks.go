package services

import (
	"sync"

	"github.com/jakechorley/volunteer-hours/pkg/core/model"
)

// Locks serialises read-modify-write sequences per event id and per
// (volunteer, event) pair. When both are needed the event lock is taken first.
type Locks struct {
	mu    sync.Mutex
	locks map[string]*refLock
}

type refLock struct {
	mu   sync.Mutex
	refs int
}

// NewLocks creates an empty lock table
func NewLocks() *Locks {
	return &Locks{locks: make(map[string]*refLock)}
}

// Event locks the given event id and returns the unlock function
func (l *Locks) Event(eventID string) func() {
	return l.lock("event:" + eventID)
}

// Pair locks the accrual line key and returns the unlock function
func (l *Locks) Pair(key model.PairKey) func() {
	return l.lock("pair:" + key.String())
}

func (l *Locks) lock(name string) func() {
	l.mu.Lock()
	rl, ok := l.locks[name]
	if !ok {
		rl = &refLock{}
		l.locks[name] = rl
	}
	rl.refs++
	l.mu.Unlock()

	rl.mu.Lock()

	return func() {
		rl.mu.Unlock()

		l.mu.Lock()
		rl.refs--
		if rl.refs == 0 {
			delete(l.locks, name)
		}
		l.mu.Unlock()
	}
}
