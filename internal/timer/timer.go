package timer

import (
	"errors"
	"maps"
	"sync"
	"time"
)

// Timer registers absolute wake-ups keyed by alarm id.
// Both operations are idempotent: scheduling an id replaces its registration
// and cancelling an unknown id does nothing.
type Timer interface {
	ScheduleAt(id int, at time.Time) error
	Cancel(id int)
}

var (
	// ErrInvalidDeadline is returned for zero deadlines.
	ErrInvalidDeadline = errors.New("invalid deadline")
	// ErrStopped is returned after Stop.
	ErrStopped = errors.New("timer is stopped")
)

// FireFunc receives the id and the deadline of a registration that expired.
type FireFunc func(id int, at time.Time)

// Local is an in-process Timer built on time.AfterFunc.
// Fire callbacks run on their own goroutine.
type Local struct {
	// strategy controls deadline rounding.
	strategy Strategy
	// fire is invoked when a registration expires.
	fire FireFunc
	// entries maps ids to live registrations.
	entries map[int]*entry
	// stopped rejects new registrations after Stop.
	stopped bool
	// mu protects entries and stopped.
	mu sync.Mutex
}

// entry is one pending registration.
type entry struct {
	at    time.Time
	timer *time.Timer
}

// NewLocal creates a timer using strategy and delivering expirations to fire.
func NewLocal(strategy Strategy, fire FireFunc) *Local {
	return &Local{
		strategy: strategy,
		fire:     fire,
		entries:  make(map[int]*entry),
	}
}

// Strategy returns the negotiated strategy.
func (l *Local) Strategy() Strategy {
	return l.strategy
}

// ScheduleAt registers id to fire at the given instant, replacing any previous registration.
// Past deadlines fire immediately.
func (l *Local) ScheduleAt(id int, at time.Time) error {
	if at.IsZero() {
		return ErrInvalidDeadline
	}

	if l.strategy == StrategyInexact {
		if rounded := at.Truncate(time.Minute); rounded.Before(at) {
			at = rounded.Add(time.Minute)
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.stopped {
		return ErrStopped
	}

	l.cancelLocked(id)

	e := &entry{at: at}
	e.timer = time.AfterFunc(max(time.Until(at), 0), func() {
		l.expire(id, e)
	})
	l.entries[id] = e

	return nil
}

// Cancel removes the registration of id, if any.
func (l *Local) Cancel(id int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.cancelLocked(id)
}

// Deadline returns the registered deadline of id.
func (l *Local) Deadline(id int) (time.Time, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[id]
	if !ok {
		return time.Time{}, false
	}

	return e.at, true
}

// Pending returns a snapshot of all registrations.
func (l *Local) Pending() map[int]time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()

	result := make(map[int]time.Time, len(l.entries))
	for id, e := range l.entries {
		result[id] = e.at
	}

	return result
}

// NextAlarmClock returns the earliest pending deadline. It is only reported
// under the alarm-clock strategy, which is the one that makes wake-ups user-visible.
func (l *Local) NextAlarmClock() (int, time.Time, bool) {
	if l.strategy != StrategyAlarmClock {
		return 0, time.Time{}, false
	}

	var (
		nextID int
		next   time.Time
		found  bool
	)

	for id, at := range l.Pending() {
		if !found || at.Before(next) || (at.Equal(next) && id < nextID) {
			nextID, next, found = id, at, true
		}
	}

	return nextID, next, found
}

// Stop cancels every registration and rejects new ones.
func (l *Local) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for id := range maps.Clone(l.entries) {
		l.cancelLocked(id)
	}

	l.stopped = true
}

func (l *Local) cancelLocked(id int) {
	if e, ok := l.entries[id]; ok {
		e.timer.Stop()
		delete(l.entries, id)
	}
}

// expire drops the registration and invokes the callback unless the entry was replaced meanwhile.
func (l *Local) expire(id int, e *entry) {
	l.mu.Lock()

	if l.entries[id] != e {
		l.mu.Unlock()

		return
	}

	delete(l.entries, id)
	l.mu.Unlock()

	if l.fire != nil {
		l.fire(id, e.at)
	}
}
