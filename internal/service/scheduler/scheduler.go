package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oshokin/radio-alarm/internal/domain/alarm"
	"github.com/oshokin/radio-alarm/internal/firetime"
	"github.com/oshokin/radio-alarm/internal/logger"
	"github.com/oshokin/radio-alarm/internal/metrics"
	"github.com/oshokin/radio-alarm/internal/store"
	"github.com/oshokin/radio-alarm/internal/timer"
)

// ErrRegistration wraps failures to register a fire time with the timer.
// The persisted alarm still reflects the requested change when it is returned.
var ErrRegistration = errors.New("timer registration failed")

// Store is the part of the alarm store the scheduler depends on.
type Store interface {
	Add(ctx context.Context, station *alarm.Station, hour, minute int) (int, error)
	Remove(ctx context.Context, id int) (bool, error)
	Update(ctx context.Context, id int, mutate func(*alarm.Alarm)) (*alarm.Alarm, bool, error)
	Get(id int) (*alarm.Alarm, bool)
	List() []*alarm.Alarm
	Len() int
	Load(ctx context.Context) error
}

// Scheduler orchestrates alarm mutations, timer registrations and change notifications.
type Scheduler struct {
	// store owns the alarm collection.
	store Store
	// timer holds the wake-up registrations.
	timer timer.Timer
	// clock is read once per fire time computation.
	clock firetime.Clock
	// observer is notified after each state-changing operation.
	observer Observer
}

// Option configures the scheduler.
type Option func(*Scheduler)

// WithClock replaces the system clock.
func WithClock(clock firetime.Clock) Option {
	return func(s *Scheduler) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithObserver sets the change observer.
func WithObserver(observer Observer) Option {
	return func(s *Scheduler) {
		s.observer = observer
	}
}

// New creates a scheduler over store and t.
func New(store Store, t timer.Timer, opts ...Option) *Scheduler {
	s := &Scheduler{
		store: store,
		timer: t,
		clock: firetime.SystemClock{},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Add creates an alarm for station at hour:minute and enables it.
// The returned id is valid even when registering the fire time failed.
func (s *Scheduler) Add(ctx context.Context, station *alarm.Station, hour, minute int) (int, error) {
	id, err := s.store.Add(ctx, station, hour, minute)
	if err != nil {
		s.observePersistence(err)

		return -1, err
	}

	_, err = s.setEnabled(ctx, id, true)
	s.notify()

	return id, err
}

// List returns all alarms in insertion order.
func (s *Scheduler) List() []*alarm.Alarm {
	return s.store.List()
}

// Get returns the alarm with the given id.
func (s *Scheduler) Get(id int) (*alarm.Alarm, bool) {
	return s.store.Get(id)
}

// GetStation returns the station of the alarm with the given id.
func (s *Scheduler) GetStation(id int) (*alarm.Station, bool) {
	a, ok := s.store.Get(id)
	if !ok {
		return nil, false
	}

	return a.Station, true
}

// SetEnabled switches the alarm on or off. Requesting the current value does nothing.
func (s *Scheduler) SetEnabled(ctx context.Context, id int, enabled bool) error {
	changed, err := s.setEnabled(ctx, id, enabled)
	if changed {
		s.notify()
	}

	return err
}

// ChangeTime moves the alarm to hour:minute and re-registers it when enabled.
func (s *Scheduler) ChangeTime(ctx context.Context, id, hour, minute int) error {
	if err := alarm.ValidateTime(hour, minute); err != nil {
		return err
	}

	return s.mutate(ctx, id, func(a *alarm.Alarm) {
		a.Hour = hour
		a.Minute = minute
	})
}

// ChangeWeekDays toggles day in the alarm's weekday set.
func (s *Scheduler) ChangeWeekDays(ctx context.Context, id int, day time.Weekday) error {
	if err := alarm.ValidateWeekDay(day); err != nil {
		return err
	}

	return s.mutate(ctx, id, func(a *alarm.Alarm) {
		a.WeekDays = a.WeekDays.Toggle(day)
	})
}

// ToggleRepeating flips the repeating flag.
func (s *Scheduler) ToggleRepeating(ctx context.Context, id int) error {
	return s.mutate(ctx, id, func(a *alarm.Alarm) {
		a.Repeating = !a.Repeating
	})
}

// Remove cancels the alarm's registration and deletes it.
func (s *Scheduler) Remove(ctx context.Context, id int) error {
	existing, ok := s.store.Get(id)
	if !ok {
		return nil
	}

	s.cancel(id)

	if _, err := s.store.Remove(ctx, id); err != nil {
		s.observePersistence(err)

		// The alarm is still there; put its registration back.
		if existing.Enabled {
			if startErr := s.start(ctx, existing, time.Time{}); startErr != nil {
				return errors.Join(err, startErr)
			}
		}

		return err
	}

	s.notify()

	return nil
}

// ResetAllAlarms re-registers every enabled alarm, e.g. after a restart,
// and makes sure disabled ones hold no registration.
func (s *Scheduler) ResetAllAlarms(ctx context.Context) error {
	var errs []error

	for _, a := range s.store.List() {
		if !a.Enabled {
			s.timer.Cancel(a.ID)

			continue
		}

		logger.DebugKV(ctx, "Restarting alarm", "id", a.ID)

		if err := s.start(ctx, a, time.Time{}); err != nil {
			errs = append(errs, err)
		}
	}

	s.publishCounts()

	return errors.Join(errs...)
}

// Reload drops every registration, reloads the collection from storage and resyncs.
// It handles changes made to the backing store by another process.
func (s *Scheduler) Reload(ctx context.Context) error {
	for _, a := range s.store.List() {
		s.cancel(a.ID)
	}

	if err := s.store.Load(ctx); err != nil {
		// Keep serving the collection we had.
		return errors.Join(err, s.ResetAllAlarms(ctx))
	}

	logger.InfoKV(ctx, "Alarms reloaded", "count", s.store.Len())

	err := s.ResetAllAlarms(ctx)
	s.notify()

	return err
}

// NextFire computes when an enabled alarm fires next. Disabled alarms report the zero time.
func (s *Scheduler) NextFire(id int) (time.Time, error) {
	a, ok := s.store.Get(id)
	if !ok || !a.Enabled {
		return time.Time{}, nil
	}

	next, err := firetime.Next(firetime.SpecOf(a), s.clock.Now())
	if errors.Is(err, firetime.ErrNoMatchingWeekday) {
		return time.Time{}, nil
	}

	return next, err
}

// HandleFired reacts to the registration of id that expired at deadline:
// repeating alarms are registered for their next day, one-shot alarms are switched off.
// The next day is searched after deadline even when the wake-up came early.
func (s *Scheduler) HandleFired(ctx context.Context, id int, deadline time.Time) error {
	a, ok := s.store.Get(id)
	if !ok || !a.Enabled {
		logger.WarnKV(ctx, "Ignoring fire of inactive alarm", "id", id)

		return nil
	}

	logger.InfoKV(ctx, "Alarm fired", "id", id, "station", a.Station.Name, "url", a.Station.URL)
	metrics.ObserveFire(a.Repeating)

	if a.Repeating {
		return s.start(ctx, a, deadline)
	}

	return s.SetEnabled(ctx, id, false)
}

// setEnabled changes the flag and the registration; it reports whether anything changed.
func (s *Scheduler) setEnabled(ctx context.Context, id int, enabled bool) (bool, error) {
	current, ok := s.store.Get(id)
	if !ok || current.Enabled == enabled {
		return false, nil
	}

	updated, _, err := s.store.Update(ctx, id, func(a *alarm.Alarm) {
		a.Enabled = enabled
	})
	if err != nil {
		s.observePersistence(err)

		return false, err
	}

	logger.InfoKV(ctx, "Alarm switched", "id", id, "enabled", enabled)

	if !enabled {
		s.cancel(id)

		return true, nil
	}

	return true, s.start(ctx, updated, time.Time{})
}

// mutate persists a change and refreshes the registration of an enabled alarm.
func (s *Scheduler) mutate(ctx context.Context, id int, change func(*alarm.Alarm)) error {
	updated, found, err := s.store.Update(ctx, id, change)
	if !found {
		return nil
	}

	if err != nil {
		s.observePersistence(err)

		return err
	}

	if updated.Enabled {
		err = s.start(ctx, updated, time.Time{})
	}

	s.notify()

	return err
}

// start replaces the registration of a with a freshly computed fire time
// strictly after the later of now and notBefore.
func (s *Scheduler) start(ctx context.Context, a *alarm.Alarm, notBefore time.Time) error {
	s.cancel(a.ID)

	now := s.clock.Now()
	if notBefore.After(now) {
		now = notBefore
	}

	next, err := firetime.Next(firetime.SpecOf(a), now)
	if errors.Is(err, firetime.ErrNoMatchingWeekday) {
		logger.WarnKV(ctx, "Repeating alarm has no selected weekday, leaving it unregistered", "id", a.ID)

		return nil
	}

	if err != nil {
		metrics.ObserveRegistration(err)

		return fmt.Errorf("%w: alarm %d: %w", ErrRegistration, a.ID, err)
	}

	err = s.timer.ScheduleAt(a.ID, next)
	metrics.ObserveRegistration(err)

	if err != nil {
		return fmt.Errorf("%w: alarm %d: %w", ErrRegistration, a.ID, err)
	}

	logger.DebugKV(ctx, "Alarm registered",
		"id", a.ID,
		"weekday", next.Weekday().String(),
		"date", next.Format(time.DateOnly),
		"time", next.Format("15:04"),
	)

	return nil
}

func (s *Scheduler) cancel(id int) {
	s.timer.Cancel(id)
	metrics.ObserveCancellation()
}

// observePersistence counts store failures that are not input validation errors.
func (s *Scheduler) observePersistence(err error) {
	if err != nil && !errors.Is(err, alarm.ErrInvalidTime) && !errors.Is(err, store.ErrStationRequired) {
		metrics.ObservePersistenceFailure()
	}
}

// notify publishes gauges and tells the observer about the change.
func (s *Scheduler) notify() {
	s.publishCounts()

	if s.observer != nil {
		s.observer.OnAlarmsChanged()
	}
}

func (s *Scheduler) publishCounts() {
	var enabled, disabled int

	for _, a := range s.store.List() {
		if a.Enabled {
			enabled++
		} else {
			disabled++
		}
	}

	metrics.SetAlarmCounts(enabled, disabled)
}
