package server

import (
	"context"
	"sync"
	"time"

	api "github.com/oshokin/radio-alarm/internal/api/grpc/alarm"
	domain "github.com/oshokin/radio-alarm/internal/domain/alarm"
	"github.com/oshokin/radio-alarm/internal/logger"
	"github.com/oshokin/radio-alarm/internal/metrics"
	"github.com/oshokin/radio-alarm/internal/service/common"
	"github.com/oshokin/radio-alarm/internal/service/scheduler"
)

// registrations exposes the registered fire times of a timer.
type registrations interface {
	Deadline(id int) (time.Time, bool)
	NextAlarmClock() (int, time.Time, bool)
}

// modifiedChecker is implemented by backends that can tell their own writes from foreign ones.
type modifiedChecker interface {
	Modified(ctx context.Context) (bool, error)
}

// service serializes every scheduler operation: RPCs, timer fires and reloads
// all run under one mutex, so the scheduler itself needs no locking.
type service struct {
	// scheduler owns the alarms and their registrations.
	scheduler *scheduler.Scheduler
	// registrations reports registered fire times for alarm views.
	registrations registrations
	// alarmClock is the last published user-visible wake-up.
	alarmClock time.Time
	// mu serializes access to scheduler and alarmClock.
	mu sync.Mutex
}

// newService wraps sched. r may be nil.
func newService(sched *scheduler.Scheduler, r registrations) *service {
	return &service{
		scheduler:     sched,
		registrations: r,
	}
}

// AddAlarm creates an enabled alarm.
func (s *service) AddAlarm(ctx context.Context, station *domain.Station, hour, minute int) (api.View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var name string
	if station != nil {
		name = station.Name
	}

	audit(ctx, "Add alarm requested", "station", name, "hour", hour, "minute", minute)

	id, err := s.scheduler.Add(ctx, station, hour, minute)
	s.publishAlarmClockLocked(ctx)

	if id < 0 {
		return api.View{}, err
	}

	return s.viewLocked(id), err
}

// ListAlarms returns every alarm with its registration.
func (s *service) ListAlarms(context.Context) []api.View {
	s.mu.Lock()
	defer s.mu.Unlock()

	alarms := s.scheduler.List()
	views := make([]api.View, 0, len(alarms))

	for _, a := range alarms {
		views = append(views, api.View{Alarm: a, NextFire: s.nextFireLocked(a.ID)})
	}

	return views
}

// GetAlarm returns one alarm.
func (s *service) GetAlarm(_ context.Context, id int) (api.View, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := s.viewLocked(id)

	return view, view.Alarm != nil
}

// SetEnabled switches an alarm on or off.
func (s *service) SetEnabled(ctx context.Context, id int, enabled bool) (api.View, error) {
	return s.mutate(ctx, "Set enabled requested", id, func() error {
		return s.scheduler.SetEnabled(ctx, id, enabled)
	}, "enabled", enabled)
}

// ChangeTime moves an alarm.
func (s *service) ChangeTime(ctx context.Context, id, hour, minute int) (api.View, error) {
	return s.mutate(ctx, "Change time requested", id, func() error {
		return s.scheduler.ChangeTime(ctx, id, hour, minute)
	}, "hour", hour, "minute", minute)
}

// ChangeWeekDays toggles a weekday.
func (s *service) ChangeWeekDays(ctx context.Context, id int, day time.Weekday) (api.View, error) {
	return s.mutate(ctx, "Change weekdays requested", id, func() error {
		return s.scheduler.ChangeWeekDays(ctx, id, day)
	}, "weekday", day.String())
}

// ToggleRepeating flips the repeating flag.
func (s *service) ToggleRepeating(ctx context.Context, id int) (api.View, error) {
	return s.mutate(ctx, "Toggle repeating requested", id, func() error {
		return s.scheduler.ToggleRepeating(ctx, id)
	})
}

// RemoveAlarm deletes an alarm.
func (s *service) RemoveAlarm(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	audit(ctx, "Remove alarm requested", "id", id)

	err := s.scheduler.Remove(ctx, id)
	s.publishAlarmClockLocked(ctx)

	return err
}

// GetStation returns the station of an alarm.
func (s *service) GetStation(_ context.Context, id int) (*domain.Station, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.scheduler.GetStation(id)
}

// ResetAllAlarms re-registers every enabled alarm.
func (s *service) ResetAllAlarms(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	audit(ctx, "Reset all alarms requested")

	err := s.scheduler.ResetAllAlarms(ctx)
	s.publishAlarmClockLocked(ctx)

	return err
}

// handleFired is the timer callback for the registration of id that expired at deadline.
func (s *service) handleFired(ctx context.Context, id int, deadline time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx = logger.WithKV(ctx, "deadline", deadline.Format(time.DateTime))

	if err := s.scheduler.HandleFired(ctx, id, deadline); err != nil {
		logger.ErrorKV(ctx, "Failed to handle fired alarm", "error", err)
	}

	s.publishAlarmClockLocked(ctx)
}

// reloadIfModified reloads alarms when the backing store was changed by someone else.
func (s *service) reloadIfModified(ctx context.Context, checker modifiedChecker) {
	s.mu.Lock()
	defer s.mu.Unlock()

	modified, err := checker.Modified(ctx)
	if err != nil {
		logger.WarnKV(ctx, "Unable to check preferences", "error", err)

		return
	}

	if !modified {
		return
	}

	logger.Info(ctx, "Preferences changed on disk, reloading alarms")

	if err := s.scheduler.Reload(ctx); err != nil {
		logger.ErrorKV(ctx, "Failed to reload alarms", "error", err)
	}

	s.publishAlarmClockLocked(ctx)
}

func (s *service) mutate(ctx context.Context, message string, id int, op func() error, kvs ...any) (api.View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	audit(ctx, message, append([]any{"id", id}, kvs...)...)

	err := op()
	s.publishAlarmClockLocked(ctx)

	return s.viewLocked(id), err
}

func (s *service) viewLocked(id int) api.View {
	a, ok := s.scheduler.Get(id)
	if !ok {
		return api.View{}
	}

	return api.View{Alarm: a, NextFire: s.nextFireLocked(id)}
}

// nextFireLocked prefers the timer's registration over a recomputation.
func (s *service) nextFireLocked(id int) time.Time {
	if s.registrations != nil {
		at, _ := s.registrations.Deadline(id)

		return at
	}

	at, err := s.scheduler.NextFire(id)
	if err != nil {
		return time.Time{}
	}

	return at
}

// publishAlarmClockLocked reports the earliest user-visible wake-up when it changes.
// The timer only exposes one under the alarm-clock strategy.
func (s *service) publishAlarmClockLocked(ctx context.Context) {
	if s.registrations == nil {
		return
	}

	id, at, ok := s.registrations.NextAlarmClock()
	if !ok {
		at = time.Time{}
	}

	if at.Equal(s.alarmClock) {
		return
	}

	s.alarmClock = at
	metrics.SetNextAlarmClock(at)

	if ok {
		logger.InfoKV(ctx, "Next alarm clock", "id", id, "at", at.Format(time.DateTime))
	} else {
		logger.Info(ctx, "No alarm clock pending")
	}
}

// audit logs a request together with the actor that issued it.
func audit(ctx context.Context, message string, kvs ...any) {
	logger.InfoKV(ctx, message, append(kvs, "actor", common.ActorFromIncoming(ctx).String())...)
}
