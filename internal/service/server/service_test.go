package server

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/radio-alarm/internal/config"
	domain "github.com/oshokin/radio-alarm/internal/domain/alarm"
	"github.com/oshokin/radio-alarm/internal/repository/preferences"
	"github.com/oshokin/radio-alarm/internal/service/scheduler"
	"github.com/oshokin/radio-alarm/internal/store"
	"github.com/oshokin/radio-alarm/internal/timer"
)

var errTestStat = errors.New("stat failed")

// staticChecker reports a fixed modification state.
type staticChecker struct {
	// modified is returned by Modified.
	modified bool
	// err is returned by Modified.
	err error
}

// Modified returns the configured answer.
func (c staticChecker) Modified(context.Context) (bool, error) {
	return c.modified, c.err
}

// newTestService builds a service over in-memory preferences and a real local timer.
func newTestService(t *testing.T) (*service, *preferences.MemoryRepository, *timer.Local) {
	t.Helper()

	return newTestServiceWithStrategy(t, timer.StrategyExact)
}

func newTestServiceWithStrategy(t *testing.T, strategy timer.Strategy) (*service, *preferences.MemoryRepository, *timer.Local) {
	t.Helper()

	prefs := preferences.NewMemoryRepository()

	alarmStore, err := store.New(context.Background(), prefs)
	require.NoError(t, err)

	alarmTimer := timer.NewLocal(strategy, nil)
	t.Cleanup(alarmTimer.Stop)

	return newService(scheduler.New(alarmStore, alarmTimer), alarmTimer), prefs, alarmTimer
}

func station() *domain.Station {
	return &domain.Station{Name: "Radio Paradise", URL: "https://stream.radioparadise.com/mp3-192"}
}

// TestService_Views returns alarms together with their registered fire times.
func TestService_Views(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _, alarmTimer := newTestService(t)

	added, err := svc.AddAlarm(ctx, station(), 6, 30)
	require.NoError(t, err)
	require.True(t, added.Alarm.Enabled)

	deadline, ok := alarmTimer.Deadline(added.Alarm.ID)
	require.True(t, ok)
	require.Equal(t, deadline, added.NextFire)

	disabled, err := svc.SetEnabled(ctx, added.Alarm.ID, false)
	require.NoError(t, err)
	require.False(t, disabled.Alarm.Enabled)
	require.True(t, disabled.NextFire.IsZero())

	views := svc.ListAlarms(ctx)
	require.Len(t, views, 1)
	require.Equal(t, "Radio Paradise", views[0].Alarm.Station.Name)

	got, ok := svc.GetStation(ctx, added.Alarm.ID)
	require.True(t, ok)
	require.Equal(t, station(), got)

	require.NoError(t, svc.RemoveAlarm(ctx, added.Alarm.ID))

	_, ok = svc.GetAlarm(ctx, added.Alarm.ID)
	require.False(t, ok)

	// Unknown ids: empty view, no error.
	view, err := svc.ToggleRepeating(ctx, 42)
	require.NoError(t, err)
	require.Nil(t, view.Alarm)
}

// TestService_MutationsReturnUpdatedView covers time and weekday changes.
func TestService_MutationsReturnUpdatedView(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _, _ := newTestService(t)

	added, err := svc.AddAlarm(ctx, station(), 6, 30)
	require.NoError(t, err)

	view, err := svc.ChangeTime(ctx, added.Alarm.ID, 7, 15)
	require.NoError(t, err)
	require.Equal(t, "07:15", view.Alarm.Clock())
	require.Equal(t, 7, view.NextFire.Hour())
	require.Equal(t, 15, view.NextFire.Minute())

	view, err = svc.ToggleRepeating(ctx, added.Alarm.ID)
	require.NoError(t, err)
	require.True(t, view.Alarm.Repeating)
	require.True(t, view.NextFire.IsZero())

	view, err = svc.ChangeWeekDays(ctx, added.Alarm.ID, time.Saturday)
	require.NoError(t, err)
	require.Equal(t, domain.WeekDays{time.Saturday}, view.Alarm.WeekDays)
	require.Equal(t, time.Saturday, view.NextFire.Weekday())

	_, err = svc.ChangeTime(ctx, added.Alarm.ID, 25, 0)
	require.ErrorIs(t, err, domain.ErrInvalidTime)

	require.NoError(t, svc.ResetAllAlarms(ctx))
}

// TestService_HandleFired switches a one-shot alarm off.
func TestService_HandleFired(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _, alarmTimer := newTestService(t)

	added, err := svc.AddAlarm(ctx, station(), 6, 30)
	require.NoError(t, err)

	deadline, ok := alarmTimer.Deadline(added.Alarm.ID)
	require.True(t, ok)

	svc.handleFired(ctx, added.Alarm.ID, deadline)

	view, ok := svc.GetAlarm(ctx, added.Alarm.ID)
	require.True(t, ok)
	require.False(t, view.Alarm.Enabled)

	_, ok = alarmTimer.Deadline(added.Alarm.ID)
	require.False(t, ok)
}

// TestService_ReloadIfModified reloads only foreign changes.
func TestService_ReloadIfModified(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, prefs, alarmTimer := newTestService(t)

	added, err := svc.AddAlarm(ctx, station(), 6, 30)
	require.NoError(t, err)

	// Another process disables the alarm.
	require.NoError(t, prefs.Edit().PutBool(store.Key(added.Alarm.ID, "enabled"), false).Commit(ctx))

	svc.reloadIfModified(ctx, staticChecker{})

	view, _ := svc.GetAlarm(ctx, added.Alarm.ID)
	require.True(t, view.Alarm.Enabled)

	svc.reloadIfModified(ctx, staticChecker{err: errTestStat})

	view, _ = svc.GetAlarm(ctx, added.Alarm.ID)
	require.True(t, view.Alarm.Enabled)

	svc.reloadIfModified(ctx, staticChecker{modified: true})

	view, _ = svc.GetAlarm(ctx, added.Alarm.ID)
	require.False(t, view.Alarm.Enabled)

	_, ok := alarmTimer.Deadline(added.Alarm.ID)
	require.False(t, ok)
}

// TestOpenPreferences selects the backend by driver.
func TestOpenPreferences(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()

	for _, tc := range []struct {
		driver string
		path   string
		want   any
	}{
		{driver: config.DriverFile, path: filepath.Join(dir, "prefs.json"), want: new(preferences.FileRepository)},
		{driver: config.DriverSQLite, path: filepath.Join(dir, "prefs.db"), want: new(preferences.SQLiteRepository)},
		{driver: config.DriverMemory, want: new(preferences.MemoryRepository)},
	} {
		repo, err := openPreferences(ctx, config.StorageConfig{Driver: tc.driver, Path: tc.path})
		require.NoError(t, err)
		require.IsType(t, tc.want, repo)
		require.NoError(t, repo.Close())
	}
}

// TestResolveListenAddress prefers the override and otherwise binds the configured port.
func TestResolveListenAddress(t *testing.T) {
	t.Parallel()

	addr, err := resolveListenAddress("127.0.0.1:50051", "")
	require.NoError(t, err)
	require.Equal(t, ":50051", addr)

	addr, err = resolveListenAddress("127.0.0.1:50051", "127.0.0.1:6000")
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:6000", addr)

	_, err = resolveListenAddress("", "")
	require.ErrorIs(t, err, ErrNoServerAddress)

	_, err = resolveListenAddress("no-port", "")
	require.Error(t, err)
}

// TestSameExecutable tolerates truncated process names.
func TestSameExecutable(t *testing.T) {
	t.Parallel()

	require.True(t, sameExecutable("radio-alarm-server", "radio-alarm-server"))
	require.True(t, sameExecutable("radio-alarm-ser", "radio-alarm-server"))
	require.False(t, sameExecutable("radio-alarm", "radio-alarm-server"))
	require.False(t, sameExecutable("radio-alarm-cli", "radio-alarm"))
}

// TestFindProcess never reports the calling process.
func TestFindProcess(t *testing.T) {
	t.Parallel()

	_, found, err := findProcess("radio-alarm-test-nonexistent", 0)
	require.NoError(t, err)
	require.False(t, found)
}

// TestService_AlarmClock tracks the earliest wake-up under the alarm-clock strategy only.
func TestService_AlarmClock(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	svc, _, alarmTimer := newTestServiceWithStrategy(t, timer.StrategyAlarmClock)

	late, err := svc.AddAlarm(ctx, station(), 23, 59)
	require.NoError(t, err)

	early, err := svc.AddAlarm(ctx, station(), 0, 0)
	require.NoError(t, err)

	_, want, ok := alarmTimer.NextAlarmClock()
	require.True(t, ok)
	require.Equal(t, want, svc.alarmClock)
	require.Contains(t, []time.Time{late.NextFire, early.NextFire}, svc.alarmClock)

	require.NoError(t, svc.RemoveAlarm(ctx, late.Alarm.ID))
	require.NoError(t, svc.RemoveAlarm(ctx, early.Alarm.ID))
	require.True(t, svc.alarmClock.IsZero())

	exact, _, _ := newTestService(t)

	_, err = exact.AddAlarm(ctx, station(), 6, 30)
	require.NoError(t, err)
	require.True(t, exact.alarmClock.IsZero())
}

// TestWatchPreferences_Stop joins the watcher before preferences are closed.
func TestWatchPreferences_Stop(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := preferences.NewFileRepository(filepath.Join(t.TempDir(), "prefs.json"))

	alarmStore, err := store.New(ctx, repo)
	require.NoError(t, err)

	alarmTimer := timer.NewLocal(timer.StrategyExact, nil)
	t.Cleanup(alarmTimer.Stop)

	svc := newService(scheduler.New(alarmStore, alarmTimer), alarmTimer)

	stop, err := watchPreferences(ctx, svc, repo)
	require.NoError(t, err)

	stopped := make(chan struct{})

	go func() {
		stop()
		close(stopped)
	}()

	require.Eventually(t, func() bool {
		select {
		case <-stopped:
			return true
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, repo.Close())

	_, err = watchPreferences(ctx, svc, preferences.NewFileRepository(filepath.Join(t.TempDir(), "absent", "prefs.json")))
	require.Error(t, err)
}
