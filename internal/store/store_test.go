package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/radio-alarm/internal/domain/alarm"
	"github.com/oshokin/radio-alarm/internal/repository/preferences"
)

var errTestDisk = errors.New("disk full")

func testStation(name string) *alarm.Station {
	return &alarm.Station{Name: name, URL: "http://example.com/" + name}
}

func newTestStore(t *testing.T, prefs preferences.Repository) *AlarmStore {
	t.Helper()

	s, err := New(context.Background(), prefs)
	require.NoError(t, err)

	return s
}

// TestAdd_AssignsSmallestFreeID covers allocation and reuse after removal.
func TestAdd_AssignsSmallestFreeID(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t, preferences.NewMemoryRepository())

	id0, err := s.Add(ctx, testStation("a"), 7, 0)
	require.NoError(t, err)
	require.Equal(t, 0, id0)

	id1, err := s.Add(ctx, testStation("b"), 8, 0)
	require.NoError(t, err)
	require.Equal(t, 1, id1)

	removed, err := s.Remove(ctx, 0)
	require.NoError(t, err)
	require.True(t, removed)

	reused, err := s.Add(ctx, testStation("c"), 9, 0)
	require.NoError(t, err)
	require.Equal(t, 0, reused)

	ids := make([]int, 0, s.Len())
	for _, a := range s.List() {
		ids = append(ids, a.ID)
	}

	// Insertion order, not id order.
	require.Equal(t, []int{1, 0}, ids)
}

// TestAdd_Validation rejects missing stations and out-of-range times.
func TestAdd_Validation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t, preferences.NewMemoryRepository())

	_, err := s.Add(ctx, nil, 7, 0)
	require.ErrorIs(t, err, ErrStationRequired)

	_, err = s.Add(ctx, testStation("a"), 24, 0)
	require.ErrorIs(t, err, alarm.ErrInvalidTime)

	require.Zero(t, s.Len())
}

// TestAdd_Defaults checks the initial state of a new alarm.
func TestAdd_Defaults(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, preferences.NewMemoryRepository())

	id, err := s.Add(context.Background(), testStation("a"), 6, 15)
	require.NoError(t, err)

	a, ok := s.Get(id)
	require.True(t, ok)
	require.False(t, a.Enabled)
	require.False(t, a.Repeating)
	require.Empty(t, a.WeekDays)
	require.Equal(t, "a", a.Station.Name)

	_, ok = s.Get(42)
	require.False(t, ok)
}

// TestRemove_Absent is a no-op without error.
func TestRemove_Absent(t *testing.T) {
	t.Parallel()

	prefs := preferences.NewMemoryRepository()
	s := newTestStore(t, prefs)

	removed, err := s.Remove(context.Background(), 5)
	require.NoError(t, err)
	require.False(t, removed)
	require.Zero(t, prefs.Commits())
}

// TestIDsStayUnique runs a mixed add/remove sequence and checks pairwise distinct ids.
func TestIDsStayUnique(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t, preferences.NewMemoryRepository())

	for i := range 20 {
		_, err := s.Add(ctx, testStation("s"), i%24, 0)
		require.NoError(t, err)

		if i%3 == 0 {
			_, err = s.Remove(ctx, i/2)
			require.NoError(t, err)
		}

		seen := make(map[int]bool)
		for _, a := range s.List() {
			require.False(t, seen[a.ID], "duplicate id %d", a.ID)
			seen[a.ID] = true
		}
	}
}

// TestUpdate_PersistenceFailureKeepsMemory ensures a failed write does not reach memory.
func TestUpdate_PersistenceFailureKeepsMemory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	prefs := preferences.NewMemoryRepository()
	s := newTestStore(t, prefs)

	id, err := s.Add(ctx, testStation("a"), 7, 0)
	require.NoError(t, err)

	prefs.FailCommits(errTestDisk)

	_, found, err := s.Update(ctx, id, func(a *alarm.Alarm) { a.Hour = 9 })
	require.True(t, found)
	require.ErrorIs(t, err, errTestDisk)

	a, _ := s.Get(id)
	require.Equal(t, 7, a.Hour)

	_, err = s.Add(ctx, testStation("b"), 8, 0)
	require.ErrorIs(t, err, errTestDisk)
	require.Equal(t, 1, s.Len())

	_, err = s.Remove(ctx, id)
	require.ErrorIs(t, err, errTestDisk)
	require.Equal(t, 1, s.Len())
}

// TestSaveLoad_Roundtrip reloads a collection through every persisted field.
func TestSaveLoad_Roundtrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	prefs := preferences.NewFileRepository(filepath.Join(t.TempDir(), "prefs.json"))
	s := newTestStore(t, prefs)

	_, err := s.Add(ctx, testStation("a"), 6, 30)
	require.NoError(t, err)

	id, err := s.Add(ctx, testStation("b"), 22, 5)
	require.NoError(t, err)

	_, _, err = s.Update(ctx, id, func(a *alarm.Alarm) {
		a.Enabled = true
		a.Repeating = true
		a.WeekDays = alarm.WeekDays{time.Saturday, time.Sunday}
	})
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx))

	reloaded := newTestStore(t, prefs)
	require.Equal(t, s.List(), reloaded.List())
}

// TestLoad_Empty covers both a missing ids key and an empty one.
func TestLoad_Empty(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	prefs := preferences.NewMemoryRepository()

	s := newTestStore(t, prefs)
	require.Zero(t, s.Len())

	require.NoError(t, s.Save(ctx))

	values, err := prefs.Load(ctx)
	require.NoError(t, err)
	require.True(t, values.Contains(KeyIDs))
	require.Empty(t, values.GetString(KeyIDs, "x"))

	require.Zero(t, newTestStore(t, prefs).Len())
}

// TestLoad_DropsCorruptEntries keeps healthy alarms when others cannot be decoded.
func TestLoad_DropsCorruptEntries(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	prefs := preferences.NewMemoryRepository()

	good, err := testStation("good").Encode()
	require.NoError(t, err)

	err = prefs.Edit().
		PutString(KeyIDs, "0,x,1,2,0").
		PutString(Key(0, fieldStation), good).
		PutInt(Key(0, fieldHour), 7).
		PutInt(Key(0, fieldMinute), 45).
		PutBool(Key(0, fieldEnabled), true).
		PutString(Key(0, fieldWeekDays), "[1,2]").
		PutString(Key(1, fieldStation), "{corrupt").
		PutString(Key(2, fieldStation), good).
		PutString(Key(2, fieldWeekDays), "garbage").
		Commit(ctx)
	require.NoError(t, err)

	s := newTestStore(t, prefs)
	list := s.List()
	require.Len(t, list, 2)

	require.Equal(t, 0, list[0].ID)
	require.Equal(t, 7, list[0].Hour)
	require.Equal(t, 45, list[0].Minute)
	require.True(t, list[0].Enabled)
	require.Equal(t, alarm.WeekDays{time.Monday, time.Tuesday}, list[0].WeekDays)

	require.Equal(t, 2, list[1].ID)
	require.Empty(t, list[1].WeekDays)

	_, ok := s.Get(1)
	require.False(t, ok)

	// The next save drops the keys of the corrupt entry.
	require.NoError(t, s.Save(ctx))

	values, err := prefs.Load(ctx)
	require.NoError(t, err)
	require.False(t, values.Contains(Key(1, fieldStation)))
	require.Equal(t, "0,2", values.GetString(KeyIDs, ""))
}

// TestRemove_DeletesKeys makes sure removed alarms leave nothing behind.
func TestRemove_DeletesKeys(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	prefs := preferences.NewMemoryRepository()
	s := newTestStore(t, prefs)

	id, err := s.Add(ctx, testStation("a"), 7, 0)
	require.NoError(t, err)

	_, err = s.Remove(ctx, id)
	require.NoError(t, err)

	values, err := prefs.Load(ctx)
	require.NoError(t, err)
	require.Len(t, values, 1)
	require.Empty(t, values.GetString(KeyIDs, "x"))
}
