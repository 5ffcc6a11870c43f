package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/oshokin/radio-alarm/internal/domain/alarm"
	"github.com/oshokin/radio-alarm/internal/logger"
	"github.com/oshokin/radio-alarm/internal/repository/preferences"
)

// ErrStationRequired is returned when an alarm is added without a station.
var ErrStationRequired = errors.New("station is required")

// AlarmStore is the authoritative alarm collection.
type AlarmStore struct {
	// prefs is the durable backing store.
	prefs preferences.Repository
	// alarms holds the live collection in insertion order.
	alarms []*alarm.Alarm
	// persistedIDs lists ids whose keys are currently in prefs, so stale keys get removed.
	persistedIDs []int
}

// New creates a store backed by prefs and performs the initial Load.
func New(ctx context.Context, prefs preferences.Repository) (*AlarmStore, error) {
	s := &AlarmStore{
		prefs: prefs,
	}

	if err := s.Load(ctx); err != nil {
		return nil, err
	}

	return s, nil
}

// Add appends a disabled, non-repeating alarm with the smallest free id and persists it.
func (s *AlarmStore) Add(ctx context.Context, station *alarm.Station, hour, minute int) (int, error) {
	if station == nil {
		return -1, ErrStationRequired
	}

	if err := alarm.ValidateTime(hour, minute); err != nil {
		return -1, err
	}

	created := &alarm.Alarm{
		ID:       s.FreeID(),
		Station:  station.Clone(),
		Hour:     hour,
		Minute:   minute,
		WeekDays: alarm.WeekDays{},
	}

	if err := s.commit(ctx, append(slices.Clone(s.alarms), created)); err != nil {
		return -1, err
	}

	logger.InfoKV(ctx, "Alarm added", "id", created.ID, "station", station.Name, "time", created.Clock())

	return created.ID, nil
}

// Remove deletes the alarm with the given id. It reports false when there was none.
func (s *AlarmStore) Remove(ctx context.Context, id int) (bool, error) {
	i := s.indexOf(id)
	if i < 0 {
		return false, nil
	}

	if err := s.commit(ctx, slices.Delete(slices.Clone(s.alarms), i, i+1)); err != nil {
		return false, err
	}

	logger.InfoKV(ctx, "Alarm removed", "id", id)

	return true, nil
}

// Update applies mutate to a copy of the alarm, persists the result and only then
// replaces the live alarm. It reports false when the id is unknown.
func (s *AlarmStore) Update(ctx context.Context, id int, mutate func(*alarm.Alarm)) (*alarm.Alarm, bool, error) {
	i := s.indexOf(id)
	if i < 0 {
		return nil, false, nil
	}

	updated := s.alarms[i].Clone()
	mutate(updated)
	updated.ID = id

	candidate := slices.Clone(s.alarms)
	candidate[i] = updated

	if err := s.commit(ctx, candidate); err != nil {
		return nil, true, err
	}

	return updated.Clone(), true, nil
}

// Get returns a copy of the alarm with the given id.
func (s *AlarmStore) Get(id int) (*alarm.Alarm, bool) {
	i := s.indexOf(id)
	if i < 0 {
		return nil, false
	}

	return s.alarms[i].Clone(), true
}

// List returns copies of all alarms in insertion order.
func (s *AlarmStore) List() []*alarm.Alarm {
	result := make([]*alarm.Alarm, 0, len(s.alarms))
	for _, a := range s.alarms {
		result = append(result, a.Clone())
	}

	return result
}

// Len returns the number of alarms.
func (s *AlarmStore) Len() int {
	return len(s.alarms)
}

// FreeID returns the smallest non-negative id not in use.
func (s *AlarmStore) FreeID() int {
	id := 0
	for s.indexOf(id) >= 0 {
		id++
	}

	return id
}

// Save writes the full collection.
func (s *AlarmStore) Save(ctx context.Context) error {
	return s.commit(ctx, s.alarms)
}

// Load replaces the in-memory collection with the persisted one.
// Entries whose id token or station blob cannot be decoded are dropped and logged.
func (s *AlarmStore) Load(ctx context.Context) error {
	values, err := s.prefs.Load(ctx)
	if err != nil {
		return fmt.Errorf("load preferences: %w", err)
	}

	s.alarms = nil
	s.persistedIDs = nil

	ids := values.GetString(KeyIDs, "")
	if ids == "" {
		logger.Debug(ctx, "No persisted alarms")

		return nil
	}

	for _, token := range strings.Split(ids, ",") {
		id, err := strconv.Atoi(strings.TrimSpace(token))
		if err != nil || id < 0 {
			logger.WarnKV(ctx, "Dropping alarm with undecodable id", "id", token)

			continue
		}

		if slices.Contains(s.persistedIDs, id) {
			logger.WarnKV(ctx, "Dropping duplicate alarm id", "id", id)

			continue
		}

		s.persistedIDs = append(s.persistedIDs, id)

		loaded, err := decodeAlarm(ctx, values, id)
		if err != nil {
			logger.WarnKV(ctx, "Dropping alarm that could not be decoded", "id", id, "error", err)

			continue
		}

		s.alarms = append(s.alarms, loaded)
	}

	logger.DebugKV(ctx, "Alarms loaded", "count", len(s.alarms))

	return nil
}

// commit persists candidate as the whole collection and then adopts it.
func (s *AlarmStore) commit(ctx context.Context, candidate []*alarm.Alarm) error {
	editor := s.prefs.Edit()

	ids := make([]int, 0, len(candidate))
	for _, a := range candidate {
		ids = append(ids, a.ID)
	}

	for _, stale := range s.persistedIDs {
		if slices.Contains(ids, stale) {
			continue
		}

		for _, field := range alarmFields {
			editor.Remove(Key(stale, field))
		}
	}

	for _, a := range candidate {
		blob, err := a.Station.Encode()
		if err != nil {
			return fmt.Errorf("alarm %d: %w", a.ID, err)
		}

		editor.
			PutString(Key(a.ID, fieldStation), blob).
			PutInt(Key(a.ID, fieldHour), a.Hour).
			PutInt(Key(a.ID, fieldMinute), a.Minute).
			PutBool(Key(a.ID, fieldEnabled), a.Enabled).
			PutBool(Key(a.ID, fieldRepeating), a.Repeating).
			PutString(Key(a.ID, fieldWeekDays), a.WeekDays.Encode())
	}

	editor.PutString(KeyIDs, joinIDs(ids))

	if err := editor.Commit(ctx); err != nil {
		return fmt.Errorf("save alarms: %w", err)
	}

	s.alarms = candidate
	s.persistedIDs = ids

	return nil
}

// decodeAlarm reads the keys of one alarm.
// A corrupt weekday list is not fatal: the alarm keeps an empty set.
func decodeAlarm(ctx context.Context, values preferences.Values, id int) (*alarm.Alarm, error) {
	station, err := alarm.DecodeStation(values.GetString(Key(id, fieldStation), ""))
	if err != nil {
		return nil, err
	}

	weekDays, err := alarm.DecodeWeekDays(values.GetString(Key(id, fieldWeekDays), ""))
	if err != nil {
		logger.WarnKV(ctx, "Resetting undecodable weekdays", "id", id, "error", err)

		weekDays = alarm.WeekDays{}
	}

	return &alarm.Alarm{
		ID:        id,
		Station:   station,
		Hour:      values.GetInt(Key(id, fieldHour), 0),
		Minute:    values.GetInt(Key(id, fieldMinute), 0),
		Enabled:   values.GetBool(Key(id, fieldEnabled), false),
		Repeating: values.GetBool(Key(id, fieldRepeating), false),
		WeekDays:  weekDays,
	}, nil
}

func (s *AlarmStore) indexOf(id int) int {
	return slices.IndexFunc(s.alarms, func(a *alarm.Alarm) bool { return a.ID == id })
}
