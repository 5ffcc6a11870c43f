package alarm

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidTime is returned when hour or minute is outside the wall-clock range.
	ErrInvalidTime = errors.New("invalid time of day")
	// ErrInvalidWeekDay is returned for weekday codes outside Sunday..Saturday.
	ErrInvalidWeekDay = errors.New("invalid weekday")
)

// Alarm binds a radio station to a local time of day.
type Alarm struct {
	// ID identifies the alarm to the timer and to every mutating operation.
	ID int
	// Station is the radio station to wake up with. Never nil for a live alarm.
	Station *Station
	// Hour is the local wall-clock hour, 0..23.
	Hour int
	// Minute is the local wall-clock minute, 0..59.
	Minute int
	// Enabled tells whether the alarm currently holds a timer registration.
	Enabled bool
	// Repeating restricts fire days to WeekDays when set.
	Repeating bool
	// WeekDays is the set of days a repeating alarm may fire on.
	WeekDays WeekDays
}

// Clone returns a deep copy of the alarm.
func (a *Alarm) Clone() *Alarm {
	if a == nil {
		return nil
	}

	cloned := *a
	cloned.Station = a.Station.Clone()
	cloned.WeekDays = a.WeekDays.Clone()

	return &cloned
}

// Clock renders the alarm time as HH:MM.
func (a *Alarm) Clock() string {
	return fmt.Sprintf("%02d:%02d", a.Hour, a.Minute)
}

// ValidateTime checks that hour and minute form a valid time of day.
func ValidateTime(hour, minute int) error {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return fmt.Errorf("%w: %d:%d", ErrInvalidTime, hour, minute)
	}

	return nil
}

// ValidateWeekDay checks that day is one of the seven weekday codes.
func ValidateWeekDay(day time.Weekday) error {
	if day < time.Sunday || day > time.Saturday {
		return fmt.Errorf("%w: %d", ErrInvalidWeekDay, day)
	}

	return nil
}
