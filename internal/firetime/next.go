package firetime

import (
	"errors"
	"time"

	"github.com/oshokin/radio-alarm/internal/domain/alarm"
)

const (
	// Epsilon is the forward guard: a candidate earlier than now+Epsilon counts as already passed.
	Epsilon = time.Second
	// SearchWindow is the maximum number of extra days examined for a repeating alarm.
	SearchWindow = 6
)

// ErrNoMatchingWeekday is returned when a repeating alarm has no selected day
// within the search window, i.e. it has no next fire time.
var ErrNoMatchingWeekday = errors.New("no matching weekday within a week")

// Spec is the part of an alarm the calculator looks at.
type Spec struct {
	Hour      int
	Minute    int
	Repeating bool
	WeekDays  alarm.WeekDays
}

// SpecOf extracts the calculator input from an alarm.
func SpecOf(a *alarm.Alarm) Spec {
	return Spec{
		Hour:      a.Hour,
		Minute:    a.Minute,
		Repeating: a.Repeating,
		WeekDays:  a.WeekDays,
	}
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the local wall clock.
type SystemClock struct{}

// Now returns time.Now in the local location.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// Next returns the first instant at or after now+Epsilon whose wall-clock time
// in now's location is spec.Hour:spec.Minute:00 and, for a repeating spec,
// whose weekday is selected. Weekdays are ignored for non-repeating specs.
func Next(spec Spec, now time.Time) (time.Time, error) {
	if err := alarm.ValidateTime(spec.Hour, spec.Minute); err != nil {
		return time.Time{}, err
	}

	var (
		year, month, day = now.Date()
		at               = func(day int) time.Time {
			return time.Date(year, month, day, spec.Hour, spec.Minute, 0, 0, now.Location())
		}
		candidate = at(day)
	)

	if candidate.Before(now.Add(Epsilon)) {
		day++
		candidate = at(day)
	}

	if !spec.Repeating {
		return candidate, nil
	}

	for step := 0; !spec.WeekDays.Contains(candidate.Weekday()); step++ {
		if step == SearchWindow {
			return time.Time{}, ErrNoMatchingWeekday
		}

		day++
		candidate = at(day)
	}

	return candidate, nil
}
