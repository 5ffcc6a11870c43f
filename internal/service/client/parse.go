package client

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/oshokin/radio-alarm/internal/domain/alarm"
)

var (
	// errInvalidClock is returned for times not in HH:MM form.
	errInvalidClock = errors.New("time must look like HH:MM")
	// errInvalidID is returned for alarm ids that are not non-negative integers.
	errInvalidID = errors.New("alarm id must be a non-negative integer")
)

// ParseClock parses "HH:MM" into hour and minute.
func ParseClock(s string) (int, int, error) {
	hourPart, minutePart, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", errInvalidClock, s)
	}

	hour, err := strconv.Atoi(hourPart)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", errInvalidClock, s)
	}

	minute, err := strconv.Atoi(minutePart)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", errInvalidClock, s)
	}

	if err := alarm.ValidateTime(hour, minute); err != nil {
		return 0, 0, err
	}

	return hour, minute, nil
}

// ParseWeekDay accepts a weekday name ("monday"), its abbreviation ("mon")
// or its code, Sunday being 0.
func ParseWeekDay(s string) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))

	if code, err := strconv.Atoi(s); err == nil {
		day := time.Weekday(code)

		return day, alarm.ValidateWeekDay(day)
	}

	for day := time.Sunday; day <= time.Saturday; day++ {
		name := strings.ToLower(day.String())
		if s == name || (len(s) == 3 && strings.HasPrefix(name, s)) {
			return day, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", alarm.ErrInvalidWeekDay, s)
}

// ParseID parses an alarm id.
func ParseID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || id < 0 {
		return 0, fmt.Errorf("%w: %q", errInvalidID, s)
	}

	return id, nil
}
