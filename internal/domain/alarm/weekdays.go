package alarm

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"
)

// WeekDays is a duplicate-free set of weekdays.
// Codes follow time.Weekday: 0 is Sunday, 6 is Saturday.
type WeekDays []time.Weekday

// Contains reports whether day is in the set.
func (w WeekDays) Contains(day time.Weekday) bool {
	return slices.Contains(w, day)
}

// Toggle adds day when absent and removes it when present.
func (w WeekDays) Toggle(day time.Weekday) WeekDays {
	if i := slices.Index(w, day); i >= 0 {
		return slices.Delete(w.Clone(), i, i+1)
	}

	return append(w.Clone(), day)
}

// Clone returns a copy that never shares the backing array.
func (w WeekDays) Clone() WeekDays {
	if w == nil {
		return WeekDays{}
	}

	return slices.Clone(w)
}

// Sorted returns the days in Sunday-first order.
func (w WeekDays) Sorted() WeekDays {
	sorted := w.Clone()
	slices.Sort(sorted)

	return sorted
}

// String renders the set as short day names, e.g. "Mon,Fri".
func (w WeekDays) String() string {
	names := make([]string, 0, len(w))
	for _, day := range w.Sorted() {
		names = append(names, day.String()[:3])
	}

	return strings.Join(names, ",")
}

// Encode serializes the set as a JSON list of integer codes, e.g. "[1,5]".
func (w WeekDays) Encode() string {
	codes := make([]int, 0, len(w))
	for _, day := range w {
		codes = append(codes, int(day))
	}

	//nolint:errchkjson // A slice of ints always marshals.
	data, _ := json.Marshal(codes)

	return string(data)
}

// DecodeWeekDays parses the output of Encode.
// An empty string yields an empty set and duplicates are dropped.
func DecodeWeekDays(s string) (WeekDays, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "null" {
		return WeekDays{}, nil
	}

	var codes []int
	if err := json.Unmarshal([]byte(s), &codes); err != nil {
		return nil, fmt.Errorf("decode weekdays: %w", err)
	}

	days := make(WeekDays, 0, len(codes))
	for _, code := range codes {
		day := time.Weekday(code)
		if err := ValidateWeekDay(day); err != nil {
			return nil, err
		}

		if !days.Contains(day) {
			days = append(days, day)
		}
	}

	return days, nil
}
