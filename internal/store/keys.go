package store

import (
	"strconv"
	"strings"
)

// KeyIDs is the master key listing every persisted alarm id.
const KeyIDs = "alarm.ids"

// Per-alarm field suffixes.
const (
	fieldStation   = "station"
	fieldHour      = "timeHour"
	fieldMinute    = "timeMinutes"
	fieldEnabled   = "enabled"
	fieldRepeating = "repeating"
	fieldWeekDays  = "weekDays"
)

// alarmFields lists every per-alarm suffix.
//
//nolint:gochecknoglobals // Read-only lookup table.
var alarmFields = []string{fieldStation, fieldHour, fieldMinute, fieldEnabled, fieldRepeating, fieldWeekDays}

// Key returns the preference key of field for alarm id, e.g. "alarm.3.timeHour".
func Key(id int, field string) string {
	return "alarm." + strconv.Itoa(id) + "." + field
}

// joinIDs renders ids as the alarm.ids value.
func joinIDs(ids []int) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.Itoa(id))
	}

	return strings.Join(parts, ",")
}
