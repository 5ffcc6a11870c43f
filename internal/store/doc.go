// Package store owns the in-memory alarm collection.
//
// AlarmStore allocates ids, keeps alarms in insertion order and round-trips the
// whole collection through a preferences.Repository using a flat key scheme:
//
//	alarm.ids                comma-joined ids
//	alarm.<id>.station       station blob
//	alarm.<id>.timeHour      hour
//	alarm.<id>.timeMinutes   minute
//	alarm.<id>.enabled       enabled flag
//	alarm.<id>.repeating     repeating flag
//	alarm.<id>.weekDays      JSON list of weekday codes
//
// Every mutation writes the full key set in one commit and only then updates
// memory, so a failed write leaves the collection untouched. The store does no
// locking: callers serialize access.
package store
