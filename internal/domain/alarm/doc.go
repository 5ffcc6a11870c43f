// Package alarm contains the core domain types of the radio alarm clock.
//
// It defines Alarm (a station bound to a time of day with an optional weekly
// repeat pattern), Station (the opaque radio station descriptor with a stable
// serialized form) and WeekDays (the duplicate-free weekday set), together with
// validation helpers and Clone methods that avoid leaking internal references.
package alarm
