// Package firetime computes the next absolute instant an alarm should fire.
//
// The computation is pure: callers read the clock once and pass "now" in, so
// a single computation never observes time moving. Day steps use calendar
// arithmetic in the location of "now", which keeps the wall-clock time intact
// across daylight saving transitions.
package firetime
