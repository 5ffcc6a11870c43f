// Package scheduler keeps timer registrations consistent with the alarm
// collection.
//
// Every public operation follows the same order: mutate and persist through
// the store, cancel or register with the timer, then notify the observer once.
// Operations on unknown ids are silent no-ops. The scheduler does no locking;
// the host serializes calls into it.
package scheduler
