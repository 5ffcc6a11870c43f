// Package timer provides the wake-up primitive the alarm scheduler registers
// fire times with.
//
// The scheduler depends only on the narrow Timer interface. Which registration
// strategy backs it is negotiated once at startup from the host capabilities,
// so no version or platform checks leak into the scheduling logic.
package timer
