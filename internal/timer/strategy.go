package timer

import (
	"fmt"
	"strings"
)

// Strategy names a way of registering a wake-up with the host.
type Strategy string

// Strategies from most to least precise.
const (
	// StrategyExactIdle fires exactly, even while the host is idle.
	StrategyExactIdle Strategy = "exact-idle"
	// StrategyAlarmClock fires exactly and exposes the next wake-up as a user-visible alarm clock.
	StrategyAlarmClock Strategy = "alarm-clock"
	// StrategyExact fires exactly.
	StrategyExact Strategy = "exact"
	// StrategyInexact may be batched by the host; deadlines are rounded up to the next minute.
	StrategyInexact Strategy = "inexact"
)

// ladder is the fallback order used by Negotiate.
//
//nolint:gochecknoglobals // Read-only fallback table.
var ladder = []Strategy{StrategyExactIdle, StrategyAlarmClock, StrategyExact, StrategyInexact}

// Capabilities describes what the host timer supports. Inexact is always available.
type Capabilities struct {
	ExactIdle  bool
	AlarmClock bool
	Exact      bool
}

// supports reports whether the host can honour strategy.
func (c Capabilities) supports(strategy Strategy) bool {
	switch strategy {
	case StrategyExactIdle:
		return c.ExactIdle
	case StrategyAlarmClock:
		return c.AlarmClock
	case StrategyExact:
		return c.Exact
	default:
		return true
	}
}

// HostCapabilities returns what the in-process timer can do.
// It cannot keep a suspended machine awake, so exact-idle is unavailable.
func HostCapabilities() Capabilities {
	return Capabilities{
		AlarmClock: true,
		Exact:      true,
	}
}

// ParseStrategy validates a configured strategy name. Empty selects the best available.
func ParseStrategy(s string) (Strategy, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return StrategyExactIdle, nil
	}

	for _, strategy := range ladder {
		if string(strategy) == s {
			return strategy, nil
		}
	}

	return "", fmt.Errorf("unknown timer strategy %q", s)
}

// Negotiate returns preferred when the host supports it, otherwise the next
// less precise strategy it does support.
func Negotiate(preferred Strategy, caps Capabilities) Strategy {
	start := 0

	for i, strategy := range ladder {
		if strategy == preferred {
			start = i

			break
		}
	}

	for _, strategy := range ladder[start:] {
		if caps.supports(strategy) {
			return strategy
		}
	}

	return StrategyInexact
}
