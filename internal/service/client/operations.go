package client

import (
	"context"
	"fmt"
	"io"
	"time"

	api "github.com/oshokin/radio-alarm/internal/api/grpc/alarm"
	"github.com/oshokin/radio-alarm/internal/domain/alarm"
	"github.com/oshokin/radio-alarm/internal/service/common"
)

// Add creates an alarm for station at hour:minute.
func Add(station *alarm.Station, hour, minute int) Operation {
	return func(ctx context.Context, c *common.Client, out io.Writer) error {
		view, err := c.AddAlarm(ctx, station, hour, minute)
		if err != nil {
			return err
		}

		return printViews(out, view)
	}
}

// List prints every alarm.
func List() Operation {
	return func(ctx context.Context, c *common.Client, out io.Writer) error {
		views, err := c.ListAlarms(ctx)
		if err != nil {
			return err
		}

		if len(views) == 0 {
			return printStatus(out, "No alarms.")
		}

		return printViews(out, views...)
	}
}

// Show prints one alarm.
func Show(id int) Operation {
	return func(ctx context.Context, c *common.Client, out io.Writer) error {
		view, err := c.GetAlarm(ctx, id)
		if err != nil {
			return err
		}

		return printViews(out, view)
	}
}

// SetEnabled switches an alarm on or off.
func SetEnabled(id int, enabled bool) Operation {
	return updated(id, func(ctx context.Context, c *common.Client) (api.View, bool, error) {
		return c.SetEnabled(ctx, id, enabled)
	})
}

// ChangeTime moves an alarm to hour:minute.
func ChangeTime(id, hour, minute int) Operation {
	return updated(id, func(ctx context.Context, c *common.Client) (api.View, bool, error) {
		return c.ChangeTime(ctx, id, hour, minute)
	})
}

// ToggleWeekDay toggles day of a repeating alarm.
func ToggleWeekDay(id int, day time.Weekday) Operation {
	return updated(id, func(ctx context.Context, c *common.Client) (api.View, bool, error) {
		return c.ChangeWeekDays(ctx, id, day)
	})
}

// ToggleRepeating flips the repeating flag of an alarm.
func ToggleRepeating(id int) Operation {
	return updated(id, func(ctx context.Context, c *common.Client) (api.View, bool, error) {
		return c.ToggleRepeating(ctx, id)
	})
}

// Remove deletes an alarm.
func Remove(id int) Operation {
	return func(ctx context.Context, c *common.Client, out io.Writer) error {
		if err := c.RemoveAlarm(ctx, id); err != nil {
			return err
		}

		return printStatus(out, fmt.Sprintf("Alarm %d removed.", id))
	}
}

// Station prints the station of an alarm.
func Station(id int) Operation {
	return func(ctx context.Context, c *common.Client, out io.Writer) error {
		station, err := c.GetStation(ctx, id)
		if err != nil {
			return err
		}

		return printStation(out, station)
	}
}

// Reset asks the daemon to re-register every enabled alarm.
func Reset() Operation {
	return func(ctx context.Context, c *common.Client, out io.Writer) error {
		if err := c.ResetAllAlarms(ctx); err != nil {
			return err
		}

		return printStatus(out, "All enabled alarms re-registered.")
	}
}

// updated runs a mutation and prints the resulting alarm.
func updated(id int, call func(context.Context, *common.Client) (api.View, bool, error)) Operation {
	return func(ctx context.Context, c *common.Client, out io.Writer) error {
		view, found, err := call(ctx, c)
		if err != nil {
			return err
		}

		if !found {
			return printStatus(out, fmt.Sprintf("No alarm with id %d.", id))
		}

		return printViews(out, view)
	}
}
