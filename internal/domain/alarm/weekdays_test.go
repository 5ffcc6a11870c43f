package alarm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestWeekDaysToggle verifies membership toggling without mutating the receiver.
func TestWeekDaysToggle(t *testing.T) {
	t.Parallel()

	var days WeekDays

	days = days.Toggle(time.Friday)
	days = days.Toggle(time.Monday)
	require.Equal(t, WeekDays{time.Friday, time.Monday}, days)

	removed := days.Toggle(time.Friday)
	require.Equal(t, WeekDays{time.Monday}, removed)
	require.Equal(t, WeekDays{time.Friday, time.Monday}, days)

	require.True(t, days.Contains(time.Monday))
	require.False(t, removed.Contains(time.Friday))
	require.Equal(t, "Mon,Fri", days.String())
}

// TestWeekDaysEncoding checks the persisted JSON list format.
func TestWeekDaysEncoding(t *testing.T) {
	t.Parallel()

	require.Equal(t, "[]", WeekDays{}.Encode())
	require.Equal(t, "[5,1]", WeekDays{time.Friday, time.Monday}.Encode())

	days, err := DecodeWeekDays("[5,1,5]")
	require.NoError(t, err)
	require.Equal(t, WeekDays{time.Friday, time.Monday}, days)

	days, err = DecodeWeekDays("")
	require.NoError(t, err)
	require.Empty(t, days)

	_, err = DecodeWeekDays("[9]")
	require.ErrorIs(t, err, ErrInvalidWeekDay)

	_, err = DecodeWeekDays("Monday")
	require.Error(t, err)
}
