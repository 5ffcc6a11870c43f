package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/radio-alarm/internal/domain/alarm"
	"github.com/oshokin/radio-alarm/internal/service/client"
)

// station collects the flags of the add command.
//
//nolint:gochecknoglobals // Bound to Cobra flags.
var station alarm.Station

// idCommand builds a command taking a single alarm id.
func idCommand(use, short string, op func(id int) client.Operation) *cobra.Command {
	return &cobra.Command{
		Use:   use + " ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := client.ParseID(args[0])
			if err != nil {
				return err
			}

			return run(cmd, op(id))
		},
	}
}

func newAddCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add HH:MM",
		Short: "Add an alarm and enable it.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hour, minute, err := client.ParseClock(args[0])
			if err != nil {
				return err
			}

			return run(cmd, client.Add(station.Clone(), hour, minute))
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&station.Name, "name", "", "station name")
	flags.StringVar(&station.URL, "url", "", "stream URL")
	flags.StringVar(&station.UUID, "uuid", "", "station UUID in the radio directory")
	flags.StringVar(&station.Homepage, "homepage", "", "station homepage")
	flags.StringVar(&station.Favicon, "favicon", "", "station icon URL")
	flags.StringVar(&station.Country, "country", "", "station country")
	flags.StringVar(&station.Tags, "tags", "", "comma-separated tags")
	flags.IntVar(&station.Bitrate, "bitrate", 0, "stream bitrate in kbps")

	if err := cmd.MarkFlagRequired("name"); err != nil {
		panic(err)
	}

	return cmd
}

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List alarms.",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, client.List())
		},
	}
}

func newTimeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "time ID HH:MM",
		Short: "Change the time of an alarm.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := client.ParseID(args[0])
			if err != nil {
				return err
			}

			hour, minute, err := client.ParseClock(args[1])
			if err != nil {
				return err
			}

			return run(cmd, client.ChangeTime(id, hour, minute))
		},
	}
}

func newWeekDayCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "weekday ID DAY",
		Short: "Toggle a weekday of a repeating alarm.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := client.ParseID(args[0])
			if err != nil {
				return err
			}

			day, err := client.ParseWeekDay(args[1])
			if err != nil {
				return err
			}

			return run(cmd, client.ToggleWeekDay(id, day))
		},
	}
}

func newResetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Re-register every enabled alarm with the daemon's timer.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, client.Reset())
		},
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.AddCommand(
		newAddCommand(),
		newListCommand(),
		idCommand("show", "Show one alarm.", client.Show),
		idCommand("enable", "Enable an alarm.", func(id int) client.Operation {
			return client.SetEnabled(id, true)
		}),
		idCommand("disable", "Disable an alarm.", func(id int) client.Operation {
			return client.SetEnabled(id, false)
		}),
		newTimeCommand(),
		newWeekDayCommand(),
		idCommand("repeat", "Toggle whether an alarm repeats weekly.", client.ToggleRepeating),
		idCommand("remove", "Remove an alarm.", client.Remove),
		idCommand("station", "Show the station of an alarm.", client.Station),
		newResetCommand(),
	)
}
