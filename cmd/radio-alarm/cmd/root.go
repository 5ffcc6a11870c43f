package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/radio-alarm/internal/service/client"
	"github.com/oshokin/radio-alarm/internal/version"
)

var (
	// cfgPath stores the configuration file path.
	cfgPath string
	// serverAddress overrides server_addr from the settings.
	serverAddress string

	// rootCmd represents the base command of the client.
	rootCmd = &cobra.Command{
		Use:   "radio-alarm",
		Short: "Manage radio alarms.",
		Long: `Talks to a running radio-alarm-server to add, list, change and remove alarms.

Each alarm plays a radio station at a time of day, either once or on selected weekdays.
Weekdays are given by name (monday), abbreviation (mon) or code, Sunday being 0.`,
		SilenceUsage: true,
	}
)

// Execute runs the radio-alarm CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// run performs op against the daemon with graceful cancellation.
func run(cmd *cobra.Command, op client.Operation) error {
	// Setup graceful shutdown handling.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	return client.Run(ctx, &client.Options{
		ConfigPath:    cfgPath,
		ServerAddress: serverAddress,
		Output:        cmd.OutOrStdout(),
	}, op)
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.PersistentFlags().
		StringVarP(&cfgPath, "config", "c", "", "path to configuration file (default radio-alarm-settings.yaml)")
	rootCmd.PersistentFlags().
		StringVarP(&serverAddress, "server", "s", "", "daemon address, overrides server_addr")
}
