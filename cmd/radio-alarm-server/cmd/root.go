package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/radio-alarm/internal/service/server"
	"github.com/oshokin/radio-alarm/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// storagePath overrides the preferences location from the settings.
	storagePath string

	// rootCmd represents the base command for running the daemon.
	rootCmd = &cobra.Command{
		Use:   "radio-alarm-server [listen-address]",
		Short: "Run the radio alarm daemon.",
		Long: `Starts the daemon that owns the radio alarms, keeps them persisted and
wakes up when one of them is due.

Alarms are re-registered on every start. Only the port from server_addr is used for
listening (e.g., :50051) unless a listen address is passed as argument.
Settings are read from radio-alarm-settings.yaml when present and can be overridden
with RADIO_ALARM_* environment variables.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			// Use listen address argument if provided, otherwise rely on config.
			var listenAddress string
			if len(args) > 0 {
				listenAddress = args[0]
			}

			options := &server.Options{
				ConfigPath:    configPath,
				ListenAddress: listenAddress,
				StoragePath:   storagePath,
			}

			return server.Run(ctx, options)
		},
	}
)

// Execute runs the radio-alarm-server CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to configuration file (default radio-alarm-settings.yaml)")
	rootCmd.Flags().
		StringVarP(&storagePath, "storage", "s", "", "preferences file or database, overrides storage.path")
}
