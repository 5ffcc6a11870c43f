package client

import (
	"context"
	"io"
	"os"

	"github.com/oshokin/radio-alarm/internal/config"
	"github.com/oshokin/radio-alarm/internal/logger"
	"github.com/oshokin/radio-alarm/internal/service/common"
)

// Options configures the client.
type Options struct {
	// ConfigPath to YAML settings file, defaults to standard filename if empty.
	ConfigPath string

	// ServerAddress overrides server address from config when specified.
	ServerAddress string

	// Output receives the rendered result; defaults to stdout.
	Output io.Writer
}

// Operation is one request to the daemon together with its rendering.
type Operation func(ctx context.Context, c *common.Client, out io.Writer) error

// Run connects to the daemon and performs op.
func Run(ctx context.Context, opts *Options, op Operation) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "radio-alarm")

	// Load settings from configuration file.
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	// Use server address from options if provided, otherwise use config.
	serverAddress := cfg.ServerAddress
	if opts.ServerAddress != "" {
		serverAddress = opts.ServerAddress
	}

	clientOptions := []common.Option{common.WithCallTimeout(cfg.Timeout)}

	// Identify current user and hostname for audit logging.
	if actor, err := common.DetectActor(); err == nil {
		clientOptions = append(clientOptions, common.WithActor(actor))
	} else {
		logger.WarnKV(ctx, "Unable to detect actor", "error", err)
	}

	client, err := common.Dial(ctx, serverAddress, clientOptions...)
	if err != nil {
		return err
	}

	// Close connection on function exit.
	defer func() {
		_ = client.Close()
	}()

	logger.DebugKV(ctx, "Connected to radio alarm server", "server_address", serverAddress)

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	return op(ctx, client, out)
}
