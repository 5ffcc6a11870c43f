package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"google.golang.org/grpc"

	api "github.com/oshokin/radio-alarm/internal/api/grpc/alarm"
	"github.com/oshokin/radio-alarm/internal/config"
	"github.com/oshokin/radio-alarm/internal/logger"
	"github.com/oshokin/radio-alarm/internal/metrics"
	"github.com/oshokin/radio-alarm/internal/repository/preferences"
	"github.com/oshokin/radio-alarm/internal/service/scheduler"
	"github.com/oshokin/radio-alarm/internal/store"
	"github.com/oshokin/radio-alarm/internal/timer"
	"github.com/oshokin/radio-alarm/internal/version"
	"github.com/oshokin/radio-alarm/internal/watcher"
)

// Options controls the radio-alarm-server process and configuration.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// ListenAddress provides an optional listen address override for the gRPC server.
	ListenAddress string
	// StoragePath overrides the preferences file or database from the settings.
	StoragePath string
	// SkipInstanceCheck allows several daemons on one host, e.g. in tests.
	SkipInstanceCheck bool
}

// ErrNoServerAddress indicates missing server configuration.
var ErrNoServerAddress = errors.New("no server address configured")

// shutdownTimeout bounds the graceful shutdown of the metrics endpoint.
const shutdownTimeout = 5 * time.Second

// Run starts the daemon and blocks until context is canceled or the gRPC server stops.
//
//nolint:cyclop,funlen // Startup wires every component in order.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "radio-alarm-server")

	// Load configuration first to get server settings.
	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if level, ok := logger.ParseLogLevel(settings.LogLevel); ok {
		logger.SetLevel(level)
	}

	if opts.StoragePath != "" {
		settings.Storage.Path = opts.StoragePath
	}

	if !opts.SkipInstanceCheck {
		if err := checkSingleInstance(); err != nil {
			return err
		}
	}

	// Determine listen address: CLI argument overrides config port extraction.
	listenAddress, err := resolveListenAddress(settings.ServerAddress, opts.ListenAddress)
	if err != nil {
		return fmt.Errorf("resolve listen address: %w", err)
	}

	prefs, err := openPreferences(ctx, settings.Storage)
	if err != nil {
		return err
	}

	defer func() {
		if err := prefs.Close(); err != nil {
			logger.WarnKV(ctx, "Failed to close preferences", "error", err)
		}
	}()

	strategy := negotiateStrategy(ctx, settings.Timer.Strategy)

	// The fire callback needs the service, which needs the timer.
	var svc *service

	alarmTimer := timer.NewLocal(strategy, func(id int, deadline time.Time) {
		svc.handleFired(ctx, id, deadline)
	})
	defer alarmTimer.Stop()

	alarmStore, err := store.New(ctx, prefs)
	if err != nil {
		return fmt.Errorf("load alarms: %w", err)
	}

	notifier := scheduler.NewNotifier()
	notifier.Subscribe(scheduler.ObserverFunc(func() {
		logger.Debug(ctx, "Alarm collection changed")
	}))

	svc = newService(scheduler.New(alarmStore, alarmTimer, scheduler.WithObserver(notifier)), alarmTimer)

	metrics.Init()

	if settings.MetricsAddress != "" {
		stopMetrics, err := serveMetrics(ctx, settings.MetricsAddress)
		if err != nil {
			return err
		}

		defer stopMetrics()
	}

	// Registrations do not survive a restart.
	if err := svc.ResetAllAlarms(ctx); err != nil {
		logger.WarnKV(ctx, "Some alarms could not be registered", "error", err)
	}

	if fileRepo, ok := prefs.(*preferences.FileRepository); ok && settings.WatchPreferences {
		stopWatching, err := watchPreferences(ctx, svc, fileRepo)
		if err != nil {
			return err
		}

		// Runs before the timer and the preferences are released.
		defer stopWatching()
	}

	// Setup TCP listener for gRPC server.
	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", listenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", listenAddress, err)
	}

	// Create and configure gRPC server with alarm service.
	grpcServer := grpc.NewServer()
	api.RegisterAlarmServiceServer(grpcServer, api.NewServer(svc))

	logger.InfoKV(ctx, "Radio alarm server listening",
		"listen_address", listenAddress,
		"storage", settings.Storage.Driver,
		"storage_path", settings.Storage.Path,
		"timer_strategy", string(alarmTimer.Strategy()),
		"version", version.Short(),
	)

	// Done channel is closed after GracefulStop finishes to ensure we block
	// until the server fully stops before returning.
	done := make(chan struct{})

	go func() {
		<-ctx.Done()
		logger.Info(ctx, "Shutting down gRPC server")
		grpcServer.GracefulStop()
		close(done)
	}()

	if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve gRPC: %w", err)
	}

	<-done
	logger.Info(ctx, "GRPC server stopped")

	return nil
}

// openPreferences opens the configured backend.
func openPreferences(ctx context.Context, storage config.StorageConfig) (preferences.Repository, error) {
	switch storage.Driver {
	case config.DriverSQLite:
		repo, err := preferences.OpenSQLite(ctx, storage.Path)
		if err != nil {
			return nil, fmt.Errorf("open preferences database: %w", err)
		}

		return repo, nil
	case config.DriverMemory:
		logger.Warn(ctx, "Using in-memory preferences, alarms will not survive a restart")

		return preferences.NewMemoryRepository(), nil
	default:
		return preferences.NewFileRepository(storage.Path), nil
	}
}

// negotiateStrategy picks the best timer strategy the host supports.
func negotiateStrategy(ctx context.Context, configured string) timer.Strategy {
	// Validated with the settings.
	preferred, _ := timer.ParseStrategy(configured)

	strategy := timer.Negotiate(preferred, timer.HostCapabilities())
	if strategy != preferred {
		logger.WarnKV(ctx, "Timer strategy not supported, falling back",
			"preferred", string(preferred),
			"negotiated", string(strategy),
		)
	}

	return strategy
}

// watchPreferences reloads alarms when another process edits the preferences file.
// The returned function stops the watcher and waits for a reload in progress.
func watchPreferences(ctx context.Context, svc *service, repo *preferences.FileRepository) (func(), error) {
	w, err := watcher.New(repo.Path())
	if err != nil {
		return nil, fmt.Errorf("watch preferences: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)

		ctx := logger.WithName(ctx, "watcher")

		if err := w.Run(ctx, func(ctx context.Context) {
			svc.reloadIfModified(ctx, repo)
		}); err != nil {
			logger.ErrorKV(ctx, "Preferences watcher stopped", "error", err)
		}
	}()

	return func() {
		cancel()
		<-done
	}, nil
}

// serveMetrics exposes Prometheus metrics and a health check on address.
func serveMetrics(ctx context.Context, address string) (func(), error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", address, err)
	}

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: shutdownTimeout,
	}

	go func() {
		if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorKV(ctx, "Metrics server failed", "error", err)
		}
	}()

	logger.InfoKV(ctx, "Metrics endpoint listening", "address", address)

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	}, nil
}

// resolveListenAddress determines the listen address for the gRPC server.
// If override is provided, uses it directly. Otherwise extracts port from configAddr.
// Returns appropriate listen address (e.g., ":8080" for port-only binding).
func resolveListenAddress(configAddr, override string) (string, error) {
	// Use override address if provided (e.g., ":9090", "0.0.0.0:8080").
	if override != "" {
		return override, nil
	}

	// Extract port from config address (e.g., "server.example.com:8080" -> ":8080").
	if configAddr == "" {
		return "", ErrNoServerAddress
	}

	// Parse the address to extract port.
	_, port, err := net.SplitHostPort(configAddr)
	if err != nil {
		return "", fmt.Errorf("invalid server address format %q: %w", configAddr, err)
	}

	// Return port-only listen address to bind on all interfaces.
	return ":" + port, nil
}
