package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/radio-alarm/internal/logger"
	"github.com/oshokin/radio-alarm/internal/timer"
)

// Config holds the settings shared by the radio alarm binaries.
type Config struct {
	// ServerAddress is the gRPC address the daemon listens on and the client dials.
	ServerAddress string `yaml:"server_addr" split_words:"true"`
	// Timeout is the duration for RPC calls.
	Timeout time.Duration `yaml:"timeout" split_words:"true"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" split_words:"true"`
	// Storage selects where alarms are persisted.
	Storage StorageConfig `yaml:"storage" split_words:"true"`
	// Timer selects how fire times are registered.
	Timer TimerConfig `yaml:"timer" split_words:"true"`
	// MetricsAddress is the HTTP address of the metrics endpoint. Empty disables it.
	MetricsAddress string `yaml:"metrics_addr,omitempty" split_words:"true"`
	// WatchPreferences reloads alarms when the preferences file is changed by someone else.
	WatchPreferences bool `yaml:"watch_preferences" split_words:"true"`
}

// StorageConfig describes the preferences backend.
type StorageConfig struct {
	// Driver is one of file, sqlite, memory.
	Driver string `yaml:"driver" split_words:"true"`
	// Path is the preferences file or database location.
	Path string `yaml:"path" split_words:"true"`
}

// TimerConfig describes the timer strategy.
type TimerConfig struct {
	// Strategy is the preferred strategy; the daemon falls back to what the host supports.
	Strategy string `yaml:"strategy" split_words:"true"`
}

// Storage drivers.
const (
	// DriverFile keeps preferences in a JSON file.
	DriverFile = "file"
	// DriverSQLite keeps preferences in an SQLite database.
	DriverSQLite = "sqlite"
	// DriverMemory keeps preferences in memory only.
	DriverMemory = "memory"
)

const (
	// DefaultConfigFilename is the default filename for settings.
	DefaultConfigFilename = "radio-alarm-settings.yaml"

	// DefaultServerAddress is used when no address is configured.
	DefaultServerAddress = "127.0.0.1:50051"

	// DefaultPreferencesFilename is the default preferences file of the file driver.
	DefaultPreferencesFilename = "radio-alarm-preferences.json"

	// DefaultDatabaseFilename is the default database of the sqlite driver.
	DefaultDatabaseFilename = "radio-alarm.db"

	// DefaultTimeout is the default duration for RPC calls.
	DefaultTimeout = 5 * time.Second

	// DefaultLogLevel is the default log level.
	DefaultLogLevel = "info"

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600

	// EnvPrefix prefixes every environment override, e.g. RADIO_ALARM_STORAGE_DRIVER.
	EnvPrefix = "RADIO_ALARM"
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errServerSocketRequired is returned when server address is missing.
	errServerSocketRequired = errors.New("server address must be provided")
	// errUnknownDriver is returned for an unsupported storage driver.
	errUnknownDriver = errors.New("unknown storage driver")
	// errUnknownLogLevel is returned for an unsupported log level.
	errUnknownLogLevel = errors.New("unknown log level")
)

// Default returns settings with every default applied.
func Default() *Config {
	cfg := &Config{ServerAddress: DefaultServerAddress}

	// Defaults are always valid.
	_ = Validate(cfg)

	return cfg
}

// Load reads configuration from the provided path, applies environment
// overrides and validates the result. A missing default settings file
// is not an error: defaults are used instead.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultConfigFilename
	}

	cfg := Config{ServerAddress: DefaultServerAddress}

	contents, err := os.ReadFile(filepath.Clean(path))

	switch {
	case err == nil:
		if err := yaml.Unmarshal(contents, &cfg); err != nil {
			return nil, fmt.Errorf("unmarshal settings: %w", err)
		}
	case !explicit && errors.Is(err, fs.ErrNotExist):
		// Defaults plus environment.
	default:
		return nil, fmt.Errorf("read settings: %w", err)
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("environment overrides: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes settings to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings for required fields and formatting
// and fills in defaults for optional ones.
func Validate(settings *Config) error {
	if settings.ServerAddress == "" {
		return errServerSocketRequired
	}

	if _, err := net.ResolveTCPAddr("tcp", settings.ServerAddress); err != nil {
		return fmt.Errorf("invalid server socket: %w", err)
	}

	if settings.MetricsAddress != "" {
		if _, err := net.ResolveTCPAddr("tcp", settings.MetricsAddress); err != nil {
			return fmt.Errorf("invalid metrics address: %w", err)
		}
	}

	// Set default timeout if not specified
	if settings.Timeout <= 0 {
		settings.Timeout = DefaultTimeout
	}

	if settings.LogLevel == "" {
		settings.LogLevel = DefaultLogLevel
	}

	if _, ok := logger.ParseLogLevel(settings.LogLevel); !ok {
		return fmt.Errorf("%w: %q", errUnknownLogLevel, settings.LogLevel)
	}

	if _, err := timer.ParseStrategy(settings.Timer.Strategy); err != nil {
		return err
	}

	return validateStorage(&settings.Storage)
}

func validateStorage(storage *StorageConfig) error {
	if storage.Driver == "" {
		storage.Driver = DriverFile
	}

	switch storage.Driver {
	case DriverFile:
		if storage.Path == "" {
			storage.Path = DefaultPreferencesFilename
		}
	case DriverSQLite:
		if storage.Path == "" {
			storage.Path = DefaultDatabaseFilename
		}
	case DriverMemory:
	default:
		return fmt.Errorf("%w: %q", errUnknownDriver, storage.Driver)
	}

	return nil
}
