package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

var (
	ErrConfigFileNotFound    = errors.New("could not find config file in any config path")
	ErrConfigVersionMissing  = errors.New("config file is missing version field")
	ErrConfigVersionMismatch = errors.New("config file version mismatch")
)

// RepositoryVersion is the repository version tag for config file references.
const RepositoryVersion = "v0.4.0"

// Current version of the config file.
const (
	CurrentCommonVersion = 1
	CurrentAPIVersion    = 1
	CurrentWorkerVersion = 1
)

// Config represents the entire application configuration.
type Config struct {
	Common CommonConfig `koanf:"common"`
	API    APIConfig    `koanf:"api"`
	Worker WorkerConfig `koanf:"worker"`
}

// CommonConfig contains configuration shared between the API, worker and CLI.
type CommonConfig struct {
	// Version of the common config.
	Version    int        `koanf:"version"`
	Debug      Debug      `koanf:"debug"`
	Telemetry  Telemetry  `koanf:"telemetry"`
	PostgreSQL PostgreSQL `koanf:"postgresql"`
	Redis      Redis      `koanf:"redis"`
	Reputation Reputation `koanf:"reputation"`
}

// APIConfig contains HTTP API specific configuration.
type APIConfig struct {
	// Version of the api config.
	Version int    `koanf:"version"`
	Server  Server `koanf:"server"`
	Cache   Cache  `koanf:"cache"`
}

// WorkerConfig contains worker specific configuration.
type WorkerConfig struct {
	// Version of the worker config.
	Version int `koanf:"version"`
	// Startup delay in milliseconds.
	StartupDelay int `koanf:"startup_delay"`
	// Leaderboard refresh settings.
	Leaderboard LeaderboardWorker `koanf:"leaderboard"`
}

// Debug contains debug-related configuration.
type Debug struct {
	// Log level (debug, info, warn, error).
	LogLevel string `koanf:"log_level"`
	// Maximum log files to keep.
	MaxLogsToKeep int `koanf:"max_logs_to_keep"`
	// Maximum lines per log file.
	MaxLogLines int `koanf:"max_log_lines"`
}

// Telemetry contains tracing configuration.
type Telemetry struct {
	// Uptrace DSN. Tracing is disabled when empty.
	UptraceDSN string `koanf:"uptrace_dsn"`
	// Service name reported with traces.
	ServiceName string `koanf:"service_name"`
	// Deployment environment reported with traces.
	Environment string `koanf:"environment"`
}

// PostgreSQL contains database connection configuration.
type PostgreSQL struct {
	// Database hostname.
	Host string `koanf:"host"`
	// Database port.
	Port int `koanf:"port"`
	// Database username.
	User string `koanf:"user"`
	// Database password.
	Password string `koanf:"password"`
	// Database name.
	DBName string `koanf:"db_name"`
	// Maximum open connections.
	MaxOpenConns int `koanf:"max_open_conns"`
	// Maximum idle connections.
	MaxIdleConns int `koanf:"max_idle_conns"`
	// Connection lifetime in minutes.
	MaxLifetime int `koanf:"max_lifetime"`
	// Idle timeout in minutes.
	MaxIdleTime int `koanf:"max_idle_time"`
}

// Redis contains Redis connection configuration.
type Redis struct {
	// Redis hostname.
	Host string `koanf:"host"`
	// Redis port.
	Port int `koanf:"port"`
	// Redis username.
	Username string `koanf:"username"`
	// Redis password.
	Password string `koanf:"password"`
}

// Reputation contains reputation and leaderboard tuning.
type Reputation struct {
	// Leaderboard size used when a caller passes no limit.
	DefaultLeaderboardLimit int `koanf:"default_leaderboard_limit"`
	// Largest leaderboard a caller may request.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`
	// Number of history entries shown on a profile.
	HistoryLimit int `koanf:"history_limit"`
	// Users loaded per page by the historical migration.
	MigrationBatchSize int `koanf:"migration_batch_size"`
	// Concurrent per-project counts during the historical migration.
	MigrationConcurrency int `koanf:"migration_concurrency"`
	// Migration lock TTL in seconds.
	MigrationLockTTL int `koanf:"migration_lock_ttl"`
}

// Server contains HTTP server configuration.
type Server struct {
	// Host to listen on.
	Host string `koanf:"host"`
	// Port to listen on.
	Port int `koanf:"port"`
	// Read timeout in seconds.
	ReadTimeout int `koanf:"read_timeout"`
	// Write timeout in seconds.
	WriteTimeout int `koanf:"write_timeout"`
}

// Cache contains response cache configuration.
type Cache struct {
	// Leaderboard cache TTL in seconds. Zero disables caching.
	LeaderboardTTL int `koanf:"leaderboard_ttl"`
}

// LeaderboardWorker contains leaderboard worker configuration.
type LeaderboardWorker struct {
	// Seconds between refreshes.
	Interval int `koanf:"interval"`
	// Number of users ranked on each refresh.
	Limit int `koanf:"limit"`
	// Per-refresh timeout in seconds.
	Timeout int `koanf:"timeout"`
}

// DefaultPaths returns the directories searched for config files, in order.
func DefaultPaths() ([]string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	return []string{
		".openshelf",
		homeDir + "/.openshelf/config",
		"/etc/openshelf/config",
		"/app/config",
		"config",
		".",
	}, nil
}

// LoadConfig loads the configuration from the default search paths and
// returns it with the directory the first file was found in.
func LoadConfig() (*Config, string, error) {
	paths, err := DefaultPaths()
	if err != nil {
		return nil, "", err
	}

	return LoadConfigFrom(paths)
}

// LoadConfigFrom loads common.toml, api.toml and worker.toml, taking each from
// the first of the given paths that contains it.
func LoadConfigFrom(configPaths []string) (*Config, string, error) {
	k := koanf.New(".")

	var usedConfigPath string

	configFiles := []string{"common", "api", "worker"}
	for _, configName := range configFiles {
		configLoaded := false

		for _, path := range configPaths {
			configPath := fmt.Sprintf("%s/%s.toml", path, configName)
			if err := k.Load(file.Provider(configPath), toml.Parser()); err == nil {
				configLoaded = true

				if usedConfigPath == "" {
					usedConfigPath = path
				}

				break
			}
		}

		if !configLoaded {
			return nil, "", fmt.Errorf("%w: %s.toml", ErrConfigFileNotFound, configName)
		}
	}

	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, "", fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := checkConfigVersion("common", config.Common.Version, CurrentCommonVersion); err != nil {
		return nil, "", err
	}

	if err := checkConfigVersion("api", config.API.Version, CurrentAPIVersion); err != nil {
		return nil, "", err
	}

	if err := checkConfigVersion("worker", config.Worker.Version, CurrentWorkerVersion); err != nil {
		return nil, "", err
	}

	return &config, usedConfigPath, nil
}

// checkConfigVersion validates the version of a config file.
func checkConfigVersion(name string, current, expected int) error {
	if current == 0 {
		return fmt.Errorf("%w: %s.toml", ErrConfigVersionMissing, name)
	}

	if current != expected {
		return fmt.Errorf(
			"%w: %s.toml (got: %d, expected: %d)\n"+
				"Please update your config file from: https://github.com/openshelf/reputation/tree/%s/config/%s.toml",
			ErrConfigVersionMismatch,
			name,
			current,
			expected,
			RepositoryVersion,
			name,
		)
	}

	return nil
}
