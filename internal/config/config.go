package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the markethours service.
type Config struct {
	Feed    Feed    `yaml:"feed"`
	Server  Server  `yaml:"server"`
	Storage Storage `yaml:"storage"`
	Logging Logging `yaml:"logging"`
	Tracker Tracker `yaml:"tracker"`
}

// Feed configures the schedule-feed connection.
type Feed struct {
	URL             string `yaml:"url"`
	RateLimitPerMin int    `yaml:"rate_limit_per_min"`
}

// Server holds network listener configuration.
type Server struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Storage holds paths for data persistence. An empty SQLitePath disables
// the status-change journal.
type Storage struct {
	SQLitePath string `yaml:"sqlite_path"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Tracker holds tracker-specific settings.
type Tracker struct {
	// SupplementarySymbols lists always-open instruments the feed omits.
	// Nil means use the built-in set; an empty list disables injection.
	SupplementarySymbols []string `yaml:"supplementary_symbols"`
}

// Default returns a configuration with sensible defaults for local use.
func Default() *Config {
	return &Config{
		Feed:    Feed{URL: "ws://localhost:4433/ws", RateLimitPerMin: 60},
		Server:  Server{Host: "0.0.0.0", Port: 8080},
		Logging: Logging{Level: "info", Format: "json"},
	}
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path, parses it into a
// Config struct, and then applies environment variable overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FEED_URL"); v != "" {
		cfg.Feed.URL = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("HTTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
}
