package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
)

// Config contains all configuration parameters for the storage core.
type Config struct {
	Home          string `envconfig:"WSTORE_HOME"`                          // global storage root, defaults to ~/.wstore
	RetentionDays int    `envconfig:"WSTORE_RETENTION_DAYS" default:"7"`    // transaction retention window
	LogLevel      string `envconfig:"WSTORE_LOG_LEVEL" default:"warn"`      // debug/info/warn/error
	LogDev        bool   `envconfig:"WSTORE_LOG_DEV" default:"false"`       // console encoder instead of JSON
	MarkerName    string `envconfig:"WSTORE_MARKER" default:".wstore"`      // project marker directory name
}

// cfg is the global configuration instance
var cfg *Config

// Init loads configuration from environment variables.
func Init() error {
	cfg = &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return fmt.Errorf("failed to process config: %w", err)
	}
	return nil
}

// Get returns the global configuration instance.
// Falls back to defaults if Init() was not called.
func Get() *Config {
	if cfg == nil {
		cfg = &Config{RetentionDays: 7, LogLevel: "warn", MarkerName: ".wstore"}
	}
	return cfg
}

// GetGlobalStorageRoot returns the global storage root directory:
// WSTORE_HOME if set, otherwise the marker directory under the user's home.
func GetGlobalStorageRoot() string {
	c := Get()
	if c.Home != "" {
		return c.Home
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// last resort: marker dir relative to the working directory
		return c.MarkerName
	}
	return filepath.Join(home, c.MarkerName)
}

// GetRetentionDays returns the transaction retention window in days
func GetRetentionDays() int {
	d := Get().RetentionDays
	if d <= 0 {
		return 7
	}
	return d
}

// GetMarkerName returns the project marker directory name
func GetMarkerName() string {
	m := Get().MarkerName
	if m == "" {
		return ".wstore"
	}
	return m
}
