// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load(ctx) layers a YAML file and COMPRANK_ env vars on top.
// - External errors are wrapped with this package's sentinel kinds.
package config

import (
	"path/filepath"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// CompsPath is the composition pool file produced by the meta refresh.
	CompsPath string `koanf:"comps_path"`

	// WatchPool caches the pool and reloads it when the file changes.
	WatchPool bool `koanf:"watch_pool"`

	// RefreshCommand is the shell command line regenerating CompsPath.
	RefreshCommand string `koanf:"refresh_command"`

	// RefreshDir is the working directory of the refresh command.
	RefreshDir string `koanf:"refresh_dir"`

	// RefreshTimeoutMS bounds a refresh run.
	RefreshTimeoutMS int `koanf:"refresh_timeout_ms"`

	// PythonBin and DetectorScript locate the unit detector.
	PythonBin      string `koanf:"python_bin"`
	DetectorScript string `koanf:"detector_script"`

	// DetectTimeoutMS bounds a detection run.
	DetectTimeoutMS int `koanf:"detect_timeout_ms"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":9080",
		CompsPath:        filepath.Join("data", "latest", "comps.json"),
		WatchPool:        true,
		RefreshCommand:   "npm run fetch-meta && npm run build-comps",
		RefreshTimeoutMS: 300_000,
		PythonBin:        "",
		DetectorScript:   filepath.Join("scripts", "detect_units.py"),
		DetectTimeoutMS:  30_000,
	}
}

// RefreshTimeout returns RefreshTimeoutMS as a duration.
func (c *Config) RefreshTimeout() time.Duration {
	return time.Duration(c.RefreshTimeoutMS) * time.Millisecond
}

// DetectTimeout returns DetectTimeoutMS as a duration.
func (c *Config) DetectTimeout() time.Duration {
	return time.Duration(c.DetectTimeoutMS) * time.Millisecond
}
