// Package config provides configuration management for the Heimdex Editor.
// Configuration is loaded from environment variables with sensible defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	// Default values
	DefaultPort         = 8788
	DefaultLogLevel     = "info"
	DefaultDataDir      = ".heimdex-editor"
	DefaultOutputDir    = "Movies"
	DefaultFFmpeg       = "ffmpeg"
	DefaultFFprobe      = "ffprobe"
	DefaultPollInterval = 5 * time.Second

	// Environment variable names
	EnvPort         = "HEIMDEX_EDITOR_PORT"
	EnvLogLevel     = "HEIMDEX_EDITOR_LOG_LEVEL"
	EnvDataDir      = "HEIMDEX_EDITOR_DATA_DIR"
	EnvOutputDir    = "HEIMDEX_EDITOR_OUTPUT_DIR"
	EnvPluginsFile  = "HEIMDEX_EDITOR_PLUGINS_FILE"
	EnvFFmpeg       = "HEIMDEX_EDITOR_FFMPEG"
	EnvFFprobe      = "HEIMDEX_EDITOR_FFPROBE"
	EnvHeadless     = "HEIMDEX_EDITOR_HEADLESS"
	EnvPollInterval = "HEIMDEX_EDITOR_POLL_INTERVAL"
	EnvDriveCreds   = "HEIMDEX_EDITOR_DRIVE_CREDENTIALS"
	EnvDriveFolder  = "HEIMDEX_EDITOR_DRIVE_FOLDER"

	DBFilename      = "editor.db"
	PluginsFilename = "plugins.yaml"
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	DBPath() string
	OutputDir() string
	PluginsFile() string
	FFmpegPath() string
	FFprobePath() string
	Headless() bool
	PollInterval() time.Duration
	DriveCredentials() string
	DriveFolder() string
}

// EnvConfig reads configuration from environment variables
type EnvConfig struct {
	port         int
	logLevel     string
	dataDir      string
	outputDir    string
	pluginsFile  string
	ffmpegPath   string
	ffprobePath  string
	headless     bool
	pollInterval time.Duration
	driveCreds   string
	driveFolder  string
}

// New creates a new EnvConfig with defaults and environment variable overrides
func New() (*EnvConfig, error) {
	cfg := &EnvConfig{
		port:         DefaultPort,
		logLevel:     DefaultLogLevel,
		dataDir:      homeRelative(DefaultDataDir),
		outputDir:    homeRelative(DefaultOutputDir),
		ffmpegPath:   DefaultFFmpeg,
		ffprobePath:  DefaultFFprobe,
		pollInterval: DefaultPollInterval,
	}

	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid %s: port must be between 1 and 65535", EnvPort)
		}
		cfg.port = port
	}

	if ll := os.Getenv(EnvLogLevel); ll != "" {
		cfg.logLevel = ll
	}
	if dd := os.Getenv(EnvDataDir); dd != "" {
		cfg.dataDir = dd
	}
	if od := os.Getenv(EnvOutputDir); od != "" {
		cfg.outputDir = od
	}
	cfg.pluginsFile = os.Getenv(EnvPluginsFile)

	if ff := os.Getenv(EnvFFmpeg); ff != "" {
		cfg.ffmpegPath = ff
	}
	if fp := os.Getenv(EnvFFprobe); fp != "" {
		cfg.ffprobePath = fp
	}

	if h := os.Getenv(EnvHeadless); h != "" {
		headless, err := strconv.ParseBool(h)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvHeadless, err)
		}
		cfg.headless = headless
	}

	if pi := os.Getenv(EnvPollInterval); pi != "" {
		d, err := time.ParseDuration(pi)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPollInterval, err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("invalid %s: must be positive", EnvPollInterval)
		}
		cfg.pollInterval = d
	}

	cfg.driveCreds = os.Getenv(EnvDriveCreds)
	cfg.driveFolder = os.Getenv(EnvDriveFolder)

	return cfg, nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

// OutputDir is where rendered exports land.
func (c *EnvConfig) OutputDir() string {
	return c.outputDir
}

// PluginsFile returns the plugin catalog path, defaulting to a file in the
// data directory.
func (c *EnvConfig) PluginsFile() string {
	if c.pluginsFile != "" {
		return c.pluginsFile
	}
	return filepath.Join(c.dataDir, PluginsFilename)
}

func (c *EnvConfig) FFmpegPath() string {
	return c.ffmpegPath
}

func (c *EnvConfig) FFprobePath() string {
	return c.ffprobePath
}

// Headless disables the system tray.
func (c *EnvConfig) Headless() bool {
	return c.headless
}

func (c *EnvConfig) PollInterval() time.Duration {
	return c.pollInterval
}

// DriveCredentials is the service account key used by the Google Drive
// export plugin. Empty disables the plugin.
func (c *EnvConfig) DriveCredentials() string {
	return c.driveCreds
}

// DriveFolder is the Drive folder uploads go to; empty means the root.
func (c *EnvConfig) DriveFolder() string {
	return c.driveFolder
}

func homeRelative(dir string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return dir
	}
	return filepath.Join(home, dir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
