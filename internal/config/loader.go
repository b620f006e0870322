package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	configDir  = ".config/stagehand"
	configFile = "config.json"
)

var testConfigPath string

// rawConfig is the JSON-unmarshaling intermediary.
type rawConfig struct {
	Staging  rawStagingConfig  `json:"staging"`
	Watcher  rawWatcherConfig  `json:"watcher"`
	Progress rawProgressConfig `json:"progress"`
	UI       rawUIConfig       `json:"ui"`
}

type rawStagingConfig struct {
	FileDisplayLimit *int   `json:"fileDisplayLimit"`
	ThrottleWindow   string `json:"throttleWindow"`
	DiffView         string `json:"diffView"`
	InitialDiffLines *int   `json:"initialDiffLines"`
}

type rawWatcherConfig struct {
	Enabled  *bool  `json:"enabled"`
	Debounce string `json:"debounce"`
}

type rawProgressConfig struct {
	Store *string `json:"store"`
}

type rawUIConfig struct {
	ShowFooter *bool  `json:"showFooter"`
	Theme      string `json:"theme"`
}

// Load loads configuration from the default location.
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom loads configuration from a specific path.
// If path is empty, uses ~/.config/stagehand/config.json
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = ConfigPath()
		if path == "" {
			cfg.Progress.Store = ExpandPath(cfg.Progress.Store)
			return cfg, nil // Return defaults on error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.Progress.Store = ExpandPath(cfg.Progress.Store)
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	var raw rawConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	mergeConfig(cfg, &raw)

	cfg.Progress.Store = ExpandPath(cfg.Progress.Store)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// mergeConfig merges raw config values into the config.
func mergeConfig(cfg *Config, raw *rawConfig) {
	// Staging
	if raw.Staging.FileDisplayLimit != nil {
		cfg.Staging.FileDisplayLimit = *raw.Staging.FileDisplayLimit
	}
	if raw.Staging.ThrottleWindow != "" {
		cfg.Staging.ThrottleWindow = parseDuration("staging.throttleWindow", raw.Staging.ThrottleWindow, cfg.Staging.ThrottleWindow)
	}
	if raw.Staging.DiffView != "" {
		cfg.Staging.DiffView = raw.Staging.DiffView
	}
	if raw.Staging.InitialDiffLines != nil {
		cfg.Staging.InitialDiffLines = *raw.Staging.InitialDiffLines
	}

	// Watcher
	if raw.Watcher.Enabled != nil {
		cfg.Watcher.Enabled = *raw.Watcher.Enabled
	}
	if raw.Watcher.Debounce != "" {
		cfg.Watcher.Debounce = parseDuration("watcher.debounce", raw.Watcher.Debounce, cfg.Watcher.Debounce)
	}

	// Progress
	if raw.Progress.Store != nil {
		cfg.Progress.Store = *raw.Progress.Store
	}

	// UI
	if raw.UI.ShowFooter != nil {
		cfg.UI.ShowFooter = *raw.UI.ShowFooter
	}
	if raw.UI.Theme != "" {
		cfg.UI.Theme = raw.UI.Theme
	}
}

func parseDuration(key, value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		slog.Warn("invalid duration in config", "key", key, "value", value, "err", err)
		return fallback
	}
	return d
}

// ExpandPath expands ~ to home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// ConfigPath returns the path to the config file.
func ConfigPath() string {
	if testConfigPath != "" {
		return testConfigPath
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, configDir, configFile)
}

// SetTestConfigPath points Load and Save at path. Tests only.
func SetTestConfigPath(path string) { testConfigPath = path }

// ResetTestConfigPath restores the default config location.
func ResetTestConfigPath() { testConfigPath = "" }
