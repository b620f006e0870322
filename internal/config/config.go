package config

import (
	"fmt"
	"time"
)

// Config is the root configuration structure.
type Config struct {
	Staging  StagingConfig  `json:"staging"`
	Watcher  WatcherConfig  `json:"watcher"`
	Progress ProgressConfig `json:"progress"`
	UI       UIConfig       `json:"ui"`
}

// StagingConfig configures the staging session.
type StagingConfig struct {
	FileDisplayLimit int           `json:"fileDisplayLimit"` // files fetched before asking to load anyway
	ThrottleWindow   time.Duration `json:"throttleWindow"`   // trailing-edge refresh window
	DiffView         string        `json:"diffView"`         // "default" or "side-by-side", empty = saved preference
	InitialDiffLines int           `json:"initialDiffLines"` // lines shown before "show more"
}

// WatcherConfig configures working-tree change notifications.
type WatcherConfig struct {
	Enabled  bool          `json:"enabled"`
	Debounce time.Duration `json:"debounce"`
}

// ProgressConfig configures progress prediction memory.
type ProgressConfig struct {
	Store string `json:"store"` // sqlite path, empty disables predictions
}

// UIConfig configures UI appearance.
type UIConfig struct {
	ShowFooter bool   `json:"showFooter"`
	Theme      string `json:"theme"`
}

const (
	defaultFileDisplayLimit = 50
	defaultThrottleWindow   = 400 * time.Millisecond
	defaultInitialDiffLines = 50
	defaultDebounce         = 200 * time.Millisecond
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Staging: StagingConfig{
			FileDisplayLimit: defaultFileDisplayLimit,
			ThrottleWindow:   defaultThrottleWindow,
			InitialDiffLines: defaultInitialDiffLines,
		},
		Watcher: WatcherConfig{
			Enabled:  true,
			Debounce: defaultDebounce,
		},
		Progress: ProgressConfig{
			Store: "~/.config/stagehand/progress.db",
		},
		UI: UIConfig{
			ShowFooter: true,
			Theme:      "default",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Staging.FileDisplayLimit <= 0 {
		c.Staging.FileDisplayLimit = defaultFileDisplayLimit
	}
	if c.Staging.ThrottleWindow <= 0 {
		c.Staging.ThrottleWindow = defaultThrottleWindow
	}
	if c.Staging.InitialDiffLines <= 0 {
		c.Staging.InitialDiffLines = defaultInitialDiffLines
	}
	switch c.Staging.DiffView {
	case "", "default", "side-by-side":
	default:
		return fmt.Errorf("staging.diffView: unknown view %q", c.Staging.DiffView)
	}
	if c.Watcher.Debounce < 0 {
		c.Watcher.Debounce = defaultDebounce
	}
	return nil
}
