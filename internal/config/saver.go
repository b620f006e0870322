package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// saveConfig is the JSON-marshaling intermediary that uses string durations.
type saveConfig struct {
	Staging  saveStagingConfig `json:"staging"`
	Watcher  saveWatcherConfig `json:"watcher"`
	Progress ProgressConfig    `json:"progress"`
	UI       UIConfig          `json:"ui"`
}

type saveStagingConfig struct {
	FileDisplayLimit int    `json:"fileDisplayLimit"`
	ThrottleWindow   string `json:"throttleWindow"`
	DiffView         string `json:"diffView,omitempty"`
	InitialDiffLines int    `json:"initialDiffLines"`
}

type saveWatcherConfig struct {
	Enabled  bool   `json:"enabled"`
	Debounce string `json:"debounce"`
}

func toSaveConfig(cfg *Config) saveConfig {
	return saveConfig{
		Staging: saveStagingConfig{
			FileDisplayLimit: cfg.Staging.FileDisplayLimit,
			ThrottleWindow:   cfg.Staging.ThrottleWindow.String(),
			DiffView:         cfg.Staging.DiffView,
			InitialDiffLines: cfg.Staging.InitialDiffLines,
		},
		Watcher: saveWatcherConfig{
			Enabled:  cfg.Watcher.Enabled,
			Debounce: cfg.Watcher.Debounce.String(),
		},
		Progress: cfg.Progress,
		UI:       cfg.UI,
	}
}

// Save writes the config to ~/.config/stagehand/config.json.
func Save(cfg *Config) error {
	return SaveTo(cfg, ConfigPath())
}

// SaveTo writes the config to path. Top-level keys it does not manage are
// preserved.
func SaveTo(cfg *Config, path string) error {
	merged := map[string]json.RawMessage{}
	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, &merged); err != nil {
			return err
		}
	} else if !os.IsNotExist(err) {
		return err
	}

	data, err := json.Marshal(toSaveConfig(cfg))
	if err != nil {
		return err
	}
	var managed map[string]json.RawMessage
	if err := json.Unmarshal(data, &managed); err != nil {
		return err
	}
	for k, v := range managed {
		merged[k] = v
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	out, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0644)
}
