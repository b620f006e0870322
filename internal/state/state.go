package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

const defaultDiffView = "default"

// State holds persistent user preferences.
type State struct {
	DiffView string `json:"diffView"` // "default" or "side-by-side"

	// File list width as a percentage of the total width, 0 = use default
	FileListWidth int `json:"fileListWidth,omitempty"`
}

var (
	current *State
	mu      sync.RWMutex
	path    string
)

// Init loads state from the default location.
func Init() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}
	return InitWithDir(filepath.Join(home, ".config", "stagehand"))
}

// InitWithDir loads state from a specified directory.
// This is primarily for testing to avoid reading real user state.
func InitWithDir(dir string) error {
	path = filepath.Join(dir, "state.json")
	return Load()
}

// Load reads state from disk.
func Load() error {
	mu.Lock()
	defer mu.Unlock()

	current = &State{
		DiffView: defaultDiffView,
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil // no state file yet, use defaults
	}
	if err != nil {
		return err
	}

	return json.Unmarshal(data, current)
}

// Save writes state to disk.
func Save() error {
	mu.RLock()
	defer mu.RUnlock()

	if current == nil || path == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(current, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// GetDiffView returns the saved diff view.
func GetDiffView() string {
	mu.RLock()
	defer mu.RUnlock()
	if current == nil || current.DiffView == "" {
		return defaultDiffView
	}
	return current.DiffView
}

// SetDiffView saves the diff view preference.
func SetDiffView(view string) error {
	mu.Lock()
	if current == nil {
		current = &State{}
	}
	current.DiffView = view
	mu.Unlock()
	return Save()
}

// GetFileListWidth returns the saved file list width.
// Returns 0 if no preference is saved (use default).
func GetFileListWidth() int {
	mu.RLock()
	defer mu.RUnlock()
	if current == nil {
		return 0
	}
	return current.FileListWidth
}

// SetFileListWidth saves the file list width.
func SetFileListWidth(width int) error {
	mu.Lock()
	if current == nil {
		current = &State{}
	}
	current.FileListWidth = width
	mu.Unlock()
	return Save()
}
