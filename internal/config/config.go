// Package config resolves the application's on-disk locations and loads the
// optional JSON settings file. Paths are resolved exactly once at startup
// and injected into the components that need them; nothing in the core
// computes its own directory.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// AppDirName is the user-specific data directory under the home dir
	AppDirName = ".authkeep"

	// DatabaseFileName is the credential database file name
	DatabaseFileName = "authenticator.db"

	// KeyFileName is the encryption key file name
	KeyFileName = "key.key"

	// ConfigFileName is the settings file name
	ConfigFileName = "config.json"
)

// Paths holds every resolved on-disk location. The data directory lives
// under the user's home, never the install directory, so it survives
// reinstalls and updates.
type Paths struct {
	DataDir      string
	DatabasePath string
	KeyPath      string
	ConfigPath   string
}

// ResolvePaths builds the path set rooted at dataDir.
func ResolvePaths(dataDir string) Paths {
	return Paths{
		DataDir:      dataDir,
		DatabasePath: filepath.Join(dataDir, DatabaseFileName),
		KeyPath:      filepath.Join(dataDir, KeyFileName),
		ConfigPath:   filepath.Join(dataDir, ConfigFileName),
	}
}

// DefaultDataDir returns the default data directory (~/.authkeep), falling
// back to the working directory when the home directory cannot be
// determined.
func DefaultDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return AppDirName
	}
	return filepath.Join(homeDir, AppDirName)
}

// EnsureDataDir creates the data directory with owner-only permissions.
func (p Paths) EnsureDataDir() error {
	if err := os.MkdirAll(p.DataDir, 0700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return nil
}

// UpdateConfig controls the code refresh behavior of display surfaces.
type UpdateConfig struct {
	AutoRefresh     bool `json:"auto_refresh"`
	RefreshInterval int  `json:"refresh_interval"` // seconds
	ShowProgressBar bool `json:"show_progress_bar"`
}

// ClipboardConfig controls clipboard integration.
type ClipboardConfig struct {
	Enabled       bool `json:"enabled"`
	ClearOnExpiry bool `json:"clear_on_expiry"` // clear when the copied code's window ends
}

// Config is the persisted application settings.
type Config struct {
	Update    UpdateConfig    `json:"update"`
	Clipboard ClipboardConfig `json:"clipboard"`
}

// Default returns the default settings.
func Default() Config {
	return Config{
		Update: UpdateConfig{
			AutoRefresh:     true,
			RefreshInterval: 1,
			ShowProgressBar: true,
		},
		Clipboard: ClipboardConfig{
			Enabled:       true,
			ClearOnExpiry: true,
		},
	}
}

// Load reads the settings file at path. A missing file yields the defaults;
// a present file is unmarshalled over the defaults so keys absent from
// older files keep their default values.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the settings file with 2-space indentation.
func (c Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, append(data, '\n'), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
