// Package storage resolves the platform data directories and provides
// atomic JSON persistence for configuration.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

var appName = "emuhost"

// Init overrides the application data directory name. Call before any
// other storage operation.
func Init(dataDirName string) {
	appName = dataDirName
}

const (
	configFile = "config.json"
	savesDir   = "saves"
)

// BaseDir returns the base directory for application data:
// ~/Library/Application Support/<app> on macOS, %APPDATA%/<app> on
// Windows, $XDG_DATA_HOME/<app> or ~/.local/share/<app> elsewhere.
func BaseDir() (string, error) {
	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		return filepath.Join(home, "Library", "Application Support", appName), nil
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA environment variable not set")
		}
		return filepath.Join(appData, appName), nil
	default:
		if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
			return filepath.Join(dataHome, appName), nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		return filepath.Join(home, ".local", "share", appName), nil
	}
}

// EnsureDirectories creates the application data tree.
func EnsureDirectories() error {
	base, err := BaseDir()
	if err != nil {
		return err
	}
	for _, dir := range []string{base, filepath.Join(base, savesDir)} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// ConfigPath returns the full path of config.json.
func ConfigPath() (string, error) {
	base, err := BaseDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, configFile), nil
}

// SavesDir returns the root directory for save data.
func SavesDir() (string, error) {
	base, err := BaseDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, savesDir), nil
}

// GameSaveDir returns the save directory for one game, keyed by a
// stable identifier such as the ROM's CRC32.
func GameSaveDir(gameKey string) (string, error) {
	saves, err := SavesDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(saves, gameKey), nil
}

// AtomicWriteJSON marshals data and replaces path atomically via a temp
// file and rename, so the file is never observed half-written.
func AtomicWriteJSON(path string, data interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	// Unique temp name per writer; a fixed name would let overlapping
	// writes truncate each other before the rename.
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	_ = tmp.Chmod(0644)
	if _, err := tmp.Write(jsonData); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// ReadJSON reads and unmarshals a JSON file.
func ReadJSON(path string, data interface{}) error {
	jsonData, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(jsonData, data); err != nil {
		return fmt.Errorf("parse JSON: %w", err)
	}
	return nil
}
