package config

import (
	"os"
	"path/filepath"
)

const appDirName = ".canvas"

// DataDir returns the base data directory for canvas.
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, appDirName), nil
}

// ConfigPath returns the path to the TOML configuration file.
func ConfigPath() (string, error) {
	dataDir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "config.toml"), nil
}

// StreamDebugLogPath returns the path of the stream diagnostics log.
func StreamDebugLogPath() (string, error) {
	dataDir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "stream.log"), nil
}
