package config

import (
	"os"
	"path/filepath"
)

// GetConfigPath returns $NUDI_CONFIG if set, otherwise ~/.nudi/config.
func GetConfigPath() (string, error) {
	if path := os.Getenv("NUDI_CONFIG"); path != "" {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".nudi", "config"), nil
}
