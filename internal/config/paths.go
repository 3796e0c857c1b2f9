package config

import (
	"os"
	"path/filepath"
)

func configSearchPaths() []string {
	home, _ := os.UserHomeDir()
	return []string{
		filepath.Join(home, ".burnin", "config.yaml"),
		"/etc/burnin/config.yaml",
	}
}

// DefaultConfigPath returns the per-user config location, the first path
// Locate searches.
func DefaultConfigPath() string {
	return configSearchPaths()[0]
}
