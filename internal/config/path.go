// Package config provides configuration utilities for the application.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath expands ~ and environment variables in a file path.
// It handles both ~ for home directory and $VAR style environment variables.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = home
		}
	}

	return os.ExpandEnv(path)
}

// DefaultOverlayPath returns the default location of the decision overlay
// database, honoring XDG_DATA_HOME when set.
func DefaultOverlayPath() string {
	if base := os.Getenv("XDG_DATA_HOME"); base != "" {
		return filepath.Join(base, "oppanel", "decisions.db")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "decisions.db")
	}
	return filepath.Join(home, ".local", "share", "oppanel", "decisions.db")
}
