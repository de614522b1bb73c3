// Package config provides configuration management for virtadm.
package config

import (
	"os"
	"path/filepath"
)

// Paths holds per-user directory paths for virtadm.
type Paths struct {
	// DataDir is the directory for the path store and other state.
	// All platforms: ~/.virtadm
	DataDir string

	// ConfigFile is the path to the main config file.
	ConfigFile string

	// StoreFile is the path to the conversion path store database.
	StoreFile string
}

// GetPaths returns per-user paths for virtadm.
func GetPaths() (*Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	dataDir := filepath.Join(home, ".virtadm")
	return &Paths{
		DataDir:    dataDir,
		ConfigFile: filepath.Join(dataDir, "config.yaml"),
		StoreFile:  filepath.Join(dataDir, "paths.db"),
	}, nil
}

// EnsureDirectories creates the data directory if it doesn't exist.
func (p *Paths) EnsureDirectories() error {
	return os.MkdirAll(p.DataDir, 0755)
}
