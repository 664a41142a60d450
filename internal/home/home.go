package home

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultDirName is the default name for the juris home directory.
	DefaultDirName = ".juris"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"

	// MappingFileName is the alias table picked up when mapping_file is unset.
	MappingFileName = "mapping.yaml"
)

// Dir represents the juris home directory structure.
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.juris).
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}

	return &Dir{path: path}, nil
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// MappingPath returns the path to the home alias table.
func (d *Dir) MappingPath() string {
	return filepath.Join(d.path, MappingFileName)
}

// EnsureExists creates the home directory if it doesn't exist.
func (d *Dir) EnsureExists() error {
	if err := os.MkdirAll(d.path, 0o755); err != nil {
		return fmt.Errorf("failed to create home directory: %w", err)
	}
	return nil
}

// Exists returns true if the home directory exists.
func (d *Dir) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// ConfigExists returns true if the config file exists in the home directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}

// ResolveMappingFile returns the alias table to load. An explicit path wins,
// then the home mapping.yaml if present. Empty means the built-in table.
func (d *Dir) ResolveMappingFile(configured string) string {
	if configured != "" {
		return configured
	}
	if _, err := os.Stat(d.MappingPath()); err == nil {
		return d.MappingPath()
	}
	return ""
}
