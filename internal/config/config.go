// Package config parses and writes the TOML configuration file: identity,
// directories, and source/backup roots.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds the settings read from the configuration file. The CLI uses
// LogDir; SourceDir, BackupRoot and Verbose are stored and shown by
// `config list`, but the run command does not read them and takes its
// source and backup root from its required flags.
type Config struct {
	HostID     string `toml:"host_id"`
	BaseDir    string `toml:"base_dir"`
	LogDir     string `toml:"log_dir"`
	SourceDir  string `toml:"source_dir,omitempty"`
	BackupRoot string `toml:"backup_root,omitempty"`
	Verbose    bool   `toml:"verbose,omitempty"`
}

// NewConfig creates a new Config with the provided identity and defaults
// derived from baseDir.
func NewConfig(hostID, baseDir string) *Config {
	return &Config{
		HostID:  hostID,
		BaseDir: baseDir,
		LogDir:  filepath.Join(baseDir, "log"),
	}
}

// CatalogueLocation returns the default catalogue path for a given backup
// root: backupRoot/backup.db.
func CatalogueLocation(backupRoot string) string {
	return filepath.Join(backupRoot, "backup.db")
}

// Manager handles reading and writing configuration.
type Manager struct{}

func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return &cfg, nil
}

func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init creates a new config file at path, failing if one already exists.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}
	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
