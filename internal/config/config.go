// Package config manages folio configuration and the .folio directory structure.
// It handles loading, saving, and initializing the workspace configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

const (
	FolioDir     = ".folio"
	ConfigFile   = "config"
	BoltFile     = "folio.db"
	SQLiteFile   = "folio.sqlite"
	ExportsDir   = "exports"
	DefaultPage  = "index.html"
	BackendBolt  = "bbolt"
	BackendSQL   = "sqlite"
	AdminPassEnv = "FOLIO_ADMIN_PASSWORD"
)

// Config represents the folio configuration
type Config struct {
	StorageBackend string        `toml:"storage_backend"`
	History        HistoryConfig `toml:"history"`
	Storage        StorageConfig `toml:"storage"`
	Media          MediaConfig   `toml:"media"`
	Remote         RemoteConfig  `toml:"remote"`
	Server         ServerConfig  `toml:"server"`
	path           string        // path to .folio directory
}

// HistoryConfig bounds the undo history kept per page.
type HistoryConfig struct {
	MaxEntries int   `toml:"max_entries"`
	MaxBytes   int64 `toml:"max_bytes"` // 0 disables the byte budget
}

// StorageConfig controls the local record store.
type StorageConfig struct {
	QuotaBytes int64 `toml:"quota_bytes"` // 0 means unlimited
}

// MediaConfig controls uploaded image and video handling.
type MediaConfig struct {
	MaxImageWidth  int   `toml:"max_image_width"`
	MaxUploadBytes int64 `toml:"max_upload_bytes"`
}

// RemoteConfig describes where pages are published.
type RemoteConfig struct {
	APIURL     string `toml:"api_url"`
	Owner      string `toml:"owner"`
	Repo       string `toml:"repo"`
	Branch     string `toml:"branch"`
	PathPrefix string `toml:"path_prefix"`
}

// ServerConfig configures folio-server.
type ServerConfig struct {
	Listen            string   `toml:"listen"`
	AdminPasswordHash string   `toml:"admin_password_hash"`
	AllowedOrigins    []string `toml:"allowed_origins"`
	WebhookURLs       []string `toml:"webhook_urls"`
}

// Default returns a configuration with every field set to its default.
func Default() *Config {
	return &Config{
		StorageBackend: BackendBolt,
		History: HistoryConfig{
			MaxEntries: 50,
			MaxBytes:   8 << 20,
		},
		Storage: StorageConfig{
			QuotaBytes: 64 << 20,
		},
		Media: MediaConfig{
			MaxImageWidth:  1600,
			MaxUploadBytes: 10 << 20,
		},
		Remote: RemoteConfig{
			APIURL: "https://api.github.com",
			Branch: "main",
		},
		Server: ServerConfig{
			Listen:         ":8720",
			AllowedOrigins: []string{"*"},
		},
	}
}

// FindRoot finds the .folio directory by walking up from the current directory
func FindRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		folioPath := filepath.Join(dir, FolioDir)
		if info, err := os.Stat(folioPath); err == nil && info.IsDir() {
			return folioPath, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not a folio workspace (or any parent up to root)")
		}
		dir = parent
	}
}

// Load loads the configuration from the nearest .folio directory
func Load() (*Config, error) {
	folioPath, err := FindRoot()
	if err != nil {
		return nil, err
	}
	return LoadFrom(folioPath)
}

// LoadFrom loads the configuration stored in the given .folio directory.
// Missing keys keep their defaults.
func LoadFrom(folioPath string) (*Config, error) {
	data, err := os.ReadFile(filepath.Join(folioPath, ConfigFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.path = folioPath
	return cfg, nil
}

// Save saves the configuration to disk
func (c *Config) Save() error {
	configPath := filepath.Join(c.path, ConfigFile)
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(configPath, data, 0644)
}

// Path returns the path to the .folio directory
func (c *Config) Path() string {
	return c.path
}

// DatabasePath returns the path to the database file for the configured backend
func (c *Config) DatabasePath() string {
	if c.StorageBackend == BackendSQL {
		return filepath.Join(c.path, SQLiteFile)
	}
	return filepath.Join(c.path, BoltFile)
}

// ExportsPath returns the directory exported pages are written to
func (c *Config) ExportsPath() string {
	return filepath.Join(c.path, ExportsDir)
}

// RemotePath returns the repository path a page is published to.
func (c *Config) RemotePath(pageID string) string {
	if c.Remote.PathPrefix == "" {
		return pageID
	}
	return filepath.ToSlash(filepath.Join(c.Remote.PathPrefix, pageID))
}

// Validate checks the fields that have a closed set of values.
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case BackendBolt, BackendSQL:
	default:
		return fmt.Errorf("unknown storage backend %q (want %s or %s)", c.StorageBackend, BackendBolt, BackendSQL)
	}
	if c.History.MaxEntries < 1 {
		return fmt.Errorf("history.max_entries must be at least 1")
	}
	if c.History.MaxBytes < 0 || c.Storage.QuotaBytes < 0 {
		return fmt.Errorf("byte limits must not be negative")
	}
	return nil
}

// Initialize creates a new .folio directory in the current directory
func Initialize(cfg *Config) (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return InitializeAt(cwd, cfg)
}

// InitializeAt creates a new .folio directory under dir. A nil cfg uses Default().
func InitializeAt(dir string, cfg *Config) (*Config, error) {
	folioPath := filepath.Join(dir, FolioDir)

	// Check if already initialized
	if _, err := os.Stat(folioPath); err == nil {
		return nil, fmt.Errorf("folio workspace already exists")
	}

	if cfg == nil {
		cfg = Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Join(folioPath, ExportsDir), 0755); err != nil {
		return nil, fmt.Errorf("failed to create .folio directory: %w", err)
	}

	cfg.path = folioPath
	if err := cfg.Save(); err != nil {
		// Cleanup on failure
		os.RemoveAll(folioPath)
		return nil, err
	}

	return cfg, nil
}
