package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Config holds all user-configurable settings loaded from config.json
type Config struct {
	Browser    BrowserConfig   `json:"browser"`
	Thumbnails ThumbnailConfig `json:"thumbnails"`
	Scan       ScanConfig      `json:"scan"`
	Storage    StorageConfig   `json:"storage"`
}

// BrowserConfig holds browsing behaviour
type BrowserConfig struct {
	DefaultOpenPath             string `json:"defaultOpenPath"`             // start directory and fallback search root
	DoubleClickOpensDirectories bool   `json:"doubleClickOpensDirectories"` // activate navigates into directories
	DoubleClickOpensFiles       bool   `json:"doubleClickOpensFiles"`       // activate launches files
	ShowPrettyName              bool   `json:"showPrettyName"`              // render tags by pretty name
}

// ThumbnailConfig holds thumbnail generation settings
type ThumbnailConfig struct {
	Size         int `json:"size"`         // longest side in pixels
	CacheEntries int `json:"cacheEntries"` // LRU capacity
}

// ScanConfig holds directory scanning settings
type ScanConfig struct {
	Workers    int  `json:"workers"`    // 0 = number of CPUs
	Watch      bool `json:"watch"`      // rebuild caches on filesystem changes
	DebounceMs int  `json:"debounceMs"` // watcher debounce interval
}

// StorageConfig holds on-disk locations. Empty values use the defaults
// next to the config file.
type StorageConfig struct {
	RegistryPath string `json:"registryPath"`
	DatabasePath string `json:"databasePath"`
}

// Manager handles loading, saving, and accessing configuration
type Manager struct {
	mu       sync.RWMutex
	config   *Config
	path     string
	parseErr error // Stores parsing error if config failed to load
}

// NewManager creates a configuration manager for the default path.
func NewManager() *Manager {
	return NewManagerAt("")
}

// NewManagerAt creates a configuration manager for path; an empty path
// means ConfigPath().
func NewManagerAt(path string) *Manager {
	if path == "" {
		path = ConfigPath()
	}
	return &Manager{
		config: DefaultConfig(),
		path:   path,
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Browser: BrowserConfig{
			DefaultOpenPath:             home,
			DoubleClickOpensDirectories: true,
			DoubleClickOpensFiles:       true,
			ShowPrettyName:              true,
		},
		Thumbnails: ThumbnailConfig{
			Size:         256,
			CacheEntries: 512,
		},
		Scan: ScanConfig{
			Workers:    0,
			Watch:      true,
			DebounceMs: 200,
		},
	}
}

// ConfigDir returns ~/.config/tagbrowse on every platform.
func ConfigDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "tagbrowse")
}

// ConfigPath returns the config file path: ~/.config/tagbrowse/config.json
// This is consistent across all platforms (Windows, macOS, Linux)
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.json")
}

// Path returns the file this manager reads and writes.
func (m *Manager) Path() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.path
}

// Load reads the configuration from the config file
// If the file doesn't exist, creates it with defaults
// If parsing fails, stores the error and returns defaults
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.parseErr = nil

	configDir := filepath.Dir(m.path)
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		log.Printf("Config: failed to create directory %s: %v", configDir, err)
		return err
	}

	data, err := os.ReadFile(m.path)
	if os.IsNotExist(err) {
		log.Printf("Config: creating default config at %s", m.path)
		m.config = DefaultConfig()
		if saveErr := m.saveUnlocked(); saveErr != nil {
			log.Printf("Config: failed to save default config: %v", saveErr)
			return saveErr
		}
		return nil
	}
	if err != nil {
		log.Printf("Config: failed to read %s: %v", m.path, err)
		return err
	}

	// Missing keys keep their defaults.
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		log.Printf("Config: JSON parse error: %v", err)
		m.parseErr = err
		m.config = DefaultConfig()
		return nil // Don't return error - we're using defaults
	}

	m.config = cfg
	return nil
}

// saveUnlocked saves config without acquiring lock (caller must hold lock)
func (m *Manager) saveUnlocked() error {
	data, err := json.MarshalIndent(m.config, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(m.path, data, 0o644)
}

// Save writes the current configuration to disk
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveUnlocked()
}

// Get returns a copy of the current configuration
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.config == nil {
		return *DefaultConfig()
	}
	return *m.config
}

// ParseError returns the parsing error if config failed to load
func (m *Manager) ParseError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.parseErr
}

func (m *Manager) update(f func(c *Config)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f(m.config)
	return m.saveUnlocked()
}

// SetDefaultOpenPath updates the start directory
func (m *Manager) SetDefaultOpenPath(path string) error {
	return m.update(func(c *Config) { c.Browser.DefaultOpenPath = path })
}

// SetShowPrettyName updates whether tags render by pretty name
func (m *Manager) SetShowPrettyName(show bool) error {
	return m.update(func(c *Config) { c.Browser.ShowPrettyName = show })
}

// SetDoubleClick updates what activating an entry does
func (m *Manager) SetDoubleClick(directories, files bool) error {
	return m.update(func(c *Config) {
		c.Browser.DoubleClickOpensDirectories = directories
		c.Browser.DoubleClickOpensFiles = files
	})
}

// SetThumbnailSize updates the thumbnail size
func (m *Manager) SetThumbnailSize(size int) error {
	return m.update(func(c *Config) { c.Thumbnails.Size = size })
}

// SetScanWorkers updates the scan pool width
func (m *Manager) SetScanWorkers(workers int) error {
	return m.update(func(c *Config) { c.Scan.Workers = workers })
}

// SetWatch updates the watcher settings
func (m *Manager) SetWatch(enabled bool, debounceMs int) error {
	return m.update(func(c *Config) {
		c.Scan.Watch = enabled
		c.Scan.DebounceMs = debounceMs
	})
}

// RegistryPath returns the tag registry file.
func (m *Manager) RegistryPath() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.config.Storage.RegistryPath != "" {
		return m.config.Storage.RegistryPath
	}
	return filepath.Join(filepath.Dir(m.path), "tags.bin")
}

// DatabasePath returns the settings database file.
func (m *Manager) DatabasePath() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.config.Storage.DatabasePath != "" {
		return m.config.Storage.DatabasePath
	}
	return filepath.Join(filepath.Dir(m.path), "tagbrowse.db")
}

// GenerateConfig backs up an existing config at configPath and writes a
// fresh default one. It returns the backup path if a backup was created,
// or an empty string if there was no existing config.
func GenerateConfig(configPath string) (backupPath string, err error) {
	if configPath == "" {
		configPath = ConfigPath()
	}

	if _, err := os.Stat(configPath); err == nil {
		timestamp := time.Now().Format("20060102-150405")
		backupPath = filepath.Join(filepath.Dir(configPath), "config.backup."+timestamp+".json")

		data, err := os.ReadFile(configPath)
		if err != nil {
			return "", fmt.Errorf("failed to read existing config: %w", err)
		}
		if err := os.WriteFile(backupPath, data, 0o644); err != nil {
			return "", fmt.Errorf("failed to write backup: %w", err)
		}
	}

	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return backupPath, fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(DefaultConfig(), "", "  ")
	if err != nil {
		return backupPath, fmt.Errorf("failed to marshal default config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return backupPath, fmt.Errorf("failed to write config: %w", err)
	}
	return backupPath, nil
}
