package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"appanote/pkg/models"
)

// Manager handles configuration loading, saving, and updates
type Manager struct {
	mu         sync.RWMutex
	config     *models.Config
	configPath string
}

// NewManager creates a new configuration manager
// If the config file doesn't exist, it creates one with default values
func NewManager(configPath string) (*Manager, error) {
	manager := &Manager{
		configPath: configPath,
		config:     models.DefaultConfig(),
	}

	// Try to load existing config
	if _, err := os.Stat(configPath); err == nil {
		if err := manager.load(); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	} else {
		// Create config directory if it doesn't exist
		configDir := filepath.Dir(configPath)
		if err := os.MkdirAll(configDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}

		// Save default config
		if err := manager.Save(); err != nil {
			return nil, fmt.Errorf("failed to save default config: %w", err)
		}
	}

	// The YTB_API_KEY environment variable overrides the file
	if key := os.Getenv("YTB_API_KEY"); key != "" {
		manager.config.YouTubeAPIKey = key
	}

	// Validate config
	if err := Validate(manager.config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return manager, nil
}

// Get returns a copy of the current configuration
func (m *Manager) Get() *models.Config {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Return a copy to prevent external modifications
	cfg := *m.config
	return &cfg
}

// Update applies a function to the configuration and saves it
func (m *Manager) Update(fn func(*models.Config)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Apply updates
	fn(m.config)

	// Validate
	if err := Validate(m.config); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	// Save to disk
	return m.save()
}

// Save writes the current configuration to disk
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.save()
}

// load reads configuration from disk
func (m *Manager) load() error {
	data, err := os.ReadFile(m.configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	// Unmarshal into a temporary config
	var cfg models.Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("failed to parse config JSON: %w", err)
	}

	// Merge with defaults (for new fields)
	m.config = mergeWithDefaults(&cfg)

	return nil
}

// save writes configuration to disk (must be called with lock held)
func (m *Manager) save() error {
	data, err := json.MarshalIndent(m.config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(m.configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// mergeWithDefaults fills in default values for missing fields
func mergeWithDefaults(cfg *models.Config) *models.Config {
	defaults := models.DefaultConfig()

	// Only set defaults if values are zero/empty
	if cfg.WebServerPort == 0 {
		cfg.WebServerPort = defaults.WebServerPort
	}
	if cfg.DataFile == "" {
		cfg.DataFile = defaults.DataFile
	}
	if cfg.PostsDir == "" {
		cfg.PostsDir = defaults.PostsDir
	}
	if cfg.BackupDir == "" {
		cfg.BackupDir = defaults.BackupDir
	}
	if cfg.OEmbedEndpoint == "" {
		cfg.OEmbedEndpoint = defaults.OEmbedEndpoint
	}
	if cfg.YouTubeAPIEndpoint == "" {
		cfg.YouTubeAPIEndpoint = defaults.YouTubeAPIEndpoint
	}
	if cfg.FetchTimeoutSeconds == 0 {
		cfg.FetchTimeoutSeconds = defaults.FetchTimeoutSeconds
	}
	if cfg.MetadataCacheTTLMin == 0 {
		cfg.MetadataCacheTTLMin = defaults.MetadataCacheTTLMin
	}
	if cfg.RefreshWorkers == 0 {
		cfg.RefreshWorkers = defaults.RefreshWorkers
	}
	if cfg.SiteTitle == "" {
		cfg.SiteTitle = defaults.SiteTitle
	}
	if cfg.BlogTitle == "" {
		cfg.BlogTitle = defaults.BlogTitle
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaults.LogLevel
	}

	return cfg
}

// Validate checks if the configuration is valid
func Validate(cfg *models.Config) error {
	return validation.ValidateStruct(cfg,
		validation.Field(&cfg.WebServerPort, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&cfg.DataFile, validation.Required),
		validation.Field(&cfg.PostsDir, validation.Required),
		validation.Field(&cfg.BackupDir, validation.Required),
		validation.Field(&cfg.OEmbedEndpoint, validation.Required, is.URL),
		validation.Field(&cfg.YouTubeAPIEndpoint, validation.Required, is.URL),
		validation.Field(&cfg.FetchTimeoutSeconds, validation.Min(1), validation.Max(120)),
		validation.Field(&cfg.MetadataCacheTTLMin, validation.Min(0)),
		validation.Field(&cfg.RefreshWorkers, validation.Min(1), validation.Max(16)),
		validation.Field(&cfg.LogLevel, validation.In("trace", "debug", "info", "warn", "error")),
	)
}

// GetDataDir returns the application data directory
func GetDataDir() string {
	if dir := os.Getenv("APPANOTE_DATA_DIR"); dir != "" {
		os.MkdirAll(dir, 0755)
		return dir
	}

	if home, err := os.UserHomeDir(); err == nil {
		dataDir := filepath.Join(home, ".appanote")
		os.MkdirAll(dataDir, 0755)
		return dataDir
	}

	// Last resort: current directory
	return "."
}

// GetDefaultConfigPath returns the default configuration file path
func GetDefaultConfigPath() string {
	return filepath.Join(GetDataDir(), "config.json")
}
