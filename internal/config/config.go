package config

import (
	"encoding/json"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/vemikrs/mira/internal/errors"
)

// DefaultServerURL is used when no server URL has been configured.
const DefaultServerURL = "http://localhost:3000"

// DefaultPageSize is the conversation list page size requested from the server.
const DefaultPageSize = 20

// Config holds the application configuration
type Config struct {
	ServerURL            string `json:"server_url,omitempty"`            // Base URL of the Mira service
	APIToken             string `json:"api_token,omitempty"`             // Bearer token for the Mira service
	DefaultMode          string `json:"default_mode,omitempty"`          // Mode used for new conversations (e.g., "GENERAL_CHAT")
	Theme                string `json:"theme,omitempty"`                 // UI theme name
	NotificationsEnabled bool   `json:"notifications_enabled,omitempty"` // Desktop notifications when a reply settles
	PageSize             int    `json:"page_size,omitempty"`             // Conversation list page size
	WelcomeShown         bool   `json:"welcome_shown,omitempty"`         // Whether welcome modal has been shown

	mu       sync.RWMutex
	filePath string
}

// configDir returns the path to the config directory
func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".mira"), nil
}

// configPath returns the path to the config file
func configPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, or creates a new one if it doesn't exist
func Load() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads the config from an explicit path. Used by Load and tests.
func LoadFrom(path string) (*Config, error) {
	cfg := &Config{
		ServerURL:            DefaultServerURL,
		NotificationsEnabled: true,
		PageSize:             DefaultPageSize,
		filePath:             path,
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, errors.ConfigLoadFailed(path, err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.ConfigLoadFailed(path, err)
	}

	cfg.ensureInitialized()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ensureInitialized fills zero values with defaults after unmarshaling.
//
// Thread-safety: NOT thread-safe; must only be called during single-threaded
// initialization (i.e., from LoadFrom before the Config is shared).
func (c *Config) ensureInitialized() {
	if c.ServerURL == "" {
		c.ServerURL = DefaultServerURL
	}
	if c.PageSize <= 0 {
		c.PageSize = DefaultPageSize
	}
}

// Validate checks the loaded config for values that would break the client.
func (c *Config) Validate() error {
	u, err := url.Parse(c.ServerURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.ConfigInvalid("server_url must be an absolute http(s) URL")
	}
	return nil
}

// Save writes the config to disk. The write is atomic: the config is written
// to a temp file in the same directory and renamed over the old one.
func (c *Config) Save() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.filePath == "" {
		path, err := configPath()
		if err != nil {
			return err
		}
		c.filePath = path
	}

	if err := os.MkdirAll(filepath.Dir(c.filePath), 0755); err != nil {
		return errors.ConfigSaveFailed(c.filePath, err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.ConfigSaveFailed(c.filePath, err)
	}

	tmp := c.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return errors.ConfigSaveFailed(c.filePath, err)
	}
	if err := os.Rename(tmp, c.filePath); err != nil {
		return errors.ConfigSaveFailed(c.filePath, err)
	}
	return nil
}

// GetServerURL returns the configured server URL.
func (c *Config) GetServerURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ServerURL
}

// SetServerURL sets the server URL.
func (c *Config) SetServerURL(u string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ServerURL = u
}

// GetAPIToken returns the configured API token.
func (c *Config) GetAPIToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.APIToken
}

// SetAPIToken sets the API token.
func (c *Config) SetAPIToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.APIToken = token
}

// GetDefaultMode returns the mode used for new conversations, or empty if unset.
func (c *Config) GetDefaultMode() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.DefaultMode
}

// SetDefaultMode sets the mode used for new conversations.
func (c *Config) SetDefaultMode(mode string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.DefaultMode = mode
}

// GetTheme returns the saved theme name, or empty if unset.
func (c *Config) GetTheme() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Theme
}

// SetTheme saves the theme name.
func (c *Config) SetTheme(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Theme = name
}

// GetNotificationsEnabled returns whether desktop notifications are enabled.
func (c *Config) GetNotificationsEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.NotificationsEnabled
}

// SetNotificationsEnabled toggles desktop notifications.
func (c *Config) SetNotificationsEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.NotificationsEnabled = enabled
}

// GetPageSize returns the conversation list page size.
func (c *Config) GetPageSize() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.PageSize
}

// GetWelcomeShown returns whether the welcome modal has been shown.
func (c *Config) GetWelcomeShown() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.WelcomeShown
}

// MarkWelcomeShown records that the welcome modal has been shown.
func (c *Config) MarkWelcomeShown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.WelcomeShown = true
}
