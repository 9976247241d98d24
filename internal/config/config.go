// Package config handles the XDG configuration directory, the settings file
// and the paths derived from them.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// AppName is the application directory name.
	AppName = "zendo"

	// SettingsFile is the settings filename inside the config directory.
	SettingsFile = "config.yaml"

	// EnvFile is loaded into the environment before settings are resolved.
	EnvFile = ".env"

	// OAuthClientFile is the OAuth client credentials filename, used by the
	// googletasks backend.
	OAuthClientFile = "oauth_client.json"

	// DataDir holds the file-backed key-value store.
	DataDir = "data"

	// DBFile is the SQLite key-value store.
	DBFile = "zendo.db"
)

// Backend names.
const (
	BackendHTTP        = "http"
	BackendGoogleTasks = "googletasks"
)

// Storage names.
const (
	StorageFile   = "file"
	StorageSQLite = "sqlite"
)

// Defaults.
const (
	DefaultAPIURL       = "http://localhost:5000/api"
	DefaultTimeout      = 5 * time.Second
	DefaultAdvisorModel = "gemini-3-flash-preview"
	DefaultCategory     = "Personal"
	DefaultPriority     = "medium"
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool

	// Settings is the resolved content of config.yaml plus environment
	// overrides.
	Settings Settings
}

// Settings is the user-editable part of the configuration.
type Settings struct {
	Backend            string        `yaml:"backend"`
	APIURL             string        `yaml:"api_url"`
	Timeout            time.Duration `yaml:"timeout"`
	Storage            string        `yaml:"storage"`
	LogLevel           string        `yaml:"log_level"`
	RefreshCacheOnRead bool          `yaml:"refresh_cache_on_read"`
	DefaultCategory    string        `yaml:"default_category"`
	DefaultPriority    string        `yaml:"default_priority"`
	Advisor            AdvisorConfig `yaml:"advisor"`
}

// AdvisorConfig configures the generative advisor.
type AdvisorConfig struct {
	Model string `yaml:"model"`
	// APIKey is never read from the file; it comes from GEMINI_API_KEY or
	// API_KEY.
	APIKey string `yaml:"-"`
}

// DefaultSettings returns the settings used when no file exists.
func DefaultSettings() Settings {
	return Settings{
		Backend:         BackendHTTP,
		APIURL:          DefaultAPIURL,
		Timeout:         DefaultTimeout,
		Storage:         StorageFile,
		LogLevel:        "warn",
		DefaultCategory: DefaultCategory,
		DefaultPriority: DefaultPriority,
		Advisor:         AdvisorConfig{Model: DefaultAdvisorModel},
	}
}

// New creates a Config with the default or specified config directory and
// default settings. Use Load to read the settings file.
// If configDir is empty, uses XDG_CONFIG_HOME/zendo or $HOME/.config/zendo.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	return &Config{Dir: dir, Settings: DefaultSettings()}, nil
}

// Load creates a Config and resolves its settings from .env, config.yaml and
// the environment, in that order of increasing precedence.
func Load(configDir string) (*Config, error) {
	cfg, err := New(configDir)
	if err != nil {
		return nil, err
	}

	// godotenv.Load never overrides variables already set.
	if err := godotenv.Load(filepath.Join(cfg.Dir, EnvFile)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", EnvFile, err)
	}

	data, err := os.ReadFile(cfg.SettingsPath())
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read %s: %w", SettingsFile, err)
	default:
		if err := yaml.Unmarshal(data, &cfg.Settings); err != nil {
			return nil, fmt.Errorf("parse %s: %w", SettingsFile, err)
		}
	}

	cfg.Settings.applyEnv()
	if err := cfg.Settings.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (s *Settings) applyEnv() {
	if v := os.Getenv("ZENDO_API_URL"); v != "" {
		s.APIURL = v
	}
	if v := os.Getenv("ZENDO_BACKEND"); v != "" {
		s.Backend = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		s.Advisor.APIKey = v
	} else if v := os.Getenv("API_KEY"); v != "" {
		s.Advisor.APIKey = v
	}
}

// Validate checks enumerated values and fills blanks with defaults.
func (s *Settings) Validate() error {
	def := DefaultSettings()

	s.Backend = strings.ToLower(strings.TrimSpace(s.Backend))
	switch s.Backend {
	case "":
		s.Backend = def.Backend
	case BackendHTTP, BackendGoogleTasks:
	default:
		return fmt.Errorf("invalid backend: %q (want %s or %s)", s.Backend, BackendHTTP, BackendGoogleTasks)
	}

	s.Storage = strings.ToLower(strings.TrimSpace(s.Storage))
	switch s.Storage {
	case "":
		s.Storage = def.Storage
	case StorageFile, StorageSQLite:
	default:
		return fmt.Errorf("invalid storage: %q (want %s or %s)", s.Storage, StorageFile, StorageSQLite)
	}

	if s.APIURL == "" {
		s.APIURL = def.APIURL
	}
	if u, err := url.Parse(s.APIURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid api_url: %q", s.APIURL)
	}

	if s.Timeout < 0 {
		return fmt.Errorf("invalid timeout: %s", s.Timeout)
	}
	if s.Timeout == 0 {
		s.Timeout = def.Timeout
	}

	if s.DefaultCategory == "" {
		s.DefaultCategory = def.DefaultCategory
	}
	if s.DefaultPriority == "" {
		s.DefaultPriority = def.DefaultPriority
	}
	if s.Advisor.Model == "" {
		s.Advisor.Model = def.Advisor.Model
	}
	return nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// SettingsPath returns the path to config.yaml.
func (c *Config) SettingsPath() string {
	return filepath.Join(c.Dir, SettingsFile)
}

// OAuthClientPath returns the path to the OAuth client credentials file.
func (c *Config) OAuthClientPath() string {
	return filepath.Join(c.Dir, OAuthClientFile)
}

// DataPath returns the directory of the file-backed key-value store.
func (c *Config) DataPath() string {
	return filepath.Join(c.Dir, DataDir)
}

// DBPath returns the path of the SQLite key-value store.
func (c *Config) DBPath() string {
	return filepath.Join(c.Dir, DBFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// HasOAuthClient checks if the OAuth client credentials file exists.
func (c *Config) HasOAuthClient() bool {
	_, err := os.Stat(c.OAuthClientPath())
	return err == nil
}
