package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/macropath/macropath/internal/credstore"
	"github.com/macropath/macropath/internal/utils"
)

var (
	home, _               = os.UserHomeDir()
	DefaultConfigDir      = filepath.Join(home, ".macropath")
	DefaultConfigPath     = filepath.Join(DefaultConfigDir, "config.json")
	DefaultLogFilePath    = filepath.Join(DefaultConfigDir, "logs", "macropath.log")
	DefaultStorePath      = filepath.Join(DefaultConfigDir, "credentials")
	DefaultServerURL      = "http://127.0.0.1:8080"
	DefaultStoreKind      = string(credstore.KindFile)
	DefaultRequestTimeout = 30 * time.Second
)

var ErrNoServerURL = errors.New("server url is required")

type Config struct {
	ServerURL           string        `json:"server_url" mapstructure:"server_url"`
	Email               string        `json:"email,omitempty" mapstructure:"email"`
	StoreKind           string        `json:"store_kind" mapstructure:"store_kind"`
	StorePath           string        `json:"store_path,omitempty" mapstructure:"store_path"`
	StoreSecret         string        `json:"-" mapstructure:"store_secret"`
	RefreshSingleFlight bool          `json:"refresh_single_flight,omitempty" mapstructure:"refresh_single_flight"`
	RequestTimeout      time.Duration `json:"request_timeout,omitempty" mapstructure:"request_timeout"`
	Path                string        `json:"-" mapstructure:"-"`
}

// Default returns a config pointing at the local mock server.
func Default() *Config {
	return &Config{
		ServerURL:      DefaultServerURL,
		StoreKind:      DefaultStoreKind,
		StorePath:      DefaultStorePath,
		RequestTimeout: DefaultRequestTimeout,
		Path:           DefaultConfigPath,
	}
}

// Validate normalizes the config in place and fills unset fields with defaults.
func (c *Config) Validate() error {
	if c.ServerURL == "" {
		return ErrNoServerURL
	}
	if err := utils.ValidateURL(c.ServerURL); err != nil {
		return fmt.Errorf("server url: %w", err)
	}

	if c.Email != "" {
		c.Email = utils.NormalizeEmail(c.Email)
		if err := utils.ValidateEmail(c.Email); err != nil {
			return err
		}
	}

	if c.StoreKind == "" {
		c.StoreKind = DefaultStoreKind
	}
	if !credstore.Kind(c.StoreKind).Valid() {
		return fmt.Errorf("store kind: %w: %q", credstore.ErrUnknownKind, c.StoreKind)
	}

	if c.StoreKind != string(credstore.KindMemory) {
		if c.StorePath == "" {
			c.StorePath = DefaultStorePath
		}
		path, err := utils.ResolvePath(c.StorePath)
		if err != nil {
			return fmt.Errorf("store path: %w", err)
		}
		c.StorePath = path
	}

	if c.RequestTimeout < 0 {
		return fmt.Errorf("request timeout must not be negative, got %s", c.RequestTimeout)
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}

	if c.Path == "" {
		c.Path = DefaultConfigPath
	}
	path, err := utils.ResolvePath(c.Path)
	if err != nil {
		return fmt.Errorf("config path: %w", err)
	}
	c.Path = path

	return nil
}

// Secret is the key material for the encrypted file store. The device id is
// used unless store_secret is configured.
func (c *Config) Secret() []byte {
	if c.StoreSecret != "" {
		return []byte(c.StoreSecret)
	}
	return []byte(utils.HWID)
}

// Save writes the config to its Path. The store secret is never written.
func (c *Config) Save() error {
	if c.Path == "" {
		return errors.New("config path is empty")
	}
	if err := utils.EnsureParent(c.Path); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(c.Path, data, 0o600)
}

func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config %q: %w", path, err)
	}
	cfg.Path = path

	return cfg, nil
}
