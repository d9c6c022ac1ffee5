// Package config provides configuration management for the fips197 CLI tool
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

const (
	EnvConfigPath = "FIPS197_CONFIG"
	appDir        = "fips197"
)

// Config represents the main configuration structure
type Config struct {
	Version  string          `json:"version"`
	Defaults DefaultSettings `json:"defaults"`
	Security SecurityConfig  `json:"security"`
	Relay    RelayConfig     `json:"relay"`
	UI       UIConfig        `json:"ui"`
	Storage  StorageConfig   `json:"storage"`
}

// DefaultSettings contains default values for common operations
type DefaultSettings struct {
	KeySize    int `json:"key_size"`   // Default: 128
	Iterations int `json:"iterations"` // PBKDF2 rounds for key derive and the keyring
	Parts      int `json:"parts"`      // Default: 3
	Threshold  int `json:"threshold"`  // Default: 2
	Workers    int `json:"workers"`    // 0 uses every CPU
}

type SecurityConfig struct {
	MinPassphraseLength int    `json:"min_passphrase_length"`
	KDF                 string `json:"kdf"` // pbkdf2-sha256 or argon2id
}

type RelayConfig struct {
	Listen       string   `json:"listen"`
	Server       string   `json:"server"`
	ReadTimeout  Duration `json:"read_timeout"`
	MaxFrameSize int      `json:"max_frame_size"`
	PrimeBits    int      `json:"prime_bits"`
}

// UIConfig contains user interface settings
type UIConfig struct {
	UseColor bool `json:"use_color"`
}

type StorageConfig struct {
	KeyringPath string `json:"keyring_path"` // Empty means keyring.json next to the config file
}

// Duration is a time.Duration written as a Go duration string.
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// ConfigManager manages configuration loading and saving
type ConfigManager struct {
	config     *Config
	configPath string
}

// NewConfigManager loads the configuration from the default location,
// writing the defaults there on first use.
func NewConfigManager() (*ConfigManager, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}
	return NewConfigManagerAt(configPath)
}

func NewConfigManagerAt(configPath string) (*ConfigManager, error) {
	cm := &ConfigManager{configPath: configPath}

	err := cm.LoadConfig()
	if errors.Is(err, os.ErrNotExist) {
		cm.config = DefaultConfig()
		if err := cm.SaveConfig(); err != nil {
			return nil, fmt.Errorf("failed to save default config: %w", err)
		}
		return cm, nil
	}
	if err != nil {
		return nil, err
	}

	return cm, nil
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: "1.0.0",
		Defaults: DefaultSettings{
			KeySize:    128,
			Iterations: 100000,
			Parts:      3,
			Threshold:  2,
			Workers:    0,
		},
		Security: SecurityConfig{
			MinPassphraseLength: 8,
			KDF:                 "pbkdf2-sha256",
		},
		Relay: RelayConfig{
			Listen:       "127.0.0.1:9000",
			Server:       "127.0.0.1:9000",
			ReadTimeout:  Duration(10 * time.Second),
			MaxFrameSize: 1 << 20,
			PrimeBits:    512,
		},
		UI: UIConfig{
			UseColor: true,
		},
	}
}

// LoadConfig loads the configuration from disk. Fields missing from the
// file keep their default values.
func (cm *ConfigManager) LoadConfig() error {
	data, err := os.ReadFile(cm.configPath)
	if err != nil {
		return err
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid config %s: %w", cm.configPath, err)
	}

	cm.config = config
	return nil
}

// SaveConfig saves the configuration to disk
func (cm *ConfigManager) SaveConfig() error {
	configDir := filepath.Dir(cm.configPath)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cm.config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(cm.configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// GetConfig returns the current configuration
func (cm *ConfigManager) GetConfig() *Config {
	return cm.config
}

// SetConfig updates the configuration
func (cm *ConfigManager) SetConfig(config *Config) {
	cm.config = config
}

func (cm *ConfigManager) ConfigPath() string {
	return cm.configPath
}

// KeyringPath resolves the keyring location, expanding a leading "~/".
func (cm *ConfigManager) KeyringPath() (string, error) {
	p := cm.config.Storage.KeyringPath
	if p == "" {
		return filepath.Join(filepath.Dir(cm.configPath), "keyring.json"), nil
	}
	if strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		p = filepath.Join(home, p[2:])
	}
	return p, nil
}

func (c *Config) Validate() error {
	switch c.Defaults.KeySize {
	case 128, 192, 256:
	default:
		return fmt.Errorf("defaults.key_size must be 128, 192 or 256, got %d", c.Defaults.KeySize)
	}
	if c.Defaults.Iterations <= 0 {
		return fmt.Errorf("defaults.iterations must be positive")
	}
	if c.Defaults.Threshold < 2 || c.Defaults.Threshold > c.Defaults.Parts {
		return fmt.Errorf("defaults.threshold must be between 2 and defaults.parts")
	}
	if c.Defaults.Workers < 0 {
		return fmt.Errorf("defaults.workers cannot be negative")
	}
	switch c.Security.KDF {
	case "pbkdf2-sha256", "argon2id":
	default:
		return fmt.Errorf("security.kdf %q is not supported", c.Security.KDF)
	}
	if c.Relay.ReadTimeout <= 0 {
		return fmt.Errorf("relay.read_timeout must be positive")
	}
	if c.Relay.MaxFrameSize < 64 {
		return fmt.Errorf("relay.max_frame_size must be at least 64 bytes")
	}
	if c.Relay.PrimeBits < 8 {
		return fmt.Errorf("relay.prime_bits must be at least 8")
	}
	return nil
}

// getConfigPath returns the configuration file path
func getConfigPath() (string, error) {
	if customPath := os.Getenv(EnvConfigPath); customPath != "" {
		return customPath, nil
	}

	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, appDir, "config.json"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", appDir, "config.json"), nil
}
