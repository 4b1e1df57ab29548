// Package config loads and persists mend configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// DataDirName is the per-room state directory created next to the config
const DataDirName = ".mend"

// Config represents the complete mend configuration
type Config struct {
	Version int        `json:"version" mapstructure:"version"`
	Room    RoomConfig `json:"room" mapstructure:"room"`

	Storage StorageConfig `json:"storage" mapstructure:"storage"`
	Scan    ScanConfig    `json:"scan" mapstructure:"scan"`
	Healing HealingConfig `json:"healing" mapstructure:"healing"`
	Daemon  DaemonConfig  `json:"daemon" mapstructure:"daemon"`
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
}

// RoomConfig identifies the bounded-context tenant this process serves
type RoomConfig struct {
	ID string `json:"id" mapstructure:"id"`

	// DeclarationFile optionally points at a ROOMS.toml declaring known rooms
	DeclarationFile string `json:"declarationFile,omitempty" mapstructure:"declarationFile"`
}

// StorageConfig contains durable storage configuration
type StorageConfig struct {
	// Path overrides the default <dataDir>/mend.db location
	Path string `json:"path,omitempty" mapstructure:"path"`
}

// ScanConfig contains codebase scanner configuration
type ScanConfig struct {
	Enabled          bool   `json:"enabled" mapstructure:"enabled"`
	MaxFileSizeBytes int    `json:"maxFileSizeBytes" mapstructure:"maxFileSizeBytes"`
	PatternFile      string `json:"patternFile,omitempty" mapstructure:"patternFile"`
}

// HealingConfig contains healing orchestrator configuration
type HealingConfig struct {
	// QueueSize bounds the FIFO queue of pending healing requests
	QueueSize int `json:"queueSize" mapstructure:"queueSize"`

	// SeverityThreshold is the minimum prediction severity that produces actions
	SeverityThreshold int `json:"severityThreshold" mapstructure:"severityThreshold"`

	// RiskThreshold is the overall risk above which a capture auto-initiates healing
	RiskThreshold int `json:"riskThreshold" mapstructure:"riskThreshold"`

	// AutoHeal enables healing directly from high-risk captures
	AutoHeal bool `json:"autoHeal" mapstructure:"autoHeal"`
}

// DaemonConfig contains HTTP daemon configuration
type DaemonConfig struct {
	Bind string     `json:"bind" mapstructure:"bind"`
	Port int        `json:"port" mapstructure:"port"`
	Auth AuthConfig `json:"auth" mapstructure:"auth"`
}

// AuthConfig contains daemon authentication configuration
type AuthConfig struct {
	Enabled bool `json:"enabled" mapstructure:"enabled"`

	// TokenHash is the bcrypt hash of the accepted bearer token
	TokenHash string `json:"tokenHash,omitempty" mapstructure:"tokenHash"`

	// TokenFile points at a file holding the plaintext token (hashed at load)
	TokenFile string `json:"tokenFile,omitempty" mapstructure:"tokenFile"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `json:"level" mapstructure:"level"`
	Format string `json:"format" mapstructure:"format"`
	File   string `json:"file,omitempty" mapstructure:"file"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Room:    RoomConfig{ID: "default"},
		Scan: ScanConfig{
			Enabled:          true,
			MaxFileSizeBytes: 1024 * 1024,
		},
		Healing: HealingConfig{
			QueueSize:         32,
			SeverityThreshold: 7,
			RiskThreshold:     50,
			AutoHeal:          false,
		},
		Daemon: DaemonConfig{
			Bind: "127.0.0.1",
			Port: 7430,
			Auth: AuthConfig{Enabled: false},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "human",
		},
	}
}

// Load reads configuration from <root>/.mend/config.json.
// Environment variables prefixed MEND_ override file values
// (MEND_HEALING_QUEUESIZE, MEND_ROOM_ID, ...).
func Load(root string) (*Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("version", defaults.Version)
	v.SetDefault("room.id", defaults.Room.ID)
	v.SetDefault("scan.enabled", defaults.Scan.Enabled)
	v.SetDefault("scan.maxFileSizeBytes", defaults.Scan.MaxFileSizeBytes)
	v.SetDefault("healing.queueSize", defaults.Healing.QueueSize)
	v.SetDefault("healing.severityThreshold", defaults.Healing.SeverityThreshold)
	v.SetDefault("healing.riskThreshold", defaults.Healing.RiskThreshold)
	v.SetDefault("healing.autoHeal", defaults.Healing.AutoHeal)
	v.SetDefault("daemon.bind", defaults.Daemon.Bind)
	v.SetDefault("daemon.port", defaults.Daemon.Port)
	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.format", defaults.Logging.Format)

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(root, DataDirName))

	v.SetEnvPrefix("MEND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Missing file falls through to defaults plus env overrides
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to <root>/.mend/config.json
func (c *Config) Save(root string) error {
	dir := filepath.Join(root, DataDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s directory: %w", DataDirName, err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate checks configuration invariants
func (c *Config) Validate() error {
	if c.Room.ID == "" {
		return fmt.Errorf("room.id must not be empty")
	}
	if c.Healing.QueueSize <= 0 {
		return fmt.Errorf("healing.queueSize must be positive, got %d", c.Healing.QueueSize)
	}
	if c.Healing.SeverityThreshold < 0 || c.Healing.SeverityThreshold > 10 {
		return fmt.Errorf("healing.severityThreshold must be in [0,10], got %d", c.Healing.SeverityThreshold)
	}
	if c.Healing.RiskThreshold < 0 || c.Healing.RiskThreshold > 100 {
		return fmt.Errorf("healing.riskThreshold must be in [0,100], got %d", c.Healing.RiskThreshold)
	}
	return nil
}

// DBPath resolves the SQLite database path for this configuration
func (c *Config) DBPath(root string) string {
	if c.Storage.Path != "" {
		return c.Storage.Path
	}
	return filepath.Join(root, DataDirName, "mend.db")
}
