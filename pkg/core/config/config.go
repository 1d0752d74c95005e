package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/xyproto/env/v2"
	"gopkg.in/yaml.v3"

	kerror "github.com/msto63/kaleido/foundation/core/error"
)

// Config holds the complete application configuration
type Config struct {
	General GeneralConfig `toml:"general" yaml:"general"`
	REPL    REPLConfig    `toml:"repl" yaml:"repl"`
	History HistoryConfig `toml:"history" yaml:"history"`
	Server  ServerConfig  `toml:"server" yaml:"server"`
}

// GeneralConfig holds general application settings
type GeneralConfig struct {
	Name        string `toml:"name" yaml:"name"`
	Environment string `toml:"environment" yaml:"environment"`
	DataDir     string `toml:"data_dir" yaml:"data_dir"`
	LogLevel    string `toml:"log_level" yaml:"log_level"`
	LogFormat   string `toml:"log_format" yaml:"log_format"`
	LogFile     string `toml:"log_file" yaml:"log_file"`
}

// REPLConfig holds settings of the interactive loop and the TUI
type REPLConfig struct {
	Prompt string `toml:"prompt" yaml:"prompt"`
	Format string `toml:"format" yaml:"format"` // text, sexpr, tree, json, yaml
	Strict bool   `toml:"strict" yaml:"strict"`
}

// HistoryConfig holds settings of the SQLite construct history
type HistoryConfig struct {
	Enabled   bool     `toml:"enabled" yaml:"enabled"`
	Path      string   `toml:"path" yaml:"path"`
	Retention Duration `toml:"retention" yaml:"retention"`
}

// ServerConfig holds settings of the HTTP/WebSocket parse service
type ServerConfig struct {
	Host           string   `toml:"host" yaml:"host"`
	Port           int      `toml:"port" yaml:"port"`
	ReadTimeout    Duration `toml:"read_timeout" yaml:"read_timeout"`
	WriteTimeout   Duration `toml:"write_timeout" yaml:"write_timeout"`
	MaxMessageSize int64    `toml:"max_message_size" yaml:"max_message_size"`
	AllowedOrigins []string `toml:"allowed_origins" yaml:"allowed_origins"`
}

// Output formats accepted by REPLConfig.Format
var Formats = []string{"text", "sexpr", "tree", "json", "yaml"}

// Duration wraps time.Duration for TOML and YAML parsing
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText formats the duration as a string
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// UnmarshalYAML parses a duration scalar
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	return d.UnmarshalText([]byte(value.Value))
}

// MarshalYAML formats the duration as a string
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Default returns a configuration with every default applied
func Default() *Config {
	cfg := &Config{}
	cfg.applyEnvOverrides()
	cfg.applyDefaults()
	cfg.expandEnvVars()
	return cfg
}

// Load loads configuration from a TOML or YAML file, chosen by extension
func Load(path string) (*Config, error) {
	// Expand environment variables in path
	path = os.ExpandEnv(path)

	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	default:
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	// Apply defaults
	cfg.applyDefaults()

	// Expand environment variables in paths
	cfg.expandEnvVars()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ErrNotFound is returned by LoadFromEnv when neither KALEIDO_CONFIG nor a
// default location names a config file
var ErrNotFound = errors.New("no config file found, set KALEIDO_CONFIG or create configs/kaleido.toml")

// LoadFromEnv loads configuration from the KALEIDO_CONFIG environment
// variable or the first default location that exists
func LoadFromEnv() (*Config, error) {
	path := os.Getenv("KALEIDO_CONFIG")
	if path == "" {
		// Try default locations
		defaultPaths := []string{
			"./configs/kaleido.toml",
			"./kaleido.toml",
			"./kaleido.yaml",
			filepath.Join(os.Getenv("HOME"), ".config/kaleido/config.toml"),
		}
		for _, p := range defaultPaths {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}

	if path == "" {
		return nil, ErrNotFound
	}

	return Load(path)
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	// General
	if c.General.Name == "" {
		c.General.Name = "kaleido"
	}
	if c.General.Environment == "" {
		c.General.Environment = "development"
	}
	if c.General.DataDir == "" {
		c.General.DataDir = "./data"
	}
	if c.General.LogLevel == "" {
		c.General.LogLevel = "warn"
	}
	if c.General.LogFormat == "" {
		c.General.LogFormat = "text"
	}

	// REPL
	if c.REPL.Prompt == "" {
		c.REPL.Prompt = "ready> "
	}
	if c.REPL.Format == "" {
		c.REPL.Format = "sexpr"
	}

	// History
	if c.History.Path == "" {
		c.History.Path = filepath.Join(c.General.DataDir, "history.db")
	}
	if c.History.Retention.Duration == 0 {
		c.History.Retention.Duration = 30 * 24 * time.Hour
	}

	// Server
	if c.Server.Port == 0 {
		c.Server.Port = 9310
	}
	if c.Server.Host == "" {
		c.Server.Host = "127.0.0.1"
	}
	if c.Server.ReadTimeout.Duration == 0 {
		c.Server.ReadTimeout.Duration = 30 * time.Second
	}
	if c.Server.WriteTimeout.Duration == 0 {
		c.Server.WriteTimeout.Duration = 30 * time.Second
	}
	if c.Server.MaxMessageSize == 0 {
		c.Server.MaxMessageSize = 64 * 1024
	}
}

// applyEnvOverrides lets KALEIDO_* variables take precedence over file values
func (c *Config) applyEnvOverrides() {
	if env.Has("KALEIDO_LOG_LEVEL") {
		c.General.LogLevel = env.Str("KALEIDO_LOG_LEVEL")
	}
	if env.Has("KALEIDO_LOG_FORMAT") {
		c.General.LogFormat = env.Str("KALEIDO_LOG_FORMAT")
	}
	if env.Has("KALEIDO_DATA_DIR") {
		c.General.DataDir = env.Str("KALEIDO_DATA_DIR")
	}
	if env.Has("KALEIDO_FORMAT") {
		c.REPL.Format = env.Str("KALEIDO_FORMAT")
	}
	if env.Has("KALEIDO_HISTORY") {
		c.History.Enabled = env.Bool("KALEIDO_HISTORY")
	}
	if env.Has("KALEIDO_SERVER_PORT") {
		c.Server.Port = env.Int("KALEIDO_SERVER_PORT", c.Server.Port)
	}
}

// expandEnvVars expands environment variables in configuration values
func (c *Config) expandEnvVars() {
	c.General.DataDir = os.ExpandEnv(c.General.DataDir)
	c.General.LogFile = os.ExpandEnv(c.General.LogFile)
	c.History.Path = os.ExpandEnv(c.History.Path)
}

// Validate checks values that have no sensible fallback
func (c *Config) Validate() error {
	if !IsFormat(c.REPL.Format) {
		return kerror.Newf("unknown output format %q, expected one of %s", c.REPL.Format, strings.Join(Formats, ", ")).
			WithCode(kerror.CodeConfigError).
			WithDetail("field", "repl.format")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return kerror.Newf("server port %d out of range", c.Server.Port).
			WithCode(kerror.CodeConfigError).
			WithDetail("field", "server.port")
	}
	if c.Server.MaxMessageSize < 0 {
		return kerror.New("server max_message_size must not be negative").
			WithCode(kerror.CodeConfigError).
			WithDetail("field", "server.max_message_size")
	}
	return nil
}

// IsFormat reports whether name is a supported output format
func IsFormat(name string) bool {
	for _, f := range Formats {
		if f == name {
			return true
		}
	}
	return false
}

// ServerAddress returns the listen address of the parse service
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
