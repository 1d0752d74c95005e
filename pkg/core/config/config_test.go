package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	kerror "github.com/msto63/kaleido/foundation/core/error"
)

func TestDuration_UnmarshalText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected time.Duration
		wantErr  bool
	}{
		{"seconds", "30s", 30 * time.Second, false},
		{"minutes", "5m", 5 * time.Minute, false},
		{"hours", "2h", 2 * time.Hour, false},
		{"complex", "1h30m", 90 * time.Minute, false},
		{"milliseconds", "100ms", 100 * time.Millisecond, false},
		{"invalid", "invalid", 0, true},
		{"empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Duration
			err := d.UnmarshalText([]byte(tt.input))

			if (err != nil) != tt.wantErr {
				t.Errorf("UnmarshalText() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if !tt.wantErr && d.Duration != tt.expected {
				t.Errorf("UnmarshalText() = %v, want %v", d.Duration, tt.expected)
			}
		})
	}
}

func TestDuration_MarshalText(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		expected string
	}{
		{"seconds", 30 * time.Second, "30s"},
		{"minutes", 5 * time.Minute, "5m0s"},
		{"hours", 2 * time.Hour, "2h0m0s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Duration{tt.duration}
			result, err := d.MarshalText()

			if err != nil {
				t.Errorf("MarshalText() error = %v", err)
				return
			}

			if string(result) != tt.expected {
				t.Errorf("MarshalText() = %v, want %v", string(result), tt.expected)
			}
		})
	}
}

func TestConfig_applyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	// General defaults
	if cfg.General.Name != "kaleido" {
		t.Errorf("General.Name = %v, want kaleido", cfg.General.Name)
	}
	if cfg.General.DataDir != "./data" {
		t.Errorf("General.DataDir = %v, want ./data", cfg.General.DataDir)
	}
	if cfg.General.LogLevel != "warn" {
		t.Errorf("General.LogLevel = %v, want warn", cfg.General.LogLevel)
	}

	// REPL defaults
	if cfg.REPL.Prompt != "ready> " {
		t.Errorf("REPL.Prompt = %q, want %q", cfg.REPL.Prompt, "ready> ")
	}
	if cfg.REPL.Format != "sexpr" {
		t.Errorf("REPL.Format = %v, want sexpr", cfg.REPL.Format)
	}

	// History defaults
	if cfg.History.Enabled {
		t.Error("History.Enabled should default to false")
	}
	if cfg.History.Path != filepath.Join("./data", "history.db") {
		t.Errorf("History.Path = %v", cfg.History.Path)
	}
	if cfg.History.Retention.Duration != 30*24*time.Hour {
		t.Errorf("History.Retention = %v, want 720h", cfg.History.Retention.Duration)
	}

	// Server defaults
	if cfg.Server.Port != 9310 {
		t.Errorf("Server.Port = %v, want 9310", cfg.Server.Port)
	}
	if cfg.Server.MaxMessageSize != 64*1024 {
		t.Errorf("Server.MaxMessageSize = %v, want 65536", cfg.Server.MaxMessageSize)
	}
	if cfg.Server.ReadTimeout.Duration != 30*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want 30s", cfg.Server.ReadTimeout.Duration)
	}
}

func TestConfig_ServerAddress(t *testing.T) {
	cfg := Default()
	if got := cfg.ServerAddress(); got != "127.0.0.1:9310" {
		t.Errorf("ServerAddress() = %v, want 127.0.0.1:9310", got)
	}

	cfg.Server.Host = "0.0.0.0"
	cfg.Server.Port = 8080
	if got := cfg.ServerAddress(); got != "0.0.0.0:8080" {
		t.Errorf("ServerAddress() = %v, want 0.0.0.0:8080", got)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"json format", func(c *Config) { c.REPL.Format = "json" }, false},
		{"unknown format", func(c *Config) { c.REPL.Format = "xml" }, true},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }, true},
		{"negative message size", func(c *Config) { c.Server.MaxMessageSize = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !kerror.HasCode(err, kerror.CodeConfigError) {
				t.Errorf("expected CONFIG_ERROR, got %v", kerror.GetCode(err))
			}
		})
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path/config.toml")
	if err == nil {
		t.Error("Load() expected error for non-existent file")
	}
}

func TestLoad_ValidTOML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "kaleido.toml")

	configContent := `
[general]
name = "test-kaleido"
log_level = "debug"

[repl]
format = "tree"
strict = true

[history]
enabled = true
retention = "48h"

[server]
port = 9999
read_timeout = "5s"
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.General.Name != "test-kaleido" {
		t.Errorf("General.Name = %v, want test-kaleido", cfg.General.Name)
	}
	if cfg.REPL.Format != "tree" || !cfg.REPL.Strict {
		t.Errorf("REPL = %+v, want tree/strict", cfg.REPL)
	}
	if !cfg.History.Enabled || cfg.History.Retention.Duration != 48*time.Hour {
		t.Errorf("History = %+v", cfg.History)
	}
	if cfg.Server.Port != 9999 || cfg.Server.ReadTimeout.Duration != 5*time.Second {
		t.Errorf("Server = %+v", cfg.Server)
	}

	// Check defaults were applied for missing values
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server.Host = %v, want 127.0.0.1 (default)", cfg.Server.Host)
	}
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "kaleido.yaml")

	configContent := `
general:
  data_dir: /tmp/kaleido
repl:
  prompt: "> "
  format: json
history:
  retention: 2h
server:
  port: 8088
  allowed_origins:
    - http://localhost:3000
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.REPL.Prompt != "> " || cfg.REPL.Format != "json" {
		t.Errorf("REPL = %+v", cfg.REPL)
	}
	if cfg.History.Retention.Duration != 2*time.Hour {
		t.Errorf("History.Retention = %v, want 2h", cfg.History.Retention.Duration)
	}
	if cfg.History.Path != filepath.Join("/tmp/kaleido", "history.db") {
		t.Errorf("History.Path = %v, derived from data_dir expected", cfg.History.Path)
	}
	if cfg.Server.Port != 8088 || len(cfg.Server.AllowedOrigins) != 1 {
		t.Errorf("Server = %+v", cfg.Server)
	}
}

func TestLoad_InvalidFormat(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "kaleido.toml")
	if err := os.WriteFile(configPath, []byte("[repl]\nformat = \"xml\"\n"), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	if _, err := Load(configPath); err == nil {
		t.Error("Load() expected validation error")
	}
}

func TestConfig_expandEnvVars(t *testing.T) {
	t.Setenv("KALEIDO_TEST_DIR", "/srv/kaleido")

	cfg := &Config{
		General: GeneralConfig{DataDir: "$KALEIDO_TEST_DIR/data"},
		History: HistoryConfig{Path: "${KALEIDO_TEST_DIR}/history.db"},
	}

	cfg.expandEnvVars()

	if cfg.General.DataDir != "/srv/kaleido/data" {
		t.Errorf("DataDir = %v, want /srv/kaleido/data", cfg.General.DataDir)
	}
	if cfg.History.Path != "/srv/kaleido/history.db" {
		t.Errorf("History.Path = %v, want /srv/kaleido/history.db", cfg.History.Path)
	}
}

func TestLoadFromEnv(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "custom.toml")
	if err := os.WriteFile(configPath, []byte("[general]\nname = \"from-env\"\n"), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	t.Setenv("KALEIDO_CONFIG", configPath)

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}
	if cfg.General.Name != "from-env" {
		t.Errorf("General.Name = %v, want from-env", cfg.General.Name)
	}
}

func TestLoadFromEnv_NoConfigFound(t *testing.T) {
	t.Setenv("KALEIDO_CONFIG", "")

	// Change to a temp directory without config files
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	originalWd, _ := os.Getwd()
	os.Chdir(tmpDir)
	defer os.Chdir(originalWd)

	_, err := LoadFromEnv()
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("LoadFromEnv() error = %v, want ErrNotFound", err)
	}
}

func TestConfig_applyEnvOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "kaleido.toml")
	content := `
[general]
log_level = "error"

[server]
port = 9400
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	t.Setenv("KALEIDO_LOG_LEVEL", "debug")
	t.Setenv("KALEIDO_DATA_DIR", tmpDir)
	t.Setenv("KALEIDO_HISTORY", "true")
	t.Setenv("KALEIDO_SERVER_PORT", "9500")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.General.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.General.LogLevel)
	}
	if !cfg.History.Enabled {
		t.Error("History.Enabled should be set from KALEIDO_HISTORY")
	}
	if cfg.Server.Port != 9500 {
		t.Errorf("Port = %d, want 9500", cfg.Server.Port)
	}
	if want := filepath.Join(tmpDir, "history.db"); cfg.History.Path != want {
		t.Errorf("History.Path = %q, want %q", cfg.History.Path, want)
	}

	// file values stay when no variable is set
	if cfg.General.LogFormat != "text" {
		t.Errorf("LogFormat = %q, want default text", cfg.General.LogFormat)
	}
}

func TestDefault_EnvOverrides(t *testing.T) {
	t.Setenv("KALEIDO_FORMAT", "json")

	if got := Default().REPL.Format; got != "json" {
		t.Errorf("REPL.Format = %q, want json", got)
	}
}
