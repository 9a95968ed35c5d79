// Package config loads finsight configuration from defaults and
// FINSIGHT_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type Config struct {
	Server   ServerConfig
	Provider ProviderConfig
	Modes    ModesConfig
	Storage  StorageConfig
	Log      LogConfig
	API      APIConfig
}

type ServerConfig struct {
	Port int
}

type ProviderConfig struct {
	BaseURL    string
	APIKey     string
	ChatModel  string
	EmbedModel string
}

type ModesConfig struct {
	// Default is substituted for absent or unknown modes.
	Default string
	// Enabled is the comma-separated allow-list of pipeline modes.
	Enabled string
}

type StorageConfig struct {
	DataDir string
}

type LogConfig struct {
	Level string
}

type APIConfig struct {
	// Token enables bearer auth on the HTTP API when non-empty.
	Token string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 4100,
		},
		Provider: ProviderConfig{
			BaseURL:    "http://localhost:11434/v1",
			ChatModel:  "mistral-nemo",
			EmbedModel: "nomic-embed-text",
		},
		Modes: ModesConfig{
			Default: "coordinated",
			Enabled: "coordinated,specialized-agent",
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".finsight"
	}
	return filepath.Join(home, ".finsight")
}

// Load builds the configuration from defaults and environment overrides.
func Load() (Config, error) {
	cfg := defaults()
	applyEnvOverrides(&cfg)

	if cfg.Modes.Default == "" {
		return Config{}, fmt.Errorf("default mode must not be empty")
	}
	if !containsMode(cfg.EnabledModes(), cfg.Modes.Default) {
		return Config{}, fmt.Errorf("default mode %q is not in enabled modes %q", cfg.Modes.Default, cfg.Modes.Enabled)
	}

	return cfg, nil
}

// EnabledModes returns the parsed allow-list, trimmed and without empty
// entries.
func (c Config) EnabledModes() []string {
	var modes []string
	for _, m := range strings.Split(c.Modes.Enabled, ",") {
		m = strings.TrimSpace(m)
		if m != "" {
			modes = append(modes, m)
		}
	}
	return modes
}

func containsMode(modes []string, mode string) bool {
	for _, m := range modes {
		if m == mode {
			return true
		}
	}
	return false
}
