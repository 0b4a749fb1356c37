package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "LOOKIN_"

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (LOOKIN_*). A .env file next to the config
// file is loaded first; it never replaces variables already set.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	cfg := DefaultConfig()

	if err := loadDotEnv(filepath.Join(filepath.Dir(path), ".env")); err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	// LOOKIN_CONTENT_DIR -> content_dir, LOOKIN_DOCS__OUTPUT_DIR -> docs.output_dir.
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("loading %s: %w", path, err)
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.DefaultConfig == "" {
		return fmt.Errorf("default_config is required")
	}
	if strings.ContainsAny(c.DefaultConfig, `/\`) {
		return fmt.Errorf("invalid default_config %q: must be a bare name", c.DefaultConfig)
	}

	if c.ContentDir == "" {
		return fmt.Errorf("content_dir is required")
	}

	if !validRenderers[c.Renderer] {
		return fmt.Errorf("invalid renderer %q: must be one of auto, mmdc, outline, none", c.Renderer)
	}

	if c.Listen != "" {
		if _, _, err := net.SplitHostPort(c.Listen); err != nil {
			return fmt.Errorf("invalid listen address %q: %w", c.Listen, err)
		}
	}

	if c.DebounceMS <= 0 {
		return fmt.Errorf("debounce_ms must be positive")
	}

	if c.Lang != "en" && c.Lang != "hu" {
		return fmt.Errorf("invalid lang %q: must be en or hu", c.Lang)
	}

	return nil
}

// Remote reports whether content is served over HTTP.
func (c *Config) Remote() bool {
	return strings.HasPrefix(c.ContentDir, "http://") || strings.HasPrefix(c.ContentDir, "https://")
}
