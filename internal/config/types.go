package config

import "time"

// Config is the top-level lookin configuration, corresponding to lookin.yml.
type Config struct {
	// DefaultConfig names the layer configuration (configs/<name>.yaml)
	// used when a session does not ask for one.
	DefaultConfig string `yaml:"default_config" koanf:"default_config"`
	// ContentDir is the content root: a directory, or an http(s) base URL.
	ContentDir string `yaml:"content_dir" koanf:"content_dir"`

	Renderer        string     `yaml:"renderer" koanf:"renderer"`
	MMDCPath        string     `yaml:"mmdc_path" koanf:"mmdc_path"`
	Listen          string     `yaml:"listen" koanf:"listen"`
	LogLevel        string     `yaml:"log_level" koanf:"log_level"`
	Markdown        bool       `yaml:"markdown" koanf:"markdown"`
	DebounceMS      int        `yaml:"debounce_ms" koanf:"debounce_ms"`
	Lang            string     `yaml:"lang" koanf:"lang"`
	AllowAllOrigins bool       `yaml:"allow_all_origins" koanf:"allow_all_origins"`
	AllowedOrigins  []string   `yaml:"allowed_origins" koanf:"allowed_origins"`
	Docs            DocsConfig `yaml:"docs" koanf:"docs"`
}

// DocsConfig holds settings of the documentation generator.
type DocsConfig struct {
	OutputDir string `yaml:"output_dir" koanf:"output_dir"`
}

// Debounce returns the click disambiguation window.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}
