package config

import "github.com/gnemet/lookin/internal/visual"

// DefaultConfigFile is the config file read when --config is not given.
const DefaultConfigFile = "lookin.yml"

// validRenderers is the set of recognized renderer values.
var validRenderers = map[string]bool{
	visual.RendererAuto:    true,
	visual.RendererMMDC:    true,
	visual.RendererOutline: true,
	visual.RendererNone:    true,
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DefaultConfig: "jira-monitor",
		ContentDir:    ".",
		Renderer:      visual.RendererAuto,
		MMDCPath:      "mmdc",
		Listen:        ":8080",
		LogLevel:      "info",
		Markdown:      true,
		DebounceMS:    250,
		Lang:          "en",
		Docs: DocsConfig{
			OutputDir: "docs",
		},
	}
}
