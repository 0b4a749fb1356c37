package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.DefaultConfig != "jira-monitor" {
		t.Errorf("expected default_config %q, got %q", "jira-monitor", cfg.DefaultConfig)
	}
	if cfg.Renderer != "auto" {
		t.Errorf("expected default renderer auto, got %q", cfg.Renderer)
	}
	if cfg.Listen != ":8080" {
		t.Errorf("expected default listen :8080, got %q", cfg.Listen)
	}
	if cfg.Debounce() != 250*time.Millisecond {
		t.Errorf("expected 250ms debounce, got %v", cfg.Debounce())
	}
	if !cfg.Markdown || cfg.AllowAllOrigins {
		t.Errorf("unexpected flags: markdown=%v allow_all_origins=%v", cfg.Markdown, cfg.AllowAllOrigins)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lookin.yml")

	original := DefaultConfig()
	original.DefaultConfig = "sales"
	original.ContentDir = "https://content.example.com/lookin"
	original.Renderer = "outline"
	original.Markdown = false
	original.AllowedOrigins = []string{"https://a.example.com", "https://b.example.com"}
	original.Docs.OutputDir = "out"

	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.DefaultConfig != "sales" {
		t.Errorf("default_config: got %q", loaded.DefaultConfig)
	}
	if loaded.ContentDir != original.ContentDir || !loaded.Remote() {
		t.Errorf("content_dir: got %q", loaded.ContentDir)
	}
	if loaded.Renderer != "outline" {
		t.Errorf("renderer: got %q", loaded.Renderer)
	}
	if loaded.Markdown {
		t.Error("markdown: false was not preserved")
	}
	if loaded.Docs.OutputDir != "out" {
		t.Errorf("docs.output_dir: got %q", loaded.Docs.OutputDir)
	}
	if len(loaded.AllowedOrigins) != 2 || loaded.AllowedOrigins[1] != "https://b.example.com" {
		t.Errorf("allowed_origins: got %v", loaded.AllowedOrigins)
	}
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(filepath.Join(dir, "nonexistent.yml"))
	if err != nil {
		t.Fatalf("Load should not fail for missing file: %v", err)
	}
	if cfg.DefaultConfig != "jira-monitor" {
		t.Errorf("expected defaults, got %q", cfg.DefaultConfig)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lookin.yml")
	if err := os.WriteFile(path, []byte("renderer: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid yaml")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lookin.yml")
	if err := DefaultConfig().Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	t.Setenv("LOOKIN_RENDERER", "none")
	t.Setenv("LOOKIN_DEBOUNCE_MS", "40")
	t.Setenv("LOOKIN_DOCS__OUTPUT_DIR", "generated")

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Renderer != "none" {
		t.Errorf("env override failed: got %q", loaded.Renderer)
	}
	if loaded.DebounceMS != 40 {
		t.Errorf("debounce override failed: got %d", loaded.DebounceMS)
	}
	if loaded.Docs.OutputDir != "generated" {
		t.Errorf("nested override failed: got %q", loaded.Docs.OutputDir)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("LOOKIN_LISTEN=127.0.0.1:9999\n"), 0644); err != nil {
		t.Fatal(err)
	}
	// Registers cleanup of the variable godotenv is about to set.
	t.Setenv("LOOKIN_LISTEN", "")
	os.Unsetenv("LOOKIN_LISTEN")

	loaded, err := Load(filepath.Join(dir, "lookin.yml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Listen != "127.0.0.1:9999" {
		t.Errorf(".env not applied: got %q", loaded.Listen)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "empty default_config", mutate: func(c *Config) { c.DefaultConfig = "" }, wantErr: true},
		{name: "path in default_config", mutate: func(c *Config) { c.DefaultConfig = "../x" }, wantErr: true},
		{name: "empty content_dir", mutate: func(c *Config) { c.ContentDir = "" }, wantErr: true},
		{name: "unknown renderer", mutate: func(c *Config) { c.Renderer = "graphviz" }, wantErr: true},
		{name: "none renderer", mutate: func(c *Config) { c.Renderer = "none" }},
		{name: "bad listen", mutate: func(c *Config) { c.Listen = "8080" }, wantErr: true},
		{name: "host listen", mutate: func(c *Config) { c.Listen = "localhost:0" }},
		{name: "zero debounce", mutate: func(c *Config) { c.DebounceMS = 0 }, wantErr: true},
		{name: "unknown lang", mutate: func(c *Config) { c.Lang = "de" }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"LOOKIN_CONTENT_DIR":      "content_dir",
		"LOOKIN_DOCS__OUTPUT_DIR": "docs.output_dir",
		"LOOKIN_LISTEN":           "listen",
	}
	for in, want := range tests {
		if got := envKey(in); got != want {
			t.Errorf("envKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDetectConfigs(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "configs"), 0755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"a.yaml", "b.yaml", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, "configs", name), []byte("layers: []"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	got := detectConfigs(dir)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("detectConfigs = %v", got)
	}
}
