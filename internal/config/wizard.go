package config

import (
	"fmt"
	"path"
	"strings"

	"github.com/manifoldco/promptui"

	"github.com/gnemet/lookin/internal/resource"
	"github.com/gnemet/lookin/internal/visual"
)

// detectConfigs lists the layer configurations under a content directory.
func detectConfigs(contentDir string) []string {
	names, err := resource.NewDirFetcher(contentDir).List("configs/*.yaml")
	if err != nil {
		return nil
	}
	var out []string
	for _, n := range names {
		out = append(out, strings.TrimSuffix(path.Base(n), ".yaml"))
	}
	return out
}

// RunWizard runs an interactive configuration wizard, saves the result to
// path and returns it.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to lookin! Let's configure your viewer.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Content root.
	contentPrompt := promptui.Prompt{
		Label:   "Content directory or base URL",
		Default: cfg.ContentDir,
	}
	contentDir, err := contentPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("content dir: %w", err)
	}
	cfg.ContentDir = contentDir

	// 2. Default layer configuration.
	if found := detectConfigs(contentDir); len(found) > 0 {
		fmt.Printf("Found %d layer configuration(s)\n\n", len(found))
		sel := promptui.Select{Label: "Default layer configuration", Items: found}
		_, name, err := sel.Run()
		if err != nil {
			return nil, fmt.Errorf("config selection: %w", err)
		}
		cfg.DefaultConfig = name
	} else {
		namePrompt := promptui.Prompt{Label: "Default layer configuration", Default: cfg.DefaultConfig}
		name, err := namePrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("config name: %w", err)
		}
		cfg.DefaultConfig = name
	}

	// 3. Renderer.
	rendererPrompt := promptui.Select{
		Label: "Diagram renderer",
		Items: []string{
			"auto    - mermaid-cli when installed, else built-in outline",
			"mmdc    - mermaid-cli only",
			"outline - built-in outline only",
			"none    - prerendered PNG fallbacks only",
		},
	}
	idx, _, err := rendererPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("renderer selection: %w", err)
	}
	cfg.Renderer = []string{visual.RendererAuto, visual.RendererMMDC, visual.RendererOutline, visual.RendererNone}[idx]

	// 4. Listen address.
	listenPrompt := promptui.Prompt{
		Label:   "Listen address",
		Default: cfg.Listen,
		Validate: func(s string) error {
			probe := *cfg
			probe.Listen = s
			return probe.Validate()
		},
	}
	listen, err := listenPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("listen address: %w", err)
	}
	cfg.Listen = listen

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}
