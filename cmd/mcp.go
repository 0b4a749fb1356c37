package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gnemet/lookin/internal/layers"
	"github.com/gnemet/lookin/internal/logging"
	mcpserver "github.com/gnemet/lookin/internal/mcp"
)

var mcpLayerConfig string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio. It drives one headless viewer session, so agents can list layers, drill down, click nodes and read catalogs and docs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		// Stdout carries the protocol; logs go to stderr.
		log := logging.NewWithWriter(os.Stderr, cfg.LogLevel)
		if verbose {
			log = logging.NewWithWriter(os.Stderr, "debug")
		}

		fetcher, dispatcher, err := newDispatcher(cfg, log, nil)
		if err != nil {
			return err
		}

		name := cfg.DefaultConfig
		if mcpLayerConfig != "" {
			name = mcpLayerConfig
		}
		ctx := context.Background()
		doc, err := layers.Load(ctx, fetcher, name)
		if err != nil {
			return err
		}

		mcpserver.Version = Version
		srv := mcpserver.NewServer(mcpserver.Deps{
			Doc:        doc,
			Fetcher:    fetcher,
			Dispatcher: dispatcher,
			Markdown:   cfg.Markdown,
			Lang:       cfg.Lang,
			Logger:     logging.Component(log, "mcp"),
		})
		defer srv.Close()
		if err := srv.Start(ctx); err != nil {
			return fmt.Errorf("opening root layer: %w", err)
		}

		fmt.Fprintf(os.Stderr, "lookin MCP server started on stdio (config=%s, layers=%d, renderer=%s)\n",
			name, len(doc.Layers), dispatcher.RendererName())

		return srv.Serve()
	},
}

func init() {
	mcpCmd.Flags().StringVar(&mcpLayerConfig, "layers", "", "layer configuration to load (overrides default_config)")
	rootCmd.AddCommand(mcpCmd)
}
