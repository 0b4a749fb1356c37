package cmd

import (
	"github.com/spf13/cobra"

	"github.com/gnemet/lookin/internal/config"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "lookin",
	Short: "Drillable architecture diagrams backed by catalogs and docs",
	Long: `LookIn serves a layered architecture viewer driven by YAML layer
configurations. Clicking a diagram node drills down into the next layer or
opens its column catalog or markdown doc in a side panel.

The same configurations can be checked headlessly, turned into markdown
documentation, or explored by AI agents over MCP.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultConfigFile, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
