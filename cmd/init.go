package cmd

import (
	"github.com/spf13/cobra"

	"github.com/gnemet/lookin/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize lookin configuration with an interactive wizard",
	Long:  `Runs an interactive wizard that asks for the content directory, the default layer configuration and the renderer, then writes lookin.yml.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
