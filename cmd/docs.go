package cmd

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/gnemet/lookin/internal/docs"
	"github.com/gnemet/lookin/internal/logging"
	"github.com/gnemet/lookin/internal/progress"
	"github.com/gnemet/lookin/internal/resource"
	"github.com/gnemet/lookin/internal/ui"
)

var (
	docsList   bool
	docsOutput string
)

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Generate markdown documentation from the catalogs",
	Long:  `Reads every catalog under catalogs/ in the content directory and writes architecture.md, star_schema.md and catalogs.md.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		outDir := cfg.Docs.OutputDir
		if docsOutput != "" {
			outDir = docsOutput
		}
		out := cmd.OutOrStdout()

		if docsList {
			for _, name := range docs.Plan() {
				fmt.Fprintln(out, filepath.Join(outDir, name))
			}
			return nil
		}
		if cfg.Remote() {
			return errors.New("docs generation needs a local content_dir")
		}

		log := newLogger(cfg)
		gen := &docs.Generator{
			Source:    resource.NewDirFetcher(cfg.ContentDir),
			OutputDir: outDir,
			Reporter:  progress.NewReporter(),
			Log:       logging.Component(log, "docs"),
		}
		outputs, err := gen.Generate(cmd.Context())
		if err != nil {
			return fmt.Errorf("generating docs: %w", err)
		}

		ui.Banner(out, "docs")
		rows := make([][]string, len(outputs))
		for i, o := range outputs {
			rows[i] = []string{o.Path, fmt.Sprintf("%d", o.Lines)}
		}
		ui.Table(out, []string{"File", "Lines"}, rows)
		fmt.Fprintf(out, "\n%s Wrote %d file(s) in %s\n", ui.StatusIcon(true), len(outputs), time.Since(start).Round(time.Millisecond))
		return nil
	},
}

func init() {
	docsCmd.Flags().BoolVar(&docsList, "list", false, "print the files that would be generated")
	docsCmd.Flags().StringVarP(&docsOutput, "output", "o", "", "output directory (overrides config)")
	rootCmd.AddCommand(docsCmd)
}

