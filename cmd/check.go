package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gnemet/lookin/internal/layers"
	"github.com/gnemet/lookin/internal/logging"
	"github.com/gnemet/lookin/internal/render"
	"github.com/gnemet/lookin/internal/resolver"
	"github.com/gnemet/lookin/internal/resource"
	"github.com/gnemet/lookin/internal/ui"
	"github.com/gnemet/lookin/internal/visual"
)

var checkCmd = &cobra.Command{
	Use:   "check [config...]",
	Short: "Validate layer configurations",
	Long: `Loads each layer configuration (the default one when none is named),
checks its references and renders every layer to find declared nodes that
are missing from the diagrams. Exits non-zero on any problem other than
unmatched nodes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := newLogger(cfg)
		fetcher, dispatcher, err := newDispatcher(cfg, logging.Component(log, "check"), nil)
		if err != nil {
			return err
		}

		names := args
		if len(names) == 0 {
			names = []string{cfg.DefaultConfig}
		}

		out := cmd.OutOrStdout()
		ui.Banner(out, "check")
		failed := 0
		for _, name := range names {
			report, err := checkConfig(cmd.Context(), fetcher, dispatcher, name)
			if err != nil {
				fmt.Fprintf(out, "%s %s: %v\n\n", ui.StatusIcon(false), name, err)
				failed++
				continue
			}
			report.print(out)
			if !report.ok() {
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d configuration(s) failed", failed, len(names))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

// layerCheck is the outcome of rendering one layer.
type layerCheck struct {
	ID        string
	Strategy  string
	State     render.State
	Err       error
	Declared  int
	Unmatched []string
}

type checkReport struct {
	Name   string
	Title  string
	Issues []layers.Issue
	Layers []layerCheck
}

func (r checkReport) ok() bool {
	if len(r.Issues) > 0 {
		return false
	}
	for _, l := range r.Layers {
		if l.State != render.Displayed {
			return false
		}
	}
	return true
}

func (r checkReport) unmatched() int {
	n := 0
	for _, l := range r.Layers {
		n += len(l.Unmatched)
	}
	return n
}

// checkConfig loads a layer configuration, validates its references and
// renders every layer.
func checkConfig(ctx context.Context, fetcher resource.Fetcher, d *render.Dispatcher, name string) (checkReport, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	doc, err := layers.Load(ctx, fetcher, name)
	if err != nil {
		return checkReport{}, err
	}
	report := checkReport{Name: name, Title: doc.Title, Issues: doc.Validate()}
	for i := range doc.Layers {
		l := &doc.Layers[i]
		res := d.Render(ctx, l, nil)
		lc := layerCheck{ID: l.ID, State: res.State, Err: res.Err}
		if res.Source != nil {
			lc.Strategy = string(res.Source.Strategy())
		}
		if res.State == render.Displayed && res.Visual != nil && res.Visual.Kind != visual.KindImage {
			ids := l.Nodes.IDs()
			lc.Declared = len(ids)
			lc.Unmatched = resolver.ResolveAll(ids, res.Visual.Elements).Unmatched
		}
		report.Layers = append(report.Layers, lc)
	}
	return report, nil
}

func (r checkReport) print(w io.Writer) {
	fmt.Fprintf(w, "%s %s (%s): %d layer(s)\n", ui.StatusIcon(r.ok()), r.Name, r.Title, len(r.Layers))

	rows := make([][]string, 0, len(r.Layers))
	for _, l := range r.Layers {
		state := l.State.String()
		if l.Err != nil {
			state += ": " + l.Err.Error()
		}
		nodes := "-"
		if l.Declared > 0 {
			nodes = strconv.Itoa(l.Declared-len(l.Unmatched)) + "/" + strconv.Itoa(l.Declared)
		}
		rows = append(rows, []string{l.ID, l.Strategy, state, nodes, strings.Join(l.Unmatched, ", ")})
	}
	ui.Table(w, []string{"Layer", "Strategy", "State", "Nodes", "Unmatched"}, rows)

	for _, issue := range r.Issues {
		fmt.Fprintf(w, "  %s %s\n", ui.StatusIcon(false), issue)
	}
	if n := r.unmatched(); n > 0 {
		fmt.Fprintf(w, "  %s %d declared node(s) not found in their diagrams\n", ui.WarnIcon(), n)
	}
	fmt.Fprintln(w)
}

