package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/forkview/pkg/chain"
	"github.com/matzehuels/forkview/pkg/config"
	"github.com/matzehuels/forkview/pkg/controller"
	"github.com/matzehuels/forkview/pkg/pipeline"
	"github.com/matzehuels/forkview/pkg/scenario"
)

// renderFlags holds the output flags shared by run and demo.
type renderFlags struct {
	formats  string
	output   string
	title    string
	detailed bool
	noCache  bool
	refresh  bool
}

func (f *renderFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.formats, "format", "f", "", "output format(s): svg (default), json, dot, graphviz (comma-separated)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVar(&f.title, "title", "", "diagram title (default: scenario name)")
	cmd.Flags().BoolVar(&f.detailed, "detailed", false, "show payload and consensus in DOT labels")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "recompute even when cached")
}

// runCommand creates the run command for replaying a scenario file.
func (c *CLI) runCommand() *cobra.Command {
	var flags renderFlags

	cmd := &cobra.Command{
		Use:   "run [scenario.toml]",
		Short: "Replay a scenario and render the resulting branches",
		Long: `Replay a scenario and render the resulting branches.

A scenario is a TOML file of [[step]] tables, each one of select, deselect,
append, fork or reset. Select steps address a block by branch index and
ordinal; a negative ordinal counts from the head. Steps that address a
block that does not exist are skipped with a warning.

The result is written as SVG by default. Use -f to pick json (layout
document), dot (Graphviz source) or graphviz (SVG rendered by Graphviz).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := pipeline.ValidateFormats(parseFormats(flags.formats)); err != nil {
				return err
			}
			sc, err := scenario.Load(args[0])
			if err != nil {
				return err
			}
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			return c.runScenario(cmd.Context(), cfg, sc, args[0], flags)
		},
	}
	flags.register(cmd)
	return cmd
}

// runScenario replays sc and renders the final state.
func (c *CLI) runScenario(ctx context.Context, cfg config.Config, sc *scenario.Scenario, input string, flags renderFlags) error {
	ctrl, err := c.replay(ctx, cfg, sc)
	if err != nil {
		return err
	}
	if flags.title == "" {
		flags.title = sc.Name
	}
	st := ctrl.State()
	return c.render(ctx, cfg, st.Set, st.Selection, input, flags)
}

// replay runs the scenario's steps against a fresh controller.
func (c *CLI) replay(ctx context.Context, cfg config.Config, sc *scenario.Scenario) (*controller.Controller, error) {
	ctrl, err := c.newController(ctx, cfg, c.Logger)
	if err != nil {
		return nil, err
	}

	prog := newProgress(c.Logger)
	rep, err := scenario.Run(ctx, ctrl, sc.Steps, c.Logger)
	if err != nil {
		return nil, fmt.Errorf("replay %s: %w", scenarioName(sc), err)
	}
	prog.done(fmt.Sprintf("Replayed %d steps", rep.Executed))
	if len(rep.Skipped) > 0 {
		printWarning("Skipped %d step(s): %v", len(rep.Skipped), rep.Skipped)
	}
	return ctrl, nil
}

// render lays out and renders set, then writes the artifacts.
func (c *CLI) render(ctx context.Context, cfg config.Config, set chain.BranchSet, sel *controller.Selection, input string, flags renderFlags) error {
	runner, err := c.newRunner(ctx, cfg, flags.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts := pipeline.Options{
		Layout:   cfg.Layout,
		Formats:  parseFormats(flags.formats),
		Title:    flags.title,
		Detailed: flags.detailed,
		Refresh:  flags.refresh,
		Logger:   c.Logger,
	}
	if sel != nil {
		opts.Selected = sel.Block.Hash
		opts.SelectedBranch = sel.BranchIndex
	}

	spinner := newSpinnerWithContext(ctx, "Rendering...")
	spinner.Start()
	result, err := runner.Execute(ctx, set, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	paths, err := writeArtifacts(result.Artifacts, opts.Formats, input, flags.output)
	if err != nil {
		return err
	}

	printSuccess("Rendered %s", StyleHighlight.Render(displayTitle(flags.title, input)))
	for _, p := range paths {
		printFile(p)
	}
	printStats(result.Stats.BranchCount, result.Stats.BlockCount, result.Stats.Skipped,
		result.CacheInfo.LayoutHit && result.CacheInfo.RenderHit)
	return nil
}

func scenarioName(sc *scenario.Scenario) string {
	if sc.Name != "" {
		return sc.Name
	}
	return "scenario"
}

func displayTitle(title, input string) string {
	if title != "" {
		return title
	}
	return strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
}
