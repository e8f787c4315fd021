package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/forkview/pkg/chain"
	"github.com/matzehuels/forkview/pkg/controller"
	"github.com/matzehuels/forkview/pkg/errors"
	"github.com/matzehuels/forkview/pkg/pipeline"
	"github.com/matzehuels/forkview/pkg/scenario"
)

// Explorer styles
var (
	exploreCursorStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	exploreSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorYellow)
	exploreBlockStyle    = lipgloss.NewStyle().Foreground(colorWhite)
	exploreBranchStyle   = lipgloss.NewStyle().Foreground(colorGray).Width(14)
)

// exploreHashLen is the number of hash characters shown per block.
const exploreHashLen = 6

// =============================================================================
// ExploreModel - Interactive branch set editor
// =============================================================================

// snapshotWriter renders a state to a file and returns the path written.
type snapshotWriter func(ctx context.Context, st controller.State) (string, error)

// ExploreModel is the bubbletea model for the terminal explorer. The cursor
// addresses a block by branch index and ordinal within that branch.
type ExploreModel struct {
	ctx     context.Context
	ctrl    *controller.Controller
	write   snapshotWriter
	Branch  int
	Ordinal int
	Status  string
	Err     error
}

// NewExploreModel creates an explorer over ctrl. write may be nil, which
// disables the w key.
func NewExploreModel(ctx context.Context, ctrl *controller.Controller, write snapshotWriter) ExploreModel {
	return ExploreModel{ctx: ctx, ctrl: ctrl, write: write}
}

func (m ExploreModel) Init() tea.Cmd {
	return nil
}

func (m ExploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	set := m.ctrl.Snapshot()
	switch key.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "left", "h":
		m.Ordinal = max(m.Ordinal-1, 0)
	case "right", "l":
		if br, ok := set.Branch(m.Branch); ok {
			m.Ordinal = min(m.Ordinal+1, br.Len()-1)
		}
	case "up", "k":
		if m.Branch > 0 {
			m.Branch--
			m.clamp(set)
		}
	case "down", "j":
		if m.Branch < set.Len()-1 {
			m.Branch++
			m.clamp(set)
		}
	case "enter", " ":
		sel, ok := m.ctrl.SelectAt(m.ctx, m.Branch, m.Ordinal)
		switch {
		case !ok:
			m.Status = "nothing to select here"
		case sel == nil:
			m.Status = "selection cleared"
		default:
			m.Status = "selected " + sel.Block.ShortHash(12)
		}
		m.Err = nil
	case "a":
		blk, err := m.ctrl.AddBlock(m.ctx)
		m.afterMutation(blk, err, "appended")
	case "f":
		blk, err := m.ctrl.Fork(m.ctx)
		m.afterMutation(blk, err, "forked")
	case "r":
		m.Err = m.ctrl.Reset(m.ctx)
		if m.Err == nil {
			m.Branch, m.Ordinal = 0, 0
			m.Status = "reset to a fresh genesis block"
		}
	case "w":
		if m.write == nil {
			m.Status = "writing is disabled"
			break
		}
		path, err := m.write(m.ctx, m.ctrl.State())
		m.Err = err
		if err == nil {
			m.Status = "wrote " + path
		}
	}
	return m, nil
}

// afterMutation moves the cursor onto the new block and reports the outcome.
func (m *ExploreModel) afterMutation(blk *chain.Block, err error, verb string) {
	m.Err = err
	switch {
	case err != nil:
		m.Status = ""
	case blk == nil:
		m.Status = "select a block first (enter)"
	default:
		set := m.ctrl.Snapshot()
		if bi, ord, ok := set.FindBlock(blk.Hash); ok {
			m.Branch, m.Ordinal = bi, ord
		}
		m.Status = fmt.Sprintf("%s %s", verb, blk.ShortHash(12))
	}
}

// clamp keeps the cursor on a stored block after a branch change.
func (m *ExploreModel) clamp(set chain.BranchSet) {
	br, ok := set.Branch(m.Branch)
	if !ok || br.Len() == 0 {
		m.Ordinal = 0
		return
	}
	m.Ordinal = min(m.Ordinal, br.Len()-1)
}

func (m ExploreModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Forkview Explorer"))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("←/→ block  ↑/↓ branch  ⏎ select  a append  f fork  r reset  w write  q quit"))
	b.WriteString("\n\n")

	st := m.ctrl.State()
	for bi, br := range st.Set.Branches() {
		b.WriteString(exploreBranchStyle.Render(br.Name))
		for i, blk := range br.Blocks {
			if i > 0 {
				b.WriteString(StyleDim.Render("─"))
			}
			b.WriteString(m.renderBlock(st, bi, i, blk))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if sel := st.Selection; sel != nil {
		ord := chain.BlockOrdinal(sel.Block, st.Set)
		b.WriteString(StyleDim.Render(fmt.Sprintf("selected: %s  #%d  %s", sel.Block.ShortHash(12), ord, sel.Block.Payload)))
		b.WriteString("\n")
	}
	switch {
	case m.Err != nil:
		b.WriteString(StyleWarning.Render(errors.UserMessage(m.Err)))
	case m.Status != "":
		b.WriteString(StyleSuccess.Render(m.Status))
	}
	b.WriteString("\n")
	return b.String()
}

func (m ExploreModel) renderBlock(st controller.State, branch, ordinal int, blk chain.Block) string {
	label := "[" + blk.ShortHash(exploreHashLen) + "]"
	selected := st.Selection != nil && st.Selection.Block.Hash == blk.Hash
	switch {
	case branch == m.Branch && ordinal == m.Ordinal:
		if selected {
			label = "*" + blk.ShortHash(exploreHashLen) + "*"
		}
		return exploreCursorStyle.Render(label)
	case selected:
		return exploreSelectedStyle.Render(label)
	default:
		return exploreBlockStyle.Render(label)
	}
}

// =============================================================================
// Command
// =============================================================================

// exploreCommand creates the explore command.
func (c *CLI) exploreCommand() *cobra.Command {
	var (
		scenarioPath string
		output       string
		noCache      bool
	)

	cmd := &cobra.Command{
		Use:   "explore",
		Short: "Browse and edit a branch set in the terminal",
		Long: `Browse and edit a branch set in the terminal.

Move the cursor with the arrow keys (or h/j/k/l) and press enter to select
the block under it. With a block selected, a appends a new block after it
(discarding any blocks that followed it on its branch) and f starts a new
fork there. r resets to a single genesis block and w writes the current
diagram as SVG.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}

			// The TUI owns the terminal; controller logs would garble it.
			quiet := log.New(io.Discard)
			ctrl, err := c.newController(ctx, cfg, quiet)
			if err != nil {
				return err
			}
			if scenarioPath != "" {
				sc, err := scenario.Load(scenarioPath)
				if err != nil {
					return err
				}
				if _, err := scenario.Run(ctx, ctrl, sc.Steps, quiet); err != nil {
					return err
				}
			}

			runner, err := c.newRunner(ctx, cfg, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()
			runner.Logger = quiet

			write := func(ctx context.Context, st controller.State) (string, error) {
				opts := pipeline.Options{
					Layout:  cfg.Layout,
					Formats: []string{pipeline.FormatSVG},
					Logger:  quiet,
				}
				if st.Selection != nil {
					opts.Selected = st.Selection.Block.Hash
					opts.SelectedBranch = st.Selection.BranchIndex
				}
				res, err := runner.Execute(ctx, st.Set, opts)
				if err != nil {
					return "", err
				}
				paths, err := writeArtifacts(res.Artifacts, opts.Formats, "", output)
				if err != nil {
					return "", err
				}
				return paths[0], nil
			}

			_, err = tea.NewProgram(NewExploreModel(ctx, ctrl, write), tea.WithContext(ctx)).Run()
			return err
		},
	}

	cmd.Flags().StringVar(&scenarioPath, "scenario", "", "replay a scenario before exploring")
	cmd.Flags().StringVarP(&output, "output", "o", "forkview.svg", "file written by the w key")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	return cmd
}
