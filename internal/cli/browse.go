package cli

import (
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/rshade/multiverse/internal/cli/pagination"
	"github.com/rshade/multiverse/internal/config"
	"github.com/rshade/multiverse/internal/engine"
	"github.com/rshade/multiverse/internal/engine/crawl"
	"github.com/rshade/multiverse/internal/tui"
)

// NewBrowseCmd creates the browse command, which opens the interactive
// character browser. When stdin or stdout is not a terminal, or --plain is
// set, it prints the first page as a table instead.
func NewBrowseCmd() *cobra.Command {
	var (
		filters filterFlags
		plain   bool
	)
	params := pagination.NewPaginationParams()

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse characters interactively",
		Long: `Opens the interactive character browser.

Keys:
  /          search by name (enter applies, esc cancels)
  t g        cycle status / gender
  o l e      cycle origin / location / episode
  s          cycle sort order
  r          reset all filters
  ctrl+r     drop cached results and reload
  ← → [ ]    previous / next page
  ↑ ↓ j k    move the selection
  enter      show the character card (esc goes back)
  q          quit`,
		Example: `  # Start with the Smith family, every page loaded and sorted A-Z
  multiverse browse --name smith --all-pages --sort alphabetical

  # Force the table output
  multiverse browse --plain`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationInteractive: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := applyBrowseDefaults(cmd, params); err != nil {
				return err
			}
			state, err := filters.state(params.SortKey())
			if err != nil {
				return err
			}

			out, isFile := cmd.OutOrStdout().(*os.File)
			if tui.DetectOutputMode(plain || !isFile, os.Stdin, out) == tui.OutputModePlain {
				return runCharacters(cmd, state, params, config.FormatTable)
			}
			return runBrowser(cmd, state, params)
		},
	}

	filters.addFlags(cmd.Flags())
	params.AddFlags(cmd.Flags())
	cmd.Flags().BoolVar(&plain, "plain", false, "Print a table instead of opening the browser")

	return cmd
}

// runBrowser runs the Bubble Tea program until the user quits.
func runBrowser(cmd *cobra.Command, state engine.FilterState, params *pagination.PaginationParams) error {
	ctx := cmd.Context()

	var program *tea.Program
	opts := aggregatorOptions{mode: params.Mode(), pageSize: params.PageSize}
	if opts.mode == engine.ModeAll {
		opts.onProgress = func(p *crawl.Progress) {
			if program != nil {
				tui.ProgressCallback(program.Send)(p)
			}
		}
	}

	agg, done, err := newAggregator(ctx, opts)
	if err != nil {
		return err
	}
	defer done()

	model := tui.NewBrowseModel(ctx, agg, state)
	if params.Page > 1 {
		model.StartAt(params.Page)
	}
	program = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err = program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("failed to run interactive browser: %w", err)
	}
	return nil
}
