package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rshade/multiverse/internal/catalog"
	"github.com/rshade/multiverse/internal/cli/pagination"
	"github.com/rshade/multiverse/internal/config"
	"github.com/rshade/multiverse/internal/engine"
	"github.com/rshade/multiverse/internal/logging"
	"github.com/rshade/multiverse/internal/tui"
)

const flagOutput = "output"

// NewCharactersCmd creates the characters command, which prints one page of
// characters matching the filter flags.
func NewCharactersCmd() *cobra.Command {
	var (
		filters filterFlags
		output  string
	)
	params := pagination.NewPaginationParams()

	cmd := &cobra.Command{
		Use:   "characters",
		Short: "List one page of characters",
		Long: `Lists one page of characters matching the filters.

Name, status and gender are applied by the catalog API. Origin, location and
episode are matched locally against each fetched page, so a server page may
show fewer than 20 rows. Use --all-pages to fetch every matching page first
and paginate the filtered, sorted result locally.`,
		Example: `  # Living Ricks
  multiverse characters --name rick --status alive

  # Page 3 of every character, sorted by gender
  multiverse characters --page 3 --sort gender

  # Everyone from Earth (C-137) in episode 1, 10 per page, as JSON
  multiverse characters --origin "Earth (C-137)" --episode 1 --all-pages --page-size 10 --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := resolveOutputFormat(output)
			if err != nil {
				return err
			}
			if err = applyBrowseDefaults(cmd, params); err != nil {
				return err
			}
			state, err := filters.state(params.SortKey())
			if err != nil {
				return err
			}
			return runCharacters(cmd, state, params, format)
		},
	}

	filters.addFlags(cmd.Flags())
	params.AddFlags(cmd.Flags())
	cmd.Flags().StringVarP(&output, flagOutput, "o", "", "Output format: table, json, ndjson (default from config)")

	return cmd
}

// runCharacters loads the requested page and renders it to stdout. Partial
// crawls are reported on stderr.
func runCharacters(
	cmd *cobra.Command,
	state engine.FilterState,
	params *pagination.PaginationParams,
	format string,
) error {
	ctx := cmd.Context()
	log := logging.FromContext(ctx)

	agg, done, err := newAggregator(ctx, aggregatorOptions{
		mode:     params.Mode(),
		pageSize: params.PageSize,
	})
	if err != nil {
		return err
	}
	defer done()

	view, err := agg.Load(ctx, state, params.Page)
	if err != nil {
		log.Error().Ctx(ctx).
			Str("component", "cli").
			Str("operation", "characters").
			Int("page", params.Page).
			Err(err).
			Msg("loading characters failed")
		return wrapFetchError(err)
	}

	log.Debug().Ctx(ctx).
		Str("component", "cli").
		Str("operation", "characters").
		Int("page", view.Page).
		Int("total_pages", view.TotalPages).
		Int("total_count", view.TotalCount).
		Int("rows", len(view.Characters)).
		Bool("cached", view.Cached).
		Msg("characters loaded")

	if view.Partial {
		warnPartial(cmd, view)
	}

	return renderCharacters(cmd.OutOrStdout(), format, view, state)
}

// resolveOutputFormat returns the --output value, or the configured default
// when the flag is empty.
func resolveOutputFormat(flagValue string) (string, error) {
	format := flagValue
	if format == "" {
		format = config.GetDefaultOutputFormat()
	}
	if !config.IsValidOutputFormat(format) {
		return "", fmt.Errorf("%w: got %q", config.ErrInvalidOutputFormat, format)
	}
	return format, nil
}

// wrapFetchError turns a catalog failure into the single user-facing message.
func wrapFetchError(err error) error {
	if catalog.IsFetchFailure(err) {
		return fmt.Errorf("%s: %s: %w", tui.FetchErrorTitle, tui.FetchErrorHint, err)
	}
	return err
}

func warnPartial(cmd *cobra.Command, view engine.View) {
	msg := fmt.Sprintf("Warning: partial results: %d of %d pages loaded", view.PagesFetched, view.PagesTotal)
	if view.FetchErr != nil {
		msg += " (" + view.FetchErr.Error() + ")"
	}
	fmt.Fprintln(cmd.ErrOrStderr(), msg)
}
