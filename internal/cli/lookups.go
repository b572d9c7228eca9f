package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rshade/multiverse/internal/engine"
	"github.com/rshade/multiverse/internal/logging"
)

// NewLocationsCmd creates the locations command, which prints the names
// accepted by --origin and --location.
func NewLocationsCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "locations",
		Short: "List the location names used by the origin and location filters",
		Example: `  multiverse locations
  multiverse locations --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := resolveOutputFormat(output)
			if err != nil {
				return err
			}
			lookups, err := loadLookups(cmd)
			if err != nil {
				return err
			}
			return renderLocations(cmd.OutOrStdout(), format, lookups.Locations)
		},
	}
	cmd.Flags().StringVarP(&output, flagOutput, "o", "", "Output format: table, json, ndjson (default from config)")

	return cmd
}

// NewEpisodesCmd creates the episodes command, which prints the episodes
// accepted by --episode.
func NewEpisodesCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "episodes",
		Short: "List the episodes used by the episode filter",
		Example: `  multiverse episodes
  multiverse episodes --output ndjson`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := resolveOutputFormat(output)
			if err != nil {
				return err
			}
			lookups, err := loadLookups(cmd)
			if err != nil {
				return err
			}
			return renderEpisodes(cmd.OutOrStdout(), format, lookups.Episodes)
		},
	}
	cmd.Flags().StringVarP(&output, flagOutput, "o", "", "Output format: table, json, ndjson (default from config)")

	return cmd
}

// loadLookups fetches both lookup lists. Incomplete lists are printed with a
// warning on stderr.
func loadLookups(cmd *cobra.Command) (engine.Lookups, error) {
	ctx := cmd.Context()

	agg, done, err := newAggregator(ctx, aggregatorOptions{mode: engine.ModeServer})
	if err != nil {
		return engine.Lookups{}, err
	}
	defer done()

	lookups, err := agg.Lookups(ctx)
	if err != nil {
		return engine.Lookups{}, fmt.Errorf("loading lookup lists: %w", err)
	}

	log := logging.FromContext(ctx)
	log.Debug().Ctx(ctx).
		Str("component", "cli").
		Str("operation", "lookups").
		Int("locations", len(lookups.Locations)).
		Int("episodes", len(lookups.Episodes)).
		Bool("partial", lookups.Partial).
		Msg("lookup lists loaded")

	if lookups.Partial {
		fmt.Fprintln(cmd.ErrOrStderr(), "Warning: the list may be incomplete; some pages could not be loaded")
	}
	return lookups, nil
}
