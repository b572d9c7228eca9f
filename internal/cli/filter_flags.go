package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/rshade/multiverse/internal/catalog"
	"github.com/rshade/multiverse/internal/cli/pagination"
	"github.com/rshade/multiverse/internal/config"
	"github.com/rshade/multiverse/internal/engine"
)

// filterFlags holds the character filter flags shared by characters and browse.
type filterFlags struct {
	name     string
	status   string
	gender   string
	origin   string
	location string
	episode  string
}

// addFlags registers the filter flags on fs.
func (f *filterFlags) addFlags(fs *pflag.FlagSet) {
	fs.StringVar(&f.name, "name", "", "Match characters whose name contains this text")
	fs.StringVar(&f.status, "status", engine.AnyValue, "Status: all, alive, dead, unknown")
	fs.StringVar(&f.gender, "gender", engine.AnyValue, "Gender: all, female, male, genderless, unknown")
	fs.StringVar(&f.origin, "origin", engine.AnyValue, "Exact origin location name")
	fs.StringVar(&f.location, "location", engine.AnyValue, "Exact current location name")
	fs.StringVar(&f.episode, "episode", engine.AnyValue, "Episode id or episode URL the character appears in")
}

// state builds the validated filter state with the given sort key. Episode
// links are reduced to their id.
func (f *filterFlags) state(sortBy engine.SortKey) (engine.FilterState, error) {
	episode := f.episode
	if episode != "" && episode != engine.AnyValue {
		episode = catalog.LastSegment(episode)
	}

	state := engine.FilterState{
		Name:     f.name,
		Status:   f.status,
		Gender:   f.gender,
		Origin:   f.origin,
		Location: f.location,
		Episode:  episode,
		SortBy:   sortBy,
	}.Normalize()

	if err := state.Validate(); err != nil {
		return engine.FilterState{}, err
	}
	return state, nil
}

// applyBrowseDefaults fills unset paging flags from the browse config section
// and validates the result.
func applyBrowseDefaults(cmd *cobra.Command, params *pagination.PaginationParams) error {
	cfg := config.GetGlobalConfig()

	if !cmd.Flags().Changed("sort") && cfg.Browse.DefaultSort != "" {
		params.Sort = cfg.Browse.DefaultSort
	}
	if !cmd.Flags().Changed("all-pages") {
		mode, err := engine.ParseMode(cfg.Browse.Mode)
		if err != nil {
			return err
		}
		params.AllPages = mode == engine.ModeAll
	}

	if err := params.Validate(); err != nil {
		return fmt.Errorf("invalid paging flags: %w", err)
	}
	return nil
}
