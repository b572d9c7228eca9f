package cli

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rshade/multiverse/internal/config"
	"github.com/rshade/multiverse/internal/engine/cache"
	"github.com/rshade/multiverse/internal/logging"
)

// logger is the package-level logger for CLI operations.
var logger zerolog.Logger //nolint:gochecknoglobals // Required for zerolog context integration

// Persistent flag names.
const (
	flagDebug    = "debug"
	flagConfig   = "config"
	flagCacheTTL = "cache-ttl"
	flagAPIURL   = "api-url"
)

// NewRootCmd creates the root Cobra command for the multiverse CLI.
// PersistentPreRunE resolves the effective configuration (defaults, config
// file, --config overlay, .env, environment, then flags), stores it as the
// global config and sets up logging before any subcommand runs.
func NewRootCmd(ver string) *cobra.Command {
	var logResult *logging.LogPathResult

	cmd := &cobra.Command{
		Use:           "multiverse",
		Short:         "Explore the Rick and Morty character catalog",
		Long:          "multiverse: search, filter, sort and page through Rick and Morty characters from the terminal",
		Version:       ver,
		Example:       rootCmdExample,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			config.SetGlobalConfig(cfg)

			result := setupLogging(cmd)
			logResult = &result
			return nil
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return cleanupLogging(logResult)
		},
	}

	cmd.PersistentFlags().Bool(flagDebug, false, "enable debug logging")
	cmd.PersistentFlags().String(flagConfig, "", "config file merged over ~/.multiverse/config.yaml")
	cmd.PersistentFlags().
		String(flagCacheTTL, "", "listing cache TTL in seconds or as a duration (e.g. 300, 5m); 0 disables the cache")
	cmd.PersistentFlags().String(flagAPIURL, "", "catalog API base URL")
	cmd.AddCommand(
		NewCharactersCmd(), NewBrowseCmd(),
		NewLocationsCmd(), NewEpisodesCmd(),
		newConfigCmd(),
	)

	return cmd
}

const rootCmdExample = `  # Browse interactively
  multiverse browse

  # First page of living Ricks, as a table
  multiverse characters --name rick --status alive

  # Every Morty from Earth (C-137), alphabetical, as JSON
  multiverse characters --name morty --origin "Earth (C-137)" --all-pages --sort alphabetical --output json

  # Characters appearing in episode 28
  multiverse characters --episode 28 --all-pages

  # Dump the lookup lists
  multiverse locations
  multiverse episodes --output ndjson

  # Write a default config file
  multiverse config init`

// resolveConfig layers the --config overlay and persistent flags over the
// file, .env and environment configuration, then validates the result.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.New()

	if path, _ := cmd.Flags().GetString(flagConfig); path != "" {
		if err := config.ShallowMergeYAML(cfg, path); err != nil {
			return nil, fmt.Errorf("loading --config: %w", err)
		}
	}

	if apiURL, _ := cmd.Flags().GetString(flagAPIURL); apiURL != "" {
		cfg.API.BaseURL = apiURL
	}

	if raw, _ := cmd.Flags().GetString(flagCacheTTL); raw != "" {
		if raw == "0" {
			cfg.Cache.Enabled = false
		} else {
			ttl, err := cache.ParseTTL(raw)
			if err != nil {
				return nil, fmt.Errorf("--%s: %w", flagCacheTTL, err)
			}
			cfg.Cache.TTL = ttl
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newConfigCmd creates the config command group with configuration subcommands.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Configuration management commands"}
	cmd.AddCommand(NewConfigInitCmd(), NewConfigShowCmd())
	return cmd
}
