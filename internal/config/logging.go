package config

import (
	"strings"

	"github.com/rshade/multiverse/internal/logging"
)

// ToLoggingConfig converts config.LoggingConfig to logging.Config for use with
// the internal/logging package. This bridges the configuration system to the
// logging infrastructure.
//
// The conversion applies these rules:
//   - Level is copied directly
//   - Format "text" is accepted as an alias of "console"
//   - If File is set, Output becomes "file" and File is passed through
//   - If File is empty, Output defaults to "stderr"
func (lc *LoggingConfig) ToLoggingConfig() logging.Config {
	output := logging.OutputStderr
	if lc.File != "" {
		output = outputTypeFile
	}

	format := strings.ToLower(lc.Format)
	if format == "text" || format == "" {
		format = logging.FormatConsole
	}

	return logging.Config{
		Level:  lc.Level,
		Format: format,
		Output: output,
		File:   lc.File,
		Caller: false, // Default, can be extended if needed
	}
}

// ToInteractiveLoggingConfig is ToLoggingConfig for full-screen sessions:
// stderr would corrupt the display, so without a log file logs are discarded.
func (lc *LoggingConfig) ToInteractiveLoggingConfig() logging.Config {
	cfg := lc.ToLoggingConfig()
	if cfg.Output != outputTypeFile {
		cfg.Output = logging.OutputDiscard
	}
	return cfg
}

// GetLoggingConfig returns the Logging section of the global configuration.
// The returned value is a copy of the current global config's Logging settings.
// Any environment-level overrides (for example a --debug flag) are expected to
// be applied by the caller after retrieving this value.
func GetLoggingConfig() LoggingConfig {
	cfg := GetGlobalConfig()
	return cfg.Logging
}
