package cache

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// TTL configuration constants and defaults.
const (
	// DefaultTTL is the freshness window for character listings (5 minutes).
	DefaultTTL = 5 * time.Minute

	// DefaultLookupTTL is the freshness window for lookup lists (10 minutes).
	DefaultLookupTTL = 10 * time.Minute

	// MinTTL is the minimum allowed TTL (1 second).
	MinTTL = time.Second

	// MaxTTL is the maximum allowed TTL (24 hours).
	MaxTTL = 24 * time.Hour

	// minutesPerHour is used for duration formatting calculations.
	minutesPerHour = 60

	// EnvTTLSeconds overrides the listing TTL.
	EnvTTLSeconds = "MULTIVERSE_CACHE_TTL_SECONDS"

	// EnvLookupTTLSeconds overrides the lookup-list TTL.
	EnvLookupTTLSeconds = "MULTIVERSE_LOOKUP_TTL_SECONDS"

	// EnvCacheEnabled enables or disables the cache.
	EnvCacheEnabled = "MULTIVERSE_CACHE_ENABLED"

	// EnvCacheMaxEntries overrides the LRU capacity.
	EnvCacheMaxEntries = "MULTIVERSE_CACHE_MAX_ENTRIES"
)

// ErrInvalidTTL is returned for a TTL outside [MinTTL, MaxTTL] or one that
// cannot be parsed.
var ErrInvalidTTL = fmt.Errorf("TTL must be between %s and %s", MinTTL, MaxTTL)

// ValidateTTL checks a TTL against the allowed range.
func ValidateTTL(ttl time.Duration) error {
	if ttl < MinTTL || ttl > MaxTTL {
		return fmt.Errorf("%w: got %s", ErrInvalidTTL, ttl)
	}
	return nil
}

// GetTTLFromEnv reads a TTL in seconds from the named environment variable,
// returning def when unset, unparsable or out of range.
func GetTTLFromEnv(name string, def time.Duration) time.Duration {
	envVal := os.Getenv(name)
	if envVal == "" {
		return def
	}

	seconds, err := strconv.Atoi(envVal)
	if err != nil {
		return def
	}

	ttl := time.Duration(seconds) * time.Second
	if ValidateTTL(ttl) != nil {
		return def
	}
	return ttl
}

// GetCacheEnabledFromEnv reads the cache enabled flag. Enabled by default.
func GetCacheEnabledFromEnv() bool {
	envVal := os.Getenv(EnvCacheEnabled)
	if envVal == "" {
		return true
	}

	enabled, err := strconv.ParseBool(envVal)
	if err != nil {
		return true
	}
	return enabled
}

// GetMaxEntriesFromEnv reads the LRU capacity, DefaultMaxEntries if unset or invalid.
func GetMaxEntriesFromEnv() int {
	envVal := os.Getenv(EnvCacheMaxEntries)
	if envVal == "" {
		return DefaultMaxEntries
	}

	n, err := strconv.Atoi(envVal)
	if err != nil || n < 1 {
		return DefaultMaxEntries
	}
	return n
}

// FormatDuration formats a duration in a human-readable way.
// Examples: "45s", "5m", "1h30m".
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		minutes := int(d.Minutes())
		seconds := int(d.Seconds()) % 60
		if seconds == 0 {
			return fmt.Sprintf("%dm", minutes)
		}
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % minutesPerHour
	if minutes == 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dh%dm", hours, minutes)
}

// ParseTTL parses a TTL given as integer seconds ("300") or a Go duration
// ("5m", "1h30m").
func ParseTTL(s string) (time.Duration, error) {
	var ttl time.Duration
	if seconds, err := strconv.Atoi(s); err == nil {
		ttl = time.Duration(seconds) * time.Second
	} else {
		parsed, parseErr := time.ParseDuration(s)
		if parseErr != nil {
			return 0, fmt.Errorf("%w: %q is not seconds or a duration: %w", ErrInvalidTTL, s, parseErr)
		}
		ttl = parsed
	}

	if err := ValidateTTL(ttl); err != nil {
		return 0, err
	}
	return ttl, nil
}
