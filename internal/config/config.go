package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/rshade/multiverse/internal/catalog"
	"github.com/rshade/multiverse/internal/engine"
	"github.com/rshade/multiverse/internal/engine/cache"
)

// Output formats accepted by the listing commands.
const (
	FormatTable  = "table"
	FormatJSON   = "json"
	FormatNDJSON = "ndjson"
)

// Environment variables read by the configuration layer. The cache variables
// live in the cache package.
const (
	EnvHome      = "MULTIVERSE_HOME"
	EnvAPIURL    = "MULTIVERSE_API_URL"
	EnvLogLevel  = "MULTIVERSE_LOG_LEVEL"
	EnvLogFormat = "MULTIVERSE_LOG_FORMAT"
	EnvLogFile   = "MULTIVERSE_LOG_FILE"
)

const (
	configFileName = "config.yaml"
	dotEnvFileName = ".env"
	outputTypeFile = "file"
	maxRetries     = 10
	maxPageSize    = 200
)

// Validation errors.
var (
	ErrInvalidBaseURL      = errors.New("api.base_url must be an absolute http(s) URL")
	ErrInvalidTimeout      = errors.New("api.timeout cannot be negative")
	ErrInvalidRetries      = fmt.Errorf("api.retries and api.lookup_retries must be between 0 and %d", maxRetries)
	ErrInvalidRetryWait    = errors.New("api.retry_wait_min must be positive and at most api.retry_wait_max")
	ErrInvalidBackoff      = errors.New("api.lookup_backoff cannot be negative")
	ErrInvalidOutputFormat = errors.New("output.default_format must be table, json or ndjson")
	ErrInvalidPageSize     = fmt.Errorf("browse.page_size must be between 1 and %d", maxPageSize)
	ErrInvalidLogFormat    = errors.New("logging.format must be console, text or json")
)

// Config is the complete multiverse configuration.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Cache   CacheConfig   `yaml:"cache"`
	Browse  BrowseConfig  `yaml:"browse"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`

	// configPath is the file the config was loaded from (or would be saved to).
	configPath string
}

// APIConfig configures the catalog client.
type APIConfig struct {
	BaseURL       string        `yaml:"base_url"`
	Timeout       time.Duration `yaml:"timeout"`
	Retries       int           `yaml:"retries"`
	LookupRetries int           `yaml:"lookup_retries"`
	LookupBackoff time.Duration `yaml:"lookup_backoff"`
	RetryWaitMin  time.Duration `yaml:"retry_wait_min"`
	RetryWaitMax  time.Duration `yaml:"retry_wait_max"`
}

// CacheConfig configures the in-memory response cache.
type CacheConfig struct {
	Enabled    bool          `yaml:"enabled"`
	TTL        time.Duration `yaml:"ttl"`
	LookupTTL  time.Duration `yaml:"lookup_ttl"`
	MaxEntries int           `yaml:"max_entries"`
}

// BrowseConfig configures aggregation defaults.
type BrowseConfig struct {
	Mode        string `yaml:"mode"`
	PageSize    int    `yaml:"page_size"`
	DefaultSort string `yaml:"default_sort"`
}

// OutputConfig configures listing output.
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:       catalog.DefaultBaseURL,
			Timeout:       catalog.DefaultTimeout,
			Retries:       0,
			LookupRetries: catalog.DefaultLookupRetries,
			LookupBackoff: catalog.DefaultLookupBackoff,
			RetryWaitMin:  catalog.DefaultRetryWaitMin,
			RetryWaitMax:  catalog.DefaultRetryWaitMax,
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTL:        cache.DefaultTTL,
			LookupTTL:  cache.DefaultLookupTTL,
			MaxEntries: cache.DefaultMaxEntries,
		},
		Browse: BrowseConfig{
			Mode:        string(engine.ModeServer),
			PageSize:    engine.DefaultPageSize,
			DefaultSort: string(engine.SortNone),
		},
		Output: OutputConfig{
			DefaultFormat: FormatTable,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// New returns the effective configuration: defaults, then the config file
// (when present and readable), then a .env file in the working directory,
// then environment variables. Problems with optional sources are ignored.
func New() *Config {
	cfg := Default()

	if path, err := GetConfigPath(); err == nil {
		cfg.configPath = path
		if _, statErr := os.Stat(path); statErr == nil {
			_ = ShallowMergeYAML(cfg, path)
		}
	}

	_ = LoadDotEnv(dotEnvFileName)
	cfg.ApplyEnvOverrides()
	return cfg
}

// Load reads a config file strictly: unknown keys and malformed values are
// errors. Missing sections keep their defaults and an empty file loads as
// the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err = dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	cfg.configPath = path
	return cfg, nil
}

// Path returns the file the config is associated with.
func (c *Config) Path() string {
	return c.configPath
}

// Save writes the config to its path, creating the directory if needed.
func (c *Config) Save() error {
	if c.configPath == "" {
		path, err := GetConfigPath()
		if err != nil {
			return err
		}
		c.configPath = path
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the config as YAML to path.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err = os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file %s: %w", path, err)
	}
	return nil
}

// ApplyEnvOverrides applies MULTIVERSE_* environment variables.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv(EnvAPIURL); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv(EnvLogFile); v != "" {
		c.Logging.File = v
	}
	if os.Getenv(cache.EnvCacheEnabled) != "" {
		c.Cache.Enabled = cache.GetCacheEnabledFromEnv()
	}
	c.Cache.TTL = cache.GetTTLFromEnv(cache.EnvTTLSeconds, c.Cache.TTL)
	c.Cache.LookupTTL = cache.GetTTLFromEnv(cache.EnvLookupTTLSeconds, c.Cache.LookupTTL)
	if os.Getenv(cache.EnvCacheMaxEntries) != "" {
		c.Cache.MaxEntries = cache.GetMaxEntriesFromEnv()
	}
}

// LoadDotEnv loads KEY=VALUE pairs from path into the environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// Validate checks every section and returns the first problem found.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: %q", ErrInvalidBaseURL, c.API.BaseURL)
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("%w: got %s", ErrInvalidTimeout, c.API.Timeout)
	}
	if c.API.Retries < 0 || c.API.Retries > maxRetries ||
		c.API.LookupRetries < 0 || c.API.LookupRetries > maxRetries {
		return fmt.Errorf("%w: got %d and %d", ErrInvalidRetries, c.API.Retries, c.API.LookupRetries)
	}
	if c.API.RetryWaitMin <= 0 || c.API.RetryWaitMax < c.API.RetryWaitMin {
		return fmt.Errorf("%w: got %s and %s", ErrInvalidRetryWait, c.API.RetryWaitMin, c.API.RetryWaitMax)
	}
	if c.API.LookupBackoff < 0 {
		return fmt.Errorf("%w: got %s", ErrInvalidBackoff, c.API.LookupBackoff)
	}

	if c.Cache.Enabled {
		if err = cache.ValidateTTL(c.Cache.TTL); err != nil {
			return fmt.Errorf("cache.ttl: %w", err)
		}
		if err = cache.ValidateTTL(c.Cache.LookupTTL); err != nil {
			return fmt.Errorf("cache.lookup_ttl: %w", err)
		}
		if c.Cache.MaxEntries < 1 {
			return fmt.Errorf("cache.max_entries: %w", cache.ErrInvalidCapacity)
		}
	}

	if _, err = engine.ParseMode(c.Browse.Mode); err != nil {
		return err
	}
	if c.Browse.PageSize < 1 || c.Browse.PageSize > maxPageSize {
		return fmt.Errorf("%w: got %d", ErrInvalidPageSize, c.Browse.PageSize)
	}
	if _, err = engine.ParseSortKey(c.Browse.DefaultSort); err != nil {
		return fmt.Errorf("browse.default_sort: %w", err)
	}

	if !IsValidOutputFormat(c.Output.DefaultFormat) {
		return fmt.Errorf("%w: got %q", ErrInvalidOutputFormat, c.Output.DefaultFormat)
	}

	switch strings.ToLower(c.Logging.Format) {
	case "", "console", "text", "json":
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidLogFormat, c.Logging.Format)
	}
	return nil
}

// IsValidOutputFormat reports whether format is a supported output format.
func IsValidOutputFormat(format string) bool {
	switch format {
	case FormatTable, FormatJSON, FormatNDJSON:
		return true
	default:
		return false
	}
}
