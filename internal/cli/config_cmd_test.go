package cli_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/rshade/multiverse/internal/catalog"
	"github.com/rshade/multiverse/internal/config"
	"github.com/rshade/multiverse/internal/engine/cache"
)

func TestConfigInit(t *testing.T) {
	home := setupCLITest(t)

	stdout, _, err := executeCmd(t, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Configuration initialized successfully")

	path := filepath.Join(home, "config.yaml")
	assert.Contains(t, stdout, "Configuration file: "+path)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, catalog.DefaultBaseURL, cfg.API.BaseURL)
	assert.Equal(t, cache.DefaultTTL, cfg.Cache.TTL)
	assert.Equal(t, config.FormatTable, cfg.Output.DefaultFormat)

	_, _, err = executeCmd(t, "config", "init")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, _, err = executeCmd(t, "config", "init", "--force")
	require.NoError(t, err)
}

func TestConfigInit_CreatesMissingHome(t *testing.T) {
	setupCLITest(t)
	home := filepath.Join(t.TempDir(), "nested", "multiverse")
	t.Setenv(config.EnvHome, home)

	_, _, err := executeCmd(t, "config", "init")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(home, "config.yaml"))
}

func TestConfigInit_WritesDefaultsNotOverrides(t *testing.T) {
	home := setupCLITest(t)

	_, _, err := executeCmd(t, "--api-url", "http://localhost:9999/api", "config", "init")
	require.NoError(t, err)

	cfg, err := config.Load(filepath.Join(home, "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, catalog.DefaultBaseURL, cfg.API.BaseURL)
}

// showConfig runs config show and decodes its YAML output.
func showConfig(t *testing.T, args ...string) config.Config {
	t.Helper()
	stdout, _, err := executeCmd(t, append(args, "config", "show")...)
	require.NoError(t, err)

	var cfg config.Config
	require.NoError(t, yaml.Unmarshal([]byte(stdout), &cfg), stdout)
	return cfg
}

func TestConfigShow_Precedence(t *testing.T) {
	home := setupCLITest(t)

	// File < --config overlay < environment < flags.
	require.NoError(t, config.Default().SaveTo(filepath.Join(home, "config.yaml")))
	overlay := writeOverlay(t, "logging:\n  level: warn\n  format: json\n")

	cfg := showConfig(t)
	assert.Equal(t, catalog.DefaultBaseURL, cfg.API.BaseURL)
	assert.True(t, cfg.Cache.Enabled)

	cfg = showConfig(t, "--config", overlay)
	assert.Equal(t, "json", cfg.Logging.Format)

	t.Setenv(config.EnvAPIURL, "http://env.example/api")
	cfg = showConfig(t)
	assert.Equal(t, "http://env.example/api", cfg.API.BaseURL)

	cfg = showConfig(t, "--api-url", "http://flag.example/api")
	assert.Equal(t, "http://flag.example/api", cfg.API.BaseURL)
}

func TestConfigShow_CacheTTLFlag(t *testing.T) {
	setupCLITest(t)

	cfg := showConfig(t, "--cache-ttl", "5m")
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)

	cfg = showConfig(t, "--cache-ttl", "90")
	assert.Equal(t, 90*time.Second, cfg.Cache.TTL)

	cfg = showConfig(t, "--cache-ttl", "0")
	assert.False(t, cfg.Cache.Enabled)

	_, _, err := executeCmd(t, "--cache-ttl", "soon", "config", "show")
	require.ErrorIs(t, err, cache.ErrInvalidTTL)
}

func TestRoot_InvalidConfiguration(t *testing.T) {
	setupCLITest(t)

	_, _, err := executeCmd(t, "--api-url", "ftp://example.com", "config", "show")
	require.ErrorIs(t, err, config.ErrInvalidBaseURL)

	overlay := writeOverlay(t, "browse:\n  page_size: 0\n  mode: server\n")
	_, _, err = executeCmd(t, "--config", overlay, "config", "show")
	require.ErrorIs(t, err, config.ErrInvalidPageSize)

	_, _, err = executeCmd(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "config", "show")
	require.Error(t, err)
}
