package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadYAMLOnly(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "udl.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("verbose: true\nstrict_checksum: true\nallow_serials:\n  - ABC123\n  - DEF456\n"), 0o644))

	cfg, err := Load(yamlPath)
	require.NoError(t, err)

	assert.True(t, cfg.Options.Verbose)
	assert.True(t, cfg.Options.StrictChecksum)
	assert.ElementsMatch(t, []string{"ABC123", "DEF456"}, cfg.AllowSerials)
}

func TestLoadMissingYAMLIsNotAnError(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.False(t, cfg.Options.Verbose)
}

func TestEnvironmentOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "udl.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("verbose: false\n"), 0o644))

	t.Setenv("UDL_VERBOSE", "true")
	cfg, err := Load(yamlPath)
	require.NoError(t, err)
	assert.True(t, cfg.Options.Verbose)
}

func TestIsAllowed(t *testing.T) {
	cfg := &Config{}
	assert.True(t, cfg.IsAllowed("ANYTHING"), "empty allow-list permits everything")

	cfg.AllowSerials = []string{"ABC123"}
	assert.True(t, cfg.IsAllowed("ABC123"))
	assert.False(t, cfg.IsAllowed("OTHER"))
}
