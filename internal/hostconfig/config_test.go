package hostconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/qaengine/expr"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "en", cfg.DefaultLocale)
	assert.Equal(t, expr.OnMissingError, cfg.ValidationOnlyVisibility)
	assert.Equal(t, expr.OnMissingVisible, cfg.InteractiveVisibility)
	assert.False(t, cfg.Bundle.Enabled)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
default_locale: fr
validation_only_visibility: hidden
bundle:
  enabled: true
  allowed_roots:
    - /tmp/bundles
  force: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "fr", cfg.DefaultLocale)
	assert.Equal(t, expr.OnMissingHidden, cfg.ValidationOnlyVisibility)
	assert.True(t, cfg.Bundle.Enabled)
	assert.Equal(t, []string{"/tmp/bundles"}, cfg.Bundle.AllowedRoots)
	assert.True(t, cfg.Bundle.Force)
}

func TestMergeOverlaysNonZeroFields(t *testing.T) {
	base := DefaultConfig()
	override := &Config{DefaultLocale: "de"}
	base.Merge(override)
	assert.Equal(t, "de", base.DefaultLocale)
	assert.Equal(t, expr.OnMissingError, base.ValidationOnlyVisibility, "unset override fields leave base untouched")
}

func TestSaveAndReloadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.DefaultLocale = "es"
	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "es", loaded.DefaultLocale)
}
