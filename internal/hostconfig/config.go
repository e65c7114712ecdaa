// Package hostconfig provides the host-level configuration layer that sits
// outside the pure engine (spec.md §9 "no global state": the engine takes
// every input explicitly, so defaults like these are resolved once, by the
// host, before an engine call is made — never reached for from inside
// package plan/validate/etc). Adapted from the teacher's config.Loader.
package hostconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/c360studio/qaengine/expr"
	"github.com/c360studio/qaengine/spec"
	"github.com/c360studio/qaengine/validate"
)

// Config is the full set of host-level defaults this repo's CLI and bundle
// writer consult. None of it is read by the engine packages themselves.
type Config struct {
	// DefaultLocale is used when a runtime context envelope omits locale.
	DefaultLocale string `yaml:"default_locale"`

	// ValidationOnlyVisibility is the visibility_on_missing policy for
	// non-interactive validate_answers calls (spec.md §4.1's "Open
	// questions"). It is loaded and merged but not read by the CLI, which
	// builds every engine with InteractiveVisibility.
	ValidationOnlyVisibility expr.VisibilityOnMissing `yaml:"validation_only_visibility"`

	// InteractiveVisibility is the policy applied by plan_next/plan_submit_*
	// during interactive use.
	InteractiveVisibility expr.VisibilityOnMissing `yaml:"interactive_visibility"`

	// UnknownFields is the default validate.UnknownFieldMode when a caller
	// does not specify one.
	UnknownFields validate.UnknownFieldMode `yaml:"unknown_fields"`

	// DefaultSecretsPolicy is the secrets policy for a FormSpec that omits
	// secrets_policy. It is loaded and merged but not applied: the engine
	// always uses the loaded FormSpec's own SecretsPolicy.
	DefaultSecretsPolicy spec.SecretsPolicy `yaml:"default_secrets_policy"`

	// Bundle controls the dev bundle writer (spec.md §6 "Persistence
	// modes").
	Bundle BundleConfig `yaml:"bundle"`
}

// BundleConfig configures the optional dev writer persistence mode.
type BundleConfig struct {
	// Enabled selects the dev writer; when false the engine only emits the
	// qa.wizard.generated structured event (the default, event-only mode).
	Enabled bool `yaml:"enabled"`
	// AllowedRoots lists directories the dev writer may write under. A
	// write outside every allowed root, or any path escaping via "..", is
	// rejected regardless of this setting.
	AllowedRoots []string `yaml:"allowed_roots"`
	// Force permits overwriting existing files; default false.
	Force bool `yaml:"force"`
}

// DefaultConfig returns the built-in defaults applied before any on-disk
// config is merged in.
func DefaultConfig() *Config {
	return &Config{
		DefaultLocale:            "en",
		ValidationOnlyVisibility: expr.OnMissingError,
		InteractiveVisibility:    expr.OnMissingVisible,
		UnknownFields:            validate.Permissive,
		DefaultSecretsPolicy:     spec.SecretsPolicy{},
		Bundle: BundleConfig{
			Enabled:      false,
			AllowedRoots: nil,
			Force:        false,
		},
	}
}

// LoadFromFile reads and merges a YAML config file over DefaultConfig.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read host config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse host config file: %w", err)
	}
	return cfg, nil
}

// SaveToFile writes cfg as YAML, creating parent directories as needed.
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create host config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal host config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write host config file: %w", err)
	}
	return nil
}

// Merge overlays other's non-zero fields onto c (other wins).
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}
	if other.DefaultLocale != "" {
		c.DefaultLocale = other.DefaultLocale
	}
	if other.ValidationOnlyVisibility != "" {
		c.ValidationOnlyVisibility = other.ValidationOnlyVisibility
	}
	if other.InteractiveVisibility != "" {
		c.InteractiveVisibility = other.InteractiveVisibility
	}
	if other.UnknownFields != "" {
		c.UnknownFields = other.UnknownFields
	}
	if other.DefaultSecretsPolicy.Enabled {
		c.DefaultSecretsPolicy = other.DefaultSecretsPolicy
	}
	if other.Bundle.Enabled {
		c.Bundle.Enabled = true
	}
	if len(other.Bundle.AllowedRoots) > 0 {
		c.Bundle.AllowedRoots = other.Bundle.AllowedRoots
	}
	if other.Bundle.Force {
		c.Bundle.Force = true
	}
}
