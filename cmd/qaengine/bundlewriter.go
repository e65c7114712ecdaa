package main

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/c360studio/qaengine/engine"
	"github.com/c360studio/qaengine/internal/hostconfig"
)

// writeBundle performs the host-side half of the qa.wizard.generated event
// contract (spec.md §6): the engine only produces structured data, a host
// decides whether and where to write it. Every file path is verified to
// resolve under one of cfg.AllowedRoots before anything is written.
func writeBundle(cfg *hostconfig.BundleConfig, destRoot string, event engine.WizardGeneratedEvent) error {
	if !cfg.Enabled {
		return fmt.Errorf("bundle writing is disabled (set bundle.enabled: true in config)")
	}

	absDest, err := filepath.Abs(destRoot)
	if err != nil {
		return fmt.Errorf("resolve destination: %w", err)
	}
	if !withinAllowedRoots(absDest, cfg.AllowedRoots) {
		return fmt.Errorf("destination %q is outside every allowed_roots entry", absDest)
	}

	for _, f := range event.Files {
		target := filepath.Join(absDest, filepath.Clean(f.Path))
		if !strings.HasPrefix(target, absDest+string(filepath.Separator)) {
			return fmt.Errorf("refusing to write outside destination: %q", f.Path)
		}
		if !cfg.Force {
			if _, err := os.Stat(target); err == nil {
				return fmt.Errorf("file already exists (use --force): %s", target)
			}
		}
		contents, err := base64.StdEncoding.DecodeString(f.ContentsBase64)
		if err != nil {
			return fmt.Errorf("decode %s: %w", f.Path, err)
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("mkdir for %s: %w", f.Path, err)
		}
		if err := os.WriteFile(target, contents, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", f.Path, err)
		}
	}
	return nil
}

func withinAllowedRoots(absPath string, roots []string) bool {
	if len(roots) == 0 {
		return false
	}
	for _, root := range roots {
		absRoot, err := filepath.Abs(root)
		if err != nil {
			continue
		}
		if absPath == absRoot || strings.HasPrefix(absPath, absRoot+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
