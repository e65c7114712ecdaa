package hostconfig

import (
	"log/slog"
	"os"
	"path/filepath"
)

const (
	// ProjectConfigFile is the project-level config file name, discovered
	// by upward directory search from the current working directory.
	ProjectConfigFile = "qaengine.yaml"
	// UserConfigDir is the per-user config directory under $HOME.
	UserConfigDir = ".config/qaengine"
	// UserConfigFile is the user-level config file name.
	UserConfigFile = "config.yaml"
)

// Loader resolves Config with layered precedence: built-in defaults, then
// user config, then project config, each overlaying the last.
type Loader struct {
	logger *slog.Logger
}

// NewLoader builds a Loader. A nil logger falls back to slog.Default().
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Load resolves the layered Config.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if userPath := l.userConfigPath(); userPath != "" {
		if userCfg, err := LoadFromFile(userPath); err == nil {
			l.logger.Debug("loaded user host config", slog.String("path", userPath))
			cfg.Merge(userCfg)
		} else if !os.IsNotExist(err) {
			l.logger.Warn("failed to load user host config", slog.String("path", userPath), slog.String("error", err.Error()))
		}
	}

	if projectPath := l.findProjectConfig(); projectPath != "" {
		if projectCfg, err := LoadFromFile(projectPath); err == nil {
			l.logger.Debug("loaded project host config", slog.String("path", projectPath))
			cfg.Merge(projectCfg)
		} else {
			l.logger.Warn("failed to load project host config", slog.String("path", projectPath), slog.String("error", err.Error()))
		}
	} else {
		l.logger.Debug("no project host config found")
	}

	return cfg, nil
}

func (l *Loader) userConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, UserConfigDir, UserConfigFile)
}

// findProjectConfig searches for ProjectConfigFile in the current directory
// and each parent, stopping at the filesystem root.
func (l *Loader) findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	dir := cwd
	for {
		candidate := filepath.Join(dir, ProjectConfigFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
