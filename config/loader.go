package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const (
	// ProjectConfigFile is the name of the project-level config file
	ProjectConfigFile = "specgap.yaml"
	// UserConfigDir is the directory for user-level config
	UserConfigDir = ".config/specgap"
	// UserConfigFile is the name of the user-level config file
	UserConfigFile = "config.yaml"
)

// Loader handles configuration loading with layered precedence
type Loader struct {
	logger *slog.Logger
	// dir is where the project config search starts (default: working directory)
	dir string
	// home overrides the user home directory
	home string
}

// NewLoader creates a new configuration loader
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// SetDir sets the directory the project config search starts from.
func (l *Loader) SetDir(dir string) {
	l.dir = dir
}

// SetHome overrides the home directory used for the user config.
func (l *Loader) SetHome(home string) {
	l.home = home
}

// Load loads configuration with layered precedence:
// 1. Default config
// 2. User config (~/.config/specgap/config.yaml)
// 3. Project config (specgap.yaml in the start or parent directories)
// Command-line flags are applied by the caller on the returned config.
// A project config that exists but cannot be parsed is an error.
func (l *Loader) Load() (*Config, error) {
	config := DefaultConfig()

	// Load user config
	if userConfigPath := l.userConfigPath(); userConfigPath != "" {
		if err := config.Overlay(userConfigPath); err == nil {
			l.logger.Debug("Loaded user config", slog.String("path", userConfigPath))
		} else if !errors.Is(err, fs.ErrNotExist) {
			l.logger.Warn("Failed to load user config", slog.String("path", userConfigPath), slog.String("error", err.Error()))
		}
	}

	// Load project config
	projectConfigPath := l.findProjectConfig()
	if projectConfigPath != "" {
		if err := config.Overlay(projectConfigPath); err != nil {
			return nil, err
		}
		l.logger.Debug("Loaded project config", slog.String("path", projectConfigPath))

		// Relative paths in a project config are relative to the file.
		base := filepath.Dir(projectConfigPath)
		config.Paths.Project = resolve(base, config.Paths.Project)
		if config.Paths.Project == "" {
			config.Paths.Project = base
		}
		config.Paths.Specs = resolve(base, config.Paths.Specs)
		config.Paths.Source = resolve(base, config.Paths.Source)
	} else {
		l.logger.Debug("No project config found")
	}

	// Auto-detect project path if not set
	if config.Paths.Project == "" {
		if gitRoot := l.detectGitRoot(); gitRoot != "" {
			config.Paths.Project = gitRoot
			l.logger.Debug("Auto-detected git root", slog.String("path", gitRoot))
		} else if dir := l.startDir(); dir != "" {
			config.Paths.Project = dir
			l.logger.Debug("Using current directory as project root", slog.String("path", dir))
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// EnsureUserConfig creates the user config file with defaults if it doesn't exist
func (l *Loader) EnsureUserConfig() error {
	userConfigPath := l.userConfigPath()

	if _, err := os.Stat(userConfigPath); err == nil {
		return nil
	}

	config := DefaultConfig()
	if err := config.SaveToFile(userConfigPath); err != nil {
		return err
	}

	l.logger.Info("Created default user config", slog.String("path", userConfigPath))
	return nil
}

// userConfigPath returns the path to the user config file
func (l *Loader) userConfigPath() string {
	home := l.home
	if home == "" {
		var err error
		if home, err = os.UserHomeDir(); err != nil {
			return ""
		}
	}
	return filepath.Join(home, UserConfigDir, UserConfigFile)
}

func (l *Loader) startDir() string {
	if l.dir != "" {
		return l.dir
	}
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return cwd
}

// findProjectConfig searches for specgap.yaml in the start and parent directories
func (l *Loader) findProjectConfig() string {
	dir := l.startDir()
	if dir == "" {
		return ""
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}

	for {
		configPath := filepath.Join(dir, ProjectConfigFile)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// detectGitRoot finds the git repository root from the start directory
func (l *Loader) detectGitRoot() string {
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	cmd.Dir = l.startDir()
	output, err := cmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(output))
}

func resolve(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}
