// Package config provides configuration loading and management for specgap.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	filesearch "github.com/c360studio/specgap/processor/file-search"
	gapanalyzer "github.com/c360studio/specgap/processor/gap-analyzer"
	"github.com/c360studio/specgap/spec"
	"github.com/c360studio/specgap/spec/parser"
	"gopkg.in/yaml.v3"
)

// Config represents the complete specgap configuration
type Config struct {
	Paths    PathsConfig    `yaml:"paths"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Search   SearchConfig   `yaml:"search"`
	Log      LogConfig      `yaml:"log"`
}

// PathsConfig locates the project, its specifications and its source
type PathsConfig struct {
	// Project is the project root (auto-detected from git if empty)
	Project string `yaml:"project"`
	// Specs overrides the project root as the base of the spec layouts
	Specs string `yaml:"specs"`
	// Source is where claimed files are resolved (default: project root)
	Source string `yaml:"source"`
}

// AnalysisConfig configures gap analysis
type AnalysisConfig struct {
	// ConfidenceThreshold drops gaps below this confidence (0-100, default: 50)
	ConfidenceThreshold int  `yaml:"confidence_threshold"`
	IncludeStubs        bool `yaml:"include_stubs"`
	IncludePartial      bool `yaml:"include_partial"`
	CheckTestCoverage   bool `yaml:"check_test_coverage"`
	// Format forces a spec layout: speckit, kiro, both (empty = detect)
	Format string `yaml:"format"`
	// Route is the speckit route hint: full or spec
	Route string `yaml:"route"`
	// Workers bounds concurrent requirement analysis
	Workers int `yaml:"workers"`
	// CacheSize bounds the per-run parse cache (0 disables it)
	CacheSize int `yaml:"cache_size"`
}

// SearchConfig configures source file discovery
type SearchConfig struct {
	Extensions  []string `yaml:"extensions"`
	ExcludeDirs []string `yaml:"exclude_dirs"`
	// CandidateDir and CandidateExt shape the expected location for a keyword
	CandidateDir string `yaml:"candidate_dir"`
	CandidateExt string `yaml:"candidate_ext"`
}

// LogConfig configures logging
type LogConfig struct {
	// Level is debug, info, warn or error
	Level string `yaml:"level"`
	// Format is text or json
	Format string `yaml:"format"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	analyzer := gapanalyzer.DefaultConfig()
	search := filesearch.DefaultConfig()
	return &Config{
		Analysis: AnalysisConfig{
			ConfidenceThreshold: analyzer.ConfidenceThreshold,
			IncludeStubs:        analyzer.IncludeStubs,
			IncludePartial:      analyzer.IncludePartial,
			CheckTestCoverage:   analyzer.CheckTestCoverage,
			Route:               spec.RouteFull,
			Workers:             analyzer.Workers,
			CacheSize:           analyzer.CacheSize,
		},
		Search: SearchConfig{
			Extensions:   search.Extensions,
			ExcludeDirs:  search.ExcludeDirs,
			CandidateDir: analyzer.CandidateDir,
			CandidateExt: analyzer.CandidateExt,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Analysis.Format != "" {
		if _, ok := spec.ParseFormat(c.Analysis.Format); !ok {
			return fmt.Errorf("analysis.format %q is not one of speckit, kiro, both, none", c.Analysis.Format)
		}
	}
	if !spec.ValidRoute(c.Analysis.Route) {
		return fmt.Errorf("analysis.route %q is not one of full, spec", c.Analysis.Route)
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	if c.Log.Format != "" && c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}

	analyzer := c.AnalyzerConfig()
	if analyzer.SourceRoot == "" {
		analyzer.SourceRoot = "."
	}
	if err := analyzer.Validate(); err != nil {
		return fmt.Errorf("analysis: %w", err)
	}
	return nil
}

// LogLevel parses Log.Level. Empty means info.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	text := strings.TrimSpace(c.Log.Level)
	if text == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(text)); err != nil {
		return level, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// FormatOverride returns the forced spec format, or "" to detect.
func (c *Config) FormatOverride() spec.Format {
	f, _ := spec.ParseFormat(c.Analysis.Format)
	return f
}

// SourceRoot returns the source root, defaulting to the project root.
func (c *Config) SourceRoot() string {
	if c.Paths.Source != "" {
		return c.Paths.Source
	}
	return c.Paths.Project
}

// ReaderOptions builds the spec reader options.
func (c *Config) ReaderOptions() parser.Options {
	return parser.Options{
		ProjectRoot:    c.Paths.Project,
		SpecRoot:       c.Paths.Specs,
		FormatOverride: c.FormatOverride(),
		Route:          c.Analysis.Route,
	}
}

// AnalyzerConfig builds the gap analyzer configuration.
func (c *Config) AnalyzerConfig() gapanalyzer.Config {
	return gapanalyzer.Config{
		SourceRoot:          c.SourceRoot(),
		ConfidenceThreshold: c.Analysis.ConfidenceThreshold,
		IncludeStubs:        c.Analysis.IncludeStubs,
		IncludePartial:      c.Analysis.IncludePartial,
		CheckTestCoverage:   c.Analysis.CheckTestCoverage,
		CandidateDir:        c.Search.CandidateDir,
		CandidateExt:        c.Search.CandidateExt,
		Workers:             c.Analysis.Workers,
		CacheSize:           c.Analysis.CacheSize,
	}
}

// SearchConfig builds the file searcher configuration.
func (c *Config) SearchConfig() filesearch.Config {
	return filesearch.Config{
		Extensions:  c.Search.Extensions,
		ExcludeDirs: c.Search.ExcludeDirs,
	}
}

// LoadFromFile loads configuration from a YAML file on top of the defaults
func LoadFromFile(path string) (*Config, error) {
	config := DefaultConfig()
	if err := config.Overlay(path); err != nil {
		return nil, err
	}
	return config, nil
}

// Overlay applies the keys present in a YAML file onto c; absent keys keep
// their current values, so boolean defaults can be switched off by a layer.
func (c *Config) Overlay(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values).
// Booleans cannot be cleared through Merge; use Overlay for file layers.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Paths
	if other.Paths.Project != "" {
		c.Paths.Project = other.Paths.Project
	}
	if other.Paths.Specs != "" {
		c.Paths.Specs = other.Paths.Specs
	}
	if other.Paths.Source != "" {
		c.Paths.Source = other.Paths.Source
	}

	// Analysis
	if other.Analysis.ConfidenceThreshold != 0 {
		c.Analysis.ConfidenceThreshold = other.Analysis.ConfidenceThreshold
	}
	if other.Analysis.Format != "" {
		c.Analysis.Format = other.Analysis.Format
	}
	if other.Analysis.Route != "" {
		c.Analysis.Route = other.Analysis.Route
	}
	if other.Analysis.Workers != 0 {
		c.Analysis.Workers = other.Analysis.Workers
	}
	if other.Analysis.CacheSize != 0 {
		c.Analysis.CacheSize = other.Analysis.CacheSize
	}

	// Search
	if len(other.Search.Extensions) > 0 {
		c.Search.Extensions = other.Search.Extensions
	}
	if len(other.Search.ExcludeDirs) > 0 {
		c.Search.ExcludeDirs = other.Search.ExcludeDirs
	}
	if other.Search.CandidateDir != "" {
		c.Search.CandidateDir = other.Search.CandidateDir
	}
	if other.Search.CandidateExt != "" {
		c.Search.CandidateExt = other.Search.CandidateExt
	}

	// Log
	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}
	if other.Log.Format != "" {
		c.Log.Format = other.Log.Format
	}
}
