package gapanalyzer

import (
	"fmt"
	"strings"
)

// Config holds the analyzer settings.
type Config struct {
	// SourceRoot is where claimed files and keyword matches are resolved.
	SourceRoot string `json:"source_root" yaml:"source_root"`

	// ConfidenceThreshold drops emitted gaps whose confidence is below it (inclusive lower bound).
	ConfidenceThreshold int `json:"confidence_threshold" yaml:"confidence_threshold"`

	IncludeStubs      bool `json:"include_stubs" yaml:"include_stubs"`
	IncludePartial    bool `json:"include_partial" yaml:"include_partial"`
	CheckTestCoverage bool `json:"check_test_coverage" yaml:"check_test_coverage"`

	// CandidateDir and CandidateExt build expected locations from keywords:
	// <CandidateDir>/<keyword><CandidateExt>.
	CandidateDir string `json:"candidate_dir" yaml:"candidate_dir"`
	CandidateExt string `json:"candidate_ext" yaml:"candidate_ext"`

	// Workers bounds concurrent requirement analysis. 1 runs sequentially.
	Workers int `json:"workers" yaml:"workers"`

	// CacheSize bounds the per-run parse cache. 0 disables caching.
	CacheSize int `json:"cache_size" yaml:"cache_size"`
}

// DefaultConfig returns the default analyzer configuration.
func DefaultConfig() Config {
	return Config{
		SourceRoot:          ".",
		ConfidenceThreshold: 50,
		IncludeStubs:        true,
		IncludePartial:      true,
		CheckTestCoverage:   true,
		CandidateDir:        "src",
		CandidateExt:        ".ts",
		Workers:             1,
		CacheSize:           1024,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.SourceRoot == "" {
		return fmt.Errorf("source_root is required")
	}
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 100 {
		return fmt.Errorf("confidence_threshold must be between 0 and 100, got %d", c.ConfidenceThreshold)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("cache_size must not be negative")
	}
	if c.CandidateExt != "" && !strings.HasPrefix(c.CandidateExt, ".") {
		return fmt.Errorf("candidate_ext must start with a dot, got %q", c.CandidateExt)
	}
	return nil
}
