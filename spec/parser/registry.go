package parser

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/c360studio/specgap/spec"
)

// Registry maps schema formats to their parsers.
// Thread-safe for concurrent access.
type Registry struct {
	mu      sync.RWMutex
	parsers map[spec.Format]Parser
}

// NewRegistry creates a registry holding the schema A and schema B parsers.
func NewRegistry(route string, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}

	speckit := NewSpecKitParser(route)
	speckit.SetLogger(logger)
	kiro := NewKiroParser()
	kiro.SetLogger(logger)

	r := &Registry{parsers: make(map[spec.Format]Parser)}
	r.Register(speckit)
	r.Register(kiro)
	return r
}

// Register adds a parser, replacing any parser for the same format.
func (r *Registry) Register(p Parser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parsers[p.Format()] = p
}

// Get returns the parser for format, or nil.
func (r *Registry) Get(format spec.Format) Parser {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.parsers[format]
}

// Formats returns the registered formats in sorted order.
func (r *Registry) Formats() []spec.Format {
	r.mu.RLock()
	defer r.mu.RUnlock()

	formats := make([]spec.Format, 0, len(r.parsers))
	for f := range r.parsers {
		formats = append(formats, f)
	}
	sort.Slice(formats, func(i, j int) bool { return formats[i] < formats[j] })
	return formats
}

// Detection reports which schema layouts exist under a project root.
type Detection struct {
	// Paths maps each detected single-schema format to its specs directory.
	Paths map[spec.Format]string
}

// Format summarizes the detection as speckit, kiro, both or none.
func (d *Detection) Format() spec.Format {
	_, a := d.Paths[spec.FormatSpecKit]
	_, b := d.Paths[spec.FormatKiro]
	switch {
	case a && b:
		return spec.FormatBoth
	case a:
		return spec.FormatSpecKit
	case b:
		return spec.FormatKiro
	default:
		return spec.FormatNone
	}
}

// Detect probes well-known layouts below projectRoot. It only checks for the existence
// of directories and primary documents and never reads document contents.
func Detect(projectRoot string) *Detection {
	d := &Detection{Paths: make(map[spec.Format]string)}

	specsDir := filepath.Join(projectRoot, SpecKitDir)
	if hasFeatureDir(specsDir, SpecKitSpecFile) || (isDir(filepath.Join(projectRoot, SpecKitMarker)) && isDir(specsDir)) {
		d.Paths[spec.FormatSpecKit] = specsDir
	}

	kiroDir := filepath.Join(projectRoot, filepath.FromSlash(KiroDir))
	if hasFeatureDir(kiroDir, KiroRequirementsFile) {
		d.Paths[spec.FormatKiro] = kiroDir
	}

	return d
}

func hasFeatureDir(dir, primary string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(dir, e.Name(), primary)); err == nil {
			return true
		}
	}
	return false
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
