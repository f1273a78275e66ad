package parser

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/c360studio/specgap/spec"
)

// SpecKit layout file names.
const (
	SpecKitDir      = "specs"
	SpecKitMarker   = ".specify"
	SpecKitSpecFile = "spec.md"
	SpecKitPlanFile = "plan.md"
	SpecKitTaskFile = "tasks.md"
)

// SpecKitParser parses schema A: specs/<feature>/spec.md with optional plan.md and
// tasks.md siblings that are merged unless the route asks for the spec alone.
type SpecKitParser struct {
	route  string
	x      extractor
	logger *slog.Logger
}

// NewSpecKitParser creates a schema A parser for the given route hint.
func NewSpecKitParser(route string) *SpecKitParser {
	return &SpecKitParser{
		route:  route,
		logger: slog.Default(),
	}
}

// SetLogger sets the logger for the parser.
func (p *SpecKitParser) SetLogger(logger *slog.Logger) {
	p.logger = logger
}

// Format returns spec.FormatSpecKit.
func (p *SpecKitParser) Format() spec.Format {
	return spec.FormatSpecKit
}

// SpecsDir returns <root>/specs.
func (p *SpecKitParser) SpecsDir(projectRoot string) string {
	return filepath.Join(projectRoot, SpecKitDir)
}

// ParseSpec parses one spec.md and, depending on the route, its auxiliary documents.
func (p *SpecKitParser) ParseSpec(path string) (*spec.Specification, error) {
	doc, err := readDocument(path)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	s := p.x.extract(doc, filepath.Base(dir), spec.FormatSpecKit)

	if p.route != spec.RouteSpecOnly {
		mergeAuxiliary(p.logger, s, filepath.Join(dir, SpecKitPlanFile))
		mergeAuxiliary(p.logger, s, filepath.Join(dir, SpecKitTaskFile))
	}

	p.logger.Debug("Parsed specification",
		slog.String("id", s.ID),
		slog.String("path", path),
		slog.Int("requirements", len(s.FunctionalRequirements)+len(s.NonFunctionalRequirements)))
	return s, nil
}

// ParseFromDirectory parses every specs/<feature>/spec.md below dir.
func (p *SpecKitParser) ParseFromDirectory(ctx context.Context, dir string) ([]*spec.Specification, []*spec.SpecParsingError, error) {
	return parseFeatureDirs(ctx, p.logger, dir, SpecKitSpecFile, p.ParseSpec)
}
