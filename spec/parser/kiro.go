package parser

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/c360studio/specgap/spec"
)

// Kiro layout file names.
const (
	KiroDir              = ".kiro/specs"
	KiroRequirementsFile = "requirements.md"
	KiroTasksFile        = "tasks.md"
)

// KiroParser parses schema B: .kiro/specs/<feature>/requirements.md with a tasks.md sibling.
// "Requirement <n>" headings are read as REQ<n>, and a requirement block spans its nested
// subsections so that per-requirement acceptance criteria stay with the requirement.
type KiroParser struct {
	x      extractor
	logger *slog.Logger
}

// NewKiroParser creates a schema B parser.
func NewKiroParser() *KiroParser {
	return &KiroParser{
		x: extractor{
			numberedRequirements: true,
			requirementSubtree:   true,
		},
		logger: slog.Default(),
	}
}

// SetLogger sets the logger for the parser.
func (p *KiroParser) SetLogger(logger *slog.Logger) {
	p.logger = logger
}

// Format returns spec.FormatKiro.
func (p *KiroParser) Format() spec.Format {
	return spec.FormatKiro
}

// SpecsDir returns <root>/.kiro/specs.
func (p *KiroParser) SpecsDir(projectRoot string) string {
	return filepath.Join(projectRoot, filepath.FromSlash(KiroDir))
}

// ParseSpec parses one requirements.md and merges its tasks.md.
func (p *KiroParser) ParseSpec(path string) (*spec.Specification, error) {
	doc, err := readDocument(path)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	s := p.x.extract(doc, filepath.Base(dir), spec.FormatKiro)
	mergeAuxiliary(p.logger, s, filepath.Join(dir, KiroTasksFile))

	p.logger.Debug("Parsed specification",
		slog.String("id", s.ID),
		slog.String("path", path),
		slog.Int("requirements", len(s.FunctionalRequirements)+len(s.NonFunctionalRequirements)))
	return s, nil
}

// ParseFromDirectory parses every .kiro/specs/<feature>/requirements.md below dir.
func (p *KiroParser) ParseFromDirectory(ctx context.Context, dir string) ([]*spec.Specification, []*spec.SpecParsingError, error) {
	return parseFeatureDirs(ctx, p.logger, dir, KiroRequirementsFile, p.ParseSpec)
}
