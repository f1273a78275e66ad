package parser

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/c360studio/specgap/spec"
)

// Options selects what the Reader reads.
type Options struct {
	// ProjectRoot is probed for schema layouts.
	ProjectRoot string

	// SpecRoot overrides ProjectRoot as the base for spec layouts. Optional.
	SpecRoot string

	// FormatOverride skips detection when set.
	FormatOverride spec.Format

	// Route is the schema A route hint.
	Route string
}

// ReadResult is the normalized output of the Reader.
type ReadResult struct {
	// Format is the detected (or overridden) format tag.
	Format spec.Format

	// Specifications from every parser that ran, in parser then directory order.
	Specifications []*spec.Specification

	// Skipped lists documents that could not be parsed.
	Skipped []*spec.SpecParsingError
}

// Requirements returns every requirement of every specification, qualified by its owner.
// Requirement IDs are not renumbered.
func (r *ReadResult) Requirements() []spec.QualifiedRequirement {
	var reqs []spec.QualifiedRequirement
	for _, s := range r.Specifications {
		for _, req := range s.Requirements() {
			reqs = append(reqs, spec.QualifiedRequirement{Spec: s, Requirement: req})
		}
	}
	return reqs
}

// Reader combines detection and both schema parsers behind one call.
type Reader struct {
	logger *slog.Logger
}

// NewReader creates a new Reader.
func NewReader(logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{logger: logger}
}

// Read detects the layouts present and parses them.
func (r *Reader) Read(ctx context.Context, opts Options) (*ReadResult, error) {
	if !spec.ValidRoute(opts.Route) {
		return nil, fmt.Errorf("unknown route %q", opts.Route)
	}

	root := opts.SpecRoot
	if root == "" {
		root = opts.ProjectRoot
	}

	registry := NewRegistry(opts.Route, r.logger)
	detection := Detect(root)

	format := detection.Format()
	if opts.FormatOverride != "" {
		format = opts.FormatOverride
	}

	r.logger.Info("Reading specifications",
		slog.String("root", root),
		slog.String("detected", string(detection.Format())),
		slog.String("format", string(format)))

	result := &ReadResult{Format: format}
	for _, f := range format.Formats() {
		p := registry.Get(f)
		if p == nil {
			return nil, spec.NewGapDetectionError("read specs", fmt.Sprintf("no parser for format %s", f), nil)
		}

		dir, ok := detection.Paths[f]
		if !ok {
			dir = p.SpecsDir(root)
		}

		specs, skipped, err := p.ParseFromDirectory(ctx, dir)
		if err != nil {
			return nil, err
		}
		result.Specifications = append(result.Specifications, specs...)
		result.Skipped = append(result.Skipped, skipped...)
	}

	r.disambiguate(result.Specifications)

	r.logger.Info("Read specifications",
		slog.Int("specs", len(result.Specifications)),
		slog.Int("skipped", len(result.Skipped)))
	return result, nil
}

// disambiguate renames a specification whose requirement keys collide with an
// earlier one, such as the same feature directory under both layouts. The later
// specification gets its format appended to its ID.
func (r *Reader) disambiguate(specs []*spec.Specification) {
	keys := make(map[string]bool)
	for _, s := range specs {
		for collides(keys, s) {
			renamed := s.ID + "-" + string(s.Format)
			r.logger.Warn("Renaming specification with colliding requirement ids",
				slog.String("id", s.ID),
				slog.String("renamed", renamed),
				slog.String("path", s.SourcePath))
			s.ID = renamed
		}
		for _, req := range s.Requirements() {
			keys[s.ID+"/"+req.ID] = true
		}
	}
}

func collides(keys map[string]bool, s *spec.Specification) bool {
	for _, req := range s.Requirements() {
		if keys[s.ID+"/"+req.ID] {
			return true
		}
	}
	return false
}
