// Package gapanalyzer reconciles specification requirements with the source tree
// and produces confidence-scored gaps.
package gapanalyzer

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"

	"github.com/c360studio/specgap/gap"
	"github.com/c360studio/specgap/processor/ast"
	filesearch "github.com/c360studio/specgap/processor/file-search"
	"github.com/c360studio/specgap/spec"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	// Register the TypeScript/JavaScript parsers with ast.DefaultRegistry.
	_ "github.com/c360studio/specgap/processor/ast/ts"
)

// SuppressConfidence is the confidence at which a complete requirement is not reported.
const SuppressConfidence = 90

// Result is the outcome of one analysis run.
type Result struct {
	// RunID identifies the run in logs.
	RunID string `json:"run_id"`

	// Gaps passed suppression and the confidence threshold, in requirement order.
	Gaps []gap.Gap `json:"gaps"`

	// Analyzed counts every requirement examined.
	Analyzed int `json:"analyzed"`

	// Suppressed counts gaps withheld by status rules.
	Suppressed int `json:"suppressed"`

	// Filtered counts gaps dropped below the confidence threshold.
	Filtered int `json:"filtered"`

	// SkippedFiles are source files that could not be parsed, sorted.
	SkippedFiles []string `json:"skipped_files"`
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) {
		a.logger = logger
	}
}

// WithParser replaces the default extension-dispatching parser.
func WithParser(p ast.FileParser) Option {
	return func(a *Analyzer) {
		a.parser = p
	}
}

// WithSearcher replaces the default file searcher.
func WithSearcher(s *filesearch.Searcher) Option {
	return func(a *Analyzer) {
		a.searcher = s
	}
}

// WithRegisterer registers the analyzer metrics on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(a *Analyzer) {
		a.registerer = reg
	}
}

// Analyzer produces gaps for specifications. It keeps no state between runs and
// may be reused.
type Analyzer struct {
	config     Config
	parser     ast.FileParser
	searcher   *filesearch.Searcher
	registerer prometheus.Registerer
	metrics    *metrics
	logger     *slog.Logger
}

// New creates an Analyzer.
func New(cfg Config, opts ...Option) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	a := &Analyzer{
		config: cfg,
		parser: ast.DefaultRegistry,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.searcher == nil {
		a.searcher = filesearch.New(filesearch.DefaultConfig(), a.logger)
	}

	m, err := newMetrics(a.registerer)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}
	a.metrics = m
	return a, nil
}

// run holds per-run collaborators. The parse cache lives only as long as the run.
type run struct {
	id       string
	root     string
	config   Config
	parser   ast.FileParser
	searcher *filesearch.Searcher
	logger   *slog.Logger

	mu      sync.Mutex
	skipped map[string]bool
}

func (r *run) parse(ctx context.Context, path string) *ast.ParsedSourceFile {
	parsed := r.parser.ParseFile(ctx, path)
	if parsed.HasParseErrors() {
		r.mu.Lock()
		r.skipped[r.rel(path)] = true
		r.mu.Unlock()
	}
	return parsed
}

// outcome is the analyzer's verdict on one requirement before filtering.
type outcome struct {
	gap        gap.Gap
	suppressed bool
}

// newRun prepares per-run state: a run ID, the resolved source root and a fresh
// parse cache.
func (a *Analyzer) newRun() (*run, error) {
	root, err := filepath.Abs(a.config.SourceRoot)
	if err != nil {
		return nil, spec.NewGapDetectionError("resolve source root", a.config.SourceRoot, err)
	}

	r := &run{
		id:       uuid.New().String(),
		root:     root,
		config:   a.config,
		parser:   a.parser,
		searcher: a.searcher,
		skipped:  make(map[string]bool),
	}
	r.logger = a.logger.With(slog.String("run_id", r.id))

	if a.config.CacheSize > 0 {
		cached, err := ast.NewCachingParser(a.parser, a.config.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("create parse cache: %w", err)
		}
		r.parser = cached
	}
	return r, nil
}

// AnalyzeRequirement examines a single requirement of s. The returned bool is
// false when the gap is suppressed by status rules; the confidence threshold is
// not applied.
func (a *Analyzer) AnalyzeRequirement(ctx context.Context, s *spec.Specification, req spec.Requirement) (gap.Gap, bool, error) {
	r, err := a.newRun()
	if err != nil {
		return gap.Gap{}, false, err
	}
	o, err := r.analyze(ctx, spec.QualifiedRequirement{Spec: s, Requirement: req})
	if err != nil {
		return gap.Gap{}, false, err
	}
	a.metrics.observe(o.gap)
	return o.gap, !o.suppressed, nil
}

// Analyze examines every requirement of specs, then drops suppressed gaps and
// gaps below the confidence threshold. A failure to enumerate the source tree
// aborts the run with a *spec.GapDetectionError.
func (a *Analyzer) Analyze(ctx context.Context, specs []*spec.Specification) (*Result, error) {
	r, err := a.newRun()
	if err != nil {
		return nil, err
	}

	var reqs []spec.QualifiedRequirement
	for _, s := range specs {
		for _, req := range s.Requirements() {
			reqs = append(reqs, spec.QualifiedRequirement{Spec: s, Requirement: req})
		}
	}

	r.logger.Info("Analyzing requirements",
		slog.Int("specs", len(specs)),
		slog.Int("requirements", len(reqs)),
		slog.Int("workers", a.config.Workers))

	outcomes := make([]outcome, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.config.Workers)
	for i, q := range reqs {
		g.Go(func() error {
			o, err := r.analyze(gctx, q)
			if err != nil {
				return fmt.Errorf("analyze %s: %w", q.Key(), err)
			}
			outcomes[i] = o
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &Result{
		RunID:        r.id,
		Gaps:         []gap.Gap{},
		Analyzed:     len(outcomes),
		SkippedFiles: []string{},
	}
	for _, o := range outcomes {
		a.metrics.observe(o.gap)
		switch {
		case o.suppressed:
			result.Suppressed++
		case o.gap.Confidence < a.config.ConfidenceThreshold:
			result.Filtered++
		default:
			a.metrics.emit(o.gap)
			result.Gaps = append(result.Gaps, o.gap)
		}
	}
	for path := range r.skipped {
		result.SkippedFiles = append(result.SkippedFiles, path)
	}
	sort.Strings(result.SkippedFiles)

	r.logger.Info("Analysis complete",
		slog.Int("gaps", len(result.Gaps)),
		slog.Int("suppressed", result.Suppressed),
		slog.Int("filtered", result.Filtered),
		slog.Int("skipped_files", len(result.SkippedFiles)))
	return result, nil
}

// analyze gathers evidence for one requirement and builds its gap.
func (r *run) analyze(ctx context.Context, q spec.QualifiedRequirement) (outcome, error) {
	req := q.Requirement
	f := newFindings()

	var status gap.Status
	if req.Claim != nil {
		if err := r.verifyClaim(ctx, req.Claim, f); err != nil {
			return outcome{}, err
		}
		status = r.claimedStatus(q, f.evidence)
	} else {
		if err := r.searchKeywords(ctx, req, f); err != nil {
			return outcome{}, err
		}
		status = gap.DeriveStatus(f.evidence)
	}

	if r.config.CheckTestCoverage && (status == gap.StatusComplete || status == gap.StatusPartial) {
		r.checkTests(f)
	}

	confidence := gap.Score(f.evidence)
	priority := req.Priority
	if priority == "" {
		priority = q.Spec.Priority
	}

	g := gap.Gap{
		ID:                gap.NewID(q.Spec.ID, req.ID),
		SpecID:            q.Spec.ID,
		RequirementID:     req.ID,
		Description:       describe(req),
		Status:            status,
		Confidence:        confidence,
		Evidence:          f.evidence,
		ExpectedLocations: f.expected,
		ActualLocations:   f.actual,
		EffortHours:       EstimateEffort(status, len(req.AcceptanceCriteria), req.Description),
		Priority:          priority,
		Impact:            Impact(status, req.Title),
		Recommendation:    Recommendation(status, req.Title, f.expected),
		Dependencies:      Dependencies(req.Description),
	}

	suppressed := r.suppressed(g)
	r.logger.Debug("Analyzed requirement",
		slog.String("requirement", q.Key()),
		slog.String("status", string(status)),
		slog.Int("confidence", confidence),
		slog.Int("evidence", len(f.evidence)),
		slog.Bool("suppressed", suppressed))

	return outcome{gap: g, suppressed: suppressed}, nil
}

// claimedStatus seeds the status from the claim. Without a usable declared
// status the status is derived from the evidence.
func (r *run) claimedStatus(q spec.QualifiedRequirement, evidence []gap.Evidence) gap.Status {
	declared := q.Requirement.Claim.Status
	if declared == "" {
		return gap.DeriveStatus(evidence)
	}

	seed, err := gap.ParseStatus(declared)
	if err != nil {
		r.logger.Warn("Ignoring declared implementation status",
			slog.String("requirement", q.Key()),
			slog.String("error", err.Error()))
		return gap.DeriveStatus(evidence)
	}
	return gap.GuardClaimedStatus(seed, evidence)
}

// suppressed applies the status rules that withhold a gap regardless of threshold.
func (r *run) suppressed(g gap.Gap) bool {
	switch g.Status {
	case gap.StatusComplete:
		return g.Confidence >= SuppressConfidence
	case gap.StatusStub:
		return !r.config.IncludeStubs
	case gap.StatusPartial:
		return !r.config.IncludePartial
	}
	return false
}

func describe(req spec.Requirement) string {
	if req.Description != "" {
		return fmt.Sprintf("%s: %s", req.Title, req.Description)
	}
	return req.Title
}
