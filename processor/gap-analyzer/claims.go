package gapanalyzer

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/c360studio/specgap/gap"
	"github.com/c360studio/specgap/processor/ast"
	"github.com/c360studio/specgap/spec"
)

// findings accumulate what was observed for one requirement.
type findings struct {
	evidence []gap.Evidence
	expected []string
	actual   []string

	// files are the existing files matched by claimed patterns, root-joined.
	files []string

	// claimed holds the first match of each claimed pattern, the file that earned
	// file-exists evidence.
	claimed []string

	seenActual map[string]bool
}

func newFindings() *findings {
	return &findings{
		evidence:   []gap.Evidence{},
		expected:   []string{},
		actual:     []string{},
		files:      []string{},
		claimed:    []string{},
		seenActual: make(map[string]bool),
	}
}

func (f *findings) add(e gap.Evidence) {
	f.evidence = append(f.evidence, e)
	if e.Kind.Positive() && e.File != "" && !f.seenActual[e.File] {
		f.seenActual[e.File] = true
		f.actual = append(f.actual, e.File)
	}
}

// verifyClaim checks each claimed file and function against the source tree.
func (r *run) verifyClaim(ctx context.Context, claim *spec.ImplementationClaim, f *findings) error {
	seenFile := make(map[string]bool)
	seenClaimed := make(map[string]bool)
	for _, pattern := range claim.Files {
		f.expected = append(f.expected, pattern)

		matches, err := r.searcher.ResolveClaim(r.root, pattern)
		if err != nil {
			return spec.NewGapDetectionError("resolve claimed file", pattern, err)
		}
		if len(matches) == 0 {
			f.add(gap.NewEvidence(gap.KindFileNotFound, fmt.Sprintf("claimed file %s not found", pattern)).At(pattern, 0))
			continue
		}

		// One claimed pattern is one existence check, however many files it matches.
		rel := r.rel(matches[0])
		f.add(gap.NewEvidence(gap.KindFileExists, fmt.Sprintf("claimed file %s exists", rel)).At(rel, 0))
		if !seenClaimed[matches[0]] {
			seenClaimed[matches[0]] = true
			f.claimed = append(f.claimed, matches[0])
		}
		for _, m := range matches {
			if !seenFile[m] {
				seenFile[m] = true
				f.files = append(f.files, m)
			}
		}
	}

	for _, fc := range claim.Functions {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.verifyFunction(ctx, fc, f)
	}
	return nil
}

// verifyFunction looks for fc in the claimed files, first match in path order.
// A failed parse is recorded as neutral evidence; when any claimed file failed to
// parse, an unfound function is not counted against the requirement.
func (r *run) verifyFunction(ctx context.Context, fc spec.FunctionClaim, f *findings) {
	parseFailed := false
	for _, path := range f.files {
		parsed := r.parse(ctx, path)
		rel := r.rel(path)
		if parsed.HasParseErrors() {
			parseFailed = true
			f.add(gap.NewEvidence(gap.KindParseError, fmt.Sprintf("could not parse %s: %s", rel, parsed.ParseErrors[0])).At(rel, 0))
			continue
		}

		if fn, ok := parsed.FindFunction(fc.Name); ok {
			r.functionEvidence(fn, fc, rel, f)
			return
		}
		if class, ok := parsed.FindClass(fc.Name); ok {
			f.add(gap.NewEvidence(gap.KindExactMatch, fmt.Sprintf("class %s found", fc.Name)).At(rel, class.Location.Line))
			return
		}
	}

	if !parseFailed {
		f.add(gap.NewEvidence(gap.KindFunctionNotFound, fmt.Sprintf("function %s not found in claimed files", fc.Name)))
	}
}

func (r *run) functionEvidence(fn ast.FunctionSignature, fc spec.FunctionClaim, rel string, f *findings) {
	line := fn.Location.Line
	if fn.IsStub {
		f.add(gap.NewEvidence(gap.KindStub, fmt.Sprintf("function %s is a stub", fn.Name)).At(rel, line))
		return
	}

	f.add(gap.NewEvidence(gap.KindExactMatch, fmt.Sprintf("function %s found", fn.Name)).At(rel, line))
	if fc.Params != nil && ast.VerifySignature(fn, fc.Params) {
		f.add(gap.NewEvidence(gap.KindSignatureVerified, fmt.Sprintf("function %s accepts %v", fn.Name, fc.Params)).At(rel, line))
	}
}

// searchKeywords records name-similarity evidence for every keyword match. A file
// matching two keywords counts twice but is one actual location.
func (r *run) searchKeywords(ctx context.Context, req spec.Requirement, f *findings) error {
	keywords := ExtractKeywords(req.Title + " " + req.Description)
	matched := 0
	for _, kw := range keywords {
		f.expected = append(f.expected, r.candidatePath(kw))

		matches, err := r.searcher.SearchByName(ctx, r.root, kw, false)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return spec.NewGapDetectionError("search source tree", r.root, err)
		}
		for _, m := range matches {
			rel := r.rel(m)
			matched++
			f.add(gap.NewEvidence(gap.KindNameSimilarity, fmt.Sprintf("%s matches keyword %q", rel, kw)).At(rel, 0))
		}
	}

	r.logger.Debug("Searched by keyword",
		slog.String("requirement", req.ID),
		slog.Any("keywords", keywords),
		slog.Int("matches", matched))
	return nil
}

// checkTests appends test evidence for each claimed pattern that resolved to a file,
// using the same file that earned the existence evidence.
func (r *run) checkTests(f *findings) {
	for _, path := range f.claimed {
		rel := r.rel(path)
		tests := r.searcher.FindTestFiles(path, r.root)
		if len(tests) == 0 {
			f.add(gap.NewEvidence(gap.KindTestMissing, fmt.Sprintf("no test file for %s", rel)).At(rel, 0))
			continue
		}
		f.add(gap.NewEvidence(gap.KindTestExists, fmt.Sprintf("%s is tested by %s", rel, r.rel(tests[0]))).At(r.rel(tests[0]), 0))
	}
}

func (r *run) candidatePath(keyword string) string {
	return filepath.ToSlash(filepath.Join(r.config.CandidateDir, keyword+r.config.CandidateExt))
}

// rel returns path relative to the source root, slash-separated.
func (r *run) rel(path string) string {
	if rel, err := filepath.Rel(r.root, path); err == nil {
		return filepath.ToSlash(rel)
	}
	return filepath.ToSlash(path)
}
