package parser

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/c360studio/specgap/spec"
)

// Parser converts the documents of one specification schema into Specifications.
type Parser interface {
	// Format returns the schema tag this parser handles.
	Format() spec.Format

	// SpecsDir returns the conventional specs directory for a project root.
	SpecsDir(projectRoot string) string

	// ParseSpec parses the primary document of one feature.
	ParseSpec(path string) (*spec.Specification, error)

	// ParseFromDirectory parses every feature below dir. Documents that fail to parse
	// are returned as skipped; only a failure to enumerate dir is an error.
	ParseFromDirectory(ctx context.Context, dir string) ([]*spec.Specification, []*spec.SpecParsingError, error)
}

// readDocument reads and splits a markdown document.
func readDocument(path string) (*document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, spec.NewSpecParsingError(path, "read file", err)
	}
	doc := newDocument(path, content)
	if len(doc.headings) == 0 && len(doc.frontmatter) == 0 && isBlank(doc.lines) {
		return nil, spec.NewSpecParsingError(path, "empty document", nil)
	}
	return doc, nil
}

func isBlank(lines []string) bool {
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			return false
		}
	}
	return true
}

// featureDirs lists the child directories of dir that contain primary, sorted by name.
func featureDirs(dir, primary string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, spec.NewGapDetectionError("enumerate specs", fmt.Sprintf("read %s", dir), err)
	}

	var dirs []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		child := filepath.Join(dir, e.Name())
		if _, err := os.Stat(filepath.Join(child, primary)); err == nil {
			dirs = append(dirs, child)
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

// parseFeatureDirs runs parse over every feature directory, collecting skipped documents.
func parseFeatureDirs(ctx context.Context, logger *slog.Logger, dir, primary string,
	parse func(string) (*spec.Specification, error)) ([]*spec.Specification, []*spec.SpecParsingError, error) {
	dirs, err := featureDirs(dir, primary)
	if err != nil {
		return nil, nil, err
	}

	specs := make([]*spec.Specification, 0, len(dirs))
	var skipped []*spec.SpecParsingError
	for _, d := range dirs {
		if err := ctx.Err(); err != nil {
			return specs, skipped, err
		}

		path := filepath.Join(d, primary)
		s, err := parse(path)
		if err != nil {
			perr, ok := err.(*spec.SpecParsingError)
			if !ok {
				perr = spec.NewSpecParsingError(path, "parse", err)
			}
			logger.Warn("Skipping specification", slog.String("path", path), slog.String("error", perr.Error()))
			skipped = append(skipped, perr)
			continue
		}
		specs = append(specs, s)
	}
	return specs, skipped, nil
}

// mergeAuxiliary appends phases and criteria from an auxiliary document such as tasks.md.
// A tasks document without phase headings contributes its checkboxes as one phase.
func mergeAuxiliary(logger *slog.Logger, s *spec.Specification, path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	doc, err := readDocument(path)
	if err != nil {
		logger.Warn("Ignoring auxiliary document", slog.String("path", path), slog.String("error", err.Error()))
		return
	}

	phases := extractPhases(doc)
	if len(phases) == 0 {
		if tasks := parseCheckboxes(doc.lines); len(tasks) > 0 {
			phases = append(phases, spec.Phase{
				Number: 1,
				Name:   "Tasks",
				Tasks:  tasks,
				Status: spec.PhaseStatus(tasks),
			})
		}
	}
	s.Phases = append(s.Phases, phases...)
	s.AcceptanceCriteria = append(s.AcceptanceCriteria, extractAcceptanceCriteria(doc)...)
	s.SuccessCriteria = append(s.SuccessCriteria, extractSuccessCriteria(doc)...)
}

func parseCheckboxes(lines []string) []spec.Task {
	var tasks []spec.Task
	for _, line := range lines {
		if m := checkboxPattern.FindStringSubmatch(line); m != nil {
			tasks = append(tasks, spec.Task{Text: m[2], Checked: m[1] != " "})
		}
	}
	return tasks
}
