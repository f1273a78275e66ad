// Package filesearch locates candidate implementation and test files for requirements.
package filesearch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultExtensions is the source-file allow-list used when none is configured.
var DefaultExtensions = []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs", ".mts", ".cts"}

// DefaultExcludeDirs are directory names never descended into. Hidden directories
// are always skipped.
var DefaultExcludeDirs = []string{"node_modules", "dist", "build", "coverage", "vendor", "out"}

// testSuffixes mark a basename as a test file: auth.test.ts, auth.spec.ts.
var testSuffixes = []string{".test", ".spec"}

// testDirs are the conventional test-directory names probed by FindTestFiles.
var testDirs = []string{"__tests__", "test", "tests"}

// Config controls which files a Searcher considers.
type Config struct {
	Extensions  []string `json:"extensions" yaml:"extensions"`
	ExcludeDirs []string `json:"exclude_dirs" yaml:"exclude_dirs"`
}

// DefaultConfig returns the default search configuration.
func DefaultConfig() Config {
	return Config{
		Extensions:  append([]string(nil), DefaultExtensions...),
		ExcludeDirs: append([]string(nil), DefaultExcludeDirs...),
	}
}

// Searcher walks a source tree looking for files by name or convention.
// A Searcher holds no per-call state and is safe for concurrent use.
type Searcher struct {
	extensions map[string]bool
	extOrder   []string
	exclude    map[string]bool
	logger     *slog.Logger
}

// New creates a Searcher. Empty fields in cfg fall back to the defaults.
func New(cfg Config, logger *slog.Logger) *Searcher {
	if logger == nil {
		logger = slog.Default()
	}
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = DefaultExtensions
	}
	if len(cfg.ExcludeDirs) == 0 {
		cfg.ExcludeDirs = DefaultExcludeDirs
	}

	s := &Searcher{
		extensions: make(map[string]bool, len(cfg.Extensions)),
		exclude:    make(map[string]bool, len(cfg.ExcludeDirs)),
		logger:     logger,
	}
	for _, ext := range cfg.Extensions {
		ext = normalizeExt(ext)
		if !s.extensions[ext] {
			s.extensions[ext] = true
			s.extOrder = append(s.extOrder, ext)
		}
	}
	for _, dir := range cfg.ExcludeDirs {
		s.exclude[dir] = true
	}
	return s
}

// Extensions returns the allow-list in configured order.
func (s *Searcher) Extensions() []string {
	return append([]string(nil), s.extOrder...)
}

// SearchByName returns files under root whose basename contains keyword,
// case-insensitively. Only allow-listed extensions are returned, and test files
// only when includeTests is set. Results are sorted.
func (s *Searcher) SearchByName(ctx context.Context, root, keyword string, includeTests bool) ([]string, error) {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		return []string{}, nil
	}

	matches := []string{}
	err := s.walk(ctx, root, func(path string) {
		base := strings.ToLower(filepath.Base(path))
		if !strings.Contains(base, keyword) {
			return
		}
		if !includeTests && IsTestFile(path) {
			return
		}
		matches = append(matches, path)
	})
	if err != nil {
		return matches, fmt.Errorf("search %q under %s: %w", keyword, root, err)
	}

	sort.Strings(matches)
	return matches, nil
}

// FindTestFiles returns existing test files for implPath: same basename with a
// .test or .spec suffix, looked up next to the implementation, in a sibling
// __tests__ directory, in ../test(s), and in <root>/test(s) mirroring the
// implementation's relative directory. Results are sorted and unique.
func (s *Searcher) FindTestFiles(implPath, root string) []string {
	dir := filepath.Dir(implPath)
	ext := filepath.Ext(implPath)
	stem := strings.TrimSuffix(filepath.Base(implPath), ext)
	if IsTestFile(implPath) {
		return []string{}
	}

	exts := []string{ext}
	for _, e := range s.extOrder {
		if e != ext {
			exts = append(exts, e)
		}
	}

	dirs := []string{dir, filepath.Join(dir, "__tests__")}
	parent := filepath.Dir(dir)
	for _, td := range testDirs[1:] {
		dirs = append(dirs, filepath.Join(parent, td))
	}
	if root != "" {
		rel, err := filepath.Rel(root, dir)
		if err == nil && !strings.HasPrefix(rel, "..") {
			// tests/auth mirrors src/auth as well as tests/src/auth.
			mirrors := []string{rel, "."}
			if i := strings.IndexRune(rel, filepath.Separator); i > 0 {
				mirrors = append(mirrors, rel[i+1:])
			}
			for _, td := range testDirs[1:] {
				for _, m := range mirrors {
					dirs = append(dirs, filepath.Join(root, td, m))
				}
			}
		}
	}

	seen := make(map[string]bool)
	found := []string{}
	for _, d := range dirs {
		for _, suffix := range testSuffixes {
			for _, e := range exts {
				candidate := filepath.Join(d, stem+suffix+e)
				if seen[candidate] {
					continue
				}
				seen[candidate] = true
				if FileExists(candidate) {
					found = append(found, candidate)
				}
			}
		}
	}

	sort.Strings(found)
	return found
}

// Glob expands a claim pattern such as "src/auth.*" or "src/**/session.ts"
// relative to root. Patterns without glob metacharacters are returned as-is when
// the file exists. Only regular files are returned, sorted.
func (s *Searcher) Glob(root, pattern string) ([]string, error) {
	if !containsGlob(pattern) {
		path := pattern
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, filepath.FromSlash(pattern))
		}
		if FileExists(path) {
			return []string{path}, nil
		}
		return []string{}, nil
	}

	var (
		matches []string
		err     error
	)
	if filepath.IsAbs(pattern) {
		matches, err = doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	} else {
		var rel []string
		rel, err = doublestar.Glob(os.DirFS(root), path.Clean(filepath.ToSlash(pattern)), doublestar.WithFilesOnly())
		for _, m := range rel {
			matches = append(matches, filepath.Join(root, filepath.FromSlash(m)))
		}
	}
	if err != nil {
		return nil, fmt.Errorf("glob %q: %w", pattern, err)
	}
	if matches == nil {
		matches = []string{}
	}
	sort.Strings(matches)
	return matches, nil
}

// ResolveClaim expands a claimed file pattern. Literal paths are kept as written;
// glob matches are narrowed to allow-listed source files that are not tests, so
// "src/auth.*" resolves to the implementation rather than its test or stylesheet.
func (s *Searcher) ResolveClaim(root, pattern string) ([]string, error) {
	matches, err := s.Glob(root, pattern)
	if err != nil || !containsGlob(pattern) {
		return matches, err
	}

	out := []string{}
	for _, m := range matches {
		if s.extensions[strings.ToLower(filepath.Ext(m))] && !IsTestFile(m) {
			out = append(out, m)
		}
	}
	return out, nil
}

// walk visits every allow-listed file below root, skipping excluded and hidden
// directories. Unreadable entries are logged and skipped.
func (s *Searcher) walk(ctx context.Context, root string, visit func(path string)) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			if path == root {
				return err
			}
			s.logger.Debug("Skipping unreadable path", slog.String("path", path), slog.String("error", err.Error()))
			return nil
		}

		if d.IsDir() {
			if path != root && s.skipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		if s.extensions[strings.ToLower(filepath.Ext(path))] {
			visit(path)
		}
		return nil
	})
}

func (s *Searcher) skipDir(name string) bool {
	return s.exclude[name] || strings.HasPrefix(name, ".")
}

// IsTestFile reports whether path follows the .test/.spec naming convention or
// lives in a __tests__ directory.
func IsTestFile(path string) bool {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	for _, suffix := range testSuffixes {
		if strings.HasSuffix(strings.ToLower(stem), suffix) {
			return true
		}
	}
	return filepath.Base(filepath.Dir(path)) == "__tests__"
}

// FileExists reports whether path names an existing regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func containsGlob(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
