package ast

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// ParserFactory creates a FileParser for a specific language.
type ParserFactory func() FileParser

// ParserRegistry maintains a registry of language parsers.
// Parsers are registered by name with their supported file extensions.
// Thread-safe for concurrent access.
type ParserRegistry struct {
	mu      sync.RWMutex
	parsers map[string]ParserFactory // name → factory
	extMap  map[string]string        // extension → parser name
}

// NewParserRegistry creates a new empty parser registry.
func NewParserRegistry() *ParserRegistry {
	return &ParserRegistry{
		parsers: make(map[string]ParserFactory),
		extMap:  make(map[string]string),
	}
}

// Register adds a parser factory for the given extensions.
// The first registration wins if there's an extension conflict.
// Extensions should include the leading dot (e.g., ".ts", ".js").
func (r *ParserRegistry) Register(name string, extensions []string, factory ParserFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.parsers[name] = factory

	for _, ext := range extensions {
		ext = strings.ToLower(ext)
		if _, exists := r.extMap[ext]; !exists {
			r.extMap[ext] = name
		}
	}
}

// GetParserName returns the parser name registered for a file extension.
// Returns empty string and false if no parser is registered for the extension.
func (r *ParserRegistry) GetParserName(ext string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	name, ok := r.extMap[strings.ToLower(ext)]
	return name, ok
}

// CreateParser instantiates a parser by name.
// Returns an error if the parser name is not registered.
func (r *ParserRegistry) CreateParser(name string) (FileParser, error) {
	r.mu.RLock()
	factory, ok := r.parsers[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("parser not registered: %s", name)
	}

	return factory(), nil
}

// CreateParserForExtension creates a parser for the given file extension.
// Returns an error if no parser is registered for the extension.
func (r *ParserRegistry) CreateParserForExtension(ext string) (FileParser, error) {
	name, ok := r.GetParserName(ext)
	if !ok {
		return nil, fmt.Errorf("no parser registered for extension: %s", ext)
	}
	return r.CreateParser(name)
}

// ParseFile dispatches to the parser registered for the file's extension.
// Files without a parser yield an empty model with a parse error.
func (r *ParserRegistry) ParseFile(ctx context.Context, filePath string) *ParsedSourceFile {
	p, err := r.CreateParserForExtension(filepath.Ext(filePath))
	if err != nil {
		return Failed(filePath, "", err.Error())
	}
	return p.ParseFile(ctx, filePath)
}

// ListParsers returns all registered parser names, sorted.
func (r *ParserRegistry) ListParsers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.parsers))
	for name := range r.parsers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListExtensions returns all registered file extensions, sorted.
func (r *ParserRegistry) ListExtensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	extensions := make([]string, 0, len(r.extMap))
	for ext := range r.extMap {
		extensions = append(extensions, ext)
	}
	sort.Strings(extensions)
	return extensions
}

// HasParser returns true if a parser with the given name is registered.
func (r *ParserRegistry) HasParser(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.parsers[name]
	return ok
}

// DefaultRegistry is the global parser registry.
// Language parsers register themselves via init() functions.
var DefaultRegistry = NewParserRegistry()
