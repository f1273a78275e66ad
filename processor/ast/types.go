// Package ast defines the language-neutral structural model of a source file and the
// registry of language parsers that produce it.
package ast

import "context"

// FileParser converts one source file into a ParsedSourceFile.
// ParseFile never fails: read and syntax errors are recorded in ParseErrors and the
// structural fields are left empty.
type FileParser interface {
	ParseFile(ctx context.Context, filePath string) *ParsedSourceFile
}

// ParsedSourceFile is the structural model consumed by the gap analyzer.
type ParsedSourceFile struct {
	Path     string `json:"path"`
	Language string `json:"language,omitempty"`

	Functions []FunctionSignature `json:"functions"`
	Classes   []ClassDeclaration  `json:"classes"`
	Imports   []ImportDeclaration `json:"imports"`
	Exports   []ExportDeclaration `json:"exports"`

	ParseErrors []string `json:"parse_errors,omitempty"`
}

// NewParsedSourceFile returns an empty model for path.
func NewParsedSourceFile(path, language string) *ParsedSourceFile {
	return &ParsedSourceFile{
		Path:      path,
		Language:  language,
		Functions: []FunctionSignature{},
		Classes:   []ClassDeclaration{},
		Imports:   []ImportDeclaration{},
		Exports:   []ExportDeclaration{},
	}
}

// Failed returns an empty model carrying a single parse error.
func Failed(path, language, reason string) *ParsedSourceFile {
	f := NewParsedSourceFile(path, language)
	f.ParseErrors = []string{reason}
	return f
}

// HasParseErrors reports whether parsing recorded any error.
func (f *ParsedSourceFile) HasParseErrors() bool {
	return len(f.ParseErrors) > 0
}

// FindFunction looks up a top-level function, then a class method, by exact name.
func (f *ParsedSourceFile) FindFunction(name string) (FunctionSignature, bool) {
	for _, fn := range f.Functions {
		if fn.Name == name {
			return fn, true
		}
	}
	for _, c := range f.Classes {
		for _, m := range c.Methods {
			if m.Name == name {
				return m, true
			}
		}
	}
	return FunctionSignature{}, false
}

// FindClass looks up a class by exact name.
func (f *ParsedSourceFile) FindClass(name string) (ClassDeclaration, bool) {
	for _, c := range f.Classes {
		if c.Name == name {
			return c, true
		}
	}
	return ClassDeclaration{}, false
}

// Location is a 1-based source position.
type Location struct {
	Line    int `json:"line"`
	Column  int `json:"column"`
	EndLine int `json:"end_line"`
}

// Parameter is one formal parameter of a function.
type Parameter struct {
	Name     string `json:"name"`
	Type     string `json:"type,omitempty"`
	Optional bool   `json:"optional,omitempty"`
	Default  string `json:"default,omitempty"`
	Rest     bool   `json:"rest,omitempty"`
}

// FunctionSignature describes a function, closure or method.
type FunctionSignature struct {
	Name       string      `json:"name"`
	Parameters []Parameter `json:"parameters"`
	ReturnType string      `json:"return_type,omitempty"`
	Async      bool        `json:"async,omitempty"`

	// Exported is true only when the declaration's immediate parent is an export form.
	Exported bool `json:"exported"`

	IsStub     bool     `json:"is_stub"`
	Location   Location `json:"location"`
	DocComment string   `json:"doc_comment,omitempty"`
}

// ParameterNames returns the parameter names in order.
func (f FunctionSignature) ParameterNames() []string {
	names := make([]string, len(f.Parameters))
	for i, p := range f.Parameters {
		names[i] = p.Name
	}
	return names
}

// ClassDeclaration describes a class and its members.
type ClassDeclaration struct {
	Name       string              `json:"name"`
	Exported   bool                `json:"exported"`
	SuperClass string              `json:"super_class,omitempty"`
	Implements []string            `json:"implements,omitempty"`
	Methods    []FunctionSignature `json:"methods"`
	Properties []Property          `json:"properties"`
	Location   Location            `json:"location"`
	DocComment string              `json:"doc_comment,omitempty"`
}

// Property is a class field.
type Property struct {
	Name     string   `json:"name"`
	Type     string   `json:"type,omitempty"`
	Static   bool     `json:"static,omitempty"`
	Optional bool     `json:"optional,omitempty"`
	Location Location `json:"location"`
}

// ImportDeclaration is one import statement or require call.
type ImportDeclaration struct {
	Source    string   `json:"source"`
	Default   string   `json:"default,omitempty"`
	Namespace string   `json:"namespace,omitempty"`
	Names     []string `json:"names,omitempty"`
	Line      int      `json:"line"`
}

// ExportDeclaration is one exported name.
type ExportDeclaration struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Default bool   `json:"default,omitempty"`
	Line    int    `json:"line"`
}

// Export kinds.
const (
	ExportFunction = "function"
	ExportClass    = "class"
	ExportVariable = "variable"
	ExportType     = "type"
	ExportNamed    = "named"
	ExportDefault  = "default"
)
