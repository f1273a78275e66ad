// Package gap holds the evidence taxonomy, the confidence scorer and the Gap record
// produced for each analyzed requirement.
package gap

import "fmt"

// EvidenceKind tags one observed fact about a requirement's implementation.
type EvidenceKind string

// Evidence kinds.
const (
	KindFileExists        EvidenceKind = "file-exists"
	KindExactMatch        EvidenceKind = "exact-match"
	KindSignatureVerified EvidenceKind = "signature-verified"
	KindTestExists        EvidenceKind = "test-exists"
	KindStub              EvidenceKind = "stub"
	KindNameSimilarity    EvidenceKind = "name-similarity"
	KindFileNotFound      EvidenceKind = "file-not-found"
	KindFunctionNotFound  EvidenceKind = "function-not-found"
	KindTestMissing       EvidenceKind = "test-missing"

	// KindParseError records a source file that could not be parsed. It carries no
	// weight and is neither positive nor negative.
	KindParseError EvidenceKind = "parse-error"
)

// weights are design constants; changing one changes every confidence value.
var weights = map[EvidenceKind]int{
	KindFileExists:        30,
	KindExactMatch:        50,
	KindSignatureVerified: 40,
	KindTestExists:        20,
	KindStub:              -35,
	KindNameSimilarity:    10,
	KindFileNotFound:      -50,
	KindFunctionNotFound:  -40,
	KindTestMissing:       -20,
	KindParseError:        0,
}

// strong kinds confirm an implementation rather than merely suggest one.
var strong = map[EvidenceKind]bool{
	KindFileExists:        true,
	KindExactMatch:        true,
	KindSignatureVerified: true,
}

// Kinds returns every evidence kind in a stable order.
func Kinds() []EvidenceKind {
	return []EvidenceKind{
		KindFileExists, KindExactMatch, KindSignatureVerified, KindTestExists, KindStub,
		KindNameSimilarity, KindFileNotFound, KindFunctionNotFound, KindTestMissing, KindParseError,
	}
}

// Weight returns the kind's fixed confidence weight.
func (k EvidenceKind) Weight() int {
	return weights[k]
}

// Valid reports whether k is a known kind.
func (k EvidenceKind) Valid() bool {
	_, ok := weights[k]
	return ok
}

// Positive reports whether the kind raises confidence.
func (k EvidenceKind) Positive() bool { return weights[k] > 0 }

// Negative reports whether the kind lowers confidence.
func (k EvidenceKind) Negative() bool { return weights[k] < 0 }

// Strong reports whether the kind confirms an implementation.
func (k EvidenceKind) Strong() bool { return strong[k] }

// Evidence is one immutable observation. Construct it with NewEvidence so the
// weight always matches the kind.
type Evidence struct {
	Kind        EvidenceKind `json:"kind"`
	Description string       `json:"description"`
	Weight      int          `json:"weight"`
	File        string       `json:"file,omitempty"`
	Line        int          `json:"line,omitempty"`
}

// NewEvidence creates evidence of kind with its fixed weight.
func NewEvidence(kind EvidenceKind, description string) Evidence {
	return Evidence{Kind: kind, Description: description, Weight: kind.Weight()}
}

// At returns a copy of e located at file and line.
func (e Evidence) At(file string, line int) Evidence {
	e.File = file
	e.Line = line
	return e
}

// String formats the evidence for logs.
func (e Evidence) String() string {
	loc := ""
	if e.File != "" {
		loc = " @ " + e.File
		if e.Line > 0 {
			loc = fmt.Sprintf("%s:%d", loc, e.Line)
		}
	}
	return fmt.Sprintf("%s(%+d) %s%s", e.Kind, e.Weight, e.Description, loc)
}
