package ast

import "strings"

// StubKeywords mark a returned string literal as guidance text rather than real output.
var StubKeywords = []string{"todo", "implement", "not yet", "coming soon"}

// BodyShape is what the stub rule needs to know about a function body.
// Language parsers fill it in from their own syntax trees.
type BodyShape struct {
	// Statements counts the top-level statements of the body, comments excluded.
	Statements int

	// ReturnsString is true when the only statement returns a plain string literal.
	ReturnsString bool

	// Literal is the unquoted returned string when ReturnsString is true.
	Literal string
}

// IsStub applies the stub rule: an empty body is a stub, and a body that is exactly one
// return of a string literal is a stub when the literal contains a stub keyword.
// Everything else, including bodies that throw "not implemented", is not a stub.
func IsStub(b BodyShape) bool {
	if b.Statements == 0 {
		return true
	}
	if b.Statements == 1 && b.ReturnsString {
		return IsGuidanceText(b.Literal)
	}
	return false
}

// IsGuidanceText reports whether s contains any stub keyword, case-insensitively.
func IsGuidanceText(s string) bool {
	lower := strings.ToLower(s)
	for _, kw := range StubKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// VerifySignature reports whether fn accepts the expected parameter names positionally.
// Extra trailing parameters on fn are tolerated.
func VerifySignature(fn FunctionSignature, expected []string) bool {
	if len(fn.Parameters) < len(expected) {
		return false
	}
	for i, name := range expected {
		if fn.Parameters[i].Name != name {
			return false
		}
	}
	return true
}
