package spec

import (
	"errors"
	"fmt"
)

// SpecParsingError means one specification document could not be read or minimally parsed.
// It is recoverable: callers log it, skip the document and continue.
type SpecParsingError struct {
	Path   string
	Reason string
	err    error
}

// NewSpecParsingError wraps err as a parsing failure of the document at path.
func NewSpecParsingError(path, reason string, err error) *SpecParsingError {
	return &SpecParsingError{Path: path, Reason: reason, err: err}
}

func (e *SpecParsingError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("parse spec %s: %s: %v", e.Path, e.Reason, e.err)
	}
	return fmt.Sprintf("parse spec %s: %s", e.Path, e.Reason)
}

func (e *SpecParsingError) Unwrap() error {
	return e.err
}

// GapDetectionError means a directory-level operation failed and the batch cannot proceed.
type GapDetectionError struct {
	Operation string
	Reason    string
	err       error
}

// NewGapDetectionError wraps err as a fatal failure of operation.
func NewGapDetectionError(operation, reason string, err error) *GapDetectionError {
	return &GapDetectionError{Operation: operation, Reason: reason, err: err}
}

func (e *GapDetectionError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Operation, e.Reason, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Operation, e.Reason)
}

func (e *GapDetectionError) Unwrap() error {
	return e.err
}

// IsSpecParsingError returns true if err is or wraps a SpecParsingError.
func IsSpecParsingError(err error) bool {
	var target *SpecParsingError
	return errors.As(err, &target)
}

// IsGapDetectionError returns true if err is or wraps a GapDetectionError.
func IsGapDetectionError(err error) bool {
	var target *GapDetectionError
	return errors.As(err, &target)
}
