// Package spec provides the canonical specification model shared by every schema parser.
package spec

import "strings"

// Phase status values derived from checked task counts.
const (
	PhaseNotStarted = "Not Started"
	PhaseInProgress = "In Progress"
	PhaseComplete   = "Complete"
)

// Criterion status values for acceptance criteria bullets.
const (
	CriterionDone    = "done"
	CriterionPartial = "partial"
	CriterionNotDone = "not-done"
)

// Specification is one feature specification normalized from any supported schema.
// It is built once by a parser and not modified afterwards.
type Specification struct {
	// ID is taken from the leading "ID: Title" heading or the parent directory name.
	ID string `json:"id"`

	// Title is the human readable name of the feature.
	Title string `json:"title"`

	// SourcePath is the document the specification was parsed from.
	SourcePath string `json:"source_path"`

	// Format is the schema tag of the parser that produced this specification.
	Format Format `json:"format"`

	Status   string `json:"status,omitempty"`
	Priority string `json:"priority,omitempty"`
	Effort   string `json:"effort,omitempty"`

	// FunctionalRequirements are the FR<n> (or REQ<n>) blocks in document order.
	FunctionalRequirements []Requirement `json:"functional_requirements"`

	// NonFunctionalRequirements are the NFR<n> blocks in document order.
	NonFunctionalRequirements []Requirement `json:"non_functional_requirements"`

	AcceptanceCriteria []AcceptanceCriterion `json:"acceptance_criteria"`
	SuccessCriteria    []string              `json:"success_criteria"`
	Phases             []Phase               `json:"phases"`
}

// Requirements returns functional followed by non-functional requirements.
func (s *Specification) Requirements() []Requirement {
	reqs := make([]Requirement, 0, len(s.FunctionalRequirements)+len(s.NonFunctionalRequirements))
	reqs = append(reqs, s.FunctionalRequirements...)
	reqs = append(reqs, s.NonFunctionalRequirements...)
	return reqs
}

// Requirement is an atomic, identified capability a specification claims.
type Requirement struct {
	// ID is unique within the owning specification (FR1, NFR2, ...).
	ID string `json:"id"`

	Title       string `json:"title"`
	Priority    string `json:"priority,omitempty"`
	Description string `json:"description,omitempty"`

	// AcceptanceCriteria are the bullet lines found inside the requirement block.
	AcceptanceCriteria []string `json:"acceptance_criteria"`

	// Claim is the author-declared mapping to files and functions, if any.
	Claim *ImplementationClaim `json:"claim,omitempty"`
}

// IsNonFunctional reports whether the requirement is an NFR.
func (r Requirement) IsNonFunctional() bool {
	return strings.HasPrefix(r.ID, "NFR")
}

// ImplementationClaim declares where a requirement is implemented.
type ImplementationClaim struct {
	// Files are paths or glob patterns relative to the source root.
	Files []string `json:"files"`

	// Functions are the declared function or class names.
	Functions []FunctionClaim `json:"functions"`

	// Status is the author-asserted implementation status, verbatim.
	Status string `json:"status,omitempty"`
}

// FunctionClaim names a function and optionally the parameter names it must accept.
type FunctionClaim struct {
	Name string `json:"name"`

	// Params is nil when the claim does not declare a parameter list.
	Params []string `json:"params,omitempty"`
}

// AcceptanceCriterion is one entry of an "Acceptance Criteria" section.
type AcceptanceCriterion struct {
	ID     string `json:"id,omitempty"`
	Text   string `json:"text"`
	Status string `json:"status"`
}

// Phase is a "Phase <n>: <name> (<effort>)" section with its tasks.
type Phase struct {
	Number int    `json:"number"`
	Name   string `json:"name"`
	Effort string `json:"effort,omitempty"`
	Status string `json:"status"`
	Tasks  []Task `json:"tasks"`
}

// Task is a checkbox or numbered line inside a phase.
type Task struct {
	Text    string `json:"text"`
	Checked bool   `json:"checked"`
}

// PhaseStatus derives the phase status from its tasks.
func PhaseStatus(tasks []Task) string {
	checked := 0
	for _, t := range tasks {
		if t.Checked {
			checked++
		}
	}
	switch {
	case checked == 0:
		return PhaseNotStarted
	case checked == len(tasks):
		return PhaseComplete
	default:
		return PhaseInProgress
	}
}

// QualifiedRequirement pairs a requirement with its owning specification.
type QualifiedRequirement struct {
	Spec        *Specification
	Requirement Requirement
}

// Key returns the run-wide unique identifier "<specID>/<reqID>".
func (q QualifiedRequirement) Key() string {
	return q.Spec.ID + "/" + q.Requirement.ID
}
