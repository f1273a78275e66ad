package gap

import (
	"fmt"
	"strings"
)

// Status is the implementation state concluded for a requirement.
type Status string

// Statuses.
const (
	StatusMissing  Status = "missing"
	StatusStub     Status = "stub"
	StatusPartial  Status = "partial"
	StatusComplete Status = "complete"
)

// ParseStatus maps an author-declared status onto a Status. Besides the canonical
// names it accepts common spellings: "done"/"implemented" (complete), "in progress"/
// "wip" (partial), "todo"/"not started" (missing) and "stubbed".
func ParseStatus(s string) (Status, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("_", " ", "-", " ").Replace(norm)
	switch norm {
	case "missing", "todo", "not started", "not implemented", "none":
		return StatusMissing, nil
	case "stub", "stubbed":
		return StatusStub, nil
	case "partial", "partially implemented", "in progress", "wip":
		return StatusPartial, nil
	case "complete", "completed", "done", "implemented":
		return StatusComplete, nil
	}
	return "", fmt.Errorf("unknown implementation status %q", s)
}

// evidenceSummary is what the precedence rules look at.
type evidenceSummary struct {
	stub     bool
	strong   bool
	positive bool
	negative bool
}

func summarize(evidence []Evidence) evidenceSummary {
	var s evidenceSummary
	for _, e := range evidence {
		s.stub = s.stub || e.Kind == KindStub
		s.strong = s.strong || e.Kind.Strong()
		s.positive = s.positive || e.Kind.Positive()
		s.negative = s.negative || e.Kind.Negative()
	}
	return s
}

// statusRule is one row of the precedence table.
type statusRule struct {
	status Status
	when   func(evidenceSummary) bool
}

// precedence is evaluated top to bottom; the first matching rule wins.
var precedence = []statusRule{
	{StatusStub, func(s evidenceSummary) bool { return s.stub }},
	{StatusComplete, func(s evidenceSummary) bool { return s.strong && !s.negative }},
	{StatusPartial, func(s evidenceSummary) bool { return s.positive }},
	{StatusMissing, func(evidenceSummary) bool { return true }},
}

// DeriveStatus concludes a status from evidence alone:
// stub > complete (strong positive, no negative) > partial (any positive) > missing.
func DeriveStatus(evidence []Evidence) Status {
	s := summarize(evidence)
	for _, rule := range precedence {
		if rule.when(s) {
			return rule.status
		}
	}
	return StatusMissing
}

// GuardClaimedStatus keeps an author-declared status from overstating what the
// evidence shows: a claimed complete becomes stub when stub evidence exists and
// partial when any other negative evidence exists. Other claims are kept.
func GuardClaimedStatus(claimed Status, evidence []Evidence) Status {
	if claimed != StatusComplete {
		return claimed
	}
	s := summarize(evidence)
	switch {
	case s.stub:
		return StatusStub
	case s.negative:
		return StatusPartial
	}
	return claimed
}
