package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/c360studio/specgap/spec"
)

// Line patterns shared by every schema. Go regexps hold no match state, so the
// package-level values are safe to reuse across documents and goroutines.
var (
	idHeadingPattern     = regexp.MustCompile(`^([A-Za-z0-9][A-Za-z0-9_.-]*):\s+(.+)$`)
	metadataPattern      = regexp.MustCompile(`(?i)^\s*(?:[-*+]\s+)?\*\*(status|priority|effort)(?::\*\*|\*\*:)\s*(.+?)\s*$`)
	requirementPattern   = regexp.MustCompile(`^(N?FR)-?(\d+)(?:[:.)\s-]\s*(.*))?$`)
	numberedReqPattern   = regexp.MustCompile(`(?i)^Requirement\s+(\d+)(?:[:.)\s-]\s*(.*))?$`)
	priorityLinePattern  = regexp.MustCompile(`(?i)^\s*(?:[-*+]\s+)?(?:\*\*priority(?::\*\*|\*\*:)|priority:)\s*(.+?)\s*$`)
	claimLinePattern     = regexp.MustCompile(`(?i)^\s*(?:[-*+]\s+)?\*\*(files?|functions?|implementation(?: status)?)(?::\*\*|\*\*:)\s*(.*?)\s*$`)
	bulletPattern        = regexp.MustCompile(`^\s*(?:[-*+]|\d+[.)])\s+(.+?)\s*$`)
	checkboxPattern      = regexp.MustCompile(`^\s*(?:[-*+]|\d+[.)])\s+\[([ xX])\]\s+(.+?)\s*$`)
	boldNumberedPattern  = regexp.MustCompile(`^\s*(?:[-*+]\s+)?\*\*(?:AC-?)?(\d+)[.:)]\s*(.+?)\*\*\s*(.*?)\s*$`)
	phasePattern         = regexp.MustCompile(`(?i)^Phase\s+(\d+):\s*(.+?)\s*(?:\(([^)]*)\))?\s*$`)
	numberedTaskPattern  = regexp.MustCompile(`^\s*\d+[.)]\s+(.+?)\s*$`)
	setextUnderline      = regexp.MustCompile(`^\s*(?:=+|-+)\s*$`)
	headingMarkupPattern = regexp.MustCompile("[*`]+")
)

// Status markers used on acceptance-criteria bullets.
var criterionMarkers = []struct {
	marker string
	status string
}{
	{"✅", spec.CriterionDone},
	{"⚠️", spec.CriterionPartial},
	{"⚠", spec.CriterionPartial},
	{"🟡", spec.CriterionPartial},
	{"❌", spec.CriterionNotDone},
}

// extractor applies the extraction rules to one document.
type extractor struct {
	// numberedRequirements also accepts "Requirement <n>" headings as REQ<n>.
	numberedRequirements bool

	// requirementSubtree extends a requirement block over its nested subsections.
	requirementSubtree bool
}

// extract builds a Specification from doc. fallbackID is used when the document has no
// "ID: Title" heading.
func (x extractor) extract(doc *document, fallbackID string, format spec.Format) *spec.Specification {
	s := &spec.Specification{
		SourcePath:                doc.path,
		Format:                    format,
		FunctionalRequirements:    []spec.Requirement{},
		NonFunctionalRequirements: []spec.Requirement{},
		AcceptanceCriteria:        []spec.AcceptanceCriterion{},
		SuccessCriteria:           []string{},
		Phases:                    []spec.Phase{},
	}

	x.extractIdentity(doc, fallbackID, s)

	reqLines := make(map[int]bool)
	seen := make(map[string]bool)
	for i, h := range doc.headings {
		id, title, ok := x.matchRequirement(h.Text)
		if !ok {
			continue
		}

		start := h.Line
		block := doc.section(i)
		if x.requirementSubtree {
			block = doc.subtree(i)
		}
		for l := start; l <= start+len(block); l++ {
			reqLines[l] = true
		}
		if seen[id] {
			continue
		}
		seen[id] = true

		req := parseRequirementBlock(id, title, block)
		if req.IsNonFunctional() {
			s.NonFunctionalRequirements = append(s.NonFunctionalRequirements, req)
		} else {
			s.FunctionalRequirements = append(s.FunctionalRequirements, req)
		}
	}

	x.extractMetadata(doc, reqLines, s)

	s.AcceptanceCriteria = append(s.AcceptanceCriteria, extractAcceptanceCriteria(doc)...)
	s.SuccessCriteria = append(s.SuccessCriteria, extractSuccessCriteria(doc)...)
	s.Phases = append(s.Phases, extractPhases(doc)...)

	return s
}

// extractIdentity sets ID and Title from the first H1, frontmatter, or fallbackID.
func (x extractor) extractIdentity(doc *document, fallbackID string, s *spec.Specification) {
	var h1 string
	for _, h := range doc.headings {
		if h.Level == 1 {
			h1 = cleanHeading(h.Text)
			break
		}
	}

	if m := idHeadingPattern.FindStringSubmatch(h1); m != nil {
		s.ID = m[1]
		s.Title = strings.TrimSpace(m[2])
		return
	}

	s.ID = fallbackID
	if id := doc.frontmatterString("id"); id != "" {
		s.ID = id
	}

	switch {
	case h1 != "":
		s.Title = h1
	case doc.frontmatterString("title") != "":
		s.Title = doc.frontmatterString("title")
	default:
		s.Title = s.ID
	}
}

// extractMetadata finds the first Status/Priority/Effort line outside requirement blocks.
func (x extractor) extractMetadata(doc *document, skip map[int]bool, s *spec.Specification) {
	for i, line := range doc.lines {
		if skip[i] {
			continue
		}
		m := metadataPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		value := strings.TrimSpace(m[2])
		switch strings.ToLower(m[1]) {
		case "status":
			if s.Status == "" {
				s.Status = value
			}
		case "priority":
			if s.Priority == "" {
				s.Priority = value
			}
		case "effort":
			if s.Effort == "" {
				s.Effort = value
			}
		}
	}

	if s.Status == "" {
		s.Status = doc.frontmatterString("status")
	}
	if s.Priority == "" {
		s.Priority = doc.frontmatterString("priority")
	}
	if s.Effort == "" {
		s.Effort = doc.frontmatterString("effort")
	}
}

// matchRequirement recognizes requirement headings and returns the normalized ID.
func (x extractor) matchRequirement(headingText string) (id, title string, ok bool) {
	text := cleanHeading(headingText)
	if m := requirementPattern.FindStringSubmatch(text); m != nil {
		return m[1] + m[2], strings.TrimSpace(m[3]), true
	}
	if x.numberedRequirements {
		if m := numberedReqPattern.FindStringSubmatch(text); m != nil {
			return "REQ" + m[1], strings.TrimSpace(m[2]), true
		}
	}
	return "", "", false
}

// parseRequirementBlock reads priority, claim, criteria and description from block.
func parseRequirementBlock(id, title string, block []string) spec.Requirement {
	req := spec.Requirement{
		ID:                 id,
		Title:              title,
		AcceptanceCriteria: []string{},
	}
	if req.Title == "" {
		req.Title = id
	}

	var (
		claim       *spec.ImplementationClaim
		pendingKind string
		description []string
	)

	for _, line := range block {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || setextUnderline.MatchString(line) || strings.HasPrefix(trimmed, "#") {
			pendingKind = ""
			continue
		}

		if m := claimLinePattern.FindStringSubmatch(line); m != nil {
			if claim == nil {
				claim = &spec.ImplementationClaim{Files: []string{}, Functions: []spec.FunctionClaim{}}
			}
			kind := claimKind(m[1])
			if m[2] == "" {
				pendingKind = kind
				continue
			}
			pendingKind = ""
			addClaimValue(claim, kind, m[2])
			continue
		}

		if pendingKind != "" {
			if m := bulletPattern.FindStringSubmatch(line); m != nil {
				addClaimValue(claim, pendingKind, m[1])
				continue
			}
			pendingKind = ""
		}

		if m := priorityLinePattern.FindStringSubmatch(line); m != nil {
			if req.Priority == "" {
				req.Priority = strings.TrimSpace(m[1])
			}
			continue
		}

		if metadataPattern.MatchString(line) {
			continue
		}

		if m := bulletPattern.FindStringSubmatch(line); m != nil {
			req.AcceptanceCriteria = append(req.AcceptanceCriteria, stripCheckbox(m[1]))
			continue
		}

		description = append(description, trimmed)
	}

	req.Description = strings.Join(description, "\n")
	req.Claim = claim
	return req
}

func claimKind(field string) string {
	field = strings.ToLower(field)
	switch {
	case strings.HasPrefix(field, "file"):
		return "files"
	case strings.HasPrefix(field, "function"):
		return "functions"
	default:
		return "status"
	}
}

func addClaimValue(claim *spec.ImplementationClaim, kind, value string) {
	switch kind {
	case "files":
		for _, part := range splitTopLevel(value) {
			if f := unquote(part); f != "" {
				claim.Files = append(claim.Files, f)
			}
		}
	case "functions":
		for _, part := range splitTopLevel(value) {
			if fn, ok := parseFunctionClaim(unquote(part)); ok {
				claim.Functions = append(claim.Functions, fn)
			}
		}
	case "status":
		claim.Status = unquote(value)
	}
}

// parseFunctionClaim parses "name" or "name(a, b: T, c?)" into a FunctionClaim.
func parseFunctionClaim(s string) (spec.FunctionClaim, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return spec.FunctionClaim{}, false
	}

	open := strings.Index(s, "(")
	if open < 0 {
		return spec.FunctionClaim{Name: strings.TrimSuffix(s, "()")}, true
	}

	fn := spec.FunctionClaim{Name: strings.TrimSpace(s[:open]), Params: []string{}}
	inner := s[open+1:]
	if close := strings.LastIndex(inner, ")"); close >= 0 {
		inner = inner[:close]
	}
	for _, p := range splitTopLevel(inner) {
		if name := paramName(p); name != "" {
			fn.Params = append(fn.Params, name)
		}
	}
	return fn, fn.Name != ""
}

// paramName strips rest markers, optional markers, type annotations and defaults.
func paramName(p string) string {
	p = strings.TrimSpace(p)
	p = strings.TrimPrefix(p, "...")
	if i := strings.IndexAny(p, ":="); i >= 0 {
		p = p[:i]
	}
	return strings.TrimSuffix(strings.TrimSpace(p), "?")
}

// splitTopLevel splits on commas that are not nested inside brackets.
func splitTopLevel(s string) []string {
	var (
		parts []string
		depth int
		start int
	)
	for i, r := range s {
		switch r {
		case '(', '[', '{', '<':
			depth++
		case ')', ']', '}', '>':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	if rest := strings.TrimSpace(s[start:]); rest != "" {
		parts = append(parts, rest)
	}
	return parts
}

func unquote(s string) string {
	return strings.Trim(strings.TrimSpace(s), "`'\"")
}

// extractAcceptanceCriteria reads marker bullets, checkboxes and bold numbered lines
// from every "Acceptance Criteria" section. Lines elsewhere are ignored.
func extractAcceptanceCriteria(doc *document) []spec.AcceptanceCriterion {
	var criteria []spec.AcceptanceCriterion
	for i, h := range doc.headings {
		if !strings.Contains(strings.ToLower(h.Text), "acceptance criteria") {
			continue
		}
		for _, line := range doc.section(i) {
			if c, ok := parseCriterion(line); ok {
				criteria = append(criteria, c)
			}
		}
	}
	return criteria
}

func parseCriterion(line string) (spec.AcceptanceCriterion, bool) {
	if m := boldNumberedPattern.FindStringSubmatch(line); m != nil {
		c := spec.AcceptanceCriterion{ID: "AC" + m[1], Text: strings.TrimSpace(m[2]), Status: spec.CriterionNotDone}
		if status, _, ok := criterionStatus(m[3]); ok {
			c.Status = status
		}
		return c, true
	}

	if m := checkboxPattern.FindStringSubmatch(line); m != nil {
		c := spec.AcceptanceCriterion{Text: m[2], Status: spec.CriterionNotDone}
		if m[1] != " " {
			c.Status = spec.CriterionDone
		}
		return c, true
	}

	m := bulletPattern.FindStringSubmatch(line)
	if m == nil {
		return spec.AcceptanceCriterion{}, false
	}
	status, rest, ok := criterionStatus(m[1])
	if !ok {
		return spec.AcceptanceCriterion{}, false
	}
	return spec.AcceptanceCriterion{Text: rest, Status: status}, true
}

// criterionStatus detects a leading status marker.
func criterionStatus(s string) (status, rest string, ok bool) {
	s = strings.TrimSpace(s)
	for _, cm := range criterionMarkers {
		if strings.HasPrefix(s, cm.marker) {
			rest = strings.TrimSpace(strings.TrimPrefix(s, cm.marker))
			rest = strings.TrimSpace(strings.TrimPrefix(rest, "\ufe0f"))
			return cm.status, rest, true
		}
	}
	return "", s, false
}

func extractSuccessCriteria(doc *document) []string {
	var criteria []string
	for i, h := range doc.headings {
		if !strings.Contains(strings.ToLower(h.Text), "success criteria") {
			continue
		}
		for _, line := range doc.subtree(i) {
			if m := bulletPattern.FindStringSubmatch(line); m != nil {
				criteria = append(criteria, stripCheckbox(m[1]))
			}
		}
	}
	return criteria
}

// extractPhases reads "Phase <n>: <name> (<effort>)" sections.
func extractPhases(doc *document) []spec.Phase {
	var phases []spec.Phase
	for i, h := range doc.headings {
		m := phasePattern.FindStringSubmatch(cleanHeading(h.Text))
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		phase := spec.Phase{
			Number: n,
			Name:   strings.TrimSpace(m[2]),
			Effort: strings.TrimSpace(m[3]),
			Tasks:  parseTasks(doc.subtree(i)),
		}
		phase.Status = spec.PhaseStatus(phase.Tasks)
		phases = append(phases, phase)
	}
	return phases
}

// parseTasks reads checkbox and numbered task lines.
func parseTasks(lines []string) []spec.Task {
	tasks := []spec.Task{}
	for _, line := range lines {
		if m := checkboxPattern.FindStringSubmatch(line); m != nil {
			tasks = append(tasks, spec.Task{Text: m[2], Checked: m[1] != " "})
			continue
		}
		if m := numberedTaskPattern.FindStringSubmatch(line); m != nil {
			tasks = append(tasks, spec.Task{Text: m[1]})
		}
	}
	return tasks
}

// stripCheckbox removes a leading "[ ]" or "[x]" from bullet text.
func stripCheckbox(s string) string {
	if len(s) >= 4 && s[0] == '[' && s[2] == ']' {
		return strings.TrimSpace(s[3:])
	}
	return s
}

// cleanHeading removes emphasis and code markup from heading text.
func cleanHeading(s string) string {
	return strings.TrimSpace(headingMarkupPattern.ReplaceAllString(s, ""))
}
