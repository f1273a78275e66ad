package parser

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/c360studio/specgap/spec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const authSpec = `# 001-auth: User Authentication

**Status:** Draft
**Priority:** P1
**Effort:** 3 days

## Functional Requirements

### FR1: User Login

**Priority:** High
**Files:** ` + "`src/auth.ts`, `src/session.ts`" + `
**Functions:** login(username, password), ` + "`logout`" + `
**Implementation Status:** partial

Users sign in with a username and password.
Depends on FR-3.

- Valid credentials return a session
- [x] Invalid credentials are rejected

### FR2: Password Reset

Priority: Medium
Users reset their password by email.

### NFR1: Login Latency

Login completes in under 200ms.

### FR1: Duplicate

Ignored.

## Acceptance Criteria

- ✅ Login works
- ⚠️ Session timeout configurable
- 🟡 Audit log
- ❌ MFA
- [x] Lockout after 5 attempts
- [ ] Remember me
- **1. Tokens rotate** ✅
- Plain bullet without marker

## Success Criteria

- 95% of logins succeed
- [ ] Support tickets drop

## Implementation

### Phase 1: Core (2 days)

- [x] Add login
- [x] Add logout

### Phase 2: Hardening (1 day)

- [x] Rate limit
- [ ] Lockout
`

const authTasks = `# Tasks

- [x] T001 Write login
- [ ] T002 Write logout
`

const authPlan = `# Plan

## Phase 3: Rollout (1 day)

1. Enable flag
2. Remove flag

## Success Criteria

- Zero downtime
`

const sessionRequirements = `# Requirements Document

## Introduction

Session management for the app.

## Requirements

### Requirement 1: Session Creation

**User Story:** As a user, I want a session, so that I stay signed in.

#### Acceptance Criteria

1. WHEN a user logs in THEN the system SHALL create a session
2. WHEN a session expires THEN the system SHALL require login

### Requirement 2

**User Story:** As an admin, I want to revoke sessions.
`

const sessionTasks = `# Implementation Plan

- [x] 1. Create session store
- [ ] 2. Add expiry
`

// writeFiles writes files (slash-separated paths) below root.
func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}

func speckitProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"specs/001-auth/spec.md":  authSpec,
		"specs/001-auth/tasks.md": authTasks,
		"specs/001-auth/plan.md":  authPlan,
	})
	return root
}

func kiroProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		".kiro/specs/session-mgmt/requirements.md": sessionRequirements,
		".kiro/specs/session-mgmt/tasks.md":        sessionTasks,
	})
	return root
}

func TestSpecKitParser_ParseSpec(t *testing.T) {
	root := speckitProject(t)
	p := NewSpecKitParser(spec.RouteSpecOnly)

	s, err := p.ParseSpec(filepath.Join(root, "specs", "001-auth", "spec.md"))
	require.NoError(t, err)

	assert.Equal(t, "001-auth", s.ID)
	assert.Equal(t, "User Authentication", s.Title)
	assert.Equal(t, spec.FormatSpecKit, s.Format)
	assert.Equal(t, "Draft", s.Status)
	assert.Equal(t, "P1", s.Priority)
	assert.Equal(t, "3 days", s.Effort)

	t.Run("requirements", func(t *testing.T) {
		require.Len(t, s.FunctionalRequirements, 2)
		require.Len(t, s.NonFunctionalRequirements, 1)

		fr1 := s.FunctionalRequirements[0]
		assert.Equal(t, "FR1", fr1.ID)
		assert.Equal(t, "User Login", fr1.Title)
		assert.Equal(t, "High", fr1.Priority)
		assert.Equal(t, "Users sign in with a username and password.\nDepends on FR-3.", fr1.Description)
		assert.Equal(t, []string{"Valid credentials return a session", "Invalid credentials are rejected"}, fr1.AcceptanceCriteria)

		fr2 := s.FunctionalRequirements[1]
		assert.Equal(t, "FR2", fr2.ID)
		assert.Equal(t, "Medium", fr2.Priority)
		assert.Nil(t, fr2.Claim)
		assert.Empty(t, fr2.AcceptanceCriteria)

		assert.Equal(t, "NFR1", s.NonFunctionalRequirements[0].ID)
		assert.True(t, s.NonFunctionalRequirements[0].IsNonFunctional())
	})

	t.Run("claim", func(t *testing.T) {
		claim := s.FunctionalRequirements[0].Claim
		require.NotNil(t, claim)
		assert.Equal(t, []string{"src/auth.ts", "src/session.ts"}, claim.Files)
		require.Len(t, claim.Functions, 2)
		assert.Equal(t, spec.FunctionClaim{Name: "login", Params: []string{"username", "password"}}, claim.Functions[0])
		assert.Equal(t, "logout", claim.Functions[1].Name)
		assert.Nil(t, claim.Functions[1].Params)
		assert.Equal(t, "partial", claim.Status)
	})

	t.Run("acceptance criteria", func(t *testing.T) {
		expected := []spec.AcceptanceCriterion{
			{Text: "Login works", Status: spec.CriterionDone},
			{Text: "Session timeout configurable", Status: spec.CriterionPartial},
			{Text: "Audit log", Status: spec.CriterionPartial},
			{Text: "MFA", Status: spec.CriterionNotDone},
			{Text: "Lockout after 5 attempts", Status: spec.CriterionDone},
			{Text: "Remember me", Status: spec.CriterionNotDone},
			{ID: "AC1", Text: "Tokens rotate", Status: spec.CriterionDone},
		}
		assert.Equal(t, expected, s.AcceptanceCriteria)
	})

	t.Run("success criteria", func(t *testing.T) {
		assert.Equal(t, []string{"95% of logins succeed", "Support tickets drop"}, s.SuccessCriteria)
	})

	t.Run("phases", func(t *testing.T) {
		require.Len(t, s.Phases, 2)
		assert.Equal(t, 1, s.Phases[0].Number)
		assert.Equal(t, "Core", s.Phases[0].Name)
		assert.Equal(t, "2 days", s.Phases[0].Effort)
		assert.Equal(t, spec.PhaseComplete, s.Phases[0].Status)
		assert.Len(t, s.Phases[0].Tasks, 2)
		assert.Equal(t, "Hardening", s.Phases[1].Name)
		assert.Equal(t, spec.PhaseInProgress, s.Phases[1].Status)
	})
}

func TestSpecKitParser_Routes(t *testing.T) {
	root := speckitProject(t)
	path := filepath.Join(root, "specs", "001-auth", "spec.md")

	for _, route := range []string{"", spec.RouteFull} {
		t.Run("merge "+route, func(t *testing.T) {
			s, err := NewSpecKitParser(route).ParseSpec(path)
			require.NoError(t, err)

			names := make([]string, len(s.Phases))
			for i, ph := range s.Phases {
				names[i] = ph.Name
			}
			assert.Equal(t, []string{"Core", "Hardening", "Rollout", "Tasks"}, names)

			rollout := s.Phases[2]
			assert.Equal(t, 3, rollout.Number)
			assert.Equal(t, spec.PhaseNotStarted, rollout.Status)
			assert.Len(t, rollout.Tasks, 2)

			tasks := s.Phases[3]
			assert.Equal(t, spec.PhaseInProgress, tasks.Status)
			assert.Equal(t, "T001 Write login", tasks.Tasks[0].Text)
			assert.True(t, tasks.Tasks[0].Checked)

			assert.Contains(t, s.SuccessCriteria, "Zero downtime")
		})
	}

	t.Run("spec only", func(t *testing.T) {
		s, err := NewSpecKitParser(spec.RouteSpecOnly).ParseSpec(path)
		require.NoError(t, err)
		assert.Len(t, s.Phases, 2)
		assert.NotContains(t, s.SuccessCriteria, "Zero downtime")
	})
}

func TestSpecKitParser_RepeatedParsesAreIdentical(t *testing.T) {
	root := speckitProject(t)
	p := NewSpecKitParser("")
	path := filepath.Join(root, "specs", "001-auth", "spec.md")

	first, err := p.ParseSpec(path)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		again, err := p.ParseSpec(path)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestSpecKitParser_Errors(t *testing.T) {
	dir := t.TempDir()
	p := NewSpecKitParser("")

	t.Run("missing file", func(t *testing.T) {
		_, err := p.ParseSpec(filepath.Join(dir, "nope", "spec.md"))
		require.Error(t, err)
		assert.True(t, spec.IsSpecParsingError(err))
	})

	t.Run("empty document", func(t *testing.T) {
		path := filepath.Join(dir, "empty", "spec.md")
		writeFiles(t, dir, map[string]string{"empty/spec.md": "\n  \n"})
		_, err := p.ParseSpec(path)
		require.Error(t, err)
		assert.True(t, spec.IsSpecParsingError(err))
		assert.Contains(t, err.Error(), "empty document")
	})

	t.Run("unreadable specs dir", func(t *testing.T) {
		_, _, err := p.ParseFromDirectory(context.Background(), filepath.Join(dir, "missing"))
		require.Error(t, err)
		assert.True(t, spec.IsGapDetectionError(err))
	})
}

func TestSpecKitParser_ParseFromDirectorySkipsBadDocuments(t *testing.T) {
	root := speckitProject(t)
	writeFiles(t, root, map[string]string{
		"specs/002-empty/spec.md": "",
		"specs/notes/readme.md":   "# Not a spec",
	})

	p := NewSpecKitParser("")
	specs, skipped, err := p.ParseFromDirectory(context.Background(), filepath.Join(root, "specs"))
	require.NoError(t, err)

	require.Len(t, specs, 1)
	assert.Equal(t, "001-auth", specs[0].ID)
	require.Len(t, skipped, 1)
	assert.Equal(t, filepath.Join(root, "specs", "002-empty", "spec.md"), skipped[0].Path)
}

func TestKiroParser_ParseSpec(t *testing.T) {
	root := kiroProject(t)
	p := NewKiroParser()

	s, err := p.ParseSpec(filepath.Join(root, ".kiro", "specs", "session-mgmt", "requirements.md"))
	require.NoError(t, err)

	assert.Equal(t, "session-mgmt", s.ID)
	assert.Equal(t, "Requirements Document", s.Title)
	assert.Equal(t, spec.FormatKiro, s.Format)

	require.Len(t, s.FunctionalRequirements, 2)
	r1 := s.FunctionalRequirements[0]
	assert.Equal(t, "REQ1", r1.ID)
	assert.Equal(t, "Session Creation", r1.Title)
	assert.Equal(t, "**User Story:** As a user, I want a session, so that I stay signed in.", r1.Description)
	assert.Equal(t, []string{
		"WHEN a user logs in THEN the system SHALL create a session",
		"WHEN a session expires THEN the system SHALL require login",
	}, r1.AcceptanceCriteria)

	r2 := s.FunctionalRequirements[1]
	assert.Equal(t, "REQ2", r2.ID)
	assert.Equal(t, "REQ2", r2.Title)

	// Numbered WHEN/THEN lines carry no status marker.
	assert.Empty(t, s.AcceptanceCriteria)

	require.Len(t, s.Phases, 1)
	assert.Equal(t, "Tasks", s.Phases[0].Name)
	assert.Equal(t, spec.PhaseInProgress, s.Phases[0].Status)
	assert.Equal(t, "1. Create session store", s.Phases[0].Tasks[0].Text)
}

func TestExtract_Frontmatter(t *testing.T) {
	content := `---
id: FEAT-7
title: Frontmatter Title
status: approved
priority: P2
---

Some text without headings.
`
	doc := newDocument("spec.md", []byte(content))
	s := extractor{}.extract(doc, "fallback", spec.FormatSpecKit)

	assert.Equal(t, "FEAT-7", s.ID)
	assert.Equal(t, "Frontmatter Title", s.Title)
	assert.Equal(t, "approved", s.Status)
	assert.Equal(t, "P2", s.Priority)
	assert.Empty(t, s.Effort)
	assert.NotNil(t, s.FunctionalRequirements)
	assert.NotNil(t, s.Phases)
}

func TestExtract_BodyMetadataWinsOverFrontmatter(t *testing.T) {
	content := `---
status: approved
---

# Feature Specification: Checkout

- **Status:** In Review
**Status:** Later
`
	doc := newDocument("specs/004-checkout/spec.md", []byte(content))
	s := extractor{}.extract(doc, "004-checkout", spec.FormatSpecKit)

	assert.Equal(t, "004-checkout", s.ID)
	assert.Equal(t, "Feature Specification: Checkout", s.Title)
	assert.Equal(t, "In Review", s.Status)
}

func TestExtract_HeadingsInCodeFencesAreIgnored(t *testing.T) {
	content := "# 005-x: Fenced\n\n### FR1: Real\n\nText.\n\n```markdown\n### FR9: Not real\n```\n"
	doc := newDocument("spec.md", []byte(content))
	s := extractor{}.extract(doc, "x", spec.FormatSpecKit)

	require.Len(t, s.FunctionalRequirements, 1)
	assert.Equal(t, "FR1", s.FunctionalRequirements[0].ID)
}

func TestExtract_MultiLineClaim(t *testing.T) {
	content := `# 006-x: Claims

### FR-2: Export

**Files:**
- src/export/*.ts
- ` + "`src/csv.ts`" + `

**Functions:**
- exportCsv(rows: Row[], opts?: Options)
- toRow(...values)
`
	doc := newDocument("spec.md", []byte(content))
	s := extractor{}.extract(doc, "x", spec.FormatSpecKit)

	require.Len(t, s.FunctionalRequirements, 1)
	req := s.FunctionalRequirements[0]
	assert.Equal(t, "FR2", req.ID)
	require.NotNil(t, req.Claim)
	assert.Equal(t, []string{"src/export/*.ts", "src/csv.ts"}, req.Claim.Files)
	assert.Equal(t, []spec.FunctionClaim{
		{Name: "exportCsv", Params: []string{"rows", "opts"}},
		{Name: "toRow", Params: []string{"values"}},
	}, req.Claim.Functions)
	assert.Empty(t, req.Claim.Status)
	assert.Empty(t, req.AcceptanceCriteria)
}

func TestParseFunctionClaim(t *testing.T) {
	tests := []struct {
		in   string
		want spec.FunctionClaim
		ok   bool
	}{
		{"login", spec.FunctionClaim{Name: "login"}, true},
		{"login()", spec.FunctionClaim{Name: "login", Params: []string{}}, true},
		{"login(a, b = 1, c?: string)", spec.FunctionClaim{Name: "login", Params: []string{"a", "b", "c"}}, true},
		{"map(fn: (x: T) => U, xs: T[])", spec.FunctionClaim{Name: "map", Params: []string{"fn", "xs"}}, true},
		{"  ", spec.FunctionClaim{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parseFunctionClaim(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
