package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/c360studio/specgap/gap"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const projectSpec = `# 001-auth: Authentication

**Priority:** P1

### FR1: User Login

**Files:** ` + "`src/auth.ts`" + `
**Functions:** login(username, password)

### FR2: Password Reset

Users reset a forgotten password.

### FR3: Sessions

**Files:** ` + "`src/session.ts`" + `
**Functions:** createSession
`

const projectAuth = `export function login(username: string, password: string): boolean {
    const user = findUser(username);
    return user !== undefined && user.password === password;
}
`

const projectSession = `export function createSession(userId: string) {}
`

// newProject writes a speckit project into a temp dir and isolates the user config.
func newProject(t *testing.T, extra map[string]string) string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	color.NoColor = true

	dir := t.TempDir()
	files := map[string]string{
		"specs/001-auth/spec.md": projectSpec,
		"src/auth.ts":            projectAuth,
		"src/session.ts":         projectSession,
	}
	for k, v := range extra {
		files[k] = v
	}
	for rel, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return dir
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := rootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestAnalyzeCommand(t *testing.T) {
	dir := newProject(t, nil)

	out, _, err := execute(t, "analyze", "--project", dir, "--threshold", "0")
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	require.GreaterOrEqual(t, len(lines), 3)

	// Same priority, so the lower confidence stub comes first.
	assert.True(t, strings.HasPrefix(lines[0], "stub"), lines[0])
	assert.Contains(t, lines[0], "GAP-001-auth-FR3")
	assert.Contains(t, lines[0], " 45%")
	assert.Contains(t, lines[0], " 12h")
	assert.Contains(t, lines[0], "P1")

	assert.True(t, strings.HasPrefix(lines[1], "missing"), lines[1])
	assert.Contains(t, lines[1], "GAP-001-auth-FR2")
	assert.Contains(t, lines[1], " 50%")
	assert.Contains(t, lines[1], " 16h")

	assert.NotContains(t, out, "GAP-001-auth-FR1")
	assert.Contains(t, out, "Summary: 2 gaps from 3 requirements in 1 specs (format: speckit); 1 suppressed, 0 below threshold 0")
	assert.NotContains(t, out, "Warning:")
}

func TestAnalyzeCommand_Flags(t *testing.T) {
	dir := newProject(t, nil)

	t.Run("default threshold filters the stub", func(t *testing.T) {
		out, _, err := execute(t, "analyze", "--project", dir)
		require.NoError(t, err)
		assert.NotContains(t, out, "GAP-001-auth-FR3")
		assert.Contains(t, out, "GAP-001-auth-FR2")
		assert.Contains(t, out, "1 below threshold 50")
	})

	t.Run("no stubs", func(t *testing.T) {
		out, _, err := execute(t, "analyze", "--project", dir, "--threshold", "0", "--no-stubs")
		require.NoError(t, err)
		assert.NotContains(t, out, "GAP-001-auth-FR3")
		assert.Contains(t, out, "2 suppressed")
	})

	t.Run("metrics", func(t *testing.T) {
		_, errOut, err := execute(t, "analyze", "--project", dir, "--metrics", "--log-level", "error")
		require.NoError(t, err)
		assert.Contains(t, errOut, "specgap_requirements_analyzed_total 3")
	})

	t.Run("invalid format", func(t *testing.T) {
		_, _, err := execute(t, "analyze", "--project", dir, "--format", "markdown")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "analysis.format")
	})

	t.Run("missing project", func(t *testing.T) {
		_, _, err := execute(t, "analyze", "--project", filepath.Join(dir, "nope"))
		require.Error(t, err)
	})
}

func TestAnalyzeCommand_SkippedDocuments(t *testing.T) {
	dir := newProject(t, map[string]string{"specs/002-blank/spec.md": ""})

	out, _, err := execute(t, "analyze", "--project", dir, "--threshold", "0")
	require.NoError(t, err)

	assert.Contains(t, out, "in 1 specs")
	assert.Contains(t, out, "Warning: 1 documents and 0 source files were skipped")
	assert.Contains(t, out, filepath.Join("002-blank", "spec.md")+": empty document")
}

func TestAnalyzeCommand_ProjectConfig(t *testing.T) {
	dir := newProject(t, map[string]string{
		"specgap.yaml": "analysis:\n  confidence_threshold: 0\n  include_stubs: false\n",
	})

	out, _, err := execute(t, "analyze", "--project", dir)
	require.NoError(t, err)
	assert.NotContains(t, out, "GAP-001-auth-FR3")
	assert.Contains(t, out, "below threshold 0")
}

func TestDetectCommand(t *testing.T) {
	dir := newProject(t, nil)

	out, _, err := execute(t, "detect", "--project", dir)
	require.NoError(t, err)
	assert.Equal(t, "format: speckit\n  speckit: "+filepath.Join(dir, "specs")+"\n", out)
}

func TestVersionCommand(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "specgap version "+Version+" (build: "+BuildTime+")\n", out)
}

func TestPriorityRank(t *testing.T) {
	assert.Less(t, priorityRank("P0"), priorityRank("P2"))
	assert.Less(t, priorityRank("High"), priorityRank("low"))
	assert.Equal(t, 100, priorityRank(""))
	assert.Equal(t, 100, priorityRank("urgent"))
}

func TestSortGaps(t *testing.T) {
	gaps := []gap.Gap{
		{ID: "GAP-a-FR3", Priority: "low", Confidence: 10},
		{ID: "GAP-a-FR2", Priority: "high", Confidence: 70},
		{ID: "GAP-a-FR1", Priority: "P1", Confidence: 40},
		{ID: "GAP-a-FR4", Priority: "P1", Confidence: 40},
		{ID: "GAP-a-FR5", Priority: "P0", Confidence: 90},
	}

	var ids []string
	for _, g := range sortGaps(gaps) {
		ids = append(ids, g.ID)
	}
	assert.Equal(t, []string{"GAP-a-FR5", "GAP-a-FR1", "GAP-a-FR4", "GAP-a-FR2", "GAP-a-FR3"}, ids)
	assert.Equal(t, "GAP-a-FR3", gaps[0].ID, "input is not reordered")
}
