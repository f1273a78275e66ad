package gapanalyzer

import (
	"testing"

	"github.com/c360studio/specgap/gap"
	"github.com/stretchr/testify/assert"
)

func TestExtractKeywords(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"User Login", []string{"login", "user"}},
		{"The system shall validate passwords, tokens & sessions!", []string{"passwords", "validate", "sessions"}},
		{"Cache cache CACHE", []string{"cache"}},
		{"a an the of", []string{}},
		{"OAuth2 token-refresh flow", []string{"tokenrefresh", "oauth2", "flow"}},
		{"", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractKeywords(tt.text))
		})
	}
}

func TestExtractKeywords_RepeatedCalls(t *testing.T) {
	for i := 0; i < 3; i++ {
		assert.Equal(t, []string{"session", "expiry"}, ExtractKeywords("Session expiry"))
	}
}

func TestEstimateEffort(t *testing.T) {
	tests := []struct {
		name        string
		status      gap.Status
		criteria    int
		description string
		want        int
	}{
		{"missing", gap.StatusMissing, 0, "", 16},
		{"stub", gap.StatusStub, 3, "", 12},
		{"partial with four criteria", gap.StatusPartial, 4, "", 10},
		{"complete", gap.StatusComplete, 0, "", 2},
		{"missing with many criteria", gap.StatusMissing, 6, "", 24},
		{"missing with dependency", gap.StatusMissing, 0, "Depends on FR2", 21},
		{"stub with criteria and dependency", gap.StatusStub, 4, "depends on NFR-1", 19},
		{"dependency marker needs an id", gap.StatusMissing, 0, "depends on the login flow", 16},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EstimateEffort(tt.status, tt.criteria, tt.description))
		})
	}
}

func TestDependencies(t *testing.T) {
	assert.Equal(t, []string{"FR2", "NFR-1"}, Dependencies("Depends on FR2; depends on nfr-1, depends on FR2 again"))
	assert.Equal(t, []string{}, Dependencies("standalone"))
}

func TestTemplates(t *testing.T) {
	for _, status := range []gap.Status{gap.StatusMissing, gap.StatusStub, gap.StatusPartial, gap.StatusComplete} {
		assert.Contains(t, Impact(status, "User Login"), "User Login")
		assert.Contains(t, Recommendation(status, "User Login", []string{"src/login.ts"}), "User Login")
	}
	assert.Contains(t, Recommendation(gap.StatusMissing, "User Login", []string{"src/login.ts", "src/user.ts"}), "src/login.ts, src/user.ts")
}
