package gap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name     string
		evidence []Evidence
		want     Status
	}{
		{"nothing is missing", nil, StatusMissing},
		{"only negative is missing", ev(KindFileNotFound), StatusMissing},
		{"parse error alone is missing", ev(KindParseError), StatusMissing},
		{"stub beats strong positive", ev(KindFileExists, KindExactMatch, KindStub), StatusStub},
		{"stub alone", ev(KindStub), StatusStub},
		{"strong without negative is complete", ev(KindFileExists, KindExactMatch), StatusComplete},
		{"strong with negative is partial", ev(KindFileExists, KindFunctionNotFound), StatusPartial},
		{"weak positive is partial", ev(KindNameSimilarity), StatusPartial},
		{"test evidence alone is partial", ev(KindTestExists), StatusPartial},
		{"weak positive with negative is partial", ev(KindNameSimilarity, KindTestMissing), StatusPartial},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveStatus(tt.evidence))
		})
	}
}

func TestPrecedenceOrder(t *testing.T) {
	var order []Status
	for _, rule := range precedence {
		order = append(order, rule.status)
	}
	assert.Equal(t, []Status{StatusStub, StatusComplete, StatusPartial, StatusMissing}, order)
}

func TestGuardClaimedStatus(t *testing.T) {
	assert.Equal(t, StatusComplete, GuardClaimedStatus(StatusComplete, ev(KindFileExists, KindExactMatch)))
	assert.Equal(t, StatusStub, GuardClaimedStatus(StatusComplete, ev(KindFileExists, KindStub)))
	assert.Equal(t, StatusPartial, GuardClaimedStatus(StatusComplete, ev(KindFileNotFound)))
	assert.Equal(t, StatusPartial, GuardClaimedStatus(StatusPartial, ev(KindFileNotFound)))
	assert.Equal(t, StatusMissing, GuardClaimedStatus(StatusMissing, ev(KindFileExists, KindExactMatch)),
		"claims other than complete are kept as declared")
}

func TestParseStatus(t *testing.T) {
	tests := map[string]Status{
		"complete":    StatusComplete,
		" Done ":      StatusComplete,
		"Implemented": StatusComplete,
		"partial":     StatusPartial,
		"in-progress": StatusPartial,
		"In_Progress": StatusPartial,
		"stub":        StatusStub,
		"Stubbed":     StatusStub,
		"missing":     StatusMissing,
		"Not Started": StatusMissing,
		"todo":        StatusMissing,
	}
	for in, want := range tests {
		got, err := ParseStatus(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseStatus("shipped-ish")
	assert.Error(t, err)
}

func TestNewID(t *testing.T) {
	assert.Equal(t, "GAP-001-auth-FR1", NewID("001-auth", "FR1"))
}
