package gap

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func ev(kinds ...EvidenceKind) []Evidence {
	out := make([]Evidence, len(kinds))
	for i, k := range kinds {
		out[i] = NewEvidence(k, string(k))
	}
	return out
}

func TestWeights(t *testing.T) {
	want := map[EvidenceKind]int{
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
	assert.Len(t, Kinds(), len(want))
	for _, k := range Kinds() {
		assert.Equal(t, want[k], k.Weight(), k)
		assert.True(t, k.Valid())
	}
	assert.False(t, EvidenceKind("guess").Valid())
	assert.False(t, KindParseError.Positive())
	assert.False(t, KindParseError.Negative())
}

func TestScore(t *testing.T) {
	tests := []struct {
		name     string
		evidence []Evidence
		want     int
	}{
		{"no evidence is neutral", nil, 50},
		{"file exists and stub", ev(KindFileExists, KindStub), 45},
		{"clamped high", ev(KindFileExists, KindExactMatch, KindTestExists), 100},
		{"clamped low", ev(KindFileNotFound, KindFunctionNotFound, KindTestMissing), 0},
		{"similarity matches", ev(KindNameSimilarity, KindNameSimilarity), 70},
		{"parse error is neutral", ev(KindParseError), 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Score(tt.evidence))
		})
	}
}

func TestScore_OrderIndependent(t *testing.T) {
	evidence := ev(KindFileExists, KindStub, KindNameSimilarity, KindTestMissing, KindExactMatch, KindFileNotFound)
	want := Score(evidence)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 50; i++ {
		shuffled := append([]Evidence(nil), evidence...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assert.Equal(t, want, Score(shuffled))
	}
}

func TestScore_Monotonic(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	kinds := Kinds()

	for i := 0; i < 200; i++ {
		var evidence []Evidence
		for j := rng.Intn(6); j > 0; j-- {
			evidence = append(evidence, NewEvidence(kinds[rng.Intn(len(kinds))], "random"))
		}
		base := Score(evidence)
		assert.GreaterOrEqual(t, base, MinConfidence)
		assert.LessOrEqual(t, base, MaxConfidence)

		for _, k := range kinds {
			next := Score(append(append([]Evidence(nil), evidence...), NewEvidence(k, "added")))
			switch {
			case k.Positive():
				assert.GreaterOrEqual(t, next, base, "adding %s lowered the score", k)
			case k.Negative():
				assert.LessOrEqual(t, next, base, "adding %s raised the score", k)
			default:
				assert.Equal(t, base, next)
			}
		}
	}
}

func TestEvidence_At(t *testing.T) {
	e := NewEvidence(KindExactMatch, "login found")
	located := e.At("src/auth.ts", 12)

	assert.Empty(t, e.File, "At returns a copy")
	assert.Equal(t, "src/auth.ts", located.File)
	assert.Equal(t, 12, located.Line)
	assert.Equal(t, "exact-match(+50) login found @ src/auth.ts:12", located.String())
}
