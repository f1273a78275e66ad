package gap

// Baseline is the neutral confidence with no evidence.
const Baseline = 50

// Confidence bounds.
const (
	MinConfidence = 0
	MaxConfidence = 100
)

// Score sums evidence weights onto the baseline and clamps to [0,100].
// A plain sum keeps the score independent of evidence order and monotonic in
// every weight.
func Score(evidence []Evidence) int {
	total := Baseline
	for _, e := range evidence {
		total += e.Weight
	}
	return clamp(total)
}

func clamp(v int) int {
	if v < MinConfidence {
		return MinConfidence
	}
	if v > MaxConfidence {
		return MaxConfidence
	}
	return v
}
