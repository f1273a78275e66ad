package gapanalyzer

import (
	"math"
	"regexp"
	"strings"

	"github.com/c360studio/specgap/gap"
)

// baseEffort is the hour estimate per status before multipliers.
var baseEffort = map[gap.Status]float64{
	gap.StatusMissing:  16,
	gap.StatusStub:     12,
	gap.StatusPartial:  8,
	gap.StatusComplete: 2,
}

var dependencyPattern = regexp.MustCompile(`(?i)depends on\s+([A-Z]+-?\d+)`)

// EstimateEffort returns the estimated hours to close a gap.
func EstimateEffort(status gap.Status, criteria int, description string) int {
	hours := baseEffort[status]
	switch {
	case criteria > 5:
		hours *= 1.5
	case criteria > 3:
		hours *= 1.2
	}
	if dependencyPattern.MatchString(description) {
		hours *= 1.3
	}
	return int(math.Round(hours))
}

// Dependencies returns the requirement IDs named by "depends on <ID>" markers,
// upper-cased, in order of first appearance.
func Dependencies(description string) []string {
	deps := []string{}
	seen := make(map[string]bool)
	for _, m := range dependencyPattern.FindAllStringSubmatch(description, -1) {
		id := strings.ToUpper(m[1])
		if !seen[id] {
			seen[id] = true
			deps = append(deps, id)
		}
	}
	return deps
}
