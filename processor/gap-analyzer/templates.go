package gapanalyzer

import (
	"fmt"
	"strings"

	"github.com/c360studio/specgap/gap"
)

// Impact describes what the gap means for the feature.
func Impact(status gap.Status, title string) string {
	switch status {
	case gap.StatusMissing:
		return fmt.Sprintf("%s is not implemented; the feature cannot deliver this requirement.", title)
	case gap.StatusStub:
		return fmt.Sprintf("%s exists only as a placeholder and performs no real work.", title)
	case gap.StatusPartial:
		return fmt.Sprintf("%s is partially implemented; some behavior or verification is absent.", title)
	default:
		return fmt.Sprintf("%s appears implemented; remaining risk is low.", title)
	}
}

// Recommendation suggests the next step for the gap.
func Recommendation(status gap.Status, title string, expected []string) string {
	where := ""
	if len(expected) > 0 {
		where = " in " + strings.Join(expected, ", ")
	}
	switch status {
	case gap.StatusMissing:
		return fmt.Sprintf("Implement %s%s and add tests covering its acceptance criteria.", title, where)
	case gap.StatusStub:
		return fmt.Sprintf("Replace the placeholder body of %s%s with a real implementation.", title, where)
	case gap.StatusPartial:
		return fmt.Sprintf("Complete the remaining work for %s%s and add missing tests.", title, where)
	default:
		return fmt.Sprintf("Verify %s against its acceptance criteria and close the requirement.", title)
	}
}
