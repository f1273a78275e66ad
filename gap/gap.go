package gap

import "fmt"

// Gap is the conclusion about one requirement.
type Gap struct {
	ID            string     `json:"id"`
	SpecID        string     `json:"spec_id"`
	RequirementID string     `json:"requirement_id"`
	Description   string     `json:"description"`
	Status        Status     `json:"status"`
	Confidence    int        `json:"confidence"`
	Evidence      []Evidence `json:"evidence"`

	// ExpectedLocations are candidate paths derived from the claim or keywords,
	// kept even when nothing exists there.
	ExpectedLocations []string `json:"expected_locations"`

	// ActualLocations are paths where positive evidence was found.
	ActualLocations []string `json:"actual_locations"`

	EffortHours    int      `json:"effort_hours"`
	Priority       string   `json:"priority,omitempty"`
	Impact         string   `json:"impact"`
	Recommendation string   `json:"recommendation"`
	Dependencies   []string `json:"dependencies"`
}

// NewID formats the gap identifier for a requirement.
func NewID(specID, requirementID string) string {
	return fmt.Sprintf("GAP-%s-%s", specID, requirementID)
}
