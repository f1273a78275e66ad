package spec

// Format tags the specification schema layout found in a project.
type Format string

const (
	// FormatSpecKit is schema A: specs/<feature>/spec.md with plan.md and tasks.md siblings.
	FormatSpecKit Format = "speckit"

	// FormatKiro is schema B: .kiro/specs/<feature>/requirements.md with tasks.md siblings.
	FormatKiro Format = "kiro"

	// FormatBoth means both layouts are present.
	FormatBoth Format = "both"

	// FormatNone means no supported layout was found.
	FormatNone Format = "none"
)

// Route hints for schema A.
const (
	// RouteFull merges auxiliary plan.md and tasks.md documents. It is the default.
	RouteFull = "full"

	// RouteSpecOnly reads spec.md alone.
	RouteSpecOnly = "spec"
)

// ParseFormat maps user input to a Format. Both letter tags and names are accepted.
func ParseFormat(s string) (Format, bool) {
	switch s {
	case "A", "a", string(FormatSpecKit):
		return FormatSpecKit, true
	case "B", "b", string(FormatKiro):
		return FormatKiro, true
	case string(FormatBoth):
		return FormatBoth, true
	case string(FormatNone):
		return FormatNone, true
	}
	return "", false
}

// Formats expands a tag into the concrete single-schema formats it covers.
func (f Format) Formats() []Format {
	switch f {
	case FormatSpecKit, FormatKiro:
		return []Format{f}
	case FormatBoth:
		return []Format{FormatSpecKit, FormatKiro}
	default:
		return nil
	}
}

// ValidRoute reports whether route is a known route hint. Empty means default.
func ValidRoute(route string) bool {
	switch route {
	case "", RouteFull, RouteSpecOnly:
		return true
	}
	return false
}
