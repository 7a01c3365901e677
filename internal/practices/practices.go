// Package practices carries the curated delivery practice catalog the
// team bakes into its artifacts.
package practices

// Sections of the catalog.
const (
	SectionArchitecture = "architecture"
	SectionDevelopment  = "development"
	SectionTesting      = "testing"
	SectionProcess      = "process"
)

var catalog = map[string][]string{
	SectionArchitecture: {
		"Document architecture decisions through Architecture Decision Records (ADRs).",
		"Design for scalability and resilience using modular components and clear interfaces.",
		"Prioritize security and privacy from the architecture phase onward.",
	},
	SectionDevelopment: {
		"Adopt trunk-based development with short-lived feature branches.",
		"Mandate peer code reviews before merging any change.",
		"Automate builds, dependency scanning, and static analysis.",
		"Favor clean code principles, SOLID design, and idiomatic language constructs.",
	},
	SectionTesting: {
		"Automate unit, integration, and end-to-end tests with clear ownership.",
		"Maintain high coverage on critical paths and verify non-functional requirements.",
		"Incorporate test data management and observability-driven validation.",
	},
	SectionProcess: {
		"Use sprint reviews, retrospectives, and daily stand-ups to inspect and adapt.",
		"Track work through transparent Kanban or sprint boards with clear Definition of Done.",
		"Integrate continuous deployment practices with feature flags and staged rollouts.",
	},
}

// order keeps catalog output stable.
var order = []string{SectionArchitecture, SectionDevelopment, SectionTesting, SectionProcess}

// ForSection returns the practices of one section, or nil.
func ForSection(section string) []string {
	src := catalog[section]
	if src == nil {
		return nil
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// All returns the flattened catalog in section order.
func All() []string {
	var aggregated []string
	for _, section := range order {
		aggregated = append(aggregated, catalog[section]...)
	}
	return aggregated
}
