package sprint

import (
	"encoding/json"
	"fmt"
	"strings"
)

// RenderJSON serializes the report losslessly for machine consumers.
func RenderJSON(report *Report) ([]byte, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("rendering report: %w", err)
	}
	return data, nil
}

// ParseReport decodes a report produced by RenderJSON, reconstructing
// concrete artifact variants.
func ParseReport(data []byte) (*Report, error) {
	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("parsing report: %w", err)
	}
	return &report, nil
}

// Summarize produces the human-readable run summary. It may condense
// artifact bodies but always states each sprint's accepted status.
func Summarize(report *Report) string {
	var b strings.Builder

	b.WriteString("=== Requirements ===\n")
	for _, r := range report.Requirements {
		fmt.Fprintf(&b, "- [%d] %s", r.ID, r.Text)
		if len(r.Tags) > 0 {
			fmt.Fprintf(&b, " (tags: %s)", strings.Join(r.Tags, ", "))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n=== LLM Provider Assignments ===\n")
	for _, binding := range report.Bindings {
		fmt.Fprintf(&b, "%s %d: %s\n", binding.Role, binding.InstanceIndex+1, binding.Describe())
	}

	for i := range report.Sprints {
		summarizeSprint(&b, &report.Sprints[i])
	}

	b.WriteString("\n=== Best Practices Checklist ===\n")
	for _, practice := range report.BestPractices {
		fmt.Fprintf(&b, "- %s\n", practice)
	}

	b.WriteString("\n=== Quality Assurance Guardrails ===\n")
	for _, topic := range []string{"code_review", "testing"} {
		if note, ok := report.QualityAssurance[topic]; ok {
			fmt.Fprintf(&b, "%s: %s\n", topic, note)
		}
	}

	b.WriteString("\n=== Interaction Log ===\n")
	for _, entry := range report.Log {
		fmt.Fprintf(&b, "sprint %d | %s[%d]: %s\n",
			entry.SprintNumber, entry.Role, entry.InstanceIndex, entry.PromptSummary)
	}

	return b.String()
}

func summarizeSprint(b *strings.Builder, rec *SprintRecord) {
	fmt.Fprintf(b, "\n=== Sprint %d (accepted: %t) ===\n", rec.SprintNumber, rec.Accepted)
	if rec.Failure != "" {
		fmt.Fprintf(b, "Failure: %s\n", rec.Failure)
	}
	for _, instruction := range rec.FollowUpInstructions {
		fmt.Fprintf(b, "Follow-up: %s\n", instruction)
	}

	for _, artifact := range rec.Artifacts {
		switch a := artifact.(type) {
		case *ArchitectureDecision:
			fmt.Fprintf(b, "[decision] %s (refs: %v)\n", a.Title, a.RequirementRefs)
			fmt.Fprintf(b, "  decision: %s\n", a.Decision)
			for _, consequence := range a.Consequences {
				fmt.Fprintf(b, "  consequence: %s\n", consequence)
			}
		case *ImplementationPlan:
			fmt.Fprintf(b, "[plan] developer %d, requirement %v\n", a.AuthorIndex+1, a.RequirementRefs)
			for _, task := range a.Tasks {
				fmt.Fprintf(b, "  * %s\n", task)
			}
			for _, note := range a.ReviewNotes {
				fmt.Fprintf(b, "  review: %s\n", note)
			}
			fmt.Fprintf(b, "  scaffold: %s / %s\n", a.CodeScaffold.Module, a.TestScaffold.Module)
		case *TestPlan:
			fmt.Fprintf(b, "[test plan] tester %d (%s), %d cases\n", a.AuthorIndex+1, a.Specialty, len(a.Cases))
		case *TestScript:
			fmt.Fprintf(b, "[test script] tester %d (%s), %d steps\n", a.AuthorIndex+1, a.Specialty, len(a.Steps))
		case *TestSummary:
			fmt.Fprintf(b, "[test summary] tester %d (%s): %s\n", a.AuthorIndex+1, a.Specialty, a.Coverage)
		}
	}

	if unreviewed := unreviewedArtifacts(rec); len(unreviewed) > 0 {
		b.WriteString("Unreviewed artifacts:\n")
		for _, artifact := range unreviewed {
			fmt.Fprintf(b, "  - %s\n", describeArtifact(artifact.Meta()))
		}
	}
}
