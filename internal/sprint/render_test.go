package sprint

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/sprintd/internal/provider"
)

func runReport(t *testing.T, backend *stubBackend) *Report {
	t.Helper()
	c := NewController(defaultBindings(), backend, nil)
	_, err := c.Run(context.Background(), planningDoc)
	require.NoError(t, err)
	return c.Report()
}

func TestRenderJSON_RoundTrip(t *testing.T) {
	report := runReport(t, newStubBackend())

	data, err := RenderJSON(report)
	require.NoError(t, err)

	decoded, err := ParseReport(data)
	require.NoError(t, err)

	assert.Equal(t, report.RunID, decoded.RunID)
	assert.Equal(t, report.Requirements, decoded.Requirements)
	assert.Equal(t, report.Keywords, decoded.Keywords)
	require.Len(t, decoded.Sprints, len(report.Sprints))

	for i := range report.Sprints {
		want, got := report.Sprints[i], decoded.Sprints[i]
		assert.Equal(t, want.SprintNumber, got.SprintNumber)
		assert.Equal(t, want.Accepted, got.Accepted)
		require.Len(t, got.Artifacts, len(want.Artifacts))
		for j := range want.Artifacts {
			assert.Equal(t, want.Artifacts[j].Meta().ID, got.Artifacts[j].Meta().ID)
			assert.Equal(t, want.Artifacts[j].Meta().Kind, got.Artifacts[j].Meta().Kind)
			assert.Equal(t, want.Artifacts[j].Meta().Reviewed, got.Artifacts[j].Meta().Reviewed)
		}
	}
	assert.Len(t, decoded.Log, len(report.Log))
}

func TestRenderJSON_FieldNames(t *testing.T) {
	report := runReport(t, newStubBackend())

	data, err := RenderJSON(report)
	require.NoError(t, err)

	text := string(data)
	assert.Contains(t, text, `"llm_providers"`)
	assert.Contains(t, text, `"logs"`)
	assert.Contains(t, text, `"best_practices"`)
	assert.Contains(t, text, `"quality_assurance"`)
}

func TestSummarize_AcceptedSprint(t *testing.T) {
	report := runReport(t, newStubBackend())
	out := Summarize(report)

	assert.Contains(t, out, "=== Requirements ===")
	assert.Contains(t, out, "=== LLM Provider Assignments ===")
	assert.Contains(t, out, "Sprint 1 (accepted: true)")
	assert.Contains(t, out, "=== Best Practices Checklist ===")
	assert.Contains(t, out, "=== Interaction Log ===")
	assert.NotContains(t, out, "Failure:")

	for _, r := range report.Requirements {
		assert.Contains(t, out, fmt.Sprintf("[%d] %s", r.ID, r.Text))
	}
}

func TestSummarize_FailedSprint(t *testing.T) {
	backend := newStubBackend()
	backend.failFor(provider.RoleDeveloper, 0, "quota exceeded")
	report := runReport(t, backend)

	out := Summarize(report)
	assert.Contains(t, out, "Sprint 1 (accepted: false)")
	assert.Contains(t, out, "Failure:")
	assert.Contains(t, out, "quota exceeded")
}

func TestSummarize_FollowUpShown(t *testing.T) {
	backend := newStubBackend()
	c := NewController(defaultBindings(), backend, nil)
	_, err := c.Run(context.Background(), planningDoc)
	require.NoError(t, err)
	_, err = c.FollowUp(context.Background(), "harden the admin API")
	require.NoError(t, err)

	out := Summarize(c.Report())
	assert.Contains(t, out, "Sprint 2 (accepted:")
	assert.Contains(t, out, "Follow-up: harden the admin API")
	assert.Equal(t, 1, strings.Count(out, "Sprint 1 (accepted:"))
}
