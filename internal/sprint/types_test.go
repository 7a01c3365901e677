package sprint

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/sprintd/internal/provider"
)

func TestArtifacts_RoundTrip(t *testing.T) {
	original := Artifacts{
		&ArchitectureDecision{
			ArtifactMeta: ArtifactMeta{
				ID:              "dec-1",
				Kind:            KindArchitectureDecision,
				AuthorRole:      provider.RoleArchitect,
				RequirementRefs: []int{1, 3},
				CreatedInSprint: 1,
				Reviewed:        true,
			},
			Title:    "Adopt event-driven backbone",
			Status:   "accepted",
			Tag:      "scale",
			Pattern:  "event-driven",
			Decision: "Use a message broker between services.",
		},
		&ImplementationPlan{
			ArtifactMeta: ArtifactMeta{
				ID:              "plan-1",
				Kind:            KindImplementationPlan,
				AuthorRole:      provider.RoleDeveloper,
				AuthorIndex:     2,
				RequirementRefs: []int{3},
				CreatedInSprint: 1,
			},
			Tasks:       []string{"Implement feature"},
			ReviewSteps: []string{"Peer review pending"},
			CodeScaffold: Scaffold{
				Module:  "feature_3.go",
				Summary: "handler skeleton",
			},
		},
		&TestSummary{
			ArtifactMeta: ArtifactMeta{
				ID:              "sum-1",
				Kind:            KindTestSummary,
				AuthorRole:      provider.RoleTester,
				AuthorIndex:     1,
				RequirementRefs: []int{1, 2, 3},
				CreatedInSprint: 2,
				Reviewed:        true,
			},
			Specialty: SpecialtyPerformanceSecurity,
			Coverage:  "all requirements exercised",
		},
	}

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded Artifacts
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, len(original))

	for i, artifact := range decoded {
		want := original[i].Meta()
		got := artifact.Meta()
		assert.Equal(t, want.ID, got.ID)
		assert.Equal(t, want.Kind, got.Kind)
		assert.Equal(t, want.AuthorRole, got.AuthorRole)
		assert.Equal(t, want.AuthorIndex, got.AuthorIndex)
		assert.Equal(t, want.RequirementRefs, got.RequirementRefs)
		assert.Equal(t, want.Reviewed, got.Reviewed)
	}

	dec, ok := decoded[0].(*ArchitectureDecision)
	require.True(t, ok)
	assert.Equal(t, "event-driven", dec.Pattern)

	plan, ok := decoded[1].(*ImplementationPlan)
	require.True(t, ok)
	assert.Equal(t, "feature_3.go", plan.CodeScaffold.Module)
	assert.Equal(t, []string{"Peer review pending"}, plan.ReviewSteps)

	sum, ok := decoded[2].(*TestSummary)
	require.True(t, ok)
	assert.Equal(t, SpecialtyPerformanceSecurity, sum.Specialty)
}

func TestArtifacts_UnknownKind(t *testing.T) {
	var decoded Artifacts
	err := json.Unmarshal([]byte(`[{"id":"x","kind":"budget_forecast"}]`), &decoded)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "budget_forecast")
}

func TestSprintRecord_AddAfterSeal(t *testing.T) {
	rec := &SprintRecord{SprintNumber: 1}
	require.NoError(t, rec.add(&ArchitectureDecision{
		ArtifactMeta: ArtifactMeta{ID: "dec-1", Kind: KindArchitectureDecision},
	}))

	rec.seal()
	err := rec.add(&ArchitectureDecision{
		ArtifactMeta: ArtifactMeta{ID: "dec-2", Kind: KindArchitectureDecision},
	})
	require.ErrorIs(t, err, ErrSealed)
	assert.Len(t, rec.Artifacts, 1)
}

func TestArtifactMeta_RefersTo(t *testing.T) {
	meta := ArtifactMeta{RequirementRefs: []int{2, 5}}
	assert.True(t, meta.RefersTo(2))
	assert.True(t, meta.RefersTo(5))
	assert.False(t, meta.RefersTo(3))
}
