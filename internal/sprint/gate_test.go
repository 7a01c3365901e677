package sprint

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/sprintd/internal/provider"
)

// buildSprint dispatches a full sprint worth of artifacts into an open
// record without running the gate.
func buildSprint(t *testing.T, doc string) *SprintRecord {
	t.Helper()
	reqs := mustParse(doc)
	backend := newStubBackend()
	bindings := defaultBindings()

	rec := &SprintRecord{SprintNumber: 1}
	req := AgentRequest{Sprint: 1, Requirements: reqs}

	architect := NewArchitect(backend)
	binding, _ := provider.Lookup(bindings, provider.RoleArchitect, 0)
	artifacts, err := architect.Generate(context.Background(), req, binding)
	require.NoError(t, err)
	require.NoError(t, rec.add(artifacts...))
	for _, a := range artifacts {
		req.Decisions = append(req.Decisions, a.(*ArchitectureDecision))
	}

	for i := 0; i < provider.DeveloperCount; i++ {
		binding, _ := provider.Lookup(bindings, provider.RoleDeveloper, i)
		artifacts, err := NewDeveloper(backend, i).Generate(context.Background(), req, binding)
		require.NoError(t, err)
		require.NoError(t, rec.add(artifacts...))
	}
	for i := 0; i < provider.TesterCount; i++ {
		binding, _ := provider.Lookup(bindings, provider.RoleTester, i)
		artifacts, err := NewTester(backend, i).Generate(context.Background(), req, binding)
		require.NoError(t, err)
		require.NoError(t, rec.add(artifacts...))
	}
	return rec
}

func TestReviewGate_FullSprintAccepted(t *testing.T) {
	rec := buildSprint(t, "Secure the API\nScale the backend\nRender dashboards")

	gate := NewReviewGate()
	require.NoError(t, gate.Review(rec))
	assert.True(t, rec.Accepted)

	for _, artifact := range rec.Artifacts {
		assert.True(t, artifact.Meta().Reviewed, "artifact %s must be reviewed", artifact.Meta().Kind)
	}
}

func TestReviewGate_FillsPeerReviewPlaceholder(t *testing.T) {
	rec := buildSprint(t, "Secure the API\nScale the backend")

	gate := NewReviewGate()
	require.NoError(t, gate.Review(rec))

	var plans int
	for _, artifact := range rec.Artifacts {
		if plan, ok := artifact.(*ImplementationPlan); ok {
			plans++
			assert.NotEmpty(t, plan.ReviewNotes, "review must fill the placeholder")
		}
	}
	require.Positive(t, plans)
}

func TestReviewGate_Idempotent(t *testing.T) {
	rec := buildSprint(t, "Secure the API\nScale the backend")

	gate := NewReviewGate()
	require.NoError(t, gate.Review(rec))

	var notesBefore []string
	for _, artifact := range rec.Artifacts {
		if plan, ok := artifact.(*ImplementationPlan); ok {
			notesBefore = append(notesBefore, plan.ReviewNotes...)
		}
	}
	acceptedBefore := rec.Accepted

	require.NoError(t, gate.Review(rec))

	var notesAfter []string
	for _, artifact := range rec.Artifacts {
		if plan, ok := artifact.(*ImplementationPlan); ok {
			notesAfter = append(notesAfter, plan.ReviewNotes...)
		}
		assert.True(t, artifact.Meta().Reviewed)
	}
	assert.Equal(t, acceptedBefore, rec.Accepted)
	assert.Equal(t, notesBefore, notesAfter, "re-applying the gate must not change review notes")
}

func TestReviewGate_OrphanPlanStaysUnreviewed(t *testing.T) {
	// A developer plan with no cross-role counterpart covering its
	// requirement fails its check and is surfaced, not dropped.
	plan := &ImplementationPlan{
		ArtifactMeta: ArtifactMeta{
			ID:              "plan-1",
			Kind:            KindImplementationPlan,
			AuthorRole:      provider.RoleDeveloper,
			AuthorIndex:     0,
			RequirementRefs: []int{3},
			CreatedInSprint: 1,
		},
		Tasks: []string{"Implement feature"},
	}
	rec := &SprintRecord{SprintNumber: 1, Artifacts: Artifacts{plan}}

	gate := NewReviewGate()
	err := gate.Review(rec)
	require.ErrorIs(t, err, ErrIncompleteSprint)

	assert.False(t, rec.Accepted)
	assert.False(t, plan.Reviewed)
	require.Len(t, rec.Artifacts, 1, "failing artifacts are surfaced, never dropped")

	unreviewed := unreviewedArtifacts(rec)
	require.Len(t, unreviewed, 1)
	assert.Equal(t, "plan-1", unreviewed[0].Meta().ID)
}

func TestReviewGate_TesterWithoutSummaryStaysUnreviewed(t *testing.T) {
	meta := func(kind ArtifactKind, index int) ArtifactMeta {
		return ArtifactMeta{
			ID:              string(kind),
			Kind:            kind,
			AuthorRole:      provider.RoleTester,
			AuthorIndex:     index,
			RequirementRefs: []int{1},
			CreatedInSprint: 1,
		}
	}

	planOnly := &TestPlan{ArtifactMeta: meta(KindTestPlan, 0), Specialty: SpecialtyAutomation}
	script := &TestScript{ArtifactMeta: meta(KindTestScript, 0), Specialty: SpecialtyAutomation}

	// Tester 1 delivered its summary; tester 0 did not.
	otherSummary := &TestSummary{ArtifactMeta: meta(KindTestSummary, 1), Specialty: SpecialtyPerformanceSecurity}

	rec := &SprintRecord{SprintNumber: 1, Artifacts: Artifacts{planOnly, script, otherSummary}}

	gate := NewReviewGate()
	err := gate.Review(rec)
	require.ErrorIs(t, err, ErrIncompleteSprint)

	assert.False(t, planOnly.Reviewed)
	assert.False(t, script.Reviewed)
	assert.True(t, otherSummary.Reviewed, "a present summary reviews its own instance")
	assert.False(t, rec.Accepted)
}

func TestReviewGate_FailureKeepsSprintUnaccepted(t *testing.T) {
	rec := buildSprint(t, "Secure the API")
	rec.Failure = "generation failed for developer[1]: backend unavailable"

	gate := NewReviewGate()
	require.NoError(t, gate.Review(rec))
	assert.False(t, rec.Accepted, "a recorded failure forces accepted=false even with reviewed artifacts")
}
