// Package sprint implements the sprint orchestration engine: role
// agents, the review gate, the sprint controller, and the interaction
// log. One sprint is a full pass of architect, developers, and testers
// over the requirement set; follow-up instructions start further passes
// that see every prior sprint as context.
package sprint

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/fyrsmithlabs/sprintd/internal/provider"
	"github.com/fyrsmithlabs/sprintd/internal/requirements"
)

// ArtifactKind identifies an artifact variant. The set is closed.
type ArtifactKind string

const (
	KindArchitectureDecision ArtifactKind = "architecture_decision"
	KindImplementationPlan   ArtifactKind = "implementation_plan"
	KindTestPlan             ArtifactKind = "test_plan"
	KindTestScript           ArtifactKind = "test_script"
	KindTestSummary          ArtifactKind = "test_summary"
)

// ArtifactMeta carries the fields common to every artifact variant. An
// artifact is immutable after creation except for Reviewed, which the
// review gate sets at most once from false to true.
type ArtifactMeta struct {
	ID              string        `json:"id"`
	Kind            ArtifactKind  `json:"kind"`
	AuthorRole      provider.Role `json:"author_role"`
	AuthorIndex     int           `json:"author_index"`
	RequirementRefs []int         `json:"requirement_refs"`
	CreatedInSprint int           `json:"created_in_sprint"`
	Reviewed        bool          `json:"reviewed"`
}

// Meta returns the common fields. Embedding ArtifactMeta makes a
// variant satisfy Artifact.
func (m *ArtifactMeta) Meta() *ArtifactMeta { return m }

// RefersTo reports whether the artifact references requirement id.
func (m *ArtifactMeta) RefersTo(id int) bool {
	for _, ref := range m.RequirementRefs {
		if ref == id {
			return true
		}
	}
	return false
}

// Artifact is any engineering deliverable produced by a role agent.
type Artifact interface {
	Meta() *ArtifactMeta
}

// ArchitectureDecision records one architecture decision (ADR style).
// Tag is the requirement tag the decision addresses; empty for the
// umbrella decision covering untagged requirements.
type ArchitectureDecision struct {
	ArtifactMeta
	Title        string   `json:"title"`
	Status       string   `json:"status"`
	Tag          string   `json:"tag,omitempty"`
	Pattern      string   `json:"pattern"`
	Context      string   `json:"context"`
	Decision     string   `json:"decision"`
	Rationale    string   `json:"rationale"`
	Consequences []string `json:"consequences"`
}

// Scaffold is an embedded code deliverable inside an implementation
// plan: the module scaffold or its paired unit-test scaffold.
type Scaffold struct {
	Module  string   `json:"module"`
	Summary string   `json:"summary"`
	Code    string   `json:"code"`
	Tools   []string `json:"tools,omitempty"`
}

// ImplementationPlan is one developer's plan for one owned requirement,
// with the peer-review placeholder the review gate later fills and the
// paired source and test scaffolds.
type ImplementationPlan struct {
	ArtifactMeta
	Tasks        []string `json:"tasks"`
	ReviewSteps  []string `json:"review_steps"`
	ReviewNotes  []string `json:"review_notes,omitempty"`
	Notes        string   `json:"notes,omitempty"`
	CodeScaffold Scaffold `json:"code_scaffold"`
	TestScaffold Scaffold `json:"test_scaffold"`
}

// Specialty is a tester's pinned focus.
type Specialty string

const (
	SpecialtyAutomation          Specialty = "automation"
	SpecialtyPerformanceSecurity Specialty = "performance-and-security"
	SpecialtyUX                  Specialty = "ux"
)

// SpecialtyForIndex pins tester instances to specialties by index.
func SpecialtyForIndex(index int) Specialty {
	switch index {
	case 0:
		return SpecialtyAutomation
	case 1:
		return SpecialtyPerformanceSecurity
	default:
		return SpecialtyUX
	}
}

// TestPlan is one tester's validation strategy over the full
// requirement set, scoped to its specialty.
type TestPlan struct {
	ArtifactMeta
	Specialty Specialty `json:"specialty"`
	Strategy  []string  `json:"strategy"`
	Cases     []string  `json:"cases"`
	Tooling   []string  `json:"tooling"`
	Notes     string    `json:"notes,omitempty"`
}

// TestScript is the executable counterpart of a test plan.
type TestScript struct {
	ArtifactMeta
	Specialty Specialty `json:"specialty"`
	Steps     []string  `json:"steps"`
	Tooling   []string  `json:"tooling"`
}

// TestSummary reports anticipated coverage and risks; its presence is
// the validation reference that reviews the tester's other artifacts.
type TestSummary struct {
	ArtifactMeta
	Specialty Specialty `json:"specialty"`
	Coverage  string    `json:"coverage"`
	Risks     string    `json:"risks"`
	NextSteps string    `json:"next_steps"`
}

// Artifacts is an ordered artifact sequence with kind-dispatched JSON
// decoding, so sprint records round-trip losslessly.
type Artifacts []Artifact

// UnmarshalJSON decodes each element into its concrete variant based on
// the kind field.
func (a *Artifacts) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return err
	}

	decoded := make(Artifacts, 0, len(raws))
	for i, raw := range raws {
		var probe struct {
			Kind ArtifactKind `json:"kind"`
		}
		if err := json.Unmarshal(raw, &probe); err != nil {
			return fmt.Errorf("artifact %d: %w", i, err)
		}

		var (
			artifact Artifact
			err      error
		)
		switch probe.Kind {
		case KindArchitectureDecision:
			v := &ArchitectureDecision{}
			err, artifact = json.Unmarshal(raw, v), v
		case KindImplementationPlan:
			v := &ImplementationPlan{}
			err, artifact = json.Unmarshal(raw, v), v
		case KindTestPlan:
			v := &TestPlan{}
			err, artifact = json.Unmarshal(raw, v), v
		case KindTestScript:
			v := &TestScript{}
			err, artifact = json.Unmarshal(raw, v), v
		case KindTestSummary:
			v := &TestSummary{}
			err, artifact = json.Unmarshal(raw, v), v
		default:
			return fmt.Errorf("artifact %d: unknown kind %q", i, probe.Kind)
		}
		if err != nil {
			return fmt.Errorf("artifact %d (%s): %w", i, probe.Kind, err)
		}
		decoded = append(decoded, artifact)
	}
	*a = decoded
	return nil
}

// SprintRecord is one sealed pass of the team over the requirement set.
type SprintRecord struct {
	SprintNumber         int       `json:"sprint_number"`
	FollowUpInstructions []string  `json:"follow_up_instructions,omitempty"`
	Artifacts            Artifacts `json:"artifacts"`

	// Accepted is true only if every developer and tester artifact in
	// the record is reviewed.
	Accepted bool `json:"accepted"`

	// Failure captures a generation failure that aborted dispatching,
	// so downstream consumers see it without scanning logs.
	Failure string `json:"failure,omitempty"`

	sealed bool
}

// Sealed reports whether the record accepts no further artifacts.
func (r *SprintRecord) Sealed() bool { return r.sealed }

// seal closes the record. No artifact additions afterwards.
func (r *SprintRecord) seal() { r.sealed = true }

// add appends artifacts to an open record.
func (r *SprintRecord) add(artifacts ...Artifact) error {
	if r.sealed {
		return ErrSealed
	}
	r.Artifacts = append(r.Artifacts, artifacts...)
	return nil
}

// Decisions returns the record's architecture decisions in order.
func (r *SprintRecord) Decisions() []*ArchitectureDecision {
	var decisions []*ArchitectureDecision
	for _, a := range r.Artifacts {
		if d, ok := a.(*ArchitectureDecision); ok {
			decisions = append(decisions, d)
		}
	}
	return decisions
}

// InteractionLogEntry records one request to a role or one artifact it
// returned. Append-only; total ordering by append sequence.
type InteractionLogEntry struct {
	SprintNumber  int           `json:"sprint_number"`
	Role          provider.Role `json:"role"`
	InstanceIndex int           `json:"instance_index"`
	PromptSummary string        `json:"prompt_summary"`
	ArtifactRef   string        `json:"artifact_ref,omitempty"`
	Timestamp     time.Time     `json:"timestamp"`
}

// Report is the full run output: every field needed for a downstream
// consumer to detect "run completed but sprint N was not accepted"
// without scanning logs.
type Report struct {
	RunID            string                     `json:"run_id"`
	Requirements     []requirements.Requirement `json:"requirements"`
	Keywords         []string                   `json:"keywords,omitempty"`
	Bindings         []provider.RoleBinding     `json:"llm_providers"`
	Sprints          []SprintRecord             `json:"sprints"`
	Log              []InteractionLogEntry      `json:"logs"`
	BestPractices    []string                   `json:"best_practices"`
	QualityAssurance map[string]string          `json:"quality_assurance"`
}

// sortedRefs normalizes a requirement id set for stable output.
func sortedRefs(ids map[int]bool) []int {
	refs := make([]int, 0, len(ids))
	for id := range ids {
		refs = append(refs, id)
	}
	sort.Ints(refs)
	return refs
}
