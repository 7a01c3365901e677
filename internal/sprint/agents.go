package sprint

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/fyrsmithlabs/sprintd/internal/practices"
	"github.com/fyrsmithlabs/sprintd/internal/provider"
	"github.com/fyrsmithlabs/sprintd/internal/requirements"
)

// AgentRequest is the immutable context one agent invocation sees:
// the parsed requirements, every prior sprint, and this sprint's
// follow-up instructions. Decisions carries the architect's output once
// available so later roles can align with it.
type AgentRequest struct {
	Sprint       int
	Requirements []requirements.Requirement
	PriorSprints []SprintRecord
	FollowUps    []string
	Decisions    []*ArchitectureDecision
}

// pattern returns the architecture pattern already decided for this
// sprint, or the fallback when the architect has not spoken yet.
func (r AgentRequest) pattern() string {
	for _, d := range r.Decisions {
		if d.Pattern != "" {
			return d.Pattern
		}
	}
	return patternLayered
}

// Agent is one role instance. Agents hold no persistent state; every
// invocation is a function of its request, binding, and the backend
// call.
type Agent interface {
	Role() provider.Role
	Index() int
	// PromptSummary is the one-line description of what is being asked
	// of the role, recorded on the interaction log.
	PromptSummary() string
	Generate(ctx context.Context, req AgentRequest, binding provider.RoleBinding) ([]Artifact, error)
}

// Architecture patterns the architect chooses between, keyed off
// requirement keywords.
const (
	patternLayered       = "layered-service"
	patternEventDriven   = "event-driven"
	patternMicroservices = "microservices"
	patternLakehouse     = "data-lakehouse"
)

// Architect turns requirements into architecture decisions: one per
// distinct tag plus an umbrella governance decision covering untagged
// requirements.
type Architect struct {
	backend provider.Backend
}

// NewArchitect creates the architect agent.
func NewArchitect(backend provider.Backend) *Architect {
	return &Architect{backend: backend}
}

func (a *Architect) Role() provider.Role { return provider.RoleArchitect }
func (a *Architect) Index() int          { return 0 }

func (a *Architect) PromptSummary() string {
	return "Provide architecture guidance for the upcoming sprint."
}

// Generate implements Agent.
func (a *Architect) Generate(ctx context.Context, req AgentRequest, binding provider.RoleBinding) ([]Artifact, error) {
	keywords := requirements.Keywords(req.Requirements)
	pattern := choosePattern(keywords)
	tags := requirements.DistinctTags(req.Requirements)

	quality := "reliability"
	for _, t := range tags {
		if t == "security" {
			quality = "security"
			break
		}
	}

	var artifacts []Artifact
	for _, tag := range tags {
		refs := map[int]bool{}
		for _, r := range req.Requirements {
			if r.HasTag(tag) {
				refs[r.ID] = true
			}
		}

		rationale, err := a.invoke(ctx, binding, fmt.Sprintf(
			"State the rationale for addressing the %s requirements with a %s architecture.", tag, pattern), req)
		if err != nil {
			return nil, &GenerationError{Role: provider.RoleArchitect, Err: err}
		}

		artifacts = append(artifacts, &ArchitectureDecision{
			ArtifactMeta: newMeta(KindArchitectureDecision, provider.RoleArchitect, 0, refs, req.Sprint),
			Title:        fmt.Sprintf("Adopt %s architecture for %s requirements", pattern, tag),
			Status:       "Accepted",
			Tag:          tag,
			Context:      fmt.Sprintf("Requirements tagged %q emphasise qualities the %s pattern serves.", tag, pattern),
			Decision:     fmt.Sprintf("Implement a %s architecture balancing %s and delivery speed.", pattern, quality),
			Rationale:    rationale,
			Consequences: []string{
				"Engineering teams must enforce contract-first APIs with versioning.",
				practices.ForSection(practices.SectionArchitecture)[0],
			},
			Pattern: pattern,
		})
	}

	// Umbrella decision: governance for everything without a tag.
	untagged := map[int]bool{}
	for _, r := range req.Requirements {
		if len(r.Tags) == 0 {
			untagged[r.ID] = true
		}
	}
	rationale, err := a.invoke(ctx, binding,
		"State the rationale for centralising decision records alongside the codebase.", req)
	if err != nil {
		return nil, &GenerationError{Role: provider.RoleArchitect, Err: err}
	}
	artifacts = append(artifacts, &ArchitectureDecision{
		ArtifactMeta: newMeta(KindArchitectureDecision, provider.RoleArchitect, 0, untagged, req.Sprint),
		Title:        "Centralise decision records",
		Status:       "Accepted",
		Context:      "Teams require visibility into architectural intent and trade-offs.",
		Decision:     fmt.Sprintf("Store ADRs with the codebase and adopt the %s pattern as the default shape.", pattern),
		Rationale:    rationale,
		Consequences: []string{
			"Architecture changes trigger reviews from architect and lead developer.",
		},
		Pattern: pattern,
	})

	return artifacts, nil
}

func (a *Architect) invoke(ctx context.Context, binding provider.RoleBinding, prompt string, req AgentRequest) (string, error) {
	return a.backend.Invoke(ctx, provider.RoleArchitect, binding, withFollowUps(prompt, req.FollowUps))
}

// choosePattern maps requirement keywords onto an architecture pattern.
func choosePattern(keywords []string) string {
	switch {
	case hasAny(keywords, "realtime", "real-time", "latency", "responsive"):
		return patternEventDriven
	case hasAny(keywords, "scalable", "scale", "microservice", "microservices", "distributed"):
		return patternMicroservices
	case hasAny(keywords, "analytics", "pipeline", "data"):
		return patternLakehouse
	default:
		return patternLayered
	}
}

func hasAny(keywords []string, wanted ...string) bool {
	for _, kw := range keywords {
		for _, w := range wanted {
			if kw == w {
				return true
			}
		}
	}
	return false
}

// Developer owns the requirements whose id maps to its index by
// round-robin (ID mod 3), a disjoint deterministic partition across the
// three instances. It emits one implementation plan per owned
// requirement, each with a peer-review placeholder and paired code and
// test scaffolds.
type Developer struct {
	backend provider.Backend
	index   int
}

// NewDeveloper creates developer instance index (0..2).
func NewDeveloper(backend provider.Backend, index int) *Developer {
	return &Developer{backend: backend, index: index}
}

func (d *Developer) Role() provider.Role { return provider.RoleDeveloper }
func (d *Developer) Index() int          { return d.index }

func (d *Developer) PromptSummary() string {
	return "Draft implementation plan aligned with the architecture and requirements."
}

// Owns reports whether this instance owns the requirement.
func (d *Developer) Owns(r requirements.Requirement) bool {
	return r.ID%provider.DeveloperCount == d.index
}

// Generate implements Agent.
func (d *Developer) Generate(ctx context.Context, req AgentRequest, binding provider.RoleBinding) ([]Artifact, error) {
	pattern := req.pattern()

	var artifacts []Artifact
	for _, r := range req.Requirements {
		if !d.Owns(r) {
			continue
		}

		notes, err := d.backend.Invoke(ctx, provider.RoleDeveloper, binding, withFollowUps(fmt.Sprintf(
			"Plan the implementation of requirement %d (%s) under the %s pattern.", r.ID, r.Text, pattern), req.FollowUps))
		if err != nil {
			return nil, &GenerationError{Role: provider.RoleDeveloper, Index: d.index, Err: err}
		}

		plan := &ImplementationPlan{
			ArtifactMeta: newMeta(KindImplementationPlan, provider.RoleDeveloper, d.index, map[int]bool{r.ID: true}, req.Sprint),
			Tasks: []string{
				fmt.Sprintf("Implement feature for: %s aligned with %s pattern.", r.Text, pattern),
				"Integrate static analysis and continuous integration pipelines.",
			},
			ReviewSteps: []string{
				fmt.Sprintf("Peer review pending for requirement %d: %s", r.ID, practices.ForSection(practices.SectionDevelopment)[1]),
			},
			Notes:        notes,
			CodeScaffold: d.codeScaffold(r, pattern),
			TestScaffold: d.testScaffold(r),
		}
		artifacts = append(artifacts, plan)
	}
	return artifacts, nil
}

func (d *Developer) codeScaffold(r requirements.Requirement, pattern string) Scaffold {
	module := fmt.Sprintf("feature_%d.go", r.ID)
	code := strings.Join([]string{
		fmt.Sprintf("// Package feature implements requirement %d under the %s pattern.", r.ID, pattern),
		"package feature",
		"",
		"// Contract captures the requirement and its acceptance criteria.",
		"type Contract struct {",
		"\tRequirement        string",
		"\tAcceptanceCriteria []string",
		"}",
		"",
		fmt.Sprintf("// Implement scaffolds the delivery of requirement %d.", r.ID),
		"func Implement() Contract {",
		"\treturn Contract{",
		fmt.Sprintf("\t\tRequirement:        %q,", r.Text),
		fmt.Sprintf("\t\tAcceptanceCriteria: []string{%q},", r.Text),
		"\t}",
		"}",
	}, "\n")
	return Scaffold{
		Module:  module,
		Summary: "Bootstrap module scaffolding implementation aligned to ADR decisions.",
		Code:    code,
	}
}

func (d *Developer) testScaffold(r requirements.Requirement) Scaffold {
	module := fmt.Sprintf("feature_%d_test.go", r.ID)
	code := strings.Join([]string{
		"package feature",
		"",
		"import \"testing\"",
		"",
		fmt.Sprintf("func TestImplement_Requirement%d(t *testing.T) {", r.ID),
		"\tcontract := Implement()",
		fmt.Sprintf("\tif contract.Requirement != %q {", r.Text),
		"\t\tt.Fatalf(\"unexpected requirement: %q\", contract.Requirement)",
		"\t}",
		"}",
	}, "\n")
	return Scaffold{
		Module:  module,
		Summary: "Unit tests validating the generated feature contract.",
		Code:    code,
		Tools:   []string{"go test", "staticcheck"},
	}
}

// Tester is pinned to one specialty by index and validates the full
// requirement set, emitting a test plan, a test script, and a test
// summary per sprint.
type Tester struct {
	backend provider.Backend
	index   int
}

// NewTester creates tester instance index (0..2).
func NewTester(backend provider.Backend, index int) *Tester {
	return &Tester{backend: backend, index: index}
}

func (t *Tester) Role() provider.Role  { return provider.RoleTester }
func (t *Tester) Index() int           { return t.index }
func (t *Tester) Specialty() Specialty { return SpecialtyForIndex(t.index) }

func (t *Tester) PromptSummary() string {
	return "Outline validation strategy covering functional and non-functional needs."
}

// Generate implements Agent.
func (t *Tester) Generate(ctx context.Context, req AgentRequest, binding provider.RoleBinding) ([]Artifact, error) {
	specialty := t.Specialty()
	refs := map[int]bool{}
	for _, r := range req.Requirements {
		refs[r.ID] = true
	}

	notes, err := t.backend.Invoke(ctx, provider.RoleTester, binding, withFollowUps(fmt.Sprintf(
		"Outline %s validation for %d requirements.", specialty, len(req.Requirements)), req.FollowUps))
	if err != nil {
		return nil, &GenerationError{Role: provider.RoleTester, Index: t.index, Err: err}
	}

	plan := &TestPlan{
		ArtifactMeta: newMeta(KindTestPlan, provider.RoleTester, t.index, refs, req.Sprint),
		Specialty:    specialty,
		Strategy: []string{
			"Adopt the test pyramid with unit, integration, contract, and exploratory testing.",
			fmt.Sprintf("Scope validation to the %s specialty and surface risks early.", specialty),
		},
		Tooling: specialtyTooling(specialty),
		Notes:   notes,
	}
	for _, r := range req.Requirements {
		plan.Cases = append(plan.Cases,
			fmt.Sprintf("Derive acceptance criteria and %s test cases for requirement %d: %s", specialty, r.ID, r.Text))
	}

	script := &TestScript{
		ArtifactMeta: newMeta(KindTestScript, provider.RoleTester, t.index, refs, req.Sprint),
		Specialty:    specialty,
		Tooling:      specialtyTooling(specialty),
		Steps: []string{
			"Initialise test environment with architecture guardrails validated.",
			"Deploy the latest build artifact to staging.",
		},
	}
	for _, r := range req.Requirements {
		script.Steps = append(script.Steps,
			fmt.Sprintf("Execute %s scenario covering requirement %d: %s", specialty, r.ID, r.Text))
	}
	script.Steps = append(script.Steps, "Capture evidence and attach it to the test management system.")

	summary := &TestSummary{
		ArtifactMeta: newMeta(KindTestSummary, provider.RoleTester, t.index, refs, req.Sprint),
		Specialty:    specialty,
		Coverage:     fmt.Sprintf("Covered %d requirements with %s suites.", len(req.Requirements), specialty),
		Risks:        fmt.Sprintf("Ongoing monitoring of %s findings to detect regression.", specialty),
		NextSteps:    "Schedule a regression rerun post-deployment and refresh the validation charters.",
	}

	return []Artifact{plan, script, summary}, nil
}

func specialtyTooling(s Specialty) []string {
	switch s {
	case SpecialtyAutomation:
		return []string{"playwright", "selenium"}
	case SpecialtyPerformanceSecurity:
		return []string{"k6", "zap"}
	default:
		return []string{"wcag-audit", "manual"}
	}
}

// withFollowUps appends this sprint's steering instructions to a
// prompt so every role incorporates them.
func withFollowUps(prompt string, followUps []string) string {
	if len(followUps) == 0 {
		return prompt
	}
	return prompt + " Follow-up instructions: " + strings.Join(followUps, "; ")
}

// newMeta builds common artifact fields with a fresh identity.
func newMeta(kind ArtifactKind, role provider.Role, index int, refs map[int]bool, sprintNumber int) ArtifactMeta {
	return ArtifactMeta{
		ID:              uuid.New().String(),
		Kind:            kind,
		AuthorRole:      role,
		AuthorIndex:     index,
		RequirementRefs: sortedRefs(refs),
		CreatedInSprint: sprintNumber,
	}
}
