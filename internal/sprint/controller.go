package sprint

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fyrsmithlabs/sprintd/internal/logging"
	"github.com/fyrsmithlabs/sprintd/internal/practices"
	"github.com/fyrsmithlabs/sprintd/internal/provider"
	"github.com/fyrsmithlabs/sprintd/internal/requirements"
)

// State is the controller's position in the sprint lifecycle.
type State string

const (
	StateIdle        State = "idle"
	StateParsing     State = "parsing"
	StateDispatching State = "dispatching"
	StateReviewing   State = "reviewing"
	StateSealed      State = "sealed"
)

// Controller owns the sequence of sprint records and the interaction
// log for the life of one run. Role agents are stateless; all
// accumulated context flows through AgentRequest snapshots.
type Controller struct {
	runID    string
	backend  provider.Backend
	bindings []provider.RoleBinding
	gate     *ReviewGate
	logger   *logging.Logger

	architect  *Architect
	developers [provider.DeveloperCount]*Developer
	testers    [provider.TesterCount]*Tester

	state   State
	reqs    []requirements.Requirement
	sprints []SprintRecord
	log     *InteractionLog
}

// NewController wires the team against one backend and binding table.
// A nil logger falls back to a nop logger.
func NewController(bindings []provider.RoleBinding, backend provider.Backend, logger *logging.Logger) *Controller {
	if logger == nil {
		logger = logging.NewNop()
	}
	c := &Controller{
		runID:     uuid.New().String(),
		backend:   backend,
		bindings:  bindings,
		gate:      NewReviewGate(),
		logger:    logger.Named("controller"),
		architect: NewArchitect(backend),
		state:     StateIdle,
		log:       NewInteractionLog(),
	}
	for i := range c.developers {
		c.developers[i] = NewDeveloper(backend, i)
	}
	for i := range c.testers {
		c.testers[i] = NewTester(backend, i)
	}
	return c
}

// RunID identifies this run across logs and the report.
func (c *Controller) RunID() string { return c.runID }

// State returns the current lifecycle state.
func (c *Controller) State() State { return c.state }

// Sprints returns the sealed sprint records so far.
func (c *Controller) Sprints() []SprintRecord { return c.sprints }

// SetBindings replaces the binding table between sprints. Bindings
// never change mid-sprint.
func (c *Controller) SetBindings(bindings []provider.RoleBinding) error {
	if c.state != StateIdle && c.state != StateSealed {
		return fmt.Errorf("%w: bindings are immutable mid-sprint (state %s)", ErrInvalidState, c.state)
	}
	c.bindings = bindings
	return nil
}

// Run starts the first sprint from a raw requirement document. It is
// the Idle -> Parsing -> Dispatching -> Reviewing -> Sealed pass; a
// document with no usable requirements fails the whole run before any
// sprint record exists.
func (c *Controller) Run(ctx context.Context, rawDocument string) (*SprintRecord, error) {
	if c.state != StateIdle {
		return nil, fmt.Errorf("%w: run already started (state %s)", ErrInvalidState, c.state)
	}

	c.state = StateParsing
	ctx = logging.WithRunID(ctx, c.runID)

	reqs, err := requirements.Parse(rawDocument)
	if err != nil {
		c.state = StateIdle
		return nil, err
	}
	c.reqs = reqs
	c.logger.Info(ctx, "requirements parsed",
		zap.Int("count", len(reqs)),
		zap.Strings("tags", requirements.DistinctTags(reqs)))

	return c.runSprint(ctx, nil)
}

// FollowUp starts another sprint steered by one or more instructions.
// Only legal once the previous sprint sealed; the instructions are
// recorded on the new record and passed to every agent.
func (c *Controller) FollowUp(ctx context.Context, instructions ...string) (*SprintRecord, error) {
	if c.state != StateSealed {
		return nil, fmt.Errorf("%w: follow-up requires a sealed sprint (state %s)", ErrInvalidState, c.state)
	}
	if len(instructions) == 0 {
		return nil, ErrNoFollowUp
	}
	ctx = logging.WithRunID(ctx, c.runID)
	return c.runSprint(ctx, instructions)
}

// runSprint executes Dispatching -> Reviewing -> Sealed for one pass.
func (c *Controller) runSprint(ctx context.Context, followUps []string) (*SprintRecord, error) {
	number := len(c.sprints) + 1
	ctx = logging.WithSprint(ctx, number)

	rec := &SprintRecord{
		SprintNumber:         number,
		FollowUpInstructions: followUps,
	}
	prior := c.snapshot()

	c.state = StateDispatching
	c.logger.Info(ctx, "sprint dispatching", zap.Int("prior_sprints", len(prior)))

	dispatchErr := c.dispatch(ctx, rec, prior, followUps)
	if dispatchErr != nil {
		// Prior completed artifacts stay on the record; the sprint
		// seals unaccepted and the failure is reported, not retried.
		rec.Failure = dispatchErr.Error()
		rec.Accepted = false
		c.logger.Error(ctx, "sprint dispatching aborted", zap.Error(dispatchErr))
	} else {
		c.state = StateReviewing
		if err := c.gate.Review(rec); err != nil {
			if !errors.Is(err, ErrIncompleteSprint) {
				return nil, err
			}
			c.logger.Warn(ctx, "sprint not accepted", zap.Error(err))
		}
	}

	rec.seal()
	c.sprints = append(c.sprints, *rec)
	c.state = StateSealed
	c.logger.Info(ctx, "sprint sealed",
		zap.Int("artifacts", len(rec.Artifacts)),
		zap.Bool("accepted", rec.Accepted))

	return &c.sprints[len(c.sprints)-1], nil
}

// dispatch invokes architect, developers, then testers in that fixed
// order. Later roles see the architect's decisions as context.
// Instances inside a role group have no data dependency on each other
// and run concurrently; their outputs merge back in instance index
// order so observable artifact ordering is deterministic.
func (c *Controller) dispatch(ctx context.Context, rec *SprintRecord, prior []SprintRecord, followUps []string) error {
	req := AgentRequest{
		Sprint:       rec.SprintNumber,
		Requirements: c.reqs,
		PriorSprints: prior,
		FollowUps:    followUps,
	}

	architectArtifacts, err := c.invokeAgent(ctx, c.architect, req, rec)
	if err != nil {
		return err
	}
	for _, a := range architectArtifacts {
		if d, ok := a.(*ArchitectureDecision); ok {
			req.Decisions = append(req.Decisions, d)
		}
	}

	agents := make([]Agent, 0, provider.DeveloperCount)
	for _, d := range c.developers {
		agents = append(agents, d)
	}
	if err := c.invokeGroup(ctx, agents, req, rec); err != nil {
		return err
	}

	agents = agents[:0]
	for _, t := range c.testers {
		agents = append(agents, t)
	}
	return c.invokeGroup(ctx, agents, req, rec)
}

// invokeGroup dispatches one role group concurrently and commits the
// merged results in instance index order. Every agent in the group had
// its request issued, so every agent gets a request log entry, failed
// or empty-handed ones included.
func (c *Controller) invokeGroup(ctx context.Context, agents []Agent, req AgentRequest, rec *SprintRecord) error {
	results := make([][]Artifact, len(agents))
	succeeded := make([]bool, len(agents))
	g, gctx := errgroup.WithContext(ctx)

	for i, agent := range agents {
		g.Go(func() error {
			binding := c.binding(agent)
			artifacts, err := agent.Generate(gctx, req, binding)
			if err != nil {
				return err
			}
			results[i] = artifacts
			succeeded[i] = true
			return nil
		})
	}
	groupErr := g.Wait()

	// Log every request and commit whatever completed, in stable index
	// order, even when a sibling failed. A successful agent may own
	// nothing and return zero artifacts; only failures skip the commit.
	for i, agent := range agents {
		c.logRequest(agent, rec)
		if !succeeded[i] {
			continue
		}
		c.commit(ctx, agent, results[i], rec)
	}
	return groupErr
}

// invokeAgent dispatches a single agent and commits its output. The
// request is logged before the outcome is known.
func (c *Controller) invokeAgent(ctx context.Context, agent Agent, req AgentRequest, rec *SprintRecord) ([]Artifact, error) {
	c.logRequest(agent, rec)
	artifacts, err := agent.Generate(ctx, req, c.binding(agent))
	if err != nil {
		return nil, err
	}
	c.commit(ctx, agent, artifacts, rec)
	return artifacts, nil
}

// logRequest records that a request was issued to one role instance,
// independent of what (or whether) it answered.
func (c *Controller) logRequest(agent Agent, rec *SprintRecord) {
	c.log.Append(InteractionLogEntry{
		SprintNumber:  rec.SprintNumber,
		Role:          agent.Role(),
		InstanceIndex: agent.Index(),
		PromptSummary: agent.PromptSummary(),
	})
}

// commit appends artifacts to the record and the interaction log, one
// entry per returned artifact.
func (c *Controller) commit(ctx context.Context, agent Agent, artifacts []Artifact, rec *SprintRecord) {
	for _, artifact := range artifacts {
		meta := artifact.Meta()
		c.log.Append(InteractionLogEntry{
			SprintNumber:  rec.SprintNumber,
			Role:          agent.Role(),
			InstanceIndex: agent.Index(),
			PromptSummary: fmt.Sprintf("Returned %s artifact.", meta.Kind),
			ArtifactRef:   meta.ID,
		})
	}
	if err := rec.add(artifacts...); err != nil {
		// The record only seals after dispatching completes.
		c.logger.Error(ctx, "artifact dropped on sealed record", zap.Error(err))
	}
}

// binding resolves the agent's binding from the table, falling back to
// the first binding of its role group.
func (c *Controller) binding(agent Agent) provider.RoleBinding {
	if b, ok := provider.Lookup(c.bindings, agent.Role(), agent.Index()); ok {
		return b
	}
	b, _ := provider.Lookup(c.bindings, agent.Role(), 0)
	return b
}

// snapshot copies the sealed records so agents receive immutable
// context.
func (c *Controller) snapshot() []SprintRecord {
	out := make([]SprintRecord, len(c.sprints))
	copy(out, c.sprints)
	return out
}

// Report assembles the run output.
func (c *Controller) Report() *Report {
	return &Report{
		RunID:         c.runID,
		Requirements:  c.reqs,
		Keywords:      requirements.Keywords(c.reqs),
		Bindings:      c.bindings,
		Sprints:       c.Sprints(),
		Log:           c.log.Snapshot(),
		BestPractices: practices.All(),
		QualityAssurance: map[string]string{
			"code_review": "All developer plans carry mandatory peer review placeholders filled by the review gate.",
			"testing":     "Test plans, scripts, and summaries cover every requirement per specialty.",
		},
	}
}
