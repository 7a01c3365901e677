// Package provider resolves per-role generation backend configuration
// into an immutable binding table and hosts the backend implementations
// that execute generation calls.
//
// Configuration input is deliberately flexible. Each role group accepts
// a scalar (applied to every instance) or a positional sequence:
//
//	providers:
//	  architect: "openai:gpt-4o"
//	  developers:
//	    - "openai:gpt-4o-mini"
//	    - {provider: ollama, model: llama3}
//	  testers: "ollama:llama3"
//
// Resolution happens once at configuration time; the resulting bindings
// never change mid-sprint.
package provider

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownRoleGroup indicates a configuration key outside
	// architect/developers/testers.
	ErrUnknownRoleGroup = errors.New("unknown role group")

	// ErrArityMismatch indicates a provider sequence longer than the
	// role group it configures.
	ErrArityMismatch = errors.New("provider sequence exceeds role group size")

	// ErrMissingProvider indicates a mapping entry without a provider name.
	ErrMissingProvider = errors.New("provider configuration mapping requires a provider key")
)

// Role identifies a discipline on the team. The set is closed.
type Role string

const (
	RoleArchitect Role = "architect"
	RoleDeveloper Role = "developer"
	RoleTester    Role = "tester"
)

// Deployment distinguishes remote cloud endpoints from locally
// reachable services.
type Deployment string

const (
	DeploymentCloud Deployment = "cloud"
	DeploymentLocal Deployment = "local"
)

// Group cardinalities. One architect leads three developers and three
// testers.
const (
	ArchitectCount = 1
	DeveloperCount = 3
	TesterCount    = 3
	TotalInstances = ArchitectCount + DeveloperCount + TesterCount
)

// RoleBinding is the resolved (provider, model, deployment) triple a
// role instance uses for generation calls.
type RoleBinding struct {
	Role          Role       `json:"role"`
	InstanceIndex int        `json:"instance_index"`
	Provider      string     `json:"provider"`
	Model         string     `json:"model,omitempty"`
	Deployment    Deployment `json:"deployment"`
}

// Describe returns a short human-friendly summary of the binding.
func (b RoleBinding) Describe() string {
	if b.Model != "" {
		return fmt.Sprintf("%s (%s, model=%s)", b.Provider, b.Deployment, b.Model)
	}
	return fmt.Sprintf("%s (%s)", b.Provider, b.Deployment)
}

// Default bindings applied to any instance left unconfigured. The
// architect gets the stronger default model.
const (
	DefaultProvider       = "openai"
	DefaultArchitectModel = "gpt-4o"
	DefaultMemberModel    = "gpt-4o-mini"
)

func defaultBinding(role Role, index int) RoleBinding {
	model := DefaultMemberModel
	if role == RoleArchitect {
		model = DefaultArchitectModel
	}
	return RoleBinding{
		Role:          role,
		InstanceIndex: index,
		Provider:      DefaultProvider,
		Model:         model,
		Deployment:    DeploymentCloud,
	}
}

// roleGroup ties a config key to its role and cardinality, in binding
// table order.
type roleGroup struct {
	key   string
	role  Role
	count int
}

var roleGroups = []roleGroup{
	{"architect", RoleArchitect, ArchitectCount},
	{"developers", RoleDeveloper, DeveloperCount},
	{"testers", RoleTester, TesterCount},
}

// Resolve normalizes raw per-group configuration into one binding per
// role instance. Every one of the seven instances is always bound;
// groups or positions absent from raw fall back to defaults. Group
// values may be a string ("provider[:model]"), a mapping with a
// mandatory provider key, or a sequence of either assigned
// positionally.
func Resolve(raw map[string]any) ([]RoleBinding, error) {
	for key := range raw {
		if !knownGroup(key) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownRoleGroup, key)
		}
	}

	bindings := make([]RoleBinding, 0, TotalInstances)
	for _, group := range roleGroups {
		resolved, err := resolveGroup(group, raw[group.key])
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, resolved...)
	}
	return bindings, nil
}

func knownGroup(key string) bool {
	for _, g := range roleGroups {
		if g.key == key {
			return true
		}
	}
	return false
}

func resolveGroup(group roleGroup, value any) ([]RoleBinding, error) {
	bindings := make([]RoleBinding, group.count)
	for i := range bindings {
		bindings[i] = defaultBinding(group.role, i)
	}
	if value == nil {
		return bindings, nil
	}

	seq, isSeq := asSequence(value)
	if !isSeq {
		// Scalar: broadcast the same spec to every instance.
		for i := range bindings {
			b, err := coerceSpec(value, group.role, i)
			if err != nil {
				return nil, fmt.Errorf("role group %q: %w", group.key, err)
			}
			bindings[i] = b
		}
		return bindings, nil
	}

	if len(seq) > group.count {
		return nil, fmt.Errorf("%w: role group %q accepts at most %d entries, got %d",
			ErrArityMismatch, group.key, group.count, len(seq))
	}
	for i, entry := range seq {
		b, err := coerceSpec(entry, group.role, i)
		if err != nil {
			return nil, fmt.Errorf("role group %q entry %d: %w", group.key, i, err)
		}
		bindings[i] = b
	}
	return bindings, nil
}

// asSequence reports whether value is a positional sequence. YAML
// decoding yields []any; []string is accepted for callers building
// config programmatically.
func asSequence(value any) ([]any, bool) {
	switch v := value.(type) {
	case []any:
		return v, true
	case []string:
		seq := make([]any, len(v))
		for i, s := range v {
			seq[i] = s
		}
		return seq, true
	default:
		return nil, false
	}
}

// coerceSpec normalizes one provider spec (string or mapping) into a
// binding for the given role instance.
func coerceSpec(value any, role Role, index int) (RoleBinding, error) {
	switch v := value.(type) {
	case string:
		return coerceString(v, role, index), nil
	case map[string]any:
		return coerceMapping(v, role, index)
	case map[any]any:
		// Older YAML decoders produce interface-keyed maps.
		converted := make(map[string]any, len(v))
		for key, val := range v {
			name, ok := key.(string)
			if !ok {
				return RoleBinding{}, fmt.Errorf("unsupported provider specification key %v", key)
			}
			converted[name] = val
		}
		return coerceMapping(converted, role, index)
	default:
		return RoleBinding{}, fmt.Errorf("unsupported provider specification type %T", value)
	}
}

// coerceString parses "provider[:model]". The provider alone decides
// deployment unless it is the pseudo-provider "local", which promotes
// the model part to the provider name ("local:ollama").
func coerceString(spec string, role Role, index int) RoleBinding {
	providerPart, modelPart, found := strings.Cut(spec, ":")
	providerName := strings.TrimSpace(providerPart)
	model := ""
	if found {
		model = strings.TrimSpace(modelPart)
	}

	deployment := inferDeployment(providerName)
	if strings.EqualFold(providerName, "local") && model != "" {
		providerName, model = model, ""
	}

	return RoleBinding{
		Role:          role,
		InstanceIndex: index,
		Provider:      providerName,
		Model:         model,
		Deployment:    deployment,
	}
}

func coerceMapping(spec map[string]any, role Role, index int) (RoleBinding, error) {
	providerName := stringField(spec, "provider")
	if providerName == "" {
		providerName = stringField(spec, "name")
	}
	if providerName == "" {
		return RoleBinding{}, ErrMissingProvider
	}

	deployment := Deployment(stringField(spec, "deployment"))
	if deployment == "" {
		deployment = Deployment(stringField(spec, "location"))
	}
	if deployment == "" {
		deployment = inferDeployment(providerName)
	}

	return RoleBinding{
		Role:          role,
		InstanceIndex: index,
		Provider:      providerName,
		Model:         stringField(spec, "model"),
		Deployment:    deployment,
	}, nil
}

func stringField(m map[string]any, key string) string {
	if v, ok := m[key]; ok && v != nil {
		return strings.TrimSpace(fmt.Sprintf("%v", v))
	}
	return ""
}

// inferDeployment resolves the deployment when none is given: ollama
// and the pseudo-provider "local" run locally, everything else is a
// cloud endpoint.
func inferDeployment(providerName string) Deployment {
	switch strings.ToLower(providerName) {
	case "ollama", "local":
		return DeploymentLocal
	default:
		return DeploymentCloud
	}
}

// Lookup returns the binding for (role, index) from a resolved table.
func Lookup(bindings []RoleBinding, role Role, index int) (RoleBinding, bool) {
	for _, b := range bindings {
		if b.Role == role && b.InstanceIndex == index {
			return b, true
		}
	}
	return RoleBinding{}, false
}
