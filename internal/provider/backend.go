package provider

import (
	"context"
	"fmt"
	"sync"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/fyrsmithlabs/sprintd/internal/config"
)

// Backend executes a generation call for one role instance. The engine
// treats the call as cancelable and never retries it; retry and rate
// limit policy belong to the implementation.
type Backend interface {
	Invoke(ctx context.Context, role Role, binding RoleBinding, prompt string) (string, error)
}

// LLMBackend routes generation calls through langchaingo clients.
// Bindings with local deployment go to Ollama; everything else goes to
// an OpenAI-compatible endpoint. Models are constructed lazily and
// cached per (provider, model) pair.
type LLMBackend struct {
	cfg config.BackendConfig

	mu     sync.Mutex
	models map[string]llms.Model
}

// NewLLMBackend creates a backend from config.
func NewLLMBackend(cfg config.BackendConfig) *LLMBackend {
	return &LLMBackend{
		cfg:    cfg,
		models: make(map[string]llms.Model),
	}
}

// Invoke implements Backend.
func (b *LLMBackend) Invoke(ctx context.Context, role Role, binding RoleBinding, prompt string) (string, error) {
	model, err := b.modelFor(binding)
	if err != nil {
		return "", fmt.Errorf("resolving model for %s[%d]: %w", binding.Role, binding.InstanceIndex, err)
	}

	if timeout := b.cfg.Timeout.Duration(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	completion, err := llms.GenerateFromSinglePrompt(ctx, model, prompt)
	if err != nil {
		return "", fmt.Errorf("generation call for %s[%d] via %s: %w",
			binding.Role, binding.InstanceIndex, binding.Provider, err)
	}
	return completion, nil
}

func (b *LLMBackend) modelFor(binding RoleBinding) (llms.Model, error) {
	key := binding.Provider + "/" + binding.Model + "/" + string(binding.Deployment)

	b.mu.Lock()
	defer b.mu.Unlock()
	if model, ok := b.models[key]; ok {
		return model, nil
	}

	var (
		model llms.Model
		err   error
	)
	if binding.Deployment == DeploymentLocal {
		opts := []ollama.Option{}
		if binding.Model != "" {
			opts = append(opts, ollama.WithModel(binding.Model))
		}
		if b.cfg.OllamaURL != "" {
			opts = append(opts, ollama.WithServerURL(b.cfg.OllamaURL))
		}
		model, err = ollama.New(opts...)
	} else {
		opts := []openai.Option{}
		if binding.Model != "" {
			opts = append(opts, openai.WithModel(binding.Model))
		}
		if b.cfg.OpenAIBaseURL != "" {
			opts = append(opts, openai.WithBaseURL(b.cfg.OpenAIBaseURL))
		}
		if b.cfg.OpenAIAPIKey.IsSet() {
			opts = append(opts, openai.WithToken(b.cfg.OpenAIAPIKey.Value()))
		}
		model, err = openai.New(opts...)
	}
	if err != nil {
		return nil, err
	}

	b.models[key] = model
	return model, nil
}

// TemplateBackend renders deterministic narrative text without calling
// any external service. It is the default when no API key is
// configured, and the backend tests run against.
type TemplateBackend struct{}

// NewTemplateBackend creates a template backend.
func NewTemplateBackend() *TemplateBackend {
	return &TemplateBackend{}
}

// Invoke implements Backend. It honors context cancelation so the
// controller's cancelation path behaves the same as with a live
// backend.
func (b *TemplateBackend) Invoke(ctx context.Context, role Role, binding RoleBinding, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return fmt.Sprintf("[%s via %s] %s", role, binding.Describe(), prompt), nil
}
