// Package config provides configuration loading for sprintd.
package config

import (
	"fmt"
	"time"
)

// Backend modes.
const (
	BackendModeTemplate = "template"
	BackendModeLive     = "live"
)

// Config is the root sprintd configuration.
type Config struct {
	// Providers holds the raw per-role-group provider configuration.
	// Each key (architect, developers, testers) accepts a scalar or a
	// positional sequence; internal/provider normalizes the shapes.
	Providers map[string]any `koanf:"providers"`

	// Backend configures the generation backend.
	Backend BackendConfig `koanf:"backend"`

	// Logging configures the zap logger.
	Logging LoggingConfig `koanf:"logging"`
}

// BackendConfig holds generation backend settings.
type BackendConfig struct {
	// Mode selects the backend: "live" routes calls through the
	// configured LLM providers, "template" renders deterministic text
	// locally.
	Mode string `koanf:"mode"`

	// OpenAIBaseURL overrides the OpenAI-compatible endpoint. Empty
	// uses the client default.
	OpenAIBaseURL string `koanf:"openai_base_url"`

	// OpenAIAPIKey authenticates cloud calls. Redacted in logs and
	// serialized output.
	OpenAIAPIKey Secret `koanf:"openai_api_key"`

	// OllamaURL is the local Ollama server. Empty uses the client
	// default.
	OllamaURL string `koanf:"ollama_url"`

	// Timeout bounds a single generation call.
	Timeout Duration `koanf:"timeout"`
}

// LoggingConfig mirrors internal/logging.Config for koanf decoding.
type LoggingConfig struct {
	Level  string            `koanf:"level"`
	Format string            `koanf:"format"`
	Fields map[string]string `koanf:"fields"`
}

// applyDefaults fills zero values with defaults.
func applyDefaults(cfg *Config) {
	if cfg.Backend.Mode == "" {
		cfg.Backend.Mode = BackendModeTemplate
	}
	if cfg.Backend.Timeout == 0 {
		cfg.Backend.Timeout = Duration(60 * time.Second)
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
	if cfg.Logging.Fields == nil {
		cfg.Logging.Fields = map[string]string{"service": "sprintd"}
	}
}

// Validate checks the configuration for consistency. Provider shapes
// are validated separately by internal/provider.Resolve.
func (c *Config) Validate() error {
	switch c.Backend.Mode {
	case BackendModeTemplate, BackendModeLive:
	default:
		return fmt.Errorf("invalid backend mode %q (want %q or %q)",
			c.Backend.Mode, BackendModeTemplate, BackendModeLive)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("invalid logging format %q (want json or console)", c.Logging.Format)
	}
	return nil
}
