package llm

import (
	"errors"

	"github.com/stellarlinkco/model-bench/internal/claude"
	"github.com/stellarlinkco/model-bench/internal/config"
)

// NewRouterFromConfig wires a router with every backend adapter the
// config describes. Adapters for hosted providers are registered even
// without a key; the first call fails with a normal call error instead.
func NewRouterFromConfig(cfg *config.Config, resolver ModelResolver) (*Router, error) {
	if cfg == nil {
		return nil, errors.New("llm: nil config")
	}
	if resolver == nil {
		return nil, errors.New("llm: nil resolver")
	}

	r := NewRouter(resolver, cfg.Runner.Timeout)
	r.Register(NewOllamaAdapter(cfg.Backends.Ollama.BaseURL))
	r.Register(NewLMStudioAdapter(cfg.Backends.LMStudio.BaseURL))
	r.Register(NewOpenAIAdapter(cfg.Backends.OpenAI.APIKey, cfg.Backends.OpenAI.BaseURL))

	claudeOpts := make([]claude.Option, 0, 2)
	if cfg.Backends.Claude.BaseURL != "" {
		claudeOpts = append(claudeOpts, claude.WithBaseURL(cfg.Backends.Claude.BaseURL))
	}
	if cfg.Runner.Timeout > 0 {
		claudeOpts = append(claudeOpts, claude.WithTimeout(cfg.Runner.Timeout))
	}
	r.Register(NewClaudeAdapter(cfg.Backends.Claude.APIKey, claudeOpts...))

	return r, nil
}
