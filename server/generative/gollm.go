package generative

import (
	"context"
	"fmt"

	"github.com/teilomillet/callbridge/config"
	"github.com/teilomillet/gollm"
	"github.com/teilomillet/gollm/llm"
)

// LLM is the part of gollm.LLM the backend uses.
type LLM interface {
	Generate(ctx context.Context, prompt *gollm.Prompt, opts ...llm.GenerateOption) (string, error)
	SetSystemPrompt(prompt string, cacheType llm.CacheType)
}

// GollmBackend serves every non-Gemini provider through gollm.
//
// gollm reports a failed call as "failed to generate after N attempts"
// without the underlying error, so only context expiry can be recovered
// from it. Quota and transport failures surface as provider failures.
type GollmBackend struct {
	llm LLM
}

// NewGollmBackend creates a gollm client for cfg.Provider and cfg.Model with
// gollm's retries and its own logging disabled. cfg.Endpoint is honored for
// ollama only; Config.Validate rejects it for other gollm providers.
func NewGollmBackend(cfg config.LLMConfig) (*GollmBackend, error) {
	opts := []gollm.ConfigOption{
		gollm.SetProvider(cfg.Provider),
		gollm.SetModel(cfg.Model),
		gollm.SetAPIKey(cfg.APIKey),
		gollm.SetMaxRetries(0),
		gollm.SetLogLevel(gollm.LogLevelOff),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, gollm.SetTimeout(cfg.Timeout))
	}
	if cfg.Endpoint != "" && cfg.Provider == config.ProviderOllama {
		opts = append(opts, gollm.SetOllamaEndpoint(cfg.Endpoint))
	}

	client, err := gollm.NewLLM(opts...)
	if err != nil {
		return nil, fmt.Errorf("create LLM: %w", err)
	}
	return NewGollmBackendWithLLM(client, cfg.SystemPrompt), nil
}

// NewGollmBackendWithLLM wraps an existing client, typically a mock, and
// applies systemPrompt to it when set.
func NewGollmBackendWithLLM(l LLM, systemPrompt string) *GollmBackend {
	if systemPrompt != "" {
		l.SetSystemPrompt(systemPrompt, gollm.CacheTypeEphemeral)
	}
	return &GollmBackend{llm: l}
}

// Generate sends query as the prompt input, so providers receive it verbatim.
func (b *GollmBackend) Generate(ctx context.Context, query string) (string, error) {
	text, err := b.llm.Generate(ctx, gollm.NewPrompt(query))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("%w: %v", ctxErr, err)
		}
		return "", err
	}
	return text, nil
}
