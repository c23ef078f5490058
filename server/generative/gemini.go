package generative

import (
	"context"
	"fmt"

	"github.com/teilomillet/callbridge/config"
	"google.golang.org/genai"
)

// GeminiBackend calls the Gemini API through the official SDK.
type GeminiBackend struct {
	client *genai.Client
	model  string
	config *genai.GenerateContentConfig
}

// NewGeminiBackend creates a Gemini API client for cfg.Model. cfg.Endpoint,
// when set, replaces the public API base URL.
func NewGeminiBackend(ctx context.Context, cfg config.LLMConfig) (*GeminiBackend, error) {
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.Endpoint != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.Endpoint}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	b := &GeminiBackend{
		client: client,
		model:  cfg.Model,
	}
	if cfg.SystemPrompt != "" {
		b.config = &genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{
				Parts: []*genai.Part{{Text: cfg.SystemPrompt}},
			},
		}
	}
	return b, nil
}

// Generate issues one non-streaming generateContent call.
func (b *GeminiBackend) Generate(ctx context.Context, query string) (string, error) {
	resp, err := b.client.Models.GenerateContent(ctx, b.model, genai.Text(query), b.config)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}
