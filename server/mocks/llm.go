// Package mocks provides test doubles for the generative backends.
package mocks

import (
	"context"
	"sync"

	"github.com/teilomillet/gollm"
	"github.com/teilomillet/gollm/llm"
)

// MockLLM stands in for a gollm client. It records every prompt and the
// system prompt it was configured with.
//
//	mockLLM := NewMockLLM(func(ctx context.Context, prompt *gollm.Prompt) (string, error) {
//	    return "mocked response", nil
//	})
type MockLLM struct {
	GenerateFunc func(context.Context, *gollm.Prompt) (string, error)

	mu           sync.Mutex
	prompts      []*gollm.Prompt
	systemPrompt string
	cacheType    llm.CacheType
}

// NewMockLLM creates a MockLLM. A nil generateFunc answers "" with no error.
func NewMockLLM(generateFunc func(context.Context, *gollm.Prompt) (string, error)) *MockLLM {
	return &MockLLM{GenerateFunc: generateFunc}
}

// Generate records prompt and delegates to GenerateFunc.
func (m *MockLLM) Generate(ctx context.Context, prompt *gollm.Prompt, opts ...llm.GenerateOption) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt)
	}
	return "", nil
}

// SetSystemPrompt records the system prompt and its cache type.
func (m *MockLLM) SetSystemPrompt(prompt string, cacheType llm.CacheType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.systemPrompt = prompt
	m.cacheType = cacheType
}

// Prompts returns the prompts passed to Generate so far.
func (m *MockLLM) Prompts() []*gollm.Prompt {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*gollm.Prompt(nil), m.prompts...)
}

// SystemPrompt returns the last system prompt set and its cache type.
func (m *MockLLM) SystemPrompt() (string, llm.CacheType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.systemPrompt, m.cacheType
}
