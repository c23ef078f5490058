package mocks

import (
	"context"
	"sync"
	"sync/atomic"
)

// MockBackend implements generative.Backend. GenerateFunc decides the
// outcome; when nil, the query is echoed back.
type MockBackend struct {
	GenerateFunc func(ctx context.Context, query string) (string, error)

	calls   atomic.Int64
	mu      sync.Mutex
	queries []string
}

// NewMockBackend creates a backend driven by generateFunc.
func NewMockBackend(generateFunc func(ctx context.Context, query string) (string, error)) *MockBackend {
	return &MockBackend{GenerateFunc: generateFunc}
}

// Respond returns a backend that always answers text.
func Respond(text string) *MockBackend {
	return NewMockBackend(func(context.Context, string) (string, error) {
		return text, nil
	})
}

// Fail returns a backend that always fails with err.
func Fail(err error) *MockBackend {
	return NewMockBackend(func(context.Context, string) (string, error) {
		return "", err
	})
}

// Generate records the query and delegates to GenerateFunc.
func (m *MockBackend) Generate(ctx context.Context, query string) (string, error) {
	m.calls.Add(1)
	m.mu.Lock()
	m.queries = append(m.queries, query)
	m.mu.Unlock()

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, query)
	}
	return query, nil
}

// Calls returns how many times Generate ran.
func (m *MockBackend) Calls() int {
	return int(m.calls.Load())
}

// Queries returns the queries received so far.
func (m *MockBackend) Queries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.queries...)
}
