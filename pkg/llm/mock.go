package llm

import (
	"context"
	"sync"
)

// MockClient is a configurable Client for tests in other packages.
type MockClient struct {
	// GenerateResponseFunc is called by GenerateResponse. When nil an empty
	// reply is returned.
	GenerateResponseFunc func(ctx context.Context, prompt, systemMessage string, temperature float64) (string, error)

	Model    string
	Provider string

	mu      sync.Mutex
	prompts []string
}

var _ Client = (*MockClient)(nil)

func (m *MockClient) GenerateResponse(ctx context.Context, prompt string, systemMessage string, temperature float64) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.GenerateResponseFunc != nil {
		return m.GenerateResponseFunc(ctx, prompt, systemMessage, temperature)
	}
	return "", nil
}

// Prompts returns every prompt received so far.
func (m *MockClient) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

func (m *MockClient) GetModel() string {
	if m.Model == "" {
		return "mock-model"
	}
	return m.Model
}

func (m *MockClient) GetProvider() string {
	if m.Provider == "" {
		return "mock"
	}
	return m.Provider
}
