package llm

import (
	"context"
	"sync"
)

// MockTextGenerator is a configurable mock for testing report generation.
// Set the function fields to control behavior in tests.
type MockTextGenerator struct {
	// GenerateResponseFunc is called when GenerateResponse is invoked.
	// If nil, returns a result with empty content and nil error.
	GenerateResponseFunc func(ctx context.Context, req GenerateRequest) (*GenerateResponseResult, error)

	// Model is returned by GetModel. Defaults to "mock-model".
	Model string

	// Endpoint is returned by GetEndpoint. Defaults to "http://mock-endpoint".
	Endpoint string

	mu sync.Mutex
	// Call tracking for verification
	GenerateResponseCalls int
	Requests              []GenerateRequest
}

// NewMockTextGenerator creates a new mock with sensible defaults.
func NewMockTextGenerator() *MockTextGenerator {
	return &MockTextGenerator{
		Model:    "mock-model",
		Endpoint: "http://mock-endpoint",
	}
}

// GenerateResponse implements TextGenerator.
func (m *MockTextGenerator) GenerateResponse(ctx context.Context, req GenerateRequest) (*GenerateResponseResult, error) {
	m.mu.Lock()
	m.GenerateResponseCalls++
	m.Requests = append(m.Requests, req)
	fn := m.GenerateResponseFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	return &GenerateResponseResult{}, nil
}

// GetModel implements TextGenerator.
func (m *MockTextGenerator) GetModel() string {
	if m.Model == "" {
		return "mock-model"
	}
	return m.Model
}

// GetEndpoint implements TextGenerator.
func (m *MockTextGenerator) GetEndpoint() string {
	if m.Endpoint == "" {
		return "http://mock-endpoint"
	}
	return m.Endpoint
}
