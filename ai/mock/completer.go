package mock

import "context"

// MockCompleter is a test double for ai.Completer.
// It allows custom behavior injection via function fields.
type MockCompleter struct {
	// CompleteFunc is called by Complete if set.
	// If nil, returns an empty JSON object.
	CompleteFunc func(ctx context.Context, systemPrompt, userContent string) (string, error)

	callCount int
}

// NewMockCompleter creates a mock completer with default behavior.
// Note: Returns concrete type so tests can inject behavior and assert call counts.
func NewMockCompleter() *MockCompleter {
	return &MockCompleter{}
}

// Complete returns the injected response or an empty JSON object.
func (m *MockCompleter) Complete(ctx context.Context, systemPrompt, userContent string) (string, error) {
	m.callCount++

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, systemPrompt, userContent)
	}

	return "{}", nil
}

// CallCount returns the number of times Complete was called.
func (m *MockCompleter) CallCount() int {
	return m.callCount
}

// Reset clears the call count and custom function.
func (m *MockCompleter) Reset() {
	m.callCount = 0
	m.CompleteFunc = nil
}
