// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Completer, ai.Embedder,
// and ai.Provider for use in unit tests. The mocks allow tests to run
// without external AI service dependencies and enable controlled,
// deterministic behavior.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	provider := mock.NewMockProvider()
//	vec, err := provider.Embedder().EmbedText(ctx, "test")
//
//	// Custom behavior injection
//	completer := mock.NewMockCompleter()
//	completer.CompleteFunc = func(ctx context.Context, system, user string) (string, error) {
//	    return `{"documentType":"policy"}`, nil
//	}
//
// # Default Behavior
//
//   - MockCompleter: Returns an empty JSON object
//   - MockEmbedder: Returns deterministic vectors based on text hash
//   - MockProvider: Aggregates mock completer and embedder
package mock
