package llm

import (
	"context"
	"strings"
)

// mockProvider answers without network access. It is registered when
// LLM_API_KEY is "mock" so the pipeline can run end to end locally.
type mockProvider struct{}

// NewMockProvider creates a new mock LLM provider.
func NewMockProvider() *mockProvider {
	return &mockProvider{}
}

// Name returns the provider identifier.
func (p *mockProvider) Name() ProviderName {
	return ProviderMock
}

// IsAvailable returns true as mock is always available.
func (p *mockProvider) IsAvailable() bool {
	return true
}

// Priority returns the provider priority.
func (p *mockProvider) Priority() int {
	return PriorityMock
}

// CompleteText answers "true" when the prompt's headline mentions the
// condition's first word, otherwise "false".
func (p *mockProvider) CompleteText(_ context.Context, prompt, _ string) (string, error) {
	condition := promptField(prompt, "Condition:")
	headline := promptField(prompt, "Headline:")

	words := strings.Fields(condition)
	if len(words) > 0 && strings.Contains(strings.ToLower(headline), strings.ToLower(words[0])) {
		return "true", nil
	}

	return "false", nil
}

func promptField(prompt, label string) string {
	for _, line := range strings.Split(prompt, "\n") {
		if rest, ok := strings.CutPrefix(strings.TrimSpace(line), label); ok {
			return strings.TrimSpace(rest)
		}
	}

	return ""
}

// Ensure mockProvider implements Provider interface.
var _ Provider = (*mockProvider)(nil)
