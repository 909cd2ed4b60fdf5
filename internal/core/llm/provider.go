package llm

import (
	"context"
)

// ProviderName identifies an LLM provider.
type ProviderName string

// Provider name constants.
const (
	ProviderGoogle    ProviderName = "google"
	ProviderAnthropic ProviderName = "anthropic"
	ProviderOpenAI    ProviderName = "openai"
	ProviderMock      ProviderName = "mock"
)

// Priority constants for provider ordering.
const (
	PriorityPrimary        = 100 // Primary provider (Google)
	PriorityFallback       = 50  // First fallback (Anthropic)
	PrioritySecondFallback = 25  // Second fallback (OpenAI)
	PriorityMock           = 0   // Mock provider for testing
)

// Provider defines the interface for LLM providers.
type Provider interface {
	// Name returns the provider identifier.
	Name() ProviderName

	// IsAvailable returns true if the provider is configured and available.
	IsAvailable() bool

	// Priority returns the provider priority (higher = preferred).
	Priority() int

	// CompleteText sends a single-turn prompt to the given model and returns the raw text reply.
	CompleteText(ctx context.Context, prompt, model string) (string, error)
}

// Backend is one (provider, model) step in a fallback chain.
type Backend struct {
	Provider ProviderName
	Model    string
}

func (b Backend) String() string {
	return string(b.Provider) + "/" + b.Model
}

// Client is the completion surface consumed by the condition verifier.
type Client interface {
	CompleteText(ctx context.Context, prompt string) (string, error)
}
