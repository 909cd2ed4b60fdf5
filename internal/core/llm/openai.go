package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	errs "github.com/snoopa/firehose/internal/core/errors"
	"github.com/snoopa/firehose/internal/platform/config"
)

// openaiProvider implements the Provider interface for OpenAI chat models.
type openaiProvider struct {
	cfg         *config.Config
	client      *openai.Client
	logger      *zerolog.Logger
	rateLimiter *rate.Limiter
}

// NewOpenAIProvider creates a new OpenAI LLM provider.
func NewOpenAIProvider(cfg *config.Config, logger *zerolog.Logger) *openaiProvider {
	return &openaiProvider{
		cfg:         cfg,
		client:      openai.NewClient(cfg.LLMAPIKey),
		logger:      logger,
		rateLimiter: newProviderLimiter(cfg.RateLimitRPS),
	}
}

// Name returns the provider identifier.
func (p *openaiProvider) Name() ProviderName {
	return ProviderOpenAI
}

// IsAvailable returns true if the provider is configured and available.
func (p *openaiProvider) IsAvailable() bool {
	return p.cfg.LLMAPIKey != ""
}

// Priority returns the provider priority.
func (p *openaiProvider) Priority() int {
	return PrioritySecondFallback
}

func (p *openaiProvider) resolveModel(model string) string {
	if strings.HasPrefix(model, modelPrefixGPT) || strings.HasPrefix(model, modelPrefixO) {
		return model
	}

	return DefaultOpenAIModel
}

// CompleteText implements Provider interface.
func (p *openaiProvider) CompleteText(ctx context.Context, prompt, model string) (string, error) {
	if err := p.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf(errRateLimiterSimple, err)
	}

	resolvedModel := p.resolveModel(model)

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: resolvedModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxCompletionTokens: maxCompletionTokens,
	})
	if err != nil {
		RecordTokenUsage(string(ProviderOpenAI), resolvedModel, 0, 0, false)

		return "", fmt.Errorf(errOpenAIChatCompletion, err)
	}

	RecordTokenUsage(string(ProviderOpenAI), resolvedModel, resp.Usage.PromptTokens, resp.Usage.CompletionTokens, true)

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai %s: %w", resolvedModel, errs.ErrEmptyResponse)
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("openai %s: %w", resolvedModel, errs.ErrEmptyResponse)
	}

	return text, nil
}

// Ensure openaiProvider implements Provider interface.
var _ Provider = (*openaiProvider)(nil)
