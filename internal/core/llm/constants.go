package llm

// Error message templates
const (
	errRateLimiterSimple     = "rate limiter: %w"
	errOpenAIChatCompletion  = "openai chat completion: %w"
	errGoogleGenAICompletion = "google genai completion: %w"
	errAnthropicCompletion   = "anthropic completion: %w"
)

// Model prefixes used to keep a backend on its own model family.
const (
	modelPrefixClaude = "claude"
	modelPrefixGemini = "gemini"
	modelPrefixGPT    = "gpt-"
	modelPrefixO      = "o"
)

// Default models per provider.
const (
	DefaultGoogleModel    = "gemini-2.0-flash-lite"
	DefaultAnthropicModel = "claude-haiku-4-5"
	DefaultOpenAIModel    = "gpt-4o-mini"
)

// Log message strings
const (
	logMsgCircuitBreakerOpen = "skipping backend - circuit breaker open"
)

// Log field keys
const (
	logKeyProvider = "provider"
	logKeyModel    = "model"
)

// Numeric constants
const (
	rateLimiterBurst = 5

	// Verification answers are a single word; keep completions tiny.
	maxCompletionTokens = 16
)

// Request status for metrics.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Metric gauge values.
const (
	MetricValueAvailable   = 1.0
	MetricValueUnavailable = 0.0
)
