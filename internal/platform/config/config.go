package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	errs "github.com/snoopa/firehose/internal/core/errors"
)

const listSeparator = ","

type Config struct {
	AppEnv      string `env:"APP_ENV" envDefault:"local"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	PostgresDSN string `env:"POSTGRES_DSN,required"`
	HealthPort  int    `env:"HEALTH_PORT" envDefault:"8080"`

	// Database pool
	DBMaxConnections    int32         `env:"DB_MAX_CONNECTIONS" envDefault:"10"`
	DBMinConnections    int32         `env:"DB_MIN_CONNECTIONS" envDefault:"1"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`

	// Scheduling
	FirehoseInterval       time.Duration `env:"FIREHOSE_INTERVAL" envDefault:"1h"`
	FirehoseRunOnStart     bool          `env:"FIREHOSE_RUN_ON_START" envDefault:"true"`
	FirehoseRunLockEnabled bool          `env:"FIREHOSE_RUN_LOCK_ENABLED" envDefault:"false"`
	FirehoseFlushTimeout   time.Duration `env:"FIREHOSE_FLUSH_TIMEOUT" envDefault:"30s"`

	// Headline sources
	SearchProviders   string        `env:"SEARCH_PROVIDERS" envDefault:"serper,newsapi,googlenews"`
	SearchFreshness   time.Duration `env:"SEARCH_FRESHNESS" envDefault:"24h"`
	SearchConcurrency int           `env:"SEARCH_CONCURRENCY" envDefault:"4"`

	SerperAPIKey   string        `env:"SERPER_API_KEY"`
	SerperBaseURL  string        `env:"SERPER_BASE_URL" envDefault:"https://google.serper.dev/news"`
	SerperCountry  string        `env:"SERPER_COUNTRY" envDefault:"ng"`
	SerperMaxPages int           `env:"SERPER_MAX_PAGES" envDefault:"3"`
	SerperPageSize int           `env:"SERPER_PAGE_SIZE" envDefault:"10"`
	SerperRPM      int           `env:"SERPER_RPM" envDefault:"300"`
	SerperTimeout  time.Duration `env:"SERPER_TIMEOUT" envDefault:"20s"`

	NewsAPIKey      string        `env:"NEWSAPI_KEY"`
	NewsAPIRPM      int           `env:"NEWSAPI_RPM" envDefault:"30"`
	NewsAPIPageSize int           `env:"NEWSAPI_PAGE_SIZE" envDefault:"20"`
	NewsAPIMaxPages int           `env:"NEWSAPI_MAX_PAGES" envDefault:"2"`
	NewsAPITimeout  time.Duration `env:"NEWSAPI_TIMEOUT" envDefault:"20s"`

	GoogleNewsEnabled  bool          `env:"GOOGLE_NEWS_ENABLED" envDefault:"false"`
	GoogleNewsLanguage string        `env:"GOOGLE_NEWS_LANGUAGE" envDefault:"en"`
	GoogleNewsCountry  string        `env:"GOOGLE_NEWS_COUNTRY" envDefault:"NG"`
	GoogleNewsRPM      int           `env:"GOOGLE_NEWS_RPM" envDefault:"60"`
	GoogleNewsTimeout  time.Duration `env:"GOOGLE_NEWS_TIMEOUT" envDefault:"20s"`

	SearchCircuitThreshold  int           `env:"SEARCH_CIRCUIT_THRESHOLD" envDefault:"3"`
	SearchCircuitResetAfter time.Duration `env:"SEARCH_CIRCUIT_RESET_AFTER" envDefault:"10m"`

	// Condition verifier
	GoogleAPIKey         string        `env:"GOOGLE_API_KEY"`
	VerifierModels       []string      `env:"VERIFIER_MODELS" envSeparator:"," envDefault:"gemini-2.0-flash-lite,gemini-2.5-flash-lite,gemini-2.0-flash"`
	AnthropicAPIKey      string        `env:"ANTHROPIC_API_KEY"`
	AnthropicModel       string        `env:"ANTHROPIC_MODEL" envDefault:"claude-haiku-4-5"`
	LLMAPIKey            string        `env:"LLM_API_KEY"`
	LLMModel             string        `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`
	RateLimitRPS         int           `env:"RATE_LIMIT_RPS" envDefault:"2"`
	VerifyTimeout        time.Duration `env:"VERIFY_TIMEOUT" envDefault:"30s"`
	VerifyConcurrency    int           `env:"VERIFY_CONCURRENCY" envDefault:"2"`
	LLMCircuitThreshold  int           `env:"LLM_CIRCUIT_THRESHOLD" envDefault:"3"`
	LLMCircuitResetAfter time.Duration `env:"LLM_CIRCUIT_RESET_AFTER" envDefault:"5m"`
	LLMDailyTokenBudget  int64         `env:"LLM_DAILY_TOKEN_BUDGET" envDefault:"0"`

	// Push delivery
	ExpoPushURL     string        `env:"EXPO_PUSH_URL" envDefault:"https://exp.host/--/api/v2/push/send"`
	ExpoAccessToken string        `env:"EXPO_ACCESS_TOKEN"`
	PushTimeout     time.Duration `env:"PUSH_TIMEOUT" envDefault:"15s"`
	PushConcurrency int           `env:"PUSH_CONCURRENCY" envDefault:"4"`

	// Operator run reports
	OpsBotToken string `env:"OPS_BOT_TOKEN"`
	OpsChatID   int64  `env:"OPS_CHAT_ID"`
}

func Load() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env file is optional, error is expected when not present

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment config: %w", err)
	}

	applyAliases(cfg)

	return cfg, nil
}

// applyAliases honours the variable names used by the original deployment.
func applyAliases(cfg *Config) {
	if !hasEnv("GOOGLE_API_KEY") {
		setStringFromEnv("GOOGLE_GEMINI_API_KEY", &cfg.GoogleAPIKey)
	}

	if !hasEnv("OPENAI_API_KEY") {
		return
	}

	if !hasEnv("LLM_API_KEY") {
		setStringFromEnv("OPENAI_API_KEY", &cfg.LLMAPIKey)
	}
}

// SearchProviderList returns the ordered, normalized list of headline sources.
func (c *Config) SearchProviderList() []string {
	return splitList(c.SearchProviders)
}

// Validate checks that at least one headline source and one verifier backend
// have credentials. It runs at the top of every firehose run.
func (c *Config) Validate() error {
	if !c.hasSearchCredentials() {
		return fmt.Errorf("%w: set SERPER_API_KEY, NEWSAPI_KEY or GOOGLE_NEWS_ENABLED", errs.ErrMissingCredentials)
	}

	if c.GoogleAPIKey == "" && c.AnthropicAPIKey == "" && c.LLMAPIKey == "" {
		return fmt.Errorf("%w: set GOOGLE_API_KEY, ANTHROPIC_API_KEY or LLM_API_KEY", errs.ErrMissingCredentials)
	}

	return nil
}

func (c *Config) hasSearchCredentials() bool {
	for _, name := range c.SearchProviderList() {
		switch name {
		case "serper":
			if c.SerperAPIKey != "" {
				return true
			}
		case "newsapi":
			if c.NewsAPIKey != "" {
				return true
			}
		case "googlenews":
			if c.GoogleNewsEnabled {
				return true
			}
		}
	}

	return false
}

func splitList(raw string) []string {
	parts := strings.Split(raw, listSeparator)
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}

	return out
}

func hasEnv(key string) bool {
	_, ok := os.LookupEnv(key)
	return ok
}

func setStringFromEnv(key string, target *string) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}

	val = strings.TrimSpace(val)
	if val == "" {
		return
	}

	*target = val
}
