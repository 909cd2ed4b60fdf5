package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/snoopa/firehose/internal/core/errors"
)

// Test environment variable keys.
const (
	testEnvPostgresDSN = "POSTGRES_DSN"
	testEnvSerperKey   = "SERPER_API_KEY"
	testEnvGeminiKey   = "GOOGLE_GEMINI_API_KEY"
	testEnvGoogleKey   = "GOOGLE_API_KEY"
)

// Test values.
const (
	testPostgresDSN = "postgres://localhost/test"
	testErrLoad     = "Load() error = %v"
)

func setRequiredEnvVars(t *testing.T) {
	t.Helper()

	t.Setenv(testEnvPostgresDSN, testPostgresDSN)
}

func TestLoad_MissingRequired(t *testing.T) {
	os.Unsetenv(testEnvPostgresDSN)

	_, err := Load()
	if err == nil {
		t.Error("expected error for missing required env vars")
	}
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnvVars(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf(testErrLoad, err)
	}

	assert.Equal(t, testPostgresDSN, cfg.PostgresDSN)
	assert.Equal(t, time.Hour, cfg.FirehoseInterval)
	assert.Equal(t, 3, cfg.SerperMaxPages)
	assert.Equal(t, 10, cfg.SerperPageSize)
	assert.Equal(t, 24*time.Hour, cfg.SearchFreshness)
	assert.Equal(t, []string{"gemini-2.0-flash-lite", "gemini-2.5-flash-lite", "gemini-2.0-flash"}, cfg.VerifierModels)
	assert.Equal(t, []string{"serper", "newsapi", "googlenews"}, cfg.SearchProviderList())
}

func TestLoad_GeminiAlias(t *testing.T) {
	setRequiredEnvVars(t)
	os.Unsetenv(testEnvGoogleKey)
	t.Setenv(testEnvGeminiKey, "gemini-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "gemini-secret", cfg.GoogleAPIKey)
}

func TestLoad_GoogleKeyWinsOverAlias(t *testing.T) {
	setRequiredEnvVars(t)
	t.Setenv(testEnvGoogleKey, "primary")
	t.Setenv(testEnvGeminiKey, "alias")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "primary", cfg.GoogleAPIKey)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name:    "no credentials",
			cfg:     Config{SearchProviders: "serper"},
			wantErr: true,
		},
		{
			name:    "search key without llm key",
			cfg:     Config{SearchProviders: "serper", SerperAPIKey: "s"},
			wantErr: true,
		},
		{
			name:    "llm key without search key",
			cfg:     Config{SearchProviders: "serper", GoogleAPIKey: "g"},
			wantErr: true,
		},
		{
			name:    "key for provider not in list",
			cfg:     Config{SearchProviders: "newsapi", SerperAPIKey: "s", GoogleAPIKey: "g"},
			wantErr: true,
		},
		{
			name: "serper and gemini",
			cfg:  Config{SearchProviders: "serper", SerperAPIKey: "s", GoogleAPIKey: "g"},
		},
		{
			name: "google news needs no key",
			cfg:  Config{SearchProviders: " GoogleNews ", GoogleNewsEnabled: true, AnthropicAPIKey: "a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, errs.ErrMissingCredentials)

				return
			}

			assert.NoError(t, err)
		})
	}
}
