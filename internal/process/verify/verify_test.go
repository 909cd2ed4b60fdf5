package verify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snoopa/firehose/internal/core/llm"
	"github.com/snoopa/firehose/internal/platform/breaker"
)

type stubClient struct {
	reply  string
	err    error
	block  bool
	prompt string
}

func (s *stubClient) CompleteText(ctx context.Context, prompt string) (string, error) {
	s.prompt = prompt

	if s.block {
		<-ctx.Done()
		return "", ctx.Err()
	}

	return s.reply, s.err
}

func newVerifier(c llm.Client) *Verifier {
	logger := zerolog.Nop()

	return New(c, &logger)
}

type chainProvider struct {
	name     llm.ProviderName
	priority int
	reply    string
	hang     bool

	mu    sync.Mutex
	calls int
}

func (p *chainProvider) Name() llm.ProviderName { return p.name }
func (p *chainProvider) IsAvailable() bool      { return true }
func (p *chainProvider) Priority() int          { return p.priority }

func (p *chainProvider) CompleteText(ctx context.Context, _, _ string) (string, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()

	if p.hang {
		<-ctx.Done()
		return "", ctx.Err()
	}

	return p.reply, nil
}

func (p *chainProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.calls
}

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		reply string
		want  bool
	}{
		{"true", true},
		{"TRUE", true},
		{"  True\n", true},
		{`"true"`, true},
		{"true.", true},
		{"`true`", true},
		{"false", false},
		{"", false},
		{"yes", false},
		{"true, because the price crossed", false},
		{"not true", false},
	}

	for _, tt := range tests {
		t.Run(tt.reply, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseVerdict(tt.reply))
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt(Claim{
		Title:     " Bitcoin tops $100k ",
		Snippet:   "BTC crossed the mark overnight",
		Condition: "Bitcoin price above 100k",
	})

	assert.Contains(t, p, "Condition: Bitcoin price above 100k\n")
	assert.Contains(t, p, "Headline: Bitcoin tops $100k\n")
	assert.Contains(t, p, "Snippet: BTC crossed the mark overnight\n")
	assert.Contains(t, p, `Reply with ONLY "true"`)
}

func TestVerifier_Verify(t *testing.T) {
	claim := Claim{Title: "t", Snippet: "s", Condition: "c"}

	t.Run("true", func(t *testing.T) {
		ok, err := newVerifier(&stubClient{reply: "true"}).Verify(context.Background(), claim)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("false", func(t *testing.T) {
		ok, err := newVerifier(&stubClient{reply: "false"}).Verify(context.Background(), claim)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("garbage is false", func(t *testing.T) {
		ok, err := newVerifier(&stubClient{reply: "maybe"}).Verify(context.Background(), claim)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("backend error is false", func(t *testing.T) {
		backendErr := errors.New("quota")

		ok, err := newVerifier(&stubClient{err: backendErr}).Verify(context.Background(), claim)
		require.ErrorIs(t, err, backendErr)
		assert.False(t, ok)
	})

	t.Run("deadline is false", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		ok, err := newVerifier(&stubClient{block: true}).Verify(ctx, claim)
		require.ErrorIs(t, err, context.DeadlineExceeded)
		assert.False(t, ok)
	})
}

func TestVerifier_HungPrimaryFallsBack(t *testing.T) {
	logger := zerolog.Nop()

	registry := llm.NewRegistry(breaker.Config{Threshold: 3}, &logger)
	registry.SetAttemptTimeout(50 * time.Millisecond)

	primary := &chainProvider{name: llm.ProviderGoogle, priority: llm.PriorityPrimary, hang: true}
	fallback := &chainProvider{name: llm.ProviderAnthropic, priority: llm.PriorityFallback, reply: "true"}

	registry.Register(primary, "gemini-2.0-flash-lite")
	registry.Register(fallback, "claude-haiku-4-5")

	ok, err := newVerifier(registry).Verify(context.Background(), Claim{Title: "t", Snippet: "s", Condition: "c"})
	require.NoError(t, err)

	assert.True(t, ok)
	assert.Equal(t, 1, primary.Calls())
	assert.Equal(t, 1, fallback.Calls())
}
