package llm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/snoopa/firehose/internal/core/errors"
	"github.com/snoopa/firehose/internal/platform/breaker"
)

var errBackendDown = errors.New("backend down")

type fakeProvider struct {
	name      ProviderName
	priority  int
	available bool

	mu      sync.Mutex
	calls   []string
	replies map[string]string
	errs    map[string]error
	hang    map[string]bool
}

func newFakeProvider(name ProviderName, priority int) *fakeProvider {
	return &fakeProvider{
		name:      name,
		priority:  priority,
		available: true,
		replies:   make(map[string]string),
		errs:      make(map[string]error),
		hang:      make(map[string]bool),
	}
}

func (f *fakeProvider) Name() ProviderName { return f.name }
func (f *fakeProvider) IsAvailable() bool  { return f.available }
func (f *fakeProvider) Priority() int      { return f.priority }

func (f *fakeProvider) CompleteText(ctx context.Context, _ string, model string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, model)
	hang := f.hang[model]
	f.mu.Unlock()

	if hang {
		<-ctx.Done()
		return "", ctx.Err()
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.errs[model]; err != nil {
		return "", err
	}

	return f.replies[model], nil
}

func (f *fakeProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.calls)
}

func newTestRegistry() *Registry {
	logger := zerolog.Nop()

	return NewRegistry(breaker.Config{Threshold: 2, ResetAfter: 0}, &logger)
}

func TestRegistry_ChainOrder(t *testing.T) {
	r := newTestRegistry()

	openai := newFakeProvider(ProviderOpenAI, PrioritySecondFallback)
	google := newFakeProvider(ProviderGoogle, PriorityPrimary)
	anthropic := newFakeProvider(ProviderAnthropic, PriorityFallback)

	r.Register(openai, "gpt-4o-mini")
	r.Register(google, "gemini-2.0-flash-lite", "gemini-2.5-flash-lite", "gemini-2.0-flash")
	r.Register(anthropic, "claude-haiku-4-5")

	want := []Backend{
		{ProviderGoogle, "gemini-2.0-flash-lite"},
		{ProviderGoogle, "gemini-2.5-flash-lite"},
		{ProviderGoogle, "gemini-2.0-flash"},
		{ProviderAnthropic, "claude-haiku-4-5"},
		{ProviderOpenAI, "gpt-4o-mini"},
	}

	assert.Equal(t, want, r.Chain())
}

func TestRegistry_FirstBackendWins(t *testing.T) {
	r := newTestRegistry()
	google := newFakeProvider(ProviderGoogle, PriorityPrimary)
	google.replies["m1"] = "true"
	google.replies["m2"] = "false"
	r.Register(google, "m1", "m2")

	got, err := r.CompleteText(context.Background(), "prompt")
	require.NoError(t, err)

	assert.Equal(t, "true", got)
	assert.Equal(t, []string{"m1"}, google.calls)
}

func TestRegistry_FallsBackAcrossModelsAndProviders(t *testing.T) {
	r := newTestRegistry()

	google := newFakeProvider(ProviderGoogle, PriorityPrimary)
	google.errs["m1"] = errBackendDown
	google.errs["m2"] = errBackendDown
	r.Register(google, "m1", "m2")

	anthropic := newFakeProvider(ProviderAnthropic, PriorityFallback)
	anthropic.replies["claude"] = "false"
	r.Register(anthropic, "claude")

	got, err := r.CompleteText(context.Background(), "prompt")
	require.NoError(t, err)

	assert.Equal(t, "false", got)
	assert.Equal(t, []string{"m1", "m2"}, google.calls)
	assert.Equal(t, 1, anthropic.callCount())
}

func TestRegistry_AllFail(t *testing.T) {
	r := newTestRegistry()

	google := newFakeProvider(ProviderGoogle, PriorityPrimary)
	google.errs["m1"] = errBackendDown
	r.Register(google, "m1")

	_, err := r.CompleteText(context.Background(), "prompt")
	require.Error(t, err)

	assert.ErrorIs(t, err, errs.ErrAllProvidersFailed)
	assert.ErrorIs(t, err, errBackendDown)
}

func TestRegistry_NoBackends(t *testing.T) {
	r := newTestRegistry()

	_, err := r.CompleteText(context.Background(), "prompt")
	assert.ErrorIs(t, err, errs.ErrNoProvidersAvailable)

	unavailable := newFakeProvider(ProviderAnthropic, PriorityFallback)
	unavailable.available = false
	r.Register(unavailable, "claude")

	_, err = r.CompleteText(context.Background(), "prompt")
	assert.ErrorIs(t, err, errs.ErrNoProvidersAvailable)
	assert.Equal(t, 0, unavailable.callCount())
}

func TestRegistry_OpenBreakerSkipsBackend(t *testing.T) {
	r := newTestRegistry()

	google := newFakeProvider(ProviderGoogle, PriorityPrimary)
	google.errs["flaky"] = errBackendDown
	google.replies["stable"] = "true"
	r.Register(google, "flaky", "stable")

	// Threshold is 2: the second failure opens the breaker for "flaky".
	for range 2 {
		got, err := r.CompleteText(context.Background(), "prompt")
		require.NoError(t, err)
		assert.Equal(t, "true", got)
	}

	google.calls = nil

	got, err := r.CompleteText(context.Background(), "prompt")
	require.NoError(t, err)

	assert.Equal(t, "true", got)
	assert.Equal(t, []string{"stable"}, google.calls)

	statuses := r.GetBackendStatuses()
	require.Len(t, statuses, 2)
	assert.False(t, statuses[0].CircuitBreakerOK)
	assert.True(t, statuses[1].CircuitBreakerOK)
}

func TestRegistry_HungBackendFallsThrough(t *testing.T) {
	r := newTestRegistry()
	r.SetAttemptTimeout(20 * time.Millisecond)

	google := newFakeProvider(ProviderGoogle, PriorityPrimary)
	google.hang["m1"] = true
	r.Register(google, "m1")

	anthropic := newFakeProvider(ProviderAnthropic, PriorityFallback)
	anthropic.replies["claude"] = "true"
	r.Register(anthropic, "claude")

	got, err := r.CompleteText(context.Background(), "prompt")
	require.NoError(t, err)

	assert.Equal(t, "true", got)
	assert.Equal(t, 1, google.callCount())
	assert.Equal(t, 1, anthropic.callCount())
}

func TestRegistry_CallerCancelKeepsBreakerClosed(t *testing.T) {
	r := newTestRegistry()

	google := newFakeProvider(ProviderGoogle, PriorityPrimary)
	google.hang["m1"] = true
	r.Register(google, "m1")

	// Threshold is 2: two counted failures would open the breaker.
	for range 2 {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)

		_, err := r.CompleteText(ctx, "prompt")

		cancel()

		require.ErrorIs(t, err, context.DeadlineExceeded)
	}

	statuses := r.GetBackendStatuses()
	require.Len(t, statuses, 1)
	assert.True(t, statuses[0].CircuitBreakerOK)
}

func TestRegistry_DuplicateModelRegisteredOnce(t *testing.T) {
	r := newTestRegistry()
	google := newFakeProvider(ProviderGoogle, PriorityPrimary)

	r.Register(google, "m1", "m1", "")

	assert.Len(t, r.Chain(), 1)
}

func TestMockProvider(t *testing.T) {
	p := NewMockProvider()

	got, err := p.CompleteText(context.Background(), "Condition: Bitcoin above 100k\nHeadline: bitcoin hits $101k\nSnippet: x", "")
	require.NoError(t, err)
	assert.Equal(t, "true", got)

	got, err = p.CompleteText(context.Background(), "Condition: Bitcoin above 100k\nHeadline: Ethereum rallies\nSnippet: x", "")
	require.NoError(t, err)
	assert.Equal(t, "false", got)
}
