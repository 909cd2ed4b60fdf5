package llm

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	errs "github.com/snoopa/firehose/internal/core/errors"
	"github.com/snoopa/firehose/internal/platform/breaker"
	"github.com/snoopa/firehose/internal/platform/observability"
)

// Registry runs completions over an ordered chain of (provider, model)
// backends, falling through to the next backend on error.
type Registry struct {
	mu             sync.RWMutex
	providers      map[ProviderName]Provider
	chain          []Backend
	breakers       map[Backend]*breaker.CircuitBreaker
	breakerCfg     breaker.Config
	attemptTimeout time.Duration
	budget         *BudgetTracker
	logger         *zerolog.Logger
}

// NewRegistry creates an empty registry whose backends share cfg for their breakers.
func NewRegistry(cfg breaker.Config, logger *zerolog.Logger) *Registry {
	bt := NewBudgetTracker(0, logger) // 0 means no limit
	SetGlobalBudgetTracker(bt)

	return &Registry{
		providers:  make(map[ProviderName]Provider),
		breakers:   make(map[Backend]*breaker.CircuitBreaker),
		breakerCfg: cfg,
		budget:     bt,
		logger:     logger,
	}
}

// Register adds a provider with the models to try on it, in order.
// Backends are kept sorted by provider priority; models keep their given order.
func (r *Registry) Register(p Provider, models ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := p.Name()
	r.providers[name] = p

	available := MetricValueUnavailable
	if p.IsAvailable() {
		available = MetricValueAvailable
	}

	for _, model := range models {
		if model == "" {
			continue
		}

		b := Backend{Provider: name, Model: model}
		if _, exists := r.breakers[b]; exists {
			continue
		}

		r.chain = append(r.chain, b)
		r.breakers[b] = breaker.New(b.String(), r.breakerCfg, r.logger)

		observability.LLMProviderAvailable.WithLabelValues(string(name), model).Set(available)
	}

	r.sortChainByPriority()

	r.logger.Info().
		Str(logKeyProvider, string(name)).
		Strs("models", models).
		Int("priority", p.Priority()).
		Bool("available", p.IsAvailable()).
		Msg("registered LLM provider")
}

// SetAttemptTimeout bounds each backend attempt. A backend that hangs past it
// counts as failed and the next backend is tried. Zero means no bound.
func (r *Registry) SetAttemptTimeout(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.attemptTimeout = d
}

// Chain returns a copy of the backend chain in the order it is tried.
func (r *Registry) Chain() []Backend {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Backend, len(r.chain))
	copy(out, r.chain)

	return out
}

// CompleteText implements Client with ordered fallback across backends.
func (r *Registry) CompleteText(ctx context.Context, prompt string) (string, error) {
	return executeWithFallback(ctx, r, func(ctx context.Context, p Provider, model string) (string, error) {
		return p.CompleteText(ctx, prompt, model)
	})
}

// executeWithFallback is a generic helper for ordered backend fallback.
// The caller's ctx bounds the whole chain.
func executeWithFallback[T any](ctx context.Context, r *Registry, fn func(context.Context, Provider, string) (T, error)) (T, error) {
	var zero T

	chain := r.Chain()
	if len(chain) == 0 {
		return zero, errs.ErrNoProvidersAvailable
	}

	var (
		lastErr   error
		failedOn  *Backend
		attempted bool
	)

	for i := range chain {
		if ctx.Err() != nil {
			break
		}

		b := chain[i]

		result, ok, err := tryBackendExec(ctx, r, b, fn)
		if err != nil {
			lastErr = err
			attempted = true

			if failedOn == nil {
				failedOn = &chain[i]
			}

			continue
		}

		if !ok {
			continue
		}

		if failedOn != nil {
			observability.LLMFallbacks.WithLabelValues(string(failedOn.Provider), failedOn.Model).Inc()

			r.logger.Info().
				Str(logKeyProvider, string(b.Provider)).
				Str(logKeyModel, b.Model).
				Str("from_backend", failedOn.String()).
				Msg("used fallback LLM backend")
		}

		return result, nil
	}

	if ctx.Err() != nil && lastErr == nil {
		lastErr = ctx.Err()
	}

	if attempted || lastErr != nil {
		return zero, errors.Join(errs.ErrAllProvidersFailed, lastErr)
	}

	return zero, errs.ErrNoProvidersAvailable
}

// tryBackendExec runs fn on one backend under the attempt timeout. It reports
// ok=false without an error when the backend was skipped. Failures caused by
// the caller's ctx ending are not held against the backend.
func tryBackendExec[T any](ctx context.Context, r *Registry, b Backend, fn func(context.Context, Provider, string) (T, error)) (T, bool, error) {
	var zero T

	r.mu.RLock()
	p, exists := r.providers[b.Provider]
	cb := r.breakers[b]
	timeout := r.attemptTimeout
	r.mu.RUnlock()

	if !exists || !p.IsAvailable() {
		return zero, false, nil
	}

	if !cb.CanAttempt() {
		observability.LLMProviderAvailable.WithLabelValues(string(b.Provider), b.Model).Set(MetricValueUnavailable)

		r.logger.Debug().
			Str(logKeyProvider, string(b.Provider)).
			Str(logKeyModel, b.Model).
			Msg(logMsgCircuitBreakerOpen)

		return zero, false, nil
	}

	attemptCtx := ctx

	if timeout > 0 {
		var cancel context.CancelFunc

		attemptCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()

	result, err := fn(attemptCtx, p, b.Model)

	duration := time.Since(start)

	observability.LLMRequestLatency.WithLabelValues(string(b.Provider), b.Model).Observe(duration.Seconds())

	if err != nil {
		if ctx.Err() != nil {
			return zero, false, err
		}

		if cb.RecordFailure() {
			observability.LLMCircuitBreakerOpens.WithLabelValues(string(b.Provider), b.Model).Inc()
			observability.LLMProviderAvailable.WithLabelValues(string(b.Provider), b.Model).Set(MetricValueUnavailable)
		}

		r.logger.Warn().
			Err(err).
			Str(logKeyProvider, string(b.Provider)).
			Str(logKeyModel, b.Model).
			Float64("duration_seconds", duration.Seconds()).
			Msg("LLM backend failed, trying fallback")

		return zero, false, err
	}

	cb.RecordSuccess()
	observability.LLMProviderAvailable.WithLabelValues(string(b.Provider), b.Model).Set(MetricValueAvailable)

	return result, true, nil
}

// sortChainByPriority sorts backends by provider priority in descending order.
func (r *Registry) sortChainByPriority() {
	sort.SliceStable(r.chain, func(i, j int) bool {
		return r.providers[r.chain[i].Provider].Priority() > r.providers[r.chain[j].Provider].Priority()
	})
}

// BackendStatus holds status information for a backend.
type BackendStatus struct {
	Backend          Backend
	Priority         int
	Available        bool
	CircuitBreakerOK bool
}

// GetBackendStatuses returns status information for every backend in chain order.
func (r *Registry) GetBackendStatuses() []BackendStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	statuses := make([]BackendStatus, 0, len(r.chain))

	for _, b := range r.chain {
		p := r.providers[b.Provider]

		statuses = append(statuses, BackendStatus{
			Backend:          b,
			Priority:         p.Priority(),
			Available:        p.IsAvailable(),
			CircuitBreakerOK: r.breakers[b].CanAttempt(),
		})
	}

	return statuses
}

// SetBudgetLimit sets the daily token budget limit.
func (r *Registry) SetBudgetLimit(limit int64) {
	r.budget.mu.Lock()
	defer r.budget.mu.Unlock()

	r.budget.dailyLimit = limit
}

// SetBudgetAlertCallback sets the callback for budget alerts.
func (r *Registry) SetBudgetAlertCallback(callback func(alert BudgetAlert)) {
	r.budget.SetAlertCallback(callback)
}

// GetBudgetStatus returns the current budget status.
func (r *Registry) GetBudgetStatus() (dailyTokens, dailyLimit int64, percentage float64) {
	return r.budget.GetStatus()
}

// globalBudgetTracker holds a reference to the active budget tracker for token recording.
//
//nolint:gochecknoglobals
var globalBudgetTracker *BudgetTracker

// SetGlobalBudgetTracker sets the global budget tracker reference.
func SetGlobalBudgetTracker(bt *BudgetTracker) {
	globalBudgetTracker = bt
}

// RecordTokenUsage records request and token metrics for an LLM call.
func RecordTokenUsage(provider, model string, promptTokens, completionTokens int, success bool) {
	status := StatusSuccess
	if !success {
		status = StatusError
	}

	observability.LLMRequests.WithLabelValues(provider, model, status).Inc()

	if promptTokens > 0 {
		observability.LLMTokensPrompt.WithLabelValues(provider, model).Add(float64(promptTokens))
	}

	if completionTokens > 0 {
		observability.LLMTokensCompletion.WithLabelValues(provider, model).Add(float64(completionTokens))
	}

	if globalBudgetTracker != nil && success {
		globalBudgetTracker.RecordTokens(promptTokens + completionTokens)
	}
}

// Ensure Registry implements Client interface.
var _ Client = (*Registry)(nil)
