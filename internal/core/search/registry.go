package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/snoopa/firehose/internal/core/domain"
	errs "github.com/snoopa/firehose/internal/core/errors"
	"github.com/snoopa/firehose/internal/platform/breaker"
	"github.com/snoopa/firehose/internal/platform/observability"
)

// Registry tries sources in registration order until one answers a topic.
type Registry struct {
	mu         sync.RWMutex
	sources    map[ProviderName]Source
	order      []ProviderName
	breakers   map[ProviderName]*breaker.CircuitBreaker
	breakerCfg breaker.Config
	freshness  time.Duration
	logger     *zerolog.Logger
}

func NewRegistry(cfg breaker.Config, freshness time.Duration, logger *zerolog.Logger) *Registry {
	if freshness <= 0 {
		freshness = defaultFreshness
	}

	return &Registry{
		sources:    make(map[ProviderName]Source),
		breakers:   make(map[ProviderName]*breaker.CircuitBreaker),
		breakerCfg: cfg,
		freshness:  freshness,
		logger:     logger,
	}
}

func (r *Registry) Register(s Source) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := s.Name()
	if _, exists := r.sources[name]; !exists {
		r.order = append(r.order, name)
	}

	r.sources[name] = s
	r.breakers[name] = breaker.New(string(name), r.breakerCfg, r.logger)

	r.logger.Info().
		Str(logKeyProvider, string(name)).
		Bool("available", s.IsAvailable()).
		Int("max_pages", s.MaxPages()).
		Msg("registered search source")
}

// AvailableProviders lists configured sources whose breaker is closed, in order.
func (r *Registry) AvailableProviders() []ProviderName {
	r.mu.RLock()
	defer r.mu.RUnlock()

	available := []ProviderName{}

	for _, name := range r.order {
		if r.sources[name].IsAvailable() && r.breakers[name].CanAttempt() {
			available = append(available, name)
		}
	}

	return available
}

// SearchWithFallback returns every page of headlines the first working source
// has for the topic, and the name of that source.
func (r *Registry) SearchWithFallback(ctx context.Context, topic string) ([]domain.Headline, ProviderName, error) {
	r.mu.RLock()
	order := make([]ProviderName, len(r.order))
	copy(order, r.order)
	r.mu.RUnlock()

	var lastErr error

	for _, name := range order {
		if ctx.Err() != nil {
			return nil, "", fmt.Errorf("search %q: %w", topic, ctx.Err())
		}

		r.mu.RLock()
		src := r.sources[name]
		cb := r.breakers[name]
		r.mu.RUnlock()

		if !src.IsAvailable() {
			continue
		}

		if !cb.CanAttempt() {
			r.logger.Debug().Str(logKeyProvider, string(name)).Msg("skipping source - circuit breaker open")
			continue
		}

		headlines, err := r.fetchPages(ctx, src, topic)
		if err != nil {
			if cb.RecordFailure() {
				observability.SearchCircuitBreakerOpens.WithLabelValues(string(name)).Inc()
			}

			r.logger.Warn().
				Err(err).
				Str(logKeyProvider, string(name)).
				Str(logKeyTopic, topic).
				Msg("search source failed, trying fallback")

			lastErr = err

			continue
		}

		cb.RecordSuccess()
		observability.SearchHeadlines.WithLabelValues(string(name)).Add(float64(len(headlines)))

		return headlines, name, nil
	}

	if lastErr != nil {
		return nil, "", errors.Join(errs.ErrAllProvidersFailed, lastErr)
	}

	return nil, "", fmt.Errorf("%w: %w", errs.ErrNoProvidersAvailable, errNoSources)
}

// fetchPages walks pages until a short page or MaxPages. A failed first page
// is an error; a later failure ends pagination keeping what was collected.
func (r *Registry) fetchPages(ctx context.Context, src Source, topic string) ([]domain.Headline, error) {
	var out []domain.Headline

	maxPages := max(src.MaxPages(), 1)

	for page := 1; page <= maxPages; page++ {
		start := time.Now()

		result, err := src.Search(ctx, Query{Topic: topic, Freshness: r.freshness, Page: page})

		observability.SearchRequestDuration.WithLabelValues(string(src.Name())).Observe(time.Since(start).Seconds())

		if err != nil {
			observability.SearchRequests.WithLabelValues(string(src.Name()), statusError).Inc()

			if page == 1 {
				return nil, err
			}

			r.logger.Warn().
				Err(err).
				Str(logKeyProvider, string(src.Name())).
				Str(logKeyTopic, topic).
				Int(logKeyPage, page).
				Msg("search page failed, keeping earlier pages")

			break
		}

		observability.SearchRequests.WithLabelValues(string(src.Name()), statusSuccess).Inc()

		out = append(out, result.Headlines...)

		if src.PageSize() <= 0 || result.Raw < src.PageSize() {
			break
		}
	}

	return out, nil
}
