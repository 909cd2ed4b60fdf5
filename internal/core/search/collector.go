package search

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/snoopa/firehose/internal/core/domain"
	"github.com/snoopa/firehose/internal/platform/worker"
)

const defaultConcurrency = 4

// Searcher resolves a topic to headlines using some fallback policy.
type Searcher interface {
	SearchWithFallback(ctx context.Context, topic string) ([]domain.Headline, ProviderName, error)
}

// TopicFailure records a topic that no source could answer.
type TopicFailure struct {
	Topic string
	Err   error
}

// Collector fans topic searches out over a bounded number of workers.
type Collector struct {
	searcher    Searcher
	concurrency int
	logger      *zerolog.Logger
}

func NewCollector(searcher Searcher, concurrency int, logger *zerolog.Logger) *Collector {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	return &Collector{
		searcher:    searcher,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Collect searches each topic exactly once and returns the headlines
// flattened in topic order. Failed topics contribute nothing and are reported
// alongside the results; they never fail the whole collection.
func (c *Collector) Collect(ctx context.Context, topics []string) ([]domain.Headline, []TopicFailure) {
	perTopic := make([][]domain.Headline, len(topics))
	errsByTopic := make([]error, len(topics))

	if err := worker.ForEach(ctx, len(topics), c.concurrency, func(ctx context.Context, i int) {
		headlines, provider, err := c.searcher.SearchWithFallback(ctx, topics[i])
		if err != nil {
			errsByTopic[i] = err
			return
		}

		c.logger.Debug().
			Str(logKeyTopic, topics[i]).
			Str(logKeyProvider, string(provider)).
			Int("headlines", len(headlines)).
			Msg("topic searched")

		perTopic[i] = headlines
	}); err != nil {
		c.logger.Warn().Err(err).Msg("headline collection interrupted")
	}

	var (
		out      []domain.Headline
		failures []TopicFailure
	)

	for i, topic := range topics {
		if errsByTopic[i] != nil {
			c.logger.Warn().Err(errsByTopic[i]).Str(logKeyTopic, topic).Msg("no source answered topic")

			failures = append(failures, TopicFailure{Topic: topic, Err: errsByTopic[i]})

			continue
		}

		for _, h := range perTopic[i] {
			h.Topic = topic
			out = append(out, h)
		}
	}

	return out, failures
}
