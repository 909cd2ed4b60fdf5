// Package firehose runs one pass of the verification pipeline: active watch
// items become topic queries, fetched headlines are deduplicated and keyword
// filtered, surviving pairs are verified, and confirmed hits are logged and
// notified.
package firehose

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/snoopa/firehose/internal/core/domain"
	"github.com/snoopa/firehose/internal/core/ports"
	"github.com/snoopa/firehose/internal/core/search"
	"github.com/snoopa/firehose/internal/output/notify"
	"github.com/snoopa/firehose/internal/platform/observability"
	"github.com/snoopa/firehose/internal/platform/worker"
	"github.com/snoopa/firehose/internal/process/dedup"
	"github.com/snoopa/firehose/internal/process/filters"
	"github.com/snoopa/firehose/internal/process/topics"
	"github.com/snoopa/firehose/internal/process/verify"
	"github.com/snoopa/firehose/internal/process/writebatch"
)

// HeadlineCollector fetches headlines for a set of topics.
type HeadlineCollector interface {
	Collect(ctx context.Context, topics []string) ([]domain.Headline, []search.TopicFailure)
}

// ConditionVerifier decides whether a claim satisfies its condition.
type ConditionVerifier interface {
	Verify(ctx context.Context, c verify.Claim) (bool, error)
}

// HitDispatcher turns hits into notifications.
type HitDispatcher interface {
	Dispatch(ctx context.Context, hits []domain.Hit, now time.Time) (notify.Result, error)
}

// Deps are the collaborators of a pipeline. Locker and Reporter are optional.
type Deps struct {
	Validate   func() error
	Store      ports.FirehoseStore
	Locker     ports.RunLocker
	Collector  HeadlineCollector
	Verifier   ConditionVerifier
	Dispatcher HitDispatcher
	Reporter   ports.RunReporter
}

// Options tune a pipeline.
type Options struct {
	VerifyConcurrency int
	// CommitTimeout bounds the flush, notification and audit writes, which run
	// on a context detached from run cancellation.
	CommitTimeout time.Duration
}

type Pipeline struct {
	deps   Deps
	opts   Options
	now    func() time.Time
	logger *zerolog.Logger
}

func New(deps Deps, opts Options, logger *zerolog.Logger) *Pipeline {
	if opts.VerifyConcurrency <= 0 {
		opts.VerifyConcurrency = defaultVerifyConcurrency
	}

	if opts.CommitTimeout <= 0 {
		opts.CommitTimeout = defaultCommitTimeout
	}

	return &Pipeline{
		deps:   deps,
		opts:   opts,
		now:    time.Now,
		logger: logger,
	}
}

type candidate struct {
	item     domain.WatchItem
	headline domain.Headline
}

type outcome struct {
	index    int
	verified bool
	err      error
}

// Run executes one firehose pass. Missing credentials fail before any I/O. An
// empty active set, or one without topics, completes with no writes.
func (p *Pipeline) Run(ctx context.Context) (domain.RunStats, error) {
	var stats domain.RunStats

	if p.deps.Validate != nil {
		if err := p.deps.Validate(); err != nil {
			return stats, fmt.Errorf("validate configuration: %w", err)
		}
	}

	if p.deps.Locker != nil {
		release, acquired, err := p.deps.Locker.TryRunLock(ctx)
		if err != nil {
			return stats, fmt.Errorf("acquire run lock: %w", err)
		}

		if !acquired {
			stats.Skipped = true

			observability.FirehoseRuns.WithLabelValues(domain.RunStatusSkipped).Inc()
			p.logger.Info().Msg("Firehose run skipped, another instance holds the lock")

			return stats, nil
		}

		defer release()
	}

	stats.RunID = uuid.NewString()
	stats.StartedAt = p.now().UTC()

	logger := p.logger.With().Str(logKeyRunID, stats.RunID).Logger()

	hits, empty, runErr := p.run(ctx, &stats, &logger)

	// Hits are only returned once the batch is flushed, so they are notified
	// even when the run was interrupted afterwards.
	if len(hits) > 0 {
		if err := p.dispatch(ctx, hits, &stats); err != nil && runErr == nil {
			runErr = err
		}
	}

	stats.FinishedAt = p.now().UTC()

	if empty && runErr == nil {
		observability.FirehoseRuns.WithLabelValues(domain.RunStatusSucceeded).Inc()
		logger.Info().Int(logKeyItems, stats.ActiveItems).Msg("Firehose: nothing to watch, skipping run")

		return stats, nil
	}

	p.finish(ctx, stats, runErr, &logger)

	return stats, runErr
}

// run evaluates the active items and flushes the write batch. It returns the
// verified hits and whether the run was empty.
func (p *Pipeline) run(ctx context.Context, stats *domain.RunStats, logger *zerolog.Logger) ([]domain.Hit, bool, error) {
	items, err := p.deps.Store.ListActiveWatchItems(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("list active watch items: %w", err)
	}

	stats.ActiveItems = len(items)
	observability.FirehoseActiveItems.Set(float64(len(items)))

	topicList := topics.Extract(items)
	stats.Topics = len(topicList)
	observability.FirehoseTopics.Set(float64(len(topicList)))

	if len(topicList) == 0 {
		return nil, true, nil
	}

	itemIDs := make([]string, len(items))
	for i, item := range items {
		itemIDs[i] = item.ID
	}

	index, err := dedup.LoadProcessedIndex(ctx, p.deps.Store, itemIDs)
	if err != nil {
		return nil, false, err
	}

	raw, failures := p.deps.Collector.Collect(ctx, topicList)
	for _, f := range failures {
		logger.Warn().Err(f.Err).Str(logKeyTopic, f.Topic).Msg("Firehose: topic returned no headlines")
	}

	unique := dedup.NewRunSet().Unique(raw)
	stats.Headlines = len(raw)
	stats.UniqueHeadline = len(unique)
	observability.DedupDropped.WithLabelValues(dedupScopeInRun).Add(float64(len(raw) - len(unique)))

	logger.Info().
		Int(logKeyTopics, len(topicList)).
		Int(logKeyHeadlines, len(raw)).
		Int(logKeyUnique, len(unique)).
		Msg("Firehose: fetched headlines")

	candidates := p.selectCandidates(items, unique, index)
	stats.KeywordMatches = len(candidates)
	observability.KeywordMatches.Add(float64(len(candidates)))

	outcomes := p.verifyAll(ctx, candidates)

	batch := writebatch.New()
	hits := p.stage(ctx, batch, candidates, outcomes, index, stats, logger)

	for _, item := range items {
		batch.Touch(item.ID)
	}

	commitCtx, cancel := p.commitContext(ctx)
	defer cancel()

	flushed, err := batch.Flush(commitCtx, p.deps.Store, p.now().UTC())
	if err != nil {
		return nil, false, err
	}

	claimed := len(hits)
	hits = insertedHits(hits, flushed)

	if lost := claimed - len(hits); lost > 0 {
		logger.Info().Int(logKeyLost, lost).Msg("Firehose: hits already recorded by an overlapping run")
	}

	logger.Info().
		Int(logKeyCandidates, len(candidates)).
		Int(logKeyVerified, len(hits)).
		Msg("Firehose: evaluation complete")

	if err := ctx.Err(); err != nil {
		return hits, false, fmt.Errorf("firehose run interrupted: %w", err)
	}

	return hits, false, nil
}

// selectCandidates pairs every unique headline with every item whose keywords
// it matches, skipping pairs already evaluated in an earlier run.
func (p *Pipeline) selectCandidates(items []domain.WatchItem, headlines []domain.Headline, index *dedup.ProcessedIndex) []candidate {
	var out []candidate

	crossRunDropped := 0

	for _, item := range items {
		matcher := filters.NewKeywordMatcher(item.Keywords)
		if matcher.Empty() {
			continue
		}

		for _, h := range headlines {
			if index.Seen(h.Fingerprint, item.ID) {
				crossRunDropped++
				continue
			}

			if !matcher.MatchesHeadline(h) {
				continue
			}

			out = append(out, candidate{item: item, headline: h})
		}
	}

	observability.DedupDropped.WithLabelValues(dedupScopeCrossRun).Add(float64(crossRunDropped))

	return out
}

// verifyAll runs the verifier over candidates with bounded concurrency.
// Outcomes are gathered by the calling goroutine only. Candidates that never
// ran because ctx was canceled have a nil entry.
func (p *Pipeline) verifyAll(ctx context.Context, candidates []candidate) []*outcome {
	outcomes := make([]*outcome, len(candidates))
	if len(candidates) == 0 {
		return outcomes
	}

	results := make(chan outcome)

	go func() {
		defer close(results)

		_ = worker.ForEach(ctx, len(candidates), p.opts.VerifyConcurrency, func(ctx context.Context, i int) { //nolint:errcheck // canceled candidates stay unprocessed
			c := candidates[i]

			ok, err := p.deps.Verifier.Verify(ctx, verify.Claim{
				Title:     c.headline.Title,
				Snippet:   c.headline.Snippet,
				Condition: c.item.Condition,
			})

			results <- outcome{index: i, verified: ok, err: err}
		})
	}()

	for res := range results {
		outcomes[res.index] = &res
	}

	return outcomes
}

// stage records resolved outcomes in the batch in candidate order.
func (p *Pipeline) stage(ctx context.Context, batch *writebatch.Batch, candidates []candidate, outcomes []*outcome, index *dedup.ProcessedIndex, stats *domain.RunStats, logger *zerolog.Logger) []domain.Hit {
	var hits []domain.Hit

	now := p.now().UTC()

	for i, res := range outcomes {
		if res == nil {
			continue
		}

		c := candidates[i]

		if res.err != nil {
			if ctx.Err() != nil && errors.Is(res.err, context.Canceled) {
				continue
			}

			stats.VerifyErrors++

			logger.Warn().Err(res.err).
				Str(logKeyWatchItemID, c.item.ID).
				Str(logKeyHeadline, c.headline.Title).
				Msg("Firehose: verification failed, treating as not satisfied")
		}

		batch.MarkProcessed(c.headline.Fingerprint, c.item.ID, now)
		index.Add(c.headline.Fingerprint, c.item.ID)

		if !res.verified || res.err != nil {
			if res.err == nil {
				stats.Rejected++
			}

			continue
		}

		stats.Verified++

		batch.AddLog(domain.LogEntry{
			WatchItemID: c.item.ID,
			Fingerprint: c.headline.Fingerprint,
			CreatedAt:   now,
			Action:      LogAction(c.headline),
			Verified:    true,
		})

		hits = append(hits, domain.Hit{Item: c.item, Headline: c.headline})
	}

	return hits
}

// insertedHits keeps the hits whose processed pair this run inserted, so a
// pair evaluated by two overlapping runs is notified once.
func insertedHits(hits []domain.Hit, flushed domain.FlushResult) []domain.Hit {
	inserted := flushed.InsertedKeys()
	out := hits[:0]

	for _, h := range hits {
		if _, ok := inserted[domain.PairKey(h.Headline.Fingerprint, h.Item.ID)]; ok {
			out = append(out, h)
		}
	}

	return out
}

func (p *Pipeline) dispatch(ctx context.Context, hits []domain.Hit, stats *domain.RunStats) error {
	commitCtx, cancel := p.commitContext(ctx)
	defer cancel()

	res, err := p.deps.Dispatcher.Dispatch(commitCtx, hits, p.now().UTC())
	stats.Notifications = res.Created
	stats.PushFailures = res.PushFailures

	if err != nil {
		return fmt.Errorf("dispatch notifications: %w", err)
	}

	return nil
}

func (p *Pipeline) finish(ctx context.Context, stats domain.RunStats, runErr error, logger *zerolog.Logger) {
	status := domain.RunStatusSucceeded
	if runErr != nil {
		status = domain.RunStatusFailed
	}

	duration := stats.FinishedAt.Sub(stats.StartedAt)

	observability.FirehoseRuns.WithLabelValues(status).Inc()
	observability.FirehoseRunDuration.Observe(duration.Seconds())

	commitCtx, cancel := p.commitContext(ctx)
	defer cancel()

	if err := p.deps.Store.RecordRun(commitCtx, stats, status, runErr); err != nil {
		logger.Warn().Err(err).Msg("Firehose: failed to record run")
	}

	if p.deps.Reporter != nil {
		if err := p.deps.Reporter.ReportRun(commitCtx, stats, runErr); err != nil {
			logger.Warn().Err(err).Msg("Firehose: failed to send run report")
		}
	}

	event := logger.Info()
	if runErr != nil {
		event = logger.Error().Err(runErr)
	}

	event.
		Int(logKeyItems, stats.ActiveItems).
		Int(logKeyVerified, stats.Verified).
		Dur(logKeyDuration, duration).
		Msg("Firehose: run complete")
}

// commitContext detaches from run cancellation so accumulated work is still
// persisted on shutdown.
func (p *Pipeline) commitContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), p.opts.CommitTimeout)
}

// LogAction renders the scent log line for a headline.
func LogAction(h domain.Headline) string {
	if h.Source == "" {
		return h.Title
	}

	return h.Title + logActionSourceSep + h.Source
}
