// Package app provides the main application bootstrap and runtime orchestration.
//
// The App type wires together all dependencies and exposes methods to run
// the firehose in its operational modes:
//
//   - Scheduler mode: runs the pipeline on a fixed interval until shutdown
//   - Once mode: runs a single pass and exits (manual trigger)
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/snoopa/firehose/internal/core/llm"
	"github.com/snoopa/firehose/internal/core/ports"
	"github.com/snoopa/firehose/internal/core/search"
	"github.com/snoopa/firehose/internal/output/notify"
	"github.com/snoopa/firehose/internal/platform/breaker"
	"github.com/snoopa/firehose/internal/platform/config"
	"github.com/snoopa/firehose/internal/platform/observability"
	"github.com/snoopa/firehose/internal/platform/worker"
	"github.com/snoopa/firehose/internal/process/firehose"
	"github.com/snoopa/firehose/internal/process/verify"
	db "github.com/snoopa/firehose/internal/storage"
)

const (
	llmAPIKeyMock       = "mock"
	schedulerName       = "firehose"
	logFieldComponent   = "component"
	logFieldProviders   = "providers"
	logFieldBackends    = "backends"
	logFieldInterval    = "interval"
	componentSearch     = "search"
	componentLLM        = "llm"
	componentNotify     = "notify"
	componentFirehose   = "firehose"
	msgFirehoseRunError = "firehose run failed"
)

// App holds the application dependencies and provides methods to run different modes.
type App struct {
	cfg      *config.Config
	database *db.DB
	logger   *zerolog.Logger
}

// New creates a new App instance with the given dependencies.
func New(cfg *config.Config, database *db.DB, logger *zerolog.Logger) *App {
	return &App{
		cfg:      cfg,
		database: database,
		logger:   logger,
	}
}

// StartHealthServer starts the health check and metrics server.
func (a *App) StartHealthServer(ctx context.Context) error {
	srv := observability.NewServer(a.database, a.cfg.HealthPort, a.logger)

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("health server start: %w", err)
	}

	return nil
}

// RunOnce runs a single firehose pass.
func (a *App) RunOnce(ctx context.Context) error {
	a.logger.Info().Msg("Starting single firehose run")

	p, err := a.newPipeline(ctx)
	if err != nil {
		return err
	}

	if _, err := p.Run(ctx); err != nil {
		return fmt.Errorf("firehose run: %w", err)
	}

	return nil
}

// RunScheduler runs the firehose on FIREHOSE_INTERVAL until ctx is canceled.
// Runs never overlap within the process.
func (a *App) RunScheduler(ctx context.Context) error {
	a.logger.Info().Dur(logFieldInterval, a.cfg.FirehoseInterval).Msg("Starting firehose scheduler")

	p, err := a.newPipeline(ctx)
	if err != nil {
		return err
	}

	err = worker.SingleTickerLoop(ctx, worker.SingleTickerConfig{
		Name:       schedulerName,
		Interval:   a.cfg.FirehoseInterval,
		RunOnStart: a.cfg.FirehoseRunOnStart,
		Logger:     a.logger,
		OnTick: func(ctx context.Context) {
			defer worker.RecoverPanic(a.logger, schedulerName)

			if _, err := p.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Error().Err(err).Msg(msgFirehoseRunError)
			}
		},
	})
	if err != nil {
		return fmt.Errorf("firehose scheduler: %w", err)
	}

	return nil
}

func (a *App) newPipeline(ctx context.Context) (*firehose.Pipeline, error) {
	llmRegistry := a.newLLMRegistry(ctx)
	reporter := a.newReporter()

	if reporter != nil {
		//nolint:contextcheck // budget alert callback fires async with no request context
		llmRegistry.SetBudgetAlertCallback(reporter.ReportBudgetAlert)
	}

	verifyLogger := a.logger.With().Str(logFieldComponent, componentLLM).Logger()
	verifier := verify.New(llmRegistry, &verifyLogger)

	notifyLogger := a.logger.With().Str(logFieldComponent, componentNotify).Logger()
	dispatcher := notify.NewDispatcher(
		a.database,
		notify.NewExpoSender(a.cfg.ExpoPushURL, a.cfg.ExpoAccessToken, a.cfg.PushTimeout),
		a.cfg.PushConcurrency,
		a.cfg.PushTimeout,
		&notifyLogger,
	)

	searchLogger := a.logger.With().Str(logFieldComponent, componentSearch).Logger()
	collector := search.NewCollector(a.newSearchRegistry(&searchLogger), a.cfg.SearchConcurrency, &searchLogger)

	deps := firehose.Deps{
		Validate:   a.cfg.Validate,
		Store:      a.database,
		Collector:  collector,
		Verifier:   verifier,
		Dispatcher: dispatcher,
	}

	if a.cfg.FirehoseRunLockEnabled {
		deps.Locker = a.database
	}

	if reporter != nil {
		deps.Reporter = reporter
	}

	pipelineLogger := a.logger.With().Str(logFieldComponent, componentFirehose).Logger()

	return firehose.New(deps, firehose.Options{
		VerifyConcurrency: a.cfg.VerifyConcurrency,
		CommitTimeout:     a.cfg.FirehoseFlushTimeout,
	}, &pipelineLogger), nil
}

// newSearchRegistry registers headline sources in SEARCH_PROVIDERS order.
func (a *App) newSearchRegistry(logger *zerolog.Logger) *search.Registry {
	registry := search.NewRegistry(breaker.Config{
		Threshold:  a.cfg.SearchCircuitThreshold,
		ResetAfter: a.cfg.SearchCircuitResetAfter,
	}, a.cfg.SearchFreshness, logger)

	for _, name := range a.cfg.SearchProviderList() {
		switch search.ProviderName(name) {
		case search.ProviderSerper:
			registry.Register(search.NewSerperProvider(search.SerperConfig{
				APIKey:         a.cfg.SerperAPIKey,
				BaseURL:        a.cfg.SerperBaseURL,
				Country:        a.cfg.SerperCountry,
				PageSize:       a.cfg.SerperPageSize,
				MaxPages:       a.cfg.SerperMaxPages,
				RequestsPerMin: a.cfg.SerperRPM,
				Timeout:        a.cfg.SerperTimeout,
			}))
		case search.ProviderNewsAPI:
			registry.Register(search.NewNewsAPIProvider(search.NewsAPIConfig{
				APIKey:         a.cfg.NewsAPIKey,
				RequestsPerMin: a.cfg.NewsAPIRPM,
				PageSize:       a.cfg.NewsAPIPageSize,
				MaxPages:       a.cfg.NewsAPIMaxPages,
				Timeout:        a.cfg.NewsAPITimeout,
			}))
		case search.ProviderGoogleNews:
			registry.Register(search.NewGoogleNewsProvider(search.GoogleNewsConfig{
				Enabled:        a.cfg.GoogleNewsEnabled,
				Language:       a.cfg.GoogleNewsLanguage,
				Country:        a.cfg.GoogleNewsCountry,
				RequestsPerMin: a.cfg.GoogleNewsRPM,
				Timeout:        a.cfg.GoogleNewsTimeout,
			}))
		default:
			logger.Warn().Str(logFieldProviders, name).Msg("Unknown search provider, ignoring")
		}
	}

	logger.Info().Interface(logFieldProviders, registry.AvailableProviders()).Msg("Headline sources configured")

	return registry
}

// newLLMRegistry builds the verifier backend chain. Unavailable providers are
// skipped by the registry.
func (a *App) newLLMRegistry(ctx context.Context) *llm.Registry {
	logger := a.logger.With().Str(logFieldComponent, componentLLM).Logger()

	registry := llm.NewRegistry(breaker.Config{
		Threshold:  a.cfg.LLMCircuitThreshold,
		ResetAfter: a.cfg.LLMCircuitResetAfter,
	}, &logger)

	registry.SetBudgetLimit(a.cfg.LLMDailyTokenBudget)
	registry.SetAttemptTimeout(a.cfg.VerifyTimeout)

	if a.cfg.LLMAPIKey == llmAPIKeyMock {
		registry.Register(llm.NewMockProvider(), string(llm.ProviderMock))

		return registry
	}

	if a.cfg.GoogleAPIKey != "" {
		google, err := llm.NewGoogleProvider(ctx, a.cfg, &logger)
		if err != nil {
			logger.Warn().Err(err).Msg("Google verifier backend unavailable")
		} else {
			registry.Register(google, a.cfg.VerifierModels...)
		}
	}

	registry.Register(llm.NewAnthropicProvider(a.cfg, &logger), a.cfg.AnthropicModel)
	registry.Register(llm.NewOpenAIProvider(a.cfg, &logger), a.cfg.LLMModel)

	backends := make([]string, 0, len(registry.Chain()))
	for _, b := range registry.Chain() {
		backends = append(backends, b.String())
	}

	logger.Info().Strs(logFieldBackends, backends).Msg("Verifier backends configured")

	return registry
}

func (a *App) newReporter() *notify.TelegramReporter {
	if a.cfg.OpsBotToken == "" || a.cfg.OpsChatID == 0 {
		return nil
	}

	reporter, err := notify.NewTelegramReporter(a.cfg.OpsBotToken, a.cfg.OpsChatID, a.logger)
	if err != nil {
		a.logger.Warn().Err(err).Msg("Operator reports disabled")

		return nil
	}

	return reporter
}

var (
	_ ports.FirehoseStore = (*db.DB)(nil)
	_ ports.RunLocker     = (*db.DB)(nil)
	_ ports.PushSender    = (*notify.ExpoSender)(nil)
	_ ports.RunReporter   = (*notify.TelegramReporter)(nil)
)
