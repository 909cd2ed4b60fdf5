package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FirehoseRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "firehose_runs_total",
		Help: "The total number of firehose runs by final status",
	}, []string{"status"})

	FirehoseRunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "firehose_run_duration_seconds",
		Help:    "Duration in seconds of a full firehose run",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
	})

	FirehoseActiveItems = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "firehose_active_watch_items",
		Help: "Number of active watch items seen by the last run",
	})

	FirehoseTopics = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "firehose_canonical_topics",
		Help: "Number of unique search topics in the last run",
	})

	// Headline source metrics
	SearchRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "firehose_search_requests_total",
		Help: "Total number of headline source requests",
	}, []string{"provider", "status"})

	SearchRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "firehose_search_request_duration_seconds",
		Help:    "Duration of headline source requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider"})

	SearchHeadlines = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "firehose_search_headlines_total",
		Help: "Total number of headlines returned per provider",
	}, []string{"provider"})

	SearchCircuitBreakerOpens = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "firehose_search_circuit_breaker_opens_total",
		Help: "Total number of times a headline source circuit breaker opened",
	}, []string{"provider"})

	// Pipeline stage metrics
	DedupDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "firehose_dedup_dropped_total",
		Help: "Candidates dropped by deduplication",
	}, []string{"scope"})

	KeywordMatches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "firehose_keyword_matches_total",
		Help: "Candidate and watch item pairs passing the keyword prefilter",
	})

	VerifierOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "firehose_verifier_outcomes_total",
		Help: "Condition verifier outcomes",
	}, []string{"outcome"})

	BatchFlushDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "firehose_batch_flush_duration_seconds",
		Help:    "Duration of the end-of-run write batch flush",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	})

	BatchRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "firehose_batch_rows_total",
		Help: "Rows written by the write batcher",
	}, []string{"kind"})

	// Notification metrics
	NotificationsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "firehose_notifications_created_total",
		Help: "Alert notifications persisted",
	})

	PushDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "firehose_push_deliveries_total",
		Help: "Push gateway deliveries by status",
	}, []string{"status"})

	// LLM metrics
	LLMRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "firehose_llm_requests_total",
		Help: "Total number of LLM requests",
	}, []string{"provider", "model", "status"})

	LLMRequestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "firehose_llm_request_latency_seconds",
		Help:    "Latency of LLM requests by provider and model",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider", "model"})

	LLMFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "firehose_llm_fallbacks_total",
		Help: "Total number of LLM fallback events",
	}, []string{"from_provider", "from_model"})

	LLMTokensPrompt = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "firehose_llm_tokens_prompt_total",
		Help: "Prompt tokens sent to LLM providers",
	}, []string{"provider", "model"})

	LLMTokensCompletion = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "firehose_llm_tokens_completion_total",
		Help: "Completion tokens returned by LLM providers",
	}, []string{"provider", "model"})

	LLMCircuitBreakerOpens = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "firehose_llm_circuit_breaker_opens_total",
		Help: "Total number of times LLM circuit breaker opened",
	}, []string{"provider", "model"})

	LLMProviderAvailable = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "firehose_llm_provider_available",
		Help: "Whether an LLM backend is currently usable (1) or not (0)",
	}, []string{"provider", "model"})
)
