package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	DocumentsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "policy_whisperer_documents_processed_total",
			Help: "Total policy documents ingested",
		},
		[]string{"source_type"},
	)

	SummaryFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "policy_whisperer_summary_fallbacks_total",
			Help: "Summarization fallbacks by reason",
		},
		[]string{"reason"},
	)

	ImpactAnalyses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "policy_whisperer_impact_analyses_total",
			Help: "Per-state impact analyses by outcome",
		},
		[]string{"outcome"},
	)

	ChatMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "policy_whisperer_chat_messages_total",
			Help: "Chat messages persisted by sender",
		},
		[]string{"sender"},
	)

	LLMRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "policy_whisperer_llm_requests_total",
			Help: "LLM requests by status",
		},
		[]string{"status"},
	)

	LLMTokensUsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "policy_whisperer_llm_tokens_used_total",
			Help: "LLM tokens used by type",
		},
		[]string{"type"},
	)

	LLMRequestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "policy_whisperer_llm_request_duration_seconds",
			Help:    "LLM request duration in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30},
		},
	)

	URLFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "policy_whisperer_url_fetches_total",
			Help: "Outbound URL fetches by status",
		},
		[]string{"status"},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "policy_whisperer_cache_hits_total",
			Help: "Cache hits by key type",
		},
		[]string{"cache_type"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "policy_whisperer_cache_misses_total",
			Help: "Cache misses by key type",
		},
		[]string{"cache_type"},
	)
)

func Init() {
	prometheus.MustRegister(DocumentsProcessed)
	prometheus.MustRegister(SummaryFallbacks)
	prometheus.MustRegister(ImpactAnalyses)
	prometheus.MustRegister(ChatMessages)
	prometheus.MustRegister(LLMRequests)
	prometheus.MustRegister(LLMTokensUsed)
	prometheus.MustRegister(LLMRequestDuration)
	prometheus.MustRegister(URLFetches)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
