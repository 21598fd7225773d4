package observability

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics tracks operational metrics for the crawl/index/answer pipeline.
// Request-level counters are labeled by proxy mode ("nojs", "standard",
// "premium", "stealth") so a single counter vector answers "how many of each tier
// ran, succeeded, or failed," per §4.1's per-mode statistics requirement.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestsFailed  *prometheus.CounterVec
	RequestsRetried *prometheus.CounterVec

	ResponsesTotal *prometheus.CounterVec

	DocumentsStored    prometheus.Counter
	DocumentsExtracted *prometheus.CounterVec
	ChunksIndexed      prometheus.Counter

	ActiveWorkers   prometheus.Gauge
	QueueDepth      prometheus.Gauge
	BytesDownloaded prometheus.Counter

	ProxyRotations *prometheus.CounterVec
	ProxyErrors    *prometheus.CounterVec

	LLMRequests prometheus.Counter
	LLMErrors   prometheus.Counter
	LLMLatency  prometheus.Histogram

	logger *slog.Logger
}

// NewMetrics registers the crawlchat metric set against reg.
func NewMetrics(reg prometheus.Registerer, logger *slog.Logger) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal:   factory.NewCounterVec(prometheus.CounterOpts{Name: "crawlchat_requests_total", Help: "Total fetch requests made by the proxy gateway, by mode."}, []string{"mode"}),
		RequestsFailed:  factory.NewCounterVec(prometheus.CounterOpts{Name: "crawlchat_requests_failed_total", Help: "Total fetch requests that exhausted retries, by mode."}, []string{"mode"}),
		RequestsRetried: factory.NewCounterVec(prometheus.CounterOpts{Name: "crawlchat_requests_retried_total", Help: "Total fetch retries issued, by mode."}, []string{"mode"}),

		ResponsesTotal: factory.NewCounterVec(prometheus.CounterOpts{Name: "crawlchat_responses_total", Help: "Total fetch responses by status class."}, []string{"class"}),

		DocumentsStored:    factory.NewCounter(prometheus.CounterOpts{Name: "crawlchat_documents_stored_total", Help: "Total documents written to the object store."}),
		DocumentsExtracted: factory.NewCounterVec(prometheus.CounterOpts{Name: "crawlchat_documents_extracted_total", Help: "Total documents run through the text-extraction chain, by tier."}, []string{"tier"}),
		ChunksIndexed:      factory.NewCounter(prometheus.CounterOpts{Name: "crawlchat_chunks_indexed_total", Help: "Total chunks embedded and upserted into the vector index."}),

		ActiveWorkers:   factory.NewGauge(prometheus.GaugeOpts{Name: "crawlchat_active_workers", Help: "Currently active crawl workers."}),
		QueueDepth:      factory.NewGauge(prometheus.GaugeOpts{Name: "crawlchat_queue_depth", Help: "Current URL frontier depth."}),
		BytesDownloaded: factory.NewCounter(prometheus.CounterOpts{Name: "crawlchat_bytes_downloaded_total", Help: "Total bytes downloaded by the proxy gateway."}),

		ProxyRotations: factory.NewCounterVec(prometheus.CounterOpts{Name: "crawlchat_proxy_rotations_total", Help: "Total proxy-mode escalations, by mode escalated to."}, []string{"mode"}),
		ProxyErrors:    factory.NewCounterVec(prometheus.CounterOpts{Name: "crawlchat_proxy_errors_total", Help: "Total proxy/fetch errors, by mode."}, []string{"mode"}),

		LLMRequests: factory.NewCounter(prometheus.CounterOpts{Name: "crawlchat_llm_requests_total", Help: "Total completion requests sent to the LLM provider."}),
		LLMErrors:   factory.NewCounter(prometheus.CounterOpts{Name: "crawlchat_llm_errors_total", Help: "Total failed LLM completion requests."}),
		LLMLatency:  factory.NewHistogram(prometheus.HistogramOpts{Name: "crawlchat_llm_latency_seconds", Help: "LLM completion latency.", Buckets: prometheus.DefBuckets}),

		logger: logger.With("component", "metrics"),
	}
}

// StartServer starts the metrics HTTP server, exposing the default
// registry's /metrics endpoint plus a liveness probe.
func (m *Metrics) StartServer(port int, path string) error {
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	addr := fmt.Sprintf(":%d", port)
	m.logger.Info("metrics server starting", "addr", addr, "path", path)

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			m.logger.Error("metrics server error", "error", err)
		}
	}()

	return nil
}

// ResponseClass buckets an HTTP status code into the label ResponsesTotal
// expects ("2xx", "3xx", "4xx", "5xx").
func ResponseClass(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 300 && status < 400:
		return "3xx"
	case status >= 400 && status < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
