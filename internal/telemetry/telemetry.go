package telemetry

import (
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/clipexplain/clipexplain/config"
	"github.com/clipexplain/clipexplain/models"
)

// Telemetry tracks discovery outcomes and source health. It mirrors the
// in-process metrics snapshot with Prometheus collectors so /metrics and
// the periodic log report stay in agreement.
type Telemetry struct {
	config  config.TelemetryConfig
	logger  *log.Logger
	metrics *Metrics
	mu      sync.RWMutex
}

// Metrics holds counters aggregated since process start.
type Metrics struct {
	TotalRequests      int64
	RequestsByTier     map[models.Method]int64
	AverageDuration    time.Duration
	SourceRequests     map[string]int64
	SourceSuccessRates map[string]float64
	SourceAverageTimes map[string]time.Duration
	LLMRequests        int64
	LLMFailures        int64
	CacheHits          int64
}

// SourceEvent records one fetcher call.
type SourceEvent struct {
	Source   string
	Query    string
	Duration time.Duration
	Success  bool
	Results  int
}

// DiscoveryEvent records one full discovery request.
type DiscoveryEvent struct {
	ID       string
	Method   models.Method
	Duration time.Duration
	Items    int
	CacheHit bool
}

var (
	promDiscoveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clipexplain_discoveries_total",
		Help: "Discovery requests by cascade tier.",
	}, []string{"method"})
	promSourceRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clipexplain_source_requests_total",
		Help: "Fetcher calls by source and outcome.",
	}, []string{"source", "outcome"})
	promSourceLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "clipexplain_source_latency_seconds",
		Help:    "Fetcher call latency by source.",
		Buckets: prometheus.DefBuckets,
	}, []string{"source"})
	promCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clipexplain_cache_hits_total",
		Help: "Bundle cache hits.",
	})
)

// New creates a telemetry instance. When periodic logs are enabled a
// background goroutine prints a snapshot every minute.
func New(cfg config.TelemetryConfig) *Telemetry {
	t := &Telemetry{
		config: cfg,
		logger: log.New(log.Writer(), "[TELEMETRY] ", log.LstdFlags),
		metrics: &Metrics{
			RequestsByTier:     make(map[models.Method]int64),
			SourceRequests:     make(map[string]int64),
			SourceSuccessRates: make(map[string]float64),
			SourceAverageTimes: make(map[string]time.Duration),
		},
	}
	if cfg.Enabled && cfg.PeriodicLogs {
		go t.startMetricsCollection()
	}
	return t
}

// RecordDiscovery records a completed discovery request.
func (t *Telemetry) RecordDiscovery(event DiscoveryEvent) {
	if t == nil || !t.config.Enabled {
		return
	}
	promDiscoveries.WithLabelValues(string(event.Method)).Inc()
	if event.CacheHit {
		promCacheHits.Inc()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.metrics.TotalRequests++
	t.metrics.RequestsByTier[event.Method]++
	if event.CacheHit {
		t.metrics.CacheHits++
	}
	if t.metrics.TotalRequests == 1 {
		t.metrics.AverageDuration = event.Duration
	} else {
		total := t.metrics.AverageDuration * time.Duration(t.metrics.TotalRequests-1)
		t.metrics.AverageDuration = (total + event.Duration) / time.Duration(t.metrics.TotalRequests)
	}

	t.logger.Printf("Discovery: ID=%s, Method=%s, Duration=%v, Items=%d, CacheHit=%t",
		event.ID, event.Method, event.Duration, event.Items, event.CacheHit)
}

// RecordSource records one fetcher call.
func (t *Telemetry) RecordSource(event SourceEvent) {
	if t == nil || !t.config.Enabled {
		return
	}
	outcome := "success"
	if !event.Success {
		outcome = "error"
	}
	promSourceRequests.WithLabelValues(event.Source, outcome).Inc()
	promSourceLatency.WithLabelValues(event.Source).Observe(event.Duration.Seconds())

	t.mu.Lock()
	defer t.mu.Unlock()

	t.metrics.SourceRequests[event.Source]++
	n := t.metrics.SourceRequests[event.Source]

	success := t.metrics.SourceSuccessRates[event.Source] * float64(n-1)
	if event.Success {
		success++
	}
	t.metrics.SourceSuccessRates[event.Source] = success / float64(n)

	avg := t.metrics.SourceAverageTimes[event.Source]
	if n == 1 {
		t.metrics.SourceAverageTimes[event.Source] = event.Duration
	} else {
		total := avg * time.Duration(n-1)
		t.metrics.SourceAverageTimes[event.Source] = (total + event.Duration) / time.Duration(n)
	}
}

// RecordLLM records a keyword-generation attempt.
func (t *Telemetry) RecordLLM(success bool) {
	if t == nil || !t.config.Enabled {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.metrics.LLMRequests++
	if !success {
		t.metrics.LLMFailures++
	}
}

// GetMetrics returns a copy of the current metrics snapshot.
func (t *Telemetry) GetMetrics() Metrics {
	t.mu.RLock()
	defer t.mu.RUnlock()

	m := *t.metrics
	m.RequestsByTier = make(map[models.Method]int64, len(t.metrics.RequestsByTier))
	m.SourceRequests = make(map[string]int64, len(t.metrics.SourceRequests))
	m.SourceSuccessRates = make(map[string]float64, len(t.metrics.SourceSuccessRates))
	m.SourceAverageTimes = make(map[string]time.Duration, len(t.metrics.SourceAverageTimes))
	for k, v := range t.metrics.RequestsByTier {
		m.RequestsByTier[k] = v
	}
	for k, v := range t.metrics.SourceRequests {
		m.SourceRequests[k] = v
	}
	for k, v := range t.metrics.SourceSuccessRates {
		m.SourceSuccessRates[k] = v
	}
	for k, v := range t.metrics.SourceAverageTimes {
		m.SourceAverageTimes[k] = v
	}
	return m
}

func (t *Telemetry) startMetricsCollection() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		m := t.GetMetrics()
		t.logger.Printf("Metrics Snapshot: Requests=%d, AvgDuration=%v, CacheHits=%d, LLMFailures=%d/%d",
			m.TotalRequests, m.AverageDuration, m.CacheHits, m.LLMFailures, m.LLMRequests)
		for source, n := range m.SourceRequests {
			t.logger.Printf("  Source %s: %d requests, %.2f%% success, %v avg time",
				source, n, m.SourceSuccessRates[source]*100, m.SourceAverageTimes[source])
		}
	}
}
