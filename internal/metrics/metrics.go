package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Enrichment outcomes.
const (
	EnrichWritten   = "written"
	EnrichSkipped   = "skipped"
	EnrichDiscarded = "discarded"
	EnrichFailed    = "failed"
)

// Generator outcomes.
const (
	GeneratorOK           = "ok"
	GeneratorDegraded     = "degraded"
	GeneratorPrecondition = "precondition"
)

// Metrics contains all Prometheus metrics for lanote.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Enrichment metrics
	EnrichRuns     *prometheus.CounterVec
	FieldsFetched  *prometheus.CounterVec
	EnrichDuration prometheus.Histogram

	// Generator metrics
	GeneratorCalls    *prometheus.CounterVec
	GeneratorDuration *prometheus.HistogramVec

	// Audio metrics
	Playbacks     *prometheus.CounterVec
	Recordings    *prometheus.CounterVec
	RecordedBytes prometheus.Histogram
}

// New creates all metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		EnrichRuns: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lanote_enrich_runs_total",
			Help: "Total number of enrichment runs by outcome",
		}, []string{"outcome"}),
		FieldsFetched: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lanote_enrich_fields_fetched_total",
			Help: "Total number of detail fields requested from generators",
		}, []string{"field"}),
		EnrichDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "lanote_enrich_duration_seconds",
			Help:    "Wall time of enrichment runs that issued generator calls",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10), // 250ms to ~2 minutes
		}),

		GeneratorCalls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lanote_generator_calls_total",
			Help: "Total number of content generator calls by field and outcome",
		}, []string{"field", "outcome"}),
		GeneratorDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lanote_generator_duration_seconds",
			Help:    "Latency of content generator calls",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~1 minute
		}, []string{"field"}),

		Playbacks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lanote_playbacks_total",
			Help: "Total number of playback attempts by path and outcome",
		}, []string{"path", "outcome"}),
		Recordings: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lanote_recordings_total",
			Help: "Total number of recording attempts by outcome",
		}, []string{"outcome"}),
		RecordedBytes: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "lanote_recording_size_bytes",
			Help:    "Size of assembled recording blobs",
			Buckets: prometheus.ExponentialBuckets(1024, 2, 12), // 1KB to ~4MB
		}),
	}
}

// Enrich records the outcome of one enrichment run.
func (m *Metrics) Enrich(outcome string) {
	if m == nil {
		return
	}
	m.EnrichRuns.WithLabelValues(outcome).Inc()
}

// EnrichTook records the duration of a run that reached the generators.
func (m *Metrics) EnrichTook(d time.Duration) {
	if m == nil {
		return
	}
	m.EnrichDuration.Observe(d.Seconds())
}

// Fetching records that field was requested from a generator.
func (m *Metrics) Fetching(field string) {
	if m == nil {
		return
	}
	m.FieldsFetched.WithLabelValues(field).Inc()
}

// Generated records one generator call.
func (m *Metrics) Generated(field, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.GeneratorCalls.WithLabelValues(field, outcome).Inc()
	m.GeneratorDuration.WithLabelValues(field).Observe(d.Seconds())
}

// Played records one playback attempt on path ("speech" or "recording").
func (m *Metrics) Played(path string, err error) {
	if m == nil {
		return
	}
	m.Playbacks.WithLabelValues(path, outcomeOf(err)).Inc()
}

// Recorded records one finished recording and its blob size.
func (m *Metrics) Recorded(size int, err error) {
	if m == nil {
		return
	}
	m.Recordings.WithLabelValues(outcomeOf(err)).Inc()
	if err == nil {
		m.RecordedBytes.Observe(float64(size))
	}
}

func outcomeOf(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
