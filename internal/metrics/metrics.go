// Package metrics exposes Prometheus metrics for the enrichment service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// BuildInfo identifies the binary in the build info gauge.
type BuildInfo struct {
	Version   string
	Revision  string
	BuildDate string
}

// Provider owns the metrics registry.
type Provider struct {
	reg       *prometheus.Registry
	buildInfo *prometheus.GaugeVec
}

// Init creates a registry with the standard process collectors and the
// build info gauge.
func Init(build BuildInfo) *Provider {
	reg := prometheus.NewRegistry()

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	gauge := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "geoenrich_build_info",
			Help: "Build info for this binary (value is always 1).",
		},
		[]string{"version", "revision", "build_date"},
	)
	reg.MustRegister(gauge)
	if build.Version == "" {
		build.Version = "dev"
	}
	gauge.WithLabelValues(build.Version, build.Revision, build.BuildDate).Set(1)

	return &Provider{reg: reg, buildInfo: gauge}
}

// Handler serves the exposition endpoint.
func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{})
}

// Registerer exposes the underlying registry for additional collectors.
func (p *Provider) Registerer() prometheus.Registerer { return p.reg }

// Instruments are the query-path metrics. A nil *Instruments disables
// recording, so callers never need to branch on whether metrics are on.
type Instruments struct {
	Queries       *prometheus.CounterVec
	Features      *prometheus.CounterVec
	QueryDuration *prometheus.HistogramVec
	Pages         *prometheus.CounterVec
	Fallbacks     *prometheus.CounterVec
	CapHits       *prometheus.CounterVec
}

// Query outcomes.
const (
	OutcomeOK      = "ok"
	OutcomeInvalid = "invalid"
	OutcomeEmpty   = "empty"
)

// NewInstruments registers the query-path metrics with reg.
func NewInstruments(reg prometheus.Registerer) *Instruments {
	in := &Instruments{
		Queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "geoenrich_queries_total",
			Help: "Enrichment queries by source and outcome.",
		}, []string{"source", "outcome"}),
		Features: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "geoenrich_features_returned_total",
			Help: "Features returned to callers by source.",
		}, []string{"source"}),
		QueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "geoenrich_query_duration_seconds",
			Help:    "End-to-end enrichment query latency by source.",
			Buckets: prometheus.DefBuckets,
		}, []string{"source"}),
		Pages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arcgis_pages_fetched_total",
			Help: "Result pages fetched from upstream services by source.",
		}, []string{"source"}),
		Fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arcgis_fallbacks_total",
			Help: "Fallback queries issued by source and fallback kind.",
		}, []string{"source", "kind"}),
		CapHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arcgis_safety_cap_hits_total",
			Help: "Queries truncated by the record safety cap, by source.",
		}, []string{"source"}),
	}
	reg.MustRegister(in.Queries, in.Features, in.QueryDuration, in.Pages, in.Fallbacks, in.CapHits)
	return in
}

// RecordQuery observes one finished query. Safe on a nil receiver.
func (in *Instruments) RecordQuery(source, outcome string, seconds float64, features int) {
	if in == nil {
		return
	}
	in.Queries.WithLabelValues(source, outcome).Inc()
	in.QueryDuration.WithLabelValues(source).Observe(seconds)
	if features > 0 {
		in.Features.WithLabelValues(source).Add(float64(features))
	}
}

// RecordPages counts fetched pages and cap truncation. Safe on a nil receiver.
func (in *Instruments) RecordPages(source string, pages int, capReached bool) {
	if in == nil {
		return
	}
	if pages > 0 {
		in.Pages.WithLabelValues(source).Add(float64(pages))
	}
	if capReached {
		in.CapHits.WithLabelValues(source).Inc()
	}
}

// RecordFallback counts one fallback attempt. Safe on a nil receiver.
func (in *Instruments) RecordFallback(source, kind string) {
	if in == nil {
		return
	}
	in.Fallbacks.WithLabelValues(source, kind).Inc()
}
