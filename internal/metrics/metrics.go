// Package metrics
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	AnalysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "truthguard_analyses_total",
			Help: "Total number of analyses, labeled by input kind and verdict.",
		},
		[]string{"kind", "verdict"},
	)
	CrawlPagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "truthguard_crawl_pages_total",
			Help: "Total number of crawl slots consumed, labeled by outcome (scored, failed, disallowed).",
		},
		[]string{"outcome"},
	)
	FetchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "truthguard_fetch_duration_seconds",
			Help:    "Duration of page fetches in seconds.",
			Buckets: prometheus.DefBuckets,
		},
	)
	KnowledgeFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "truthguard_knowledge_fallbacks_total",
			Help: "Total number of scores that fell back to heuristics because storage failed.",
		},
	)
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "truthguard_http_requests_total",
			Help: "Total number of API requests, labeled by route and status code.",
		},
		[]string{"route", "status_code"},
	)
)

func init() {
	prometheus.MustRegister(AnalysesTotal)
	prometheus.MustRegister(CrawlPagesTotal)
	prometheus.MustRegister(FetchDuration)
	prometheus.MustRegister(KnowledgeFallbacks)
	prometheus.MustRegister(HTTPRequests)
}

// Handler serves the default registry in the Prometheus exposition format
func Handler() http.Handler {
	return promhttp.Handler()
}
