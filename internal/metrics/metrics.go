package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "streamverse",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by method, path and status code.",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "streamverse",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   []float64{0.05, 0.1, 0.3, 0.5, 1, 2, 5, 10, 20},
	}, []string{"method", "path"})

	UpstreamRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "streamverse",
		Name:      "upstream_requests_total",
		Help:      "Total requests to the upstream gateway by provider and result status.",
	}, []string{"provider", "status"})

	UpstreamRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "streamverse",
		Name:      "upstream_request_duration_seconds",
		Help:      "Upstream gateway request duration in seconds.",
		Buckets:   []float64{0.1, 0.3, 0.5, 1, 2, 5, 10, 20},
	}, []string{"provider"})

	SearchBranchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "streamverse",
		Name:      "search_branches_total",
		Help:      "Settled search branches by provider and outcome (ok, empty, error).",
	}, []string{"provider", "outcome"})

	SearchGateRejectionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "streamverse",
		Name:      "search_gate_rejections_total",
		Help:      "Searches ignored because another search held the gate.",
	})

	MediaResolutionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "streamverse",
		Name:      "media_resolutions_total",
		Help:      "Episode media resolutions by provider and winning strategy.",
	}, []string{"provider", "strategy"})

	SectionLoadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "streamverse",
		Name:      "section_loads_total",
		Help:      "Home section loads by section id and status.",
	}, []string{"section", "status"})
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		UpstreamRequestsTotal,
		UpstreamRequestDuration,
		SearchBranchesTotal,
		SearchGateRejectionsTotal,
		MediaResolutionsTotal,
		SectionLoadsTotal,
	)
}
