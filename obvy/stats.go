package ostinato

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StatsInternal is the self-observation registry: how long feed
// polls and recomputes take, how often the pipeline rejects input,
// and who is hitting the web surface.
type StatsInternal struct {
	Registry       *prometheus.Registry
	PollTimer      prometheus.Histogram
	RecomputeTimer prometheus.Histogram
	Recomputes     *prometheus.CounterVec
	WWW            *prometheus.CounterVec
}

// NewStatsInternal creates an attached prometheus registry
// with the Go and process collectors plus our own instruments
func NewStatsInternal() *StatsInternal {
	reg := prometheus.NewRegistry()

	s := &StatsInternal{
		Registry: reg,
		PollTimer: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ostinato_feed_poll_seconds",
			Help:    "Duration of event feed polls",
			Buckets: prometheus.DefBuckets,
		}),
		RecomputeTimer: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ostinato_recompute_seconds",
			Help:    "Duration of chart recompute passes",
			Buckets: prometheus.DefBuckets,
		}),
		Recomputes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ostinato_recomputes_total",
			Help: "Recompute passes by chart and outcome",
		}, []string{"chart", "outcome"}),
		WWW: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ostinato_http_requests_total",
			Help: "Web surface requests by status and method",
		}, []string{"status", "method"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		s.PollTimer,
		s.RecomputeTimer,
		s.Recomputes,
		s.WWW,
	)

	return s
}

// RecPollTimer records one feed poll duration in seconds
func (s *StatsInternal) RecPollTimer(seconds float64) {
	s.PollTimer.Observe(seconds)
}

// RecRecomputeTimer records one recompute pass duration in seconds
func (s *StatsInternal) RecRecomputeTimer(seconds float64) {
	s.RecomputeTimer.Observe(seconds)
}

// RecRecompute counts a recompute outcome: "ok", "stale", or the
// rejection reason
func (s *StatsInternal) RecRecompute(chart, outcome string) {
	s.Recomputes.WithLabelValues(chart, outcome).Inc()
}

// RecWWW counts a web request by response status and method
func (s *StatsInternal) RecWWW(status, method string) {
	s.WWW.WithLabelValues(status, method).Inc()
}

// Handler serves the registry for the /metrics endpoint
func (s *StatsInternal) Handler() http.Handler {
	return promhttp.HandlerFor(s.Registry, promhttp.HandlerOpts{})
}
