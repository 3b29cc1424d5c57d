package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	githubRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "willstech_github_requests_total",
		Help: "GitHub API requests by operation and HTTP status.",
	}, []string{"operation", "status"})

	githubDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "willstech_github_request_duration_seconds",
		Help:    "GitHub API request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	siteSaves = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "willstech_site_saves_total",
		Help: "Site config commits by section and result.",
	}, []string{"section", "result"})

	siteConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "willstech_site_conflicts_total",
		Help: "Write conflicts answered with a re-sync and retry.",
	})

	lastSync = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "willstech_site_last_sync_timestamp_seconds",
		Help: "Unix time of the last successful sync with GitHub.",
	})
)

// ObserveGitHubRequest records one upstream call. status is 0 on transport errors.
func ObserveGitHubRequest(operation string, status int, d time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	githubRequests.WithLabelValues(operation, label).Inc()
	githubDuration.WithLabelValues(operation).Observe(d.Seconds())
}

func IncSave(section, result string) {
	siteSaves.WithLabelValues(section, result).Inc()
}

func IncConflict() {
	siteConflicts.Inc()
}

func SetLastSync(t time.Time) {
	lastSync.Set(float64(t.Unix()))
}
