package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bugbook_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// SessionsCreated counts sessions minted at signup and login.
	SessionsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bugbook_sessions_created_total",
		Help: "Total number of sessions created",
	}, []string{"flow"})

	// SessionsInvalidated counts sessions torn down, by reason.
	SessionsInvalidated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bugbook_sessions_invalidated_total",
		Help: "Total number of sessions invalidated",
	}, []string{"reason"})

	// ChatMirrorFailures counts failed calls to the external chat service.
	ChatMirrorFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bugbook_chat_mirror_failures_total",
		Help: "Total number of failed chat identity mirroring calls",
	})

	// FeedPagesServed counts feed pages served, split by whether a cursor was supplied.
	FeedPagesServed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bugbook_feed_pages_served_total",
		Help: "Total number of feed pages served",
	}, []string{"cursor"})

	// UploadBytes records avatar upload sizes after normalization.
	UploadBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bugbook_upload_bytes",
		Help:    "Size in bytes of stored uploads",
		Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
	})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
