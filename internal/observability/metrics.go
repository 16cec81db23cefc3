package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StoreOperationLatency records post store latency by operation.
	StoreOperationLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "blogrr_store_operation_latency_seconds",
		Help:    "Post store operation latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	// StoreErrors counts store failures by operation. Not-found results are not errors.
	StoreErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blogrr_store_errors_total",
		Help: "Total number of post store failures by operation",
	}, []string{"operation"})

	// RedisErrors counts Redis errors by command.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blogrr_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// EventsPublished counts post events by type and outcome.
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blogrr_post_events_published_total",
		Help: "Total number of post events published",
	}, []string{"event_type", "outcome"})
)

// TrackStoreOperation returns a function that records the operation latency when called (e.g. defer).
func TrackStoreOperation(operation string) func() {
	start := time.Now()
	return func() {
		StoreOperationLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}
