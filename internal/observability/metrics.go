package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TimelineEmissions counts merged timeline values by outcome ("ok" or "error").
	TimelineEmissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "murmur_timeline_emissions_total",
		Help: "Total number of merged timeline emissions",
	}, []string{"outcome"})

	// ActiveListeners is the gauge of registered document-store listeners.
	ActiveListeners = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "murmur_active_listeners",
		Help: "Number of registered snapshot listeners",
	}, []string{"target"})

	// LikeWrites counts like/unlike batches by action and outcome.
	LikeWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "murmur_like_writes_total",
		Help: "Total like/unlike batched writes",
	}, []string{"action", "outcome"})

	// BlobOperations counts blob store operations by operation and outcome.
	BlobOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "murmur_blob_operations_total",
		Help: "Total blob store operations",
	}, []string{"operation", "outcome"})

	// RedisErrors counts failed Redis commands by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "murmur_redis_errors_total",
		Help: "Total Redis command errors",
	}, []string{"command"})

	// StoreLatency records document-store call latency by operation and collection.
	StoreLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "murmur_store_latency_seconds",
		Help:    "Document store call latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "collection"})
)

// Outcome maps an error to the "ok"/"error" label value.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// TrackStoreCall returns a function that records call latency when called (e.g. defer).
func TrackStoreCall(operation, collection string) func() {
	start := time.Now()
	return func() {
		StoreLatency.WithLabelValues(operation, collection).Observe(time.Since(start).Seconds())
	}
}
