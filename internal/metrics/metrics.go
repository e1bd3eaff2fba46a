package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hoteldesk",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	storeOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hoteldesk",
			Name:      "store_operations_total",
			Help:      "Document store operations by backend, operation and status.",
		},
		[]string{"backend", "op", "status"},
	)

	snapshotEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hoteldesk",
			Name:      "snapshot_events_total",
			Help:      "Live-query snapshots delivered by collection.",
		},
		[]string{"collection"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, storeOps, snapshotEvents)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// IncStoreOp records one store call outcome.
func IncStoreOp(backend, op string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	storeOps.WithLabelValues(backend, op, status).Inc()
}

// IncSnapshot records one delivered snapshot for a collection.
func IncSnapshot(collection string) {
	snapshotEvents.WithLabelValues(collection).Inc()
}
