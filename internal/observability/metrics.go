package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StoreOperationLatency records document store operation latency.
	StoreOperationLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ripple_store_operation_latency_seconds",
		Help:    "Document store operation latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "collection"})

	// StoreErrorsTotal counts document store errors by operation.
	StoreErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ripple_store_errors_total",
		Help: "Total number of document store errors by operation",
	}, []string{"operation"})

	// SnapshotsDeliveredTotal counts live query snapshots delivered to subscribers.
	SnapshotsDeliveredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ripple_snapshots_delivered_total",
		Help: "Total number of live query snapshots delivered",
	}, []string{"collection"})

	// LiveSubscriptions is the gauge of active live query subscriptions.
	LiveSubscriptions = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ripple_live_subscriptions",
		Help: "Number of active live query subscriptions",
	}, []string{"collection"})

	// WebSocketConnectionsTotal is the gauge of active feed websocket connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ripple_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// PurgeOutcomesTotal counts bulk purge outcomes by terminal state.
	PurgeOutcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ripple_purge_outcomes_total",
		Help: "Total number of bulk purge runs by terminal state",
	}, []string{"state"})
)

// StoreMetrics wraps store access for recording operation latency.
type StoreMetrics struct{}

// NewStoreMetrics returns a new StoreMetrics instance.
func NewStoreMetrics() *StoreMetrics {
	return &StoreMetrics{}
}

// TrackOperation returns a function that records operation latency when
// called (e.g. defer).
func (m *StoreMetrics) TrackOperation(operation, collection string) func() {
	start := time.Now()
	return func() {
		StoreOperationLatency.WithLabelValues(operation, collection).Observe(time.Since(start).Seconds())
	}
}

// RecordError increments the store error counter for the operation.
func (m *StoreMetrics) RecordError(operation string) {
	StoreErrorsTotal.WithLabelValues(operation).Inc()
}
