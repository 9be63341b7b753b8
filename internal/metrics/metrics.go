// Package metrics exposes the Prometheus collectors shared by the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "picshare"

var (
	// HTTPRequests counts handled requests by method, route pattern and status.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests handled",
	}, []string{"method", "route", "status"})

	// HTTPDuration observes request latency by method and route pattern.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request duration in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	// StoreOperations counts store mutations and reads by store and operation.
	StoreOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "store",
		Name:      "operations_total",
		Help:      "Total number of store operations",
	}, []string{"store", "operation"})

	// SeedLoads counts how often a collection was populated from seed data.
	SeedLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "store",
		Name:      "seed_loads_total",
		Help:      "Total number of collection loads from seed data",
	}, []string{"store", "collection"})

	// StreamClients tracks open identity change streams.
	StreamClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "session",
		Name:      "stream_clients",
		Help:      "Number of connected identity change stream clients",
	})

	// UnreadNotifications mirrors the navigation badge.
	UnreadNotifications = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "notifications",
		Name:      "unread",
		Help:      "Number of unread notifications",
	})
)

// StoreOp records one store operation.
func StoreOp(store, operation string) {
	StoreOperations.WithLabelValues(store, operation).Inc()
}
