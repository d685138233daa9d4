package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "circles_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "circles_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// WebSocketConnectionsTotal is the gauge of total websocket connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "circles_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// WebSocketBackpressureDrops counts messages dropped because a client buffer was full.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "circles_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})

	// AccessDecisions counts visibility resolver outcomes.
	AccessDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "circles_access_decisions_total",
		Help: "Visibility resolver decisions by resource, mode and outcome",
	}, []string{"resource", "mode", "outcome"})

	// MembershipTransitions counts membership and invite state changes.
	MembershipTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "circles_membership_transitions_total",
		Help: "Membership and invite state transitions",
	}, []string{"kind", "transition"})

	// PlacesRequests counts places lookups by operation and outcome.
	PlacesRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "circles_places_requests_total",
		Help: "Places lookups by operation and outcome",
	}, []string{"operation", "outcome"})

	// SearchDegraded counts searches that returned without places results.
	SearchDegraded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "circles_search_degraded_total",
		Help: "Searches served without the places collaborator",
	})

	// MemberCountDrift counts circles whose member_count was corrected.
	MemberCountDrift = promauto.NewCounter(prometheus.CounterOpts{
		Name: "circles_member_count_drift_total",
		Help: "Circles whose stored member_count disagreed with active memberships",
	})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}

// RecordAccess records a visibility decision.
func RecordAccess(resource, mode string, allowed bool) {
	outcome := "denied"
	if allowed {
		outcome = "granted"
	}
	AccessDecisions.WithLabelValues(resource, mode, outcome).Inc()
}
