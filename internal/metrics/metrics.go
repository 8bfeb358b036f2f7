// Package metrics defines the console's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "adminka"

// GatewayRequestsTotal counts backend calls.
// Labels:
//   - op: gateway operation name (e.g. "rename_category")
//   - outcome: "ok", "api_error" or "client_error"
var GatewayRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gateway_requests_total",
		Help:      "Total number of backend API calls by operation and outcome.",
	},
	[]string{"op", "outcome"},
)

// GatewayRequestDuration measures backend call latency.
var GatewayRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "gateway_request_duration_seconds",
		Help:      "Duration of backend API calls.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"op"},
)

// MutationsTotal counts optimistic mutations.
// Labels:
//   - kind: entity kind ("category", "channel", ...)
//   - result: "confirmed" (server state adopted) or "rolled_back" (refetched after failure)
var MutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mutations_total",
		Help:      "Optimistic mutations by entity kind and result.",
	},
	[]string{"kind", "result"},
)

// ActiveSessions tracks signed-in staff sessions.
var ActiveSessions = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_sessions",
		Help:      "Number of live console sessions.",
	},
)

// LiveConnections tracks open websocket connections.
var LiveConnections = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "live_connections",
		Help:      "Number of open live-update websocket connections.",
	},
)
