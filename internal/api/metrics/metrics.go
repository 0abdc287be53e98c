// Package metrics defines all custom Prometheus metrics for the task manager
// API. It is the single source of truth for metric names, labels, and help
// strings; registration happens at import time via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "taskapi"

// CacheRequestsTotal counts cache lookups on the read path.
// Labels:
//   - slot: "list" or "detail"
//   - result: "hit" or "miss"
var CacheRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_requests_total",
		Help:      "Total number of task cache lookups, by slot and result.",
	},
	[]string{"slot", "result"},
)

// CacheInvalidationsTotal counts explicit invalidations fired by writes.
// Label:
//   - slot: "list" or "detail"
var CacheInvalidationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_invalidations_total",
		Help:      "Total number of cache invalidations triggered by task writes.",
	},
	[]string{"slot"},
)

// TokensIssuedTotal counts freshly minted session tokens (login and refresh).
var TokensIssuedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tokens_issued_total",
		Help:      "Total number of bearer tokens issued.",
	},
)

// TokensRotatedTotal counts successful refresh rotations.
var TokensRotatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tokens_rotated_total",
		Help:      "Total number of successful token rotations.",
	},
)

// TokensRevokedTotal counts explicit revocations (logout).
var TokensRevokedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tokens_revoked_total",
		Help:      "Total number of bearer tokens revoked.",
	},
)

// EventsPublishedTotal counts domain events handed to the broadcast sink.
// Label:
//   - type: "created", "updated" or "deleted"
var EventsPublishedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_published_total",
		Help:      "Total number of domain events published to the broadcast sink.",
	},
	[]string{"type"},
)

// EventsDroppedTotal counts events discarded because the broadcast queue was
// full. Broadcast is fire-and-forget, so drops are tolerated but visible.
var EventsDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_dropped_total",
		Help:      "Total number of domain events dropped by the broadcast dispatcher.",
	},
)
