// Package metrics defines all custom Prometheus metrics for the feedback API.
// It is the single source of truth for metric names, labels, and help strings.
// Metrics register themselves with the default registry via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "feedback"

// FeedbackSubmissionsTotal counts successfully stored ratings.
// Label:
//   - identity_kind: "registered" or "guest"
var FeedbackSubmissionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "submissions_total",
		Help:      "Total number of feedback records successfully stored.",
	},
	[]string{"identity_kind"},
)

// FeedbackConflictsTotal counts submissions rejected because the identity
// already rated the resource.
var FeedbackConflictsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "conflicts_total",
		Help:      "Total number of duplicate feedback submissions rejected.",
	},
)

// AuthRejectionsTotal counts identity resolutions that ended in a 401.
// Label:
//   - reason: "invalid_token", "missing_identity", or "identity_mismatch"
var AuthRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_rejections_total",
		Help:      "Total number of rejected identity resolutions, by reason.",
	},
	[]string{"reason"},
)

// AggregateCacheTotal counts aggregate cache lookups.
// Label:
//   - result: "hit" or "miss"
var AggregateCacheTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "aggregate_cache_total",
		Help:      "Total number of aggregate cache lookups, labelled by result (hit/miss).",
	},
	[]string{"result"},
)

// FeedbackQueryDuration measures how long the aggregate query path takes
// end-to-end, cache included.
var FeedbackQueryDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "query_duration_seconds",
		Help:      "Duration of the feedback query/aggregate path.",
		Buckets:   prometheus.DefBuckets,
	},
)
