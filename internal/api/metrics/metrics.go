// Package metrics defines all custom Prometheus metrics for the donation
// gateway. It is the single source of truth for metric names, labels, and
// help strings; collectors register themselves with the default registry at
// package init via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "donation_gateway"

// LoginsTotal counts login attempts settled by the session store.
// Labels:
//   - outcome: "success" or "failure"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by outcome.",
	},
	[]string{"outcome"},
)

// BootstrapsTotal counts session bootstraps.
// Labels:
//   - result: "authenticated", "anonymous"
var BootstrapsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bootstraps_total",
		Help:      "Total number of session bootstraps, by settled state.",
	},
	[]string{"result"},
)

// SessionsActive tracks the number of live in-memory session stores.
var SessionsActive = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sessions_active",
		Help:      "Current number of live gateway sessions.",
	},
)

// UpstreamRequestDuration measures upstream platform calls end-to-end.
// Labels:
//   - method: HTTP method
//   - status: numeric response code, or "error" on transport failure
var UpstreamRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "upstream_request_duration_seconds",
		Help:      "Duration of requests to the upstream donation platform.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "status"},
)
