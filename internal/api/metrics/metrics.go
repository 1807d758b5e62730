// Package metrics defines and registers all custom Prometheus metrics for
// the Sentinela identity service. It is the single source of truth for
// metric names, labels, and help strings.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sentinela_identity"

// LoginsTotal counts login outcomes.
// Label:
//   - result: "success", "invalid_credentials", "pending_approval",
//     "rejected", "locked_out", or "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, labelled by outcome.",
	},
	[]string{"result"},
)

// RegistrationsTotal counts completed registrations.
// Label:
//   - role: "citizen", "agent", or "admin"
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of successful registrations, by role.",
	},
	[]string{"role"},
)

// AdjudicationsTotal counts approval decisions taken by administrators.
// Label:
//   - decision: "approved" or "rejected"
var AdjudicationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "adjudications_total",
		Help:      "Total number of account approval decisions, by decision.",
	},
	[]string{"decision"},
)

// PasswordResetsTotal counts reset-flow events.
// Label:
//   - stage: "requested", "completed", or "invalid_token"
var PasswordResetsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "password_resets_total",
		Help:      "Total number of password reset flow events, by stage.",
	},
	[]string{"stage"},
)

// NotifyQueueDepth tracks the number of notifications waiting per worker.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", ...)
var NotifyQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "notify_queue_depth",
		Help:      "Current number of notifications pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// LoginDuration measures how long a login takes end-to-end, including the
// deliberate cost of the credential hash comparison.
// Label:
//   - result: same values as LoginsTotal
var LoginDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "login_duration_seconds",
		Help:      "Duration of login handling from request to response.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"result"},
)
