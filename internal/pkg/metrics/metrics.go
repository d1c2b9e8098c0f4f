// Package metrics defines and registers the custom Prometheus metrics of the
// library console. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default registry on package init via
// promauto; HTTP request metrics come from echoprometheus in the router.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "library_console"

// ── Session metrics ───────────────────────────────────────────────────────────

// SessionValidationsTotal counts stored-session validations.
// Label:
//   - outcome: "valid", "absent", "rejected", "unreachable", "malformed" or "store_error"
var SessionValidationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_validations_total",
		Help:      "Total number of stored-session validations, by outcome.",
	},
	[]string{"outcome"},
)

// SessionInitializeDuration measures boot validation from start to resolved state.
// Label:
//   - outcome: the validation outcome
var SessionInitializeDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "session_initialize_duration_seconds",
		Help:      "Duration of the boot-time session validation.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"outcome"},
)

// SessionTransitionsTotal counts auth state transitions.
// Label:
//   - kind: "initialized", "login", "logout" or "invalidated"
var SessionTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_transitions_total",
		Help:      "Total number of auth state transitions, by kind.",
	},
	[]string{"kind"},
)

// SessionPhase is 1 for the phase the auth provider is currently in, 0 otherwise.
// Label:
//   - phase: "booting", "authenticated" or "unauthenticated"
var SessionPhase = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "session_phase",
		Help:      "Current auth provider phase (1 for the active phase).",
	},
	[]string{"phase"},
)

// SetSessionPhase marks phase as the active one.
func SetSessionPhase(phase string) {
	for _, p := range []string{"booting", "authenticated", "unauthenticated"} {
		v := 0.0
		if p == phase {
			v = 1
		}
		SessionPhase.WithLabelValues(p).Set(v)
	}
}

// ── Gate metrics ──────────────────────────────────────────────────────────────

// GateDecisionsTotal counts route gate decisions.
// Label:
//   - view: "loading", "protected", "login", "not_found" or "redirect"
var GateDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gate_decisions_total",
		Help:      "Total number of route gate decisions, by resulting view kind.",
	},
	[]string{"view"},
)

// ── Audit metrics ─────────────────────────────────────────────────────────────

// AuditQueueDepth tracks events waiting in each audit worker channel.
// Label:
//   - worker_id: numeric worker index
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of session events pending in each audit worker channel.",
	},
	[]string{"worker_id"},
)

// AuditErrorsTotal counts session events that could not be recorded or were dropped.
// Label:
//   - reason: "record_failed" or "queue_full"
var AuditErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_errors_total",
		Help:      "Total number of session events that failed to be recorded.",
	},
	[]string{"reason"},
)
