// Package metrics defines and registers all custom Prometheus metrics for the
// plan2protect API. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "plan2protect"

// ── User metrics ──────────────────────────────────────────────────────────────

// UsersRegisteredTotal counts regular identities created over the API.
// Label:
//   - plan: the tier the identity registered with
var UsersRegisteredTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "users_registered_total",
		Help:      "Total number of regular users registered, by plan.",
	},
	[]string{"plan"},
)

// PlanChangesTotal counts plan upgrades and downgrades.
// Label:
//   - plan: the new tier
var PlanChangesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "plan_changes_total",
		Help:      "Total number of plan changes, by new plan.",
	},
	[]string{"plan"},
)

// AuthAttemptsTotal counts administrator password authentication attempts.
// Labels:
//   - operation: "signup" or "login"
//   - result: "ok" or "rejected"
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of administrator authentication attempts.",
	},
	[]string{"operation", "result"},
)

// ── Assessment metrics ────────────────────────────────────────────────────────

// AssessmentsCreatedTotal counts assessments accepted by the API.
var AssessmentsCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "assessments_created_total",
		Help:      "Total number of assessments created.",
	},
)

// QuotaRejectionsTotal counts uploads refused by the plan quota.
// Label:
//   - resource: "assessments" or "storage"
var QuotaRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "quota_rejections_total",
		Help:      "Total number of assessment uploads rejected by plan quota.",
	},
	[]string{"resource"},
)

// AssessmentTransitionsTotal counts status changes out of processing.
// Label:
//   - status: "completed" or "failed"
var AssessmentTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "assessment_transitions_total",
		Help:      "Total number of assessment status transitions, by new status.",
	},
	[]string{"status"},
)

// ── Analysis queue metrics ────────────────────────────────────────────────────

// AnalysisQueueDepth tracks the number of jobs waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var AnalysisQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "analysis_queue_depth",
		Help:      "Current number of analysis jobs pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// AnalysisDuration measures one server-side analysis from dequeue to
// completion.
// Label:
//   - result: "ok" or "error"
var AnalysisDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "analysis_duration_seconds",
		Help:      "Duration of server-side analysis jobs.",
		Buckets:   []float64{.5, 1, 2.5, 5, 10, 30, 60, 120},
	},
	[]string{"result"},
)
