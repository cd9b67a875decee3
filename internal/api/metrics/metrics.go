// Package metrics defines and registers all custom Prometheus metrics for
// the identity service. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics register themselves with the default registry via promauto at
// package load; the router exposes them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "identity"

// ── Authentication metrics ────────────────────────────────────────────────────

// LoginsTotal counts authentication attempts.
// Label:
//   - result: "success" or "failure" (failures are not broken down further,
//     matching the anti-enumeration policy)
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of password authentication attempts.",
	},
	[]string{"result"},
)

// TokensIssuedTotal counts signed tokens handed out.
// Label:
//   - type: "access", "refresh", "email_verification", "password_reset"
var TokensIssuedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tokens_issued_total",
		Help:      "Total number of tokens issued, by token type.",
	},
	[]string{"type"},
)

// TokenVerificationsTotal counts verification outcomes on presented tokens.
// Labels:
//   - type: the expected token type
//   - result: "valid", "expired", "invalid", "type_mismatch"
var TokenVerificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_verifications_total",
		Help:      "Total number of token verification attempts, by type and result.",
	},
	[]string{"type", "result"},
)

// RefreshRotationsTotal counts refresh exchanges.
// Label:
//   - result: "success", "revoked", "expired", "invalid"
var RefreshRotationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "refresh_rotations_total",
		Help:      "Total number of refresh-token exchanges, by result.",
	},
	[]string{"result"},
)

// PasswordPolicyViolationsTotal counts rejected plaintexts.
var PasswordPolicyViolationsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "password_policy_violations_total",
		Help:      "Total number of passwords rejected by the strength policy.",
	},
)

// HashDuration measures one-way credential hashing latency. Buckets start
// high: bcrypt at cost 12 sits in the hundreds of milliseconds.
var HashDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "credential_hash_duration_seconds",
		Help:      "Duration of credential hashing operations.",
		Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5},
	},
)

// ── User management metrics ───────────────────────────────────────────────────

// UsersCreatedTotal counts newly provisioned accounts.
// Label:
//   - role: the highest role of the created account
var UsersCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "users_created_total",
		Help:      "Total number of user accounts created, by highest role.",
	},
	[]string{"role"},
)

// AuthorizationDenialsTotal counts fail-closed authorization decisions.
// Labels:
//   - action, resource: the denied combination
var AuthorizationDenialsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "authorization_denials_total",
		Help:      "Total number of denied authorization checks, by action and resource.",
	},
	[]string{"action", "resource"},
)

// ── Notification metrics ──────────────────────────────────────────────────────

// NotificationsSentTotal counts delivered notifications.
// Label:
//   - kind: "email_verification" or "password_reset"
var NotificationsSentTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_sent_total",
		Help:      "Total number of notifications delivered, by kind.",
	},
	[]string{"kind"},
)

// NotificationsFailedTotal counts delivery failures.
var NotificationsFailedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_failed_total",
		Help:      "Total number of notification deliveries that failed, by kind.",
	},
	[]string{"kind"},
)

// NotificationsQueueDepth tracks pending notifications per dispatcher worker.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var NotificationsQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "notifications_queue_depth",
		Help:      "Current number of notifications pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
