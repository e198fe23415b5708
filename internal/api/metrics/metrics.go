// Package metrics defines and registers all custom Prometheus metrics for the
// GadgetGhar account service. It is the single source of truth for metric
// names, labels, and help strings.
//
// Metrics register with the default Prometheus registry at import time via
// promauto; the /metrics endpoint exposes them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "gadgetghar"

// ── Authentication metrics ────────────────────────────────────────────────────

// LoginsTotal counts login outcomes.
// Label:
//   - result: "success", "invalid_credentials", "locked", "not_verified",
//     "expired_password", "unknown_user"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by outcome.",
	},
	[]string{"result"},
)

// AdminLoginsTotal counts admin login outcomes.
// Labels:
//   - path: "admin_store" or "user_fallback"
//   - result: "success" or "failure"
var AdminLoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "admin_logins_total",
		Help:      "Total number of admin login attempts, by identity path and outcome.",
	},
	[]string{"path", "result"},
)

// SignupsTotal counts completed account registrations.
var SignupsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signups_total",
		Help:      "Total number of accounts created (pending verification).",
	},
)

// LockoutsTotal counts accounts entering the lockout window.
var LockoutsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lockouts_total",
		Help:      "Total number of brute-force lockouts triggered.",
	},
)

// PasswordResetsTotal counts completed password rotations.
var PasswordResetsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "password_resets_total",
		Help:      "Total number of successful password resets.",
	},
)

// ── Outbound mail metrics ─────────────────────────────────────────────────────

// EmailsSentTotal counts outbound email delivery attempts.
// Labels:
//   - kind: "verification" or "password_reset"
//   - result: "ok" or "error"
var EmailsSentTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "emails_sent_total",
		Help:      "Total number of outbound emails attempted, by kind and result.",
	},
	[]string{"kind", "result"},
)

// MailQueueDepth tracks the number of queued verification emails per
// dispatcher worker.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var MailQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "mail_queue_depth",
		Help:      "Current number of emails pending in each mail dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
