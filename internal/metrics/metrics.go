// Package metrics exposes Prometheus metrics for session tracking and delivery.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SessionsClosedTotal counts closed listening sessions by close reason
	// and whether a record was emitted (sessions below the minimum duration
	// are closed without a record).
	SessionsClosedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aircheck_sessions_closed_total",
		Help: "Closed listening sessions by close reason and record emission",
	}, []string{"reason", "recorded"})

	// ActiveSessions tracks whether a listening session is currently active.
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "aircheck_active_sessions",
		Help: "Number of currently active listening sessions (0 or 1)",
	})

	// DeliveriesTotal counts session record delivery attempts by mode and result.
	DeliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aircheck_deliveries_total",
		Help: "Session record delivery attempts by mode and result",
	}, []string{"mode", "result"})
)

// ObserveSessionClosed records a session close.
func ObserveSessionClosed(reason string, recorded bool) {
	SessionsClosedTotal.WithLabelValues(reason, strconv.FormatBool(recorded)).Inc()
}

// SetSessionActive records whether a session is currently active.
func SetSessionActive(active bool) {
	if active {
		ActiveSessions.Set(1)
	} else {
		ActiveSessions.Set(0)
	}
}

// ObserveDelivery records a delivery attempt outcome.
func ObserveDelivery(mode string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	DeliveriesTotal.WithLabelValues(mode, result).Inc()
}
