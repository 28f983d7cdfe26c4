// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// outcomeSuccess is the outcome label value for successful operations.
// Failures use their Reason.
const outcomeSuccess = "success"

// Metrics holds Prometheus collectors for the controller.
// A nil *Metrics records nothing.
type Metrics struct {
	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	LoggedIn          prometheus.Gauge
}

// NewMetrics creates and registers controller metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "holoauth_operations_total",
				Help: "Total number of session operations by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		OperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "holoauth_operation_duration_seconds",
				Help:    "Session operation latency including the remote call",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		LoggedIn: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "holoauth_session_logged_in",
				Help: "1 while a session token is held, 0 otherwise",
			},
		),
	}

	reg.MustRegister(m.OperationsTotal)
	reg.MustRegister(m.OperationDuration)
	reg.MustRegister(m.LoggedIn)

	return m
}

func (m *Metrics) observe(out Outcome, elapsed time.Duration) {
	if m == nil {
		return
	}
	label := outcomeSuccess
	if !out.OK() {
		label = string(out.Reason)
	}
	m.OperationsTotal.WithLabelValues(string(out.Operation), label).Inc()
	m.OperationDuration.WithLabelValues(string(out.Operation)).Observe(elapsed.Seconds())
}

func (m *Metrics) observeState(state State) {
	if m == nil {
		return
	}
	if state == LoggedIn {
		m.LoggedIn.Set(1)
		return
	}
	m.LoggedIn.Set(0)
}
