// Package metrics provides Prometheus instrumentation for the handshake server.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"websocket-handshake/internal/domain"
)

// Handshake results.
const (
	ResultAccepted    = "accepted"
	ResultRejected    = "rejected"
	ResultRateLimited = "rate_limited"
)

// Frame directions.
const (
	DirectionIn  = "in"
	DirectionOut = "out"
)

// Metrics holds the collectors exported by the server.
type Metrics struct {
	Handshakes        *prometheus.CounterVec
	HandshakeFailures *prometheus.CounterVec
	ActiveSessions    prometheus.Gauge
	Frames            *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
// A nil reg creates a private registry, which keeps tests independent.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "wshandshake"
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		Handshakes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "handshakes_total",
				Help:      "Opening handshakes by result",
			},
			[]string{"result"},
		),
		HandshakeFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "handshake_failures_total",
				Help:      "Rejected opening handshakes by violated clause",
			},
			[]string{"reason"},
		),
		ActiveSessions: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_sessions",
				Help:      "Number of open WebSocket sessions",
			},
		),
		Frames: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "frames_total",
				Help:      "WebSocket frames by opcode and direction",
			},
			[]string{"opcode", "direction"},
		),
	}
}

// ObserveHandshakeError records a rejected handshake under its clause.
func (m *Metrics) ObserveHandshakeError(err error) {
	m.Handshakes.WithLabelValues(ResultRejected).Inc()

	reason := "unknown"
	var herr *domain.HandshakeError
	if errors.As(err, &herr) {
		reason = herr.Err.Error()
	}
	m.HandshakeFailures.WithLabelValues(reason).Inc()
}

// ObserveFrame counts one frame.
func (m *Metrics) ObserveFrame(opcode domain.Opcode, direction string) {
	m.Frames.WithLabelValues(opcode.String(), direction).Inc()
}
