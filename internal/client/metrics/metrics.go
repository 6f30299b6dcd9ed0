// Package metrics exposes Prometheus counters for authentication outcomes and
// transferred bytes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "objsync"

// OutcomeSuccess is the auth outcome label for results without an error.
const OutcomeSuccess = "success"

type Metrics struct {
	AuthResults   *prometheus.CounterVec
	TransferBytes *prometheus.CounterVec
}

// New creates the counters and registers them with reg. A nil reg leaves them
// unregistered, which is what tests and embedded uses usually want.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AuthResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_results_total",
			Help:      "Authenticate calls by outcome (success or error kind).",
		}, []string{"outcome"}),
		TransferBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transfer_bytes_total",
			Help:      "Bytes moved by transfer sessions, by direction.",
		}, []string{"direction"}),
	}
	if reg != nil {
		reg.MustRegister(m.AuthResults, m.TransferBytes)
	}
	return m
}

// AuthOutcome counts one authenticate result.
func (m *Metrics) AuthOutcome(outcome string) {
	m.AuthResults.WithLabelValues(outcome).Inc()
}

// Transferred counts n bytes in the given direction.
func (m *Metrics) Transferred(direction string, n int) {
	if n > 0 {
		m.TransferBytes.WithLabelValues(direction).Add(float64(n))
	}
}
