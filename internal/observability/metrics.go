// Package observability holds the Prometheus collectors exported on /metrics.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

var (
	movementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cellar",
		Name:      "movements_total",
		Help:      "Committed movements by type.",
	}, []string{"type"})

	litersMoved = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cellar",
		Name:      "liters_moved_total",
		Help:      "Liters carried by committed movements, by type.",
	}, []string{"type"})

	operationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cellar",
		Name:      "operation_errors_total",
		Help:      "Failed cellar operations by operation and error kind.",
	}, []string{"operation", "kind"})

	txDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "cellar",
		Name:      "tx_duration_seconds",
		Help:      "Duration of cellar transactions.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})

	idempotentReplays = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cellar",
		Name:      "idempotent_replays_total",
		Help:      "Requests answered from a stored idempotency key.",
	})
)

// RecordMovement counts one committed movement.
func RecordMovement(movementType string, liters decimal.Decimal) {
	movementsTotal.WithLabelValues(movementType).Inc()
	f, _ := liters.Float64()
	litersMoved.WithLabelValues(movementType).Add(f)
}

func RecordError(operation, kind string) {
	operationErrors.WithLabelValues(operation, kind).Inc()
}

// ObserveTx records how long operation's transaction took, starting at start.
func ObserveTx(operation string, start time.Time) {
	txDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func RecordReplay() { idempotentReplays.Inc() }
