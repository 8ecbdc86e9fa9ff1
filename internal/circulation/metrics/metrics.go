package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the circulation module.
// Tracks loan transitions, rejected operations, fines assessed on return,
// critical-section retries and lock fallbacks.
type Metrics struct {
	LoansCreated      prometheus.Counter
	LoansReturned     prometheus.Counter
	LoansRenewed      prometheus.Counter
	LoansDeleted      prometheus.Counter
	Rejections        *prometheus.CounterVec
	FinesAssessed     prometheus.Counter
	TxRetries         prometheus.Counter
	LockFallbacks     prometheus.Counter
	OperationDuration *prometheus.HistogramVec
}

// New registers the circulation metrics with reg.
// Pass prometheus.DefaultRegisterer in main; tests pass a fresh registry.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		LoansCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "circulation_loans_created_total",
			Help: "Total number of loans created",
		}),
		LoansReturned: factory.NewCounter(prometheus.CounterOpts{
			Name: "circulation_loans_returned_total",
			Help: "Total number of loans returned",
		}),
		LoansRenewed: factory.NewCounter(prometheus.CounterOpts{
			Name: "circulation_loans_renewed_total",
			Help: "Total number of loan renewals",
		}),
		LoansDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "circulation_loans_deleted_total",
			Help: "Total number of loans removed administratively",
		}),
		Rejections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "circulation_rejections_total",
			Help: "Rejected circulation operations by operation and error code",
		}, []string{"operation", "code"}),
		FinesAssessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "circulation_fines_assessed_total",
			Help: "Sum of fines settled on return, in currency units",
		}),
		TxRetries: factory.NewCounter(prometheus.CounterOpts{
			Name: "circulation_tx_retries_total",
			Help: "Critical sections retried after contention",
		}),
		LockFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "circulation_lock_fallbacks_total",
			Help: "Item locks taken in-process because the distributed lock was unavailable",
		}),
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "circulation_operation_duration_seconds",
			Help:    "Duration of circulation operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
	}
}

func (m *Metrics) IncrementLoansCreated() {
	m.LoansCreated.Inc()
}

func (m *Metrics) IncrementLoansReturned() {
	m.LoansReturned.Inc()
}

func (m *Metrics) IncrementLoansRenewed() {
	m.LoansRenewed.Inc()
}

func (m *Metrics) IncrementLoansDeleted() {
	m.LoansDeleted.Inc()
}

// IncrementRejection records an operation that failed with a domain error code.
func (m *Metrics) IncrementRejection(operation, code string) {
	m.Rejections.WithLabelValues(operation, code).Inc()
}

// AddFine records a settled fine; zero fines are ignored.
func (m *Metrics) AddFine(amount float64) {
	if amount > 0 {
		m.FinesAssessed.Add(amount)
	}
}

func (m *Metrics) IncrementTxRetries() {
	m.TxRetries.Inc()
}

func (m *Metrics) IncrementLockFallbacks() {
	m.LockFallbacks.Inc()
}

// ObserveOperation records the duration of an operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveOperation(operation string, start time.Time) {
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
