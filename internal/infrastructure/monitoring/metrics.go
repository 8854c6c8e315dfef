package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	paymentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coop_loan_payments_total",
		Help: "Total number of loan payment attempts by outcome.",
	}, []string{"status"})

	loansCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coop_loans_created_total",
		Help: "Total number of loan creation attempts by outcome.",
	}, []string{"status"})

	clearancesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coop_loan_clearances_total",
		Help: "Total number of loan clearance attempts by outcome.",
	}, []string{"status"})

	penaltiesAppliedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coop_late_penalties_applied_total",
		Help: "Total number of late payment penalties created by the sweep.",
	})

	eventsConsumedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coop_events_consumed_total",
		Help: "Total number of audit events read from the broker by outcome.",
	}, []string{"type", "status"})

	dbQueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "coop_db_query_duration_seconds",
		Help:    "Duration of database queries in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "status"})

	batchJobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "coop_batch_job_duration_seconds",
		Help:    "Duration of batch job runs in seconds.",
		Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
	}, []string{"job", "status"})
)

func RecordPayment(status string) {
	paymentsTotal.WithLabelValues(status).Inc()
}

func RecordLoanCreated(status string) {
	loansCreatedTotal.WithLabelValues(status).Inc()
}

func RecordClearance(status string) {
	clearancesTotal.WithLabelValues(status).Inc()
}

func RecordPenaltiesApplied(n int) {
	if n > 0 {
		penaltiesAppliedTotal.Add(float64(n))
	}
}

func RecordEventConsumed(eventType, status string) {
	eventsConsumedTotal.WithLabelValues(eventType, status).Inc()
}

func RecordDBQuery(operation, status string, duration time.Duration) {
	dbQueryDuration.WithLabelValues(operation, status).Observe(duration.Seconds())
}

func RecordBatchJob(job, status string, duration time.Duration) {
	batchJobDuration.WithLabelValues(job, status).Observe(duration.Seconds())
}
