package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// WorkerMetrics covers the background reminder sweeps.
type WorkerMetrics struct {
	SweepsTotal           prometheus.Counter
	SweepDuration         prometheus.Histogram
	AppointmentReminders  prometheus.Counter
	DoseReminders         *prometheus.CounterVec
	ReminderFailures      *prometheus.CounterVec
}

func NewWorkerMetrics(namespace string) *WorkerMetrics {
	return &WorkerMetrics{
		SweepsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminder_sweeps_total",
			Help:      "Total number of reminder sweeps executed",
		}),
		SweepDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reminder_sweep_duration_seconds",
			Help:      "Time spent per reminder sweep",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		AppointmentReminders: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "appointment_reminders_sent_total",
			Help:      "Total appointment reminders sent",
		}),
		DoseReminders: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dose_reminders_sent_total",
			Help:      "Total dose reminders sent, by window",
		}, []string{"window"}),
		ReminderFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminder_failures_total",
			Help:      "Total reminder failures, by kind",
		}, []string{"kind"}),
	}
}
