package worker

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts drain activity. Register once per process.
type Metrics struct {
	PassesRun       prometheus.Counter
	PassesSkipped   prometheus.Counter
	JobsSucceeded   prometheus.Counter
	JobsRescheduled prometheus.Counter
	JobsFailed      prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PassesRun: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "retry_worker_passes_total",
			Help: "Drain passes that ran to completion.",
		}),
		PassesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "retry_worker_passes_skipped_total",
			Help: "Drain passes skipped because one was already running or another instance held the lease.",
		}),
		JobsSucceeded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "retry_worker_jobs_succeeded_total",
			Help: "Retry jobs whose analysis call succeeded.",
		}),
		JobsRescheduled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "retry_worker_jobs_rescheduled_total",
			Help: "Retry jobs rescheduled after a failed attempt.",
		}),
		JobsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "retry_worker_jobs_failed_total",
			Help: "Retry jobs that exhausted their attempts.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.PassesRun, m.PassesSkipped, m.JobsSucceeded, m.JobsRescheduled, m.JobsFailed)
	}
	return m
}

// NopMetrics returns unregistered counters for callers that do not scrape.
func NopMetrics() *Metrics {
	return NewMetrics(nil)
}
