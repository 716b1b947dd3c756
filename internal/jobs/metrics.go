package jobs

import "github.com/prometheus/client_golang/prometheus"

var (
	jobsSubmittedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "falbridge",
			Subsystem: "jobs",
			Name:      "submissions_total",
			Help:      "Total job submissions per endpoint",
		},
		[]string{"endpoint"},
	)

	jobFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "falbridge",
			Subsystem: "jobs",
			Name:      "failures_total",
			Help:      "Total failed jobs per endpoint (submission or terminal failure)",
		},
		[]string{"endpoint"},
	)
)

func init() {
	prometheus.MustRegister(jobsSubmittedTotal, jobFailuresTotal)
}
