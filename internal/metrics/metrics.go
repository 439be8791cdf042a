package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Workflow metrics
	WorkflowCounter  *prometheus.CounterVec
	WorkflowDuration *prometheus.HistogramVec

	// Job metrics
	JobRunCounter *prometheus.CounterVec
	ReportGauge   *prometheus.GaugeVec

	initOnce sync.Once
)

// Init registers all collectors with the default registry. Only the first
// call has any effect.
func Init(namespace string) {
	initOnce.Do(func() {
		WorkflowCounter = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "workflow_total",
				Help:      "Total number of workflow invocations by outcome",
			},
			[]string{"operation", "outcome"},
		)

		WorkflowDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "workflow_duration_seconds",
				Help:      "Duration of workflow invocations in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		)

		JobRunCounter = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "job_runs_total",
				Help:      "Total number of scheduled job runs by result",
			},
			[]string{"job", "result"},
		)

		ReportGauge = promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "report_items",
				Help:      "Number of items found by the last run of a report",
			},
			[]string{"report"},
		)
	})
}

// ObserveWorkflow records one workflow outcome; outcome is "ok" or an error kind.
// It is a no-op until Init has been called.
func ObserveWorkflow(operation, outcome string, started time.Time) {
	if WorkflowCounter == nil {
		return
	}
	WorkflowCounter.WithLabelValues(operation, outcome).Inc()
	WorkflowDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

func ObserveJob(job string, err error) {
	if JobRunCounter == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	JobRunCounter.WithLabelValues(job, result).Inc()
}

func SetReportItems(report string, n int) {
	if ReportGauge == nil {
		return
	}
	ReportGauge.WithLabelValues(report).Set(float64(n))
}
