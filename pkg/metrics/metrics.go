package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SubmissionsTotal tracks submission attempts against the FBR API.
	// outcome: synced, queued, failed, retried. source: inline, worker.
	SubmissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fbr_submissions_total",
		Help: "Total FBR invoice submission attempts by outcome",
	}, []string{"outcome", "source"})

	// QueueBacklog is the number of pending/processing items in the retry queue.
	// The primary indicator of lag between the POS and the Authority.
	QueueBacklog = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fbr_queue_backlog",
		Help: "Current number of pending or processing items in the FBR retry queue",
	})

	// QueueTerminalFailures counts items that exhausted their retry budget.
	// Growth here means staff must correct the underlying sale data.
	QueueTerminalFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fbr_queue_terminal_failures_total",
		Help: "Total retry-queue items marked failed after exhausting max_retries",
	})

	// BatchDuration measures one full worker pass over a claimed batch.
	BatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fbr_worker_batch_duration_seconds",
		Help:    "Duration of one retry-queue batch in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// BatchSize tracks how many items each worker pass actually claimed.
	BatchSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fbr_worker_batch_size",
		Help:    "Number of retry-queue items claimed per batch",
		Buckets: []float64{1, 2, 5, 10, 25, 50},
	})

	// AuthorityRequestDuration measures latency of calls to the FBR endpoints.
	AuthorityRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fbr_authority_request_duration_seconds",
		Help:    "Latency of HTTP calls to the FBR API by endpoint",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})
)
