package businessflow

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Generator collisions are expected to be near-zero; a rising rate means
	// the token entropy is misconfigured.
	collisionRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "qr_code_collision_retries_total",
		Help: "Number of code generation retries caused by duplicate tokens",
	})

	resolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qr_resolutions_total",
			Help: "Total public code resolutions partitioned by outcome",
		},
		[]string{"outcome"},
	)

	scanEnqueueDrops = promauto.NewCounter(prometheus.CounterOpts{
		Name: "qr_scan_enqueue_drops_total",
		Help: "Scan events dropped because the recorder queue was full",
	})
)
