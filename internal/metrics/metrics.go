package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the counters and gauges for the download loop
type Metrics struct {
	Downloads      *prometheus.CounterVec
	FetchErrors    *prometheus.CounterVec
	StoreErrors    prometheus.Counter
	Evictions      prometheus.Counter
	PoolImages     prometheus.Gauge
	QuotaRemaining prometheus.Gauge
}

// New initializes and registers the download loop metrics
func New() *Metrics {
	return &Metrics{
		Downloads: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "splashpool_downloads_total",
			Help: "Number of downloaded images, partitioned by topic.",
		}, []string{"topic"}),
		FetchErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "splashpool_fetch_errors_total",
			Help: "Number of failed fetches from the photo provider, partitioned by topic.",
		}, []string{"topic"}),
		StoreErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "splashpool_store_errors_total",
			Help: "Number of images that could not be persisted to storage.",
		}),
		Evictions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "splashpool_evictions_total",
			Help: "Number of images evicted from the pool to stay within the image cap.",
		}),
		PoolImages: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "splashpool_pool_images",
			Help: "Number of images currently in the pool.",
		}),
		QuotaRemaining: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "splashpool_quota_remaining",
			Help: "Remaining provider call slots in the current rate limit window.",
		}),
	}
}
