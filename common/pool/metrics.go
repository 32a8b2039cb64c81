package pool

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// cacheMetrics Prometheus指标，registerer为nil时不注册
type cacheMetrics struct {
	created  prometheus.Counter
	failed   prometheus.Counter
	evicted  *prometheus.CounterVec
	active   prometheus.Gauge
	leaseDur prometheus.Histogram
}

func newCacheMetrics(reg prometheus.Registerer) *cacheMetrics {
	factory := promauto.With(reg)
	return &cacheMetrics{
		created: factory.NewCounter(prometheus.CounterOpts{
			Name: "datasource_pool_created_total",
			Help: "Total number of pooled data sources created",
		}),
		failed: factory.NewCounter(prometheus.CounterOpts{
			Name: "datasource_pool_create_failed_total",
			Help: "Total number of failed pooled data source creations",
		}),
		evicted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "datasource_pool_evicted_total",
				Help: "Total number of pooled data sources removed from the cache",
			},
			[]string{"reason"},
		),
		active: factory.NewGauge(prometheus.GaugeOpts{
			Name: "datasource_pool_active",
			Help: "Number of pooled data sources currently cached",
		}),
		leaseDur: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "datasource_pool_lease_seconds",
			Help:    "Time spent leasing a connection from a pooled data source",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
