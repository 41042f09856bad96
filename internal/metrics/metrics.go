package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var HouseProvisionCounter = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "casa360_house_provision_total",
		Help: "Total number of house database provisioning attempts by outcome",
	},
	[]string{"outcome"},
)

var HouseProvisionDuration = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "casa360_house_provision_duration_seconds",
		Help:    "Duration of house database provisioning",
		Buckets: prometheus.DefBuckets,
	},
)

var CleanupFailureCounter = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "casa360_house_cleanup_failure_total",
		Help: "Total number of failed drop-compensation attempts after a provisioning error",
	},
)

var TenantPoolsGauge = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "casa360_tenant_pools",
		Help: "Number of tenant connection pools currently cached",
	},
)

var TenantPoolEvictions = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "casa360_tenant_pool_evictions_total",
		Help: "Total number of tenant pools evicted from the registry",
	},
)

var RequestDurationHistogram = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "casa360_http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"method", "path", "status"},
)

func init() {
	prometheus.MustRegister(HouseProvisionCounter)
	prometheus.MustRegister(HouseProvisionDuration)
	prometheus.MustRegister(CleanupFailureCounter)
	prometheus.MustRegister(TenantPoolsGauge)
	prometheus.MustRegister(TenantPoolEvictions)
	prometheus.MustRegister(RequestDurationHistogram)
}

func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveRequest records one handled HTTP request.
func ObserveRequest(method, path string, status int, start time.Time) {
	RequestDurationHistogram.
		WithLabelValues(method, path, strconv.Itoa(status)).
		Observe(time.Since(start).Seconds())
}
