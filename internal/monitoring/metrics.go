package monitoring

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Decoder metrics
	SamplesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "powerlog_samples_total",
		Help: "Total number of measurement samples decoded",
	})
	InputEdgesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "powerlog_input_edges_total",
		Help: "Total number of digital input transitions, by edge direction",
	}, []string{"edge"})
	MalformedUnitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "powerlog_malformed_units_total",
		Help: "Total number of out-of-range binary units discarded",
	})

	// Delivery metrics
	QueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "powerlog_queue_depth",
		Help: "Number of measurements waiting in the delivery channel",
	})
	SinkWritesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "powerlog_sink_writes_total",
		Help: "Total number of measurements written to the sink",
	})
	SinkErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "powerlog_sink_errors_total",
		Help: "Total number of failed sink writes",
	})

	registerOnce sync.Once
)

// Edge label values for InputEdgesTotal.
const (
	EdgeFalling = "falling"
	EdgeRising  = "rising"
)

func init() {
	InitMetrics()
}

// InitMetrics registers all Prometheus collectors used by powerlog.
func InitMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			SamplesTotal,
			InputEdgesTotal,
			MalformedUnitsTotal,
			QueueDepth,
			SinkWritesTotal,
			SinkErrorsTotal,
		)
	})
}

// Handler returns an HTTP handler that exposes the registered Prometheus metrics.
func Handler() http.Handler {
	InitMetrics()
	return promhttp.Handler()
}
