package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "otpic",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "otpic",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
	codecOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "otpic",
			Subsystem: "codec",
			Name:      "operations_total",
			Help:      "Typed marshal, unmarshal, insert and extract operations.",
		},
		[]string{"type", "op", "result"},
	)
	anyPayloadBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "otpic",
			Subsystem: "any",
			Name:      "payload_bytes",
			Help:      "Encoded payload size of values inserted into an Any.",
			Buckets:   prometheus.ExponentialBuckets(8, 2, 12),
		},
		[]string{"type"},
	)
	descriptorBuilds = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "otpic",
			Subsystem: "typecode",
			Name:      "descriptor_builds_total",
			Help:      "TypeCode descriptor constructions; one per type per process.",
		},
		[]string{"type"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, codecOperations, anyPayloadBytes, descriptorBuilds)
	})
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}

// RecordCodec counts one typed codec operation. result is "ok" or the
// error kind label.
func RecordCodec(typeName, op, result string) {
	RegisterMetrics()
	codecOperations.WithLabelValues(typeName, op, result).Inc()
}

func RecordAnyPayload(typeName string, size int) {
	RegisterMetrics()
	anyPayloadBytes.WithLabelValues(typeName).Observe(float64(size))
}

func RecordDescriptorBuild(typeName string) {
	RegisterMetrics()
	descriptorBuilds.WithLabelValues(typeName).Inc()
}
