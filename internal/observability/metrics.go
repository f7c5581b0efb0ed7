package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	framesDecoded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "swayctl",
			Subsystem: "ipc",
			Name:      "frames_total",
			Help:      "Frames decoded from the IPC socket.",
		},
		[]string{"kind", "type"},
	)
	headerErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "swayctl",
			Subsystem: "ipc",
			Name:      "header_errors_total",
			Help:      "Malformed frame headers skipped by the read loop.",
		},
	)
	skippedBytes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "swayctl",
			Subsystem: "ipc",
			Name:      "skipped_bytes_total",
			Help:      "Bytes discarded while resynchronising on the frame magic.",
		},
	)
	payloadErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "swayctl",
			Subsystem: "dispatch",
			Name:      "payload_errors_total",
			Help:      "Event payloads that could not be parsed.",
		},
		[]string{"event"},
	)
	deliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "swayctl",
			Subsystem: "dispatch",
			Name:      "deliveries_total",
			Help:      "Handler invocations by event and result.",
		},
		[]string{"event", "success"},
	)
	gatewayDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "swayctl",
			Subsystem: "gateway",
			Name:      "command_duration_seconds",
			Help:      "Message-send process duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"command", "success"},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "swayctl",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Requests served by the metrics endpoint.",
		},
		[]string{"method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "swayctl",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Metrics endpoint request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			framesDecoded,
			headerErrors,
			skippedBytes,
			payloadErrors,
			deliveries,
			gatewayDuration,
			httpRequests,
			httpDuration,
		)
	})
}

func RecordFrame(event bool, typ string) {
	RegisterMetrics()
	kind := "reply"
	if event {
		kind = "event"
	}
	framesDecoded.WithLabelValues(kind, typ).Inc()
}

func RecordHeaderError(skipped int) {
	RegisterMetrics()
	headerErrors.Inc()
	skippedBytes.Add(float64(skipped))
}

func RecordPayloadError(event string) {
	RegisterMetrics()
	payloadErrors.WithLabelValues(event).Inc()
}

func RecordDelivery(event string, success bool) {
	RegisterMetrics()
	deliveries.WithLabelValues(event, strconv.FormatBool(success)).Inc()
}

func RecordGatewayCommand(command string, duration time.Duration, success bool) {
	RegisterMetrics()
	gatewayDuration.WithLabelValues(command, strconv.FormatBool(success)).Observe(duration.Seconds())
}

func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}
