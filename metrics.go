package gxrpc

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	framesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gxrpc",
			Subsystem: "frames",
			Name:      "total",
			Help:      "Total protocol frames by direction and status.",
		},
		[]string{"direction", "status"},
	)
	droppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gxrpc",
			Subsystem: "frames",
			Name:      "dropped_total",
			Help:      "Frames dropped before dispatch.",
		},
		[]string{"reason"},
	)
	ackTimeoutsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "gxrpc",
			Subsystem: "publish",
			Name:      "ack_timeouts_total",
			Help:      "Publishes that gave up waiting for an acknowledgement.",
		},
	)
	wireBytesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gxrpc",
			Subsystem: "wire",
			Name:      "bytes_total",
			Help:      "Raw wire bytes by direction, escapes included.",
		},
		[]string{"direction"},
	)
)

// RegisterMetrics registers the protocol collectors with the default
// Prometheus registry. It is called lazily by the engine and is safe to call
// more than once.
func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(framesTotal, droppedTotal, ackTimeoutsTotal, wireBytesTotal)
	})
}

func recordFrame(direction string, status Status) {
	RegisterMetrics()
	framesTotal.WithLabelValues(direction, status.String()).Inc()
}

func recordDropped(reason string) {
	RegisterMetrics()
	droppedTotal.WithLabelValues(reason).Inc()
}

func recordAckTimeout() {
	RegisterMetrics()
	ackTimeoutsTotal.Inc()
}

func recordWireBytes(direction string, n int) {
	RegisterMetrics()
	wireBytesTotal.WithLabelValues(direction).Add(float64(n))
}
