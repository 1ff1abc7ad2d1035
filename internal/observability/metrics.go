// Package observability owns the client's prometheus metrics.
package observability

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	frames = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "onemectl",
			Subsystem: "session",
			Name:      "frames_total",
			Help:      "Wire frames by direction.",
		},
		[]string{"direction"},
	)
	frameBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "onemectl",
			Subsystem: "session",
			Name:      "frame_bytes_total",
			Help:      "Wire bytes by direction, headers included.",
		},
		[]string{"direction"},
	)
	requests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "onemectl",
			Subsystem: "session",
			Name:      "requests_total",
			Help:      "Requests by opcode and outcome.",
		},
		[]string{"opcode", "outcome"},
	)
	payloadDrops = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "onemectl",
			Subsystem: "session",
			Name:      "payload_drops_total",
			Help:      "Inbound payloads dropped by decode stage.",
		},
		[]string{"stage"},
	)
	keepaliveFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "onemectl",
			Subsystem: "session",
			Name:      "keepalive_failures_total",
			Help:      "Keepalive pings that errored or timed out.",
		},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(frames, frameBytes, requests, payloadDrops, keepaliveFailures)
	})
}

func RecordFrame(direction string, size int) {
	RegisterMetrics()
	frames.WithLabelValues(direction).Inc()
	frameBytes.WithLabelValues(direction).Add(float64(size))
}

func RecordRequest(opcode uint16, outcome string) {
	RegisterMetrics()
	requests.WithLabelValues(strconv.Itoa(int(opcode)), outcome).Inc()
}

func RecordPayloadDrop(stage string) {
	RegisterMetrics()
	payloadDrops.WithLabelValues(stage).Inc()
}

func RecordKeepaliveFailure() {
	RegisterMetrics()
	keepaliveFailures.Inc()
}
