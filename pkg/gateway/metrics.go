package gateway

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/robotalks/xbee.go/pkg/link"
)

// NewRegistry creates a Prometheus Registry with the process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// MetricsHandler serves the metrics of reg.
func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// Metrics are the gateway metrics.
type Metrics struct {
	FramesReceived *prometheus.CounterVec // labels: type
	Published      *prometheus.CounterVec // labels: kind
	TxTotal        *prometheus.CounterVec // labels: result=ok|failed|rejected|invalid
	TxLatency      prometheus.Histogram
	MQTTConnected  prometheus.Gauge
}

// NewMetrics registers and returns the gateway metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FramesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "xbee_frames_received_total",
			Help: "Frames received from the radio by frame type.",
		}, []string{"type"}),
		Published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "xbee_mqtt_published_total",
			Help: "Messages published to the broker by kind.",
		}, []string{"kind"}),
		TxTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "xbee_tx_total",
			Help: "Transmit requests by result.",
		}, []string{"result"}),
		TxLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "xbee_tx_latency_seconds",
			Help:    "Time from sending a transmit request to its status.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 10),
		}),
		MQTTConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "xbee_mqtt_connected",
			Help: "1 when connected to the broker.",
		}),
	}
	reg.MustRegister(m.FramesReceived, m.Published, m.TxTotal, m.TxLatency, m.MQTTConnected)
	return m
}

// RegisterLinkStats exports the counters of a link.
func RegisterLinkStats(reg prometheus.Registerer, l *link.Link) {
	stat := func(name, help string, fn func(link.Stats) uint64) prometheus.Collector {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{Name: name, Help: help}, func() float64 {
			return float64(fn(l.Stats()))
		})
	}
	reg.MustRegister(
		stat("xbee_link_frames_in_total", "Frames decoded from the radio.", func(s link.Stats) uint64 { return s.FramesIn }),
		stat("xbee_link_frames_out_total", "Frames encoded to the radio.", func(s link.Stats) uint64 { return s.FramesOut }),
		stat("xbee_link_frame_errors_total", "Frames dropped by the decoder.", func(s link.Stats) uint64 { return s.FrameErrors }),
		stat("xbee_link_resyncs_total", "Times the decoder scanned for a start delimiter.", func(s link.Stats) uint64 { return s.Resyncs }),
	)
}
