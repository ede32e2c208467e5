package ingest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the bridge counters.
type Metrics struct {
	TicksForwarded *prometheus.CounterVec
	FramesDropped  *prometheus.CounterVec
	Sessions       prometheus.Counter
	SinkErrors     prometheus.Counter
}

// NewMetrics creates the bridge counters and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		TicksForwarded: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "janus",
			Name:      "ticks_forwarded_total",
			Help:      "Quote ticks written to the sink.",
		}, []string{"product"}),
		FramesDropped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "janus",
			Name:      "frames_dropped_total",
			Help:      "Quote frames dropped before reaching the sink.",
		}, []string{"reason"}),
		Sessions: f.NewCounter(prometheus.CounterOpts{
			Namespace: "janus",
			Name:      "sessions_total",
			Help:      "Streaming sessions opened.",
		}),
		SinkErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: "janus",
			Name:      "sink_errors_total",
			Help:      "Failed sink writes.",
		}),
	}
}
