package peer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts the traffic a peer has handled
type Metrics struct {
	RecordsReceived *prometheus.CounterVec
	Batches         *prometheus.CounterVec
	Flushes         *prometheus.CounterVec
	Failures        *prometheus.CounterVec
	GraphPersons    prometheus.Gauge
	GraphThreads    prometheus.Gauge
}

// NewMetrics registers the peer metrics with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		RecordsReceived: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "imessage_peer_records_received_total",
				Help: "Total number of records received",
			},
			[]string{"transport"},
		),
		Batches: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "imessage_peer_batches_total",
				Help: "Total number of insert batches stored",
			},
			[]string{"transport"},
		),
		Flushes: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "imessage_peer_flushes_total",
				Help: "Total number of flushes handled",
			},
			[]string{"transport"},
		),
		Failures: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "imessage_peer_failures_total",
				Help: "Total number of failed requests",
			},
			[]string{"transport", "op"},
		),
		GraphPersons: f.NewGauge(prometheus.GaugeOpts{
			Name: "imessage_peer_graph_persons",
			Help: "Persons in the graph after the last flush",
		}),
		GraphThreads: f.NewGauge(prometheus.GaugeOpts{
			Name: "imessage_peer_graph_threads",
			Help: "Threads in the graph after the last flush",
		}),
	}
}
