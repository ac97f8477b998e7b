package peer

import (
	"context"
	"fmt"

	"github.com/iskng/imessage-exporter/internal"
)

// Transport labels
const (
	TransportHTTP   = "http"
	TransportSocket = "socket"
)

// Backend applies received batches to a local sink. Both servers share one
// Backend; the sink serializes access to its store.
type Backend struct {
	sink    internal.Sink
	metrics *Metrics
}

// NewBackend creates a Backend writing to sink
func NewBackend(sink internal.Sink, metrics *Metrics) *Backend {
	return &Backend{sink: sink, metrics: metrics}
}

// Insert stores one batch
func (b *Backend) Insert(ctx context.Context, transport string, records []*internal.TransportRecord) error {
	b.metrics.RecordsReceived.WithLabelValues(transport).Add(float64(len(records)))
	if err := b.sink.InsertBatch(ctx, records); err != nil {
		b.metrics.Failures.WithLabelValues(transport, "insert").Inc()
		internal.LogError("Failed to store batch of %d records: %v", len(records), err)
		return err
	}
	b.metrics.Batches.WithLabelValues(transport).Inc()
	internal.LogDebug("Stored batch of %d records via %s", len(records), transport)
	return nil
}

// Flush makes received batches durable and materializes the graph
func (b *Backend) Flush(ctx context.Context, transport string) (*internal.GraphStats, error) {
	b.metrics.Flushes.WithLabelValues(transport).Inc()
	if err := b.sink.Flush(ctx); err != nil {
		b.metrics.Failures.WithLabelValues(transport, "flush").Inc()
		return nil, fmt.Errorf("flush failed: %w", err)
	}

	graph, err := b.sink.MaterializeGraph(ctx)
	if err != nil {
		b.metrics.Failures.WithLabelValues(transport, "graph").Inc()
		return nil, fmt.Errorf("graph materialization failed: %w", err)
	}
	b.metrics.GraphPersons.Set(float64(graph.TotalPersons))
	b.metrics.GraphThreads.Set(float64(graph.TotalThreads))
	internal.LogInfo("Graph updated: %d persons, %d threads", graph.TotalPersons, graph.TotalThreads)
	return graph, nil
}
