package internal

import (
	"context"
	"errors"
	"time"
)

// DefaultBatchSize is the number of records buffered before a sink insert
const DefaultBatchSize = 1000

// Sink receives batches of TransportRecords and derives the relationship graph
type Sink interface {
	// Kind names the sink implementation, such as "embedded"
	Kind() string
	// SetupSchema declares the collections the sink writes to. It is idempotent.
	SetupSchema(ctx context.Context) error
	// InsertBatch stores records. A failure means none of the batch may be assumed stored.
	InsertBatch(ctx context.Context, records []*TransportRecord) error
	// Flush is a durability barrier
	Flush(ctx context.Context) error
	// MaterializeGraph derives persons, threads and their edges from stored messages
	MaterializeGraph(ctx context.Context) (*GraphStats, error)
	Close() error
}

// Renderer renders a message into its transcript entry
type Renderer interface {
	Render(m *RawMessage) (string, error)
}

// RecordObserver is notified of every record the pipeline produces
type RecordObserver interface {
	Observe(rec *TransportRecord)
}

// Pipeline streams messages from a store, renders them and hands batches of
// records to a sink
type Pipeline struct {
	store     MessageStore
	renderer  Renderer
	builder   *RecordBuilder
	sink      Sink
	observers []RecordObserver
	progress  ProgressReporter
	batchSize int
}

// PipelineOption configures a Pipeline
type PipelineOption func(*Pipeline)

// WithSink sets the sink batches are written to
func WithSink(sink Sink) PipelineOption {
	return func(p *Pipeline) {
		p.sink = sink
	}
}

// WithObserver adds a record observer
func WithObserver(o RecordObserver) PipelineOption {
	return func(p *Pipeline) {
		p.observers = append(p.observers, o)
	}
}

// WithProgress sets the progress reporter
func WithProgress(r ProgressReporter) PipelineOption {
	return func(p *Pipeline) {
		p.progress = r
	}
}

// WithBatchSize overrides DefaultBatchSize. Values below 1 are ignored.
func WithBatchSize(n int) PipelineOption {
	return func(p *Pipeline) {
		if n > 0 {
			p.batchSize = n
		}
	}
}

// NewPipeline creates a Pipeline
func NewPipeline(store MessageStore, renderer Renderer, builder *RecordBuilder, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		store:     store,
		renderer:  renderer,
		builder:   builder,
		progress:  nopProgress{},
		batchSize: DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run exports every message matching filter. Render failures are counted and
// skipped; source, sink and graph failures abort the run.
func (p *Pipeline) Run(ctx context.Context, filter QueryFilter) (*ExportStats, error) {
	start := time.Now()

	total, err := p.store.Count(ctx, filter)
	if err != nil {
		return nil, asSourceError("count", err)
	}
	stats := &ExportStats{Total: total}

	p.progress.Start(total)
	buffer := make([]*TransportRecord, 0, p.batchSize)

	for m, err := range p.store.Stream(ctx, filter) {
		if err != nil {
			p.progress.Finish()
			return stats, asSourceError("stream", err)
		}

		rendered, err := p.renderer.Render(m)
		if err != nil {
			stats.RenderFailures++
			LogWarn("Skipping message %s: %v", m.GUID, err)
			p.progress.Advance(1)
			continue
		}

		rec := p.builder.Build(m, rendered)
		for _, o := range p.observers {
			o.Observe(rec)
		}
		stats.Exported++
		p.progress.Advance(1)

		if p.sink == nil {
			continue
		}
		buffer = append(buffer, rec)
		if len(buffer) >= p.batchSize {
			if err := p.insert(ctx, buffer, stats); err != nil {
				p.progress.Finish()
				return stats, err
			}
			// The sink owns the handed-off slice
			buffer = make([]*TransportRecord, 0, p.batchSize)
		}
	}
	p.progress.Finish()

	if p.sink != nil {
		if len(buffer) > 0 {
			if err := p.insert(ctx, buffer, stats); err != nil {
				return stats, err
			}
		}
		if err := p.sink.Flush(ctx); err != nil {
			return stats, asSinkError(p.sink.Kind(), "flush", err)
		}

		err := ShowProgress(ctx, "Creating graph relations", func() error {
			graph, err := p.sink.MaterializeGraph(ctx)
			if err != nil {
				return err
			}
			stats.Graph = graph
			return nil
		})
		if err != nil {
			var graphErr *GraphMaterializeError
			if errors.As(err, &graphErr) {
				return stats, graphErr
			}
			return stats, &GraphMaterializeError{Sink: p.sink.Kind(), Err: err}
		}
	}

	stats.Duration = time.Since(start)
	return stats, nil
}

func (p *Pipeline) insert(ctx context.Context, batch []*TransportRecord, stats *ExportStats) error {
	LogDebug("Inserting batch of %d records", len(batch))
	if err := p.sink.InsertBatch(ctx, batch); err != nil {
		return asSinkError(p.sink.Kind(), "insert", err)
	}
	stats.Batches++
	return nil
}

func asSourceError(op string, err error) error {
	var srcErr *SourceError
	if errors.As(err, &srcErr) {
		return err
	}
	return &SourceError{Op: op, Err: err}
}

func asSinkError(kind, op string, err error) error {
	var sinkErr *SinkTransportError
	if errors.As(err, &sinkErr) {
		return err
	}
	return &SinkTransportError{Sink: kind, Op: op, Err: err}
}
