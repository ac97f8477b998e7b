package sink

import (
	"context"
	"errors"
	"sync"

	"github.com/iskng/imessage-exporter/internal"
	"github.com/iskng/imessage-exporter/internal/store"
)

var errSinkClosed = errors.New("sink is closed")

type storeOp func(ctx context.Context, st *store.Store) (*internal.GraphStats, error)

type embeddedRequest struct {
	ctx   context.Context
	op    storeOp
	reply chan embeddedReply
}

type embeddedReply struct {
	graph *internal.GraphStats
	err   error
}

// EmbeddedSink writes into a local store. A single worker goroutine owns the
// store and serves every call in submission order; each call blocks until the
// worker replies.
type EmbeddedSink struct {
	location string
	requests chan embeddedRequest
	done     chan struct{}

	mu       sync.RWMutex
	closed   bool
	closeErr error
}

// NewEmbeddedSink opens the store at ep and starts its worker
func NewEmbeddedSink(ctx context.Context, ep store.Endpoint) (*EmbeddedSink, error) {
	internal.LogInfo("Using database path: %s", ep)
	st, err := store.Open(ctx, ep)
	if err != nil {
		return nil, err
	}
	return NewEmbeddedSinkFromStore(st), nil
}

// NewEmbeddedSinkFromStore starts a worker around an open store. The sink
// takes ownership of st and closes it on Close.
func NewEmbeddedSinkFromStore(st *store.Store) *EmbeddedSink {
	s := &EmbeddedSink{
		location: st.Location(),
		requests: make(chan embeddedRequest),
		done:     make(chan struct{}),
	}
	go s.worker(st)
	return s
}

func (s *EmbeddedSink) worker(st *store.Store) {
	defer close(s.done)
	for req := range s.requests {
		graph, err := req.op(req.ctx, st)
		req.reply <- embeddedReply{graph: graph, err: err}
	}
	s.closeErr = st.Close()
}

func (s *EmbeddedSink) do(ctx context.Context, op storeOp) (*internal.GraphStats, error) {
	reply := make(chan embeddedReply, 1)

	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return nil, errSinkClosed
	}
	select {
	case s.requests <- embeddedRequest{ctx: ctx, op: op, reply: reply}:
	case <-ctx.Done():
		s.mu.RUnlock()
		return nil, ctx.Err()
	}
	s.mu.RUnlock()

	r := <-reply
	return r.graph, r.err
}

// Kind implements internal.Sink
func (s *EmbeddedSink) Kind() string { return KindEmbedded }

// Location returns the database the sink writes to
func (s *EmbeddedSink) Location() string { return s.location }

// SetupSchema implements internal.Sink
func (s *EmbeddedSink) SetupSchema(ctx context.Context) error {
	_, err := s.do(ctx, func(ctx context.Context, st *store.Store) (*internal.GraphStats, error) {
		return nil, st.SetupSchema(ctx)
	})
	return err
}

// InsertBatch implements internal.Sink
func (s *EmbeddedSink) InsertBatch(ctx context.Context, records []*internal.TransportRecord) error {
	_, err := s.do(ctx, func(ctx context.Context, st *store.Store) (*internal.GraphStats, error) {
		_, err := st.InsertMessages(ctx, records)
		return nil, err
	})
	return err
}

// Flush implements internal.Sink
func (s *EmbeddedSink) Flush(ctx context.Context) error {
	_, err := s.do(ctx, func(ctx context.Context, st *store.Store) (*internal.GraphStats, error) {
		return nil, st.Flush(ctx)
	})
	return err
}

// MaterializeGraph implements internal.Sink
func (s *EmbeddedSink) MaterializeGraph(ctx context.Context) (*internal.GraphStats, error) {
	return s.do(ctx, func(ctx context.Context, st *store.Store) (*internal.GraphStats, error) {
		return st.MaterializeGraph(ctx)
	})
}

// Close stops the worker and closes the store. It is safe to call more than once.
func (s *EmbeddedSink) Close() error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.requests)
	}
	s.mu.Unlock()

	<-s.done
	return s.closeErr
}
