package sink

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/iskng/imessage-exporter/internal"
)

// SocketSink streams batches to a peer over a unix domain socket. The
// connection is opened once and used for sequential request/reply exchanges.
type SocketSink struct {
	path string
	mu   sync.Mutex
	conn net.Conn
}

// NewSocketSink connects to the peer listening at path
func NewSocketSink(ctx context.Context, path string) (*SocketSink, error) {
	internal.LogInfo("Using Unix socket at: %s", path)

	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", path)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", path, err)
	}
	return &SocketSink{path: path, conn: conn}, nil
}

// Kind implements internal.Sink
func (s *SocketSink) Kind() string { return KindSocket }

// SetupSchema implements internal.Sink. The peer owns its schema.
func (s *SocketSink) SetupSchema(context.Context) error { return nil }

// InsertBatch sends one insert frame and waits for the peer's reply
func (s *SocketSink) InsertBatch(_ context.Context, records []*internal.TransportRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := WriteInsert(s.conn, records); err != nil {
		return fmt.Errorf("failed to send batch: %w", err)
	}
	if err := ReadReply(s.conn); err != nil {
		return fmt.Errorf("insert of %d records: %w", len(records), err)
	}
	return nil
}

// Flush sends a flush frame and waits for the peer's reply
func (s *SocketSink) Flush(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := WriteFlush(s.conn); err != nil {
		return fmt.Errorf("failed to send flush: %w", err)
	}
	if err := ReadReply(s.conn); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}

// MaterializeGraph implements internal.Sink. The peer derives the graph when
// it handles the flush, so nothing is reported here.
func (s *SocketSink) MaterializeGraph(context.Context) (*internal.GraphStats, error) {
	return &internal.GraphStats{}, nil
}

// Close closes the connection
func (s *SocketSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.Close()
}
