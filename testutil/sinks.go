package testutil

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/iskng/imessage-exporter/internal"
	"github.com/iskng/imessage-exporter/internal/store"
)

// RecordingSink is an internal.Sink that keeps every batch in memory and
// records the order of calls
type RecordingSink struct {
	mu      sync.Mutex
	Calls   []string
	Batches [][]*internal.TransportRecord
	Graph   internal.GraphStats

	// InsertErr, when set, is returned by InsertBatch
	InsertErr error
}

// Kind implements internal.Sink
func (s *RecordingSink) Kind() string { return "recording" }

// SetupSchema implements internal.Sink
func (s *RecordingSink) SetupSchema(context.Context) error {
	s.record("setup")
	return nil
}

// InsertBatch implements internal.Sink
func (s *RecordingSink) InsertBatch(_ context.Context, records []*internal.TransportRecord) error {
	s.record("insert")
	if s.InsertErr != nil {
		return s.InsertErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Batches = append(s.Batches, records)
	return nil
}

// Flush implements internal.Sink
func (s *RecordingSink) Flush(context.Context) error {
	s.record("flush")
	return nil
}

// MaterializeGraph implements internal.Sink
func (s *RecordingSink) MaterializeGraph(context.Context) (*internal.GraphStats, error) {
	s.record("graph")
	graph := s.Graph
	return &graph, nil
}

// Close implements internal.Sink
func (s *RecordingSink) Close() error {
	s.record("close")
	return nil
}

// Records returns every inserted record in order
func (s *RecordingSink) Records() []*internal.TransportRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []*internal.TransportRecord
	for _, b := range s.Batches {
		all = append(all, b...)
	}
	return all
}

func (s *RecordingSink) record(call string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls = append(s.Calls, call)
}

// CreateTestStore opens an embedded store with its schema in a temporary
// directory and returns it with the directory
func CreateTestStore(t *testing.T) (*store.Store, string) {
	t.Helper()
	dir := CreateTempDir(t)
	st, err := store.OpenSQLite(context.Background(), filepath.Join(dir, store.DatabaseFile))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	if err := st.SetupSchema(context.Background()); err != nil {
		t.Fatalf("Failed to set up schema: %v", err)
	}
	return st, dir
}
