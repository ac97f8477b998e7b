package internal

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
)

const maxArchiveLine = 64 * 1024 * 1024

// Envelope types found in an archive dump
const (
	EnvelopeHandle  = "handle"
	EnvelopeChat    = "chat"
	EnvelopeMessage = "message"
)

// ArchiveEnvelope is one line of an archive dump
type ArchiveEnvelope struct {
	Type    string      `json:"type"`
	Handle  *Handle     `json:"handle,omitempty"`
	Chat    *Chat       `json:"chat,omitempty"`
	Message *RawMessage `json:"message,omitempty"`
}

// ArchiveStore reads an archive dump: a JSON Lines file of handle, chat and
// message envelopes with every value already decoded
type ArchiveStore struct {
	path      string
	directory *Directory
}

// OpenArchive indexes the dump at path. Participants, chats, reactions and
// replies are loaded up front; messages are streamed on demand.
func OpenArchive(path string, opts ...DirectoryOption) (*ArchiveStore, error) {
	s := &ArchiveStore{
		path:      path,
		directory: NewDirectory(opts...),
	}

	err := s.scan(context.Background(), func(env *ArchiveEnvelope) error {
		switch env.Type {
		case EnvelopeHandle:
			if env.Handle != nil {
				s.directory.AddHandle(*env.Handle)
			}
		case EnvelopeChat:
			if env.Chat != nil {
				s.directory.AddChat(*env.Chat)
			}
		case EnvelopeMessage:
			if env.Message != nil {
				s.directory.Index(env.Message)
			}
		default:
			LogDebug("Skipping unknown envelope type %q", env.Type)
		}
		return nil
	})
	if err != nil {
		return nil, &SourceError{Op: "open", Err: err}
	}

	s.directory.Deduplicate()
	return s, nil
}

// Directory returns the resolver built from the archive
func (s *ArchiveStore) Directory() *Directory {
	return s.directory
}

// Path returns the location of the archive dump
func (s *ArchiveStore) Path() string {
	return s.path
}

// Count returns the number of messages matching filter
func (s *ArchiveStore) Count(ctx context.Context, filter QueryFilter) (int, error) {
	total := 0
	err := s.scan(ctx, func(env *ArchiveEnvelope) error {
		if env.Type == EnvelopeMessage && env.Message != nil && filter.Matches(env.Message) {
			total++
		}
		return nil
	})
	if err != nil {
		return 0, &SourceError{Op: "count", Err: err}
	}
	return total, nil
}

// Stream yields messages matching filter in archive order
func (s *ArchiveStore) Stream(ctx context.Context, filter QueryFilter) iter.Seq2[*RawMessage, error] {
	return func(yield func(*RawMessage, error) bool) {
		stopped := false
		err := s.scan(ctx, func(env *ArchiveEnvelope) error {
			if env.Type != EnvelopeMessage || env.Message == nil || !filter.Matches(env.Message) {
				return nil
			}
			if !yield(env.Message, nil) {
				stopped = true
				return errStopScan
			}
			return nil
		})
		if err != nil && !stopped {
			yield(nil, &SourceError{Op: "stream", Err: err})
		}
	}
}

var errStopScan = errors.New("scan stopped")

func (s *ArchiveStore) scan(ctx context.Context, fn func(env *ArchiveEnvelope) error) error {
	f, err := os.Open(s.path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxArchiveLine)

	line := 0
	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return err
		}
		data := scanner.Bytes()
		if len(data) == 0 {
			continue
		}

		var env ArchiveEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if err := fn(&env); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// ArchiveWriter writes an archive dump readable by OpenArchive
type ArchiveWriter struct {
	enc *json.Encoder
}

// NewArchiveWriter creates an ArchiveWriter writing to w
func NewArchiveWriter(w io.Writer) *ArchiveWriter {
	return &ArchiveWriter{enc: json.NewEncoder(w)}
}

// WriteHandle writes a handle envelope
func (w *ArchiveWriter) WriteHandle(h Handle) error {
	return w.enc.Encode(ArchiveEnvelope{Type: EnvelopeHandle, Handle: &h})
}

// WriteChat writes a chat envelope
func (w *ArchiveWriter) WriteChat(c Chat) error {
	return w.enc.Encode(ArchiveEnvelope{Type: EnvelopeChat, Chat: &c})
}

// WriteMessage writes a message envelope
func (w *ArchiveWriter) WriteMessage(m *RawMessage) error {
	return w.enc.Encode(ArchiveEnvelope{Type: EnvelopeMessage, Message: m})
}
