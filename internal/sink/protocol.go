package sink

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/iskng/imessage-exporter/internal"
)

// Socket wire protocol. A client sends an insert frame (command byte, 4-byte
// big-endian length, JSON array of records) or a flush frame (command byte
// only); the peer answers every frame with one reply byte.
const (
	CmdInsert  byte = 'I'
	CmdFlush   byte = 'F'
	ReplyOK    byte = 'K'
	ReplyError byte = 'E'
)

// MaxFrameSize bounds the payload of an insert frame
const MaxFrameSize = 256 << 20

// ErrPeerRejected is returned when the peer replies with ReplyError
var ErrPeerRejected = errors.New("peer replied with error")

// Frame is one decoded client command
type Frame struct {
	Command byte
	Payload []byte
}

// Records decodes the payload of an insert frame
func (f *Frame) Records() ([]*internal.TransportRecord, error) {
	var records []*internal.TransportRecord
	if err := json.Unmarshal(f.Payload, &records); err != nil {
		return nil, fmt.Errorf("invalid insert payload: %w", err)
	}
	return records, nil
}

// WriteInsert writes an insert frame carrying records
func WriteInsert(w io.Writer, records []*internal.TransportRecord) error {
	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode batch: %w", err)
	}
	if len(payload) > MaxFrameSize {
		return fmt.Errorf("batch of %d bytes exceeds frame limit", len(payload))
	}

	header := make([]byte, 5)
	header[0] = CmdInsert
	binary.BigEndian.PutUint32(header[1:], uint32(len(payload)))
	if _, err := w.Write(header); err != nil {
		return err
	}
	_, err = w.Write(payload)
	return err
}

// WriteFlush writes a flush frame
func WriteFlush(w io.Writer) error {
	_, err := w.Write([]byte{CmdFlush})
	return err
}

// ReadFrame reads one client frame
func ReadFrame(r io.Reader) (*Frame, error) {
	var cmd [1]byte
	if _, err := io.ReadFull(r, cmd[:]); err != nil {
		return nil, err
	}

	switch cmd[0] {
	case CmdFlush:
		return &Frame{Command: CmdFlush}, nil
	case CmdInsert:
		var size [4]byte
		if _, err := io.ReadFull(r, size[:]); err != nil {
			return nil, fmt.Errorf("failed to read frame length: %w", err)
		}
		n := binary.BigEndian.Uint32(size[:])
		if n > MaxFrameSize {
			return nil, fmt.Errorf("frame of %d bytes exceeds limit", n)
		}
		payload := make([]byte, n)
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, fmt.Errorf("failed to read frame payload: %w", err)
		}
		return &Frame{Command: CmdInsert, Payload: payload}, nil
	default:
		return nil, fmt.Errorf("unknown command byte 0x%02x", cmd[0])
	}
}

// WriteReply writes ReplyOK when err is nil, otherwise ReplyError
func WriteReply(w io.Writer, err error) error {
	reply := ReplyOK
	if err != nil {
		reply = ReplyError
	}
	_, werr := w.Write([]byte{reply})
	return werr
}

// ReadReply reads one reply byte and returns ErrPeerRejected for ReplyError
func ReadReply(r io.Reader) error {
	var reply [1]byte
	if _, err := io.ReadFull(r, reply[:]); err != nil {
		return fmt.Errorf("failed to read reply: %w", err)
	}
	switch reply[0] {
	case ReplyOK:
		return nil
	case ReplyError:
		return ErrPeerRejected
	default:
		return fmt.Errorf("unexpected reply byte 0x%02x", reply[0])
	}
}
