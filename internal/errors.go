package internal

import (
	"errors"
	"fmt"
)

var (
	// ErrNoPayload is returned when an app message carries no payload to decode
	ErrNoPayload = errors.New("no payload")
	// ErrWrongMessageType is returned when a non-app message is formatted as an app balloon
	ErrWrongMessageType = errors.New("message is not an app message")
)

// PayloadDecodeError represents a malformed app balloon payload
type PayloadDecodeError struct {
	Kind string // balloon kind being decoded, if known
	Err  error
}

func (e *PayloadDecodeError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("payload decode error: %v", e.Err)
	}
	return fmt.Sprintf("payload decode error [%s]: %v", e.Kind, e.Err)
}

func (e *PayloadDecodeError) Unwrap() error {
	return e.Err
}

// RenderError represents a failure to render a single message
type RenderError struct {
	GUID string
	Err  error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render error [%s]: %v", e.GUID, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// SourceError represents errors reading from the message archive
type SourceError struct {
	Op  string // "count", "stream", "open"
	Err error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source error: %s: %v", e.Op, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// SinkTransportError represents a failed sink operation
type SinkTransportError struct {
	Sink string // "embedded", "http", "socket"
	Op   string // "setup", "insert", "flush", "close"
	Err  error
}

func (e *SinkTransportError) Error() string {
	return fmt.Sprintf("sink error [%s] %s: %v", e.Sink, e.Op, e.Err)
}

func (e *SinkTransportError) Unwrap() error {
	return e.Err
}

// GraphMaterializeError represents a failed graph materialization pass
type GraphMaterializeError struct {
	Sink string
	Err  error
}

func (e *GraphMaterializeError) Error() string {
	return fmt.Sprintf("graph materialization error [%s]: %v", e.Sink, e.Err)
}

func (e *GraphMaterializeError) Unwrap() error {
	return e.Err
}

// ExportError represents errors writing transcript files
type ExportError struct {
	Format string
	Path   string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [%s] %s: %v", e.Format, e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}
