package internal

import (
	"context"
	"iter"
)

// MessageStore yields raw messages from a message archive. Stream is
// forward-only and finite; callers that need a second pass call it again.
type MessageStore interface {
	Count(ctx context.Context, filter QueryFilter) (int, error)
	Stream(ctx context.Context, filter QueryFilter) iter.Seq2[*RawMessage, error]
}

// Resolver answers the cross-message questions asked while rendering:
// who a handle is, which reactions and replies point at a message, and
// which conversation a message belongs to.
type Resolver interface {
	Who(handleID int64, isFromMe bool, destinationCallerID string) string
	Reactions(guid string) (map[int][]*RawMessage, error)
	Replies(guid string) (map[int][]*RawMessage, error)
	Conversation(m *RawMessage) (*Chat, int64, bool)
	ThreadName(chat *Chat) string
}

// PayloadDecoder turns an app balloon payload into a typed Balloon.
// Malformed payloads yield a *PayloadDecodeError.
type PayloadDecoder interface {
	Decode(payload []byte) (Balloon, error)
}

// AttachmentManager resolves an attachment to the path shown in transcripts
type AttachmentManager interface {
	Resolve(a *Attachment, m *RawMessage) (string, error)
}

// HandwritingExporter is implemented by attachment managers that can write
// handwritten notes out as files
type HandwritingExporter interface {
	ExportHandwriting(b *HandwrittenBalloon, m *RawMessage) (string, error)
}
