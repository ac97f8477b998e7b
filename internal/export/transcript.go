package export

import (
	"strings"
	"time"

	"github.com/iskng/imessage-exporter/internal"
)

// DefaultSelfName labels messages sent by the archive owner
const DefaultSelfName = "Me"

// Transcript is the rendered conversation of one thread
type Transcript struct {
	UniqueChatID string  `json:"unique_chat_id" yaml:"unique_chat_id"`
	Name         string  `json:"name,omitempty" yaml:"name,omitempty"`
	Entries      []Entry `json:"entries" yaml:"entries"`
}

// Entry is one rendered message
type Entry struct {
	GUID        string     `json:"guid" yaml:"guid"`
	Sender      string     `json:"sender" yaml:"sender"`
	Date        *time.Time `json:"date,omitempty" yaml:"date,omitempty"`
	IsFromMe    bool       `json:"is_from_me" yaml:"is_from_me"`
	Text        string     `json:"text" yaml:"text"`
	Attachments []string   `json:"attachments,omitempty" yaml:"attachments,omitempty"`
}

// NewTranscript builds the transcript of one thread from its records in
// export order. self names the archive owner.
func NewTranscript(uniqueChatID string, records []*internal.TransportRecord, self string) *Transcript {
	if self == "" {
		self = DefaultSelfName
	}

	t := &Transcript{UniqueChatID: uniqueChatID, Entries: make([]Entry, 0, len(records))}
	for _, rec := range records {
		if t.Name == "" && rec.ThreadName != nil {
			t.Name = *rec.ThreadName
		}

		sender := rec.PhoneNumber
		if rec.IsFromMe {
			sender = self
		}
		t.Entries = append(t.Entries, Entry{
			GUID:        rec.GUID,
			Sender:      sender,
			Date:        rec.Date,
			IsFromMe:    rec.IsFromMe,
			Text:        strings.TrimRight(rec.FullMessage, "\n"),
			Attachments: rec.AttachmentPaths,
		})
	}
	return t
}

// Title is the thread name, or its unique chat id when unnamed
func (t *Transcript) Title() string {
	if t.Name != "" {
		return t.Name
	}
	return t.UniqueChatID
}
