package internal

import (
	"strconv"
	"strings"

	"github.com/samber/lo"
)

const (
	me      = "Me"
	unknown = "Unknown"
)

// Handle is a sender or recipient identity
type Handle struct {
	RowID           int64  `json:"rowid"`
	ID              string `json:"id"`
	Name            string `json:"name,omitempty"`
	PersonCentricID string `json:"person_centric_id,omitempty"`
	Service         string `json:"service,omitempty"`
}

// Chat is a conversation as stored in the archive
type Chat struct {
	RowID          int64   `json:"rowid"`
	ChatIdentifier string  `json:"chat_identifier"`
	DisplayName    string  `json:"display_name,omitempty"`
	ServiceName    string  `json:"service_name,omitempty"`
	Participants   []int64 `json:"participants,omitempty"`
}

// Directory indexes participants, conversations, reactions and replies of an
// archive and implements Resolver
type Directory struct {
	handles   map[int64]*Handle
	chats     map[int64]*Chat
	deduped   map[int64]int64
	reactions map[string]map[int][]*RawMessage
	replies   map[string]map[int][]*RawMessage

	customName  string
	useCallerID bool
}

// DirectoryOption configures a Directory
type DirectoryOption func(*Directory)

// WithOwnerName sets the name used for messages sent by the archive owner
func WithOwnerName(name string) DirectoryOption {
	return func(d *Directory) {
		d.customName = name
	}
}

// WithCallerID uses the destination caller id as the owner's name when present
func WithCallerID(enabled bool) DirectoryOption {
	return func(d *Directory) {
		d.useCallerID = enabled
	}
}

// NewDirectory creates an empty Directory
func NewDirectory(opts ...DirectoryOption) *Directory {
	d := &Directory{
		handles:   make(map[int64]*Handle),
		chats:     make(map[int64]*Chat),
		deduped:   make(map[int64]int64),
		reactions: make(map[string]map[int][]*RawMessage),
		replies:   make(map[string]map[int][]*RawMessage),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// AddHandle registers a participant
func (d *Directory) AddHandle(h Handle) {
	d.handles[h.RowID] = &h
}

// AddChat registers a conversation
func (d *Directory) AddChat(c Chat) {
	d.chats[c.RowID] = &c
}

// Index records m as a reaction or reply to the message it points at
func (d *Directory) Index(m *RawMessage) {
	if m.IsReaction() && m.AssociatedMessageGUID != "" {
		target, part := m.ReactionTarget()
		insertIndexed(d.reactions, target, part, m)
		return
	}
	if m.IsReply() {
		insertIndexed(d.replies, m.ThreadOriginatorGUID, m.ReplyPart(), m)
	}
}

func insertIndexed(index map[string]map[int][]*RawMessage, guid string, part int, m *RawMessage) {
	byPart, ok := index[guid]
	if !ok {
		byPart = make(map[int][]*RawMessage)
		index[guid] = byPart
	}
	byPart[part] = append(byPart[part], m)
}

// Deduplicate computes deduplicated conversation ids. Call it after all
// handles and chats have been added.
func (d *Directory) Deduplicate() {
	d.deduped = NewChatDeduplicator().Deduplicate(lo.Values(d.chats), d.identity)
}

func (d *Directory) identity(handleID int64) string {
	h, ok := d.handles[handleID]
	if !ok {
		return "handle:" + strconv.FormatInt(handleID, 10)
	}
	return firstNonEmpty(h.PersonCentricID, h.ID)
}

// Who resolves the display name of a message sender
func (d *Directory) Who(handleID int64, isFromMe bool, destinationCallerID string) string {
	if isFromMe {
		if d.useCallerID && destinationCallerID != "" {
			return destinationCallerID
		}
		return firstNonEmpty(d.customName, me)
	}
	if h, ok := d.handles[handleID]; ok {
		return firstNonEmpty(h.Name, h.ID, unknown)
	}
	return unknown
}

// Reactions returns the reactions to a message keyed by part index
func (d *Directory) Reactions(guid string) (map[int][]*RawMessage, error) {
	return d.reactions[guid], nil
}

// Replies returns the replies to a message keyed by part index
func (d *Directory) Replies(guid string) (map[int][]*RawMessage, error) {
	return d.replies[guid], nil
}

// Conversation returns the chat a message belongs to and its deduplicated id
func (d *Directory) Conversation(m *RawMessage) (*Chat, int64, bool) {
	if m.ChatID == nil {
		return nil, 0, false
	}
	chat, ok := d.chats[*m.ChatID]
	if !ok {
		return nil, 0, false
	}
	return chat, d.deduped[chat.RowID], true
}

// ThreadName returns a human readable name for a chat: its display name, the
// names of its participants, or its identifier
func (d *Directory) ThreadName(chat *Chat) string {
	if chat.DisplayName != "" {
		return chat.DisplayName
	}
	names := lo.FilterMap(chat.Participants, func(id int64, _ int) (string, bool) {
		name := d.Who(id, false, "")
		return name, name != unknown
	})
	if len(names) > 0 {
		return strings.Join(names, ", ")
	}
	return chat.ChatIdentifier
}

// Chats returns every registered chat
func (d *Directory) Chats() []*Chat {
	return lo.Values(d.chats)
}
