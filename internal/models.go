package internal

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// PartKind identifies the kind of a content part within a message body
type PartKind int

const (
	PartText PartKind = iota
	PartAttachment
	PartApp
	PartRetracted
)

var partKindNames = map[PartKind]string{
	PartText:       "text",
	PartAttachment: "attachment",
	PartApp:        "app",
	PartRetracted:  "retracted",
}

func (k PartKind) String() string {
	if name, ok := partKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("PartKind(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler
func (k PartKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (k *PartKind) UnmarshalText(text []byte) error {
	for kind, name := range partKindNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown part kind: %q", string(text))
}

// TextRange is a span of the raw message text carrying a formatting effect
type TextRange struct {
	Start  int    `json:"start"`
	End    int    `json:"end"`
	Effect string `json:"effect,omitempty"`
}

// ContentPart is one component of a message body
type ContentPart struct {
	Kind   PartKind    `json:"kind"`
	Ranges []TextRange `json:"ranges,omitempty"`
	Index  int         `json:"index,omitempty"`
}

// EditStatus describes what happened to a message part after it was sent
type EditStatus int

const (
	EditOriginal EditStatus = iota
	EditEdited
	EditUnsent
)

var editStatusNames = map[EditStatus]string{
	EditOriginal: "original",
	EditEdited:   "edited",
	EditUnsent:   "unsent",
}

func (s EditStatus) String() string {
	if name, ok := editStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("EditStatus(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler
func (s EditStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *EditStatus) UnmarshalText(text []byte) error {
	for status, name := range editStatusNames {
		if name == string(text) {
			*s = status
			return nil
		}
	}
	return fmt.Errorf("unknown edit status: %q", string(text))
}

// EditEvent is one version of an edited message part
type EditEvent struct {
	Date time.Time `json:"date"`
	Text string    `json:"text"`
}

// EditedPart holds the edit history of a single message part
type EditedPart struct {
	Status  EditStatus  `json:"status"`
	History []EditEvent `json:"history,omitempty"`
}

// EditedMessage holds edit history for every part of a message, by part index
type EditedMessage struct {
	Parts []EditedPart `json:"parts"`
}

// Part returns the edit history for a part index
func (e *EditedMessage) Part(idx int) (*EditedPart, bool) {
	if e == nil || idx < 0 || idx >= len(e.Parts) {
		return nil, false
	}
	return &e.Parts[idx], true
}

// Attachment is an attachment record associated with a message
type Attachment struct {
	RowID         int64  `json:"rowid"`
	Filename      string `json:"filename,omitempty"`
	TransferName  string `json:"transfer_name,omitempty"`
	MimeType      string `json:"mime_type,omitempty"`
	TotalBytes    int64  `json:"total_bytes,omitempty"`
	IsSticker     bool   `json:"is_sticker,omitempty"`
	StickerEffect string `json:"sticker_effect,omitempty"`
}

// DisplayName returns the best available name for the attachment
func (a *Attachment) DisplayName() string {
	switch {
	case a.TransferName != "":
		return a.TransferName
	case a.Filename != "":
		return a.Filename
	default:
		return "Attachment missing name!"
	}
}

// Reaction types as stored in associated_message_type
const (
	ReactionSticker       = 1000
	reactionAddedBase     = 2000
	reactionRemovedBase   = 3000
	reactionEmojiOffset   = 6
	reactionMaxKindOffset = 7
)

// RawMessage is a single message record as yielded by a MessageStore
type RawMessage struct {
	RowID                  int64           `json:"rowid"`
	GUID                   string          `json:"guid"`
	Text                   string          `json:"text,omitempty"`
	Service                string          `json:"service,omitempty"`
	HandleID               int64           `json:"handle_id"`
	OtherHandle            int64           `json:"other_handle,omitempty"`
	DestinationCallerID    string          `json:"destination_caller_id,omitempty"`
	Subject                string          `json:"subject,omitempty"`
	Date                   time.Time       `json:"date"`
	DateRead               time.Time       `json:"date_read"`
	DateDelivered          time.Time       `json:"date_delivered"`
	DateEdited             time.Time       `json:"date_edited"`
	IsFromMe               bool            `json:"is_from_me"`
	IsRead                 bool            `json:"is_read"`
	ItemType               int             `json:"item_type"`
	ShareStatus            bool            `json:"share_status"`
	ShareDirection         bool            `json:"share_direction"`
	GroupTitle             string          `json:"group_title,omitempty"`
	GroupActionType        int             `json:"group_action_type"`
	AssociatedMessageGUID  string          `json:"associated_message_guid,omitempty"`
	AssociatedMessageType  int             `json:"associated_message_type,omitempty"`
	AssociatedMessageEmoji string          `json:"associated_message_emoji,omitempty"`
	BalloonBundleID        string          `json:"balloon_bundle_id,omitempty"`
	ExpressiveSendStyleID  string          `json:"expressive_send_style_id,omitempty"`
	ThreadOriginatorGUID   string          `json:"thread_originator_guid,omitempty"`
	ThreadOriginatorPart   string          `json:"thread_originator_part,omitempty"`
	ChatID                 *int64          `json:"chat_id,omitempty"`
	NumAttachments         int             `json:"num_attachments"`
	NumReplies             int             `json:"num_replies"`
	DeletedFrom            *int64          `json:"deleted_from,omitempty"`
	Parts                  []ContentPart   `json:"parts,omitempty"`
	Edited                 *EditedMessage  `json:"edited,omitempty"`
	Attachments            []Attachment    `json:"attachments,omitempty"`
	Payload                json.RawMessage `json:"payload,omitempty"`
}

// IsDeleted reports whether the message was deleted from its conversation
func (m *RawMessage) IsDeleted() bool {
	return m.DeletedFrom != nil
}

// IsEdited reports whether any part of the message was edited or unsent
func (m *RawMessage) IsEdited() bool {
	return !m.DateEdited.IsZero()
}

// IsPartEdited reports whether the part at idx has a non-original edit status
func (m *RawMessage) IsPartEdited(idx int) bool {
	part, ok := m.Edited.Part(idx)
	return ok && part.Status != EditOriginal
}

// IsReply reports whether the message responded to an earlier message
func (m *RawMessage) IsReply() bool {
	return m.ThreadOriginatorGUID != ""
}

// IsReaction reports whether the message is a tapback or sticker reaction
func (m *RawMessage) IsReaction() bool {
	t := m.AssociatedMessageType
	switch {
	case t == ReactionSticker:
		return true
	case t >= reactionAddedBase && t <= reactionAddedBase+reactionMaxKindOffset:
		return true
	case t >= reactionRemovedBase && t <= reactionRemovedBase+reactionMaxKindOffset:
		return true
	}
	return false
}

// IsURL reports whether the message is a rich link preview
func (m *RawMessage) IsURL() bool {
	return strings.HasSuffix(m.BalloonBundleID, "URLBalloonProvider")
}

// IsHandwriting reports whether the message is a handwritten note
func (m *RawMessage) IsHandwriting() bool {
	return strings.HasSuffix(m.BalloonBundleID, "HandwritingProvider")
}

// IsSharePlay reports whether the message is a SharePlay session notice
func (m *RawMessage) IsSharePlay() bool {
	return m.ItemType == 6
}

// StartedSharingLocation reports whether the message announces a location share
func (m *RawMessage) StartedSharingLocation() bool {
	return m.ItemType == 4 && m.GroupActionType == 0 && !m.ShareStatus
}

// StoppedSharingLocation reports whether the message ends a location share
func (m *RawMessage) StoppedSharingLocation() bool {
	return m.ItemType == 4 && m.GroupActionType == 0 && m.ShareStatus
}

// ReplyPart returns the part index of the message this message replies to.
// thread_originator_part has the form "index:start:length".
func (m *RawMessage) ReplyPart() int {
	head, _, _ := strings.Cut(m.ThreadOriginatorPart, ":")
	idx, err := strconv.Atoi(head)
	if err != nil || idx < 0 {
		return 0
	}
	return idx
}

// ReactionTarget parses associated_message_guid into the target message GUID
// and part index. Accepted forms are "p:N/GUID", "bp:GUID" and a bare GUID.
func (m *RawMessage) ReactionTarget() (string, int) {
	guid := m.AssociatedMessageGUID
	switch {
	case strings.HasPrefix(guid, "p:"):
		rest := strings.TrimPrefix(guid, "p:")
		idxStr, target, ok := strings.Cut(rest, "/")
		if !ok {
			return rest, 0
		}
		idx, err := strconv.Atoi(idxStr)
		if err != nil {
			return target, 0
		}
		return target, idx
	case strings.HasPrefix(guid, "bp:"):
		return strings.TrimPrefix(guid, "bp:"), 0
	default:
		return guid, 0
	}
}

// StringList is a list of strings stored as a JSON array in a single column
type StringList []string

// Value implements driver.Valuer
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner
func (l *StringList) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("cannot scan %T into StringList", src)
	}
	return json.Unmarshal(data, (*[]string)(l))
}

// TransportRecord is the flat, storage-agnostic projection of a rendered message
// handed to a Sink
type TransportRecord struct {
	RowID                  int64      `json:"rowid" db:"source_rowid"`
	GUID                   string     `json:"guid" db:"guid"`
	Text                   *string    `json:"text" db:"text"`
	Service                *string    `json:"service" db:"service"`
	Platform               string     `json:"platform" db:"platform"`
	HandleID               int64      `json:"handle_id" db:"handle_id"`
	DestinationCallerID    *string    `json:"destination_caller_id" db:"destination_caller_id"`
	Subject                *string    `json:"subject" db:"subject"`
	Date                   *time.Time `json:"date" db:"date"`
	DateRead               *time.Time `json:"date_read" db:"date_read"`
	DateDelivered          *time.Time `json:"date_delivered" db:"date_delivered"`
	DateEdited             *time.Time `json:"date_edited" db:"date_edited"`
	IsFromMe               bool       `json:"is_from_me" db:"is_from_me"`
	IsRead                 bool       `json:"is_read" db:"is_read"`
	ItemType               int        `json:"item_type" db:"item_type"`
	OtherHandle            int64      `json:"other_handle" db:"other_handle"`
	ShareStatus            bool       `json:"share_status" db:"share_status"`
	ShareDirection         bool       `json:"share_direction" db:"share_direction"`
	GroupTitle             *string    `json:"group_title" db:"group_title"`
	GroupActionType        int        `json:"group_action_type" db:"group_action_type"`
	AssociatedMessageGUID  *string    `json:"associated_message_guid" db:"associated_message_guid"`
	AssociatedMessageType  *int       `json:"associated_message_type" db:"associated_message_type"`
	AssociatedMessageEmoji *string    `json:"associated_message_emoji" db:"associated_message_emoji"`
	BalloonBundleID        *string    `json:"balloon_bundle_id" db:"balloon_bundle_id"`
	ExpressiveSendStyleID  *string    `json:"expressive_send_style_id" db:"expressive_send_style_id"`
	ThreadOriginatorGUID   *string    `json:"thread_originator_guid" db:"thread_originator_guid"`
	ThreadOriginatorPart   *string    `json:"thread_originator_part" db:"thread_originator_part"`
	ChatID                 *int64     `json:"chat_id" db:"chat_id"`
	UniqueChatID           string     `json:"unique_chat_id" db:"unique_chat_id"`
	NumAttachments         int        `json:"num_attachments" db:"num_attachments"`
	DeletedFrom            *int64     `json:"deleted_from" db:"deleted_from"`
	NumReplies             int        `json:"num_replies" db:"num_replies"`
	FullMessage            string     `json:"full_message" db:"full_message"`
	ThreadName             *string    `json:"thread_name" db:"thread_name"`
	AttachmentPaths        StringList `json:"attachment_paths" db:"attachment_paths"`
	IsDeleted              bool       `json:"is_deleted" db:"is_deleted"`
	IsEdited               bool       `json:"is_edited" db:"is_edited"`
	IsReply                bool       `json:"is_reply" db:"is_reply"`
	PhoneNumber            string     `json:"phone_number" db:"phone_number"`
}

// GraphStats reports the entities and edges created by a graph materialization
type GraphStats struct {
	MessagesScanned int `json:"messages_scanned" yaml:"messages_scanned"`
	PersonsCreated  int `json:"persons_created" yaml:"persons_created"`
	ThreadsCreated  int `json:"threads_created" yaml:"threads_created"`
	SentEdges       int `json:"sent_edges" yaml:"sent_edges"`
	MessagedInEdges int `json:"messaged_in_edges" yaml:"messaged_in_edges"`
	InThreadEdges   int `json:"in_thread_edges" yaml:"in_thread_edges"`
	TotalPersons    int `json:"total_persons" yaml:"total_persons"`
	TotalThreads    int `json:"total_threads" yaml:"total_threads"`
}

// ExportStats summarizes a pipeline run
type ExportStats struct {
	Total          int           `json:"total" yaml:"total"`
	Exported       int           `json:"exported" yaml:"exported"`
	RenderFailures int           `json:"render_failures" yaml:"render_failures"`
	Batches        int           `json:"batches" yaml:"batches"`
	Graph          *GraphStats   `json:"graph,omitempty" yaml:"graph,omitempty"`
	Duration       time.Duration `json:"duration" yaml:"duration"`
}

// QueryFilter restricts which messages a MessageStore yields
type QueryFilter struct {
	Start   time.Time
	End     time.Time
	ChatIDs []int64
}

// Matches reports whether the message passes the filter
func (f QueryFilter) Matches(m *RawMessage) bool {
	if !f.Start.IsZero() && m.Date.Before(f.Start) {
		return false
	}
	if !f.End.IsZero() && !m.Date.Before(f.End) {
		return false
	}
	if len(f.ChatIDs) > 0 {
		if m.ChatID == nil {
			return false
		}
		for _, id := range f.ChatIDs {
			if id == *m.ChatID {
				return true
			}
		}
		return false
	}
	return true
}
