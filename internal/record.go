package internal

import (
	"strconv"
	"time"
)

const missingChatSuffix = ":Missing_chat_id"

// RecordBuilder projects rendered messages into TransportRecords
type RecordBuilder struct {
	resolver    Resolver
	attachments AttachmentManager
	platform    string
}

// NewRecordBuilder creates a RecordBuilder. platform names the archive's
// origin, such as "macOS" or "iOS".
func NewRecordBuilder(resolver Resolver, attachments AttachmentManager, platform string) *RecordBuilder {
	return &RecordBuilder{
		resolver:    resolver,
		attachments: attachments,
		platform:    platform,
	}
}

// Build creates the TransportRecord for m carrying its rendered transcript entry
func (b *RecordBuilder) Build(m *RawMessage, rendered string) *TransportRecord {
	who := b.resolver.Who(m.HandleID, m.IsFromMe, m.DestinationCallerID)

	rec := &TransportRecord{
		RowID:                  m.RowID,
		GUID:                   m.GUID,
		Text:                   optString(m.Text),
		Service:                optString(m.Service),
		Platform:               b.platform,
		HandleID:               m.HandleID,
		DestinationCallerID:    optString(m.DestinationCallerID),
		Subject:                optString(m.Subject),
		Date:                   optTime(m.Date),
		DateRead:               optTime(m.DateRead),
		DateDelivered:          optTime(m.DateDelivered),
		DateEdited:             optTime(m.DateEdited),
		IsFromMe:               m.IsFromMe,
		IsRead:                 m.IsRead,
		ItemType:               m.ItemType,
		OtherHandle:            m.OtherHandle,
		ShareStatus:            m.ShareStatus,
		ShareDirection:         m.ShareDirection,
		GroupTitle:             optString(m.GroupTitle),
		GroupActionType:        m.GroupActionType,
		AssociatedMessageGUID:  optString(m.AssociatedMessageGUID),
		AssociatedMessageEmoji: optString(m.AssociatedMessageEmoji),
		BalloonBundleID:        optString(m.BalloonBundleID),
		ExpressiveSendStyleID:  optString(m.ExpressiveSendStyleID),
		ThreadOriginatorGUID:   optString(m.ThreadOriginatorGUID),
		ThreadOriginatorPart:   optString(m.ThreadOriginatorPart),
		ChatID:                 m.ChatID,
		UniqueChatID:           b.uniqueChatID(m, who),
		NumAttachments:         m.NumAttachments,
		DeletedFrom:            m.DeletedFrom,
		NumReplies:             m.NumReplies,
		FullMessage:            rendered,
		AttachmentPaths:        b.attachmentPaths(m),
		IsDeleted:              m.IsDeleted(),
		IsEdited:               m.IsEdited(),
		IsReply:                m.IsReply(),
		PhoneNumber:            who,
	}
	if m.AssociatedMessageType != 0 {
		t := m.AssociatedMessageType
		rec.AssociatedMessageType = &t
	}
	if chat, _, ok := b.resolver.Conversation(m); ok {
		rec.ThreadName = optString(b.resolver.ThreadName(chat))
	}
	return rec
}

// uniqueChatID returns the deduplicated conversation id, else the raw chat
// id, else "<who>:Missing_chat_id". It is never empty.
func (b *RecordBuilder) uniqueChatID(m *RawMessage, who string) string {
	if _, deduped, ok := b.resolver.Conversation(m); ok {
		return strconv.FormatInt(deduped, 10)
	}
	if m.ChatID != nil {
		return strconv.FormatInt(*m.ChatID, 10)
	}
	return firstNonEmpty(who, unknown) + missingChatSuffix
}

// attachmentPaths resolves attachment display paths in source order,
// skipping attachments that cannot be resolved
func (b *RecordBuilder) attachmentPaths(m *RawMessage) StringList {
	paths := StringList{}
	for i := range m.Attachments {
		path, err := b.attachments.Resolve(&m.Attachments[i], m)
		if err != nil {
			continue
		}
		paths = append(paths, path)
	}
	return paths
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}
