package internal

import (
	"strconv"
	"time"
)

// TestDate is the send time used by CreateTestMessage
var TestDate = time.Date(2022, time.May, 17, 17, 29, 42, 0, time.UTC)

// Int64Ptr returns a pointer to v
func Int64Ptr(v int64) *int64 {
	return &v
}

// CreateTestMessage creates a single-part text message from handle 1 in chat 1
func CreateTestMessage(guid, text string) *RawMessage {
	return &RawMessage{
		RowID:    1,
		GUID:     guid,
		Text:     text,
		Service:  "iMessage",
		HandleID: 1,
		Date:     TestDate,
		ChatID:   Int64Ptr(1),
		Parts: []ContentPart{
			{Kind: PartText, Ranges: []TextRange{{Start: 0, End: len(text)}}},
		},
	}
}

// CreateTestReaction creates a tapback of the given associated type from handle
// targeting part of the message with guid target
func CreateTestReaction(guid, target string, part int, associatedType int, handle int64, fromMe bool) *RawMessage {
	return &RawMessage{
		GUID:                  guid,
		HandleID:              handle,
		IsFromMe:              fromMe,
		Date:                  TestDate.Add(time.Minute),
		ChatID:                Int64Ptr(1),
		AssociatedMessageGUID: "p:" + strconv.Itoa(part) + "/" + target,
		AssociatedMessageType: associatedType,
	}
}

// CreateTestDirectory creates a Directory with two participants. Chats 1 and
// 2 are both with Alice and share a conversation; chat 3 is a named group.
func CreateTestDirectory(opts ...DirectoryOption) *Directory {
	d := NewDirectory(opts...)
	d.AddHandle(Handle{RowID: 1, ID: "+15555550100", Name: "Alice"})
	d.AddHandle(Handle{RowID: 2, ID: "bob@example.com"})
	d.AddChat(Chat{RowID: 1, ChatIdentifier: "+15555550100", ServiceName: "iMessage", Participants: []int64{1}})
	d.AddChat(Chat{RowID: 2, ChatIdentifier: "+15555550100", ServiceName: "SMS", Participants: []int64{1}})
	d.AddChat(Chat{RowID: 3, ChatIdentifier: "chat123", DisplayName: "Group", Participants: []int64{1, 2}})
	d.Deduplicate()
	return d
}
