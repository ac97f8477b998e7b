package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/iskng/imessage-exporter/internal"
)

// Counts of the archive written by WriteArchiveFixture
const (
	FixtureMessages = 5
	FixtureChats    = 2
)

// FixtureHandles are the participants of the archive fixture
var FixtureHandles = []internal.Handle{
	{RowID: 1, ID: "+15555550100", Name: "Alice", Service: "iMessage"},
	{RowID: 2, ID: "bob@example.com", Service: "iMessage"},
}

// FixtureChatList are the conversations of the archive fixture: a direct chat
// with Alice and a named group with Alice and Bob
var FixtureChatList = []internal.Chat{
	{RowID: 1, ChatIdentifier: "+15555550100", ServiceName: "iMessage", Participants: []int64{1}},
	{RowID: 3, ChatIdentifier: "chat123", DisplayName: "Group", ServiceName: "iMessage", Participants: []int64{1, 2}},
}

// FixtureMessageList returns the messages of the archive fixture in archive
// order. msg-3 is a tapback on msg-1 and msg-5 is a reply to msg-4.
func FixtureMessageList() []*internal.RawMessage {
	at := func(minutes int) time.Time {
		return internal.TestDate.Add(time.Duration(minutes) * time.Minute)
	}

	alice := internal.CreateTestMessage("msg-1", "Hello there")
	alice.RowID = 1

	mine := internal.CreateTestMessage("msg-2", "Hi Alice")
	mine.RowID = 2
	mine.IsFromMe = true
	mine.HandleID = 0
	mine.Date = at(1)

	loved := internal.CreateTestReaction("msg-3", "msg-1", 0, 2000, 0, true)
	loved.RowID = 3
	loved.Date = at(2)

	group := internal.CreateTestMessage("msg-4", "Group hello")
	group.RowID = 4
	group.HandleID = 2
	group.ChatID = internal.Int64Ptr(3)
	group.Date = at(3)
	group.NumReplies = 1

	reply := internal.CreateTestMessage("msg-5", "Reply!")
	reply.RowID = 5
	reply.ChatID = internal.Int64Ptr(3)
	reply.Date = at(4)
	reply.ThreadOriginatorGUID = "msg-4"
	reply.ThreadOriginatorPart = "0:0:11"

	return []*internal.RawMessage{alice, mine, loved, group, reply}
}

// WriteArchiveFixture writes the archive fixture to path
func WriteArchiveFixture(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create fixture directory: %v", err)
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create archive: %v", err)
	}
	defer func() { _ = f.Close() }()

	w := internal.NewArchiveWriter(f)
	for _, h := range FixtureHandles {
		if err := w.WriteHandle(h); err != nil {
			t.Fatalf("Failed to write handle: %v", err)
		}
	}
	for _, c := range FixtureChatList {
		if err := w.WriteChat(c); err != nil {
			t.Fatalf("Failed to write chat: %v", err)
		}
	}
	for _, m := range FixtureMessageList() {
		if err := w.WriteMessage(m); err != nil {
			t.Fatalf("Failed to write message: %v", err)
		}
	}
}

// CreateArchiveFixture writes the archive fixture into a temporary directory
// and returns its path
func CreateArchiveFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(CreateTempDir(t), "archive.jsonl")
	WriteArchiveFixture(t, path)
	return path
}
