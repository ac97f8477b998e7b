package internal

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
)

// ChatDeduplicator assigns one conversation id to every chat that shares the
// same set of participants, such as the SMS and iMessage threads with one person
type ChatDeduplicator struct{}

// NewChatDeduplicator creates a new ChatDeduplicator
func NewChatDeduplicator() *ChatDeduplicator {
	return &ChatDeduplicator{}
}

// Deduplicate maps each chat row id to its deduplicated conversation id.
// identity resolves a handle row id to the identity participants are compared by.
func (d *ChatDeduplicator) Deduplicate(chats []*Chat, identity func(int64) string) map[int64]int64 {
	ordered := make([]*Chat, len(chats))
	copy(ordered, chats)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].RowID < ordered[j].RowID })

	seen := make(map[string]int64)
	deduped := make(map[int64]int64, len(ordered))
	var next int64

	for _, chat := range ordered {
		hash := d.hashParticipants(chat, identity)
		id, ok := seen[hash]
		if !ok {
			id = next
			next++
			seen[hash] = id
		}
		deduped[chat.RowID] = id
	}

	return deduped
}

// hashParticipants creates an order-independent hash of a chat's participants.
// Chats without participants hash by their identifier so they never merge.
func (d *ChatDeduplicator) hashParticipants(chat *Chat, identity func(int64) string) string {
	h := sha256.New()

	if len(chat.Participants) == 0 {
		h.Write([]byte("chat:"))
		h.Write([]byte(chat.ChatIdentifier))
		return hex.EncodeToString(h.Sum(nil))
	}

	ids := make([]string, 0, len(chat.Participants))
	for _, handle := range chat.Participants {
		ids = append(ids, identity(handle))
	}
	sort.Strings(ids)
	for _, id := range ids {
		h.Write([]byte(id))
		h.Write([]byte{0})
	}

	return hex.EncodeToString(h.Sum(nil))
}
