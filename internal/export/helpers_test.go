package export

import (
	"time"

	"github.com/iskng/imessage-exporter/internal"
)

func testRecord(guid, chatID, phone, rendered string, fromMe bool) *internal.TransportRecord {
	date := time.Date(2022, 5, 17, 17, 29, 42, 0, time.UTC)
	return &internal.TransportRecord{
		GUID:         guid,
		Date:         &date,
		IsFromMe:     fromMe,
		UniqueChatID: chatID,
		FullMessage:  rendered,
		PhoneNumber:  phone,
	}
}

func testTranscript() *Transcript {
	name := "Group"
	first := testRecord("g1", "chat123", "+15555550100", "May 17, 2022  5:29:42 PM\nAlice\nHello **there**\n", false)
	first.ThreadName = &name
	second := testRecord("g2", "chat123", "+15555550100", "May 17, 2022  5:29:42 PM\nMe\nHi", true)
	second.AttachmentPaths = internal.StringList{"Attachments/1.jpg"}
	return NewTranscript("chat123", []*internal.TransportRecord{first, second}, "")
}
