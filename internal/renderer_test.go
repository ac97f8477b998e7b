package internal

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

const (
	header   = "May 17, 2022  5:29:42 PM\nAlice\n"
	urlApp   = "com.apple.messages.URLBalloonProvider"
	gameApp  = "com.apple.messages.MSMessageExtensionBalloonPlugin:EWFNLB79LQ:com.example.game"
	applePay = "com.apple.messages.MSMessageExtensionBalloonPlugin:0000000000:com.apple.PassbookUIService.PeerPaymentMessagesExtension"
)

func newTestRenderer(resolver Resolver, opts ...RendererOption) *MessageRenderer {
	opts = append([]RendererOption{WithLocation(time.UTC)}, opts...)
	return NewMessageRenderer(resolver, NewJSONPayloadDecoder(), NewDisplayPathManager("", ""), opts...)
}

func mustRender(t *testing.T, r *MessageRenderer, m *RawMessage) string {
	t.Helper()
	out, err := r.Render(m)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	return out
}

func TestRender_PlainText(t *testing.T) {
	r := newTestRenderer(CreateTestDirectory())

	got := mustRender(t, r, CreateTestMessage("m1", "Hello world"))
	want := header + "Hello world\n\n"
	if got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}
}

func TestRender_TextWithoutParts(t *testing.T) {
	d := CreateTestDirectory()
	reply := CreateTestMessage("m2", "Hi back")
	reply.HandleID = 2
	reply.Date = TestDate.Add(time.Minute)
	reply.ThreadOriginatorGUID = "m1"
	reply.ThreadOriginatorPart = "0:0:5"
	d.Index(reply)

	m := CreateTestMessage("m1", "Hello world")
	m.Parts = nil
	m.NumReplies = 1
	m.ExpressiveSendStyleID = "com.apple.MobileSMS.expressivesend.impact"

	got := mustRender(t, newTestRenderer(d), m)
	want := header + "Hello world\n" +
		"Sent with Slam\n" +
		"    May 17, 2022  5:30:42 PM\n" +
		"    bob@example.com\n" +
		"    Hi back\n\n"
	if got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}

	empty := CreateTestMessage("m3", "")
	empty.Parts = nil
	if got := mustRender(t, newTestRenderer(d), empty); got != header+"\n" {
		t.Errorf("Render(empty) = %q, want header only", got)
	}
}

func TestRender_Sender(t *testing.T) {
	tests := []struct {
		name   string
		dir    *Directory
		modify func(m *RawMessage)
		want   string
	}{
		{"named handle", CreateTestDirectory(), func(m *RawMessage) {}, "Alice"},
		{"handle without name", CreateTestDirectory(), func(m *RawMessage) { m.HandleID = 2 }, "bob@example.com"},
		{"unknown handle", CreateTestDirectory(), func(m *RawMessage) { m.HandleID = 99 }, "Unknown"},
		{"owner", CreateTestDirectory(), func(m *RawMessage) { m.IsFromMe = true }, "Me"},
		{"owner with custom name", CreateTestDirectory(WithOwnerName("Ada")), func(m *RawMessage) { m.IsFromMe = true }, "Ada"},
		{
			"owner caller id",
			CreateTestDirectory(WithCallerID(true)),
			func(m *RawMessage) {
				m.IsFromMe = true
				m.DestinationCallerID = "ada@example.com"
			},
			"ada@example.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := CreateTestMessage("m1", "Hi")
			tt.modify(m)
			lines := strings.Split(mustRender(t, newTestRenderer(tt.dir), m), "\n")
			if lines[1] != tt.want {
				t.Errorf("sender line = %q, want %q", lines[1], tt.want)
			}
		})
	}
}

func TestRender_ReadReceipt(t *testing.T) {
	r := newTestRenderer(CreateTestDirectory())

	received := CreateTestMessage("m1", "Hi")
	received.DateRead = received.Date.Add(90 * time.Second)
	if got := strings.SplitN(mustRender(t, r, received), "\n", 2)[0]; got != "May 17, 2022  5:29:42 PM (Read by you after 1 minute, 30 seconds)" {
		t.Errorf("received time line = %q", got)
	}

	sent := CreateTestMessage("m2", "Hi")
	sent.IsFromMe = true
	sent.DateDelivered = sent.Date.Add(5 * time.Second)
	if got := strings.SplitN(mustRender(t, r, sent), "\n", 2)[0]; got != "May 17, 2022  5:29:42 PM (Read by them after 5 seconds)" {
		t.Errorf("sent time line = %q", got)
	}

	custom := newTestRenderer(CreateTestDirectory(), WithCustomName("Ada"))
	if got := strings.SplitN(mustRender(t, custom, received), "\n", 2)[0]; !strings.HasSuffix(got, "(Read by Ada after 1 minute, 30 seconds)") {
		t.Errorf("custom reader time line = %q", got)
	}
}

func TestRender_EditChain(t *testing.T) {
	r := newTestRenderer(CreateTestDirectory())

	first := TestDate.Add(18 * time.Second)
	m := CreateTestMessage("m1", "Hello therepart two")
	m.Parts = []ContentPart{
		{Kind: PartText, Ranges: []TextRange{{Start: 0, End: 11}}},
		{Kind: PartText, Ranges: []TextRange{{Start: 11, End: 19}}, Index: 1},
	}
	m.DateEdited = first.Add(3 * time.Minute)
	m.Edited = &EditedMessage{Parts: []EditedPart{
		{Status: EditEdited, History: []EditEvent{
			{Date: first, Text: "Hello"},
			{Date: first.Add(3 * time.Minute), Text: "Hello there"},
		}},
		{Status: EditOriginal},
	}}

	got := mustRender(t, r, m)
	want := header +
		"May 17, 2022  5:30:00 PM Hello\n" +
		"Edited 3 minutes later: Hello there\n" +
		"part two\n\n"
	if got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}
}

func TestRender_Unsent(t *testing.T) {
	tests := []struct {
		name   string
		fromMe bool
		opts   []RendererOption
		edited time.Duration
		want   string
	}{
		{"by owner", true, nil, 2 * time.Minute, "You unsent this message part 2 minutes after sending!"},
		{"by owner with custom name", true, []RendererOption{WithCustomName("Ada")}, 0, "Ada unsent this message part!"},
		{"by other", false, nil, 0, "They unsent this message part!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := CreateTestMessage("m1", "")
			m.IsFromMe = tt.fromMe
			m.Parts = []ContentPart{{Kind: PartRetracted}}
			m.Edited = &EditedMessage{Parts: []EditedPart{{Status: EditUnsent}}}
			if tt.edited > 0 {
				m.DateEdited = m.Date.Add(tt.edited)
			}

			got := mustRender(t, newTestRenderer(CreateTestDirectory(), tt.opts...), m)
			if !strings.Contains(got, "\n"+tt.want+"\n") {
				t.Errorf("Render() = %q, want line %q", got, tt.want)
			}
		})
	}
}

func TestRender_Tapbacks(t *testing.T) {
	d := CreateTestDirectory()
	d.Index(CreateTestReaction("r1", "m1", 0, 2001, 0, true))
	d.Index(CreateTestReaction("r2", "m1", 0, 3000, 2, false))
	d.Index(CreateTestReaction("r3", "m1", 0, 2000, 2, false))
	emoji := CreateTestReaction("r4", "m1", 0, 2006, 1, false)
	emoji.AssociatedMessageEmoji = "🔥"
	d.Index(emoji)

	got := mustRender(t, newTestRenderer(d), CreateTestMessage("m1", "Hello"))
	want := header + "Hello\nTapbacks:\nLiked by Me\nLoved by bob@example.com\n🔥 by Alice\n\n"
	if got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}
}

func TestRender_RemovedTapbackHidden(t *testing.T) {
	d := CreateTestDirectory()
	d.Index(CreateTestReaction("r1", "m1", 0, 3001, 2, false))

	got := mustRender(t, newTestRenderer(d), CreateTestMessage("m1", "Hello"))
	if strings.Contains(got, "bob@example.com") || strings.Contains(got, "Tapbacks:") {
		t.Errorf("Render() = %q, removed reaction should not be shown", got)
	}
}

func TestRender_StickerTapback(t *testing.T) {
	d := CreateTestDirectory()
	sticker := CreateTestReaction("r1", "m1", 0, ReactionSticker, 2, false)
	sticker.Attachments = []Attachment{{RowID: 7, Filename: "/stickers/s.png", IsSticker: true}}
	d.Index(sticker)
	d.Index(CreateTestReaction("r2", "m1", 0, ReactionSticker, 1, false))

	got := mustRender(t, newTestRenderer(d), CreateTestMessage("m1", "Hello"))
	for _, line := range []string{
		"Sticker from bob@example.com: /stickers/s.png from bob@example.com",
		"Sticker from Alice not found!",
	} {
		if !strings.Contains(got, "\n"+line+"\n") {
			t.Errorf("Render() = %q, want line %q", got, line)
		}
	}
}

func TestRender_Replies(t *testing.T) {
	d := CreateTestDirectory()
	reply := CreateTestMessage("m2", "Hi back")
	reply.HandleID = 2
	reply.Date = TestDate.Add(time.Minute)
	reply.ThreadOriginatorGUID = "m1"
	reply.ThreadOriginatorPart = "0:0:5"
	d.Index(reply)

	m := CreateTestMessage("m1", "Hello")
	m.NumReplies = 1
	r := newTestRenderer(d)

	got := mustRender(t, r, m)
	want := header + "Hello\n" +
		"    May 17, 2022  5:30:42 PM\n" +
		"    bob@example.com\n" +
		"    Hi back\n\n"
	if got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}

	standalone := mustRender(t, r, reply)
	if !strings.HasSuffix(standalone, "Hi back\nThis message responded to an earlier message.\n\n") {
		t.Errorf("Render(reply) = %q, want reply trailer", standalone)
	}
}

func TestRender_AttachmentSlots(t *testing.T) {
	r := newTestRenderer(CreateTestDirectory())

	m := CreateTestMessage("m1", "caption")
	m.Parts = []ContentPart{
		{Kind: PartAttachment},
		{Kind: PartAttachment},
		{Kind: PartAttachment},
		{Kind: PartText, Ranges: []TextRange{{Start: 0, End: 7}}},
	}
	m.Attachments = []Attachment{
		{RowID: 1, Filename: "/tmp/a.jpg"},
		{RowID: 2, TransferName: "b.heic"},
	}

	got := mustRender(t, r, m)
	// an unresolved attachment keeps its slot
	want := header + "/tmp/a.jpg\nb.heic\nb.heic\ncaption\n\n"
	if got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}

	missing := CreateTestMessage("m2", "")
	missing.Parts = []ContentPart{{Kind: PartAttachment}}
	if got := mustRender(t, r, missing); got != header+"Attachment missing!\n\n" {
		t.Errorf("Render() = %q, want missing attachment notice", got)
	}
}

func TestRender_Sticker(t *testing.T) {
	r := newTestRenderer(CreateTestDirectory())

	m := CreateTestMessage("m1", "")
	m.Parts = []ContentPart{{Kind: PartAttachment}}
	m.Attachments = []Attachment{{RowID: 1, Filename: "/s.png", IsSticker: true, StickerEffect: "Outline"}}

	if got := mustRender(t, r, m); got != header+"Outline Sticker from Alice: /s.png\n\n" {
		t.Errorf("Render() = %q", got)
	}
}

func TestRender_App(t *testing.T) {
	tests := []struct {
		name    string
		bundle  string
		text    string
		payload string
		want    string
	}{
		{
			name:    "url preview",
			bundle:  urlApp,
			payload: `{"kind":"url","url":"https://example.com","title":"Example"}`,
			want:    header + "https://example.com\nExample\n\n",
		},
		{
			name:   "url without payload uses text",
			bundle: urlApp,
			text:   "https://example.com",
			want:   header + "https://example.com\n\n",
		},
		{
			name:    "generic app",
			bundle:  gameApp,
			payload: `{"kind":"app","app_name":"Game","title":"Your move"}`,
			want:    header + "Game message:\n\nYour move\n\n",
		},
		{
			name:    "apple pay",
			bundle:  applePay,
			payload: `{"caption":"Apple Cash","ldtext":"$5"}`,
			want:    header + "Apple Cash transaction: $5\n\n",
		},
		{
			name:   "missing payload",
			bundle: gameApp,
			want:   header + "Unable to format app message: no payload\n\n",
		},
		{
			name:   "not an app message",
			bundle: "",
			want:   header + "Unable to format app message: message is not an app message\n\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := CreateTestMessage("m1", tt.text)
			m.Parts = []ContentPart{{Kind: PartApp}}
			m.BalloonBundleID = tt.bundle
			if tt.payload != "" {
				m.Payload = json.RawMessage(tt.payload)
			}

			got := mustRender(t, newTestRenderer(CreateTestDirectory()), m)
			if got != tt.want {
				t.Errorf("Render() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRender_MalformedPayloadIsInline(t *testing.T) {
	m := CreateTestMessage("m1", "")
	m.Parts = []ContentPart{{Kind: PartApp}}
	m.BalloonBundleID = urlApp
	m.Payload = json.RawMessage(`{"kind":"music","track_name":5}`)

	got := mustRender(t, newTestRenderer(CreateTestDirectory()), m)
	if !strings.Contains(got, "\nUnable to format app message: payload decode error [music]: ") {
		t.Errorf("Render() = %q, want inline decode error", got)
	}
}

func TestRender_ExpressiveRepeatsPerPart(t *testing.T) {
	m := CreateTestMessage("m1", "onetwo")
	m.Parts = []ContentPart{
		{Kind: PartText, Ranges: []TextRange{{Start: 0, End: 3}}},
		{Kind: PartText, Ranges: []TextRange{{Start: 3, End: 6}}},
	}
	m.ExpressiveSendStyleID = "com.apple.MobileSMS.expressivesend.impact"

	got := mustRender(t, newTestRenderer(CreateTestDirectory()), m)
	want := header + "one\nSent with Slam\ntwo\nSent with Slam\n\n"
	if got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}
}

func TestRender_Notices(t *testing.T) {
	tests := []struct {
		name   string
		modify func(m *RawMessage)
		line   string
	}{
		{"deleted", func(m *RawMessage) { m.DeletedFrom = Int64Ptr(1) }, "This message was deleted from the conversation!"},
		{"subject", func(m *RawMessage) { m.Subject = "Plans" }, "Plans"},
		{"shareplay", func(m *RawMessage) { m.ItemType = 6 }, "SharePlay Message\nEnded"},
		{"started sharing location", func(m *RawMessage) { m.ItemType = 4 }, "Started sharing location!"},
		{"stopped sharing location", func(m *RawMessage) {
			m.ItemType = 4
			m.ShareStatus = true
		}, "Stopped sharing location!"},
		{"fitness receiver", func(m *RawMessage) {
			m.Text = fitnessReceiver + " closed all three rings"
			m.Parts[0].Ranges = nil
		}, "You closed all three rings"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := CreateTestMessage("m1", "Hi")
			tt.modify(m)
			got := mustRender(t, newTestRenderer(CreateTestDirectory()), m)
			if !strings.Contains(got, "\n"+tt.line+"\n") {
				t.Errorf("Render() = %q, want line %q", got, tt.line)
			}
		})
	}
}

type failingResolver struct {
	*Directory
}

func (failingResolver) Reactions(string) (map[int][]*RawMessage, error) {
	return nil, errors.New("index unavailable")
}

func TestRender_LookupFailure(t *testing.T) {
	r := newTestRenderer(failingResolver{CreateTestDirectory()})

	_, err := r.Render(CreateTestMessage("m1", "Hello"))
	var renderErr *RenderError
	if !errors.As(err, &renderErr) {
		t.Fatalf("Render() error = %v, want *RenderError", err)
	}
	if renderErr.GUID != "m1" {
		t.Errorf("RenderError.GUID = %q, want %q", renderErr.GUID, "m1")
	}
}

func TestTapbackLabel(t *testing.T) {
	tests := []struct {
		kind  int
		emoji string
		want  string
	}{
		{2000, "", "Loved"},
		{2001, "", "Liked"},
		{2002, "", "Disliked"},
		{2003, "", "Laughed"},
		{2004, "", "Emphasized"},
		{2005, "", "Questioned"},
		{2006, "🎉", "🎉"},
		{2006, "", "Reacted"},
	}

	for _, tt := range tests {
		if got := TapbackLabel(tt.kind, tt.emoji); got != tt.want {
			t.Errorf("TapbackLabel(%d, %q) = %q, want %q", tt.kind, tt.emoji, got, tt.want)
		}
	}
}
