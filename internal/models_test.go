package internal

import (
	"testing"
	"time"
)

func TestRawMessage_IsReaction(t *testing.T) {
	tests := []struct {
		name    string
		msgType int
		want    bool
	}{
		{name: "plain message", msgType: 0, want: false},
		{name: "sticker", msgType: 1000, want: true},
		{name: "loved", msgType: 2000, want: true},
		{name: "emoji tapback", msgType: 2006, want: true},
		{name: "removed like", msgType: 3001, want: true},
		{name: "unknown added kind", msgType: 2010, want: false},
		{name: "app message", msgType: 3, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &RawMessage{AssociatedMessageType: tt.msgType}
			if got := m.IsReaction(); got != tt.want {
				t.Errorf("IsReaction() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRawMessage_ReplyPart(t *testing.T) {
	tests := []struct {
		part string
		want int
	}{
		{part: "", want: 0},
		{part: "0:0:11", want: 0},
		{part: "2:5:10", want: 2},
		{part: "3", want: 3},
		{part: "x:0:1", want: 0},
		{part: "-1:0:1", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.part, func(t *testing.T) {
			m := &RawMessage{ThreadOriginatorPart: tt.part}
			if got := m.ReplyPart(); got != tt.want {
				t.Errorf("ReplyPart() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRawMessage_ReactionTarget(t *testing.T) {
	tests := []struct {
		guid     string
		wantGUID string
		wantIdx  int
	}{
		{guid: "p:0/ABC", wantGUID: "ABC", wantIdx: 0},
		{guid: "p:2/ABC", wantGUID: "ABC", wantIdx: 2},
		{guid: "bp:ABC", wantGUID: "ABC", wantIdx: 0},
		{guid: "ABC", wantGUID: "ABC", wantIdx: 0},
		{guid: "p:ABC", wantGUID: "ABC", wantIdx: 0},
		{guid: "p:x/ABC", wantGUID: "ABC", wantIdx: 0},
	}

	for _, tt := range tests {
		t.Run(tt.guid, func(t *testing.T) {
			m := &RawMessage{AssociatedMessageGUID: tt.guid}
			guid, idx := m.ReactionTarget()
			if guid != tt.wantGUID || idx != tt.wantIdx {
				t.Errorf("ReactionTarget() = (%q, %d), want (%q, %d)", guid, idx, tt.wantGUID, tt.wantIdx)
			}
		})
	}
}

func TestRawMessage_Announcements(t *testing.T) {
	started := &RawMessage{ItemType: 4}
	stopped := &RawMessage{ItemType: 4, ShareStatus: true}
	shareplay := &RawMessage{ItemType: 6}

	if !started.StartedSharingLocation() || started.StoppedSharingLocation() {
		t.Error("expected started location share")
	}
	if !stopped.StoppedSharingLocation() || stopped.StartedSharingLocation() {
		t.Error("expected stopped location share")
	}
	if !shareplay.IsSharePlay() {
		t.Error("expected SharePlay")
	}
	if (&RawMessage{BalloonBundleID: "com.apple.messages.URLBalloonProvider"}).IsURL() != true {
		t.Error("expected URL balloon")
	}
}

func TestStringList_ValueScan(t *testing.T) {
	v, err := StringList(nil).Value()
	if err != nil || v != "[]" {
		t.Fatalf("Value() of nil = %v, %v; want \"[]\"", v, err)
	}

	v, err = StringList{"a.jpg", "b.heic"}.Value()
	if err != nil {
		t.Fatalf("Value() error = %v", err)
	}

	var got StringList
	if err := got.Scan([]byte(v.(string))); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(got) != 2 || got[0] != "a.jpg" || got[1] != "b.heic" {
		t.Errorf("Scan() = %v", got)
	}

	if err := got.Scan(nil); err != nil || got != nil {
		t.Errorf("Scan(nil) = %v, %v", got, err)
	}
	if err := got.Scan(42); err == nil {
		t.Error("expected error scanning an int")
	}
}

func TestPartKind_Text(t *testing.T) {
	for _, kind := range []PartKind{PartText, PartAttachment, PartApp, PartRetracted} {
		text, err := kind.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText() error = %v", err)
		}
		var back PartKind
		if err := back.UnmarshalText(text); err != nil || back != kind {
			t.Errorf("UnmarshalText(%q) = %v, %v", text, back, err)
		}
	}

	var k PartKind
	if err := k.UnmarshalText([]byte("hologram")); err == nil {
		t.Error("expected error for unknown kind")
	}
	if got := PartKind(42).String(); got != "PartKind(42)" {
		t.Errorf("String() = %q", got)
	}
}

func TestQueryFilter_Matches(t *testing.T) {
	day := time.Date(2022, 5, 17, 12, 0, 0, 0, time.UTC)
	m := &RawMessage{Date: day, ChatID: Int64Ptr(3)}

	tests := []struct {
		name   string
		filter QueryFilter
		msg    *RawMessage
		want   bool
	}{
		{name: "empty filter", filter: QueryFilter{}, msg: m, want: true},
		{name: "start inclusive", filter: QueryFilter{Start: day}, msg: m, want: true},
		{name: "before start", filter: QueryFilter{Start: day.Add(time.Second)}, msg: m, want: false},
		{name: "end exclusive", filter: QueryFilter{End: day}, msg: m, want: false},
		{name: "before end", filter: QueryFilter{End: day.Add(time.Second)}, msg: m, want: true},
		{name: "chat match", filter: QueryFilter{ChatIDs: []int64{1, 3}}, msg: m, want: true},
		{name: "chat mismatch", filter: QueryFilter{ChatIDs: []int64{1}}, msg: m, want: false},
		{name: "no chat", filter: QueryFilter{ChatIDs: []int64{3}}, msg: &RawMessage{Date: day}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Matches(tt.msg); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}
