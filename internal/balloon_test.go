package internal

import (
	"errors"
	"testing"
	"time"
)

func TestParseBundleID(t *testing.T) {
	tests := []struct {
		in          string
		wantVariant AppVariant
		wantID      string
	}{
		{"com.apple.messages.URLBalloonProvider", VariantURL, "com.apple.messages.URLBalloonProvider"},
		{"com.apple.Handwriting.HandwritingProvider", VariantHandwriting, "com.apple.Handwriting.HandwritingProvider"},
		{
			"com.apple.messages.MSMessageExtensionBalloonPlugin:0000000000:com.apple.PassbookUIService.PeerPaymentMessagesExtension",
			VariantApplePay,
			"com.apple.PassbookUIService.PeerPaymentMessagesExtension",
		},
		{
			"com.apple.messages.MSMessageExtensionBalloonPlugin:EWFNLB79LQ:com.example.game",
			VariantApplication,
			"com.example.game",
		},
	}

	for _, tt := range tests {
		t.Run(tt.wantID, func(t *testing.T) {
			variant, id := ParseBundleID(tt.in)
			if variant != tt.wantVariant || id != tt.wantID {
				t.Errorf("ParseBundleID() = (%v, %q), want (%v, %q)", variant, id, tt.wantVariant, tt.wantID)
			}
		})
	}
}

func TestBubbleFormatter(t *testing.T) {
	f := BubbleFormatter{Location: time.UTC}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{
			name: "url",
			got:  f.URL(&URLBalloon{URL: "https://example.com", Title: "Example"}, "", ""),
			want: "https://example.com\nExample",
		},
		{
			name: "url falls back to message text",
			got:  f.URL(&URLBalloon{Title: "Example"}, "example.com", "    "),
			want: "    example.com\n    Example",
		},
		{
			name: "music",
			got:  f.Music(&MusicBalloon{Track: "Song", Artist: "Band"}, ""),
			want: "Song\nBand",
		},
		{
			name: "collaboration header has a blank line",
			got:  f.Collaboration(&CollaborationBalloon{AppName: "Pages", Title: "Plan", URL: "https://icloud.com/pages/1"}, ""),
			want: "Pages message:\n\nPlan\nhttps://icloud.com/pages/1",
		},
		{
			name: "app store",
			got:  f.AppStore(&AppStoreBalloon{AppName: "Maps", Genre: "Navigation"}, ""),
			want: "Maps\nNavigation",
		},
		{
			name: "placemark",
			got:  f.Placemark(&PlacemarkBalloon{PlaceName: "Home", Placemark: Placemark{City: "Springfield"}}, ""),
			want: "Home\nSpringfield",
		},
		{
			name: "handwriting preview",
			got:  f.Handwriting(&HandwrittenBalloon{Preview: "ab\ncd\n"}, "", "  "),
			want: "  ab\n  cd",
		},
		{
			name: "handwriting exported",
			got:  f.Handwriting(&HandwrittenBalloon{Preview: "ab"}, "/out/hw.txt", ""),
			want: "/out/hw.txt",
		},
		{
			name: "apple pay",
			got:  f.ApplePay(&AppBalloon{Caption: "Apple Cash", LDText: "$5"}, ""),
			want: "Apple Cash transaction: $5",
		},
		{
			name: "apple pay without amount",
			got:  f.ApplePay(&AppBalloon{}, ""),
			want: "unknown amount",
		},
		{
			name: "fitness",
			got:  f.Fitness(&AppBalloon{AppName: "Fitness", LDText: "Outdoor Run"}, ""),
			want: "Fitness message: Outdoor Run",
		},
		{
			name: "slideshow",
			got:  f.Slideshow(&AppBalloon{LDText: "Trip", URL: "https://share.icloud.com/1"}, ""),
			want: "Photo album: Trip https://share.icloud.com/1",
		},
		{
			name: "check in",
			got:  f.CheckIn(&AppBalloon{URL: "?messageType=1&estimatedEndTime=86400"}, ""),
			want: "Check In\nExpected at Jan 02, 2001 12:00:00 AM",
		},
		{
			name: "check in without time",
			got:  f.CheckIn(&AppBalloon{Caption: "Check In: Home"}, ""),
			want: "Check In: Home",
		},
		{
			name: "generic app",
			got:  f.GenericApp(&AppBalloon{Title: "Your move", Subtitle: "Round 2"}, "com.example.game", ""),
			want: "com.example.game message:\n\nYour move\nRound 2",
		},
		{
			name: "sticker with effect",
			got:  f.Sticker("Alice", "/s.png", "Outline"),
			want: "Outline Sticker from Alice: /s.png",
		},
		{
			name: "sticker",
			got:  f.Sticker("Me", "/s.png", ""),
			want: "Sticker from Me: /s.png",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestJSONPayloadDecoder_Decode(t *testing.T) {
	d := NewJSONPayloadDecoder()

	tests := []struct {
		name     string
		payload  string
		wantKind string
		wantErr  bool
	}{
		{"url", `{"kind":"url","url":"https://example.com"}`, "url", false},
		{"music", `{"kind":"music","track_name":"Song"}`, "music", false},
		{"placemark", `{"kind":"placemark","placemark":{"city":"Springfield"}}`, "placemark", false},
		{"missing kind is an app", `{"app_name":"Game"}`, "app", false},
		{"unknown kind", `{"kind":"hologram"}`, "", true},
		{"wrong field type", `{"kind":"music","track_name":5}`, "", true},
		{"not json", `not json`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			balloon, err := d.Decode([]byte(tt.payload))
			if tt.wantErr {
				var decodeErr *PayloadDecodeError
				if !errors.As(err, &decodeErr) {
					t.Fatalf("Decode() error = %v, want *PayloadDecodeError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if balloon.BalloonKind() != tt.wantKind {
				t.Errorf("Decode() kind = %q, want %q", balloon.BalloonKind(), tt.wantKind)
			}
		})
	}

	if _, err := d.Decode(nil); !errors.Is(err, ErrNoPayload) {
		t.Errorf("Decode(nil) error = %v, want ErrNoPayload", err)
	}
}

func TestJSONPayloadDecoder_Fields(t *testing.T) {
	balloon, err := NewJSONPayloadDecoder().Decode([]byte(`{"kind":"music","track_name":"Song","album":"Record","artist":"Band"}`))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	music, ok := balloon.(*MusicBalloon)
	if !ok {
		t.Fatalf("Decode() = %T, want *MusicBalloon", balloon)
	}
	if music.Track != "Song" || music.Album != "Record" || music.Artist != "Band" {
		t.Errorf("Decode() = %+v", music)
	}
}
