package internal

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Balloon is a decoded app message payload
type Balloon interface {
	BalloonKind() string
}

// URLBalloon is a rich link preview
type URLBalloon struct {
	URL         string `json:"url,omitempty"`
	OriginalURL string `json:"original_url,omitempty"`
	Title       string `json:"title,omitempty"`
	Summary     string `json:"summary,omitempty"`
}

// MusicBalloon is a shared Apple Music item
type MusicBalloon struct {
	URL    string `json:"url,omitempty"`
	Track  string `json:"track_name,omitempty"`
	Album  string `json:"album,omitempty"`
	Artist string `json:"artist,omitempty"`
}

// CollaborationBalloon is an invitation to collaborate on a document
type CollaborationBalloon struct {
	AppName     string `json:"app_name,omitempty"`
	BundleID    string `json:"bundle_id,omitempty"`
	Title       string `json:"title,omitempty"`
	URL         string `json:"url,omitempty"`
	OriginalURL string `json:"original_url,omitempty"`
}

// AppStoreBalloon is an App Store listing
type AppStoreBalloon struct {
	URL         string `json:"url,omitempty"`
	AppName     string `json:"app_name,omitempty"`
	Description string `json:"description,omitempty"`
	Platform    string `json:"platform,omitempty"`
	Genre       string `json:"genre,omitempty"`
}

// Placemark is the address detail of a shared location
type Placemark struct {
	Name                  string `json:"name,omitempty"`
	Address               string `json:"address,omitempty"`
	State                 string `json:"state,omitempty"`
	City                  string `json:"city,omitempty"`
	ISOCountryCode        string `json:"iso_country_code,omitempty"`
	PostalCode            string `json:"postal_code,omitempty"`
	Country               string `json:"country,omitempty"`
	Street                string `json:"street,omitempty"`
	SubAdministrativeArea string `json:"sub_administrative_area,omitempty"`
	SubLocality           string `json:"sub_locality,omitempty"`
}

// PlacemarkBalloon is a shared map location
type PlacemarkBalloon struct {
	PlaceName   string    `json:"place_name,omitempty"`
	URL         string    `json:"url,omitempty"`
	OriginalURL string    `json:"original_url,omitempty"`
	Placemark   Placemark `json:"placemark"`
}

// HandwrittenBalloon is a handwritten note. Preview holds an ASCII rendering.
type HandwrittenBalloon struct {
	ID      string `json:"id,omitempty"`
	Preview string `json:"preview,omitempty"`
}

// AppBalloon is the generic payload shape shared by iMessage app extensions
type AppBalloon struct {
	AppName            string `json:"app_name,omitempty"`
	Title              string `json:"title,omitempty"`
	Subtitle           string `json:"subtitle,omitempty"`
	Caption            string `json:"caption,omitempty"`
	Subcaption         string `json:"subcaption,omitempty"`
	TrailingCaption    string `json:"trailing_caption,omitempty"`
	TrailingSubcaption string `json:"trailing_subcaption,omitempty"`
	LDText             string `json:"ldtext,omitempty"`
	URL                string `json:"url,omitempty"`
}

func (*URLBalloon) BalloonKind() string           { return "url" }
func (*MusicBalloon) BalloonKind() string         { return "music" }
func (*CollaborationBalloon) BalloonKind() string { return "collaboration" }
func (*AppStoreBalloon) BalloonKind() string      { return "app_store" }
func (*PlacemarkBalloon) BalloonKind() string     { return "placemark" }
func (*HandwrittenBalloon) BalloonKind() string   { return "handwriting" }
func (*AppBalloon) BalloonKind() string           { return "app" }

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// AppVariant is the kind of app extension that produced a balloon
type AppVariant int

const (
	VariantApplication AppVariant = iota
	VariantURL
	VariantHandwriting
	VariantApplePay
	VariantFitness
	VariantSlideshow
	VariantCheckIn
	VariantFindMy
)

var appVariants = map[string]AppVariant{
	"com.apple.messages.URLBalloonProvider":                    VariantURL,
	"com.apple.Handwriting.HandwritingProvider":                VariantHandwriting,
	"com.apple.PassbookUIService.PeerPaymentMessagesExtension": VariantApplePay,
	"com.apple.ActivityMessagesApp.MessagesExtension":          VariantFitness,
	"com.apple.mobileslideshow.PhotosMessagesApp":              VariantSlideshow,
	"com.apple.SafetyMonitorApp.SafetyMonitorMessages":         VariantCheckIn,
	"com.apple.findmy.FindMyMessagesApp":                       VariantFindMy,
}

// ParseBundleID returns the app variant and the bare bundle identifier for a
// balloon_bundle_id, which may be prefixed with a plugin path such as
// "com.apple.messages.MSMessageExtensionBalloonPlugin:TEAMID:com.example.app".
func ParseBundleID(balloonBundleID string) (AppVariant, string) {
	id := balloonBundleID
	if i := strings.LastIndex(id, ":"); i >= 0 {
		id = id[i+1:]
	}
	if v, ok := appVariants[id]; ok {
		return v, id
	}
	return VariantApplication, id
}

// BubbleFormatter renders decoded balloons into indented transcript lines
type BubbleFormatter struct {
	Location *time.Location
}

func addLine(b *strings.Builder, part, indent string) {
	if part == "" {
		return
	}
	b.WriteString(indent)
	b.WriteString(part)
	b.WriteByte('\n')
}

func stripTrailingNewline(s string) string {
	return strings.TrimSuffix(s, "\n")
}

// URL renders a link preview. fallbackText is used when the balloon has no url.
func (f BubbleFormatter) URL(b *URLBalloon, fallbackText, indent string) string {
	var out strings.Builder
	addLine(&out, firstNonEmpty(b.URL, b.OriginalURL, fallbackText), indent)
	addLine(&out, b.Title, indent)
	addLine(&out, b.Summary, indent)
	return stripTrailingNewline(out.String())
}

func (f BubbleFormatter) Music(b *MusicBalloon, indent string) string {
	var out strings.Builder
	addLine(&out, b.Track, indent)
	addLine(&out, b.Album, indent)
	addLine(&out, b.Artist, indent)
	addLine(&out, b.URL, indent)
	return stripTrailingNewline(out.String())
}

// Collaboration renders a header, a blank separator, then title and url
func (f BubbleFormatter) Collaboration(b *CollaborationBalloon, indent string) string {
	var out strings.Builder
	if name := firstNonEmpty(b.AppName, b.BundleID); name != "" {
		out.WriteString(indent + name + " message:\n\n")
	}
	addLine(&out, b.Title, indent)
	addLine(&out, firstNonEmpty(b.URL, b.OriginalURL), indent)
	return stripTrailingNewline(out.String())
}

func (f BubbleFormatter) AppStore(b *AppStoreBalloon, indent string) string {
	var out strings.Builder
	addLine(&out, b.AppName, indent)
	addLine(&out, b.Description, indent)
	addLine(&out, b.Platform, indent)
	addLine(&out, b.Genre, indent)
	addLine(&out, b.URL, indent)
	return stripTrailingNewline(out.String())
}

func (f BubbleFormatter) Placemark(b *PlacemarkBalloon, indent string) string {
	var out strings.Builder
	p := b.Placemark
	for _, field := range []string{
		b.PlaceName,
		firstNonEmpty(b.URL, b.OriginalURL),
		p.Name,
		p.Address,
		p.State,
		p.City,
		p.ISOCountryCode,
		p.PostalCode,
		p.Country,
		p.Street,
		p.SubAdministrativeArea,
		p.SubLocality,
	} {
		addLine(&out, field, indent)
	}
	return stripTrailingNewline(out.String())
}

// Handwriting renders the exported image path when there is one, otherwise
// the ASCII preview with every line indented
func (f BubbleFormatter) Handwriting(b *HandwrittenBalloon, exportedPath, indent string) string {
	if exportedPath != "" {
		return indent + exportedPath
	}
	lines := strings.Split(strings.TrimRight(b.Preview, "\n"), "\n")
	for i, line := range lines {
		lines[i] = indent + line
	}
	return strings.Join(lines, "\n")
}

func (f BubbleFormatter) ApplePay(b *AppBalloon, indent string) string {
	out := indent
	if b.Caption != "" {
		out += b.Caption + " transaction: "
	}
	return out + firstNonEmpty(b.LDText, "unknown amount")
}

func (f BubbleFormatter) Fitness(b *AppBalloon, indent string) string {
	out := indent
	if b.AppName != "" {
		out += b.AppName + " message: "
	}
	return out + firstNonEmpty(b.LDText, "unknown workout")
}

func (f BubbleFormatter) Slideshow(b *AppBalloon, indent string) string {
	out := indent
	if b.LDText != "" {
		out += "Photo album: " + b.LDText
	}
	if b.URL != "" {
		out += " " + b.URL
	}
	return out
}

func (f BubbleFormatter) FindMy(b *AppBalloon, indent string) string {
	out := indent
	if b.AppName != "" {
		out += b.AppName + ": "
	}
	if b.LDText != "" {
		out += " " + b.LDText
	}
	return out
}

// CheckIn renders a Check In message. Timestamps come from the url query
// string as seconds since 2001-01-01 UTC.
func (f BubbleFormatter) CheckIn(b *AppBalloon, indent string) string {
	out := indent + firstNonEmpty(b.Caption, "Check In")

	query := parseQueryString(b.URL)
	for _, field := range []struct {
		key   string
		label string
	}{
		{"estimatedEndTime", "\nExpected at "},
		{"triggerTime", "\nWas expected at "},
		{"sendDate", "\nChecked in at "},
	} {
		raw, ok := query[field.key]
		if !ok {
			continue
		}
		seconds, _ := strconv.ParseFloat(raw, 64)
		out += field.label + FormatTime(FromAppleSeconds(int64(seconds)), f.Location)
		break
	}
	return out
}

// GenericApp renders a card from a third party iMessage app
func (f BubbleFormatter) GenericApp(b *AppBalloon, bundleID, indent string) string {
	var out strings.Builder
	if name := firstNonEmpty(b.AppName, bundleID); name != "" {
		out.WriteString(indent + name + " message:\n\n")
	}
	addLine(&out, b.Title, indent)
	addLine(&out, b.Subtitle, indent)
	addLine(&out, b.Caption, indent)
	addLine(&out, b.Subcaption, indent)
	addLine(&out, b.TrailingCaption, indent)
	addLine(&out, b.TrailingSubcaption, indent)
	return stripTrailingNewline(out.String())
}

// Sticker renders a sticker line attributed to who
func (f BubbleFormatter) Sticker(who, path, effect string) string {
	if effect != "" {
		return effect + " Sticker from " + who + ": " + path
	}
	return "Sticker from " + who + ": " + path
}

func parseQueryString(rawURL string) map[string]string {
	out := map[string]string{}
	_, query, ok := strings.Cut(rawURL, "?")
	if !ok {
		return out
	}
	values, err := url.ParseQuery(query)
	if err != nil {
		return out
	}
	for k, v := range values {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}
