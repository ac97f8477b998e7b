package internal

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	fitnessReceiver = "$(kIMTranscriptPluginBreadcrumbTextReceiverIdentifier)"
	you             = "You"
	replyIndent     = 4
)

// MessageRenderer turns a RawMessage into its plain-text transcript entry
type MessageRenderer struct {
	resolver    Resolver
	decoder     PayloadDecoder
	attachments AttachmentManager
	bubbles     BubbleFormatter
	customName  string
	location    *time.Location
}

// RendererOption configures a MessageRenderer
type RendererOption func(*MessageRenderer)

// WithCustomName sets the name used for the archive owner in place of "you"
func WithCustomName(name string) RendererOption {
	return func(r *MessageRenderer) {
		r.customName = name
	}
}

// WithLocation sets the time zone timestamps are rendered in
func WithLocation(loc *time.Location) RendererOption {
	return func(r *MessageRenderer) {
		r.location = loc
		r.bubbles.Location = loc
	}
}

// NewMessageRenderer creates a renderer backed by the given collaborators
func NewMessageRenderer(resolver Resolver, decoder PayloadDecoder, attachments AttachmentManager, opts ...RendererOption) *MessageRenderer {
	r := &MessageRenderer{
		resolver:    resolver,
		decoder:     decoder,
		attachments: attachments,
		location:    time.Local,
		bubbles:     BubbleFormatter{Location: time.Local},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render renders a top-level message. A failure that cannot be expressed as
// an inline diagnostic is returned as a *RenderError.
func (r *MessageRenderer) Render(m *RawMessage) (string, error) {
	out, err := r.render(m, 0)
	if err != nil {
		return "", &RenderError{GUID: m.GUID, Err: err}
	}
	return out, nil
}

func (r *MessageRenderer) render(m *RawMessage, indentSize int) (string, error) {
	indent := strings.Repeat(" ", indentSize)
	var out strings.Builder

	// Header
	addLine(&out, r.timeLine(m), indent)
	addLine(&out, r.who(m), indent)
	if m.IsDeleted() {
		addLine(&out, "This message was deleted from the conversation!", indent)
	}

	reactions, err := r.resolver.Reactions(m.GUID)
	if err != nil {
		return "", fmt.Errorf("failed to load reactions: %w", err)
	}
	var replies map[int][]*RawMessage
	if m.NumReplies > 0 {
		replies, err = r.resolver.Replies(m.GUID)
		if err != nil {
			return "", fmt.Errorf("failed to load replies: %w", err)
		}
	}

	addLine(&out, m.Subject, indent)
	if m.IsSharePlay() {
		addLine(&out, "SharePlay Message\nEnded", indent)
	}
	if m.StartedSharingLocation() {
		addLine(&out, "Started sharing location!", indent)
	} else if m.StoppedSharingLocation() {
		addLine(&out, "Stopped sharing location!", indent)
	}

	// Body
	// Messages without parsed parts carry their whole text as one part
	parts := m.Parts
	if len(parts) == 0 && m.Text != "" {
		parts = []ContentPart{{Kind: PartText}}
	}

	attachmentIndex := 0
	for idx, part := range parts {
		switch part.Kind {
		case PartText:
			if m.IsPartEdited(idx) {
				out.WriteString(r.edited(m, idx, indent))
				break
			}
			text := r.partText(m, part)
			if strings.HasPrefix(text, fitnessReceiver) {
				text = strings.ReplaceAll(text, fitnessReceiver, you)
			}
			addLine(&out, text, indent)

		case PartAttachment:
			if attachmentIndex >= len(m.Attachments) {
				addLine(&out, "Attachment missing!", indent)
				break
			}
			a := &m.Attachments[attachmentIndex]
			if a.IsSticker {
				addLine(&out, r.sticker(a, m), indent)
				break
			}
			path, err := r.attachments.Resolve(a, m)
			if err != nil {
				LogDebug("Attachment %d of %s unresolved: %v", a.RowID, m.GUID, err)
				addLine(&out, a.DisplayName(), indent)
				break
			}
			attachmentIndex++
			addLine(&out, path, indent)

		case PartApp:
			bubble, err := r.app(m, indent)
			if err != nil {
				if !isInlineAppError(err) {
					return "", err
				}
				addLine(&out, "Unable to format app message: "+err.Error(), indent)
				break
			}
			if bubble != "" {
				out.WriteString(bubble)
				out.WriteByte('\n')
			}

		case PartRetracted:
			if m.Edited != nil {
				out.WriteString(r.edited(m, idx, indent))
			}
		}

		addLine(&out, ExpressiveLabel(m.ExpressiveSendStyleID), indent)

		var tapbacks []string
		for _, reaction := range reactions[idx] {
			if line := r.tapback(reaction); line != "" {
				tapbacks = append(tapbacks, line)
			}
		}
		if len(tapbacks) > 0 {
			addLine(&out, "Tapbacks:", indent)
			for _, line := range tapbacks {
				addLine(&out, line, indent)
			}
		}

		for _, reply := range replies[idx] {
			if reply.IsReaction() {
				continue
			}
			rendered, err := r.render(reply, indentSize+replyIndent)
			if err != nil {
				addLine(&out, fmt.Sprintf("Unable to format reply %s: %v", reply.GUID, err), indent)
				continue
			}
			out.WriteString(rendered)
		}
	}

	// Trailer
	if indentSize == 0 {
		if m.IsReply() {
			addLine(&out, "This message responded to an earlier message.", indent)
		}
		out.WriteByte('\n')
	}

	return out.String(), nil
}

func isInlineAppError(err error) bool {
	var decodeErr *PayloadDecodeError
	return errors.As(err, &decodeErr) || errors.Is(err, ErrNoPayload) || errors.Is(err, ErrWrongMessageType)
}

func (r *MessageRenderer) who(m *RawMessage) string {
	return r.resolver.Who(m.HandleID, m.IsFromMe, m.DestinationCallerID)
}

func (r *MessageRenderer) youName() string {
	return firstNonEmpty(r.customName, you)
}

// timeLine renders the send time, noting how long the message took to be read
func (r *MessageRenderer) timeLine(m *RawMessage) string {
	line := FormatTime(m.Date, r.location)

	var readAfter, reader string
	if m.IsFromMe {
		readAfter = ReadableDiff(m.Date, m.DateDelivered)
		reader = "them"
	} else {
		readAfter = ReadableDiff(m.Date, m.DateRead)
		reader = firstNonEmpty(r.customName, "you")
	}
	if readAfter != "" {
		line += fmt.Sprintf(" (Read by %s after %s)", reader, readAfter)
	}
	return line
}

// partText concatenates the text ranges of a part, falling back to the whole
// message text when no range could be read
func (r *MessageRenderer) partText(m *RawMessage, part ContentPart) string {
	var b strings.Builder
	for _, rng := range part.Ranges {
		if rng.Start < 0 || rng.End > len(m.Text) || rng.Start > rng.End {
			continue
		}
		b.WriteString(m.Text[rng.Start:rng.End])
	}
	if b.Len() == 0 {
		return m.Text
	}
	return b.String()
}

func (r *MessageRenderer) sticker(a *Attachment, m *RawMessage) string {
	who := r.who(m)
	path, err := r.attachments.Resolve(a, m)
	if err != nil {
		return r.bubbles.Sticker(who, a.DisplayName(), "")
	}
	return r.bubbles.Sticker(who, path, a.StickerEffect)
}

// edited renders the edit chain or unsent notice for a part, one line per
// event, each terminated by a newline
func (r *MessageRenderer) edited(m *RawMessage, idx int, indent string) string {
	part, ok := m.Edited.Part(idx)
	if !ok {
		return ""
	}

	var out strings.Builder
	switch part.Status {
	case EditEdited:
		var previous time.Time
		for i, event := range part.History {
			prefix := ""
			if i == 0 {
				prefix = FormatTime(event.Date, r.location) + " "
			} else if diff := ReadableDiff(previous, event.Date); diff != "" {
				prefix = "Edited " + diff + " later: "
			}
			previous = event.Date
			addLine(&out, prefix+event.Text, indent)
		}

	case EditUnsent:
		who := "They"
		if m.IsFromMe {
			who = r.youName()
		}
		if diff := ReadableDiff(m.Date, m.DateEdited); diff != "" {
			addLine(&out, who+" unsent this message part "+diff+" after sending!", indent)
		} else {
			addLine(&out, who+" unsent this message part!", indent)
		}
	}
	return out.String()
}

// app decodes the message payload and dispatches it to the matching formatter
func (r *MessageRenderer) app(m *RawMessage, indent string) (string, error) {
	if m.BalloonBundleID == "" {
		return "", ErrWrongMessageType
	}
	variant, bundleID := ParseBundleID(m.BalloonBundleID)

	if len(m.Payload) == 0 {
		// Link previews are sometimes stored without a payload
		if variant == VariantURL && m.Text != "" {
			return indent + m.Text, nil
		}
		return "", ErrNoPayload
	}

	balloon, err := r.decoder.Decode(m.Payload)
	if err != nil {
		return "", err
	}

	switch variant {
	case VariantHandwriting:
		hw, ok := balloon.(*HandwrittenBalloon)
		if !ok {
			return "", unexpectedBalloon("handwriting", balloon)
		}
		var exported string
		if exporter, ok := r.attachments.(HandwritingExporter); ok {
			if path, err := exporter.ExportHandwriting(hw, m); err == nil {
				exported = path
			} else {
				LogDebug("Handwriting export failed for %s: %v", m.GUID, err)
			}
		}
		return r.bubbles.Handwriting(hw, exported, indent), nil

	case VariantURL:
		switch b := balloon.(type) {
		case *URLBalloon:
			return r.bubbles.URL(b, m.Text, indent), nil
		case *MusicBalloon:
			return r.bubbles.Music(b, indent), nil
		case *CollaborationBalloon:
			return r.bubbles.Collaboration(b, indent), nil
		case *AppStoreBalloon:
			return r.bubbles.AppStore(b, indent), nil
		case *PlacemarkBalloon:
			return r.bubbles.Placemark(b, indent), nil
		default:
			return "", unexpectedBalloon("url", balloon)
		}
	}

	app, ok := balloon.(*AppBalloon)
	if !ok {
		return "", unexpectedBalloon("app", balloon)
	}
	switch variant {
	case VariantApplePay:
		return r.bubbles.ApplePay(app, indent), nil
	case VariantFitness:
		return r.bubbles.Fitness(app, indent), nil
	case VariantSlideshow:
		return r.bubbles.Slideshow(app, indent), nil
	case VariantCheckIn:
		return r.bubbles.CheckIn(app, indent), nil
	case VariantFindMy:
		return r.bubbles.FindMy(app, indent), nil
	default:
		return r.bubbles.GenericApp(app, bundleID, indent), nil
	}
}

func unexpectedBalloon(want string, got Balloon) error {
	return &PayloadDecodeError{Kind: want, Err: fmt.Errorf("unexpected %s payload", got.BalloonKind())}
}
