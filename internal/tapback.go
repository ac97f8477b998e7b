package internal

var tapbackLabels = []string{
	"Loved",
	"Liked",
	"Disliked",
	"Laughed",
	"Emphasized",
	"Questioned",
}

// TapbackLabel returns the verb for an added tapback type, such as "Loved".
// Emoji tapbacks use the emoji itself.
func TapbackLabel(associatedType int, emoji string) string {
	offset := associatedType - reactionAddedBase
	switch {
	case offset >= 0 && offset < len(tapbackLabels):
		return tapbackLabels[offset]
	case offset == reactionEmojiOffset:
		if emoji != "" {
			return emoji
		}
		return "Reacted"
	default:
		return "Reacted"
	}
}

func isStickerReaction(associatedType int) bool {
	return associatedType == ReactionSticker || associatedType == reactionAddedBase+reactionMaxKindOffset
}

func isRemovedReaction(associatedType int) bool {
	return associatedType >= reactionRemovedBase && associatedType <= reactionRemovedBase+reactionMaxKindOffset
}

// tapback renders one reaction line. Removed reactions render as "".
func (r *MessageRenderer) tapback(reaction *RawMessage) string {
	t := reaction.AssociatedMessageType
	if isRemovedReaction(t) {
		return ""
	}

	who := r.who(reaction)
	if isStickerReaction(t) {
		if len(reaction.Attachments) == 0 {
			return "Sticker from " + who + " not found!"
		}
		return r.sticker(&reaction.Attachments[0], reaction) + " from " + who
	}
	return TapbackLabel(t, reaction.AssociatedMessageEmoji) + " by " + who
}
