package internal

import "strings"

const (
	bubbleEffectPrefix = "com.apple.MobileSMS.expressivesend."
	screenEffectPrefix = "com.apple.messages.effect."
)

var bubbleEffects = map[string]string{
	"impact":       "Slam",
	"loud":         "Loud",
	"gentle":       "Gentle",
	"invisibleink": "Invisible Ink",
}

var screenEffects = map[string]string{
	"CKConfettiEffect":      "Confetti",
	"CKEchoEffect":          "Echo",
	"CKFireworksEffect":     "Fireworks",
	"CKHappyBirthdayEffect": "Balloons",
	"CKHeartEffect":         "Heart",
	"CKLasersEffect":        "Lasers",
	"CKShootingStarEffect":  "Shooting Star",
	"CKSparklesEffect":      "Sparkles",
	"CKSpotlightEffect":     "Spotlight",
}

// ExpressiveLabel returns the "Sent with ..." line for an expressive send style.
// Unknown styles are returned unchanged and an empty style yields "".
func ExpressiveLabel(styleID string) string {
	if styleID == "" {
		return ""
	}
	if name, ok := strings.CutPrefix(styleID, bubbleEffectPrefix); ok {
		if label, known := bubbleEffects[name]; known {
			return "Sent with " + label
		}
	}
	if name, ok := strings.CutPrefix(styleID, screenEffectPrefix); ok {
		if label, known := screenEffects[name]; known {
			return "Sent with " + label
		}
	}
	return styleID
}
