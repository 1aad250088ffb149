package dialog

import (
	"strings"

	"github.com/kazka/kazka-bot/internal/session"
)

// Free-text classification is deliberately permissive substring matching
// rather than strict parsing: loosely worded replies ("чоловічий голос
// please") still resolve, and unrecognized text falls back to a defined
// default so the flow always makes forward progress. Match ordering is
// first-match-wins and must not be reordered.

// ClassifyVoice maps a free-text reply to a narration voice.
func ClassifyVoice(text string) session.Voice {
	t := strings.ToLower(text)
	switch {
	case strings.Contains(t, "чол") || strings.Contains(t, "male"):
		// "male" is checked before the neutral tokens, so "female" also
		// lands here. That matches the reference behavior.
		return session.VoiceMale
	case strings.Contains(t, "нейтр") || strings.Contains(t, "neutral"):
		return session.VoiceNeutral
	default:
		return session.VoiceFemale
	}
}

// ClassifyStyle maps a free-text reply to an intonation style.
func ClassifyStyle(text string) session.Style {
	t := strings.ToLower(text)
	switch {
	case strings.Contains(t, "емоц") || strings.Contains(t, "emot"):
		return session.StyleEmotional
	case strings.Contains(t, "казк") || strings.Contains(t, "fairy"):
		return session.StyleNarration
	default:
		return session.StyleDefault
	}
}

// ClassifyRiddleAge maps a free-text reply to an age bracket.
func ClassifyRiddleAge(text string) string {
	if strings.Contains(text, "5") {
		return "5-6"
	}
	return "3-4"
}
