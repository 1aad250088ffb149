package dialog

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kazka/kazka-bot/internal/session"
)

func TestClassifyVoice(t *testing.T) {
	tests := []struct {
		name string
		text string
		want session.Voice
	}{
		{"ukrainian male", "чоловічий", session.VoiceMale},
		{"ukrainian male in sentence", "чоловічий голос please", session.VoiceMale},
		{"english male", "male", session.VoiceMale},
		{"uppercase male", "MALE VOICE", session.VoiceMale},
		{"female contains male token", "female", session.VoiceMale},
		{"ukrainian neutral", "нейтральний", session.VoiceNeutral},
		{"english neutral", "neutral please", session.VoiceNeutral},
		{"ukrainian female", "жіночий", session.VoiceFemale},
		{"empty defaults to female", "", session.VoiceFemale},
		{"unrelated defaults to female", "whatever", session.VoiceFemale},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyVoice(tt.text))
		})
	}
}

func TestClassifyStyle(t *testing.T) {
	tests := []struct {
		name string
		text string
		want session.Style
	}{
		{"ukrainian emotional", "емоційна", session.StyleEmotional},
		{"english emotional", "emotional", session.StyleEmotional},
		{"ukrainian fairy tale", "казкова", session.StyleNarration},
		{"english fairy tale", "fairy-tale", session.StyleNarration},
		{"normal", "звичайна", session.StyleDefault},
		{"empty", "", session.StyleDefault},
		{"emotional wins over fairy", "емоційна казкова", session.StyleEmotional},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyStyle(tt.text))
		})
	}
}

func TestClassifyRiddleAge(t *testing.T) {
	assert.Equal(t, "5-6", ClassifyRiddleAge("5-6"))
	assert.Equal(t, "5-6", ClassifyRiddleAge("дитині 5 років"))
	assert.Equal(t, "5-6", ClassifyRiddleAge("he is 5"))
	assert.Equal(t, "3-4", ClassifyRiddleAge("3-4"))
	assert.Equal(t, "3-4", ClassifyRiddleAge("чотири роки"))
	assert.Equal(t, "3-4", ClassifyRiddleAge(""))
}
